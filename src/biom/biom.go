// Package biom validates BIOM 1.0 (JSON) and 2.1 (HDF5) tables and reads them into a Table
package biom

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"os"
	"sort"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"gonum.org/v1/gonum/mat"
)

// Warn receives the warnings of this package, the host may redirect it
var Warn = log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime)

// the top-level keys a BIOM 1.0 document may hold
var permittedKeys = map[string]bool{
	"id": true, "format": true, "format_url": true, "type": true, "generated_by": true,
	"date": true, "rows": true, "columns": true, "matrix_type": true,
	"matrix_element_type": true, "shape": true, "data": true, "comment": true,
}

// BIOMV100Format is the JSON BIOM format
var BIOMV100Format = format.NewTextFormat("BIOMV100Format", func(path string, level format.Level) error {
	_, err := ReadV100(path)
	return err
}).WithSniffer(sniffV100)

// BIOMV100DirFmt holds feature-table.biom in the JSON format
var BIOMV100DirFmt = format.NewDirectoryFormat("BIOMV100DirFmt",
	format.FixedFile("table", "feature-table.biom", BIOMV100Format))

// Entity is a row (observation) or column (sample) of a BIOM table
type Entity struct {
	ID       string                 `json:"id"`
	Metadata map[string]interface{} `json:"metadata"`
}

type document struct {
	ID                string      `json:"id"`
	Format            string      `json:"format"`
	FormatURL         string      `json:"format_url"`
	Type              string      `json:"type"`
	GeneratedBy       string      `json:"generated_by"`
	Date              string      `json:"date"`
	Rows              []Entity    `json:"rows"`
	Columns           []Entity    `json:"columns"`
	MatrixType        string      `json:"matrix_type"`
	MatrixElementType string      `json:"matrix_element_type"`
	Shape             []int       `json:"shape"`
	Data              [][]float64 `json:"data"`
}

// Table is a feature table, observations are rows and samples are columns
type Table struct {
	ObservationIDs      []string
	SampleIDs           []string
	ObservationMetadata []map[string]interface{} // nil entries for observations without metadata
	Data                *mat.Dense               // nil when the table is empty
}

// HasObservationMetadata reports if any observation carries metadata
func (t *Table) HasObservationMetadata() bool {
	for _, md := range t.ObservationMetadata {
		if md != nil {
			return true
		}
	}
	return false
}

// ReadV100 checks and parses a JSON BIOM table
func ReadV100(path string) (*Table, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, errs.New(errs.Structural, "json", "The file is not a JSON object: %v", err).InFile(path)
	}
	var unknown []string
	for k := range keys {
		if !permittedKeys[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errs.New(errs.Structural, "unknown key", "%q is not a BIOM 1.0 key", unknown[0]).InFile(path).With("keys", unknown)
	}
	if _, ok := keys["format_url"]; !ok {
		return nil, errs.New(errs.Structural, "missing key", "BIOM 1.0 tables require the format_url key").InFile(path).WithField("format_url")
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.New(errs.Content, "json", "The BIOM document has a badly typed value: %v", err).InFile(path)
	}
	t, err := doc.table()
	return t, errs.Locate(err, path)
}

func (doc *document) table() (*Table, error) {
	if len(doc.Shape) != 2 {
		return nil, errs.New(errs.Content, "shape", "shape must hold two dimensions, found %d", len(doc.Shape)).WithField("shape")
	}
	nrow, ncol := doc.Shape[0], doc.Shape[1]
	if len(doc.Rows) != nrow || len(doc.Columns) != ncol {
		return nil, errs.New(errs.Content, "shape", "shape is %dx%d but the table has %d rows and %d columns", nrow, ncol, len(doc.Rows), len(doc.Columns)).WithField("shape")
	}
	t := &Table{}
	for _, r := range doc.Rows {
		t.ObservationIDs = append(t.ObservationIDs, r.ID)
		t.ObservationMetadata = append(t.ObservationMetadata, r.Metadata)
	}
	for _, c := range doc.Columns {
		t.SampleIDs = append(t.SampleIDs, c.ID)
	}
	if nrow == 0 || ncol == 0 {
		return t, nil
	}
	t.Data = mat.NewDense(nrow, ncol, nil)
	switch doc.MatrixType {
	case "sparse":
		for _, e := range doc.Data {
			if len(e) != 3 {
				return nil, errs.New(errs.Content, "data", "sparse entries are [row, column, value] triples").WithField("data")
			}
			r, c := int(e[0]), int(e[1])
			if r < 0 || r >= nrow || c < 0 || c >= ncol || float64(r) != e[0] || float64(c) != e[1] {
				return nil, errs.New(errs.Content, "data", "sparse entry [%v, %v] is outside the %dx%d table", e[0], e[1], nrow, ncol).WithField("data")
			}
			t.Data.Set(r, c, e[2])
		}
	case "dense":
		if len(doc.Data) != nrow {
			return nil, errs.New(errs.Content, "data", "dense data has %d rows, expected %d", len(doc.Data), nrow).WithField("data")
		}
		for r, row := range doc.Data {
			if len(row) != ncol {
				return nil, errs.New(errs.Content, "data", "dense row %d has %d values, expected %d", r, len(row), ncol).WithField("data")
			}
			t.Data.SetRow(r, row)
		}
	default:
		return nil, errs.New(errs.Content, "matrix type", "matrix_type must be sparse or dense, not %q", doc.MatrixType).WithField("matrix_type")
	}
	return t, nil
}

func sniffV100(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()
	var keys map[string]json.RawMessage
	if err := json.NewDecoder(fh).Decode(&keys); err != nil {
		return false
	}
	for k := range keys {
		if !permittedKeys[k] {
			return false
		}
	}
	_, ok := keys["format_url"]
	return ok
}
