package taxonomy

import (
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// Table is a taxonomy keyed by feature ID, Columns[0] is always Taxon
type Table struct {
	Columns []string
	IDs     []string
	Values  [][]string
}

// NewTable returns an empty two column table
func NewTable() *Table {
	return &Table{Columns: []string{Taxon}}
}

// Add appends a row
func (t *Table) Add(id string, values ...string) error {
	if len(values) != len(t.Columns) {
		return errors.Errorf("feature %q has %d values but the table has %d columns", id, len(values), len(t.Columns))
	}
	t.IDs = append(t.IDs, id)
	t.Values = append(t.Values, append([]string(nil), values...))
	return nil
}

// Len returns the number of features
func (t *Table) Len() int {
	return len(t.IDs)
}

// Taxon returns the taxon of a feature
func (t *Table) Taxon(id string) (string, bool) {
	for i, fid := range t.IDs {
		if fid == id {
			return t.Values[i][0], true
		}
	}
	return "", false
}

// Normalize trims whitespace around every Taxon value
func (t *Table) Normalize() {
	for _, row := range t.Values {
		row[0] = strings.TrimSpace(row[0])
	}
}

// readRows returns the non-blank rows of a TSV
func readRows(path string) ([][]string, []int, error) {
	var rows [][]string
	var lines []int
	err := format.ScanLines(path, 0, func(lr *fsutil.LineReader) error {
		if isBlank(lr.Text()) {
			return nil
		}
		rows = append(rows, splitLine(lr))
		lines = append(lines, lr.Line())
		return nil
	})
	return rows, lines, errs.Locate(err, path)
}

func build(path string, columns []string, rows [][]string, lines []int) (*Table, error) {
	t := &Table{Columns: columns}
	seen := make(map[string]int)
	for i, row := range rows {
		if len(row) != len(columns)+1 {
			return nil, errs.New(errs.Structural, "column count", "line %d has %d values, expected %d", lines[i], len(row), len(columns)+1).At(lines[i]).InFile(path)
		}
		if prior, dup := seen[row[0]]; dup {
			return nil, errs.New(errs.Content, "duplicate id", "Feature ID %q on line %d is a duplicate of the ID on line %d.", row[0], lines[i], prior).At(lines[i]).Prior(prior).InFile(path)
		}
		seen[row[0]] = lines[i]
		t.IDs = append(t.IDs, row[0])
		t.Values = append(t.Values, row[1:])
	}
	t.Normalize()
	return t, nil
}

// ReadTSV reads a TSVTaxonomyFormat file
func ReadTSV(path string) (*Table, error) {
	rows, lines, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.Structural, "missing header", "taxonomy file is empty").InFile(path)
	}
	if err := checkHeader(rows[0], lines[0]); err != nil {
		return nil, errs.Locate(err, path)
	}
	if len(rows) == 1 {
		return nil, errs.New(errs.Structural, "no data", "TSVTaxonomyFormat must contain at least one row of data after the header.").InFile(path)
	}
	return build(path, rows[0][1:], rows[1:], lines[1:])
}

// ReadHeaderless reads a file without a header, columns after the second are named "Unnamed Column N"
func ReadHeaderless(path string) (*Table, error) {
	rows, lines, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.Structural, "no data", "Taxonomy file must contain at least one row of data.").InFile(path)
	}
	width := len(rows[0])
	if width < 2 {
		return nil, errs.New(errs.Structural, "too few columns", "Taxonomy files require at least two tab-separated columns.").At(lines[0]).InFile(path)
	}
	columns := []string{Taxon}
	for i := 1; i <= width-2; i++ {
		columns = append(columns, fmt.Sprintf("Unnamed Column %d", i))
	}
	return build(path, columns, rows, lines)
}

// ReadLegacy reads a TaxonomyFormat file, treating the first row as a header only if it starts with Feature ID and Taxon
func ReadLegacy(path string) (*Table, error) {
	rows, _, err := readRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) >= 2 && rows[0][0] == FeatureID && rows[0][1] == Taxon {
		return ReadTSV(path)
	}
	return ReadHeaderless(path)
}

// Write writes the table in TSVTaxonomyFormat to a new file
func (t *Table) Write(path string) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	w := tsv.NewWriter(fh)
	w.WriteString(FeatureID)
	for _, c := range t.Columns {
		w.WriteString(c)
	}
	err = w.EndLine()
	for i, id := range t.IDs {
		if err != nil {
			break
		}
		w.WriteString(id)
		for _, v := range t.Values[i] {
			w.WriteString(v)
		}
		err = w.EndLine()
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "could not write taxonomy to %v", path)
	}
	return nil
}
