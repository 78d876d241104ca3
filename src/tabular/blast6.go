package tabular

import (
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

var blast6Columns = []column{
	{"qseqid", str},
	{"sseqid", str},
	{"pident", float},
	{"length", integer},
	{"mismatch", integer},
	{"gapopen", integer},
	{"qstart", integer},
	{"qend", integer},
	{"sstart", integer},
	{"send", integer},
	{"evalue", float},
	{"bitscore", float},
}

// BLAST6Format is the tabular BLAST output (-outfmt 6), twelve columns and no header
var BLAST6Format = format.NewTextFormat("BLAST6Format", validateBLAST6)

// BLAST6DirectoryFormat holds a single blast6.tsv
var BLAST6DirectoryFormat = format.NewDirectoryFormat("BLAST6DirectoryFormat", format.FixedFile("hits", "blast6.tsv", BLAST6Format))

// BLAST6Columns returns the column names in file order
func BLAST6Columns() []string {
	names := make([]string, len(blast6Columns))
	for i, c := range blast6Columns {
		names[i] = c.name
	}
	return names
}

func validateBLAST6(path string, level format.Level) error {
	return scanRows(path, level, "BLAST6 file", func(cells []string, n int) error {
		return checkRow(cells, blast6Columns, n, "BLAST6 file")
	})
}

// Hit is one BLAST6 row
type Hit struct {
	QSeqID   string
	SSeqID   string
	PIdent   float64
	Length   int64
	Mismatch int64
	GapOpen  int64
	QStart   int64
	QEnd     int64
	SStart   int64
	SEnd     int64
	EValue   float64
	BitScore float64
}

func parseHit(cells []string, n int) (Hit, error) {
	if err := checkRow(cells, blast6Columns, n, "BLAST6 file"); err != nil {
		return Hit{}, err
	}
	ints := make([]int64, 0, 7)
	for _, i := range []int{3, 4, 5, 6, 7, 8, 9} {
		v, _ := strconv.ParseInt(strings.TrimSpace(cells[i]), 10, 64)
		ints = append(ints, v)
	}
	floats := make([]float64, 0, 3)
	for _, i := range []int{2, 10, 11} {
		v, _ := strconv.ParseFloat(strings.TrimSpace(cells[i]), 64)
		floats = append(floats, v)
	}
	return Hit{
		QSeqID: cells[0], SSeqID: cells[1], PIdent: floats[0],
		Length: ints[0], Mismatch: ints[1], GapOpen: ints[2],
		QStart: ints[3], QEnd: ints[4], SStart: ints[5], SEnd: ints[6],
		EValue: floats[1], BitScore: floats[2],
	}, nil
}

// ReadBLAST6 loads every hit of a file
func ReadBLAST6(path string) ([]Hit, error) {
	var hits []Hit
	err := scanRows(path, format.Max, "BLAST6 file", func(cells []string, n int) error {
		h, err := parseHit(cells, n)
		if err != nil {
			return err
		}
		hits = append(hits, h)
		return nil
	})
	if err != nil {
		return nil, errs.Locate(err, path)
	}
	return hits, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteBLAST6 writes hits to a new file in column order
func WriteBLAST6(path string, hits []Hit) error {
	if len(hits) == 0 {
		return errors.New("refusing to write an empty BLAST6 file")
	}
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	w := tsv.NewWriter(fh)
	for _, h := range hits {
		w.WriteString(h.QSeqID)
		w.WriteString(h.SSeqID)
		w.WriteString(formatFloat(h.PIdent))
		for _, v := range []int64{h.Length, h.Mismatch, h.GapOpen, h.QStart, h.QEnd, h.SStart, h.SEnd} {
			w.WriteInt64(v)
		}
		w.WriteString(formatFloat(h.EValue))
		w.WriteString(formatFloat(h.BitScore))
		if err = w.EndLine(); err != nil {
			break
		}
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return errors.Wrapf(err, "could not write %v", path)
	}
	return nil
}

