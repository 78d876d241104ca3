package manifest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

// MAGIDHeader names the MAG column of a MultiMAG manifest
const MAGIDHeader = "mag-id"

// MAGRow is one MAG of a per-sample MAG collection
type MAGRow struct {
	SampleID string
	MAGID    string
	Filename string // relative to the manifest
	Line     int
}

// MultiMAGManifestFormat is the optional MANIFEST of a per-sample MAG directory
var MultiMAGManifestFormat = format.NewTextFormat("MultiMAGManifestFormat", func(path string, level format.Level) error {
	_, err := ParseMAGs(path)
	return err
})

var magHeader = []string{SampleIDHeader, MAGIDHeader, FilenameHeader}

// ParseMAGs reads a sample-id,mag-id,filename manifest
func ParseMAGs(path string) ([]MAGRow, error) {
	recs, lines, err := readCSV(path)
	if err != nil {
		return nil, errs.Locate(err, path)
	}
	if len(recs) == 0 {
		return nil, errs.New(errs.ManifestShape, "no records", NoRecords).InFile(path)
	}
	if !equalCells(recs[0], magHeader) {
		return nil, errs.New(errs.ManifestShape, "header", "Expected manifest header %q, found %q.", strings.Join(magHeader, ","), strings.Join(recs[0], ",")).At(lines[0]).InFile(path)
	}
	base := filepath.Dir(path)
	seen := make(map[string]int)
	var rows []MAGRow
	for i, rec := range recs[1:] {
		n := lines[i+1]
		if len(rec) != len(magHeader) {
			return nil, errs.New(errs.ManifestShape, "column count", "Line %d has %d fields, expected %d.", n, len(rec), len(magHeader)).At(n).InFile(path)
		}
		for j, cell := range rec {
			if cell == "" {
				return nil, errs.New(errs.ManifestShape, "empty cell", "Empty cell in the %q column on line %d.", magHeader[j], n).At(n).WithField(magHeader[j]).InFile(path)
			}
		}
		if _, perr := resolve(rec[2], base, Relative); perr != nil {
			return nil, perr.At(n).WithField(FilenameHeader).InFile(path)
		}
		if prior, dup := seen[rec[1]]; dup {
			return nil, errs.New(errs.ManifestSemantics, "duplicate mag", "MAG %q on line %d is a duplicate of line %d.", rec[1], n, prior).At(n).Prior(prior).WithField(MAGIDHeader).InFile(path)
		}
		seen[rec[1]] = n
		rows = append(rows, MAGRow{SampleID: rec[0], MAGID: rec[1], Filename: rec[2], Line: n})
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.ManifestShape, "no records", NoRecords).InFile(path)
	}
	return rows, nil
}

// WriteMAGs writes a MultiMAG manifest
func WriteMAGs(path string, rows []MAGRow) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("refusing to overwrite %v", path)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(fh)
	w.Write(magHeader)
	for _, r := range rows {
		w.Write([]string{r.SampleID, r.MAGID, r.Filename})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fh.Close()
		return errors.Wrapf(err, "could not write manifest %v", path)
	}
	return fh.Close()
}
