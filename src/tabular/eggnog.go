package tabular

import (
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the leading eggNOG-mapper columns that are typed when present
var annotationColumns = []column{
	{"query", str},
	{"seed_ortholog", str},
	{"evalue", float},
	{"score", float},
}

// OrthologAnnotationFormat is an eggNOG-mapper annotation table, '#' lines are comments
var OrthologAnnotationFormat = format.NewTextFormat("OrthologAnnotationFormat", validateAnnotations)

// OrthologAnnotationDirFmt holds one annotation table per sample or MAG and nothing else
var OrthologAnnotationDirFmt = format.NewDirectoryFormat("OrthologAnnotationDirFmt",
	format.Collection("annotations", `[^/]+\.annotations`, OrthologAnnotationFormat).WithPathMaker(func(k format.Keys) (string, error) {
		return k["id"] + ".annotations", nil
	})).
	Closed()

func validateAnnotations(path string, level format.Level) error {
	rows := 0
	err := format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		line := lr.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			return nil
		}
		rows++
		cells := strings.Split(line, "\t")
		n := lr.Line()
		if len(cells) < 2 {
			return errs.New(errs.Structural, "column count", "Expected at least 2 tab-separated columns on line %d but found %d.", n, len(cells)).At(n).With("found", len(cells))
		}
		for i, col := range annotationColumns {
			if i >= len(cells) {
				break
			}
			if err := checkCell(cells[i], col, n, i+1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.New(errs.Structural, "no data", "The annotation table has no rows.")
	}
	return nil
}
