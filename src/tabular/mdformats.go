package tabular

import (
	"sort"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/metadata"
)

// procrustesMetrics are the columns of a Procrustes statistics table
var procrustesMetrics = []string{
	"true M^2 value",
	"p-value for true M^2 value",
	"number of Monte Carlo permutations",
}

// the metadata-backed formats
var (
	DifferentialFormat          = format.NewTextFormat("DifferentialFormat", validateDifferential)
	DifferentialDirectoryFormat = format.NewDirectoryFormat("DifferentialDirectoryFormat",
		format.FixedFile("differentials", "differentials.tsv", DifferentialFormat))
	ProcrustesStatisticsFmt    = format.NewTextFormat("ProcrustesStatisticsFmt", validateProcrustes)
	ProcrustesStatisticsDirFmt = format.NewDirectoryFormat("ProcrustesStatisticsDirFmt",
		format.FixedFile("statistics", "ProcrustesStatistics.tsv", ProcrustesStatisticsFmt))
)

// loadMetadata converts a metadata loader failure into a validation error
func loadMetadata(path string) (*metadata.Metadata, error) {
	md, err := metadata.Load(path)
	if err != nil {
		if fe, ok := err.(*metadata.FileError); ok {
			e := errs.New(errs.Structural, "metadata", "%s", fe.Message).At(fe.Line)
			if fe.Column != "" {
				e.WithField(fe.Column)
			}
			return nil, e
		}
		return nil, err
	}
	return md, nil
}

func allNumeric(md *metadata.Metadata) error {
	for i, col := range md.Columns {
		if md.Types[i] != metadata.Numeric {
			return errs.New(errs.Content, "non-numeric column", "Must only contain numeric values, column %q is %s.", col, md.Types[i]).WithField(col)
		}
	}
	return nil
}

func validateDifferential(path string, level format.Level) error {
	md, err := loadMetadata(path)
	if err != nil {
		return err
	}
	if len(md.Columns) == 0 {
		return errs.New(errs.Structural, "no columns", "Format must contain at least 1 column")
	}
	return allNumeric(md)
}

func validateProcrustes(path string, level format.Level) error {
	md, err := loadMetadata(path)
	if err != nil {
		return err
	}
	got := append([]string(nil), md.Columns...)
	want := append([]string(nil), procrustesMetrics...)
	sort.Strings(got)
	sort.Strings(want)
	if strings.Join(got, "\x00") != strings.Join(want, "\x00") {
		return errs.New(errs.Structural, "procrustes columns", "Expected the columns %s, found %s.", strings.Join(procrustesMetrics, ", "), strings.Join(md.Columns, ", ")).With("found", md.Columns)
	}
	return allNumeric(md)
}
