package tabular

import (
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

var (
	reportColumns = []column{
		{"perc_frags_covered", float},
		{"no_frags_covered", integer},
		{"no_frags_assigned", integer},
		{"rank", str},
		{"taxon_id", integer},
		{"name", str},
	}
	reportMinimizerColumns = []column{
		{"perc_frags_covered", float},
		{"no_frags_covered", integer},
		{"no_frags_assigned", integer},
		{"no_minimizers", integer},
		{"no_distinct_minimizers", integer},
		{"rank", str},
		{"taxon_id", integer},
		{"name", str},
	}
	outputColumns = []column{
		{"classification", str},
		{"sequence_id", str},
		{"taxon_id", integer},
		{"sequence_length", str},
		{"kmer_mapping", str},
	}
	dbReportColumns = []column{
		{"perc_minimizers_covered", float},
		{"no_minimizers", integer},
		{"no_minimizers_assigned", integer},
		{"rank", str},
		{"taxon_id", integer},
		{"name", str},
	}
)

// the Kraken2 file formats
var (
	Kraken2ReportFormat   = format.NewTextFormat("Kraken2ReportFormat", validateKraken2Report)
	Kraken2OutputFormat   = format.NewTextFormat("Kraken2OutputFormat", validateKraken2Output)
	Kraken2DBReportFormat = format.NewTextFormat("Kraken2DBReportFormat", validateKraken2DBReport)
)

// the Kraken2 directory formats, reports and outputs are keyed by sample
var (
	Kraken2ReportDirectoryFormat = format.NewDirectoryFormat("Kraken2ReportDirectoryFormat",
		format.Collection("reports", `.+\.report\.(txt|tsv)`, Kraken2ReportFormat).WithPathMaker(func(k format.Keys) (string, error) {
			return k["sample_id"] + ".report.txt", nil
		}))
	Kraken2OutputDirectoryFormat = format.NewDirectoryFormat("Kraken2OutputDirectoryFormat",
		format.Collection("outputs", `.+\.output\.(txt|tsv)`, Kraken2OutputFormat).WithPathMaker(func(k format.Keys) (string, error) {
			return k["sample_id"] + ".output.txt", nil
		}))
	Kraken2DBReportDirectoryFormat = format.NewDirectoryFormat("Kraken2DBReportDirectoryFormat",
		format.FixedFile("report", "report.txt", Kraken2DBReportFormat))
)

func validateKraken2Report(path string, level format.Level) error {
	var cols []column
	return scanRows(path, level, "Kraken2 report", func(cells []string, n int) error {
		if cols == nil {
			switch len(cells) {
			case len(reportColumns):
				cols = reportColumns
			case len(reportMinimizerColumns):
				cols = reportMinimizerColumns
			default:
				return errs.New(errs.Structural, "column count", "Expected 6 or 8 columns in the Kraken2 report but found %d on line %d.", len(cells), n).At(n).With("found", len(cells))
			}
		}
		return checkRow(cells, cols, n, "Kraken2 report")
	})
}

func validateKraken2Output(path string, level format.Level) error {
	return scanRows(path, level, "Kraken2 output", func(cells []string, n int) error {
		if err := checkRow(cells, outputColumns, n, "Kraken2 output"); err != nil {
			return err
		}
		if cells[0] != "C" && cells[0] != "U" {
			return errs.New(errs.Content, "classification flag", "The classification column on line %d must be C or U, found %q.", n, cells[0]).At(n).Col(1).WithField("classification")
		}
		return nil
	})
}

func validateKraken2DBReport(path string, level format.Level) error {
	rows := 0
	inHeader := true
	err := format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		text := lr.Text()
		n := lr.Line()
		if strings.HasPrefix(text, "#") {
			if !inHeader {
				return errs.New(errs.Structural, "misplaced header", "Header line %d appears after the data rows.", n).At(n)
			}
			return nil
		}
		inHeader = false
		if strings.TrimSpace(text) == "" {
			return nil
		}
		rows++
		return checkRow(strings.Split(text, "\t"), dbReportColumns, n, "Kraken2 database report")
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.New(errs.Structural, "no data", "The Kraken2 database report is empty.")
	}
	return nil
}
