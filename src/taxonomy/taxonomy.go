// Package taxonomy contains the three taxonomy TSV formats, a table model and its writer
package taxonomy

import (
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the fixed header of the strict format
const (
	FeatureID = "Feature ID"
	Taxon     = "Taxon"

	// TSVFile is the file held by TSVTaxonomyDirectoryFormat
	TSVFile = "taxonomy.tsv"
)

// the taxonomy formats
var (
	// TaxonomyFormat is the legacy format: any TSV with at least two columns, with or without a header
	TaxonomyFormat = format.NewTextFormat("TaxonomyFormat", validateLoose).WithSniffer(sniffLoose)
	// HeaderlessTSVTaxonomyFormat is a TSV with at least two columns and no header
	HeaderlessTSVTaxonomyFormat = format.NewTextFormat("HeaderlessTSVTaxonomyFormat", validateLoose).WithSniffer(sniffLoose)
	// TSVTaxonomyFormat has a "Feature ID<tab>Taxon" header
	TSVTaxonomyFormat = format.NewTextFormat("TSVTaxonomyFormat", validateTSV)

	// TSVTaxonomyDirectoryFormat holds a single taxonomy.tsv
	TSVTaxonomyDirectoryFormat = format.NewDirectoryFormat("TSVTaxonomyDirectoryFormat",
		format.FixedFile("taxonomy", TSVFile, TSVTaxonomyFormat))
)

func isBlank(line string) bool {
	return strings.TrimLeft(line, " ") == ""
}

func splitLine(lr *fsutil.LineReader) []string {
	return strings.Split(lr.Text(), "\t")
}

// validateLoose checks that every row has at least two columns
func validateLoose(path string, level format.Level) error {
	rows := 0
	err := format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		if isBlank(lr.Text()) {
			return nil
		}
		cells := splitLine(lr)
		if len(cells) < 2 {
			return errs.New(errs.Structural, "too few columns", "Line %d has only %d column(s), taxonomy files require at least two tab-separated columns.", lr.Line(), len(cells)).At(lr.Line())
		}
		rows++
		return nil
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.New(errs.Structural, "no data", "Taxonomy file must contain at least one row of data.")
	}
	return nil
}

func sniffLoose(path string) bool {
	count := 0
	ok := true
	format.ScanLines(path, 0, func(lr *fsutil.LineReader) error {
		if isBlank(lr.Text()) {
			return nil
		}
		if len(splitLine(lr)) < 2 {
			ok = false
			return format.Stop
		}
		count++
		if count == 10 {
			return format.Stop
		}
		return nil
	})
	return ok && count > 0
}

// validateTSV checks the header, the column count of each row and the uniqueness of feature IDs
func validateTSV(path string, level format.Level) error {
	var header []string
	dataRows := 0
	ids := make(map[string]int)
	err := format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		n := lr.Line()
		if isBlank(lr.Text()) {
			return nil
		}
		cells := splitLine(lr)
		if header == nil {
			if err := checkHeader(cells, n); err != nil {
				return err
			}
			header = cells
			return nil
		}
		if len(cells) != len(header) {
			return errs.New(errs.Structural, "column count", "Number of values on line %d are not the same as number of header values. Found %d values (%s), expected %d.", n, len(cells), strings.Join(cells, ", "), len(header)).
				At(n).With("expected", len(header)).With("found", len(cells))
		}
		if prior, dup := ids[cells[0]]; dup {
			return errs.New(errs.Content, "duplicate id", "Feature ID %q on line %d is a duplicate of the ID on line %d.", cells[0], n, prior).At(n).Prior(prior).WithField(FeatureID).With("id", cells[0])
		}
		ids[cells[0]] = n
		dataRows++
		return nil
	})
	if err != nil {
		return err
	}
	if header == nil {
		return errs.New(errs.Structural, "missing header", "%s must contain a header row with %q and %q as the first two columns.", "TSVTaxonomyFormat", FeatureID, Taxon)
	}
	if dataRows == 0 {
		return errs.New(errs.Structural, "no data", "%s must contain at least one row of data after the header.", "TSVTaxonomyFormat")
	}
	return nil
}

func checkHeader(cells []string, n int) error {
	if len(cells) < 2 || cells[0] != FeatureID || cells[1] != Taxon {
		first := cells
		if len(first) > 2 {
			first = first[:2]
		}
		return errs.New(errs.Structural, "invalid header", "%q and %q must be the first two header values. The first two header values provided are: %s (on line %d).", FeatureID, Taxon, strings.Join(first, ", "), n).At(n)
	}
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		if seen[c] {
			return errs.New(errs.Structural, "duplicate column", "Column name %q appears more than once in the header on line %d.", c, n).At(n).WithField(c)
		}
		seen[c] = true
	}
	return nil
}
