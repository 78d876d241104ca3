// Package ncbi validates the NCBI taxonomy dump files and assembles them into a taxonomy bundle
package ncbi

import (
	"regexp"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the dump layout
const (
	FieldSep = "\t|\t"
	LineEnd  = "\t|"

	// AccessionMaxLines caps Max level validation of the accession map
	AccessionMaxLines = 10000000
)

// AccessionHeader is the header of prot.accession2taxid
var AccessionHeader = []string{"accession", "accession.version", "taxid", "gi"}

// the per-column patterns of prot.accession2taxid
var accessionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z0-9_]+$`),
	regexp.MustCompile(`^[A-Z0-9_]+\.\d+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\d+$`),
}

var numeric = regexp.MustCompile(`^\d+$`)

// nodes.dmp columns (1-based) holding a 0/1 flag
var nodeFlagColumns = []int{6, 8, 10, 11, 12}

// the NCBI formats
var (
	NCBITaxonomyNodesFormat   = format.NewTextFormat("NCBITaxonomyNodesFormat", validateNodes)
	NCBITaxonomyNamesFormat   = format.NewTextFormat("NCBITaxonomyNamesFormat", validateNames)
	NCBITaxonomyBinaryFileFmt = format.NewBinaryFormat("NCBITaxonomyBinaryFileFmt", validateAccessionMap)

	NCBITaxonomyDirFmt = format.NewDirectoryFormat("NCBITaxonomyDirFmt",
		format.FixedFile("nodes", "nodes.dmp", NCBITaxonomyNodesFormat),
		format.FixedFile("names", "names.dmp", NCBITaxonomyNamesFormat),
		format.FixedFile("tax_map", "prot.accession2taxid.gz", NCBITaxonomyBinaryFileFmt),
	)
)

// SplitDump splits a .dmp line into its fields
func SplitDump(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimSuffix(line, LineEnd)
	return strings.Split(line, FieldSep)
}

func validateNodes(path string, level format.Level) error {
	return format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		n := lr.Line()
		fields := SplitDump(lr.Text())
		if len(fields) < 13 || len(fields) > 18 {
			return errs.New(errs.Structural, "field count", "NCBI taxonomy nodes file must have 13 to 18 columns, found %d columns on line %d.", len(fields), n).
				At(n).With("found", len(fields))
		}
		for _, col := range []int{1, 2} {
			if !numeric.MatchString(fields[col-1]) {
				return errs.New(errs.Content, "numeric column", "Column %d on line %d must be numeric, found %q.", col, n, fields[col-1]).At(n).Col(col)
			}
		}
		for _, col := range nodeFlagColumns {
			if v := fields[col-1]; v != "0" && v != "1" {
				return errs.New(errs.Content, "flag column", "Column %d on line %d must be 0 or 1, found %q.", col, n, v).At(n).Col(col)
			}
		}
		return nil
	})
}

func validateNames(path string, level format.Level) error {
	return format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		n := lr.Line()
		fields := SplitDump(lr.Text())
		if len(fields) != 4 {
			return errs.New(errs.Structural, "field count", "NCBI taxonomy names file must have 4 columns, found %d columns on line %d.", len(fields), n).
				At(n).With("found", len(fields))
		}
		if !numeric.MatchString(fields[0]) {
			return errs.New(errs.Content, "numeric column", "Column 1 on line %d must be numeric, found %q.", n, fields[0]).At(n).Col(1)
		}
		return nil
	})
}

func validateAccessionMap(path string, level format.Level) error {
	gz, err := fsutil.IsGzip(path)
	if err != nil {
		return err
	}
	if !gz {
		return errs.New(errs.Structural, "uncompressed", "File is uncompressed")
	}
	limit := AccessionMaxLines
	if level == format.Min {
		limit = format.MinLines
	}
	sawHeader := false
	err = format.ScanLines(path, limit, func(lr *fsutil.LineReader) error {
		n := lr.Line()
		cells := strings.Split(lr.Text(), "\t")
		if n == 1 {
			if strings.Join(cells, "\t") != strings.Join(AccessionHeader, "\t") {
				return errs.New(errs.Structural, "invalid header", "The header of the accession map must be %q, found %q.", strings.Join(AccessionHeader, "\t"), lr.Text()).At(1)
			}
			sawHeader = true
			return nil
		}
		if len(cells) != len(AccessionHeader) {
			return errs.New(errs.Structural, "field count", "Line %d has %d columns, expected %d.", n, len(cells), len(AccessionHeader)).At(n)
		}
		for i, re := range accessionPatterns {
			if !re.MatchString(cells[i]) {
				return errs.New(errs.Content, "invalid value", "Value %q in column %q on line %d is not valid.", cells[i], AccessionHeader[i], n).
					At(n).Col(i + 1).WithField(AccessionHeader[i])
			}
		}
		if !strings.HasPrefix(cells[1], cells[0]+".") {
			return errs.New(errs.Content, "accession mismatch", "Accession version %q on line %d does not extend accession %q.", cells[1], n, cells[0]).At(n).Col(2)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !sawHeader {
		return errs.New(errs.Structural, "invalid header", "The accession map is empty, it must start with the header %q.", strings.Join(AccessionHeader, "\t"))
	}
	return nil
}
