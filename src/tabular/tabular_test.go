package tabular

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ruleOf(err error) string {
	if e, ok := errs.As(err); ok {
		return e.Rule
	}
	return ""
}

func TestKraken2Report(t *testing.T) {
	six := "100.00\t10\t0\tR\t1\troot\n90.00\t9\t9\tD\t2\t  Bacteria\n"
	eight := "100.00\t10\t0\t50\t40\tR\t1\troot\n"
	for _, content := range []string{six, eight} {
		if err := Kraken2ReportFormat.Validate(writeFile(t, "s.report.txt", content), format.Max); err != nil {
			t.Fatal(err)
		}
	}
	for content, rule := range map[string]string{
		"100.00\t10\t0\tR\t1\n":          "column count",
		"abc\t10\t0\tR\t1\troot\n":       "column type",
		"100.00\t10\t0\tR\tone\troot\n":  "column type",
		"":                               "no data",
		six + "1.0\t1\t1\t1\t1\tR\t1\tx\n": "column count",
	} {
		if got := ruleOf(Kraken2ReportFormat.Validate(writeFile(t, "s.report.txt", content), format.Max)); got != rule {
			t.Fatalf("%q: expected %q, got %q", content, rule, got)
		}
	}
}

func TestKraken2Output(t *testing.T) {
	valid := "C\tread1\t562\t150|150\t562:10 0:5\nU\tread2\t0\t150\t0:116\n"
	if err := Kraken2OutputFormat.Validate(writeFile(t, "s.output.txt", valid), format.Max); err != nil {
		t.Fatal(err)
	}
	if err := Kraken2OutputFormat.Validate(writeFile(t, "s.output.txt", "U\tread2\t0\t150\t0:116\n"), format.Max); err != nil {
		t.Fatal("unclassified-only outputs are valid")
	}
	if ruleOf(Kraken2OutputFormat.Validate(writeFile(t, "s.output.txt", "X\tread1\t1\t150\t1:1\n"), format.Max)) != "classification flag" {
		t.Fatal("flag must be C or U")
	}
	e, _ := errs.As(Kraken2OutputFormat.Validate(writeFile(t, "s.output.txt", "C\tread1\tE.coli\t150\t1:1\n"), format.Max))
	if e == nil || e.Field != "taxon_id" || e.Column != 3 {
		t.Fatalf("taxon id must be an integer: %v", e)
	}
}

func TestKraken2DBReport(t *testing.T) {
	valid := "# Database options: nucleotide db, k = 35, l = 31\n# Total taxonomy nodes: 2\n100.00\t1234\t0\tR\t1\troot\n50.00\t617\t617\tD\t2\t  Bacteria\n"
	if err := Kraken2DBReportFormat.Validate(writeFile(t, "report.txt", valid), format.Max); err != nil {
		t.Fatal(err)
	}
	if ruleOf(Kraken2DBReportFormat.Validate(writeFile(t, "report.txt", "# only a header\n"), format.Max)) != "no data" {
		t.Fatal("header-only reports should fail")
	}
	if ruleOf(Kraken2DBReportFormat.Validate(writeFile(t, "report.txt", "100.00\t1\t0\tR\t1\troot\n# late\n"), format.Max)) != "misplaced header" {
		t.Fatal("header lines after data should fail")
	}
}

func TestBLAST6(t *testing.T) {
	if ruleOf(BLAST6Format.Validate(writeFile(t, "blast6.tsv", ""), format.Max)) != "no data" {
		t.Fatal("empty BLAST6 files are invalid")
	}
	if ruleOf(BLAST6Format.Validate(writeFile(t, "blast6.tsv", "q\ts\t99\t100\t1\t0\t1\t100\t1\t100\t1e-50\n"), format.Max)) != "column count" {
		t.Fatal("eleven columns should fail")
	}
	hits := []Hit{
		{QSeqID: "q1", SSeqID: "s1", PIdent: 98.5, Length: 100, Mismatch: 1, GapOpen: 0, QStart: 1, QEnd: 100, SStart: 5, SEnd: 104, EValue: 1e-50, BitScore: 180.2},
		{QSeqID: "q2", SSeqID: "s9", PIdent: 100, Length: 50, QStart: 1, QEnd: 50, SStart: 50, SEnd: 1, EValue: 0.001, BitScore: 90},
	}
	path := filepath.Join(t.TempDir(), "blast6.tsv")
	if err := WriteBLAST6(path, hits); err != nil {
		t.Fatal(err)
	}
	if err := BLAST6Format.Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	got, err := ReadBLAST6(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != hits[0] || got[1] != hits[1] {
		t.Fatalf("round trip changed the hits: %+v", got)
	}
	if len(BLAST6Columns()) != 12 || BLAST6Columns()[11] != "bitscore" {
		t.Fatal("wrong column order")
	}
}

func TestDifferential(t *testing.T) {
	if err := DifferentialFormat.Validate(writeFile(t, "differentials.tsv", "featureid\tlog2fc\tpval\nf1\t1.5\t0.01\nf2\t-2\t0.5\n"), format.Max); err != nil {
		t.Fatal(err)
	}
	if ruleOf(DifferentialFormat.Validate(writeFile(t, "differentials.tsv", "featureid\tlabel\nf1\tup\n"), format.Max)) != "non-numeric column" {
		t.Fatal("categorical columns should fail")
	}
	if ruleOf(DifferentialFormat.Validate(writeFile(t, "differentials.tsv", "featureid\nf1\n"), format.Max)) != "no columns" {
		t.Fatal("at least one column is required")
	}
	if ruleOf(DifferentialFormat.Validate(writeFile(t, "differentials.tsv", "nonsense\tx\nf1\t1\n"), format.Max)) != "metadata" {
		t.Fatal("metadata errors should surface")
	}
}

func TestProcrustes(t *testing.T) {
	valid := "id\ttrue M^2 value\tp-value for true M^2 value\tnumber of Monte Carlo permutations\nresults\t0.05\t0.001\t999\n"
	if err := ProcrustesStatisticsFmt.Validate(writeFile(t, "ProcrustesStatistics.tsv", valid), format.Max); err != nil {
		t.Fatal(err)
	}
	if ruleOf(ProcrustesStatisticsFmt.Validate(writeFile(t, "ProcrustesStatistics.tsv", "id\tm2\nresults\t0.05\n"), format.Max)) != "procrustes columns" {
		t.Fatal("wrong columns should fail")
	}
}

func TestOrthologAnnotations(t *testing.T) {
	valid := "## emapper-2.1.9\n#query\tseed_ortholog\tevalue\tscore\n" +
		"k129_5480_1\t1392.SAMN04487893_108\t1.7e-193\t672.9\n"
	path := writeFile(t, "mag1.annotations", valid)
	if err := OrthologAnnotationFormat.Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	if err := OrthologAnnotationDirFmt.Validate(filepath.Dir(path), format.Max); err != nil {
		t.Fatal(err)
	}
	for content, rule := range map[string]string{
		"#only comments\n":              "no data",
		"k129_5480_1\n":                 "column count",
		"k129_5480_1\tseed\tlow\t1.0\n": "column type",
	} {
		if got := ruleOf(OrthologAnnotationFormat.Validate(writeFile(t, "x.annotations", content), format.Max)); got != rule {
			t.Fatalf("%q: expected %q, got %q", content, rule, got)
		}
	}
	dir := filepath.Dir(writeFile(t, "notes.txt", "stray"))
	ioutil.WriteFile(filepath.Join(dir, "a.annotations"), []byte(valid), 0644)
	if OrthologAnnotationDirFmt.Validate(dir, format.Max) == nil {
		t.Fatal("closed directory should reject unclaimed files")
	}
}
