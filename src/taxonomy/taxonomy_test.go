package taxonomy

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

func writeTax(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "taxonomy.tsv")
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

func TestTSVTaxonomyFormat(t *testing.T) {
	valid := "Feature ID\tTaxon\tConfidence\n\nf1\tk__Bacteria; p__Firmicutes\t0.9\nf2\tk__Archaea\t0.8\n"
	if err := TSVTaxonomyFormat.Validate(writeTax(t, valid), format.Max); err != nil {
		t.Fatal(err)
	}
	for content, rule := range map[string]string{
		"Feature ID\tTaxon\n":                   "no data",
		"":                                      "missing header",
		"ID\tTaxon\nf1\tk__Bacteria\n":          "invalid header",
		"Feature ID\tTaxon\nf1\tk\textra\n":     "column count",
		"Feature ID\tTaxon\nf1\tk\nf1\tk\n":     "duplicate id",
		"Feature ID\tTaxon\tTaxon\nf1\tk\tk\n": "duplicate column",
	} {
		if got := ruleOf(TSVTaxonomyFormat.Validate(writeTax(t, content), format.Max)); got != rule {
			t.Fatalf("%q: expected %q, got %q", content, rule, got)
		}
	}
}

func TestLooseFormats(t *testing.T) {
	path := writeTax(t, "f1\tk__Bacteria\nf2\tk__Archaea\t0.5\n")
	for _, f := range []*format.File{TaxonomyFormat, HeaderlessTSVTaxonomyFormat} {
		if err := f.Validate(path, format.Max); err != nil {
			t.Fatal(err)
		}
		if !f.Sniff(path) {
			t.Fatal("sniffer should accept the file")
		}
	}
	if ruleOf(TaxonomyFormat.Validate(writeTax(t, "f1\nf2\tk\n"), format.Max)) != "too few columns" {
		t.Fatal("single column rows should fail")
	}
	if TaxonomyFormat.Sniff(writeTax(t, "")) {
		t.Fatal("empty files are not taxonomies")
	}
}

func TestReadAndNormalize(t *testing.T) {
	tab, err := ReadTSV(writeTax(t, "Feature ID\tTaxon\nf1\t  k__Bacteria; p__Firmicutes \nf2\tk__Archaea\n"))
	if err != nil {
		t.Fatal(err)
	}
	if taxon, _ := tab.Taxon("f1"); taxon != "k__Bacteria; p__Firmicutes" {
		t.Fatalf("taxon not trimmed: %q", taxon)
	}
	before := tab.Values[0][0]
	tab.Normalize()
	tab.Normalize()
	if tab.Values[0][0] != before {
		t.Fatal("normalizing twice should change nothing")
	}
}

func TestHeaderlessColumns(t *testing.T) {
	tab, err := ReadHeaderless(writeTax(t, "f1\tk\t0.9\tx\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Taxon", "Unnamed Column 1", "Unnamed Column 2"}
	if len(tab.Columns) != len(want) {
		t.Fatalf("wrong columns %v", tab.Columns)
	}
	for i := range want {
		if tab.Columns[i] != want[i] {
			t.Fatalf("wrong columns %v", tab.Columns)
		}
	}
	legacy, err := ReadLegacy(writeTax(t, "Feature ID\tTaxon\nf1\tk\n"))
	if err != nil || legacy.Len() != 1 {
		t.Fatal("legacy reader should detect the header")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	tab := NewTable()
	tab.Add("O0", "a; b")
	tab.Add("O1", "a; c")
	if err := tab.Add("O2"); err == nil {
		t.Fatal("rows must match the columns")
	}
	path := filepath.Join(t.TempDir(), "taxonomy.tsv")
	if err := tab.Write(path); err != nil {
		t.Fatal(err)
	}
	data, _ := ioutil.ReadFile(path)
	if string(data) != "Feature ID\tTaxon\nO0\ta; b\nO1\ta; c\n" {
		t.Fatalf("unexpected output %q", data)
	}
	got, err := ReadTSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 2 || got.IDs[1] != "O1" || got.Values[1][0] != "a; c" {
		t.Fatal("round trip changed the table")
	}
}
