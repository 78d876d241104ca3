package manifest

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

// fixture writes empty read files and a manifest into a temp dir
func fixture(t *testing.T, manifest string, reads ...string) (string, string) {
	dir := t.TempDir()
	for _, r := range reads {
		if err := ioutil.WriteFile(filepath.Join(dir, r), []byte("@r\nA\n+\nI\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	manifest = strings.Replace(manifest, "$DIR", dir, -1)
	path := filepath.Join(dir, "manifest.csv")
	if err := ioutil.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func kindAndRule(t *testing.T, err error) (errs.Kind, string) {
	e, ok := errs.As(err)
	if !ok {
		t.Fatalf("expected a typed error, got %v", err)
	}
	return e.Kind, e.Rule
}

func TestSingleEndV1(t *testing.T) {
	dir, path := fixture(t, "# comment\n\nsample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns2,$DIR/b.fq,forward\n", "a.fq", "b.fq")
	m, err := SingleEndFastqManifestPhred33.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Paired || len(m.Rows) != 2 || m.Rows[0].Line != 4 || m.Rows[1].Path != filepath.Join(dir, "b.fq") {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if ids := m.Samples(); ids[0] != "s1" || ids[1] != "s2" {
		t.Fatal("sample order not kept")
	}
}

func TestEnvExpansion(t *testing.T) {
	dir, path := fixture(t, "sample-id,absolute-filepath,direction\ns1,${Q2_TEST_DIR}/a.fq,forward\n", "a.fq")
	os.Setenv("Q2_TEST_DIR", dir)
	defer os.Unsetenv("Q2_TEST_DIR")
	m, err := ParseV1(path, SingleEnd, Absolute)
	if err != nil {
		t.Fatal(err)
	}
	if m.Rows[0].Path != filepath.Join(dir, "a.fq") {
		t.Fatalf("variable not expanded: %v", m.Rows[0].Path)
	}
}

func TestNoRecords(t *testing.T) {
	for _, content := range []string{"# only a comment\n\n", "sample-id,absolute-filepath,direction\n# nothing\n"} {
		_, path := fixture(t, content)
		err := SingleEndFastqManifestPhred33.Validate(path, format.Max)
		if err == nil || !strings.Contains(err.Error(), "No sample records found") {
			t.Fatalf("expected no records error, got %v", err)
		}
	}
}

func TestV1Errors(t *testing.T) {
	tests := []struct {
		manifest string
		layout   Layout
		kind     errs.Kind
		rule     string
	}{
		{"sample-id,filepath,direction\ns1,$DIR/a.fq,forward\n", SingleEnd, errs.ManifestShape, "header"},
		{"sample-id,absolute-filepath,direction\ns1,a.fq,forward\n", SingleEnd, errs.ManifestShape, "path type"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/missing.fq,forward\n", SingleEnd, errs.ManifestSemantics, "missing file"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,Forward\n", SingleEnd, errs.ManifestSemantics, "direction"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns2,$DIR/b.fq,reverse\n", SingleEnd, errs.ManifestSemantics, "direction"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/b.fq,forward\n", SingleEnd, errs.ManifestSemantics, "duplicate sample"},
		{"sample-id,absolute-filepath,direction\ns1,,forward\n", SingleEnd, errs.ManifestShape, "empty cell"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/b.fq,forward\n", PairedEnd, errs.ManifestSemantics, "duplicate sample"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/a.fq,reverse\n", PairedEnd, errs.ManifestSemantics, "duplicate path"},
		{"sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns2,$DIR/./a.fq,forward\n", SingleEnd, errs.ManifestSemantics, "duplicate path"},
	}
	for _, test := range tests {
		_, path := fixture(t, test.manifest, "a.fq", "b.fq")
		_, err := ParseV1(path, test.layout, Absolute)
		kind, rule := kindAndRule(t, err)
		if kind != test.kind || rule != test.rule {
			t.Fatalf("%q: expected %v %q, got %v %q", test.manifest, test.kind, test.rule, kind, rule)
		}
	}
}

func TestDuplicatePathLines(t *testing.T) {
	_, path := fixture(t, "sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/a.fq,reverse\n", "a.fq")
	_, err := ParseV1(path, PairedEnd, Absolute)
	e, _ := errs.As(err)
	if e == nil || e.Line != 3 || e.PriorLine != 2 || e.Field != "absolute-filepath" {
		t.Fatalf("wrong location: %v", err)
	}
}

func TestDuplicateNamesLines(t *testing.T) {
	_, path := fixture(t, "sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\n\ns1,$DIR/b.fq,forward\n", "a.fq", "b.fq")
	_, err := ParseV1(path, SingleEnd, Absolute)
	e, _ := errs.As(err)
	if e.Line != 4 || e.PriorLine != 2 || e.Field != SampleIDHeader {
		t.Fatalf("wrong location: %+v", e)
	}
}

func TestPairedEnd(t *testing.T) {
	_, path := fixture(t, "sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/b.fq,reverse\n", "a.fq", "b.fq")
	m, err := PairedEndFastqManifestPhred64.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	pairs := m.Pairs()
	if !m.Paired || len(pairs) != 1 || pairs[0].Reverse == "" || pairs[0].Forward == "" {
		t.Fatalf("pairs not built: %+v", pairs)
	}
	_, path = fixture(t, "sample-id,absolute-filepath,direction\nx,$DIR/a.fq,forward\ny,$DIR/b.fq,reverse\n", "a.fq", "b.fq")
	_, err = ParseV1(path, PairedEnd, Absolute)
	e, _ := errs.As(err)
	if e == nil || e.Rule != "missing pair" {
		t.Fatalf("expected missing pair, got %v", err)
	}
	of := e.Attrs["only_forward"].([]string)
	or := e.Attrs["only_reverse"].([]string)
	if len(of) != 1 || of[0] != "x" || len(or) != 1 || or[0] != "y" {
		t.Fatalf("wrong symmetric difference: %v %v", of, or)
	}
}

func TestRelativeManifest(t *testing.T) {
	_, path := fixture(t, "sample-id,filename,direction\ns1,a.fq,forward\ns1,b.fq,reverse\n", "a.fq", "b.fq")
	m, err := FastqManifestFormat.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Paired || m.Rows[0].Path != "a.fq" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	_, path = fixture(t, "sample-id,filename,direction\ns1,/abs/a.fq,forward\n")
	if _, rule := kindAndRule(t, FastqManifestFormat.Validate(path, format.Max)); rule != "path type" {
		t.Fatalf("absolute path should be rejected, got %v", rule)
	}
}

func TestRoundTrip(t *testing.T) {
	dir, path := fixture(t, "sample-id,absolute-filepath,direction\ns1,$DIR/a.fq,forward\ns1,$DIR/b.fq,reverse\n", "a.fq", "b.fq")
	m, err := ParseV1(path, PairedEnd, Absolute)
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "copy.csv")
	if err := m.WriteV1(out, Absolute); err != nil {
		t.Fatal(err)
	}
	again, err := ParseV1(out, PairedEnd, Absolute)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Rows {
		a, b := m.Rows[i], again.Rows[i]
		if a.SampleID != b.SampleID || a.Path != b.Path || a.Direction != b.Direction {
			t.Fatalf("row %d changed: %+v %+v", i, a, b)
		}
	}
}

func TestV2(t *testing.T) {
	dir, _ := fixture(t, "", "a.fq", "b.fq", "c.fq", "d.fq")
	v2 := filepath.Join(dir, "manifest.tsv")
	content := "sample-id\tforward-absolute-filepath\treverse-absolute-filepath\n#q2:types\tcategorical\tcategorical\n" +
		"s1\t" + dir + "/a.fq\t" + dir + "/b.fq\ns2\t" + dir + "/c.fq\t" + dir + "/d.fq\n"
	if err := ioutil.WriteFile(v2, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := PairedEndFastqManifestPhred33V2.Validate(v2, format.Max); err != nil {
		t.Fatal(err)
	}
	v1 := filepath.Join(dir, "v1.csv")
	if err := V2ToV1(v2, v1, PairedEnd); err != nil {
		t.Fatal(err)
	}
	m, err := ParseV1(v1, PairedEnd, Absolute)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Rows) != 4 || m.Rows[1].Direction != Reverse || m.Rows[2].SampleID != "s2" {
		t.Fatalf("denormalised manifest is wrong: %+v", m.Rows)
	}
	// the same file twice
	dup := filepath.Join(dir, "dup.tsv")
	ioutil.WriteFile(dup, []byte("sample-id\tabsolute-filepath\ns1\t"+dir+"/a.fq\ns2\t"+dir+"/a.fq\n"), 0644)
	_, err = ParseV2(dup, SingleEnd)
	e, _ := errs.As(err)
	if e == nil || e.Rule != "duplicate path" || e.Line != 3 || e.PriorLine != 2 {
		t.Fatalf("expected duplicate path, got %v", err)
	}
	// a missing reverse column
	single := filepath.Join(dir, "single.tsv")
	ioutil.WriteFile(single, []byte("sample-id\tforward-absolute-filepath\ns1\t"+dir+"/a.fq\n"), 0644)
	if _, rule := kindAndRule(t, PairedEndFastqManifestPhred33V2.Validate(single, format.Max)); rule != "header" {
		t.Fatalf("expected header error, got %v", rule)
	}
}

func TestMAGManifest(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, "s1"), 0755)
	ioutil.WriteFile(filepath.Join(dir, "s1", "m1.fasta"), []byte(">a\nACGT\n"), 0644)
	path := filepath.Join(dir, "MANIFEST")
	rows := []MAGRow{{SampleID: "s1", MAGID: "m1", Filename: "s1/m1.fasta"}}
	if err := WriteMAGs(path, rows); err != nil {
		t.Fatal(err)
	}
	got, err := ParseMAGs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].MAGID != "m1" || got[0].Line != 2 {
		t.Fatalf("unexpected rows: %+v", got)
	}
}
