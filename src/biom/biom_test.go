package biom

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

const table = `{"id": "t", "format": "Biological Observation Matrix 1.0.0", "format_url": "http://biom-format.org",
"type": "OTU table", "generated_by": "test", "date": "2024-01-01T00:00:00",
"rows": [{"id": "O0", "metadata": {"taxonomy": ["a", "b"], "sequence": "ACGT"}},
         {"id": "O1", "metadata": {"taxonomy": ["a", "b"], "sequence": "ACGA"}},
         {"id": "O2", "metadata": {"taxonomy": ["a", "b"], "Sequence": "ACGG"}},
         {"id": "O3", "metadata": {"taxonomy": ["a", "b"], "sequence": "ACGC"}}],
"columns": [{"id": "S1", "metadata": null}, {"id": "S2", "metadata": null}],
"matrix_type": "sparse", "matrix_element_type": "float", "shape": [4, 2],
"data": [[0, 0, 1.0], [3, 1, 5.0]]}`

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "feature-table.biom")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestV100(t *testing.T) {
	path := writeFile(t, table)
	if err := BIOMV100Format.Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	if !BIOMV100Format.Sniff(path) || BIOMV210Format.Sniff(path) {
		t.Fatal("sniffers disagree with the file")
	}
	tbl, err := ReadV100(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tbl.ObservationIDs) != 4 || tbl.SampleIDs[1] != "S2" || tbl.Data.At(3, 1) != 5 || tbl.Data.At(1, 1) != 0 {
		t.Fatalf("unexpected table: %+v", tbl)
	}
}

func TestV100Errors(t *testing.T) {
	for content, rule := range map[string]string{
		`[1, 2]`: "json",
		`{"format_url": "x", "extra": 1}`: "unknown key",
		`{"id": "t"}`: "missing key",
		`{"format_url": "x", "shape": [1, 1], "rows": [], "columns": []}`: "shape",
		`{"format_url": "x", "shape": [1, 1], "rows": [{"id": "a"}], "columns": [{"id": "b"}], "matrix_type": "sparse", "data": [[2, 0, 1]]}`: "data",
	} {
		e, _ := errs.As(BIOMV100Format.Validate(writeFile(t, content), format.Max))
		if e == nil || e.Rule != rule {
			t.Fatalf("%v: expected %q, got %v", content, rule, e)
		}
	}
}

func TestTaxonomy(t *testing.T) {
	tbl, err := ReadV100(writeFile(t, table))
	if err != nil {
		t.Fatal(err)
	}
	tax, err := tbl.Taxonomy()
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "taxonomy.tsv")
	if err := tax.Write(out); err != nil {
		t.Fatal(err)
	}
	got, _ := ioutil.ReadFile(out)
	if string(got) != "Feature ID\tTaxon\nO0\ta; b\nO1\ta; b\nO2\ta; b\nO3\ta; b\n" {
		t.Fatalf("unexpected taxonomy: %q", got)
	}
	// a table without observation metadata
	bare := strings.Replace(table, `"metadata": {"taxonomy": ["a", "b"], "sequence": "ACGT"}`, `"metadata": null`, 1)
	bare = strings.Replace(bare, `"metadata": {"taxonomy": ["a", "b"], "sequence": "ACGA"}`, `"metadata": {"taxonomy": null}`, 1)
	tbl, err = ReadV100(writeFile(t, bare))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Taxonomy(); !errs.Is(err, errs.TransformPrecondition) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
	tbl.ObservationMetadata[0] = map[string]interface{}{"taxonomy": []interface{}{"a"}}
	if _, err := tbl.Taxonomy(); !errs.Is(err, errs.TransformData) {
		t.Fatalf("a null taxonomy should fail, got %v", err)
	}
	tbl.ObservationMetadata = make([]map[string]interface{}, 4)
	if _, err := tbl.Taxonomy(); !errs.Is(err, errs.TransformPrecondition) {
		t.Fatalf("expected a precondition error, got %v", err)
	}
}

func TestTaxonomyNullRank(t *testing.T) {
	withNull := strings.Replace(table, `"taxonomy": ["a", "b"], "sequence": "ACGT"`, `"taxonomy": ["a", null], "sequence": "ACGT"`, 1)
	tbl, err := ReadV100(writeFile(t, withNull))
	if err != nil {
		t.Fatal(err)
	}
	tax, err := tbl.Taxonomy()
	if !errs.Is(err, errs.TransformData) || tax != nil {
		t.Fatalf("a null rank should fail, got %v", err)
	}
	if e, _ := errs.As(err); e.Rule != "taxonomy" || e.Attrs["id"] != "O0" {
		t.Fatalf("the failing observation should be named: %v", err)
	}
}

func TestSequences(t *testing.T) {
	tbl, _ := ReadV100(writeFile(t, table))
	recs, err := tbl.Sequences()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[2].Sequence != "ACGG" || recs[3].ID != "O3" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func tool(t *testing.T, dir, name, script string) string {
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestV210(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature-table.biom")
	ioutil.WriteFile(path, append(append([]byte{}, HDF5Signature...), 0, 0, 0), 0644)
	var listing, attrs strings.Builder
	listing.WriteString("/ Group\n/observation Group\n")
	for _, ds := range requiredDatasets {
		listing.WriteString(ds + " Dataset {4}\n")
	}
	for _, a := range requiredAttrs {
		attrs.WriteString(`   ATTRIBUTE "` + a + "\" {\n   }\n")
	}
	tools := Tools{
		H5ls:   tool(t, dir, "h5ls", "cat <<'EOF'\n"+listing.String()+"EOF\n"),
		H5dump: tool(t, dir, "h5dump", "cat <<'EOF'\n"+attrs.String()+"EOF\n"),
	}
	if err := NewV210Format(tools).Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	tools.H5dump = tool(t, dir, "h5dump-partial", "echo 'ATTRIBUTE \"id\" {'\n")
	if e, _ := errs.As(NewV210Format(tools).Validate(path, format.Max)); e == nil || e.Rule != "missing attribute" || e.Attrs["attribute"] != "type" {
		t.Fatalf("expected missing type attribute, got %v", e)
	}
	tools.H5ls = tool(t, dir, "h5ls-broken", "echo 'unable to open file' >&2\nexit 1\n")
	if !errs.Is(NewV210Format(tools).Validate(path, format.Max), errs.External) {
		t.Fatal("a failing h5ls should be an external error")
	}
	// without the tools only the signature is checked, with a warning
	var buf bytes.Buffer
	Warn.SetOutput(&buf)
	defer Warn.SetOutput(ioutil.Discard)
	missing := Tools{H5ls: filepath.Join(dir, "no-h5ls")}
	if err := NewV210Format(missing).Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	if strings.Count(buf.String(), "WARN: ") != 1 {
		t.Fatalf("expected one warning, got %q", buf.String())
	}
	if e, _ := errs.As(NewV210Format(missing).Validate(writeFile(t, table), format.Max)); e == nil || e.Rule != "hdf5 signature" {
		t.Fatalf("expected signature error, got %v", e)
	}
}
