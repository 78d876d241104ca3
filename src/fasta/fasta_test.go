package fasta

import (
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

func writeTemp(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "seqs.fasta")
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustFail(t *testing.T, f *Format, content string, rule string) *errs.Error {
	err := f.Validate(writeTemp(t, content), format.Max)
	e, ok := errs.As(err)
	if !ok {
		t.Fatalf("%s: expected a validation error for %q, got %v", f.Name(), content, err)
	}
	if e.Rule != rule {
		t.Fatalf("%s: expected rule %q, got %q (%v)", f.Name(), rule, e.Rule, e)
	}
	return e
}

func TestValidFASTA(t *testing.T) {
	cases := map[*Format]string{
		DNAFASTAFormat:                 ">s1 some description\nACGTN\nACG\n\n>s2\nRYKM\n",
		RNAFASTAFormat:                 ">s1\nACGU\n",
		ProteinFASTAFormat:             ">p1\nMKVLA\n",
		AlignedDNAFASTAFormat:          ">a\nAC-T\n>b\nA.GT\n",
		MixedCaseDNAFASTAFormat:        ">s1\nacgtN\n",
		MixedCaseAlignedRNAFASTAFormat: ">a\nac-u\n>b\nACGU\n",
	}
	for f, content := range cases {
		if err := f.Validate(writeTemp(t, content), format.Max); err != nil {
			t.Fatalf("%s rejected a valid file: %v", f.Name(), err)
		}
	}
}

func TestEmptyFASTA(t *testing.T) {
	for _, content := range []string{"", "  \n\n", "\xEF\xBB\xBF"} {
		if err := DNAFASTAFormat.Validate(writeTemp(t, content), format.Max); err != nil {
			t.Fatalf("empty file %q should be valid: %v", content, err)
		}
	}
	if err := DNAFASTAFormat.Validate(writeTemp(t, "\xEF\xBB\xBF>s1\nACGT\n"), format.Max); err != nil {
		t.Fatalf("a leading BOM should be ignored: %v", err)
	}
}

func TestDuplicateID(t *testing.T) {
	e := mustFail(t, DNAFASTAFormat, ">s1\nACGT\n>s1\nACGT\n", "duplicate id")
	if e.Kind != errs.Content || e.Line != 3 || e.PriorLine != 1 || e.Attrs["id"] != "s1" {
		t.Fatalf("wrong duplicate id error: %+v", e)
	}
}

func TestAlignmentLength(t *testing.T) {
	e := mustFail(t, AlignedDNAFASTAFormat, ">a\nACGT\n>b\nACG\n", "alignment length")
	if e.Kind != errs.Content || e.Line != 3 || e.Attrs["expected"] != 4 || e.Attrs["found"] != 3 {
		t.Fatalf("wrong alignment error: %+v", e)
	}
	// the unaligned variant does not care
	if err := DNAFASTAFormat.Validate(writeTemp(t, ">a\nACGT\n>b\nACG\n"), format.Max); err != nil {
		t.Fatal(err)
	}
	// multi-line records are summed
	mustFail(t, AlignedDNAFASTAFormat, ">a\nAC\nGT\n>b\nACGTA\n>c\nACGT\n", "alignment length")
}

func TestStructuralErrors(t *testing.T) {
	mustFail(t, DNAFASTAFormat, "ACGT\n", "missing description")
	mustFail(t, DNAFASTAFormat, ">a\n>b\nACGT\n", "consecutive descriptions")
	mustFail(t, DNAFASTAFormat, ">\nACGT\n", "missing id")
	mustFail(t, DNAFASTAFormat, "> a\nACGT\n", "id starts with space")
	mustFail(t, DNAFASTAFormat, ">a\nACGT\n>b\n", "missing sequence")
}

func TestInvalidCharacter(t *testing.T) {
	e := mustFail(t, DNAFASTAFormat, ">a\nACGT\nACnT\n", "invalid character")
	if e.Line != 3 || e.Column != 3 || e.Attrs["character"] != "n" {
		t.Fatalf("wrong location: %+v", e)
	}
	// N is fine, gaps are not
	if err := DNAFASTAFormat.Validate(writeTemp(t, ">a\nN\n"), format.Max); err != nil {
		t.Fatal(err)
	}
	mustFail(t, DNAFASTAFormat, ">a\nAC-T\n", "invalid character")
	mustFail(t, RNAFASTAFormat, ">a\nACGT\n", "invalid character")
}

func TestEncoding(t *testing.T) {
	err := DNAFASTAFormat.Validate(writeTemp(t, ">a\xff\nACGT\n"), format.Max)
	if !errs.Is(err, errs.Encoding) {
		t.Fatalf("expected an encoding error: %v", err)
	}
}

func TestMinLevel(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString(">s")
		b.WriteString(strings.Repeat("x", i+1))
		b.WriteString("\nACGT\n")
	}
	b.WriteString(">bad\nXXXX\n")
	path := writeTemp(t, b.String())
	if err := DNAFASTAFormat.Validate(path, format.Min); err != nil {
		t.Fatalf("min level should not reach the bad record: %v", err)
	}
	if err := DNAFASTAFormat.Validate(path, format.Max); err == nil {
		t.Fatal("max level should reach the bad record")
	}
	if !DNAFASTAFormat.Sniff(path) {
		t.Fatal("sniffer should accept the file")
	}
}

func TestRoundTrip(t *testing.T) {
	recs := []Record{
		{ID: "s1", Description: "first one", Sequence: "ACGTACGTNN"},
		{ID: "s2", Sequence: "RYKMSWBDHV"},
		{ID: "s3", Description: "gapped", Sequence: "AC--GT..AC"},
	}
	path := filepath.Join(t.TempDir(), "out.fasta")
	if err := WriteFile(path, recs); err != nil {
		t.Fatal(err)
	}
	if err := AlignedDNAFASTAFormat.Validate(path, format.Max); err != nil {
		t.Fatalf("written file is not valid: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(recs) {
		t.Fatalf("expected %d records, got %d", len(recs), len(got))
	}
	for i := range recs {
		if got[i] != recs[i] {
			t.Fatalf("record %d changed: %+v != %+v", i, got[i], recs[i])
		}
	}
	if err := WriteFile(path, recs); err == nil {
		t.Fatal("WriteFile should not overwrite")
	}
}

func TestQIIME1Demux(t *testing.T) {
	valid := ">sample_1_0 orig\nACGT\n>sample_1_1\nAC\n>s2_0\nGG\n"
	if err := QIIME1DemuxFormat.Validate(writeTemp(t, valid), format.Max); err != nil {
		t.Fatal(err)
	}
	for content, rule := range map[string]string{
		">nosep\nACGT\n":            "invalid id",
		">s_0\nACGT\n>s_0\nACGT\n":  "duplicate id",
		">s_0\nACGT\nACGT\n":        "missing description",
		">s_0\n":                    "missing sequence",
		">s_0\nACXT\n":              "invalid character",
		"":                          "empty file",
	} {
		e, ok := errs.As(QIIME1DemuxFormat.Validate(writeTemp(t, content), format.Max))
		if !ok || e.Rule != rule {
			t.Fatalf("%q: expected %q, got %v", content, rule, e)
		}
	}
	s, id, ok := SplitDemuxID("my_sample_12")
	if !ok || s != "my_sample" || id != "12" {
		t.Fatal("SplitDemuxID failed")
	}
}

func BenchmarkValidate(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&sb, ">s%d\n", i)
		sb.WriteString(strings.Repeat("ACGT", 40))
		sb.WriteString("\n")
	}
	path := filepath.Join(b.TempDir(), "bench.fasta")
	ioutil.WriteFile(path, []byte(sb.String()), 0644)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DNAFASTAFormat.Validate(path, format.Max)
	}
}
