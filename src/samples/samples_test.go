package samples

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
)

func writeReads(t *testing.T, path string) {
	w, err := fastq.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(fastq.Record{Header: "@r1", Sequence: "ACGT", Separator: "+", Quality: "IIII"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func casavaDir(t *testing.T, names ...string) string {
	dir := t.TempDir()
	for _, n := range names {
		writeReads(t, filepath.Join(dir, n))
	}
	return dir
}

func TestParseCasava(t *testing.T) {
	c, ok := ParseCasava("my_sample_S1_L001_R2_001.fastq.gz")
	if !ok || c.Sample != "my_sample" || c.Barcode != "S1" || c.Lane != 1 || c.Read != 2 || c.Direction() != "reverse" {
		t.Fatalf("bad parse: %+v", c)
	}
	if c.String() != "my_sample_S1_L001_R2_001.fastq.gz" {
		t.Fatal(c.String())
	}
	if _, ok := ParseCasava("sample_R1_001.fastq.gz"); ok {
		t.Fatal("name without a barcode should not parse")
	}
	c, ok = ParseLaneless("s_0_R1_001.fastq.gz")
	if !ok || c.Sample != "s" || c.Lane != 1 || c.String() != "s_0_L001_R1_001.fastq.gz" {
		t.Fatalf("bad laneless parse: %+v", c)
	}
	p, err := CasavaPath(format.Keys{"sample": "s", "barcode": "3", "lane": "12", "read": "1"})
	if err != nil || p != "s_3_L012_R1_001.fastq.gz" {
		t.Fatal(p, err)
	}
}

func TestCasavaPairs(t *testing.T) {
	dir := casavaDir(t, "x_0_L001_R1_001.fastq.gz", "x_0_L001_R2_001.fastq.gz")
	if err := CasavaOneEightSingleLanePerSampleDirFmt.Validate(dir, format.Max); err != nil {
		t.Fatal(err)
	}
	dir = casavaDir(t, "x_0_L001_R1_001.fastq.gz", "y_0_L001_R2_001.fastq.gz")
	e, _ := errs.As(CasavaOneEightSingleLanePerSampleDirFmt.Validate(dir, format.Max))
	if e == nil || e.Kind != errs.Structural || e.Rule != "pair mismatch" {
		t.Fatalf("expected pair mismatch, got %v", e)
	}
	of, or := e.Attrs["only_forward"].([]string), e.Attrs["only_reverse"].([]string)
	if len(of) != 1 || of[0] != "x" || len(or) != 1 || or[0] != "y" {
		t.Fatalf("wrong sets: %v %v", of, or)
	}
	// forward only is fine
	dir = casavaDir(t, "x_0_L001_R1_001.fastq.gz", "y_1_L001_R1_001.fastq.gz")
	if err := CasavaOneEightSingleLanePerSampleDirFmt.Validate(dir, format.Max); err != nil {
		t.Fatal(err)
	}
	dir = casavaDir(t, "x_0_L001_R1_001.fastq.gz", "x_1_L001_R1_001.fastq.gz")
	e, _ = errs.As(CasavaOneEightSingleLanePerSampleDirFmt.Validate(dir, format.Max))
	if e == nil || e.Rule != "duplicate sample" {
		t.Fatalf("expected duplicate sample, got %v", e)
	}
}

func TestCasavaForbidsSubdirs(t *testing.T) {
	dir := casavaDir(t, "x_0_L001_R1_001.fastq.gz")
	os.Mkdir(filepath.Join(dir, "nested"), 0755)
	e, _ := errs.As(CasavaOneEightSingleLanePerSampleDirFmt.Validate(dir, format.Max))
	if e == nil || e.Rule != "subdirectory" {
		t.Fatalf("expected subdirectory error, got %v", e)
	}
}

func TestLaneless(t *testing.T) {
	dir := casavaDir(t, "x_0_R1_001.fastq.gz", "x_0_R2_001.fastq.gz")
	v, err := CasavaOneEightLanelessPerSampleDirFmt.Bind(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(format.Max); err != nil {
		t.Fatal(err)
	}
	files := CasavaFiles(v)
	if len(files) != 2 || !files[0].Name.Laneless || files[1].Name.Read != 2 {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestMetadataYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MetadataFile)
	if err := WriteMetadata(path, 33); err != nil {
		t.Fatal(err)
	}
	data, _ := ioutil.ReadFile(path)
	if string(data) != "phred-offset: 33\n" {
		t.Fatalf("unexpected yaml: %q", data)
	}
	if err := YamlFormat.Validate(path, format.Max); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yml")
	ioutil.WriteFile(bad, []byte("phred-offset: 40\n"), 0644)
	if e, _ := errs.As(YamlFormat.Validate(bad, format.Max)); e == nil || e.Rule != "phred offset" {
		t.Fatalf("expected phred offset error, got %v", e)
	}
	ioutil.WriteFile(bad, []byte("- a list\n"), 0644)
	if e, _ := errs.As(YamlFormat.Validate(bad, format.Max)); e == nil || e.Rule != "yaml" {
		t.Fatalf("expected yaml error, got %v", e)
	}
}

func slpsDir(t *testing.T, manifest string, names ...string) string {
	dir := casavaDir(t, names...)
	ioutil.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644)
	if err := WriteMetadata(filepath.Join(dir, MetadataFile), 33); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSingleLanePerSample(t *testing.T) {
	dir := slpsDir(t, "sample-id,filename,direction\nb,b_1_L001_R1_001.fastq.gz,forward\nb,b_1_L001_R2_001.fastq.gz,reverse\na,a_0_L001_R1_001.fastq.gz,forward\na,a_0_L001_R2_001.fastq.gz,reverse\n",
		"a_0_L001_R1_001.fastq.gz", "a_0_L001_R2_001.fastq.gz", "b_1_L001_R1_001.fastq.gz", "b_1_L001_R2_001.fastq.gz")
	reads, m, err := SampleReads(SingleLanePerSamplePairedEndFastqDirFmt, dir, format.Max)
	if err != nil {
		t.Fatal(err)
	}
	if len(reads) != 2 || reads[0].SampleID != "b" || reads[0].Reverse != filepath.Join(dir, "b_1_L001_R2_001.fastq.gz") || !m.Paired {
		t.Fatalf("unexpected reads: %+v", reads)
	}
	// the single-end format refuses a paired manifest
	if err := SingleLanePerSampleSingleEndFastqDirFmt.Validate(dir, format.Max); err == nil {
		t.Fatal("paired manifest accepted as single-end")
	}
}

func TestSingleLanePerSampleUnlisted(t *testing.T) {
	dir := slpsDir(t, "sample-id,filename,direction\na,metadata.yml,forward\n", "a_0_L001_R1_001.fastq.gz")
	e, _ := errs.As(SingleLanePerSampleSingleEndFastqDirFmt.Validate(dir, format.Max))
	if e == nil || e.Rule != "unlisted file" {
		t.Fatalf("expected unlisted file, got %v", e)
	}
}

func TestMAGs(t *testing.T) {
	dir := t.TempDir()
	id := NewMAGID()
	if !IsMAGID(id) || IsMAGID("not-a-uuid") {
		t.Fatal("IsMAGID is wrong")
	}
	ioutil.WriteFile(filepath.Join(dir, id+".fasta"), []byte(">c1\nACGT\n"), 0644)
	v, err := MAGSequencesDirFmt.Bind(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(format.Max); err != nil {
		t.Fatal(err)
	}
	if mags := MAGs(v); len(mags) != 1 || mags[0].ID != id || mags[0].SampleID != "" {
		t.Fatalf("unexpected mags: %+v", mags)
	}
	ioutil.WriteFile(filepath.Join(dir, "bin1.fa"), []byte(">c1\nACGT\n"), 0644)
	if e, _ := errs.As(MAGSequencesDirFmt.Validate(dir, format.Max)); e == nil || e.Rule != "mag id" {
		t.Fatalf("expected mag id error, got %v", e)
	}
}

func TestMultiMAGs(t *testing.T) {
	dir := t.TempDir()
	for _, s := range []string{"s1", "s2"} {
		os.Mkdir(filepath.Join(dir, s), 0755)
		ioutil.WriteFile(filepath.Join(dir, s, NewMAGID()+".fa"), []byte(">c1\nACGT\n"), 0644)
	}
	v, err := MultiMAGSequencesDirFmt.Bind(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(format.Max); err != nil {
		t.Fatal(err)
	}
	ids, bySample := MAGSamples(v)
	if len(ids) != 2 || ids[0] != "s1" || len(bySample["s2"]) != 1 {
		t.Fatalf("unexpected grouping: %v %v", ids, bySample)
	}
	// loose files are not allowed at the top level
	ioutil.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0644)
	if e, _ := errs.As(MultiMAGSequencesDirFmt.Validate(dir, format.Max)); e == nil || e.Rule != "not a directory" {
		t.Fatalf("expected not a directory, got %v", e)
	}
}
