package format

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fsutil"
)

func write(t *testing.T, path, content string) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// nonEmpty fails on empty files
var nonEmpty = NewTextFormat("NonEmptyFormat", func(path string, level Level) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.Size() == 0 {
		return errs.New(errs.Structural, "empty file", "file is empty")
	}
	return nil
})

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel("MAX"); err != nil || l != Max {
		t.Fatal("could not parse max")
	}
	if _, err := ParseLevel("medium"); err == nil {
		t.Fatal("unknown levels should fail")
	}
	if Min.Lines() != 100 || Max.Lines() != 0 || Min.Records() != 5 {
		t.Fatal("wrong level bounds")
	}
}

func TestScanLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.txt")
	var b strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	write(t, path, "\xEF\xBB\xBF"+b.String())
	count := 0
	first := ""
	err := ScanLines(path, Min.Lines(), func(lr *fsutil.LineReader) error {
		if count == 0 {
			first = lr.Text()
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 100 || first != "line 0" {
		t.Fatalf("min level should read 100 lines without the BOM: %d %q", count, first)
	}
	count = 0
	ScanLines(path, 0, func(lr *fsutil.LineReader) error {
		count++
		if count == 10 {
			return Stop
		}
		return nil
	})
	if count != 10 {
		t.Fatal("Stop did not end the scan")
	}
}

func TestScanLinesEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	write(t, path, "ok\nab\xffc\n")
	err := ScanLines(path, 0, func(lr *fsutil.LineReader) error { return nil })
	e, ok := errs.As(err)
	if !ok || e.Kind != errs.Encoding {
		t.Fatalf("expected an encoding error, got %v", err)
	}
	if e.Line != 2 || e.Attrs["offset"] != int64(5) {
		t.Fatalf("wrong location: line %d offset %v", e.Line, e.Attrs["offset"])
	}
}

func TestDirectoryFormat(t *testing.T) {
	dirFmt := NewDirectoryFormat("TestDirFmt",
		FixedFile("manifest", "MANIFEST", nil),
		Collection("sequences", `.+\.fasta`, nonEmpty).WithPathMaker(func(keys Keys) (string, error) {
			return keys["id"] + ".fasta", nil
		}),
		FixedFile("notes", "notes.txt", nil).AsOptional(),
	)
	dir := t.TempDir()
	write(t, filepath.Join(dir, "MANIFEST"), "x")
	write(t, filepath.Join(dir, "b.fasta"), ">b\nA\n")
	write(t, filepath.Join(dir, "a.fasta"), ">a\nA\n")
	write(t, filepath.Join(dir, "extra.log"), "")
	write(t, filepath.Join(dir, ".hidden"), "")
	if err := dirFmt.Validate(dir, Max); err != nil {
		t.Fatal(err)
	}
	v, err := dirFmt.Bind(dir)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(v.Members("sequences"), ",") != "a.fasta,b.fasta" {
		t.Fatalf("members not sorted: %v", v.Members("sequences"))
	}
	if _, ok := v.File("notes"); ok {
		t.Fatal("optional file is absent")
	}
	if got := v.Unclaimed(); len(got) != 1 || got[0] != "extra.log" {
		t.Fatalf("unexpected unclaimed files: %v", got)
	}
	p, err := dirFmt.MakePath("sequences", Keys{"id": "c"})
	if err != nil || p != "c.fasta" {
		t.Fatal("path maker failed")
	}

	// closed formats reject the extra file
	dirFmt.Closed()
	if err := dirFmt.Validate(dir, Max); !errs.Is(err, errs.Structural) {
		t.Fatalf("closed format should reject unclaimed files: %v", err)
	}

	// member validation errors name the member
	write(t, filepath.Join(dir, "c.fasta"), "")
	os.Remove(filepath.Join(dir, "extra.log"))
	err = dirFmt.Validate(dir, Max)
	e, ok := errs.As(err)
	if !ok || !strings.HasSuffix(e.Path, "c.fasta") {
		t.Fatalf("error should point at c.fasta: %v", err)
	}
}

func TestMemberOrder(t *testing.T) {
	failing := func(rule string) *File {
		return NewTextFormat(rule, func(path string, level Level) error {
			return errs.New(errs.Content, rule, "%v is bad", filepath.Base(path))
		})
	}
	// the reads are declared first but metadata.yml sorts first
	dirFmt := NewDirectoryFormat("ReadsFmt",
		Collection("reads", `.+_R[12]_001\.fastq\.gz`, failing("uncompressed")),
		FixedFile("metadata", "metadata.yml", failing("phred offset")),
	)
	dir := t.TempDir()
	write(t, filepath.Join(dir, "x_0_L001_R1_001.fastq.gz"), "@r\nA\n+\nI\n")
	write(t, filepath.Join(dir, "metadata.yml"), "phred-offset: 99\n")
	err := dirFmt.Validate(dir, Min)
	e, ok := errs.As(err)
	if !ok || e.Rule != "phred offset" || filepath.Base(e.Path) != "metadata.yml" {
		t.Fatalf("the first bad file in path order should be reported, got %v", err)
	}
}

func TestMissingEntries(t *testing.T) {
	dirFmt := NewDirectoryFormat("TestDirFmt", FixedFile("manifest", "MANIFEST", nil))
	err := dirFmt.Validate(t.TempDir(), Min)
	e, ok := errs.As(err)
	if !ok || e.Rule != "missing file" {
		t.Fatalf("expected a missing file error, got %v", err)
	}
	coll := NewDirectoryFormat("CollFmt", Collection("seqs", `.+\.fa`, nil))
	if err := coll.Validate(t.TempDir(), Min); !errs.Is(err, errs.Structural) {
		t.Fatal("empty collections should fail")
	}
}

func TestExclusion(t *testing.T) {
	dirFmt := NewDirectoryFormat("IdxFmt",
		Collection("fwd", `.+\.1\.bt2`, nil).Excluding(`.+\.rev\.1\.bt2`),
		Collection("rev", `.+\.rev\.1\.bt2`, nil),
	)
	dir := t.TempDir()
	write(t, filepath.Join(dir, "ref.1.bt2"), "")
	write(t, filepath.Join(dir, "ref.rev.1.bt2"), "")
	v, err := dirFmt.Bind(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m := v.Members("fwd"); len(m) != 1 || m[0] != "ref.1.bt2" {
		t.Fatalf("exclusion not applied: %v", m)
	}
}

func TestSubdirMixins(t *testing.T) {
	multi := NewDirectoryFormat("MultiFmt", Collection("seqs", `.+/.+\.fa`, nil)).WithMixin(RequireSubdirs("MANIFEST"))
	dir := t.TempDir()
	write(t, filepath.Join(dir, "s1", "a.fa"), "")
	write(t, filepath.Join(dir, "MANIFEST"), "")
	if err := multi.Validate(dir, Min); err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(dir, "loose.fa"), "")
	if err := multi.Validate(dir, Min); err == nil {
		t.Fatal("top level files should be rejected")
	}
	flat := NewDirectoryFormat("FlatFmt", Collection("seqs", `.+\.fa`, nil)).WithPrecheck(ForbidSubdirs())
	err := flat.Validate(dir, Min)
	e, ok := errs.As(err)
	if !ok || e.Rule != "subdirectory" {
		t.Fatalf("flat formats should reject subdirectories: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterFile(nonEmpty)
	reg.RegisterDir(NewDirectoryFormat("TestDirFmt"))
	if _, ok := reg.Lookup("TestDirFmt"); !ok {
		t.Fatal("directory format not found")
	}
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("duplicate registration should panic")
			}
		}()
		reg.RegisterFile(nonEmpty)
	}()
	reg.Seal()
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("registration after Seal should panic")
			}
		}()
		reg.RegisterFile(Opaque("Other", Binary))
	}()
	if len(reg.FileNames()) != 1 || len(reg.DirNames()) != 1 {
		t.Fatal("wrong registry contents")
	}
}
