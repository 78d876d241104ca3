package index

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// DefaultSamtools is the samtools executable looked up on PATH
const DefaultSamtools = "samtools"

// NewBAMFormat returns a BAM format that runs `samtools quickcheck -v` with the given executable
func NewBAMFormat(samtools string) *format.File {
	return format.NewBinaryFormat("BAMFormat", func(path string, level format.Level) error {
		return quickcheck(samtools, path)
	})
}

// NewBAMDirFmt returns a directory format of .bam files checked by f
func NewBAMDirFmt(f format.FileFormat) *format.DirectoryFormat {
	return format.NewDirectoryFormat("BAMDirFmt",
		format.Collection("alignments", `[^/]+\.bam`, f).WithPathMaker(func(k format.Keys) (string, error) {
			return k["sample_id"] + ".bam", nil
		}))
}

// the BAM formats using samtools from PATH
var (
	BAMFormat = NewBAMFormat(DefaultSamtools)
	BAMDirFmt = NewBAMDirFmt(BAMFormat)
)

// quickcheck checks the BGZF magic, then asks samtools about the rest
func quickcheck(samtools, path string) error {
	gz, err := fsutil.IsGzip(path)
	if err != nil {
		return err
	}
	if !gz {
		return errs.New(errs.Structural, "not bgzf", "BAM files are BGZF compressed, the file has no gzip header.")
	}
	var stderr bytes.Buffer
	cmd := exec.Command(samtools, "quickcheck", "-v", path)
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr
	err = cmd.Run()
	if err == nil {
		return nil
	}
	if _, ok := err.(*exec.ExitError); !ok {
		return errors.Wrapf(err, "could not run %v", samtools)
	}
	detail := strings.TrimSpace(stderr.String())
	if detail == "" {
		detail = "samtools quickcheck reported the file as invalid"
	}
	return errs.New(errs.External, "quickcheck", "%v", detail).With("tool", samtools)
}
