package biom

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
)

// HDF5Signature starts every HDF5 file
var HDF5Signature = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// the groups and datasets a BIOM 2.1 file must hold
var requiredDatasets = []string{
	"/observation/ids",
	"/observation/matrix/data",
	"/observation/matrix/indices",
	"/observation/matrix/indptr",
	"/sample/ids",
	"/sample/matrix/data",
	"/sample/matrix/indices",
	"/sample/matrix/indptr",
}

// the root attributes of a BIOM 2.1 file
var requiredAttrs = []string{"id", "type", "format-url", "format-version", "generated-by", "creation-date", "shape", "nnz"}

// Tools names the external programs used for BIOM 2.1 files
type Tools struct {
	H5ls   string
	H5dump string
	Biom   string
}

// DefaultTools looks the programs up on PATH
var DefaultTools = Tools{H5ls: "h5ls", H5dump: "h5dump", Biom: "biom"}

// NewV210Format returns the HDF5 BIOM format using the given tools
func NewV210Format(tools Tools) *format.File {
	return format.NewBinaryFormat("BIOMV210Format", func(path string, level format.Level) error {
		return validateV210(path, tools)
	}).WithSniffer(hasHDF5Signature)
}

// NewV210DirFmt returns the directory holding feature-table.biom in the HDF5 format
func NewV210DirFmt(f format.FileFormat) *format.DirectoryFormat {
	return format.NewDirectoryFormat("BIOMV210DirFmt", format.FixedFile("table", "feature-table.biom", f))
}

// the BIOM 2.1 formats using tools from PATH
var (
	BIOMV210Format = NewV210Format(DefaultTools)
	BIOMV210DirFmt = NewV210DirFmt(BIOMV210Format)
)

func hasHDF5Signature(path string) bool {
	fh, err := os.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()
	buf := make([]byte, len(HDF5Signature))
	if _, err := io.ReadFull(fh, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, HDF5Signature)
}

// validateV210 checks the signature, then the layout when the HDF5 tools are installed
func validateV210(path string, tools Tools) error {
	if !hasHDF5Signature(path) {
		return errs.New(errs.Structural, "hdf5 signature", "The file does not start with the HDF5 signature.")
	}
	if _, err := exec.LookPath(tools.H5ls); err != nil {
		Warn.Printf("%v was not found, only the HDF5 signature of %v was checked", tools.H5ls, path)
		return nil
	}
	listing, err := run(tools.H5ls, "-r", path)
	if err != nil {
		return err
	}
	present := make(map[string]bool)
	for _, line := range strings.Split(listing, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			present[fields[0]] = true
		}
	}
	for _, ds := range requiredDatasets {
		if !present[ds] {
			return errs.New(errs.Structural, "missing dataset", "BIOM 2.1 files require %v", ds).With("dataset", ds)
		}
	}
	if _, err := exec.LookPath(tools.H5dump); err != nil {
		Warn.Printf("%v was not found, the attributes of %v were not checked", tools.H5dump, path)
		return nil
	}
	attrs, err := run(tools.H5dump, "-A", path)
	if err != nil {
		return err
	}
	for _, a := range requiredAttrs {
		if !strings.Contains(attrs, `ATTRIBUTE "`+a+`"`) {
			return errs.New(errs.Structural, "missing attribute", "BIOM 2.1 files require the %q attribute", a).With("attribute", a)
		}
	}
	return nil
}

// run returns the stdout of a tool, a non-zero exit means the tool could not read the file
func run(tool string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(tool, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", errs.New(errs.External, "hdf5", "%v could not read the file: %v", tool, strings.TrimSpace(stderr.String())).With("tool", tool)
		}
		return "", errors.Wrapf(err, "could not run %v", tool)
	}
	return stdout.String(), nil
}

// ReadV210 converts an HDF5 table to JSON with the biom program and parses it
func ReadV210(path string, tools Tools) (*Table, error) {
	if !hasHDF5Signature(path) {
		return nil, errs.New(errs.Structural, "hdf5 signature", "The file does not start with the HDF5 signature.").InFile(path)
	}
	tmp, err := os.MkdirTemp("", "q2types-biom-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	out := filepath.Join(tmp, "table.json")
	if _, err := run(tools.Biom, "convert", "-i", path, "-o", out, "--to-json"); err != nil {
		return nil, errors.Wrapf(err, "could not convert %v to JSON", path)
	}
	return ReadV100(out)
}

// Read parses a table in either format, telling them apart by the HDF5 signature
func Read(path string, tools Tools) (*Table, error) {
	if hasHDF5Signature(path) {
		return ReadV210(path, tools)
	}
	return ReadV100(path)
}
