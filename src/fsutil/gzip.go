// Package fsutil contains the file helpers shared by the validators and transformers: transparent gzip handling, BOM detection, line streaming and safe copies
package fsutil

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// GzipMagic is the two byte signature of a gzip member
var GzipMagic = []byte{0x1f, 0x8b}

// multiReadCloser closes the decompressor and the file when Close() is called
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// HasGzipMagic peeks at the reader and reports if the next bytes are the gzip signature
func HasGzipMagic(r *bufio.Reader) bool {
	sig, err := r.Peek(2)
	if err != nil || len(sig) < 2 {
		return false
	}
	return sig[0] == GzipMagic[0] && sig[1] == GzipMagic[1]
}

// IsGzip reports if the file at path starts with the gzip signature - the extension is not trusted
func IsGzip(path string) (bool, error) {
	fh, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer fh.Close()
	var sig [2]byte
	n, err := io.ReadFull(fh, sig[:])
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return n == 2 && sig[0] == GzipMagic[0] && sig[1] == GzipMagic[1], nil
}

// Open returns a reader for the file, decompressing it if it starts with the gzip signature
func Open(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(fh, 1<<16)
	if !HasGzipMagic(br) {
		return &multiReadCloser{Reader: br, closers: []io.Closer{fh}}, nil
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		fh.Close()
		return nil, errors.Wrapf(err, "could not open gzip stream %v", path)
	}
	return &multiReadCloser{Reader: gz, closers: []io.Closer{gz, fh}}, nil
}

// OpenGzip returns a decompressing reader and fails if the file is not gzipped
func OpenGzip(path string) (io.ReadCloser, error) {
	ok, err := IsGzip(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("%v is not gzip compressed", path)
	}
	return Open(path)
}

// CreateGzip creates a gzip compressed file, the path must end with .gz
func CreateGzip(path string) (io.WriteCloser, error) {
	if len(path) < 3 || path[len(path)-3:] != ".gz" {
		return nil, errors.Errorf("refusing to write gzip data to %v without a .gz suffix", path)
	}
	w, err := xopen.Wopen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create %v", path)
	}
	return w, nil
}
