// Package fastq contains the gzipped FASTQ validators, a record reader/writer and PHRED offset recoding
package fastq

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// Record is one FASTQ read, the fields hold the lines without terminators
type Record struct {
	Header    string
	Sequence  string
	Separator string
	Quality   string
}

// ID returns the read ID, the header without '@' up to the first whitespace
func (r Record) ID() string {
	for i := 1; i < len(r.Header); i++ {
		if r.Header[i] == ' ' || r.Header[i] == '\t' {
			return r.Header[1:i]
		}
	}
	if len(r.Header) == 0 {
		return ""
	}
	return r.Header[1:]
}

// Format is a gzipped FASTQ file format
type Format struct {
	name      string
	mixedCase bool
}

// the FASTQ formats
var (
	FastqGzFormat          = &Format{name: "FastqGzFormat"}
	MixedCaseFastqGzFormat = &Format{name: "MixedCaseFastqGzFormat", mixedCase: true}
)

// Name returns the format name
func (f *Format) Name() string { return f.name }

// Medium is binary as the file is gzipped
func (f *Format) Medium() format.Medium { return format.Binary }

// Validate checks the gzip signature, then the first 5 records at Min level or all of them at Max
func (f *Format) Validate(path string, level format.Level) error {
	return errs.Locate(f.validate(path, level), path)
}

func (f *Format) validate(path string, level format.Level) error {
	gz, err := fsutil.IsGzip(path)
	if err != nil {
		return err
	}
	if !gz {
		return errs.New(errs.Structural, "uncompressed", "File is uncompressed")
	}
	r, err := f.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	limit := level.Records()
	for r.Next() {
		if limit > 0 && r.Count() >= limit {
			return nil
		}
	}
	return r.Err()
}

// Sniff runs a Min level validation
func (f *Format) Sniff(path string) bool {
	return f.Validate(path, format.Min) == nil
}

// Open returns a Reader that applies the format's case rule
func (f *Format) Open(path string) (*Reader, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	r.m.mixedCase = f.mixedCase
	return r, nil
}

// Reader streams records through the FASTQ state machine, it owns the file handle until Close
type Reader struct {
	lr     *fsutil.LineReader
	closer io.Closer
	m      machine
	rec    Record
	n      int
	err    error
}

// NewReader reads uncompressed FASTQ from r, lower case sequence is accepted
func NewReader(r io.Reader) *Reader {
	return &Reader{lr: fsutil.NewLineReader(r), m: machine{mixedCase: true}}
}

// Open opens a FASTQ file, decompressing it if it is gzipped
func Open(path string) (*Reader, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(rc)
	r.closer = rc
	return r, nil
}

// Next advances to the next complete record
func (r *Reader) Next() bool {
	if r.err != nil {
		return false
	}
	for r.lr.Next() {
		line := r.lr.Bytes()
		n := r.lr.Line()
		for i, c := range line {
			if c > 127 {
				offset := r.lr.Offset() + int64(i)
				r.err = errs.New(errs.Encoding, "non-ascii", "non-ASCII byte on line %d at byte offset %d", n, offset).At(n).With("offset", offset)
				return false
			}
		}
		complete, err := r.m.step(line, n)
		if err != nil {
			r.err = err
			return false
		}
		switch r.m.state {
		case inSequence:
			r.rec = Record{Header: string(line)}
		case expectSeparator:
			r.rec.Sequence = string(line)
		case expectQuality:
			r.rec.Separator = string(line)
		}
		if complete {
			r.rec.Quality = string(line)
			r.n++
			return true
		}
	}
	if err := r.lr.Err(); err != nil {
		r.err = errors.Wrap(err, "could not read FASTQ data")
		return false
	}
	r.err = r.m.finish()
	return false
}

// Record returns the current record
func (r *Reader) Record() Record {
	return r.rec
}

// Count returns the number of complete records read
func (r *Reader) Count() int {
	return r.n
}

// Err returns the first error met
func (r *Reader) Err() error {
	return r.err
}

// Close releases the file handle
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// ReadFile loads every record of a file
func ReadFile(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var recs []Record
	for r.Next() {
		recs = append(recs, r.Record())
	}
	return recs, errs.Locate(r.Err(), path)
}

// Writer writes four line records
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	n      int
}

// NewWriter wraps w, call Flush when done
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Create opens a new gzipped FASTQ file, the path must end in .gz
func Create(path string) (*Writer, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Errorf("refusing to overwrite %v", path)
	}
	wc, err := fsutil.CreateGzip(path)
	if err != nil {
		return nil, err
	}
	w := NewWriter(wc)
	w.closer = wc
	return w, nil
}

// Write writes one record
func (w *Writer) Write(rec Record) error {
	for _, line := range [4]string{rec.Header, rec.Sequence, rec.Separator, rec.Quality} {
		if _, err := w.bw.WriteString(line); err != nil {
			return err
		}
		if err := w.bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	w.n++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.n
}

// Flush flushes buffered output
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes and closes a file opened by Create
func (w *Writer) Close() error {
	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
