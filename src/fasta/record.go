package fasta

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fsutil"
)

// Record is a single FASTA entry
type Record struct {
	ID          string
	Description string
	Sequence    string
}

// Reader streams records from a FASTA file, it owns the underlying file handle until Close
type Reader struct {
	closer io.Closer
	sc     *seqio.Scanner
	rec    Record
	n      int
}

// NewReader returns a Reader over r using the DNA alphabet template
func NewReader(r io.Reader) *Reader {
	return newReader(r, alphabet.DNA)
}

func newReader(r io.Reader, alpha alphabet.Alphabet) *Reader {
	template := linear.NewSeq("", nil, alpha)
	return &Reader{sc: seqio.NewScanner(fasta.NewReader(r, template))}
}

// Open returns a Reader for the file, which may be gzipped
func Open(path string) (*Reader, error) {
	return DNAFASTAFormat.Open(path)
}

// Open returns a Reader whose template alphabet matches the format
func (f *Format) Open(path string) (*Reader, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(rc)
	fsutil.SkipBOM(br)
	var alpha alphabet.Alphabet = alphabet.DNA
	switch f.base {
	case RNA:
		alpha = alphabet.RNA
	case Protein:
		alpha = alphabet.Protein
	}
	r := newReader(br, alpha)
	r.closer = rc
	return r, nil
}

// Next advances to the next record
func (r *Reader) Next() bool {
	if !r.sc.Next() {
		return false
	}
	s, ok := r.sc.Seq().(*linear.Seq)
	if !ok {
		return false
	}
	r.rec = Record{
		ID:          s.ID,
		Description: s.Desc,
		Sequence:    lettersToString(s.Seq),
	}
	r.n++
	return true
}

// Record returns the current record
func (r *Reader) Record() Record {
	return r.rec
}

// Count returns the number of records read so far
func (r *Reader) Count() int {
	return r.n
}

// Err returns the first error met while reading
func (r *Reader) Err() error {
	return r.sc.Error()
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
	if err := r.Err(); err != nil {
		return nil, errors.Wrapf(err, "could not read %v", path)
	}
	return recs, nil
}

// Writer writes records with the whole sequence on one line
type Writer struct {
	bw     *bufio.Writer
	fw     *fasta.Writer
	closer io.Closer
	n      int
}

// NewWriter wraps w, call Flush or Close when done
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{bw: bw, fw: fasta.NewWriter(bw, math.MaxInt32)}
}

// Create opens a new file for writing, it fails if the file exists
func Create(path string) (*Writer, error) {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	w := NewWriter(fh)
	w.closer = fh
	return w, nil
}

// Write writes one record, records without a sequence are refused
func (w *Writer) Write(rec Record) error {
	if rec.Sequence == "" {
		return errs.New(errs.TransformData, "empty sequence", "record %q has no sequence", rec.ID)
	}
	s := linear.NewSeq(rec.ID, stringToLetters(rec.Sequence), alphabet.DNA)
	s.Desc = rec.Description
	if _, err := w.fw.Write(s); err != nil {
		return err
	}
	w.n++
	return nil
}

// Count returns the number of records written
func (w *Writer) Count() int {
	return w.n
}

// Flush flushes the buffered output
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Close flushes and closes the file opened by Create
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		if w.closer != nil {
			w.closer.Close()
		}
		return err
	}
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// WriteFile writes records to a new file
func WriteFile(path string, recs []Record) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			w.Close()
			os.Remove(path)
			return err
		}
	}
	return w.Close()
}

func lettersToString(l alphabet.Letters) string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = byte(c)
	}
	return string(b)
}

func stringToLetters(s string) alphabet.Letters {
	l := make(alphabet.Letters, len(s))
	for i := 0; i < len(s); i++ {
		l[i] = alphabet.Letter(s[i])
	}
	return l
}
