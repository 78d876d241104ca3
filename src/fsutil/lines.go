package fsutil

import (
	"bufio"
	"bytes"
	"io"
)

// LineReader streams lines without a length limit, keeping track of line numbers and byte offsets
type LineReader struct {
	r      *bufio.Reader
	raw    []byte
	line   []byte
	n      int
	offset int64
	next   int64
	err    error
	done   bool
}

// NewLineReader is the constructor
func NewLineReader(r io.Reader) *LineReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 1<<16)
	}
	return &LineReader{r: br}
}

// Next advances to the next line, returning false at EOF or on error
func (lr *LineReader) Next() bool {
	if lr.done || lr.err != nil {
		return false
	}
	raw, err := lr.r.ReadBytes('\n')
	if len(raw) == 0 {
		lr.done = true
		if err != nil && err != io.EOF {
			lr.err = err
		}
		return false
	}
	if err != nil && err != io.EOF {
		lr.err = err
	}
	lr.n++
	lr.offset = lr.next
	lr.next += int64(len(raw))
	lr.raw = raw
	lr.line = bytes.TrimRight(raw, "\r\n")
	return true
}

// Bytes returns the current line without its line terminator, valid until the next call to Next
func (lr *LineReader) Bytes() []byte {
	return lr.line
}

// Text returns a copy of the current line as a string
func (lr *LineReader) Text() string {
	return string(lr.line)
}

// Raw returns the current line including its terminator
func (lr *LineReader) Raw() []byte {
	return lr.raw
}

// Line returns the 1-based number of the current line
func (lr *LineReader) Line() int {
	return lr.n
}

// Offset returns the byte offset of the start of the current line
func (lr *LineReader) Offset() int64 {
	return lr.offset
}

// Err returns the first non-EOF error encountered
func (lr *LineReader) Err() error {
	return lr.err
}
