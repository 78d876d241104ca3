package pipeline

/*
 this part of the pipeline streams FASTQ records from one offset to another: reader -> recoder -> gzip writer
*/

import (
	"os"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fastq"
)

// FastqReader is a pipeline process that streams records from a (gzipped) FASTQ file
type FastqReader struct {
	input  string
	output chan fastq.Record
	err    error
}

// NewFastqReader is the constructor
func NewFastqReader() *FastqReader {
	return &FastqReader{output: make(chan fastq.Record, BUFFERSIZE)}
}

// Connect is the method to connect the FastqReader to a file
func (proc *FastqReader) Connect(path string) {
	proc.input = path
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *FastqReader) Run() {
	defer close(proc.output)
	r, err := fastq.Open(proc.input)
	if err != nil {
		proc.err = err
		return
	}
	defer r.Close()
	for r.Next() {
		proc.output <- r.Record()
	}
	proc.err = errs.Locate(r.Err(), proc.input)
}

// Err returns the error that stopped the reader
func (proc *FastqReader) Err() error {
	return proc.err
}

// PhredRecoder is a pipeline process that recodes quality lines between offsets
type PhredRecoder struct {
	from, to int
	input    chan fastq.Record
	output   chan fastq.Record
	err      error
}

// NewPhredRecoder is the constructor
func NewPhredRecoder(from, to int) *PhredRecoder {
	return &PhredRecoder{from: from, to: to, output: make(chan fastq.Record, BUFFERSIZE)}
}

// Connect is the method to connect the PhredRecoder to the output of a FastqReader
func (proc *PhredRecoder) Connect(previous *FastqReader) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *PhredRecoder) Run() {
	defer close(proc.output)
	for rec := range proc.input {
		// drain once failed
		if proc.err != nil {
			continue
		}
		recoded, err := fastq.RecodeRecord(rec, proc.from, proc.to)
		if err != nil {
			proc.err = err
			continue
		}
		proc.output <- recoded
	}
}

// Err returns the first recoding error
func (proc *PhredRecoder) Err() error {
	return proc.err
}

// FastqGzWriter is a pipeline process that writes records to a new gzipped FASTQ file
type FastqGzWriter struct {
	path    string
	input   chan fastq.Record
	count   int
	created bool
	err     error
}

// NewFastqGzWriter is the constructor, the path must end in .gz and not exist
func NewFastqGzWriter(path string) *FastqGzWriter {
	return &FastqGzWriter{path: path}
}

// Connect is the method to connect the FastqGzWriter to the output of a PhredRecoder
func (proc *FastqGzWriter) Connect(previous *PhredRecoder) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *FastqGzWriter) Run() {
	w, err := fastq.Create(proc.path)
	if err != nil {
		proc.err = err
		for range proc.input {
		}
		return
	}
	proc.created = true
	for rec := range proc.input {
		if proc.err != nil {
			continue
		}
		if err := w.Write(rec); err != nil {
			proc.err = err
		}
	}
	if err := w.Close(); proc.err == nil {
		proc.err = err
	}
	proc.count = w.Count()
}

// Err returns the first write error
func (proc *FastqGzWriter) Err() error {
	return proc.err
}

// Count returns the number of records written
func (proc *FastqGzWriter) Count() int {
	return proc.count
}

// Recode streams src into a new gzipped FASTQ at dst, recoding the qualities from one offset to another. On error dst is removed
func Recode(src, dst string, from, to int) (int, error) {
	reader := NewFastqReader()
	recoder := NewPhredRecoder(from, to)
	writer := NewFastqGzWriter(dst)
	reader.Connect(src)
	recoder.Connect(reader)
	writer.Connect(recoder)
	p := NewPipeline()
	p.AddProcesses(reader, recoder, writer)
	if err := p.Run(); err != nil {
		if writer.created {
			os.Remove(dst)
		}
		return 0, err
	}
	return writer.Count(), nil
}
