package pipeline

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/segmentio/objconv/msgpack"
	"github.com/will-rowe/q2types/src/errs"
)

// Info stores the runtime information
type Info struct {
	NumProc   int
	Version   string
	Profiling bool
	Level     string
	Started   string
	Validate  []Entry
}

// Entry is the serialisable form of a batch Result
type Entry struct {
	Format  string
	Path    string
	Valid   bool
	Kind    string
	Rule    string
	Line    int
	Message string
	Seconds float64
}

// AddResults records the outcome of a batch validation
func (Info *Info) AddResults(results []Result) {
	for _, r := range results {
		e := Entry{Format: r.Format, Path: r.Path, Valid: r.Err == nil, Seconds: r.Elapsed.Seconds()}
		if r.Err != nil {
			e.Message = r.Err.Error()
			if te, ok := errs.As(r.Err); ok {
				e.Kind = te.Kind.String()
				e.Rule = te.Rule
				e.Line = te.Line
			}
		}
		Info.Validate = append(Info.Validate, e)
	}
}

// Failures returns the number of invalid entries
func (Info *Info) Failures() int {
	n := 0
	for _, e := range Info.Validate {
		if !e.Valid {
			n++
		}
	}
	return n
}

// Stamp sets the start time
func (Info *Info) Stamp(t time.Time) {
	Info.Started = t.UTC().Format(time.RFC3339)
}

// Dump is a method to dump the pipeline info to file
func (Info *Info) Dump(path string) error {
	b, err := msgpack.Marshal(Info)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Load is a method to load Info from file
func (Info *Info) Load(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return Info.LoadFromBytes(data)
}

// LoadFromBytes is a method to load Info from bytes
func (Info *Info) LoadFromBytes(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("q2types run report appears empty")
	}
	return msgpack.Unmarshal(data, Info)
}
