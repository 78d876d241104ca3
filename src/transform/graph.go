// Package transform holds the registry of format-to-format transformers and the transformers themselves
package transform

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// Warn receives the warnings of this package, the host may redirect it
var Warn = log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime)

// Func transforms the input path into files written under out, a fresh empty directory.
// Inputs of file formats are file paths, inputs of directory formats are directory paths.
// Outputs of file formats are a single file in out, named after the input file
type Func func(in, out string) error

// Edge is a registered transformer
type Edge struct {
	From string
	To   string
	Fn   Func
}

type key struct {
	from, to string
}

// Graph is the transformer registry, keyed by source and target format names. It is filled once, sealed, and only read afterwards
type Graph struct {
	registry *format.Registry
	edges    map[key]Func
	sealed   bool
}

// NewGraph returns an empty graph, the registry is used to tell file formats from directory formats and to check outputs
func NewGraph(registry *format.Registry) *Graph {
	return &Graph{registry: registry, edges: make(map[key]Func)}
}

// Register adds an edge, registering an edge twice or after Seal panics
func (g *Graph) Register(from, to string, fn Func) {
	if g.sealed {
		panic(fmt.Sprintf("transformer graph is sealed, cannot register %v -> %v", from, to))
	}
	k := key{from, to}
	if _, ok := g.edges[k]; ok {
		panic(fmt.Sprintf("transformer %v -> %v registered twice", from, to))
	}
	g.edges[k] = fn
}

// Seal makes the graph read-only
func (g *Graph) Seal() {
	g.sealed = true
}

// Lookup returns the transformer for an edge, the graph is not transitively closed
func (g *Graph) Lookup(from, to string) (Func, bool) {
	fn, ok := g.edges[key{from, to}]
	return fn, ok
}

// Edges returns the registered edges sorted by source then target
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for k, fn := range g.edges {
		out = append(out, Edge{From: k.from, To: k.to, Fn: fn})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// isFile reports if name is a registered file format
func (g *Graph) isFile(name string) bool {
	if g.registry == nil {
		return false
	}
	_, ok := g.registry.File(name)
	return ok
}

// Compose chains the edges along a path of format names into one transformer
func (g *Graph) Compose(path ...string) (Func, error) {
	if len(path) < 2 {
		return nil, errors.New("a composed transformer needs at least two formats")
	}
	steps := make([]Func, len(path)-1)
	for i := range steps {
		fn, ok := g.Lookup(path[i], path[i+1])
		if !ok {
			return nil, errors.Errorf("no transformer from %v to %v", path[i], path[i+1])
		}
		steps[i] = fn
	}
	return func(in, out string) error {
		current := in
		for i, fn := range steps {
			if i == len(steps)-1 {
				return fn(current, out)
			}
			tmp, err := ioutil.TempDir("", "q2types-compose-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			if err := fn(current, tmp); err != nil {
				return err
			}
			current = tmp
			if g.isFile(path[i+1]) {
				if current, err = singleFile(tmp); err != nil {
					return err
				}
			}
		}
		return nil
	}, nil
}

// singleFile returns the one file a file-format transformer wrote
func singleFile(dir string) (string, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 || entries[0].IsDir() {
		return "", errors.Errorf("expected one output file in %v, found %d entries", dir, len(entries))
	}
	return filepath.Join(dir, entries[0].Name()), nil
}

// Transform runs the edge from -> to, see Run
func (g *Graph) Transform(from, to, in, out string) error {
	fn, ok := g.Lookup(from, to)
	if !ok {
		return errors.Errorf("no transformer from %v to %v", from, to)
	}
	return errors.Wrapf(g.Run(fn, to, in, out), "%v -> %v", from, to)
}

// Run calls fn on a staging directory and renames it to out on success, on failure nothing is left at out.
// When to is a registered directory format the output is validated at the minimal level before it is moved into place
func (g *Graph) Run(fn Func, to, in, out string) error {
	stage, err := fsutil.NewStage(out)
	if err != nil {
		return err
	}
	defer stage.Abort()
	if err := fn(in, stage.Dir); err != nil {
		return err
	}
	if g.registry != nil {
		if d, ok := g.registry.Dir(to); ok {
			if err := d.Validate(stage.Dir, format.Min); err != nil {
				return errors.Wrapf(err, "output is not a valid %v", to)
			}
		}
	}
	return stage.Commit(out)
}

// precondition is shorthand for the errors raised when an input cannot be transformed
func precondition(rule, msg string, args ...interface{}) error {
	return errs.New(errs.TransformPrecondition, rule, msg, args...)
}
