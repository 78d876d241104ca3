// Package manifest parses and checks the sample manifests used to import FASTQ data
package manifest

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the directions a read file can have
const (
	Forward = "forward"
	Reverse = "reverse"
)

// the header cells of a V1 manifest
const (
	SampleIDHeader  = "sample-id"
	FilenameHeader  = "filename"
	AbsPathHeader   = "absolute-filepath"
	DirectionHeader = "direction"
)

// NoRecords is the message for a manifest holding nothing but comments and blank lines
const NoRecords = "No sample records found in manifest, only observed comments, blank lines, and/or a header row."

// PathKind says how the paths of a manifest are written
type PathKind int

// the path kinds
const (
	Absolute PathKind = iota
	Relative
)

func (k PathKind) header() string {
	if k == Relative {
		return FilenameHeader
	}
	return AbsPathHeader
}

// Layout is single-end, paired-end, or either (for manifests stored inside a directory)
type Layout int

// the layouts
const (
	SingleEnd Layout = iota
	PairedEnd
	AnyLayout
)

func (l Layout) String() string {
	switch l {
	case SingleEnd:
		return "single-end"
	case PairedEnd:
		return "paired-end"
	default:
		return "single- or paired-end"
	}
}

// Row is one sample file
type Row struct {
	SampleID  string
	Path      string // as resolved, absolute for absolute manifests and relative to the manifest otherwise
	Direction string
	Line      int
}

// Manifest is a parsed manifest, rows keep their file order
type Manifest struct {
	Path   string
	Paired bool
	Rows   []Row
}

// Pair holds the files of one sample, Reverse is empty for single-end data
type Pair struct {
	SampleID string
	Forward  string
	Reverse  string
}

// Samples returns the sample IDs in order of first appearance
func (m *Manifest) Samples() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range m.Rows {
		if !seen[r.SampleID] {
			seen[r.SampleID] = true
			ids = append(ids, r.SampleID)
		}
	}
	return ids
}

// Pairs groups the rows by sample, in order of first appearance. Single-end files are always Forward
func (m *Manifest) Pairs() []Pair {
	index := make(map[string]int)
	var pairs []Pair
	for _, r := range m.Rows {
		i, ok := index[r.SampleID]
		if !ok {
			i = len(pairs)
			index[r.SampleID] = i
			pairs = append(pairs, Pair{SampleID: r.SampleID})
		}
		if m.Paired && r.Direction == Reverse {
			pairs[i].Reverse = r.Path
		} else {
			pairs[i].Forward = r.Path
		}
	}
	return pairs
}

// Filter returns a manifest holding only the rows of the given samples
func (m *Manifest) Filter(samples []string) *Manifest {
	keep := make(map[string]bool, len(samples))
	for _, s := range samples {
		keep[s] = true
	}
	out := &Manifest{Path: m.Path, Paired: m.Paired}
	for _, r := range m.Rows {
		if keep[r.SampleID] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// readCSV returns the non-comment records of a CSV file with their line numbers
func readCSV(path string) ([][]string, []int, error) {
	fh, err := fsutil.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer fh.Close()
	br := bufio.NewReader(fh)
	fsutil.SkipBOM(br)
	r := csv.NewReader(br)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	var recs [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.Line
			}
			return nil, nil, errs.New(errs.ManifestShape, "csv", "Could not parse manifest: %v", err).At(line)
		}
		line, _ := r.FieldPos(0)
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		recs = append(recs, rec)
		lines = append(lines, line)
	}
	return recs, lines, nil
}

// ParseV1 reads a comma separated manifest with the header sample-id,<path column>,direction
func ParseV1(path string, layout Layout, kind PathKind) (*Manifest, error) {
	recs, lines, err := readCSV(path)
	if err != nil {
		return nil, errs.Locate(err, path)
	}
	want := []string{SampleIDHeader, kind.header(), DirectionHeader}
	if len(recs) == 0 {
		return nil, errs.New(errs.ManifestShape, "no records", NoRecords).InFile(path)
	}
	if !equalCells(recs[0], want) {
		return nil, errs.New(errs.ManifestShape, "header", "Expected manifest header %q, found %q.", strings.Join(want, ","), strings.Join(recs[0], ",")).At(lines[0]).InFile(path).With("expected", want)
	}
	if len(recs) == 1 {
		return nil, errs.New(errs.ManifestShape, "no records", NoRecords).InFile(path)
	}
	base := filepath.Dir(path)
	m := &Manifest{Path: path}
	usedBy := make(map[string]int)
	for i, rec := range recs[1:] {
		n := lines[i+1]
		if len(rec) != len(want) {
			return nil, errs.New(errs.ManifestShape, "column count", "Line %d has %d fields, expected %d.", n, len(rec), len(want)).At(n).InFile(path)
		}
		for j, cell := range rec {
			if cell == "" {
				return nil, errs.New(errs.ManifestShape, "empty cell", "Empty cell in the %q column on line %d.", want[j], n).At(n).WithField(want[j]).InFile(path)
			}
		}
		p, perr := resolve(rec[1], base, kind)
		if perr != nil {
			return nil, perr.At(n).WithField(want[1]).InFile(path)
		}
		if prior, dup := usedBy[filepath.Clean(p)]; dup {
			return nil, errs.New(errs.ManifestSemantics, "duplicate path", "%q on line %d is already used on line %d.", p, n, prior).At(n).Prior(prior).WithField(want[1]).InFile(path)
		}
		usedBy[filepath.Clean(p)] = n
		dir := rec[2]
		if dir != Forward && dir != Reverse {
			return nil, errs.New(errs.ManifestSemantics, "direction", "Direction %q on line %d is not supported, it must be %q or %q.", dir, n, Forward, Reverse).At(n).WithField(DirectionHeader).InFile(path)
		}
		m.Rows = append(m.Rows, Row{SampleID: rec[0], Path: p, Direction: dir, Line: n})
	}
	if err := m.check(layout); err != nil {
		return nil, errs.Locate(err, path)
	}
	return m, nil
}

// resolve expands environment variables and checks the path kind and existence
func resolve(raw, base string, kind PathKind) (string, *errs.Error) {
	p := os.ExpandEnv(raw)
	if kind == Absolute && !filepath.IsAbs(p) {
		return "", errs.New(errs.ManifestShape, "path type", "%q is not an absolute filepath.", p).With("path", p)
	}
	if kind == Relative && filepath.IsAbs(p) {
		return "", errs.New(errs.ManifestShape, "path type", "%q is an absolute filepath, only relative filepaths are allowed.", p).With("path", p)
	}
	check := p
	if kind == Relative {
		check = filepath.Join(base, filepath.FromSlash(p))
	}
	if err := fsutil.CheckFile(check); err != nil {
		return "", errs.New(errs.ManifestSemantics, "missing file", "%q does not exist or is not a regular file.", p).With("path", p)
	}
	return p, nil
}

// check applies the cross-row rules of the layout
func (m *Manifest) check(layout Layout) error {
	if layout == AnyLayout {
		layout = SingleEnd
		for _, r := range m.Rows {
			if r.Direction == Reverse {
				layout = PairedEnd
				break
			}
		}
	}
	m.Paired = layout == PairedEnd
	seen := make(map[string]int)
	if !m.Paired {
		first := m.Rows[0]
		for _, r := range m.Rows {
			if r.Direction != first.Direction {
				return errs.New(errs.ManifestSemantics, "direction", "Single-end manifests must use one direction, line %d is %q but line %d is %q.", r.Line, r.Direction, first.Line, first.Direction).At(r.Line).Prior(first.Line).WithField(DirectionHeader)
			}
			if prior, dup := seen[r.SampleID]; dup {
				return errs.New(errs.ManifestSemantics, "duplicate sample", "Sample %q on line %d is a duplicate of line %d.", r.SampleID, r.Line, prior).At(r.Line).Prior(prior).WithField(SampleIDHeader).With("sample", r.SampleID)
			}
			seen[r.SampleID] = r.Line
		}
		return nil
	}
	forward := make(map[string]bool)
	reverse := make(map[string]bool)
	for _, r := range m.Rows {
		key := r.SampleID + "\x00" + r.Direction
		if prior, dup := seen[key]; dup {
			return errs.New(errs.ManifestSemantics, "duplicate sample", "Sample %q has more than one %v read, on lines %d and %d.", r.SampleID, r.Direction, prior, r.Line).At(r.Line).Prior(prior).WithField(SampleIDHeader).With("sample", r.SampleID)
		}
		seen[key] = r.Line
		if r.Direction == Forward {
			forward[r.SampleID] = true
		} else {
			reverse[r.SampleID] = true
		}
	}
	onlyForward, onlyReverse := difference(forward, reverse), difference(reverse, forward)
	if len(onlyForward) > 0 || len(onlyReverse) > 0 {
		return errs.New(errs.ManifestSemantics, "missing pair", "Every sample needs a forward and a reverse read. Only forward: %v. Only reverse: %v.", onlyForward, onlyReverse).With("only_forward", onlyForward).With("only_reverse", onlyReverse)
	}
	return nil
}

// WriteV1 writes the manifest as CSV, paths are written as held
func (m *Manifest) WriteV1(path string, kind PathKind) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("refusing to overwrite %v", path)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(fh)
	w.Write([]string{SampleIDHeader, kind.header(), DirectionHeader})
	for _, r := range m.Rows {
		w.Write([]string{r.SampleID, r.Path, r.Direction})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fh.Close()
		return errors.Wrapf(err, "could not write manifest %v", path)
	}
	return fh.Close()
}

func equalCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// difference returns the sorted members of a that are not in b
func difference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
