// Package metadata loads QIIME 2 metadata TSV files: an ID column, named columns and an optional #q2:types row
package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// ColumnType is the declared or inferred type of a column
type ColumnType int

// the column types
const (
	Categorical ColumnType = iota
	Numeric
)

func (c ColumnType) String() string {
	if c == Numeric {
		return "numeric"
	}
	return "categorical"
}

// idHeaders are the recognised names of the ID column, compared case-insensitively
var idHeaders = map[string]bool{
	"id": true, "sampleid": true, "sample id": true, "sample-id": true,
	"featureid": true, "feature id": true, "feature-id": true,
	"#sampleid": true, "#sample id": true, "#featureid": true, "#feature id": true,
	"#otuid": true, "#otu id": true, "sample_name": true,
}

// FileError is returned for any problem with the metadata file itself
type FileError struct {
	Path    string
	Line    int
	Column  string
	Message string
}

func (e *FileError) Error() string {
	var b strings.Builder
	b.WriteString("metadata file")
	if e.Path != "" {
		fmt.Fprintf(&b, " %v", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ", line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Metadata is a loaded metadata table
type Metadata struct {
	IDHeader string
	Columns  []string
	Types    []ColumnType
	IDs      []string
	Lines    []int // source line of each row
	rows     [][]string
	index    map[string]int
	colIndex map[string]int
}

// Load reads and checks a metadata TSV
func Load(path string) (*Metadata, error) {
	md := &Metadata{index: make(map[string]int), colIndex: make(map[string]int)}
	var declared []string
	headerSeen := false
	fail := func(line int, msg string, args ...interface{}) error {
		return &FileError{Path: path, Line: line, Message: fmt.Sprintf(msg, args...)}
	}
	err := format.ScanLines(path, 0, func(lr *fsutil.LineReader) error {
		n := lr.Line()
		text := strings.TrimRight(lr.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			return nil
		}
		cells := strings.Split(text, "\t")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if !headerSeen {
			if isComment(cells[0]) && !idHeaders[strings.ToLower(cells[0])] {
				return nil
			}
			if !idHeaders[strings.ToLower(cells[0])] {
				return fail(n, "unrecognized ID column name %q, it must be one of the QIIME 2 ID headers such as 'sample-id' or 'id'", cells[0])
			}
			md.IDHeader = cells[0]
			for _, c := range cells[1:] {
				if c == "" {
					return fail(n, "column names may not be empty")
				}
				if _, dup := md.colIndex[c]; dup {
					return fail(n, "column name %q appears more than once", c)
				}
				if idHeaders[strings.ToLower(c)] {
					return fail(n, "column name %q conflicts with a name reserved for the ID column", c)
				}
				md.colIndex[c] = len(md.Columns)
				md.Columns = append(md.Columns, c)
			}
			headerSeen = true
			return nil
		}
		if strings.ToLower(cells[0]) == "#q2:types" {
			if len(md.IDs) > 0 || declared != nil {
				return fail(n, "the #q2:types directive must directly follow the header")
			}
			declared = make([]string, len(md.Columns))
			for i := range md.Columns {
				if i+1 < len(cells) {
					declared[i] = strings.ToLower(cells[i+1])
				}
			}
			return nil
		}
		if isComment(cells[0]) {
			return nil
		}
		if len(cells) > len(md.Columns)+1 {
			return fail(n, "row has %d cells but the header has %d", len(cells), len(md.Columns)+1)
		}
		id := cells[0]
		if id == "" {
			return fail(n, "empty ID")
		}
		if prior, dup := md.index[id]; dup {
			return fail(n, "ID %q is a duplicate of the ID on line %d", id, md.Lines[prior])
		}
		row := make([]string, len(md.Columns))
		copy(row, cells[1:])
		md.index[id] = len(md.IDs)
		md.IDs = append(md.IDs, id)
		md.Lines = append(md.Lines, n)
		md.rows = append(md.rows, row)
		return nil
	})
	if err != nil {
		if _, ok := err.(*FileError); ok {
			return nil, err
		}
		return nil, &FileError{Path: path, Message: err.Error()}
	}
	if !headerSeen {
		return nil, fail(0, "no header row found")
	}
	if err := md.resolveTypes(path, declared); err != nil {
		return nil, err
	}
	return md, nil
}

func isComment(cell string) bool {
	return strings.HasPrefix(cell, "#")
}

// resolveTypes applies the declared column types, or infers numeric columns
func (md *Metadata) resolveTypes(path string, declared []string) error {
	md.Types = make([]ColumnType, len(md.Columns))
	for i, col := range md.Columns {
		decl := ""
		if declared != nil {
			decl = declared[i]
		}
		switch decl {
		case "categorical":
			md.Types[i] = Categorical
		case "numeric":
			for r, row := range md.rows {
				if row[i] == "" {
					continue
				}
				if _, err := strconv.ParseFloat(row[i], 64); err != nil {
					return &FileError{Path: path, Line: md.Lines[r], Column: col, Message: fmt.Sprintf("cannot convert %q to a number in numeric column %q", row[i], col)}
				}
			}
			md.Types[i] = Numeric
		case "":
			md.Types[i] = inferType(md.rows, i)
		default:
			return &FileError{Path: path, Column: col, Message: fmt.Sprintf("column %q has unrecognized type %q, use categorical or numeric", col, decl)}
		}
	}
	return nil
}

func inferType(rows [][]string, i int) ColumnType {
	seen := false
	for _, row := range rows {
		if row[i] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(row[i], 64); err != nil {
			return Categorical
		}
		seen = true
	}
	if !seen {
		return Categorical
	}
	return Numeric
}

// Len returns the number of rows
func (md *Metadata) Len() int {
	return len(md.IDs)
}

// HasColumn reports if the column exists
func (md *Metadata) HasColumn(name string) bool {
	_, ok := md.colIndex[name]
	return ok
}

// Type returns the type of a column
func (md *Metadata) Type(name string) (ColumnType, bool) {
	i, ok := md.colIndex[name]
	if !ok {
		return Categorical, false
	}
	return md.Types[i], true
}

// Column returns the values of a column in row order
func (md *Metadata) Column(name string) ([]string, bool) {
	i, ok := md.colIndex[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(md.rows))
	for r, row := range md.rows {
		out[r] = row[i]
	}
	return out, true
}

// Get returns the value for an ID and column
func (md *Metadata) Get(id, column string) (string, bool) {
	r, ok := md.index[id]
	if !ok {
		return "", false
	}
	i, ok := md.colIndex[column]
	if !ok {
		return "", false
	}
	return md.rows[r][i], true
}

// Row returns a copy of the values of the r-th row
func (md *Metadata) Row(r int) []string {
	return append([]string(nil), md.rows[r]...)
}

// Float returns a numeric cell, false when the cell is empty or the column is missing
func (md *Metadata) Float(id, column string) (float64, bool) {
	v, ok := md.Get(id, column)
	if !ok || v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
