// Package tabular contains the validators for the tab-separated tool outputs: Kraken2 reports and outputs, BLAST-6 hits, differentials and Procrustes statistics
package tabular

import (
	"strconv"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// dtype is the type a column must parse as
type dtype int

const (
	str dtype = iota
	integer
	float
)

func (d dtype) String() string {
	switch d {
	case integer:
		return "int"
	case float:
		return "float"
	}
	return "str"
}

type column struct {
	name string
	typ  dtype
}

// checkCell returns a Content error naming the column if the cell does not parse
func checkCell(cell string, col column, n, pos int) error {
	var err error
	switch col.typ {
	case integer:
		_, err = strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	case float:
		_, err = strconv.ParseFloat(strings.TrimSpace(cell), 64)
	}
	if err != nil {
		return errs.New(errs.Content, "column type", "Value %q in column %q on line %d is not of type %s.", cell, col.name, n, col.typ).
			At(n).Col(pos).WithField(col.name)
	}
	return nil
}

// checkRow checks the number of cells and their types
func checkRow(cells []string, cols []column, n int, what string) error {
	if len(cells) != len(cols) {
		return errs.New(errs.Structural, "column count", "Expected %d columns in the %s but found %d on line %d.", len(cols), what, len(cells), n).
			At(n).With("expected", len(cols)).With("found", len(cells))
	}
	for i, col := range cols {
		if err := checkCell(cells[i], col, n, i+1); err != nil {
			return err
		}
	}
	return nil
}

// scanRows calls fn with the tab-split cells of each non-blank line, it fails on files with no rows
func scanRows(path string, level format.Level, what string, fn func(cells []string, n int) error) error {
	rows := 0
	err := format.ScanLines(path, level.Lines(), func(lr *fsutil.LineReader) error {
		if strings.TrimSpace(lr.Text()) == "" {
			return nil
		}
		rows++
		return fn(strings.Split(lr.Text(), "\t"), lr.Line())
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return errs.New(errs.Structural, "no data", "The %s is empty.", what)
	}
	return nil
}
