// Package format holds the file-format and directory-format descriptors that every validator in q2types is built from
package format

import (
	"strings"

	"github.com/pkg/errors"
)

// Level controls how much of a file a validator inspects
type Level int

const (
	// Min inspects a bounded prefix of the file
	Min Level = iota
	// Max inspects the whole file
	Max
)

// the bounds used at Min level
const (
	MinLines   = 100
	MinRecords = 5
)

// ParseLevel converts "min" or "max" to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	}
	return Min, errors.Errorf("unknown validation level %q (use min or max)", s)
}

func (l Level) String() string {
	if l == Max {
		return "max"
	}
	return "min"
}

// Lines returns the number of lines a text validator may read at this level, 0 means unlimited
func (l Level) Lines() int {
	if l == Max {
		return 0
	}
	return MinLines
}

// Records returns the number of records a record-oriented validator may read at this level, 0 means unlimited
func (l Level) Records() int {
	if l == Max {
		return 0
	}
	return MinRecords
}

// Medium is the kind of content a file format holds
type Medium int

// the two media
const (
	Text Medium = iota
	Binary
)

func (m Medium) String() string {
	if m == Binary {
		return "binary"
	}
	return "text"
}
