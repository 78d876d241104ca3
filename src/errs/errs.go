// Package errs contains the typed errors returned by the validators, the manifest engine and the transformers
package errs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the machine-readable class of an Error
type Kind int

// the error taxonomy
const (
	Structural Kind = iota
	Content
	Encoding
	External
	ManifestShape
	ManifestSemantics
	TransformPrecondition
	TransformData
)

var kindNames = map[Kind]string{
	Structural:            "Validation.Structural",
	Content:               "Validation.Content",
	Encoding:              "Validation.Encoding",
	External:              "Validation.External",
	ManifestShape:         "Manifest.Shape",
	ManifestSemantics:     "Manifest.Semantics",
	TransformPrecondition: "Transform.Precondition",
	TransformData:         "Transform.Data",
}

// String returns the dotted name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsValidation reports if the kind belongs to the Validation family
func (k Kind) IsValidation() bool {
	return k <= External
}

// Error is a single, located failure
type Error struct {
	Kind      Kind
	Rule      string // short name of the rule that fired, e.g. "duplicate id"
	Path      string
	Line      int // 1-based, 0 when not applicable
	Column    int // 1-based, 0 when not applicable
	PriorLine int // the earlier line of a cross-line violation
	Field     string
	Detail    string // human readable sentence
	Attrs     map[string]interface{}
}

// New returns an Error of the given kind and rule, with a formatted detail sentence
func New(kind Kind, rule string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// Error satisfies the error interface
func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ", column %d", e.Column)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Detail)
	fmt.Fprintf(&b, " [%s: %s]", e.Kind, e.Rule)
	return b.String()
}

// At sets the line number
func (e *Error) At(line int) *Error {
	e.Line = line
	return e
}

// Col sets the column number
func (e *Error) Col(column int) *Error {
	e.Column = column
	return e
}

// Prior sets the line of the earlier, conflicting record
func (e *Error) Prior(line int) *Error {
	e.PriorLine = line
	return e
}

// InFile sets the path of the offending file, unless one is already set
func (e *Error) InFile(path string) *Error {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// WithField names the offending field
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// With attaches a machine-readable attribute
func (e *Error) With(key string, value interface{}) *Error {
	if e.Attrs == nil {
		e.Attrs = make(map[string]interface{})
	}
	e.Attrs[key] = value
	return e
}

// AttrKeys returns the attribute keys in sorted order
func (e *Error) AttrKeys() []string {
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// As returns the *Error at the root of err, looking through pkg/errors wrapping
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		cause := errors.Cause(err)
		if cause != err {
			err = cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// KindOf returns the kind of err, if it is (or wraps) an *Error
func KindOf(err error) (Kind, bool) {
	e, ok := As(err)
	if !ok {
		return 0, false
	}
	return e.Kind, true
}

// Is reports whether err is an *Error of the given kind
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Locate sets the path on err if it is an *Error, otherwise it wraps err with the path
func Locate(err error, path string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e.InFile(path)
	}
	return errors.Wrap(err, path)
}
