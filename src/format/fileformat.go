package format

import (
	"github.com/will-rowe/q2types/src/errs"
)

// FileFormat is a validator for a single file
type FileFormat interface {
	Name() string
	Medium() Medium
	Validate(path string, level Level) error
}

// Sniffer is implemented by formats that can guess if a file is theirs from a bounded prefix
type Sniffer interface {
	Sniff(path string) bool
}

// ValidateFunc checks a single file
type ValidateFunc func(path string, level Level) error

// SniffFunc guesses if a file is of a format
type SniffFunc func(path string) bool

// File is a FileFormat assembled from functions
type File struct {
	name     string
	medium   Medium
	validate ValidateFunc
	sniff    SniffFunc
}

// NewTextFormat returns a text FileFormat
func NewTextFormat(name string, validate ValidateFunc) *File {
	return &File{name: name, medium: Text, validate: validate}
}

// NewBinaryFormat returns a binary FileFormat
func NewBinaryFormat(name string, validate ValidateFunc) *File {
	return &File{name: name, medium: Binary, validate: validate}
}

// Opaque returns a format whose file-level validation always passes, for formats only the directory layout can check
func Opaque(name string, medium Medium) *File {
	return &File{name: name, medium: medium}
}

// WithSniffer attaches a sniffer to the format
func (f *File) WithSniffer(sniff SniffFunc) *File {
	f.sniff = sniff
	return f
}

// Name returns the format name
func (f *File) Name() string { return f.name }

// Medium returns text or binary
func (f *File) Medium() Medium { return f.medium }

// Validate runs the validator, attaching the path to any error it returns
func (f *File) Validate(path string, level Level) error {
	if f.validate == nil {
		return nil
	}
	return errs.Locate(f.validate(path, level), path)
}

// Sniff returns false when the format has no sniffer
func (f *File) Sniff(path string) bool {
	if f.sniff == nil {
		return false
	}
	return f.sniff(path)
}

// CanSniff reports if a sniffer is attached
func (f *File) CanSniff() bool {
	return f.sniff != nil
}
