package format

import (
	"regexp"
)

// Keys are the named values a path-maker turns into a relative path
type Keys map[string]string

// PathMaker computes the relative path of a collection member from its keys
type PathMaker func(keys Keys) (string, error)

// Entry is one file (fixed) or set of files (collection) in a directory format
type Entry struct {
	Name      string
	Path      string         // set for fixed entries
	Pattern   *regexp.Regexp // set for collections, matched against the whole relative path
	Exclude   *regexp.Regexp // paths matching Pattern and Exclude are not claimed
	Format    FileFormat
	Optional  bool
	PathMaker PathMaker
}

// FixedFile declares a file at an exact relative path
func FixedFile(name, path string, f FileFormat) *Entry {
	return &Entry{Name: name, Path: path, Format: f}
}

// Collection declares the files whose relative paths match pattern, the pattern is anchored at both ends
func Collection(name, pattern string, f FileFormat) *Entry {
	return &Entry{Name: name, Pattern: anchor(pattern), Format: f}
}

// AsOptional marks the entry as not required
func (e *Entry) AsOptional() *Entry {
	e.Optional = true
	return e
}

// Excluding sets a pattern that removes paths from the collection, Go regexps have no lookbehind so this stands in for it
func (e *Entry) Excluding(pattern string) *Entry {
	e.Exclude = anchor(pattern)
	return e
}

// WithPathMaker sets the function used to name new members when writing
func (e *Entry) WithPathMaker(pm PathMaker) *Entry {
	e.PathMaker = pm
	return e
}

// IsCollection reports if the entry is regex based
func (e *Entry) IsCollection() bool {
	return e.Pattern != nil
}

// Claims reports if the relative path belongs to this entry
func (e *Entry) Claims(rel string) bool {
	if !e.IsCollection() {
		return rel == e.Path
	}
	if !e.Pattern.MatchString(rel) {
		return false
	}
	return e.Exclude == nil || !e.Exclude.MatchString(rel)
}

func anchor(pattern string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:` + pattern + `)$`)
}
