package format

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
)

// Mixin adds a cross-cutting rule to a directory format, it runs after the entries have been checked
type Mixin func(v *View) error

// DirValidateFunc is a directory-level validation hook
type DirValidateFunc func(v *View, level Level) error

// DirectoryFormat binds the files of a directory to file formats
type DirectoryFormat struct {
	name      string
	entries   []*Entry
	closed    bool
	prechecks []Mixin
	mixins    []Mixin
	validator DirValidateFunc
}

// NewDirectoryFormat is the constructor
func NewDirectoryFormat(name string, entries ...*Entry) *DirectoryFormat {
	return &DirectoryFormat{name: name, entries: entries}
}

// Closed makes files claimed by no entry an error
func (d *DirectoryFormat) Closed() *DirectoryFormat {
	d.closed = true
	return d
}

// WithMixin adds a mixin
func (d *DirectoryFormat) WithMixin(m Mixin) *DirectoryFormat {
	d.mixins = append(d.mixins, m)
	return d
}

// WithPrecheck adds a rule that runs before any entry is checked
func (d *DirectoryFormat) WithPrecheck(m Mixin) *DirectoryFormat {
	d.prechecks = append(d.prechecks, m)
	return d
}

// WithValidator sets the directory-level hook, it runs last
func (d *DirectoryFormat) WithValidator(fn DirValidateFunc) *DirectoryFormat {
	d.validator = fn
	return d
}

// Name returns the format name
func (d *DirectoryFormat) Name() string { return d.name }

// IsClosed reports the unrecognised-file policy
func (d *DirectoryFormat) IsClosed() bool { return d.closed }

// Entries returns the entries in declaration order
func (d *DirectoryFormat) Entries() []*Entry {
	return append([]*Entry(nil), d.entries...)
}

// Entry returns the named entry
func (d *DirectoryFormat) Entry(name string) (*Entry, bool) {
	for _, e := range d.entries {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

// MakePath evaluates the path-maker of a collection, or returns the path of a fixed entry
func (d *DirectoryFormat) MakePath(entry string, keys Keys) (string, error) {
	e, ok := d.Entry(entry)
	if !ok {
		return "", errors.Errorf("%v has no entry called %q", d.name, entry)
	}
	if !e.IsCollection() {
		return e.Path, nil
	}
	if e.PathMaker == nil {
		return "", errors.Errorf("entry %q of %v has no path maker", entry, d.name)
	}
	rel, err := e.PathMaker(keys)
	if err != nil {
		return "", err
	}
	if !e.Claims(rel) {
		return "", errors.Errorf("path maker for %q produced %q, which the entry does not claim", entry, rel)
	}
	return rel, nil
}

// Bind enumerates a directory and returns a view of it
func (d *DirectoryFormat) Bind(root string) (*View, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, errs.New(errs.Structural, "not a directory", "%v is not a directory", root).InFile(root)
	}
	v := &View{format: d, root: root}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		// ignore dot files
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			v.dirs = append(v.dirs, rel)
		} else {
			v.files = append(v.files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not enumerate %v", root)
	}
	sort.Strings(v.files)
	sort.Strings(v.dirs)
	return v, nil
}

// Validate binds the directory and validates it
func (d *DirectoryFormat) Validate(root string, level Level) error {
	v, err := d.Bind(root)
	if err != nil {
		return err
	}
	return v.Validate(level)
}

// View is a directory bound to a format
type View struct {
	format *DirectoryFormat
	root   string
	files  []string // relative, sorted, slash separated
	dirs   []string
}

// Root returns the bound directory
func (v *View) Root() string { return v.root }

// Format returns the directory format
func (v *View) Format() *DirectoryFormat { return v.format }

// Files returns every enumerated file
func (v *View) Files() []string { return append([]string(nil), v.files...) }

// Dirs returns every enumerated subdirectory
func (v *View) Dirs() []string { return append([]string(nil), v.dirs...) }

// TopLevel returns the names of the immediate children of the root
func (v *View) TopLevel() []string {
	var top []string
	for _, list := range [][]string{v.files, v.dirs} {
		for _, rel := range list {
			if !strings.Contains(rel, "/") {
				top = append(top, rel)
			}
		}
	}
	sort.Strings(top)
	return top
}

// Abs returns the absolute path of a relative member path
func (v *View) Abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

// Members returns the relative paths claimed by the named entry
func (v *View) Members(entry string) []string {
	e, ok := v.format.Entry(entry)
	if !ok {
		return nil
	}
	return v.claimed(e)
}

// File returns the absolute path of a fixed entry, and false if it is absent
func (v *View) File(entry string) (string, bool) {
	e, ok := v.format.Entry(entry)
	if !ok || e.IsCollection() {
		return "", false
	}
	if len(v.claimed(e)) == 0 {
		return "", false
	}
	return v.Abs(e.Path), true
}

// Unclaimed returns the files no entry claims
func (v *View) Unclaimed() []string {
	var out []string
	for _, rel := range v.files {
		if v.owner(rel) == nil {
			out = append(out, rel)
		}
	}
	return out
}

func (v *View) owner(rel string) *Entry {
	for _, e := range v.format.entries {
		if e.Claims(rel) {
			return e
		}
	}
	return nil
}

func (v *View) claimed(e *Entry) []string {
	var out []string
	for _, rel := range v.files {
		if e.Claims(rel) {
			out = append(out, rel)
		}
	}
	return out
}

// Validate runs the prechecks, the entries, the unrecognised-file policy, the mixins and the directory hook
func (v *View) Validate(level Level) error {
	for _, m := range v.format.prechecks {
		if err := m(v); err != nil {
			return errs.Locate(err, v.root)
		}
	}
	for _, e := range v.format.entries {
		members := v.claimed(e)
		if len(members) == 0 {
			if e.Optional {
				continue
			}
			if e.IsCollection() {
				return errs.New(errs.Structural, "missing files", "%v requires at least one file matching %s", v.format.name, e.Pattern).InFile(v.root).WithField(e.Name)
			}
			return errs.New(errs.Structural, "missing file", "%v requires the file %q", v.format.name, e.Path).InFile(v.root).WithField(e.Name)
		}
	}
	// members are checked in sorted path order, each by the first entry that claims it
	for _, rel := range v.files {
		e := v.owner(rel)
		if e == nil || e.Format == nil {
			continue
		}
		if err := e.Format.Validate(v.Abs(rel), level); err != nil {
			return errs.Locate(err, v.Abs(rel))
		}
	}
	if v.format.closed {
		if extra := v.Unclaimed(); len(extra) > 0 {
			return errs.New(errs.Structural, "unrecognized file", "%q is not part of %v", extra[0], v.format.name).InFile(v.Abs(extra[0])).With("files", extra)
		}
	}
	for _, m := range v.format.mixins {
		if err := m(v); err != nil {
			return errs.Locate(err, v.root)
		}
	}
	if v.format.validator != nil {
		return errs.Locate(v.format.validator(v, level), v.root)
	}
	return nil
}

// RequireSubdirs is the mixin for formats whose top level may hold only directories, plus the named files
func RequireSubdirs(allowedFiles ...string) Mixin {
	allowed := make(map[string]bool, len(allowedFiles))
	for _, f := range allowedFiles {
		allowed[f] = true
	}
	return func(v *View) error {
		for _, rel := range v.files {
			if !strings.Contains(rel, "/") && !allowed[rel] {
				return errs.New(errs.Structural, "not a directory", "%q is a file but %v keeps its files in per-sample subdirectories", rel, v.format.name).InFile(v.Abs(rel))
			}
		}
		return nil
	}
}

// ForbidSubdirs is the mixin for flat formats
func ForbidSubdirs() Mixin {
	return func(v *View) error {
		if len(v.dirs) > 0 {
			return errs.New(errs.Structural, "subdirectory", "%v does not allow subdirectories, found %q", v.format.name, v.dirs[0]).InFile(v.Abs(v.dirs[0]))
		}
		return nil
	}
}
