package format

import (
	"fmt"
	"sort"
)

// Validator is anything that can validate a path, file and directory formats both are
type Validator interface {
	Name() string
	Validate(path string, level Level) error
}

// Registry holds the file and directory formats by name. It is filled once, sealed, and only read afterwards so lookups take no lock
type Registry struct {
	files  map[string]FileFormat
	dirs   map[string]*DirectoryFormat
	sealed bool
}

// NewRegistry is the constructor
func NewRegistry() *Registry {
	return &Registry{
		files: make(map[string]FileFormat),
		dirs:  make(map[string]*DirectoryFormat),
	}
}

func (r *Registry) checkName(name string) {
	if r.sealed {
		panic(fmt.Sprintf("format registry is sealed, cannot register %q", name))
	}
	if _, ok := r.files[name]; ok {
		panic(fmt.Sprintf("format %q registered twice", name))
	}
	if _, ok := r.dirs[name]; ok {
		panic(fmt.Sprintf("format %q registered twice", name))
	}
}

// RegisterFile adds file formats, registering a name twice panics
func (r *Registry) RegisterFile(formats ...FileFormat) {
	for _, f := range formats {
		r.checkName(f.Name())
		r.files[f.Name()] = f
	}
}

// RegisterDir adds directory formats
func (r *Registry) RegisterDir(formats ...*DirectoryFormat) {
	for _, d := range formats {
		r.checkName(d.Name())
		r.dirs[d.Name()] = d
	}
}

// Seal makes the registry read-only
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports if Seal has been called
func (r *Registry) Sealed() bool {
	return r.sealed
}

// File returns a file format by name
func (r *Registry) File(name string) (FileFormat, bool) {
	f, ok := r.files[name]
	return f, ok
}

// Dir returns a directory format by name
func (r *Registry) Dir(name string) (*DirectoryFormat, bool) {
	d, ok := r.dirs[name]
	return d, ok
}

// Lookup returns a file or directory format by name
func (r *Registry) Lookup(name string) (Validator, bool) {
	if f, ok := r.File(name); ok {
		return f, true
	}
	if d, ok := r.Dir(name); ok {
		return d, true
	}
	return nil, false
}

// FileNames returns the sorted names of the file formats
func (r *Registry) FileNames() []string {
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirNames returns the sorted names of the directory formats
func (r *Registry) DirNames() []string {
	names := make([]string, 0, len(r.dirs))
	for name := range r.dirs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sniff returns the names of the file formats whose sniffers accept the file
func (r *Registry) Sniff(path string) []string {
	var hits []string
	for _, name := range r.FileNames() {
		f, _ := r.File(name)
		if s, ok := f.(Sniffer); ok && s.Sniff(path) {
			hits = append(hits, name)
		}
	}
	return hits
}
