// Package gff validates GFF3 files and streams their features
package gff

import (
	"strconv"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the directive prefixes
const (
	officialPrefix   = "##"
	unofficialPrefix = "#!"
	fastaDirective   = "FASTA"
	versionDirective = "gff-version"
)

// GFF3Format is the generic feature format, version 3
var GFF3Format = format.NewTextFormat("GFF3Format", validate)

// LociDirectoryFormat is a directory of GFF3 files, one per genome
var LociDirectoryFormat = format.NewDirectoryFormat("LociDirectoryFormat",
	format.Collection("loci", `.+\.gff`, GFF3Format).WithPathMaker(func(k format.Keys) (string, error) {
		return k["genome_id"] + ".gff", nil
	}))

// Feature is one GFF3 feature line, coordinates are 1-based and inclusive
type Feature struct {
	SeqID      string
	Source     string
	Type       string
	Start      int
	End        int
	Score      string // "." when absent
	Strand     byte
	Phase      string
	Attributes map[string]string
	Line       int
}

// Directives holds the official (##) and unofficial (#!) directives seen in a file
type Directives struct {
	Official   map[string]string
	Unofficial map[string]string
}

func newDirectives() *Directives {
	return &Directives{Official: make(map[string]string), Unofficial: make(map[string]string)}
}

// add parses a directive line, it returns true for ##FASTA
func (d *Directives) add(line string) bool {
	table := d.Official
	prefix := officialPrefix
	if strings.HasPrefix(line, unofficialPrefix) {
		table = d.Unofficial
		prefix = unofficialPrefix
	}
	body := strings.TrimSpace(line[len(prefix):])
	name, value := body, ""
	if i := strings.IndexAny(body, " \t"); i >= 0 {
		name, value = body[:i], strings.TrimSpace(body[i+1:])
	}
	if prefix == officialPrefix && name == fastaDirective {
		return true
	}
	if _, seen := table[name]; !seen {
		table[name] = value
	}
	return false
}

// checkVersion is called before the first feature
func (d *Directives) checkVersion(n int) error {
	v, ok := d.Official[versionDirective]
	if !ok {
		return errs.New(errs.Structural, "missing gff-version directive", "The gff-version directive must appear before the first feature (line %d).", n).At(n)
	}
	if !strings.HasPrefix(v, "3") {
		return errs.New(errs.Structural, "unsupported gff version", "Only GFF version 3 is supported, found version %q.", v).At(n).With("found", v)
	}
	return nil
}

func isDirective(line string) bool {
	return strings.HasPrefix(line, officialPrefix) || strings.HasPrefix(line, unofficialPrefix)
}

// parseFeature checks and parses a feature line
func parseFeature(line string, n int) (Feature, error) {
	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	if len(fields) != 9 {
		return Feature{}, errs.New(errs.Structural, "field count", "Line %d has %d tab-separated fields, GFF3 features have 9.", n, len(fields)).At(n).With("found", len(fields))
	}
	for i, f := range fields {
		if f == "" {
			return Feature{}, errs.New(errs.Content, "empty field", "Field %d on line %d is empty, use '.' for missing values.", i+1, n).At(n).Col(i + 1)
		}
	}
	if strings.HasPrefix(fields[0], ">") {
		return Feature{}, errs.New(errs.Content, "landmark", "The landmark ID on line %d may not begin with an unescaped '>'.", n).At(n).Col(1)
	}
	start, err := strconv.Atoi(fields[3])
	if err != nil {
		return Feature{}, errs.New(errs.Content, "coordinates", "Start coordinate %q on line %d is not an integer.", fields[3], n).At(n).Col(4)
	}
	end, err := strconv.Atoi(fields[4])
	if err != nil {
		return Feature{}, errs.New(errs.Content, "coordinates", "End coordinate %q on line %d is not an integer.", fields[4], n).At(n).Col(5)
	}
	if start <= 0 || end <= 0 {
		return Feature{}, errs.New(errs.Content, "coordinates", "Coordinates on line %d must be positive, found %d and %d.", n, start, end).At(n).Col(4)
	}
	if start > end {
		return Feature{}, errs.New(errs.Content, "coordinates", "Start %d on line %d is greater than end %d.", start, n, end).At(n).Col(4)
	}
	if fields[5] != "." {
		if _, err := strconv.ParseFloat(fields[5], 64); err != nil {
			return Feature{}, errs.New(errs.Content, "score", "Score %q on line %d is neither '.' nor a number.", fields[5], n).At(n).Col(6)
		}
	}
	if len(fields[6]) != 1 || !strings.Contains("+-?.", fields[6]) {
		return Feature{}, errs.New(errs.Content, "strand", "Strand %q on line %d must be one of +, -, ? or '.'.", fields[6], n).At(n).Col(7)
	}
	if fields[2] == "CDS" && fields[7] != "0" && fields[7] != "1" && fields[7] != "2" {
		return Feature{}, errs.New(errs.Content, "phase", "CDS feature on line %d has phase %q, it must be 0, 1 or 2.", n, fields[7]).At(n).Col(8)
	}
	return Feature{
		SeqID:      fields[0],
		Source:     fields[1],
		Type:       fields[2],
		Start:      start,
		End:        end,
		Score:      fields[5],
		Strand:     fields[6][0],
		Phase:      fields[7],
		Attributes: parseAttributes(fields[8]),
		Line:       n,
	}, nil
}

// parseAttributes splits the ninth column into tag=value pairs
func parseAttributes(col string) map[string]string {
	attrs := make(map[string]string)
	if col == "." {
		return attrs
	}
	for _, pair := range strings.Split(col, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if i := strings.Index(pair, "="); i >= 0 {
			attrs[pair[:i]] = pair[i+1:]
		} else {
			attrs[pair] = ""
		}
	}
	return attrs
}

// scan walks the file calling fn for each feature, stopping at ##FASTA
func scan(path string, limit int, fn func(Feature) error) (*Directives, error) {
	dirs := newDirectives()
	checked := false
	err := format.ScanLines(path, limit, func(lr *fsutil.LineReader) error {
		line := lr.Text()
		n := lr.Line()
		switch {
		case isDirective(line):
			if dirs.add(line) {
				return format.Stop
			}
			return nil
		case strings.HasPrefix(line, "#"), strings.TrimSpace(line) == "":
			return nil
		}
		if !checked {
			if err := dirs.checkVersion(n); err != nil {
				return err
			}
			checked = true
		}
		f, err := parseFeature(line, n)
		if err != nil {
			return err
		}
		return fn(f)
	})
	if err != nil {
		return nil, err
	}
	if !checked && len(dirs.Official) > 0 {
		if err := dirs.checkVersion(1); err != nil {
			return nil, err
		}
	}
	return dirs, nil
}

func validate(path string, level format.Level) error {
	_, err := scan(path, level.Lines(), func(Feature) error { return nil })
	return err
}

// ReadFile returns the directives and features of a GFF3 file
func ReadFile(path string) (*Directives, []Feature, error) {
	var feats []Feature
	dirs, err := scan(path, 0, func(f Feature) error {
		feats = append(feats, f)
		return nil
	})
	if err != nil {
		return nil, nil, errs.Locate(err, path)
	}
	return dirs, feats, nil
}
