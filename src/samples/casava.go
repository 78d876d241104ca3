// Package samples holds the per-sample directory formats: Casava uploads, single-lane-per-sample read collections and MAG collections
package samples

import (
	"fmt"
	"path"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/manifest"
)

// the Casava 1.8 filename patterns, unanchored as the directory formats anchor them
const (
	casavaPattern   = `.+_.+_L[0-9][0-9][0-9]_R[12]_001\.fastq\.gz`
	lanelessPattern = `.+_.+_R[12]_001\.fastq\.gz`
)

var (
	casavaRE   = regexp.MustCompile(`^(?P<sample>.+)_(?P<barcode>.+)_L(?P<lane>\d{3})_R(?P<read>[12])_001\.fastq\.gz$`)
	lanelessRE = regexp.MustCompile(`^(?P<sample>.+)_(?P<barcode>.+)_R(?P<read>[12])_001\.fastq\.gz$`)
)

// CasavaName is a parsed Casava 1.8 filename
type CasavaName struct {
	Sample   string
	Barcode  string
	Lane     int
	Read     int
	Laneless bool
}

// ParseCasava parses {sample}_{barcode}_L{lane}_R{read}_001.fastq.gz
func ParseCasava(name string) (CasavaName, bool) {
	m := casavaRE.FindStringSubmatch(path.Base(name))
	if m == nil {
		return CasavaName{}, false
	}
	lane, _ := strconv.Atoi(m[casavaRE.SubexpIndex("lane")])
	read, _ := strconv.Atoi(m[casavaRE.SubexpIndex("read")])
	return CasavaName{Sample: m[1], Barcode: m[2], Lane: lane, Read: read}, true
}

// ParseLaneless parses {sample}_{barcode}_R{read}_001.fastq.gz
func ParseLaneless(name string) (CasavaName, bool) {
	m := lanelessRE.FindStringSubmatch(path.Base(name))
	if m == nil {
		return CasavaName{}, false
	}
	read, _ := strconv.Atoi(m[lanelessRE.SubexpIndex("read")])
	return CasavaName{Sample: m[1], Barcode: m[2], Lane: 1, Read: read, Laneless: true}, true
}

// Direction returns forward for R1 and reverse for R2
func (c CasavaName) Direction() string {
	if c.Read == 2 {
		return manifest.Reverse
	}
	return manifest.Forward
}

// String returns the canonical laned filename
func (c CasavaName) String() string {
	return fmt.Sprintf("%s_%s_L%03d_R%d_001.fastq.gz", c.Sample, c.Barcode, c.Lane, c.Read)
}

// CasavaPath is the path maker for per-sample reads, the keys are sample, barcode, lane and read
func CasavaPath(k format.Keys) (string, error) {
	lane := 1
	if l, ok := k["lane"]; ok {
		n, err := strconv.Atoi(l)
		if err != nil {
			return "", errors.Wrapf(err, "bad lane %q", l)
		}
		lane = n
	}
	read, err := strconv.Atoi(k["read"])
	if err != nil || (read != 1 && read != 2) {
		return "", errors.Errorf("read must be 1 or 2, not %q", k["read"])
	}
	if k["sample"] == "" || k["barcode"] == "" {
		return "", errors.New("sample and barcode keys are required")
	}
	return CasavaName{Sample: k["sample"], Barcode: k["barcode"], Lane: lane, Read: read}.String(), nil
}

// the Casava directory formats
var (
	CasavaOneEightSingleLanePerSampleDirFmt = format.NewDirectoryFormat("CasavaOneEightSingleLanePerSampleDirFmt",
		format.Collection("sequences", casavaPattern, fastq.FastqGzFormat).WithPathMaker(CasavaPath)).
		WithPrecheck(format.ForbidSubdirs()).
		WithValidator(checkPairs(ParseCasava))

	CasavaOneEightLanelessPerSampleDirFmt = format.NewDirectoryFormat("CasavaOneEightLanelessPerSampleDirFmt",
		format.Collection("sequences", lanelessPattern, fastq.FastqGzFormat)).
		WithPrecheck(format.ForbidSubdirs()).
		WithValidator(checkPairs(ParseLaneless))
)

// CasavaFile is a member of a Casava directory
type CasavaFile struct {
	Name CasavaName
	Path string // absolute
}

// CasavaFiles returns the parsed members of a bound Casava directory in path order
func CasavaFiles(v *format.View) []CasavaFile {
	parse := ParseCasava
	if v.Format() == CasavaOneEightLanelessPerSampleDirFmt {
		parse = ParseLaneless
	}
	var out []CasavaFile
	for _, rel := range v.Members("sequences") {
		if name, ok := parse(rel); ok {
			out = append(out, CasavaFile{Name: name, Path: v.Abs(rel)})
		}
	}
	return out
}

// checkPairs rejects duplicate sample IDs per read and unpaired samples when both reads are present
func checkPairs(parse func(string) (CasavaName, bool)) format.DirValidateFunc {
	return func(v *format.View, level format.Level) error {
		reads := [3]map[string]string{nil, make(map[string]string), make(map[string]string)}
		for _, rel := range v.Members("sequences") {
			name, ok := parse(rel)
			if !ok {
				continue
			}
			if prior, dup := reads[name.Read][name.Sample]; dup {
				return errs.New(errs.Structural, "duplicate sample", "Sample %q has more than one R%d file: %q and %q.", name.Sample, name.Read, prior, rel).InFile(v.Abs(rel)).With("sample", name.Sample)
			}
			reads[name.Read][name.Sample] = rel
		}
		forward, reverse := reads[1], reads[2]
		if len(forward) == 0 || len(reverse) == 0 {
			return nil
		}
		onlyForward, onlyReverse := missing(forward, reverse), missing(reverse, forward)
		if len(onlyForward) > 0 || len(onlyReverse) > 0 {
			return errs.New(errs.Structural, "pair mismatch", "Forward and reverse reads do not match. Only forward: %v. Only reverse: %v.", onlyForward, onlyReverse).With("only_forward", onlyForward).With("only_reverse", onlyReverse)
		}
		return nil
	}
}
