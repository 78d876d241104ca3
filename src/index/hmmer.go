package index

import (
	"sort"
	"strconv"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the binary files written by hmmpress
var pressedSuffixes = []string{".h3m", ".h3i", ".h3f", ".h3p"}

// HmmerPressedFileFormat is opaque, hmmpress output is only checked as a set
var HmmerPressedFileFormat = format.Opaque("HmmerPressedFileFormat", format.Binary)

// HmmerPressedDirFmt holds one or more pressed HMM databases, each a complete quartet
var HmmerPressedDirFmt = newPressedDirFmt()

func newPressedDirFmt() *format.DirectoryFormat {
	var entries []*format.Entry
	for _, s := range pressedSuffixes {
		entries = append(entries, format.Collection(s[1:], `[^/]+\`+s, HmmerPressedFileFormat))
	}
	return format.NewDirectoryFormat("HmmerPressedDirFmt", entries...).WithValidator(checkQuartets)
}

func checkQuartets(v *format.View, level format.Level) error {
	have := make(map[string]map[string]bool)
	for _, s := range pressedSuffixes {
		for _, rel := range v.Members(s[1:]) {
			base := strings.TrimSuffix(rel, s)
			if have[base] == nil {
				have[base] = make(map[string]bool)
			}
			have[base][s] = true
		}
	}
	var bases []string
	for b := range have {
		bases = append(bases, b)
	}
	sort.Strings(bases)
	for _, b := range bases {
		for _, s := range pressedSuffixes {
			if !have[b][s] {
				return errs.New(errs.Structural, "incomplete index", "The pressed database %q has no %v file.", b, s).With("basename", b).With("missing", s)
			}
		}
	}
	return nil
}

// the HMM alphabets HMMER3 writes
var hmmAlphabets = map[string]bool{"amino": true, "DNA": true, "RNA": true}

// HMMProfileFormat is a HMMER3 profile file holding one or more models
var HMMProfileFormat = format.NewTextFormat("HMMProfileFormat", validateProfile).WithSniffer(func(p string) bool {
	ok := false
	format.ScanLines(p, 1, func(lr *fsutil.LineReader) error {
		ok = strings.HasPrefix(lr.Text(), "HMMER3/")
		return format.Stop
	})
	return ok
})

// HMMProfileDirFmt is a directory of .hmm files
var HMMProfileDirFmt = format.NewDirectoryFormat("HMMProfileDirFmt",
	format.Collection("profiles", `[^/]+\.hmm`, HMMProfileFormat).WithPathMaker(func(k format.Keys) (string, error) {
		return k["name"] + ".hmm", nil
	}))

// Profile is the header of one model
type Profile struct {
	Name     string
	Length   int
	Alphabet string
	Line     int
}

// scanProfiles walks the models of a profile file, limit caps the number of lines read
func scanProfiles(path string, limit int, fn func(Profile) error) error {
	var cur *Profile
	inMatrix := false
	err := format.ScanLines(path, limit, func(lr *fsutil.LineReader) error {
		n := lr.Line()
		line := strings.TrimRight(lr.Text(), "\r")
		if cur == nil {
			if strings.TrimSpace(line) == "" {
				return nil
			}
			if !strings.HasPrefix(line, "HMMER3/") {
				return errs.New(errs.Structural, "hmm header", "Line %d should start a model with a HMMER3 format tag.", n).At(n)
			}
			cur = &Profile{Line: n}
			inMatrix = false
			return nil
		}
		if line == "//" {
			if cur.Name == "" {
				return errs.New(errs.Structural, "missing name", "The model starting on line %d has no NAME.", cur.Line).At(n).Prior(cur.Line)
			}
			if cur.Length == 0 {
				return errs.New(errs.Structural, "missing length", "The model starting on line %d has no LENG.", cur.Line).At(n).Prior(cur.Line)
			}
			if !inMatrix {
				return errs.New(errs.Structural, "missing matrix", "The model starting on line %d has no HMM section.", cur.Line).At(n).Prior(cur.Line)
			}
			p := *cur
			cur = nil
			return fn(p)
		}
		if inMatrix {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		switch fields[0] {
		case "NAME":
			if len(fields) < 2 {
				return errs.New(errs.Content, "missing name", "NAME on line %d has no value.", n).At(n)
			}
			cur.Name = fields[1]
		case "LENG":
			l := 0
			if len(fields) > 1 {
				l, _ = strconv.Atoi(fields[1])
			}
			if l <= 0 {
				return errs.New(errs.Content, "model length", "LENG on line %d must be a positive integer.", n).At(n)
			}
			cur.Length = l
		case "ALPH":
			if len(fields) < 2 || !hmmAlphabets[fields[1]] {
				return errs.New(errs.Content, "alphabet", "ALPH on line %d must be amino, DNA or RNA.", n).At(n)
			}
			cur.Alphabet = fields[1]
		case "HMM":
			inMatrix = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if cur != nil && limit == 0 {
		return errs.New(errs.Structural, "unterminated model", "The model starting on line %d is not terminated by //.", cur.Line).At(cur.Line)
	}
	return nil
}

func validateProfile(path string, level format.Level) error {
	models := 0
	err := scanProfiles(path, level.Lines(), func(Profile) error {
		models++
		return nil
	})
	if err != nil {
		return err
	}
	if models == 0 && level == format.Max {
		return errs.New(errs.Structural, "no models", "The file holds no HMM profiles.")
	}
	return nil
}

// ReadProfiles returns the model headers of a profile file
func ReadProfiles(path string) ([]Profile, error) {
	var out []Profile
	err := scanProfiles(path, 0, func(p Profile) error {
		out = append(out, p)
		return nil
	})
	return out, errs.Locate(err, path)
}
