// Package fasta contains the FASTA validators and a record reader/writer built on biogo
package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// the IUPAC alphabets
const (
	DNA     = "ACGTRYKMSWBDHVN"
	RNA     = "ACGURYKMSWBDHVN"
	Protein = "ABCDEFGHIKLMNPQRSTVWXYZ"
	gaps    = ".-"
)

// Format is a FASTA file format parameterised by alphabet, alignment and case
type Format struct {
	name      string
	base      string // the alphabet as declared
	alphabet  string // the alphabet after the aligned and mixed-case extensions
	aligned   bool
	mixedCase bool
	re        *regexp.Regexp
	allowed   [256]bool
}

// NewFormat builds a FASTA format, extending the alphabet with gap characters when aligned and with lower case when mixedCase
func NewFormat(name, alphabet string, aligned, mixedCase bool) *Format {
	f := &Format{name: name, base: alphabet, aligned: aligned, mixedCase: mixedCase}
	chars := alphabet
	if mixedCase {
		chars += strings.ToLower(alphabet)
	}
	if aligned {
		chars += gaps
	}
	f.alphabet = chars
	var class strings.Builder
	for _, c := range chars {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			class.WriteRune(c)
		} else {
			class.WriteString(regexp.QuoteMeta(string(c)))
		}
		f.allowed[byte(c)] = true
	}
	f.re = regexp.MustCompile(`^[` + class.String() + `]+$`)
	return f
}

// the FASTA formats
var (
	DNAFASTAFormat                 = NewFormat("DNAFASTAFormat", DNA, false, false)
	RNAFASTAFormat                 = NewFormat("RNAFASTAFormat", RNA, false, false)
	ProteinFASTAFormat             = NewFormat("ProteinFASTAFormat", Protein, false, false)
	AlignedDNAFASTAFormat          = NewFormat("AlignedDNAFASTAFormat", DNA, true, false)
	AlignedRNAFASTAFormat          = NewFormat("AlignedRNAFASTAFormat", RNA, true, false)
	AlignedProteinFASTAFormat      = NewFormat("AlignedProteinFASTAFormat", Protein, true, false)
	MixedCaseDNAFASTAFormat        = NewFormat("MixedCaseDNAFASTAFormat", DNA, false, true)
	MixedCaseRNAFASTAFormat        = NewFormat("MixedCaseRNAFASTAFormat", RNA, false, true)
	MixedCaseAlignedDNAFASTAFormat = NewFormat("MixedCaseAlignedDNAFASTAFormat", DNA, true, true)
	MixedCaseAlignedRNAFASTAFormat = NewFormat("MixedCaseAlignedRNAFASTAFormat", RNA, true, true)
)

// Formats returns every FASTA format, in registration order
func Formats() []*Format {
	return []*Format{
		DNAFASTAFormat, RNAFASTAFormat, ProteinFASTAFormat,
		AlignedDNAFASTAFormat, AlignedRNAFASTAFormat, AlignedProteinFASTAFormat,
		MixedCaseDNAFASTAFormat, MixedCaseRNAFASTAFormat,
		MixedCaseAlignedDNAFASTAFormat, MixedCaseAlignedRNAFASTAFormat,
	}
}

// Name returns the format name
func (f *Format) Name() string { return f.name }

// Medium is always text
func (f *Format) Medium() format.Medium { return format.Text }

// Alphabet returns the allowed characters, including any extensions
func (f *Format) Alphabet() string { return f.alphabet }

// Aligned reports if all sequences must share a length
func (f *Format) Aligned() bool { return f.aligned }

// MixedCase reports if lower case letters are allowed
func (f *Format) MixedCase() bool { return f.mixedCase }

// IsProtein reports if the format holds amino acid sequences
func (f *Format) IsProtein() bool { return f.base == Protein }

// Sniff checks the first lines of the file
func (f *Format) Sniff(path string) bool {
	return f.Validate(path, format.Min) == nil
}

// Validate checks the file, reading the first 100 lines at Min level
func (f *Format) Validate(path string, level format.Level) error {
	return errs.Locate(f.validate(path, level), path)
}

func (f *Format) validate(path string, level format.Level) error {
	empty, err := checkStart(path)
	if err != nil || empty {
		return err
	}
	v := &validator{f: f, limit: level.Lines(), ids: make(map[string]int)}
	if err := format.ScanLines(path, 0, v.line); err != nil {
		return err
	}
	if v.capped {
		return nil
	}
	return v.finish()
}

// checkStart reports if the file is empty (ignoring a BOM and whitespace) and fails if the first byte is not '>'
func checkStart(path string) (bool, error) {
	rc, err := fsutil.Open(path)
	if err != nil {
		return false, err
	}
	defer rc.Close()
	br := bufio.NewReader(rc)
	fsutil.SkipBOM(br)
	first, err := br.ReadByte()
	if err != nil {
		return true, nil
	}
	if first == '>' {
		return false, nil
	}
	if isSpace(first) {
		for {
			b, err := br.ReadByte()
			if err != nil {
				return true, nil
			}
			if !isSpace(b) {
				break
			}
		}
	}
	return false, errs.New(errs.Structural, "missing description", "First line of file is not a valid description. Descriptions must start with '>'").At(1)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

// validator holds the state of one validation run
type validator struct {
	f             *Format
	limit         int
	capped        bool
	ids           map[string]int
	lastWasHeader bool
	headerLine    int // line of the current record's description
	records       int
	seqLen        int
	firstLen      int
}

func (v *validator) line(lr *fsutil.LineReader) error {
	n := lr.Line()
	if v.limit > 0 && n > v.limit {
		v.capped = true
		return format.Stop
	}
	line := bytes.TrimSpace(lr.Bytes())
	if len(line) == 0 {
		return nil
	}
	if line[0] == '>' {
		return v.header(line, n)
	}
	if !v.f.re.Match(line) {
		return v.badChar(line, n)
	}
	v.seqLen += len(line)
	v.lastWasHeader = false
	return nil
}

func (v *validator) header(line []byte, n int) error {
	if v.lastWasHeader {
		return errs.New(errs.Structural, "consecutive descriptions", "Multiple consecutive descriptions starting on line %d: %q", v.headerLine, string(line)).At(n).Prior(v.headerLine)
	}
	if v.records > 0 {
		if err := v.checkLength(); err != nil {
			return err
		}
	}
	fields := bytes.Fields(line[1:])
	if len(fields) == 0 {
		return errs.New(errs.Structural, "missing id", "Description on line %d is missing an ID.", n).At(n)
	}
	if len(line) > 1 && isSpace(line[1]) {
		return errs.New(errs.Structural, "id starts with space", "ID on line %d starts with a space. IDs may not start with spaces", n).At(n)
	}
	id := string(fields[0])
	if prior, ok := v.ids[id]; ok {
		return errs.New(errs.Content, "duplicate id", "ID on line %d is a duplicate of another ID on line %d.", n, prior).At(n).Prior(prior).With("id", id)
	}
	v.ids[id] = n
	v.records++
	v.headerLine = n
	v.lastWasHeader = true
	v.seqLen = 0
	return nil
}

// checkLength compares the record that has just ended with the first record
func (v *validator) checkLength() error {
	if !v.f.aligned {
		return nil
	}
	if v.records == 1 {
		v.firstLen = v.seqLen
		return nil
	}
	if v.seqLen != v.firstLen {
		return errs.New(errs.Content, "alignment length", "The sequence starting on line %d was length %d. All previous sequences were length %d. All sequences must be the same length for %s.", v.headerLine, v.seqLen, v.firstLen, v.f.name).
			At(v.headerLine).With("expected", v.firstLen).With("found", v.seqLen)
	}
	return nil
}

func (v *validator) badChar(line []byte, n int) error {
	position := 0
	for _, r := range string(line) {
		position++
		if r >= 256 || !v.f.allowed[byte(r)] {
			return errs.New(errs.Content, "invalid character", "Invalid character '%c' at position %d on line %d (does not match IUPAC characters for this sequence type). Allowed characters are %s.", r, position, n, v.f.alphabet).
				At(n).Col(position).With("character", string(r))
		}
	}
	return fmt.Errorf("line %d did not match the %s alphabet", n, v.f.name)
}

func (v *validator) finish() error {
	if v.lastWasHeader {
		return errs.New(errs.Structural, "missing sequence", "Description on line %d has no sequence.", v.headerLine).At(v.headerLine)
	}
	if v.records > 0 {
		return v.checkLength()
	}
	return nil
}
