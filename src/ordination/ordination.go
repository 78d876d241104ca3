// Package ordination reads and writes scikit-bio OrdinationResults text files, the score matrices are gonum dense matrices
package ordination

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
	"gonum.org/v1/gonum/mat"
)

// the section headers, in file order
const (
	eigvalsSection    = "Eigvals"
	proportionSection = "Proportion explained"
	speciesSection    = "Species"
	siteSection       = "Site"
	biplotSection     = "Biplot"
	constraintSection = "Site constraints"
)

// OrdinationFormat is the skbio ordination text format
var OrdinationFormat = format.NewTextFormat("OrdinationFormat", func(path string, level format.Level) error {
	_, err := Read(path)
	return err
}).WithSniffer(sniff)

// OrdinationDirectoryFormat holds ordination.txt
var OrdinationDirectoryFormat = format.NewDirectoryFormat("OrdinationDirectoryFormat",
	format.FixedFile("ordination", "ordination.txt", OrdinationFormat))

// Matrix is a labelled score matrix, one row per ID
type Matrix struct {
	IDs  []string
	Data *mat.Dense
}

// Results is an ordination, empty sections are nil
type Results struct {
	Eigvals             []float64
	ProportionExplained []float64
	Species             *Matrix
	Site                *Matrix
	Biplot              *Matrix
	SiteConstraints     *Matrix
}

// parser walks the lines of an ordination file
type parser struct {
	lines []string
	i     int
}

func (p *parser) fail(rule, msg string, args ...interface{}) error {
	return errs.New(errs.Structural, rule, msg, args...).At(p.i + 1)
}

func (p *parser) next() (string, bool) {
	if p.i >= len(p.lines) {
		return "", false
	}
	line := strings.TrimRight(p.lines[p.i], "\r")
	p.i++
	return line, true
}

// header reads "<name>\t<dims...>"
func (p *parser) header(name string, ndims int) ([]int, error) {
	line, ok := p.next()
	if !ok {
		return nil, p.fail("section", "Expected the %q section but the file ended.", name)
	}
	fields := strings.Split(line, "\t")
	if fields[0] != name || len(fields) != ndims+1 {
		return nil, errs.New(errs.Structural, "section", "Expected a %q header with %d dimension(s), found %q.", name, ndims, line).At(p.i)
	}
	dims := make([]int, ndims)
	for j := range dims {
		n, err := strconv.Atoi(fields[j+1])
		if err != nil || n < 0 {
			return nil, errs.New(errs.Content, "dimension", "Bad dimension %q in the %q header.", fields[j+1], name).At(p.i)
		}
		dims[j] = n
	}
	return dims, nil
}

// blank consumes the empty line that separates sections, the final section may end the file
func (p *parser) blank() error {
	line, ok := p.next()
	if ok && strings.TrimSpace(line) != "" {
		return errs.New(errs.Structural, "section", "Expected a blank line between sections, found %q.", line).At(p.i)
	}
	return nil
}

func parseFloats(cells []string, line int) ([]float64, error) {
	out := make([]float64, len(cells))
	for j, c := range cells {
		f, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, errs.New(errs.Content, "value", "%q is not a number.", c).At(line).Col(j + 1)
		}
		out[j] = f
	}
	return out, nil
}

func (p *parser) vector(name string) ([]float64, error) {
	dims, err := p.header(name, 1)
	if err != nil {
		return nil, err
	}
	if dims[0] == 0 {
		return nil, p.blank()
	}
	line, ok := p.next()
	if !ok {
		return nil, p.fail("section", "The %q values are missing.", name)
	}
	cells := strings.Split(line, "\t")
	if len(cells) != dims[0] {
		return nil, errs.New(errs.Structural, "dimension", "%q declares %d values but has %d.", name, dims[0], len(cells)).At(p.i)
	}
	v, err := parseFloats(cells, p.i)
	if err != nil {
		return nil, err
	}
	return v, p.blank()
}

func (p *parser) matrix(name string) (*Matrix, error) {
	dims, err := p.header(name, 2)
	if err != nil {
		return nil, err
	}
	rows, cols := dims[0], dims[1]
	if rows == 0 || cols == 0 {
		return nil, p.blank()
	}
	m := &Matrix{IDs: make([]string, rows), Data: mat.NewDense(rows, cols, nil)}
	seen := make(map[string]int)
	for r := 0; r < rows; r++ {
		line, ok := p.next()
		if !ok {
			return nil, p.fail("dimension", "%q declares %d rows but the file ended after %d.", name, rows, r)
		}
		cells := strings.Split(line, "\t")
		if len(cells) != cols+1 {
			return nil, errs.New(errs.Structural, "dimension", "%q declares %d columns but the row has %d.", name, cols, len(cells)-1).At(p.i)
		}
		if prior, dup := seen[cells[0]]; dup {
			return nil, errs.New(errs.Content, "duplicate id", "ID %q is repeated in %q.", cells[0], name).At(p.i).Prior(prior)
		}
		seen[cells[0]] = p.i
		vals, err := parseFloats(cells[1:], p.i)
		if err != nil {
			return nil, err
		}
		m.IDs[r] = cells[0]
		m.Data.SetRow(r, vals)
	}
	return m, p.blank()
}

// Read parses an ordination file
func Read(path string) (*Results, error) {
	p := &parser{}
	err := format.ScanLines(path, 0, func(lr *fsutil.LineReader) error {
		p.lines = append(p.lines, lr.Text())
		return nil
	})
	if err != nil {
		return nil, errs.Locate(err, path)
	}
	res, err := p.parse()
	return res, errs.Locate(err, path)
}

func (p *parser) parse() (*Results, error) {
	res := &Results{}
	var err error
	if res.Eigvals, err = p.vector(eigvalsSection); err != nil {
		return nil, err
	}
	if len(res.Eigvals) == 0 {
		return nil, errs.New(errs.Content, "eigvals", "An ordination needs at least one eigenvalue.").At(1)
	}
	if res.ProportionExplained, err = p.vector(proportionSection); err != nil {
		return nil, err
	}
	if res.Species, err = p.matrix(speciesSection); err != nil {
		return nil, err
	}
	if res.Site, err = p.matrix(siteSection); err != nil {
		return nil, err
	}
	if res.Site == nil {
		return nil, errs.New(errs.Content, "site", "The Site section may not be empty.")
	}
	if res.Biplot, err = p.matrix(biplotSection); err != nil {
		return nil, err
	}
	if res.SiteConstraints, err = p.matrix(constraintSection); err != nil {
		return nil, err
	}
	for line, ok := p.next(); ok; line, ok = p.next() {
		if strings.TrimSpace(line) != "" {
			return nil, errs.New(errs.Structural, "trailing data", "Unexpected content after the last section: %q.", line).At(p.i)
		}
	}
	return res, nil
}

func sniff(path string) bool {
	fh, err := fsutil.Open(path)
	if err != nil {
		return false
	}
	defer fh.Close()
	br := bufio.NewReader(fh)
	fsutil.SkipBOM(br)
	head, err := br.Peek(len(eigvalsSection) + 1)
	return err == nil && string(head) == eigvalsSection+"\t"
}

// Write writes the results, empty sections get zero dimensions
func (res *Results) Write(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("refusing to overwrite %v", path)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(fh)
	writeVector(bw, eigvalsSection, res.Eigvals)
	bw.WriteString("\n")
	writeVector(bw, proportionSection, res.ProportionExplained)
	for _, s := range []struct {
		name string
		m    *Matrix
	}{
		{speciesSection, res.Species},
		{siteSection, res.Site},
		{biplotSection, res.Biplot},
		{constraintSection, res.SiteConstraints},
	} {
		bw.WriteString("\n")
		writeMatrix(bw, s.name, s.m)
	}
	if err := bw.Flush(); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeVector(bw *bufio.Writer, name string, v []float64) {
	bw.WriteString(name + "\t" + strconv.Itoa(len(v)) + "\n")
	if len(v) == 0 {
		return
	}
	cells := make([]string, len(v))
	for i, f := range v {
		cells[i] = formatFloat(f)
	}
	bw.WriteString(strings.Join(cells, "\t") + "\n")
}

func writeMatrix(bw *bufio.Writer, name string, m *Matrix) {
	if m == nil {
		bw.WriteString(name + "\t0\t0\n")
		return
	}
	rows, cols := m.Data.Dims()
	bw.WriteString(name + "\t" + strconv.Itoa(rows) + "\t" + strconv.Itoa(cols) + "\n")
	for r := 0; r < rows; r++ {
		cells := make([]string, cols+1)
		cells[0] = m.IDs[r]
		for c := 0; c < cols; c++ {
			cells[c+1] = formatFloat(m.Data.At(r, c))
		}
		bw.WriteString(strings.Join(cells, "\t") + "\n")
	}
}
