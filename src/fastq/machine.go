package fastq

import (
	"bytes"

	"github.com/will-rowe/q2types/src/errs"
)

// state is the position of the reader within a four line record
type state int

const (
	expectHeader state = iota
	inSequence
	expectSeparator
	expectQuality
	done
)

func (s state) String() string {
	switch s {
	case expectHeader:
		return "EXPECT_HEADER"
	case inSequence:
		return "IN_SEQUENCE"
	case expectSeparator:
		return "EXPECT_SEPARATOR"
	case expectQuality:
		return "EXPECT_QUALITY"
	}
	return "DONE"
}

// machine checks the line sequence of a FASTQ file
type machine struct {
	state     state
	start     int // line of the current record's header
	seqLen    int
	mixedCase bool
}

// step consumes one line (without its terminator), it returns true when the line completed a record
func (m *machine) step(line []byte, n int) (bool, error) {
	switch m.state {
	case expectHeader:
		if len(line) == 0 || line[0] != '@' {
			return false, errs.New(errs.Structural, "invalid header", "Header on line %d is not FASTQ, records may be misaligned", n).At(n)
		}
		m.start = n
		m.state = inSequence
	case inSequence:
		if len(bytes.TrimSpace(line)) == 0 {
			return false, errs.New(errs.Structural, "missing sequence", "Missing sequence for record beginning on line %d", m.start).At(n).Prior(m.start)
		}
		if !m.mixedCase && hasLower(line) {
			return false, errs.New(errs.Content, "lowercase sequence", "Lowercase case sequence on line %d", n).At(n)
		}
		m.seqLen = len(line)
		m.state = expectSeparator
	case expectSeparator:
		if len(line) == 0 || line[0] != '+' {
			return false, errs.New(errs.Structural, "invalid separator", "Invalid separator on line %d", n).At(n)
		}
		m.state = expectQuality
	case expectQuality:
		if len(line) != m.seqLen {
			return false, errs.New(errs.Content, "quality length", "Quality score length doesn't match sequence length for record beginning on line %d", m.start).
				At(n).Prior(m.start).With("sequence_length", m.seqLen).With("quality_length", len(line))
		}
		m.state = expectHeader
		return true, nil
	case done:
		return false, errs.New(errs.Structural, "trailing data", "Unexpected data on line %d after the end of the file", n).At(n)
	}
	return false, nil
}

// finish is called at EOF and fails if a record is incomplete
func (m *machine) finish() error {
	switch m.state {
	case inSequence:
		return errs.New(errs.Structural, "missing sequence", "Missing sequence for record beginning on line %d", m.start).At(m.start)
	case expectSeparator:
		return errs.New(errs.Structural, "missing separator", "Missing separator for record beginning on line %d", m.start).At(m.start)
	case expectQuality:
		return errs.New(errs.Structural, "missing quality", "Missing quality for record beginning on line %d", m.start).At(m.start)
	}
	m.state = done
	return nil
}

func hasLower(b []byte) bool {
	for _, c := range b {
		if c >= 'a' && c <= 'z' {
			return true
		}
	}
	return false
}
