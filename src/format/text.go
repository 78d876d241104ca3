package format

import (
	"bufio"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fsutil"
)

// Stop can be returned by a LineFunc to end a scan early without an error
var Stop = errors.New("stop scanning")

// LineFunc is called with the reader positioned on each line
type LineFunc func(lr *fsutil.LineReader) error

// ScanLines streams a text file (decompressing gzip transparently, skipping a UTF-8 BOM) and calls fn for each line.
// At most limit lines are read when limit > 0. Lines that are not valid UTF-8 produce a Validation.Encoding error.
func ScanLines(path string, limit int, fn LineFunc) error {
	rc, err := fsutil.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()
	br := bufio.NewReaderSize(rc, 1<<16)
	var bomLen int64
	if fsutil.SkipBOM(br) {
		bomLen = int64(len(fsutil.UTF8BOM))
	}
	lr := fsutil.NewLineReader(br)
	for lr.Next() {
		if limit > 0 && lr.Line() > limit {
			break
		}
		if i := InvalidUTF8(lr.Raw()); i >= 0 {
			offset := bomLen + lr.Offset() + int64(i)
			return errs.New(errs.Encoding, "invalid utf-8", "invalid UTF-8 at byte offset %d", offset).At(lr.Line()).With("offset", offset)
		}
		if err := fn(lr); err != nil {
			if err == Stop {
				return nil
			}
			return err
		}
	}
	return lr.Err()
}

// InvalidUTF8 returns the index of the first byte of b that is not valid UTF-8, or -1
func InvalidUTF8(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return -1
}
