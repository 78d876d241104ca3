package fastq

import (
	"github.com/will-rowe/q2types/src/errs"
)

// the PHRED offsets
const (
	Phred33 = 33
	Phred64 = 64
)

// maxQualityChar is the highest printable quality character
const maxQualityChar = '~'

// Phred64Warning is logged once per conversion of PHRED 64 input
const Phred64Warning = "Importing of PHRED 64 data is slow as it is converted internally to PHRED 33. Working with the imported data in QIIME will be faster than the original import."

// Recode rewrites a quality string from one offset to another
func Recode(qual string, from, to int) (string, error) {
	out := []byte(qual)
	if err := RecodeBytes(out, from, to); err != nil {
		return "", err
	}
	return string(out), nil
}

// RecodeBytes rewrites quality characters in place, it fails on a character below the source offset or one that would leave the printable range
func RecodeBytes(qual []byte, from, to int) error {
	shift := to - from
	for i, c := range qual {
		if int(c) < from {
			return errs.New(errs.TransformData, "quality below offset", "quality character %q at position %d is below the PHRED %d offset", c, i+1, from).Col(i + 1)
		}
		v := int(c) + shift
		if v < to || v > maxQualityChar {
			return errs.New(errs.TransformData, "quality out of range", "quality character %q at position %d cannot be recoded to PHRED %d", c, i+1, to).Col(i + 1)
		}
		qual[i] = byte(v)
	}
	return nil
}

// RecodeRecord returns the record with its quality recoded
func RecodeRecord(rec Record, from, to int) (Record, error) {
	q, err := Recode(rec.Quality, from, to)
	if err != nil {
		return rec, err
	}
	rec.Quality = q
	return rec, nil
}
