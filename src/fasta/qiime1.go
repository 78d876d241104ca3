package fasta

import (
	"bytes"
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// qiime1MinRecords is the number of records checked at Min level
const qiime1MinRecords = 30

// QIIME1DemuxFormat is the seqs.fna written by QIIME 1 split_libraries: two lines per record and IDs of the form <sample-id>_<seq-id>
var QIIME1DemuxFormat = format.NewTextFormat("QIIME1DemuxFormat", validateQIIME1Demux)

// SplitDemuxID splits a QIIME 1 sequence ID into its sample and sequence parts
func SplitDemuxID(id string) (string, string, bool) {
	i := strings.LastIndex(id, "_")
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

func validateQIIME1Demux(path string, level format.Level) error {
	limit := 0
	if level == format.Min {
		limit = 2 * qiime1MinRecords
	}
	seen := make(map[string]int)
	headerLine, lines := 0, 0
	err := format.ScanLines(path, limit, func(lr *fsutil.LineReader) error {
		line := bytes.TrimRight(lr.Bytes(), " \t")
		n := lr.Line()
		lines = n
		if n%2 == 1 {
			if len(line) == 0 || line[0] != '>' {
				return errs.New(errs.Structural, "missing description", "Line %d should be a description starting with '>', each record is exactly two lines", n).At(n)
			}
			fields := bytes.Fields(line[1:])
			if len(fields) == 0 || isSpace(line[1]) {
				return errs.New(errs.Structural, "missing id", "Description on line %d is missing an ID.", n).At(n)
			}
			id := string(fields[0])
			if _, _, ok := SplitDemuxID(id); !ok {
				return errs.New(errs.Content, "invalid id", "ID %q on line %d is not of the form <sample-id>_<sequence-id>", id, n).At(n).With("id", id)
			}
			if prior, ok := seen[id]; ok {
				return errs.New(errs.Content, "duplicate id", "ID on line %d is a duplicate of another ID on line %d.", n, prior).At(n).Prior(prior).With("id", id)
			}
			seen[id] = n
			headerLine = n
			return nil
		}
		if len(line) == 0 {
			return errs.New(errs.Structural, "missing sequence", "Description on line %d has no sequence.", headerLine).At(n)
		}
		if !DNAFASTAFormat.re.Match(line) {
			v := &validator{f: DNAFASTAFormat}
			return v.badChar(line, n)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if lines%2 == 1 {
		return errs.New(errs.Structural, "missing sequence", "Description on line %d has no sequence.", headerLine).At(headerLine)
	}
	if len(seen) == 0 {
		return errs.New(errs.Structural, "empty file", "QIIME 1 demultiplexed files must contain at least one record")
	}
	return nil
}
