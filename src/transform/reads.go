package transform

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/fasta"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
	"github.com/will-rowe/q2types/src/manifest"
	"github.com/will-rowe/q2types/src/pipeline"
	"github.com/will-rowe/q2types/src/samples"
)

// QIIME1DemuxFile is the name of the FASTA written from single-end reads
const QIIME1DemuxFile = "seqs.fna"

// finishSLPS writes the MANIFEST and metadata.yml of a single-lane-per-sample directory
func finishSLPS(out string, m *manifest.Manifest) error {
	if err := m.WriteV1(filepath.Join(out, samples.ManifestFile), manifest.Relative); err != nil {
		return err
	}
	return samples.WriteMetadata(filepath.Join(out, samples.MetadataFile), fastq.Phred33)
}

// readNumber maps a direction to the Casava read number
func readNumber(direction string) int {
	if direction == manifest.Reverse {
		return 2
	}
	return 1
}

// manifestToSLPS imports the reads a manifest lists. The barcode of each file is the 0-based index of its sample,
// files are gzipped on the fly when needed and PHRED 64 qualities are recoded to PHRED 33
func manifestToSLPS(mf *manifest.Format) Func {
	return func(in, out string) error {
		m, err := mf.Parse(in)
		if err != nil {
			return err
		}
		if mf.Phred() == fastq.Phred64 {
			Warn.Print(fastq.Phred64Warning)
		}
		// single-end rows all share one declared direction, which is kept
		single := manifest.Forward
		if !m.Paired && len(m.Rows) > 0 {
			single = m.Rows[0].Direction
		}
		result := &manifest.Manifest{Paired: m.Paired}
		for idx, pair := range m.Pairs() {
			for _, src := range []string{pair.Forward, pair.Reverse} {
				if src == "" {
					continue
				}
				direction := single
				if src == pair.Reverse {
					direction = manifest.Reverse
				}
				name, err := samples.CasavaPath(format.Keys{
					"sample":  pair.SampleID,
					"barcode": strconv.Itoa(idx),
					"lane":    "1",
					"read":    strconv.Itoa(readNumber(direction)),
				})
				if err != nil {
					return err
				}
				dst := filepath.Join(out, name)
				if mf.Phred() == fastq.Phred64 {
					if _, err := pipeline.Recode(src, dst, fastq.Phred64, fastq.Phred33); err != nil {
						return errors.Wrapf(err, "could not recode %v", src)
					}
				} else if err := fsutil.CopyCompressed(src, dst); err != nil {
					return err
				}
				result.Rows = append(result.Rows, manifest.Row{SampleID: pair.SampleID, Path: name, Direction: direction})
			}
		}
		return finishSLPS(out, result)
	}
}

// pairedToSingle keeps only the forward reads
func pairedToSingle(in, out string) error {
	reads, m, err := samples.SampleReads(samples.SingleLanePerSamplePairedEndFastqDirFmt, in, format.Min)
	if err != nil {
		return err
	}
	result := &manifest.Manifest{}
	for _, r := range reads {
		name := filepath.Base(r.Forward)
		if err := fsutil.CopyFile(r.Forward, filepath.Join(out, name)); err != nil {
			return err
		}
		result.Rows = append(result.Rows, manifest.Row{SampleID: r.SampleID, Path: name, Direction: manifest.Forward})
	}
	if len(result.Rows) == 0 {
		return precondition("no samples", "%v lists no samples", m.Path)
	}
	return finishSLPS(out, result)
}

// casavaToSLPS copies the reads of a Casava upload under their canonical laned names
func casavaToSLPS(from *format.DirectoryFormat, layout manifest.Layout) Func {
	return func(in, out string) error {
		v, err := from.Bind(in)
		if err != nil {
			return err
		}
		if err := v.Validate(format.Min); err != nil {
			return err
		}
		files := samples.CasavaFiles(v)
		if len(files) == 0 {
			return precondition("no samples", "%v holds no read files", in)
		}
		forward, reverse := make(map[string]bool), make(map[string]bool)
		for _, f := range files {
			if f.Name.Read == 2 {
				reverse[f.Name.Sample] = true
			} else {
				forward[f.Name.Sample] = true
			}
		}
		switch layout {
		case manifest.SingleEnd:
			if len(reverse) > 0 {
				return precondition("reverse reads", "%v holds reverse reads, import it as paired-end data", in)
			}
		case manifest.PairedEnd:
			if len(reverse) == 0 {
				return precondition("missing reverse reads", "%v holds no reverse reads, import it as single-end data", in)
			}
		}
		result := &manifest.Manifest{Paired: layout == manifest.PairedEnd}
		for _, f := range files {
			name := f.Name.String()
			if err := fsutil.CopyFile(f.Path, filepath.Join(out, name)); err != nil {
				return err
			}
			result.Rows = append(result.Rows, manifest.Row{SampleID: f.Name.Sample, Path: name, Direction: f.Name.Direction()})
		}
		return finishSLPS(out, result)
	}
}

// slpsToQIIME1 concatenates the reads into one FASTA, renaming each record to {sample}_{n} with a counter over all samples
func slpsToQIIME1(in, out string) error {
	reads, _, err := samples.SampleReads(samples.SingleLanePerSampleSingleEndFastqDirFmt, in, format.Min)
	if err != nil {
		return err
	}
	for _, r := range reads {
		if strings.IndexFunc(r.SampleID, unicode.IsSpace) >= 0 {
			return precondition("whitespace in sample id", "QIIME 1 sample IDs cannot contain whitespace, found %q", r.SampleID)
		}
	}
	dst := filepath.Join(out, QIIME1DemuxFile)
	w, err := fasta.Create(dst)
	if err != nil {
		return err
	}
	n := 0
	for _, r := range reads {
		fr, err := fastq.Open(r.Forward)
		if err != nil {
			w.Close()
			return err
		}
		for fr.Next() {
			rec := fr.Record()
			if err := w.Write(fasta.Record{ID: fmt.Sprintf("%s_%d", r.SampleID, n), Description: rec.Header[1:], Sequence: rec.Sequence}); err != nil {
				fr.Close()
				w.Close()
				return err
			}
			n++
		}
		fr.Close()
		if err := fr.Err(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
