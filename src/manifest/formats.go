package manifest

import (
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
)

// Format is a manifest file format
type Format struct {
	name    string
	version int
	layout  Layout
	kind    PathKind
	phred   int
}

// the manifest formats
var (
	SingleEndFastqManifestPhred33 = &Format{"SingleEndFastqManifestPhred33", 1, SingleEnd, Absolute, fastq.Phred33}
	SingleEndFastqManifestPhred64 = &Format{"SingleEndFastqManifestPhred64", 1, SingleEnd, Absolute, fastq.Phred64}
	PairedEndFastqManifestPhred33 = &Format{"PairedEndFastqManifestPhred33", 1, PairedEnd, Absolute, fastq.Phred33}
	PairedEndFastqManifestPhred64 = &Format{"PairedEndFastqManifestPhred64", 1, PairedEnd, Absolute, fastq.Phred64}

	SingleEndFastqManifestPhred33V2 = &Format{"SingleEndFastqManifestPhred33V2", 2, SingleEnd, Absolute, fastq.Phred33}
	SingleEndFastqManifestPhred64V2 = &Format{"SingleEndFastqManifestPhred64V2", 2, SingleEnd, Absolute, fastq.Phred64}
	PairedEndFastqManifestPhred33V2 = &Format{"PairedEndFastqManifestPhred33V2", 2, PairedEnd, Absolute, fastq.Phred33}
	PairedEndFastqManifestPhred64V2 = &Format{"PairedEndFastqManifestPhred64V2", 2, PairedEnd, Absolute, fastq.Phred64}

	// FastqManifestFormat is the MANIFEST stored inside a per-sample directory
	FastqManifestFormat = &Format{"FastqManifestFormat", 1, AnyLayout, Relative, fastq.Phred33}
)

// Formats returns the external manifest formats
func Formats() []*Format {
	return []*Format{
		SingleEndFastqManifestPhred33, SingleEndFastqManifestPhred64,
		PairedEndFastqManifestPhred33, PairedEndFastqManifestPhred64,
		SingleEndFastqManifestPhred33V2, SingleEndFastqManifestPhred64V2,
		PairedEndFastqManifestPhred33V2, PairedEndFastqManifestPhred64V2,
	}
}

// Name returns the format name
func (f *Format) Name() string { return f.name }

// Medium is always text
func (f *Format) Medium() format.Medium { return format.Text }

// Version is 1 for CSV manifests and 2 for metadata TSV manifests
func (f *Format) Version() int { return f.version }

// Layout returns the read layout
func (f *Format) Layout() Layout { return f.layout }

// Phred returns the quality offset of the files the manifest lists
func (f *Format) Phred() int { return f.phred }

// Parse reads the manifest, the whole file is always checked
func (f *Format) Parse(path string) (*Manifest, error) {
	if f.version == 2 {
		return ParseV2(path, f.layout)
	}
	return ParseV1(path, f.layout, f.kind)
}

// Validate parses the manifest, manifests are small so the level is ignored
func (f *Format) Validate(path string, level format.Level) error {
	_, err := f.Parse(path)
	return err
}
