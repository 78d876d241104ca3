package samples

import (
	"path"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/manifest"
)

// ManifestFile is the name of the in-directory manifest
const ManifestFile = "MANIFEST"

func slps(name string, layout manifest.Layout) *format.DirectoryFormat {
	return format.NewDirectoryFormat(name,
		format.Collection("sequences", casavaPattern, fastq.FastqGzFormat).WithPathMaker(CasavaPath),
		format.FixedFile("manifest", ManifestFile, manifest.FastqManifestFormat),
		format.FixedFile("metadata", MetadataFile, YamlFormat)).
		WithPrecheck(format.ForbidSubdirs()).
		WithValidator(func(v *format.View, level format.Level) error {
			_, err := readManifest(v, layout)
			return err
		})
}

// the single-lane-per-sample read directories
var (
	SingleLanePerSampleSingleEndFastqDirFmt = slps("SingleLanePerSampleSingleEndFastqDirFmt", manifest.SingleEnd)
	SingleLanePerSamplePairedEndFastqDirFmt = slps("SingleLanePerSamplePairedEndFastqDirFmt", manifest.PairedEnd)
)

// IsPaired reports if a directory format holds paired-end reads
func IsPaired(d *format.DirectoryFormat) bool {
	return d == SingleLanePerSamplePairedEndFastqDirFmt
}

// ReadManifest parses the MANIFEST of a bound single-lane-per-sample directory
func ReadManifest(v *format.View) (*manifest.Manifest, error) {
	layout := manifest.SingleEnd
	if IsPaired(v.Format()) {
		layout = manifest.PairedEnd
	}
	return readManifest(v, layout)
}

// readManifest checks the MANIFEST layout and that every file it lists is one of the directory's reads
func readManifest(v *format.View, layout manifest.Layout) (*manifest.Manifest, error) {
	mp, ok := v.File("manifest")
	if !ok {
		return nil, errs.New(errs.Structural, "missing file", "%v requires the file %q", v.Format().Name(), ManifestFile).InFile(v.Root())
	}
	m, err := manifest.ParseV1(mp, layout, manifest.Relative)
	if err != nil {
		return nil, err
	}
	members := make(map[string]bool)
	for _, rel := range v.Members("sequences") {
		members[rel] = true
	}
	for _, r := range m.Rows {
		if !members[path.Clean(r.Path)] {
			return nil, errs.New(errs.Structural, "unlisted file", "%q in %v is not one of the directory's sequence files", r.Path, ManifestFile).At(r.Line).InFile(mp)
		}
	}
	return m, nil
}

// Reads is the forward and optional reverse file of one sample, as absolute paths
type Reads struct {
	SampleID string
	Forward  string
	Reverse  string
}

// SampleReads binds and validates dir, then returns its samples in manifest order
func SampleReads(d *format.DirectoryFormat, dir string, level format.Level) ([]Reads, *manifest.Manifest, error) {
	v, err := d.Bind(dir)
	if err != nil {
		return nil, nil, err
	}
	if err := v.Validate(level); err != nil {
		return nil, nil, err
	}
	m, err := ReadManifest(v)
	if err != nil {
		return nil, nil, err
	}
	var out []Reads
	for _, p := range m.Pairs() {
		r := Reads{SampleID: p.SampleID, Forward: v.Abs(p.Forward)}
		if p.Reverse != "" {
			r.Reverse = v.Abs(p.Reverse)
		}
		out = append(out, r)
	}
	return out, m, nil
}
