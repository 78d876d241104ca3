package samples

import (
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fasta"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/manifest"
)

// the MAG directory formats
var (
	MAGSequencesDirFmt = format.NewDirectoryFormat("MAGSequencesDirFmt",
		format.Collection("mags", `[^/]+\.(fa|fasta)`, fasta.DNAFASTAFormat).WithPathMaker(func(k format.Keys) (string, error) {
			return k["mag_id"] + ".fasta", nil
		})).
		WithPrecheck(format.ForbidSubdirs()).
		WithValidator(checkMAGIDs)

	MultiMAGSequencesDirFmt = format.NewDirectoryFormat("MultiMAGSequencesDirFmt",
		format.Collection("mags", `[^/]+/[^/]+\.(fa|fasta)`, fasta.DNAFASTAFormat).WithPathMaker(func(k format.Keys) (string, error) {
			return k["sample_id"] + "/" + k["mag_id"] + ".fasta", nil
		}),
		format.FixedFile("manifest", ManifestFile, manifest.MultiMAGManifestFormat).AsOptional()).
		WithMixin(format.RequireSubdirs(ManifestFile)).
		WithValidator(checkMAGIDs)
)

// MAG is one genome of a MAG collection, SampleID is empty in flat collections
type MAG struct {
	SampleID string
	ID       string
	Path     string // relative to the collection root
}

// NewMAGID returns a fresh UUID-4 MAG ID
func NewMAGID() string {
	return uuid.New().String()
}

// IsMAGID reports if id is a version 4 UUID in canonical form
func IsMAGID(id string) bool {
	u, err := uuid.Parse(id)
	return err == nil && u.Version() == 4 && u.String() == id
}

func splitMAG(rel string) MAG {
	dir, file := path.Split(rel)
	return MAG{
		SampleID: strings.TrimSuffix(dir, "/"),
		ID:       strings.TrimSuffix(file, path.Ext(file)),
		Path:     rel,
	}
}

// MAGs returns the genomes of a bound MAG directory in path order
func MAGs(v *format.View) []MAG {
	var out []MAG
	for _, rel := range v.Members("mags") {
		out = append(out, splitMAG(rel))
	}
	return out
}

// MAGSamples groups the genomes of a per-sample collection by sample, in path order
func MAGSamples(v *format.View) ([]string, map[string][]MAG) {
	var ids []string
	bySample := make(map[string][]MAG)
	for _, m := range MAGs(v) {
		if _, ok := bySample[m.SampleID]; !ok {
			ids = append(ids, m.SampleID)
		}
		bySample[m.SampleID] = append(bySample[m.SampleID], m)
	}
	return ids, bySample
}

func checkMAGIDs(v *format.View, level format.Level) error {
	for _, m := range MAGs(v) {
		if !IsMAGID(m.ID) {
			return errs.New(errs.Content, "mag id", "MAG file %q is not named by a version 4 UUID", m.Path).InFile(v.Abs(m.Path)).With("id", m.ID)
		}
	}
	return nil
}
