package partition

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
	"github.com/will-rowe/q2types/src/manifest"
	"github.com/will-rowe/q2types/src/samples"
)

// Collate merges the parts, all of format d, into a new collection at out.
// Members are united by relative path and a path held by two parts must have the same contents
func Collate(d *format.DirectoryFormat, parts []string, out string) error {
	if len(parts) == 0 {
		return errs.New(errs.TransformPrecondition, "no parts", "there are no parts to collate")
	}
	stage, err := fsutil.NewStage(out)
	if err != nil {
		return err
	}
	defer stage.Abort()
	views := make([]*format.View, len(parts))
	for i, dir := range parts {
		v, err := d.Bind(dir)
		if err != nil {
			return err
		}
		if err := v.Validate(format.Min); err != nil {
			return errors.Wrapf(err, "part %v is invalid", dir)
		}
		views[i] = v
	}
	from := make(map[string]string)
	for _, v := range views {
		for _, rel := range v.Files() {
			if rel == samples.ManifestFile || rel == samples.MetadataFile {
				continue
			}
			src := v.Abs(rel)
			if prior, ok := from[rel]; ok {
				same, err := fsutil.SameContents(prior, src)
				if err != nil {
					return err
				}
				if !same {
					return errs.New(errs.TransformData, "conflicting member", "%q differs between %v and %v", rel, prior, src).With("member", rel)
				}
				continue
			}
			from[rel] = src
			if err := link(v, rel, stage.Dir); err != nil {
				return err
			}
		}
	}
	switch d {
	case samples.SingleLanePerSampleSingleEndFastqDirFmt, samples.SingleLanePerSamplePairedEndFastqDirFmt:
		if err := collateReads(views, stage.Dir); err != nil {
			return err
		}
	case samples.MultiMAGSequencesDirFmt:
		if err := collateMAGs(views, stage.Dir); err != nil {
			return err
		}
	}
	if err := d.Validate(stage.Dir, format.Min); err != nil {
		return errors.Wrap(err, "collated parts are invalid")
	}
	return stage.Commit(out)
}

// collateReads unites the MANIFEST rows and checks every part has the same metadata
func collateReads(views []*format.View, target string) error {
	merged := &manifest.Manifest{}
	seen := make(map[manifest.Row]bool)
	var offset int
	for _, v := range views {
		m, err := samples.ReadManifest(v)
		if err != nil {
			return err
		}
		merged.Paired = m.Paired
		for _, r := range m.Rows {
			r.Line = 0
			if !seen[r] {
				seen[r] = true
				merged.Rows = append(merged.Rows, r)
			}
		}
		mp, ok := v.File("metadata")
		if !ok {
			continue
		}
		md, err := samples.ReadMetadata(mp)
		if err != nil {
			return err
		}
		if offset != 0 && md.PhredOffset != offset {
			return errs.New(errs.TransformData, "metadata mismatch", "parts disagree on the PHRED offset: %d and %d", offset, md.PhredOffset).InFile(mp)
		}
		if offset == 0 {
			offset = md.PhredOffset
			if err := fsutil.CopyFile(mp, filepath.Join(target, samples.MetadataFile)); err != nil {
				return err
			}
		}
	}
	return merged.WriteV1(filepath.Join(target, samples.ManifestFile), manifest.Relative)
}

// collateMAGs unites the optional MANIFEST rows of per-sample MAG parts
func collateMAGs(views []*format.View, target string) error {
	var rows []manifest.MAGRow
	seen := make(map[string]bool)
	for _, v := range views {
		mp, ok := v.File("manifest")
		if !ok {
			continue
		}
		part, err := manifest.ParseMAGs(mp)
		if err != nil {
			return err
		}
		for _, r := range part {
			if seen[r.MAGID] {
				continue
			}
			seen[r.MAGID] = true
			r.Line = 0
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return manifest.WriteMAGs(filepath.Join(target, samples.ManifestFile), rows)
}
