// Package partition splits per-sample and per-MAG collections into parts and collates parts back together
package partition

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
	"github.com/will-rowe/q2types/src/manifest"
	"github.com/will-rowe/q2types/src/samples"
)

// Warn receives the warnings of this package, the host may redirect it
var Warn = log.New(os.Stderr, "WARN: ", log.Ldate|log.Ltime)

// unit is one indivisible member of a collection, with the files that travel with it
type unit struct {
	id    string
	files []string // relative to the collection root
}

// collection is a bound directory broken into units
type collection struct {
	view  *format.View
	noun  string // what a unit is called in messages
	units []unit
}

// Part is one written partition
type Part struct {
	Key   string
	Dir   string
	Units []string
}

// Split returns the bounds of n contiguous chunks of units items, the first units%n chunks get one extra item
func Split(units, n int) [][2]int {
	if n <= 0 {
		return nil
	}
	size, extra := units/n, units%n
	chunks := make([][2]int, n)
	start := 0
	for i := range chunks {
		end := start + size
		if i < extra {
			end++
		}
		chunks[i] = [2]int{start, end}
		start = end
	}
	return chunks
}

// Clamp resolves the requested number of partitions: 0 means one per unit, and more partitions than units warns once and clamps
func Clamp(n, units int, noun string) int {
	if n == 0 {
		return units
	}
	if n > units {
		Warn.Printf("You have requested a number of partitions '%d' that is greater than your number of %ss '%d.' Your data will be partitioned by %s into '%d' partitions.", n, noun, units, noun, units)
		return units
	}
	return n
}

// open binds and validates dir, then breaks it into units
func open(d *format.DirectoryFormat, dir string) (*collection, error) {
	v, err := d.Bind(dir)
	if err != nil {
		return nil, err
	}
	if err := v.Validate(format.Min); err != nil {
		return nil, err
	}
	c := &collection{view: v, noun: "sample"}
	switch d {
	case samples.SingleLanePerSampleSingleEndFastqDirFmt, samples.SingleLanePerSamplePairedEndFastqDirFmt:
		m, err := samples.ReadManifest(v)
		if err != nil {
			return nil, err
		}
		index := make(map[string]int)
		for _, r := range m.Rows {
			i, ok := index[r.SampleID]
			if !ok {
				i = len(c.units)
				index[r.SampleID] = i
				c.units = append(c.units, unit{id: r.SampleID})
			}
			c.units[i].files = append(c.units[i].files, r.Path)
		}
	case samples.MultiMAGSequencesDirFmt:
		ids, bySample := samples.MAGSamples(v)
		for _, id := range ids {
			u := unit{id: id}
			for _, mag := range bySample[id] {
				u.files = append(u.files, mag.Path)
			}
			c.units = append(c.units, u)
		}
	case samples.MAGSequencesDirFmt:
		c.noun = "MAG"
		seen := make(map[string]string)
		for _, mag := range samples.MAGs(v) {
			if prior, dup := seen[mag.ID]; dup {
				return nil, errs.New(errs.Structural, "duplicate mag", "MAG %q is stored twice, as %q and %q", mag.ID, prior, mag.Path).InFile(dir)
			}
			seen[mag.ID] = mag.Path
			c.units = append(c.units, unit{id: mag.ID, files: []string{mag.Path}})
		}
	default:
		return nil, errors.Errorf("%v cannot be partitioned", d.Name())
	}
	if len(c.units) == 0 {
		return nil, errs.New(errs.TransformPrecondition, "no units", "%v holds no %ss to partition", dir, c.noun)
	}
	return c, nil
}

// Partition splits the collection in dir into n parts written under out, which must not exist.
// Parts are keyed by unit ID when every part holds one unit and by 1-based index otherwise
func Partition(d *format.DirectoryFormat, dir string, n int, out string) ([]Part, error) {
	if n < 0 {
		return nil, errs.New(errs.TransformPrecondition, "partition count", "The number of partitions must not be negative, got %d.", n).With("n", n)
	}
	c, err := open(d, dir)
	if err != nil {
		return nil, err
	}
	n = Clamp(n, len(c.units), c.noun)
	stage, err := fsutil.NewStage(out)
	if err != nil {
		return nil, err
	}
	defer stage.Abort()
	var parts []Part
	for i, chunk := range Split(len(c.units), n) {
		members := c.units[chunk[0]:chunk[1]]
		key := strconv.Itoa(i + 1)
		if n == len(c.units) {
			key = members[0].id
		}
		part := Part{Key: key, Dir: filepath.Join(out, key)}
		target := filepath.Join(stage.Dir, key)
		if err := os.Mkdir(target, 0755); err != nil {
			return nil, errors.Wrapf(err, "could not create partition %v", key)
		}
		for _, u := range members {
			part.Units = append(part.Units, u.id)
			for _, rel := range u.files {
				if err := link(c.view, rel, target); err != nil {
					return nil, err
				}
			}
		}
		if err := c.writeSidecars(part.Units, target); err != nil {
			return nil, err
		}
		if err := d.Validate(target, format.Min); err != nil {
			return nil, errors.Wrapf(err, "partition %v is invalid", key)
		}
		parts = append(parts, part)
	}
	if err := stage.Commit(out); err != nil {
		return nil, err
	}
	return parts, nil
}

// link hard links (or copies) a member into the same relative place under target
func link(v *format.View, rel, target string) error {
	dst := filepath.Join(target, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return fsutil.LinkOrCopy(v.Abs(rel), dst)
}

// writeSidecars writes the filtered manifest and the metadata of a part
func (c *collection) writeSidecars(ids []string, target string) error {
	v := c.view
	switch v.Format() {
	case samples.SingleLanePerSampleSingleEndFastqDirFmt, samples.SingleLanePerSamplePairedEndFastqDirFmt:
		m, err := samples.ReadManifest(v)
		if err != nil {
			return err
		}
		if err := m.Filter(ids).WriteV1(filepath.Join(target, samples.ManifestFile), manifest.Relative); err != nil {
			return err
		}
		if md, ok := v.File("metadata"); ok {
			return fsutil.LinkOrCopy(md, filepath.Join(target, samples.MetadataFile))
		}
	case samples.MultiMAGSequencesDirFmt:
		mp, ok := v.File("manifest")
		if !ok {
			return nil
		}
		rows, err := manifest.ParseMAGs(mp)
		if err != nil {
			return err
		}
		keep := make(map[string]bool)
		for _, id := range ids {
			keep[id] = true
		}
		var kept []manifest.MAGRow
		for _, r := range rows {
			if keep[r.SampleID] {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return nil
		}
		return manifest.WriteMAGs(filepath.Join(target, samples.ManifestFile), kept)
	}
	return nil
}

// String describes a part
func (p Part) String() string {
	return fmt.Sprintf("%v: %d units in %v", p.Key, len(p.Units), p.Dir)
}
