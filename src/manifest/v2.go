package manifest

import (
	"os"
	"path/filepath"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/metadata"
)

// the path columns of a V2 manifest
const (
	ForwardPathColumn = "forward-absolute-filepath"
	ReversePathColumn = "reverse-absolute-filepath"
)

// ParseV2 reads a metadata TSV manifest, one row per sample with a column per direction
func ParseV2(path string, layout Layout) (*Manifest, error) {
	md, err := metadata.Load(path)
	if err != nil {
		if fe, ok := err.(*metadata.FileError); ok {
			return nil, errs.New(errs.ManifestShape, "metadata", "%v", fe.Message).At(fe.Line).InFile(path)
		}
		return nil, errs.Locate(err, path)
	}
	if md.Len() == 0 {
		return nil, errs.New(errs.ManifestShape, "no records", NoRecords).InFile(path)
	}
	var columns []string
	switch {
	case layout == PairedEnd:
		columns = []string{ForwardPathColumn, ReversePathColumn}
	case md.HasColumn(ForwardPathColumn):
		columns = []string{ForwardPathColumn}
		if layout == AnyLayout && md.HasColumn(ReversePathColumn) {
			columns = append(columns, ReversePathColumn)
		}
	default:
		columns = []string{AbsPathHeader}
	}
	allowed := make(map[string]bool)
	for _, c := range columns {
		if !md.HasColumn(c) {
			return nil, errs.New(errs.ManifestShape, "header", "A %v manifest requires the column %q.", layout, c).At(1).WithField(c).InFile(path)
		}
		allowed[c] = true
	}
	for _, c := range md.Columns {
		if !allowed[c] {
			return nil, errs.New(errs.ManifestShape, "header", "Unexpected column %q in a %v manifest.", c, layout).At(1).WithField(c).InFile(path)
		}
	}
	m := &Manifest{Path: path, Paired: len(columns) == 2}
	usedBy := make(map[string]int)
	for r, id := range md.IDs {
		n := md.Lines[r]
		for i, c := range columns {
			raw, _ := md.Get(id, c)
			if raw == "" {
				return nil, errs.New(errs.ManifestShape, "empty cell", "Empty cell in the %q column for sample %q on line %d.", c, id, n).At(n).WithField(c).InFile(path)
			}
			p := os.ExpandEnv(raw)
			if !filepath.IsAbs(p) {
				return nil, errs.New(errs.ManifestShape, "path type", "%q is not an absolute filepath.", p).At(n).WithField(c).InFile(path)
			}
			if _, err := os.Stat(p); err != nil {
				return nil, errs.New(errs.ManifestSemantics, "missing file", "%q does not exist.", p).At(n).WithField(c).InFile(path)
			}
			if prior, dup := usedBy[p]; dup {
				return nil, errs.New(errs.ManifestSemantics, "duplicate path", "%q on line %d is already used on line %d.", p, n, prior).At(n).Prior(prior).WithField(c).InFile(path)
			}
			usedBy[p] = n
			dir := Forward
			if i == 1 {
				dir = Reverse
			}
			m.Rows = append(m.Rows, Row{SampleID: id, Path: p, Direction: dir, Line: n})
		}
	}
	return m, nil
}

// V2ToV1 denormalises a V2 manifest into a V1 CSV at dst
func V2ToV1(src, dst string, layout Layout) error {
	m, err := ParseV2(src, layout)
	if err != nil {
		return err
	}
	return m.WriteV1(dst, Absolute)
}
