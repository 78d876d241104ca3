package fsutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Stage is a freshly allocated output directory that is moved into place only when complete
type Stage struct {
	Dir  string
	done bool
}

// NewStage allocates a staging directory next to dest (so the final rename stays on one filesystem), or in the system temp dir if dest is empty
func NewStage(dest string) (*Stage, error) {
	parent := os.TempDir()
	if dest != "" {
		parent = filepath.Dir(dest)
	}
	dir, err := os.MkdirTemp(parent, ".q2types-stage-*")
	if err != nil {
		return nil, errors.Wrap(err, "could not allocate a staging directory")
	}
	return &Stage{Dir: dir}, nil
}

// Commit renames the staging directory to dest, which must not exist yet
func (s *Stage) Commit(dest string) error {
	if s.done {
		return errors.New("stage already committed or aborted")
	}
	if _, err := os.Stat(dest); err == nil {
		return errors.Errorf("destination %v already exists", dest)
	}
	if err := os.Rename(s.Dir, dest); err != nil {
		return errors.Wrapf(err, "could not move output into %v", dest)
	}
	s.done = true
	return nil
}

// Abort removes the staging directory and everything in it, it is safe to call after Commit
func (s *Stage) Abort() {
	if s.done {
		return
	}
	s.done = true
	os.RemoveAll(s.Dir)
}
