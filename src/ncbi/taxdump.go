package ncbi

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/mholt/archiver"
	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/fsutil"
)

// ImportTaxdump builds an NCBITaxonomyDirFmt at dest from an NCBI taxdump archive (nodes.dmp and names.dmp are taken from it) and a prot.accession2taxid file, which is gzipped if needed
func ImportTaxdump(archive, accessionMap, dest string) error {
	tmp, err := ioutil.TempDir("", "q2types-taxdump-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)
	if err := archiver.Unarchive(archive, tmp); err != nil {
		return errors.Wrapf(err, "could not extract %v", archive)
	}
	stage, err := fsutil.NewStage(dest)
	if err != nil {
		return err
	}
	defer stage.Abort()
	for _, name := range []string{"nodes.dmp", "names.dmp"} {
		src, err := findFile(tmp, name)
		if err != nil {
			return errors.Wrapf(err, "%v is not a taxdump archive", archive)
		}
		if err := fsutil.CopyFile(src, filepath.Join(stage.Dir, name)); err != nil {
			return err
		}
	}
	if err := fsutil.CopyCompressed(accessionMap, filepath.Join(stage.Dir, "prot.accession2taxid.gz")); err != nil {
		return err
	}
	if err := NCBITaxonomyDirFmt.Validate(stage.Dir, format.Min); err != nil {
		return err
	}
	log.Printf("\timported NCBI taxonomy into %v", dest)
	return stage.Commit(dest)
}

// findFile returns the first file called name below root
func findFile(root, name string) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !info.IsDir() && info.Name() == name {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.Errorf("no %v found", name)
	}
	return found, nil
}
