package samples

import (
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
	"gopkg.in/yaml.v3"
)

// MetadataFile is the name of the per-sample directory metadata
const MetadataFile = "metadata.yml"

// Metadata is the contents of metadata.yml
type Metadata struct {
	PhredOffset int `yaml:"phred-offset"`
}

// YamlFormat is metadata.yml, a mapping holding the PHRED offset
var YamlFormat = format.NewTextFormat("YamlFormat", func(path string, level format.Level) error {
	_, err := ReadMetadata(path)
	return err
})

// ReadMetadata parses and checks a metadata.yml
func ReadMetadata(path string) (Metadata, error) {
	var md Metadata
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return md, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return md, errs.New(errs.Structural, "yaml", "%v is not a YAML mapping: %v", path, err).InFile(path)
	}
	v, ok := raw["phred-offset"]
	if !ok {
		return md, errs.New(errs.Structural, "phred offset", "%v has no phred-offset key", path).InFile(path)
	}
	offset, ok := v.(int)
	if !ok || (offset != fastq.Phred33 && offset != fastq.Phred64) {
		return md, errs.New(errs.Content, "phred offset", "phred-offset must be 33 or 64, found %v", v).InFile(path).With("found", v)
	}
	md.PhredOffset = offset
	return md, nil
}

// WriteMetadata writes a metadata.yml
func WriteMetadata(path string, offset int) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("refusing to overwrite %v", path)
	}
	data, err := yaml.Marshal(Metadata{PhredOffset: offset})
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, data, 0644)
}
