// Package catalog registers every format and transformer with the host, and describes what is registered
package catalog

import (
	"io/ioutil"
	"sort"

	"github.com/will-rowe/q2types/src/biom"
	"github.com/will-rowe/q2types/src/fasta"
	"github.com/will-rowe/q2types/src/fastq"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/gff"
	"github.com/will-rowe/q2types/src/index"
	"github.com/will-rowe/q2types/src/manifest"
	"github.com/will-rowe/q2types/src/ncbi"
	"github.com/will-rowe/q2types/src/ordination"
	"github.com/will-rowe/q2types/src/samples"
	"github.com/will-rowe/q2types/src/tabular"
	"github.com/will-rowe/q2types/src/taxonomy"
	"github.com/will-rowe/q2types/src/transform"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// Options holds the external tool paths and the default validation level
type Options struct {
	Samtools string
	H5ls     string
	H5dump   string
	Biom     string
	Level    format.Level
}

// DefaultOptions looks every tool up on PATH and validates at the minimal level
func DefaultOptions() Options {
	return Options{
		Samtools: index.DefaultSamtools,
		H5ls:     biom.DefaultTools.H5ls,
		H5dump:   biom.DefaultTools.H5dump,
		Biom:     biom.DefaultTools.Biom,
		Level:    format.Min,
	}
}

// Tools returns the BIOM tool set
func (opts Options) Tools() biom.Tools {
	return biom.Tools{H5ls: opts.H5ls, H5dump: opts.H5dump, Biom: opts.Biom}
}

// RegisterAll fills and seals the format registry and the transformer graph
func RegisterAll(reg *format.Registry, g *transform.Graph, opts Options) {
	bam := index.NewBAMFormat(opts.Samtools)
	v210 := biom.NewV210Format(opts.Tools())

	for _, f := range fasta.Formats() {
		reg.RegisterFile(f)
	}
	for _, f := range manifest.Formats() {
		reg.RegisterFile(f)
	}
	reg.RegisterFile(
		fasta.QIIME1DemuxFormat,
		fastq.FastqGzFormat, fastq.MixedCaseFastqGzFormat,
		manifest.FastqManifestFormat, manifest.MultiMAGManifestFormat,
		samples.YamlFormat,
		taxonomy.TaxonomyFormat, taxonomy.HeaderlessTSVTaxonomyFormat, taxonomy.TSVTaxonomyFormat,
		gff.GFF3Format,
		ordination.OrdinationFormat,
		biom.BIOMV100Format, v210,
		bam,
		index.Bowtie2IndexFileFormat, index.HmmerPressedFileFormat, index.HMMProfileFormat, index.Kraken2DBFileFormat,
		tabular.Kraken2ReportFormat, tabular.Kraken2OutputFormat, tabular.Kraken2DBReportFormat,
		tabular.BLAST6Format, tabular.DifferentialFormat, tabular.ProcrustesStatisticsFmt, tabular.OrthologAnnotationFormat,
		ncbi.NCBITaxonomyNodesFormat, ncbi.NCBITaxonomyNamesFormat, ncbi.NCBITaxonomyBinaryFileFmt,
	)
	reg.RegisterDir(
		fasta.DNASequencesDirectoryFormat, fasta.AlignedDNASequencesDirectoryFormat, fasta.ProteinSequencesDirectoryFormat,
		samples.CasavaOneEightSingleLanePerSampleDirFmt, samples.CasavaOneEightLanelessPerSampleDirFmt,
		samples.SingleLanePerSampleSingleEndFastqDirFmt, samples.SingleLanePerSamplePairedEndFastqDirFmt,
		samples.MAGSequencesDirFmt, samples.MultiMAGSequencesDirFmt,
		taxonomy.TSVTaxonomyDirectoryFormat,
		gff.LociDirectoryFormat,
		ordination.OrdinationDirectoryFormat,
		biom.BIOMV100DirFmt, biom.NewV210DirFmt(v210),
		index.NewBAMDirFmt(bam),
		index.Bowtie2IndexDirFmt, index.HmmerPressedDirFmt, index.HMMProfileDirFmt, index.Kraken2DBDirFmt,
		tabular.Kraken2ReportDirectoryFormat, tabular.Kraken2OutputDirectoryFormat, tabular.Kraken2DBReportDirectoryFormat,
		tabular.BLAST6DirectoryFormat, tabular.DifferentialDirectoryFormat, tabular.ProcrustesStatisticsDirFmt, tabular.OrthologAnnotationDirFmt,
		ncbi.NCBITaxonomyDirFmt,
	)
	reg.Seal()
	transform.RegisterAll(g, opts.Tools())
	g.Seal()
}

// New returns a sealed registry and graph
func New(opts Options) (*format.Registry, *transform.Graph) {
	reg := format.NewRegistry()
	g := transform.NewGraph(reg)
	RegisterAll(reg, g, opts)
	return reg, g
}

// FileInfo describes a registered file format
type FileInfo struct {
	Name   string
	Medium string
	Sniffs bool
}

// EntryInfo describes one entry of a directory format
type EntryInfo struct {
	Name       string
	Path       string // the fixed path, or the pattern of a collection
	Format     string
	Collection bool
	Optional   bool
}

// DirInfo describes a registered directory format
type DirInfo struct {
	Name    string
	Closed  bool
	Entries []EntryInfo
}

// EdgeInfo is a registered transformer
type EdgeInfo struct {
	From string
	To   string
}

// Catalog is a serialisable description of the registered formats and transformers
type Catalog struct {
	Files []FileInfo
	Dirs  []DirInfo
	Edges []EdgeInfo
}

// Describe lists the registry and graph contents, sorted by name
func Describe(reg *format.Registry, g *transform.Graph) *Catalog {
	c := &Catalog{}
	for _, name := range reg.FileNames() {
		f, _ := reg.File(name)
		info := FileInfo{Name: name, Medium: f.Medium().String()}
		if s, ok := f.(interface{ CanSniff() bool }); ok {
			info.Sniffs = s.CanSniff()
		} else if _, ok := f.(format.Sniffer); ok {
			info.Sniffs = true
		}
		c.Files = append(c.Files, info)
	}
	for _, name := range reg.DirNames() {
		d, _ := reg.Dir(name)
		info := DirInfo{Name: name, Closed: d.IsClosed()}
		for _, e := range d.Entries() {
			ei := EntryInfo{Name: e.Name, Path: e.Path, Format: e.Format.Name(), Collection: e.IsCollection(), Optional: e.Optional}
			if e.IsCollection() {
				ei.Path = e.Pattern.String()
			}
			info.Entries = append(info.Entries, ei)
		}
		c.Dirs = append(c.Dirs, info)
	}
	for _, e := range g.Edges() {
		c.Edges = append(c.Edges, EdgeInfo{From: e.From, To: e.To})
	}
	return c
}

// Targets returns the formats a source format can be transformed into
func (c *Catalog) Targets(from string) []string {
	var out []string
	for _, e := range c.Edges {
		if e.From == from {
			out = append(out, e.To)
		}
	}
	sort.Strings(out)
	return out
}

// Dump is a method to save the catalog to file
func (c *Catalog) Dump(path string) error {
	b, err := msgpack.Marshal(c)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, b, 0644)
}

// Load is a method to load a catalog from file
func (c *Catalog) Load(path string) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(b, c)
}
