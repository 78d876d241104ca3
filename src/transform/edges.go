package transform

import (
	"path/filepath"
	"strings"

	"github.com/will-rowe/q2types/src/biom"
	"github.com/will-rowe/q2types/src/fasta"
	"github.com/will-rowe/q2types/src/format"
	"github.com/will-rowe/q2types/src/manifest"
	"github.com/will-rowe/q2types/src/samples"
	"github.com/will-rowe/q2types/src/taxonomy"
)

// the strict counterpart of each mixed case FASTA format
var strictFASTA = map[*fasta.Format]*fasta.Format{
	fasta.MixedCaseDNAFASTAFormat:        fasta.DNAFASTAFormat,
	fasta.MixedCaseRNAFASTAFormat:        fasta.RNAFASTAFormat,
	fasta.MixedCaseAlignedDNAFASTAFormat: fasta.AlignedDNAFASTAFormat,
	fasta.MixedCaseAlignedRNAFASTAFormat: fasta.AlignedRNAFASTAFormat,
}

// the V1 counterpart of each V2 manifest format
var manifestV1 = map[*manifest.Format]*manifest.Format{
	manifest.SingleEndFastqManifestPhred33V2: manifest.SingleEndFastqManifestPhred33,
	manifest.SingleEndFastqManifestPhred64V2: manifest.SingleEndFastqManifestPhred64,
	manifest.PairedEndFastqManifestPhred33V2: manifest.PairedEndFastqManifestPhred33,
	manifest.PairedEndFastqManifestPhred64V2: manifest.PairedEndFastqManifestPhred64,
}

// RegisterAll adds every transformer to g, the HDF5 BIOM edges read tables with the given tools.
// The legacy TaxonomyFormat deliberately has no edge to TSVTaxonomyFormat
func RegisterAll(g *Graph, tools biom.Tools) {
	for _, mf := range manifest.Formats() {
		to := samples.SingleLanePerSampleSingleEndFastqDirFmt
		if mf.Layout() == manifest.PairedEnd {
			to = samples.SingleLanePerSamplePairedEndFastqDirFmt
		}
		g.Register(mf.Name(), to.Name(), manifestToSLPS(mf))
	}
	for v2, v1 := range manifestV1 {
		g.Register(v2.Name(), v1.Name(), v2ToV1(v2.Layout()))
	}
	g.Register(samples.SingleLanePerSamplePairedEndFastqDirFmt.Name(), samples.SingleLanePerSampleSingleEndFastqDirFmt.Name(), pairedToSingle)
	for _, d := range []*format.DirectoryFormat{samples.CasavaOneEightSingleLanePerSampleDirFmt, samples.CasavaOneEightLanelessPerSampleDirFmt} {
		g.Register(d.Name(), samples.SingleLanePerSampleSingleEndFastqDirFmt.Name(), casavaToSLPS(d, manifest.SingleEnd))
		g.Register(d.Name(), samples.SingleLanePerSamplePairedEndFastqDirFmt.Name(), casavaToSLPS(d, manifest.PairedEnd))
	}
	g.Register(samples.SingleLanePerSampleSingleEndFastqDirFmt.Name(), fasta.QIIME1DemuxFormat.Name(), slpsToQIIME1)

	for name, read := range map[string]func(string) (*biom.Table, error){
		biom.BIOMV100Format.Name(): biom.ReadV100,
		biom.BIOMV210Format.Name(): func(path string) (*biom.Table, error) { return biom.ReadV210(path, tools) },
	} {
		g.Register(name, taxonomy.TSVTaxonomyDirectoryFormat.Name(), biomToTaxonomy(read))
		g.Register(name, fasta.DNASequencesDirectoryFormat.Name(), biomToSequences(read))
	}

	for mixed, strict := range strictFASTA {
		g.Register(mixed.Name(), strict.Name(), upperCase(mixed))
	}
	g.Register(taxonomy.HeaderlessTSVTaxonomyFormat.Name(), taxonomy.TSVTaxonomyFormat.Name(), headerlessToTSV)
}

// v2ToV1 denormalises a V2 manifest
func v2ToV1(layout manifest.Layout) Func {
	return func(in, out string) error {
		return manifest.V2ToV1(in, filepath.Join(out, filepath.Base(in)), layout)
	}
}

// biomToTaxonomy writes the taxonomy observation metadata of a table as taxonomy.tsv
func biomToTaxonomy(read func(string) (*biom.Table, error)) Func {
	return func(in, out string) error {
		table, err := read(in)
		if err != nil {
			return err
		}
		tax, err := table.Taxonomy()
		if err != nil {
			return err
		}
		return tax.Write(filepath.Join(out, taxonomy.TSVFile))
	}
}

// biomToSequences writes the sequence observation metadata of a table as dna-sequences.fasta
func biomToSequences(read func(string) (*biom.Table, error)) Func {
	return func(in, out string) error {
		table, err := read(in)
		if err != nil {
			return err
		}
		recs, err := table.Sequences()
		if err != nil {
			return err
		}
		return fasta.WriteFile(filepath.Join(out, fasta.DNASequencesFile), recs)
	}
}

// upperCase streams a mixed case FASTA, re-emitting every sequence in upper case
func upperCase(from *fasta.Format) Func {
	return func(in, out string) error {
		r, err := from.Open(in)
		if err != nil {
			return err
		}
		defer r.Close()
		w, err := fasta.Create(filepath.Join(out, filepath.Base(in)))
		if err != nil {
			return err
		}
		for r.Next() {
			rec := r.Record()
			rec.Sequence = strings.ToUpper(rec.Sequence)
			if err := w.Write(rec); err != nil {
				w.Close()
				return err
			}
		}
		if err := r.Err(); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
}

// headerlessToTSV adds the Feature ID and Taxon header
func headerlessToTSV(in, out string) error {
	t, err := taxonomy.ReadHeaderless(in)
	if err != nil {
		return err
	}
	return t.Write(filepath.Join(out, filepath.Base(in)))
}
