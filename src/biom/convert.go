package biom

import (
	"strings"

	"github.com/will-rowe/q2types/src/errs"
	"github.com/will-rowe/q2types/src/fasta"
	"github.com/will-rowe/q2types/src/taxonomy"
)

// Taxonomy builds a taxonomy from the taxonomy observation metadata, joining the ranks with "; "
func (t *Table) Taxonomy() (*taxonomy.Table, error) {
	if !t.HasObservationMetadata() {
		return nil, errs.New(errs.TransformPrecondition, "observation metadata", "The BIOM table has no observation metadata, a taxonomy cannot be built from it.")
	}
	tax := taxonomy.NewTable()
	for i, id := range t.ObservationIDs {
		md := t.ObservationMetadata[i]
		v, ok := md["taxonomy"]
		if !ok {
			return nil, errs.New(errs.TransformPrecondition, "taxonomy", "Observation %q has no taxonomy metadata.", id).With("id", id)
		}
		var taxon string
		switch ranks := v.(type) {
		case []interface{}:
			parts := make([]string, len(ranks))
			for j, r := range ranks {
				rank, isString := r.(string)
				if !isString {
					return nil, errs.New(errs.TransformData, "taxonomy", "Rank %d of the taxonomy of observation %q is %v, not a string.", j+1, id, r).With("id", id)
				}
				parts[j] = rank
			}
			taxon = strings.Join(parts, "; ")
		case string:
			taxon = ranks
		default:
			return nil, errs.New(errs.TransformData, "taxonomy", "The taxonomy of observation %q is %v, not a list of ranks.", id, v).With("id", id)
		}
		if err := tax.Add(id, taxon); err != nil {
			return nil, err
		}
	}
	return tax, nil
}

// Sequences returns the sequence or Sequence observation metadata as FASTA records
func (t *Table) Sequences() ([]fasta.Record, error) {
	if !t.HasObservationMetadata() {
		return nil, errs.New(errs.TransformPrecondition, "observation metadata", "The BIOM table has no observation metadata, sequences cannot be extracted from it.")
	}
	recs := make([]fasta.Record, 0, len(t.ObservationIDs))
	for i, id := range t.ObservationIDs {
		md := t.ObservationMetadata[i]
		v, ok := md["sequence"]
		if !ok {
			v, ok = md["Sequence"]
		}
		if !ok {
			return nil, errs.New(errs.TransformPrecondition, "sequence", "Observation %q has no sequence or Sequence metadata.", id).With("id", id)
		}
		seq, isString := v.(string)
		if !isString || seq == "" {
			return nil, errs.New(errs.TransformData, "sequence", "The sequence of observation %q is %v, not a string.", id, v).With("id", id)
		}
		recs = append(recs, fasta.Record{ID: id, Sequence: seq})
	}
	return recs, nil
}
