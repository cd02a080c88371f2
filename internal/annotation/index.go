// Package annotation builds the in-memory index of proteins with a resolved
// 3-D structure, keyed by protein accession.
package annotation

import (
	"context"

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/sets"
	"github.com/cazylab/ceclust/internal/store"
)

// Source is the bulk side of the annotation store.
type Source interface {
	StructuredFamilies(ctx context.Context, prefix string) ([]store.FamilyRecord, error)
}

// StructuredIndex maps the accession of every structurally resolved protein
// to its family codes. Every entry has at least one family.
type StructuredIndex map[string]sets.Strings

// Build queries src once and indexes every protein that carries a family
// starting with prefix and has at least one resolved structure. All family
// annotations returned for such a protein are kept, including ones outside
// prefix. An empty index is not an error.
func Build(ctx context.Context, src Source, prefix string) (StructuredIndex, error) {
	records, err := src.StructuredFamilies(ctx, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot build structured index for %s*", prefix)
	}
	return FromRecords(records), nil
}

// FromRecords groups (accession, family) records into an index.
func FromRecords(records []store.FamilyRecord) StructuredIndex {
	idx := make(StructuredIndex)
	for _, rec := range records {
		fams, ok := idx[rec.Accession]
		if !ok {
			fams = sets.New()
			idx[rec.Accession] = fams
		}
		fams.Add(rec.Family)
	}
	return idx
}

// Lookup returns the families of accession and whether it is resolved.
func (idx StructuredIndex) Lookup(accession string) (sets.Strings, bool) {
	fams, ok := idx[accession]
	return fams, ok
}

// Len returns the number of resolved proteins.
func (idx StructuredIndex) Len() int { return len(idx) }
