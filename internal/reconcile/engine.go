// Package reconcile labels clusters and their member proteins as structurally
// resolved or not and aggregates their family annotations.
package reconcile

import (
	"context"

	"github.com/cazylab/ceclust/internal/annotation"
	"github.com/cazylab/ceclust/internal/cluster"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/sets"
)

// FamilyLookup is the single-accession side of the annotation store, used for
// proteins that are not in the structured index.
type FamilyLookup interface {
	Families(ctx context.Context, accession string) ([]string, error)
}

// ClusterResolution is the outcome for one cluster.
type ClusterResolution struct {
	ClusterID string
	// Resolved is true iff at least one member is in the structured index.
	Resolved bool
	Members  sets.Strings
	// Families is the union of the families of all members.
	Families sets.Strings
}

// MemberCount returns the number of proteins in the cluster.
func (c ClusterResolution) MemberCount() int { return c.Members.Len() }

// MemberResolution is the outcome for one protein within one cluster.
// Resolved describes the protein itself, not its cluster.
type MemberResolution struct {
	ClusterID string
	Accession string
	Resolved  bool
	Families  sets.Strings
}

// Result holds one ClusterResolution per cluster and one MemberResolution
// per (cluster, member) pair, both ordered by cluster ID then accession.
type Result struct {
	Clusters []ClusterResolution
	Members  []MemberResolution
	// LiveLookups counts the store queries issued for unresolved proteins.
	LiveLookups int
}

// ResolvedClusters returns how many clusters contain a resolved protein.
func (r *Result) ResolvedClusters() int {
	n := 0
	for _, c := range r.Clusters {
		if c.Resolved {
			n++
		}
	}
	return n
}

// Options tunes a Reconcile call.
type Options struct {
	// Progress, if set, is called after each cluster with the number of
	// clusters done and the total.
	Progress func(done, total int)
}

// Reconcile resolves every cluster against idx. Proteins absent from idx get
// their families from lookup; each such protein is queried at most once per
// call. A lookup failure aborts the whole call.
//
// Neither idx nor clusters is modified.
func Reconcile(ctx context.Context, idx annotation.StructuredIndex, clusters cluster.Clusters, lookup FamilyLookup, opts Options) (*Result, error) {
	r := &resolver{idx: idx, lookup: lookup, queried: map[string]sets.Strings{}}
	res := &Result{
		Clusters: make([]ClusterResolution, 0, len(clusters)),
		Members:  make([]MemberResolution, 0, clusters.MemberCount()),
	}

	reps := clusters.Representatives()
	for i, rep := range reps {
		members := clusters[rep]

		cr := ClusterResolution{
			ClusterID: rep,
			Members:   members.Clone(),
			Families:  sets.New(),
		}
		for _, acc := range members.Sorted() {
			if _, ok := idx.Lookup(acc); ok {
				cr.Resolved = true
				break
			}
		}

		for _, acc := range members.Sorted() {
			resolved, fams, err := r.resolve(ctx, acc)
			if err != nil {
				return nil, errors.Wrapf(err, "cluster %s", rep)
			}
			cr.Families.AddAll(fams)
			res.Members = append(res.Members, MemberResolution{
				ClusterID: rep,
				Accession: acc,
				Resolved:  resolved,
				Families:  fams,
			})
		}
		res.Clusters = append(res.Clusters, cr)

		if opts.Progress != nil {
			opts.Progress(i+1, len(reps))
		}
	}

	res.LiveLookups = r.lookups
	return res, nil
}

type resolver struct {
	idx     annotation.StructuredIndex
	lookup  FamilyLookup
	queried map[string]sets.Strings
	lookups int
}

// resolve returns whether acc is resolved and the families it contributes.
// The returned set is a fresh copy.
func (r *resolver) resolve(ctx context.Context, acc string) (bool, sets.Strings, error) {
	if fams, ok := r.idx.Lookup(acc); ok {
		return true, fams.Clone(), nil
	}
	if fams, ok := r.queried[acc]; ok {
		return false, fams.Clone(), nil
	}
	if r.lookup == nil {
		return false, nil, errors.AssertionFailedf("no family lookup for unresolved protein %s", acc)
	}

	list, err := r.lookup.Families(ctx, acc)
	if err != nil {
		return false, nil, errors.Wrapf(err, "cannot look up families of %s", acc)
	}
	r.lookups++
	fams := sets.New(list...)
	r.queried[acc] = fams
	return false, fams.Clone(), nil
}
