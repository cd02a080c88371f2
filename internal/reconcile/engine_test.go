package reconcile

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazylab/ceclust/internal/annotation"
	"github.com/cazylab/ceclust/internal/cluster"
	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/sets"
	"github.com/cazylab/ceclust/internal/store"
	"github.com/cazylab/ceclust/internal/store/storetest"
)

// fakeLookup is an in-memory annotation store that records every query.
type fakeLookup struct {
	families map[string][]string
	fail     map[string]error
	calls    map[string]int
}

func newFakeLookup(families map[string][]string) *fakeLookup {
	return &fakeLookup{families: families, fail: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeLookup) Families(_ context.Context, acc string) ([]string, error) {
	f.calls[acc]++
	if err, ok := f.fail[acc]; ok {
		return nil, err
	}
	return f.families[acc], nil
}

func parse(t *testing.T, rows ...string) cluster.Clusters {
	t.Helper()
	c, err := cluster.Parse(strings.NewReader(strings.Join(rows, "\n")))
	require.NoError(t, err)
	return c
}

func memberOf(t *testing.T, res *Result, clusterID, acc string) MemberResolution {
	t.Helper()
	for _, m := range res.Members {
		if m.ClusterID == clusterID && m.Accession == acc {
			return m
		}
	}
	t.Fatalf("no member row for %s in %s", acc, clusterID)
	return MemberResolution{}
}

func TestReconcile_RepairedClusterWithResolvedMember(t *testing.T) {
	clusters := parse(t, "A\tB", "A\tC")
	idx := annotation.StructuredIndex{"B": sets.New("CE1")}
	lookup := newFakeLookup(map[string][]string{
		"A": {"CE12", "GH5"},
		"C": {"CE12"},
	})

	res, err := Reconcile(context.Background(), idx, clusters, lookup, Options{})
	require.NoError(t, err)

	require.Len(t, res.Clusters, 1)
	c := res.Clusters[0]
	assert.Equal(t, "A", c.ClusterID)
	assert.True(t, c.Members.Equal(sets.New("A", "B", "C")))
	assert.True(t, c.Resolved)
	assert.Equal(t, 3, c.MemberCount())
	assert.True(t, c.Families.Equal(sets.New("CE1", "CE12", "GH5")))

	require.Len(t, res.Members, 3)
	assert.True(t, memberOf(t, res, "A", "B").Resolved)
	// A resolved cluster can hold unresolved members.
	assert.False(t, memberOf(t, res, "A", "A").Resolved)
	assert.False(t, memberOf(t, res, "A", "C").Resolved)
	assert.Equal(t, 2, res.LiveLookups)
	assert.Equal(t, 1, res.ResolvedClusters())
}

func TestReconcile_SingletonUnresolved(t *testing.T) {
	clusters := parse(t, "X\tX")
	lookup := newFakeLookup(map[string][]string{"X": {"CE19"}})

	res, err := Reconcile(context.Background(), annotation.StructuredIndex{}, clusters, lookup, Options{})
	require.NoError(t, err)

	require.Len(t, res.Clusters, 1)
	assert.True(t, res.Clusters[0].Members.Equal(sets.New("X")))
	assert.False(t, res.Clusters[0].Resolved)
	assert.Equal(t, 0, res.ResolvedClusters())
}

func TestReconcile_IndexedMemberSkipsLiveQuery(t *testing.T) {
	clusters := parse(t, "P\tP")
	idx := annotation.StructuredIndex{"P": sets.New("CE12", "CE1")}
	lookup := newFakeLookup(map[string][]string{"P": {"SHOULD_NOT_BE_USED"}})

	res, err := Reconcile(context.Background(), idx, clusters, lookup, Options{})
	require.NoError(t, err)

	m := memberOf(t, res, "P", "P")
	assert.True(t, m.Resolved)
	assert.True(t, m.Families.Equal(sets.New("CE12", "CE1")))
	assert.Zero(t, lookup.calls["P"])
	assert.Zero(t, res.LiveLookups)
}

func TestReconcile_EmptyLookupIsNotAnError(t *testing.T) {
	clusters := parse(t, "Q\tQ")
	lookup := newFakeLookup(nil)

	res, err := Reconcile(context.Background(), annotation.StructuredIndex{}, clusters, lookup, Options{})
	require.NoError(t, err)

	m := memberOf(t, res, "Q", "Q")
	assert.False(t, m.Resolved)
	assert.Equal(t, 0, m.Families.Len())
	assert.Equal(t, 0, res.Clusters[0].Families.Len())
}

func TestReconcile_LookupFailureAbortsRun(t *testing.T) {
	clusters := parse(t, "A\tB", "C\tD")
	lookup := newFakeLookup(nil)
	lookup.fail["D"] = errors.MarkStore(errors.New("database is locked"), "cannot query families of D")

	res, err := Reconcile(context.Background(), annotation.StructuredIndex{}, clusters, lookup, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsStoreConnectivity(err))
	assert.Contains(t, err.Error(), "cluster C")
}

func TestReconcile_QueriesEachProteinOnce(t *testing.T) {
	// Clusters are not required to be disjoint.
	clusters := cluster.Clusters{
		"A": sets.New("A", "S"),
		"B": sets.New("B", "S"),
	}
	lookup := newFakeLookup(map[string][]string{"S": {"CE4"}})

	res, err := Reconcile(context.Background(), annotation.StructuredIndex{}, clusters, lookup, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, lookup.calls["S"])
	assert.Equal(t, 3, res.LiveLookups)
	assert.True(t, memberOf(t, res, "A", "S").Families.Equal(sets.New("CE4")))
	assert.True(t, memberOf(t, res, "B", "S").Families.Equal(sets.New("CE4")))
}

func TestReconcile_Properties(t *testing.T) {
	clusters := parse(t,
		"R1\tR1", "R1\tM1", "R1\tM2",
		"R2\tM3",
		"R3\tR3", "R3\tM4", "R3\tM5", "R3\tM6",
	)
	idx := annotation.StructuredIndex{
		"M2": sets.New("CE12"),
		"M5": sets.New("CE19", "CE1"),
	}
	lookup := newFakeLookup(map[string][]string{
		"R1": {"CE12"}, "M1": {"CE12", "CBM35"},
		"R2": {"CE19"}, "M3": {},
		"R3": {"CE19"}, "M4": {"GH43"},
	})

	res, err := Reconcile(context.Background(), idx, clusters, lookup, Options{})
	require.NoError(t, err)
	require.Len(t, res.Clusters, len(clusters))

	for _, c := range res.Clusters {
		// Resolved iff any member is indexed.
		anyIndexed := false
		for m := range c.Members {
			if _, ok := idx[m]; ok {
				anyIndexed = true
			}
		}
		assert.Equal(t, anyIndexed, c.Resolved, "cluster %s", c.ClusterID)

		// Self-membership.
		assert.True(t, c.Members.Has(c.ClusterID))

		// Family set is the union of member families; row count equals member count.
		union := sets.New()
		rows := 0
		for _, m := range res.Members {
			if m.ClusterID != c.ClusterID {
				continue
			}
			rows++
			assert.True(t, c.Members.Has(m.Accession))
			_, indexed := idx[m.Accession]
			assert.Equal(t, indexed, m.Resolved)
			union.AddAll(m.Families)
		}
		assert.True(t, c.Families.Equal(union), "cluster %s", c.ClusterID)
		assert.Equal(t, c.MemberCount(), rows)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	clusters := parse(t, "A\tB", "A\tC", "D\tD")
	idx := annotation.StructuredIndex{"C": sets.New("CE12")}
	lookup := newFakeLookup(map[string][]string{"A": {"CE12"}, "B": {"GH5"}, "D": {"CE19"}})

	first, err := Reconcile(context.Background(), idx, clusters, lookup, Options{})
	require.NoError(t, err)
	second, err := Reconcile(context.Background(), idx, clusters, lookup, Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, BuildTables(first).Summary, BuildTables(second).Summary)
	assert.ElementsMatch(t, BuildTables(first).Proteins, BuildTables(second).Proteins)
	// Inputs are left untouched.
	assert.True(t, clusters["A"].Equal(sets.New("A", "B", "C")))
	assert.True(t, idx["C"].Equal(sets.New("CE12")))
}

func TestReconcile_ResultDoesNotAliasIndex(t *testing.T) {
	idx := annotation.StructuredIndex{"A": sets.New("CE1")}
	res, err := Reconcile(context.Background(), idx, parse(t, "A\tA"), newFakeLookup(nil), Options{})
	require.NoError(t, err)

	res.Members[0].Families.Add("MUTATED")
	assert.False(t, idx["A"].Has("MUTATED"))
}

func TestReconcile_Progress(t *testing.T) {
	clusters := parse(t, "A\tA", "B\tB", "C\tC")
	var calls [][2]int

	_, err := Reconcile(context.Background(), annotation.StructuredIndex{}, clusters, newFakeLookup(nil), Options{
		Progress: func(done, total int) { calls = append(calls, [2]int{done, total}) },
	})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
}

func TestReconcile_NilLookupForUnresolvedMember(t *testing.T) {
	_, err := Reconcile(context.Background(), annotation.StructuredIndex{}, parse(t, "A\tA"), nil, Options{})
	assert.Error(t, err)
}

func TestReconcile_AgainstSQLiteStore(t *testing.T) {
	path := storetest.Create(t, filepath.Join(t.TempDir(), "cazy_db"),
		storetest.Protein{Accession: "WP_1", Families: []string{"CE12"}, PDBs: []string{"1ABC"}},
		storetest.Protein{Accession: "WP_2", Families: []string{"CE12", "CBM35"}},
		storetest.Protein{Accession: "WP_3", Families: []string{"CE19"}},
	)
	st, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	idx, err := annotation.Build(ctx, st, "CE")
	require.NoError(t, err)

	res, err := Reconcile(ctx, idx, parse(t, "WP_2\tWP_1", "WP_3\tWP_3", "WP_3\tWP_9"), st, Options{})
	require.NoError(t, err)

	tables := BuildTables(res)
	assert.ElementsMatch(t, []SummaryRow{
		{ClusterID: "WP_2", Resolved: true, MemberCount: 2, Families: []string{"CBM35", "CE12"}, MemberAccessions: "WP_1 WP_2"},
		{ClusterID: "WP_3", Resolved: false, MemberCount: 2, Families: []string{"CE19"}, MemberAccessions: "WP_3 WP_9"},
	}, tables.Summary)
	assert.ElementsMatch(t, []ProteinRow{
		{ClusterID: "WP_2", Accession: "WP_1", Resolved: true, Families: []string{"CE12"}},
		{ClusterID: "WP_2", Accession: "WP_2", Resolved: false, Families: []string{"CBM35", "CE12"}},
		{ClusterID: "WP_3", Accession: "WP_3", Resolved: false, Families: []string{"CE19"}},
		{ClusterID: "WP_3", Accession: "WP_9", Resolved: false, Families: []string{}},
	}, tables.Proteins)
}
