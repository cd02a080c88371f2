package store

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/store/storetest"
)

func openFixture(t *testing.T) *Store {
	t.Helper()
	path := storetest.Create(t, filepath.Join(t.TempDir(), "cazy_db"),
		storetest.Protein{Accession: "AAA1", Sequence: "MKTAYIAK", Families: []string{"CE12", "CE1"}, PDBs: []string{"1ABC"}},
		storetest.Protein{Accession: "BBB2", Sequence: "MSTNPKPQ", Families: []string{"CE19", "GH5"}, PDBs: []string{"2XYZ", "3XYZ"}},
		storetest.Protein{Accession: "CCC3", Families: []string{"CE12"}},
		storetest.Protein{Accession: "DDD4", Families: []string{"CE12"}, PDBs: []string{""}},
		storetest.Protein{Accession: "EEE5", Sequence: "MAAA", Families: []string{"GH5"}, PDBs: []string{"4GHI"}},
		storetest.Protein{Accession: "FFF6", Families: []string{"CE19"}, PDBs: []string{"5JKL"}},
	)
	st, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStructuredFamilies(t *testing.T) {
	st := openFixture(t)

	recs, err := st.StructuredFamilies(context.Background(), "CE")
	require.NoError(t, err)

	// CCC3 has no structure, DDD4 only a structure without accession,
	// EEE5 no CE family. BBB2 keeps its non-CE family.
	assert.Equal(t, []FamilyRecord{
		{Accession: "AAA1", Family: "CE1"},
		{Accession: "AAA1", Family: "CE12"},
		{Accession: "BBB2", Family: "CE19"},
		{Accession: "BBB2", Family: "GH5"},
		{Accession: "FFF6", Family: "CE19"},
	}, recs)
}

func TestStructuredFamilies_NoMatches(t *testing.T) {
	st := openFixture(t)

	recs, err := st.StructuredFamilies(context.Background(), "PL")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFamilies(t *testing.T) {
	st := openFixture(t)
	ctx := context.Background()

	fams, err := st.Families(ctx, "BBB2")
	require.NoError(t, err)
	assert.Equal(t, []string{"CE19", "GH5"}, fams)

	fams, err = st.Families(ctx, "CCC3")
	require.NoError(t, err)
	assert.Equal(t, []string{"CE12"}, fams)

	fams, err = st.Families(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, fams)
	assert.Empty(t, fams)
}

func TestStructuredSequences(t *testing.T) {
	st := openFixture(t)

	recs, err := st.StructuredSequences(context.Background(), "CE19")
	require.NoError(t, err)
	// BBB2 links to two structures but is returned once; FFF6 has no sequence.
	assert.Equal(t, []SequenceRecord{{Accession: "BBB2", Sequence: "MSTNPKPQ"}}, recs)
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "absent_db"))
	require.Error(t, err)
	assert.True(t, errors.IsStoreConnectivity(err))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsStoreConnectivity(err))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u@localhost/cazy"))
	assert.True(t, IsPostgresDSN("postgresql://u@localhost/cazy"))
	assert.False(t, IsPostgresDSN("database/cazy_db"))
	assert.False(t, IsPostgresDSN("file:cazy_db?mode=ro"))
}

func TestRebindDollar(t *testing.T) {
	assert.Equal(t, "a = $1 AND b LIKE $2", rebindDollar("a = ? AND b LIKE ?"))
	assert.Equal(t, "no params", rebindDollar("no params"))
}

func TestSqliteReadOnlyDSN(t *testing.T) {
	assert.Equal(t, "file:database/cazy_db?mode=ro", sqliteReadOnlyDSN("database/cazy_db"))
	assert.Equal(t, "file:x.db?cache=shared", sqliteReadOnlyDSN("file:x.db?cache=shared"))
}

// Minimal sqlmock tests to verify query structure and error marking

func TestStructuredFamilies_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	st := NewWithDB(db, SQLite)
	defer st.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT G.genbank_accession, F.family")).
		WithArgs("CE%").
		WillReturnRows(sqlmock.NewRows([]string{"genbank_accession", "family"}).
			AddRow("AAA1", "CE12").
			AddRow("AAA1", "CE1"))

	recs, err := st.StructuredFamilies(context.Background(), "CE")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilies_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	st := NewWithDB(db, Postgres)
	defer st.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE G.genbank_accession = $1")).
		WithArgs("AAA1").
		WillReturnRows(sqlmock.NewRows([]string{"family"}).AddRow("CE12"))

	fams, err := st.Families(context.Background(), "AAA1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CE12"}, fams)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFamilies_QueryErrorIsStoreConnectivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	st := NewWithDB(db, SQLite)
	defer st.Close()

	mock.ExpectQuery("SELECT DISTINCT F.family").
		WithArgs("AAA1").
		WillReturnError(errors.New("database is locked"))

	_, err = st.Families(context.Background(), "AAA1")
	require.Error(t, err)
	assert.True(t, errors.IsStoreConnectivity(err))
	assert.Contains(t, err.Error(), "AAA1")
}

func TestStructuredFamilies_RowErrorIsStoreConnectivity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	st := NewWithDB(db, SQLite)
	defer st.Close()

	mock.ExpectQuery("SELECT DISTINCT G.genbank_accession").
		WillReturnRows(sqlmock.NewRows([]string{"genbank_accession", "family"}).
			AddRow("AAA1", "CE12").
			RowError(0, errors.New("disk I/O error")))

	_, err = st.StructuredFamilies(context.Background(), "CE")
	require.Error(t, err)
	assert.True(t, errors.IsStoreConnectivity(err))
}
