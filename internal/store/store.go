// Package store is the read-only view of the local CAZyme annotation database:
// which families each protein carries and which proteins have a resolved
// structure.
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver, registered as "pgx"
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/logger"
)

// Dialect selects placeholder syntax.
type Dialect int

const (
	// SQLite uses '?' placeholders.
	SQLite Dialect = iota
	// Postgres uses '$n' placeholders.
	Postgres
)

// FamilyRecord is one (accession, family) annotation.
type FamilyRecord struct {
	Accession string
	Family    string
}

// SequenceRecord is a protein accession with its amino-acid sequence.
type SequenceRecord struct {
	Accession string
	Sequence  string
}

// Store runs the annotation queries against an open database handle.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// IsPostgresDSN reports whether dsn addresses a Postgres server rather than a
// SQLite file.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to the annotation store at dsn and verifies it is reachable.
// A postgres:// DSN uses pgx; anything else is treated as a SQLite file path
// and opened read-only.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("no annotation database configured"), errors.ErrStoreConnectivity),
			"set 'database' in ceclust.yaml, CECLUST_DATABASE, or pass --db")
	}

	driver, source, dialect := "sqlite", sqliteReadOnlyDSN(dsn), SQLite
	if IsPostgresDSN(dsn) {
		driver, source, dialect = "pgx", dsn, Postgres
	}
	logger.Logger.Debugw("Opening annotation store", "driver", driver)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, errors.MarkStore(err, "cannot open annotation store")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.MarkStore(err, "cannot reach annotation store")
	}
	return NewWithDB(db, dialect), nil
}

// NewWithDB wraps an existing handle. The Store takes ownership of db.
func NewWithDB(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// StructuredFamilies returns all family annotations of every protein that has
// a family starting with prefix and at least one resolved structure. Families
// not matching prefix are included for those proteins.
func (s *Store) StructuredFamilies(ctx context.Context, prefix string) ([]FamilyRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(structuredFamiliesQuery), likePrefix(prefix))
	if err != nil {
		return nil, errors.MarkStore(err, "cannot query structured proteins")
	}
	defer rows.Close()

	var out []FamilyRecord
	for rows.Next() {
		var rec FamilyRecord
		if err := rows.Scan(&rec.Accession, &rec.Family); err != nil {
			return nil, errors.MarkStore(err, "cannot scan structured protein row")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.MarkStore(err, "cannot read structured proteins")
	}
	return out, nil
}

// Families returns every family annotation of accession, regardless of
// prefix. An unknown accession yields an empty slice.
func (s *Store) Families(ctx context.Context, accession string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(familiesQuery), accession)
	if err != nil {
		return nil, errors.MarkStore(err, "cannot query families of %s", accession)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var fam string
		if err := rows.Scan(&fam); err != nil {
			return nil, errors.MarkStore(err, "cannot scan family of %s", accession)
		}
		out = append(out, fam)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.MarkStore(err, "cannot read families of %s", accession)
	}
	return out, nil
}

// StructuredSequences returns the sequences of proteins in family that link
// to a structure with a PDB accession. Proteins without a stored sequence are
// skipped.
func (s *Store) StructuredSequences(ctx context.Context, family string) ([]SequenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(structuredSequencesQuery), family)
	if err != nil {
		return nil, errors.MarkStore(err, "cannot query sequences of %s", family)
	}
	defer rows.Close()

	var out []SequenceRecord
	for rows.Next() {
		var rec SequenceRecord
		if err := rows.Scan(&rec.Accession, &rec.Sequence); err != nil {
			return nil, errors.MarkStore(err, "cannot scan sequence row")
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.MarkStore(err, "cannot read sequences of %s", family)
	}
	return out, nil
}

func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	return rebindDollar(query)
}

// rebindDollar rewrites '?' placeholders as $1, $2, ...
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// likePrefix turns a family prefix into a LIKE pattern.
func likePrefix(prefix string) string {
	return prefix + "%"
}

func sqliteReadOnlyDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?mode=ro"
}
