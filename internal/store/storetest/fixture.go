// Package storetest builds throwaway annotation databases with the
// cazy_webscraper schema for tests.
package storetest

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema is the subset of the cazy_webscraper schema the store queries.
const Schema = `
CREATE TABLE Genbanks (
	genbank_id INTEGER PRIMARY KEY,
	genbank_accession TEXT NOT NULL UNIQUE,
	sequence TEXT
);
CREATE TABLE CazyFamilies (
	family_id INTEGER PRIMARY KEY,
	family TEXT NOT NULL,
	subfamily TEXT
);
CREATE TABLE Genbanks_CazyFamilies (
	genbank_id INTEGER NOT NULL REFERENCES Genbanks(genbank_id),
	family_id INTEGER NOT NULL REFERENCES CazyFamilies(family_id),
	PRIMARY KEY (genbank_id, family_id)
);
CREATE TABLE Pdbs (
	pdb_id INTEGER PRIMARY KEY,
	pdb_accession TEXT
);
CREATE TABLE Genbanks_Pdbs (
	genbank_id INTEGER NOT NULL REFERENCES Genbanks(genbank_id),
	pdb_id INTEGER NOT NULL REFERENCES Pdbs(pdb_id),
	PRIMARY KEY (genbank_id, pdb_id)
);`

// Protein describes one Genbanks row and its links.
//
// An empty Sequence is stored as NULL. An empty string in PDBs links the
// protein to a Pdbs row whose pdb_accession is NULL.
type Protein struct {
	Accession string
	Sequence  string
	Families  []string
	PDBs      []string
}

// Create writes a SQLite database at path holding proteins and returns its path.
func Create(t testing.TB, path string, proteins ...Protein) string {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}

	familyIDs := map[string]int64{}
	for _, p := range proteins {
		var seq interface{}
		if p.Sequence != "" {
			seq = p.Sequence
		}
		res, err := db.Exec(`INSERT INTO Genbanks (genbank_accession, sequence) VALUES (?, ?)`, p.Accession, seq)
		if err != nil {
			t.Fatalf("insert genbank %s: %v", p.Accession, err)
		}
		gbkID, _ := res.LastInsertId()

		for _, fam := range p.Families {
			famID, ok := familyIDs[fam]
			if !ok {
				res, err := db.Exec(`INSERT INTO CazyFamilies (family) VALUES (?)`, fam)
				if err != nil {
					t.Fatalf("insert family %s: %v", fam, err)
				}
				famID, _ = res.LastInsertId()
				familyIDs[fam] = famID
			}
			if _, err := db.Exec(`INSERT INTO Genbanks_CazyFamilies (genbank_id, family_id) VALUES (?, ?)`, gbkID, famID); err != nil {
				t.Fatalf("link %s to %s: %v", p.Accession, fam, err)
			}
		}

		for _, pdb := range p.PDBs {
			var acc interface{}
			if pdb != "" {
				acc = pdb
			}
			res, err := db.Exec(`INSERT INTO Pdbs (pdb_accession) VALUES (?)`, acc)
			if err != nil {
				t.Fatalf("insert pdb %q: %v", pdb, err)
			}
			pdbID, _ := res.LastInsertId()
			if _, err := db.Exec(`INSERT INTO Genbanks_Pdbs (genbank_id, pdb_id) VALUES (?, ?)`, gbkID, pdbID); err != nil {
				t.Fatalf("link %s to pdb %q: %v", p.Accession, pdb, err)
			}
		}
	}
	return path
}
