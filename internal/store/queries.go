package store

// Queries target the cazy_webscraper SQLite schema. Placeholders are written
// as '?' and rebound for Postgres.

// structuredFamiliesQuery returns every family annotation of the proteins that
// carry at least one family matching the prefix pattern and link to a
// structure with a non-null PDB accession.
const structuredFamiliesQuery = `
SELECT DISTINCT G.genbank_accession, F.family
FROM Genbanks AS G
INNER JOIN Genbanks_CazyFamilies AS GC ON G.genbank_id = GC.genbank_id
INNER JOIN CazyFamilies AS F ON GC.family_id = F.family_id
WHERE G.genbank_id IN (
	SELECT GC2.genbank_id
	FROM Genbanks_CazyFamilies AS GC2
	INNER JOIN CazyFamilies AS F2 ON GC2.family_id = F2.family_id
	WHERE F2.family LIKE ?
)
AND G.genbank_id IN (
	SELECT GP.genbank_id
	FROM Genbanks_Pdbs AS GP
	INNER JOIN Pdbs AS P ON GP.pdb_id = P.pdb_id
	WHERE P.pdb_accession IS NOT NULL
)
ORDER BY G.genbank_accession, F.family`

// familiesQuery returns all family annotations of one accession.
const familiesQuery = `
SELECT DISTINCT F.family
FROM Genbanks AS G
INNER JOIN Genbanks_CazyFamilies AS GC ON G.genbank_id = GC.genbank_id
INNER JOIN CazyFamilies AS F ON GC.family_id = F.family_id
WHERE G.genbank_accession = ?
ORDER BY F.family`

// structuredSequencesQuery returns the sequences of proteins annotated with
// one family that link to a structure with a non-null PDB accession.
const structuredSequencesQuery = `
SELECT DISTINCT G.genbank_accession, G.sequence
FROM Genbanks AS G
INNER JOIN Genbanks_CazyFamilies AS GC ON G.genbank_id = GC.genbank_id
INNER JOIN CazyFamilies AS F ON GC.family_id = F.family_id
INNER JOIN Genbanks_Pdbs AS GP ON G.genbank_id = GP.genbank_id
INNER JOIN Pdbs AS P ON GP.pdb_id = P.pdb_id
WHERE F.family = ?
AND P.pdb_accession IS NOT NULL
AND G.sequence IS NOT NULL
ORDER BY G.genbank_accession`
