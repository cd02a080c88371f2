package annotation

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/sets"
	"github.com/cazylab/ceclust/internal/table"
)

// CacheHeader is the header row of a saved index.
var CacheHeader = []string{"Genbank_accession", "Families"}

// Table renders idx as one row per accession, families space-joined, sorted
// by accession.
func (idx StructuredIndex) Table() table.Table {
	accs := make([]string, 0, len(idx))
	for acc := range idx {
		accs = append(accs, acc)
	}
	sort.Strings(accs)

	rows := make([][]string, 0, len(accs))
	for _, acc := range accs {
		rows = append(rows, []string{acc, idx[acc].Join(" ")})
	}
	return table.Table{Header: CacheHeader, Rows: rows}
}

// WriteFile saves idx to path, replacing any previous file atomically.
func WriteFile(path string, idx StructuredIndex) error {
	return table.WriteFiles(table.File{Path: path, Table: idx.Table()})
}

// LoadFile reads an index saved by WriteFile.
func LoadFile(path string) (StructuredIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open index file %s", path)
	}
	defer f.Close()

	idx, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid index file %s", path)
	}
	return idx, nil
}

// Read parses a saved index.
func Read(r io.Reader) (StructuredIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CacheHeader)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, err
	}
	if header[0] != CacheHeader[0] || header[1] != CacheHeader[1] {
		return nil, errors.Newf("unexpected header %q", strings.Join(header, ","))
	}

	idx := make(StructuredIndex)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		acc := strings.TrimSpace(rec[0])
		fams := strings.Fields(rec[1])
		if acc == "" {
			return nil, errors.New("empty accession")
		}
		if len(fams) == 0 {
			return nil, errors.Newf("accession %s has no families", acc)
		}
		if prev, ok := idx[acc]; ok {
			prev.Add(fams...)
			continue
		}
		idx[acc] = sets.New(fams...)
	}
	return idx, nil
}
