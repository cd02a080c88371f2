package reconcile

import (
	"strconv"
	"strings"

	"github.com/cazylab/ceclust/internal/table"
)

// Column headers of the two output tables.
var (
	SummaryHeader = []string{"Cluster", "Resolved_structure", "#ofProteins", "Families", "Cluster_members"}
	ProteinHeader = []string{"Cluster", "Genbank_accession", "Resolved_structure", "Families"}
)

// SummaryRow is one row of the per-cluster summary.
type SummaryRow struct {
	ClusterID        string
	Resolved         bool
	MemberCount      int
	Families         []string
	MemberAccessions string
}

// ProteinRow is one row of the per-protein detail table.
type ProteinRow struct {
	ClusterID string
	Accession string
	Resolved  bool
	Families  []string
}

// Tables holds both output tables of one run.
type Tables struct {
	Summary  []SummaryRow
	Proteins []ProteinRow
}

// BuildTables turns a Result into output rows, one summary row per cluster and
// one protein row per (cluster, member) pair. Sets are rendered sorted.
func BuildTables(res *Result) Tables {
	t := Tables{
		Summary:  make([]SummaryRow, 0, len(res.Clusters)),
		Proteins: make([]ProteinRow, 0, len(res.Members)),
	}
	for _, c := range res.Clusters {
		t.Summary = append(t.Summary, SummaryRow{
			ClusterID:        c.ClusterID,
			Resolved:         c.Resolved,
			MemberCount:      c.MemberCount(),
			Families:         c.Families.Sorted(),
			MemberAccessions: c.Members.Join(" "),
		})
	}
	for _, m := range res.Members {
		t.Proteins = append(t.Proteins, ProteinRow{
			ClusterID: m.ClusterID,
			Accession: m.Accession,
			Resolved:  m.Resolved,
			Families:  m.Families.Sorted(),
		})
	}
	return t
}

// SummaryTable renders the cluster summary for writing.
func (t Tables) SummaryTable() table.Table {
	rows := make([][]string, 0, len(t.Summary))
	for _, r := range t.Summary {
		rows = append(rows, []string{
			r.ClusterID,
			formatBool(r.Resolved),
			strconv.Itoa(r.MemberCount),
			strings.Join(r.Families, " "),
			r.MemberAccessions,
		})
	}
	return table.Table{Header: SummaryHeader, Rows: rows}
}

// ProteinTable renders the protein detail table for writing.
func (t Tables) ProteinTable() table.Table {
	rows := make([][]string, 0, len(t.Proteins))
	for _, r := range t.Proteins {
		rows = append(rows, []string{
			r.ClusterID,
			r.Accession,
			formatBool(r.Resolved),
			strings.Join(r.Families, " "),
		})
	}
	return table.Table{Header: ProteinHeader, Rows: rows}
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
