// Package cluster reads sequence-similarity clusters produced by MMseqs2
// (easy-cluster / createtsv output).
package cluster

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cazylab/ceclust/internal/errors"
	"github.com/cazylab/ceclust/internal/sets"
)

// Clusters maps a representative accession to the accessions of its members.
type Clusters map[string]sets.Strings

// maxLineBytes bounds a single TSV row.
const maxLineBytes = 1 << 20

// ParseFile parses the clustering output at path. See Parse.
func ParseFile(path string) (Clusters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open cluster file %s", path)
	}
	defer f.Close()

	clusters, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse cluster file %s", path)
	}
	return clusters, nil
}

// Parse reads tab-separated (representative, member) rows and groups them by
// representative. No header row is expected. Blank lines are skipped; any
// other row must carry exactly two non-empty columns.
//
// The returned clusters have been repaired so that every representative is a
// member of its own cluster.
func Parse(r io.Reader) (Clusters, error) {
	clusters := make(Clusters)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, errors.NewClusterFormat(line, "expected 2 tab-separated columns, got %d", len(fields))
		}
		rep := strings.TrimSpace(fields[0])
		member := strings.TrimSpace(fields[1])
		if rep == "" || member == "" {
			return nil, errors.NewClusterFormat(line, "empty accession")
		}

		members, ok := clusters[rep]
		if !ok {
			members = sets.New()
			clusters[rep] = members
		}
		members.Add(member)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "cannot read cluster rows after line %d", line)
	}

	clusters.Repair()
	return clusters, nil
}

// Repair makes every representative a member of its own cluster and returns
// how many clusters needed the fix.
func (c Clusters) Repair() int {
	repaired := 0
	for rep, members := range c {
		if !members.Has(rep) {
			members.Add(rep)
			repaired++
		}
	}
	return repaired
}

// Representatives returns the cluster IDs in ascending order.
func (c Clusters) Representatives() []string {
	out := make([]string, 0, len(c))
	for rep := range c {
		out = append(out, rep)
	}
	sort.Strings(out)
	return out
}

// MemberCount returns the number of (cluster, member) pairs.
func (c Clusters) MemberCount() int {
	n := 0
	for _, members := range c {
		n += members.Len()
	}
	return n
}
