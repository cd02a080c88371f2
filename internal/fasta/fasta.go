// Package fasta writes protein sequences in FASTA format.
package fasta

import (
	"bufio"
	"io"
	"strings"
)

// LineWidth is the number of residues per sequence line.
const LineWidth = 60

// Record is a single FASTA entry.
type Record struct {
	ID       string
	Sequence string
}

// Write writes records to w, one ">ID" header per record followed by the
// sequence wrapped at LineWidth residues. Whitespace inside sequences is
// dropped.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := bw.WriteString(">" + rec.ID + "\n"); err != nil {
			return err
		}
		seq := strings.Join(strings.Fields(rec.Sequence), "")
		for start := 0; start < len(seq); start += LineWidth {
			end := start + LineWidth
			if end > len(seq) {
				end = len(seq)
			}
			if _, err := bw.WriteString(seq[start:end] + "\n"); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
