// Package table writes the CSV tables a run produces.
package table

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/cazylab/ceclust/internal/errors"
)

// Table is a header plus rows of already-rendered cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// File pairs a table with its destination path.
type File struct {
	Path  string
	Table Table
}

// WriteFiles writes every table as CSV. Each table is first written to a
// temporary file next to its destination; destinations are only replaced
// once all tables were written, so a failure leaves no new output behind.
func WriteFiles(files ...File) error {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range files {
		t := f.Table
		tmp, err := stage(f.Path, func(w io.Writer) error { return writeCSV(w, t) })
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			cleanup()
			return errors.Wrapf(err, "cannot install %s", f.Path)
		}
	}
	return nil
}

// WriteAtomic writes path through fn. path is replaced only if fn succeeds.
func WriteAtomic(path string, fn func(io.Writer) error) error {
	tmp, err := stage(path, fn)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot install %s", path)
	}
	return nil
}

// stage writes a temporary file next to path and returns its name.
func stage(path string, fn func(io.Writer) error) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "cannot create output dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", errors.Wrapf(err, "cannot create temp file for %s", path)
	}

	err = tmp.Chmod(0o644)
	if err == nil {
		err = fn(tmp)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "cannot write %s", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", errors.Wrapf(err, "cannot write %s", path)
	}
	return tmp.Name(), nil
}

func writeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	return cw.WriteAll(t.Rows)
}
