// Package export writes materialized tables: rendered CSV for people, and
// long-format cells to Parquet or PostgreSQL for querying.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"vastats/tabular"
)

// WriteCSV writes the header followed by every row.
func WriteCSV(w io.Writer, t tabular.StringTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteCSVFile replaces path with t.
func WriteCSVFile(path string, t tabular.StringTable) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, t)
	})
}

// WriteFileAtomic fills a temporary file in path's directory and renames it
// over path, so readers never see a partial file.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
