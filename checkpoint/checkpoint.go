// Package checkpoint periodically saves a running job's table so a long run
// leaves usable output behind if it is interrupted.
package checkpoint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"vastats/export"
	"vastats/mapreduce"
	"vastats/stats"
)

// Manifest describes the checkpoint written alongside it.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	Job       string    `yaml:"job"`
	Row       int64     `yaml:"row"`
	Total     int64     `yaml:"total"`
	Table     string    `yaml:"table"`
	WrittenAt time.Time `yaml:"written_at"`
}

// Writer is a mapreduce.Observer that writes the formatted accumulator every
// Every rows, replacing the previous checkpoint.
type Writer[R comparable] struct {
	job   stats.Job[R]
	dir   string
	every int64
	runID string
	log   zerolog.Logger
	now   func() time.Time

	written int
}

// New returns a Writer. A non-positive every disables periodic writes;
// Write can still be called directly.
func New[R comparable](job stats.Job[R], dir string, every int64, runID string, log zerolog.Logger) *Writer[R] {
	return &Writer[R]{
		job:   job,
		dir:   dir,
		every: every,
		runID: runID,
		log:   log.With().Str("job", job.Name()).Logger(),
		now:   time.Now,
	}
}

// Paths returns the table and manifest files this writer replaces.
func (w *Writer[R]) Paths() (table, manifest string) {
	base := filepath.Join(w.dir, w.job.Name()+"_checkpoint")
	return base + ".csv", base + ".yaml"
}

// Written returns how many checkpoints have been written.
func (w *Writer[R]) Written() int {
	return w.written
}

func (w *Writer[R]) Observe(s mapreduce.Step[*stats.Counter[R], *stats.Counter[R]]) error {
	if w.every <= 0 || s.Index%w.every != 0 {
		return nil
	}
	return w.Write(s.Index, s.Total, s.Acc)
}

// Write saves acc as of row. The table goes first so a manifest never points
// at an older table than it describes.
func (w *Writer[R]) Write(row, total int64, acc *stats.Counter[R]) error {
	tablePath, manifestPath := w.Paths()
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := export.WriteCSVFile(tablePath, w.job.Format(acc.Materialize())); err != nil {
		return fmt.Errorf("write checkpoint table: %w", err)
	}

	m := Manifest{
		RunID:     w.runID,
		Job:       w.job.Name(),
		Row:       row,
		Total:     total,
		Table:     filepath.Base(tablePath),
		WrittenAt: w.now().UTC(),
	}
	err := export.WriteFileAtomic(manifestPath, func(out io.Writer) error {
		enc := yaml.NewEncoder(out)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return fmt.Errorf("write checkpoint manifest: %w", err)
	}

	w.written++
	w.log.Debug().Int64("row", row).Str("path", tablePath).Msg("checkpoint written")
	return nil
}

// ReadManifest loads a manifest written by Writer.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}
