package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vastats/mapreduce"
	"vastats/parse"
	"vastats/stats"
)

func TestWriterEveryN(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	var b strings.Builder
	b.WriteString("Left\n")
	for i := 0; i < 5; i++ {
		b.WriteString(`"{""text"":""20/20"",""data_quality"":""Exact""}"` + "\n")
	}
	require.NoError(t, os.WriteFile(input, []byte(b.String()), 0o644))

	job := stats.NewDataQuality()
	out := filepath.Join(dir, "checkpoints")
	w := New[string](job, out, 2, "run-42", zerolog.Nop())
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	eng := mapreduce.New[*stats.Counter[string], *stats.Counter[string]](job, parse.NewAdapter(parse.Preprocessed{})).
		WithObserver(w)
	_, err := eng.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, w.Written())

	tablePath, manifestPath := w.Paths()
	assert.Equal(t, filepath.Join(out, "data_quality_checkpoint.csv"), tablePath)

	got, err := os.ReadFile(tablePath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "Any,4,4 (100.0%),0,0")

	m, err := ReadManifest(manifestPath)
	require.NoError(t, err)
	assert.True(t, fixed.Equal(m.WrittenAt), "written_at %v", m.WrittenAt)
	m.WrittenAt = time.Time{}
	assert.Equal(t, Manifest{
		RunID: "run-42",
		Job:   "data_quality",
		Row:   4,
		Total: 5,
		Table: "data_quality_checkpoint.csv",
	}, m)
}

func TestWriterDisabled(t *testing.T) {
	job := stats.NewDataQuality()
	w := New[string](job, t.TempDir(), 0, "run", zerolog.Nop())
	err := w.Observe(mapreduce.Step[*stats.Counter[string], *stats.Counter[string]]{Index: 10, Acc: job.Empty()})
	require.NoError(t, err)
	assert.Zero(t, w.Written())
}

func TestWriterUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	job := stats.NewDataQuality()
	w := New[string](job, filepath.Join(blocker, "sub"), 1, "run", zerolog.Nop())
	assert.Error(t, w.Write(1, 1, job.Empty()))
}

func TestReadManifestMissing(t *testing.T) {
	_, err := ReadManifest(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
