package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vastats/export"
)

const visitsCSV = `Left,Left +,Right
"{""text"":""20/20"",""data_quality"":""Exact"",""laterality"":""OS"",""extracted_value"":""20/20""}",,"{""text"":""20/40-ish"",""data_quality"":""ConvertibleFuzzy"",""extracted_value"":""20/40""}"
"{""text"":""20/30"",""data_quality"":""Exact"",""extracted_value"":""20/30""}",,
,,"{""text"":""??"",""data_quality"":""Unusable"",""extracted_value"":""""}"
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-level=error", "--progress-interval=0s"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visits.csv")
	require.NoError(t, os.WriteFile(path, []byte(visitsCSV), 0o644))
	return path
}

func TestDataQualityCSV(t *testing.T) {
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "dq.csv")

	stdout, err := run(t, "--workers=2", "--batch-size=1", "data_quality", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "data_quality")
	assert.Contains(t, stdout, "Rows read:   3")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Field,Total,Exact,Convertible,Unusable", lines[0])
	assert.Equal(t, "Any,4,2 (50.0%),1 (25.0%),1 (25.0%)", lines[1])
	assert.Equal(t, "Left,2,2 (100.0%),0,0", lines[2])
}

func TestParquetOutput(t *testing.T) {
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "dq.parquet")

	_, err := run(t, "--format=parquet", "data_quality", in, out)
	require.NoError(t, err)

	cells, err := parquet.ReadFile[export.Cell](out)
	require.NoError(t, err)
	require.NotEmpty(t, cells)
	assert.Equal(t, "data_quality", cells[0].Job)
	assert.Equal(t, export.Cell{RunID: cells[0].RunID, Job: "data_quality", Row: "Any", Column: "Total", Count: 4}, cells[0])
}

func TestUnexpectedPatternsMinCount(t *testing.T) {
	in := writeInput(t)
	out := filepath.Join(t.TempDir(), "patterns.csv")

	_, err := run(t, "--min-count=1", "unexpected_patterns", in, out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Text,Data Quality,Error,Any")
	assert.Contains(t, string(b), "??,Unusable,,1")
}

func TestCheckpointsWritten(t *testing.T) {
	in := writeInput(t)
	dir := t.TempDir()

	_, err := run(t, "--checkpoint-every=1", "--checkpoint-dir="+dir, "plus_minus", in, filepath.Join(dir, "pm.csv"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "plus_minus_checkpoint.csv"))
	assert.FileExists(t, filepath.Join(dir, "plus_minus_checkpoint.yaml"))
}

func TestMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "visit_stats", filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.csv"))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "out.csv"))
}

func TestNeedsInputAndOutput(t *testing.T) {
	_, err := run(t, "va_distribution", "only.csv")
	assert.Error(t, err)
}

func TestEveryJobHasACommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, c := range commands {
		assert.True(t, names[c.name], c.name)
	}
}
