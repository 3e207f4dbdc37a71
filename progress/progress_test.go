package progress

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vastats/csvstream"
)

func lines(buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(l), &m); err == nil {
			out = append(out, m)
		}
	}
	return out
}

func TestReporterThrottles(t *testing.T) {
	var buf bytes.Buffer
	r := New(zerolog.New(&buf), time.Hour)
	for i := int64(1); i <= 100; i++ {
		r.Report(csvstream.Progress{Files: 1, Line: i + 1, Row: i, Total: 100})
	}
	got := lines(&buf)
	require.Len(t, got, 1, "only the first row passes an hour-long interval")
	assert.Equal(t, float64(1), got[0]["row"])
	assert.Equal(t, float64(1), got[0]["pct"])

	assert.Equal(t, int64(100), r.Rows())
	r.Done()
	got = lines(&buf)
	require.Len(t, got, 2)
	assert.Equal(t, "input complete", got[1]["message"])
	assert.Equal(t, float64(100), got[1]["row"])
}

func TestReporterUnthrottled(t *testing.T) {
	var buf bytes.Buffer
	r := New(zerolog.New(&buf), 0)
	for i := int64(1); i <= 5; i++ {
		r.Report(csvstream.Progress{Files: 2, File: 1, Line: i + 1, Row: i, Total: -1})
	}
	got := lines(&buf)
	require.Len(t, got, 5)
	_, hasPct := got[0]["pct"]
	assert.False(t, hasPct, "unknown totals carry no percentage")
	assert.Equal(t, float64(1), got[0]["file"])
}

func TestReporterDoneWithoutRows(t *testing.T) {
	var buf bytes.Buffer
	New(zerolog.New(&buf), time.Second).Done()
	got := lines(&buf)
	require.Len(t, got, 1)
	assert.Equal(t, "no rows read", got[0]["message"])
}
