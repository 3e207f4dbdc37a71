// Package progress turns the reader's per-row progress stream into
// throttled log lines.
package progress

import (
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"vastats/csvstream"
)

// Reporter logs csvstream.Progress at most once per interval. The first row
// is always logged. Use Report as a csvstream.ProgressFunc.
type Reporter struct {
	log   zerolog.Logger
	gate  rate.Sometimes
	start time.Time
	last  csvstream.Progress
	seen  bool
}

// New returns a Reporter. A non-positive interval logs every row.
func New(log zerolog.Logger, interval time.Duration) *Reporter {
	r := &Reporter{log: log, start: time.Now()}
	if interval > 0 {
		r.gate = rate.Sometimes{First: 1, Interval: interval}
	}
	return r
}

func (r *Reporter) Report(p csvstream.Progress) {
	r.last, r.seen = p, true
	r.gate.Do(func() {
		r.event(r.log.Info(), p).Msg("progress")
	})
}

// Rows returns the last data row reported.
func (r *Reporter) Rows() int64 {
	return r.last.Row
}

// Done logs the last progress seen, regardless of throttling.
func (r *Reporter) Done() {
	if !r.seen {
		r.log.Info().Msg("no rows read")
		return
	}
	r.event(r.log.Info(), r.last).
		Dur("elapsed", time.Since(r.start).Round(time.Millisecond)).
		Msg("input complete")
}

func (r *Reporter) event(e *zerolog.Event, p csvstream.Progress) *zerolog.Event {
	e = e.Int("file", p.File).
		Int("files", p.Files).
		Int64("line", p.Line).
		Int64("row", p.Row)
	if p.Total > 0 {
		e = e.Int64("total", p.Total).
			Float64("pct", 100*float64(p.Row)/float64(p.Total))
	}
	if secs := time.Since(r.start).Seconds(); secs > 0 {
		e = e.Float64("rows_per_sec", float64(p.Row)/secs)
	}
	return e
}
