package mapreduce

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"vastats/csvstream"
)

// DefaultBatchSize is the number of contiguous rows handed to a worker at
// once.
const DefaultBatchSize = 1000

// State is the lifecycle of the most recent run.
type State int32

const (
	NotStarted State = iota
	Streaming
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Streaming:
		return "Streaming"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	}
	return "Invalid"
}

type settings struct {
	workers   int
	batchSize int
	progress  csvstream.ProgressFunc
	logger    zerolog.Logger
}

type Option func(*settings)

// WithWorkers sets the number of map workers. Values below 2 map on the
// calling goroutine.
func WithWorkers(n int) Option {
	return func(s *settings) { s.workers = n }
}

func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithProgress installs a sink for the reader's per-row progress.
func WithProgress(fn csvstream.ProgressFunc) Option {
	return func(s *settings) { s.progress = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// Engine runs a Job over delimited files.
type Engine[M, R any] struct {
	job       Job[M, R]
	parser    RowParser
	observers []Observer[M, R]
	settings
	state atomic.Int32
}

func New[M, R any](job Job[M, R], parser RowParser, opts ...Option) *Engine[M, R] {
	e := &Engine[M, R]{
		job:    job,
		parser: parser,
		settings: settings{
			workers:   1,
			batchSize: DefaultBatchSize,
			logger:    zerolog.Nop(),
		},
	}
	for _, opt := range opts {
		opt(&e.settings)
	}
	return e
}

// WithObserver adds a per-row observer and returns e.
func (e *Engine[M, R]) WithObserver(o Observer[M, R]) *Engine[M, R] {
	e.observers = append(e.observers, o)
	return e
}

func (e *Engine[M, R]) State() State {
	return State(e.state.Load())
}

// Run reads every path in order and returns the final accumulator, or
// Job.Empty when there are no rows. Any read, parse, map or reduce failure
// discards the accumulator and returns an *AbortError.
func (e *Engine[M, R]) Run(ctx context.Context, paths ...string) (R, error) {
	var zero R
	e.state.Store(int32(Streaming))
	start := time.Now()

	reader, err := csvstream.Open(paths...)
	if err != nil {
		return zero, e.fail(&AbortError{Stage: StageRead, Err: err})
	}
	defer reader.Close()
	if e.progress != nil {
		reader.OnProgress(e.progress)
	}

	total, known := reader.Total()
	if !known {
		total = -1
	}
	e.logger.Info().
		Int("files", len(paths)).
		Int64("total", total).
		Int("workers", e.workers).
		Int("batch_size", e.batchSize).
		Msg("map-reduce started")

	f := &folder[M, R]{engine: e, total: total}
	if e.workers > 1 {
		err = e.runParallel(ctx, reader, f)
	} else {
		err = e.runSequential(ctx, reader, f)
	}
	if err != nil {
		return zero, e.fail(err)
	}

	e.state.Store(int32(Completed))
	elapsed := time.Since(start)
	e.logger.Info().
		Int64("rows", f.index).
		Dur("elapsed", elapsed).
		Float64("rows_per_sec", float64(f.index)/elapsed.Seconds()).
		Msg("map-reduce completed")

	if f.index == 0 {
		return e.job.Empty(), nil
	}
	return f.acc, nil
}

func (e *Engine[M, R]) fail(err error) error {
	e.state.Store(int32(Failed))
	e.logger.Error().Err(err).Msg("map-reduce aborted")
	return err
}

func (e *Engine[M, R]) runSequential(ctx context.Context, reader *csvstream.MultiReader, f *folder[M, R]) error {
	for {
		if err := ctx.Err(); err != nil {
			return &AbortError{Stage: StageCanceled, Row: f.index + 1, Err: err}
		}
		row, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &AbortError{Stage: StageRead, Row: f.index + 1, Err: err}
		}
		m, err := e.mapRow(row, f.index+1)
		if err != nil {
			return err
		}
		if err := f.fold(m); err != nil {
			return err
		}
	}
}

// batch is one ordered slot: a contiguous run of rows mapped by a worker.
// done is closed once mapped or err is set.
type batch[M any] struct {
	first  int64
	rows   []csvstream.Row
	mapped []M
	err    error
	done   chan struct{}
}

// runParallel reads and dispatches batches to a bounded worker pool and
// folds them strictly in dispatch order. At most 2×workers batches are in
// flight.
func (e *Engine[M, R]) runParallel(ctx context.Context, reader *csvstream.MultiReader, f *folder[M, R]) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(e.workers)

	window := 2 * e.workers
	var pending []*batch[M]
	var next int64 = 1

	// drain folds the oldest batch once its worker is done.
	drain := func() error {
		b := pending[0]
		pending = pending[1:]
		select {
		case <-b.done:
		case <-ctx.Done():
			return &AbortError{Stage: StageCanceled, Row: b.first, Err: ctx.Err()}
		}
		if b.err != nil {
			if errors.Is(b.err, context.Canceled) && ctx.Err() == nil {
				// Skipped after another batch failed; report that failure.
				cancel()
				if err := g.Wait(); err != nil {
					return err
				}
			}
			return b.err
		}
		for _, m := range b.mapped {
			if err := f.fold(m); err != nil {
				return err
			}
		}
		return nil
	}

	eof := false
	for !eof {
		if err := ctx.Err(); err != nil {
			return &AbortError{Stage: StageCanceled, Row: next, Err: err}
		}

		b := &batch[M]{first: next, done: make(chan struct{})}
		for len(b.rows) < e.batchSize {
			row, err := reader.Next()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				cancel()
				return &AbortError{Stage: StageRead, Row: next, Err: err}
			}
			b.rows = append(b.rows, row)
			next++
		}
		if len(b.rows) > 0 {
			pending = append(pending, b)
			g.Go(func() error { return e.mapBatch(gctx, b) })
		}

		for len(pending) > 0 && (len(pending) >= window || eof) {
			if err := drain(); err != nil {
				cancel()
				return err
			}
		}
	}
	return g.Wait()
}

// mapBatch parses and maps every row of b, stopping early once ctx is done.
// Only genuine failures are returned to the group.
func (e *Engine[M, R]) mapBatch(ctx context.Context, b *batch[M]) error {
	defer close(b.done)
	b.mapped = make([]M, 0, len(b.rows))
	for i, row := range b.rows {
		if err := ctx.Err(); err != nil {
			b.err = &AbortError{Stage: StageCanceled, Row: b.first + int64(i), Err: err}
			return nil
		}
		m, err := e.mapRow(row, b.first+int64(i))
		if err != nil {
			b.err = err
			return err
		}
		b.mapped = append(b.mapped, m)
	}
	b.rows = nil
	return nil
}

// mapRow parses and maps one row, turning panics into an AbortError.
func (e *Engine[M, R]) mapRow(row csvstream.Row, index int64) (m M, err error) {
	stage := StageParse
	defer func() {
		if r := recover(); r != nil {
			err = &AbortError{Stage: stage, Row: index, Err: &PanicError{Value: r}}
		}
	}()

	v, err := e.parser.Parse(row)
	if err != nil {
		return m, &AbortError{Stage: StageParse, Row: index, Err: err}
	}
	stage = StageMap
	m, err = e.job.Map(v)
	if err != nil {
		return m, &AbortError{Stage: StageMap, Row: index, Err: err}
	}
	return m, nil
}

// folder owns the accumulator. It is only touched by the coordinating
// goroutine.
type folder[M, R any] struct {
	engine *Engine[M, R]
	acc    R
	index  int64
	total  int64
}

func (f *folder[M, R]) fold(m M) error {
	acc, err := f.reduce(m)
	if err != nil {
		return err
	}
	f.acc = acc
	f.index++
	f.observe(m)
	return nil
}

func (f *folder[M, R]) reduce(m M) (acc R, err error) {
	row := f.index + 1
	defer func() {
		if r := recover(); r != nil {
			err = &AbortError{Stage: StageReduce, Row: row, Err: &PanicError{Value: r}}
		}
	}()
	acc, err = f.engine.job.Reduce(f.acc, f.index == 0, m)
	if err != nil {
		return acc, &AbortError{Stage: StageReduce, Row: row, Err: err}
	}
	return acc, nil
}

func (f *folder[M, R]) observe(m M) {
	step := Step[M, R]{Index: f.index, Total: f.total, Mapped: m, Acc: f.acc}
	for _, o := range f.engine.observers {
		if err := callObserver(o, step); err != nil {
			f.engine.logger.Warn().Err(err).Int64("row", f.index).Msg("observer failed")
		}
	}
}

func callObserver[M, R any](o Observer[M, R], s Step[M, R]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return o.Observe(s)
}
