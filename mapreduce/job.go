// Package mapreduce streams rows from delimited files through a parse
// adapter and a Job, folding mapped values into one accumulator in row
// order. Mapping may run on a worker pool; reduction never does.
package mapreduce

import (
	"errors"
	"fmt"

	"vastats/csvstream"
	"vastats/visit"
)

// ErrAborted matches every error returned by a failed run.
var ErrAborted = errors.New("map-reduce aborted")

// Job is one reduction. Map must have no side effects outside its return
// value, since it may run concurrently. Reduce runs on a single goroutine in
// row order; first is true on the first call, when acc is the zero R. Empty
// is the result of a run over zero rows.
type Job[M, R any] interface {
	Map(v visit.Visit) (M, error)
	Reduce(acc R, first bool, m M) (R, error)
	Empty() R
}

// Funcs adapts plain functions to Job. A nil EmptyFunc yields the zero R.
type Funcs[M, R any] struct {
	MapFunc    func(visit.Visit) (M, error)
	ReduceFunc func(acc R, first bool, m M) (R, error)
	EmptyFunc  func() R
}

func (f Funcs[M, R]) Map(v visit.Visit) (M, error) { return f.MapFunc(v) }

func (f Funcs[M, R]) Reduce(acc R, first bool, m M) (R, error) {
	return f.ReduceFunc(acc, first, m)
}

func (f Funcs[M, R]) Empty() R {
	if f.EmptyFunc == nil {
		var zero R
		return zero
	}
	return f.EmptyFunc()
}

// Step is what an Observer sees after each reduction.
type Step[M, R any] struct {
	Index  int64 // 1-based row index across all files
	Total  int64 // pre-counted rows, -1 when unknown
	Mapped M
	Acc    R
}

// Observer is called on the coordinating goroutine after every successful
// reduction. A returned error is logged and otherwise ignored.
type Observer[M, R any] interface {
	Observe(s Step[M, R]) error
}

type ObserverFunc[M, R any] func(s Step[M, R]) error

func (f ObserverFunc[M, R]) Observe(s Step[M, R]) error { return f(s) }

// RowParser turns a raw row into a Visit. *parse.Adapter implements it.
type RowParser interface {
	Parse(row csvstream.Row) (visit.Visit, error)
}

// Stage names the part of the pipeline an AbortError came from.
type Stage string

const (
	StageRead     Stage = "read"
	StageParse    Stage = "parse"
	StageMap      Stage = "map"
	StageReduce   Stage = "reduce"
	StageCanceled Stage = "canceled"
)

// AbortError ends a run. Row is the 1-based row index, or 0 when the failure
// is not tied to a row.
type AbortError struct {
	Stage Stage
	Row   int64
	Err   error
}

func (e *AbortError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%v: %s row %d: %v", ErrAborted, e.Stage, e.Row, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrAborted, e.Stage, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

func (e *AbortError) Is(target error) bool { return target == ErrAborted }

// PanicError is the cause recorded when a job or parser panics.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
