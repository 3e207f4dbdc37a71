package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"vastats/checkpoint"
	"vastats/export"
	"vastats/mapreduce"
	"vastats/parse"
	"vastats/progress"
	"vastats/stats"
	"vastats/tabular"
)

type summary struct {
	job       string
	runID     string
	rows      int64
	tableRows int
	cells     int
	output    string
	loaded    int64
	pgLoaded  bool
	elapsed   time.Duration
}

func (s summary) print(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", cyan(s.job), gray(s.runID))
	fmt.Fprintf(w, "  Rows read:   %s\n", humanize.Comma(s.rows))
	fmt.Fprintf(w, "  Table rows:  %s\n", humanize.Comma(int64(s.tableRows)))
	fmt.Fprintf(w, "  Cells:       %s\n", humanize.Comma(int64(s.cells)))
	fmt.Fprintf(w, "  Output:      %s\n", green(s.output))
	if s.pgLoaded {
		fmt.Fprintf(w, "  PostgreSQL:  %s cells\n", humanize.Comma(s.loaded))
	}
	fmt.Fprintf(w, "  Done in %s\n", s.elapsed.Round(time.Millisecond))
}

// runJob wires the reader, adapter, engine and sinks for one job.
func runJob[R comparable](ctx context.Context, env *environment, job stats.Job[R], inputs []string, out string) (summary, error) {
	start := time.Now()
	log := env.log.With().Str("job", job.Name()).Str("run_id", env.runID).Logger()
	reporter := progress.New(log, env.cfg.ProgressInterval)

	adapter := parse.NewAdapter(parse.Preprocessed{}, parse.WithPlusMerge(env.cfg.MergePlus))
	eng := mapreduce.New[*stats.Counter[R], *stats.Counter[R]](job, adapter,
		mapreduce.WithWorkers(env.cfg.Workers),
		mapreduce.WithBatchSize(env.cfg.BatchSize),
		mapreduce.WithProgress(reporter.Report),
		mapreduce.WithLogger(log),
	)
	if env.cfg.Checkpointing() {
		eng.WithObserver(checkpoint.New(job, env.cfg.CheckpointDir, env.cfg.CheckpointEvery, env.runID, log))
	}

	acc, err := eng.Run(ctx, inputs...)
	reporter.Done()
	if err != nil {
		return summary{}, err
	}

	table := acc.Materialize()
	cells := export.Cells(env.runID, job.Name(), table)
	s := summary{
		job:       job.Name(),
		runID:     env.runID,
		rows:      reporter.Rows(),
		tableRows: len(table.Rows),
		cells:     len(cells),
		output:    out,
	}

	if err := writeOutput(env.cfg.Format, out, env.runID, job, table); err != nil {
		return s, err
	}
	log.Info().Str("path", out).Str("format", env.cfg.Format).Msg("table written")

	if env.cfg.PGURL != "" {
		n, err := loadPostgres(ctx, env.cfg.PGURL, cells)
		if err != nil {
			return s, err
		}
		s.loaded, s.pgLoaded = n, true
		log.Info().Int64("cells", n).Msg("table loaded into postgres")
	}

	s.elapsed = time.Since(start)
	return s, nil
}

func writeOutput[R comparable](format, out, runID string, job stats.Job[R], table tabular.Table[R, string]) error {
	if format == "parquet" {
		_, err := export.WriteParquet(out, runID, job.Name(), table)
		return err
	}
	return export.WriteCSVFile(out, job.Format(table))
}

func loadPostgres(ctx context.Context, url string, cells []export.Cell) (int64, error) {
	pg, err := export.OpenPostgres(ctx, url)
	if err != nil {
		return 0, err
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	return pg.Load(ctx, cells)
}
