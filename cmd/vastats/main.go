// Command vastats tabulates visual acuity notes from delimited exports.
//
//	vastats data_quality visits_2019.csv visits_2020.csv.gz out.csv
//
// Each subcommand runs one reduction over every input file in order and
// writes the resulting table to OUT.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vastats/config"
	"vastats/logging"
	"vastats/stats"
)

// environment is what every subcommand needs once flags are parsed.
type environment struct {
	cfg    *config.Config
	log    zerolog.Logger
	runID  string
	out    io.Writer
	closer io.Closer
}

type command struct {
	name  string
	short string
	run   func(ctx context.Context, env *environment, inputs []string, out string) (summary, error)
}

var commands = []command{
	{
		name:  "data_quality",
		short: "Count exact, convertible and unusable notes per field",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			return runJob[string](ctx, env, stats.NewDataQuality(), inputs, out)
		},
	},
	{
		name:  "visit_stats",
		short: "Count visits with text, recognized formats and equivalents per laterality",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			return runJob[string](ctx, env, stats.NewVisitStats(), inputs, out)
		},
	},
	{
		name:  "plus_minus",
		short: "Share of Snellen notes recorded with plus or minus letters",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			return runJob[string](ctx, env, stats.NewPlusMinus(), inputs, out)
		},
	},
	{
		name:  "near_total_loss",
		short: "Corrected distance notes recording CF, HM, LP or NLP",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			return runJob[string](ctx, env, stats.NewNearTotalLoss(), inputs, out)
		},
	},
	{
		name:  "va_distribution",
		short: "Distribution of acuity bins by data quality",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			return runJob[string](ctx, env, stats.NewDistribution(), inputs, out)
		},
	},
	{
		name:  "unexpected_patterns",
		short: "Most frequent texts that parsed badly",
		run: func(ctx context.Context, env *environment, inputs []string, out string) (summary, error) {
			job := stats.NewUnexpectedPatterns()
			job.MinCount = env.cfg.MinCount
			return runJob[stats.Pattern](ctx, env, job, inputs, out)
		},
	},
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configFile string
		env        environment
	)

	root := &cobra.Command{
		Use:          "vastats",
		Short:        "Tabulate visual acuity notes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			lvl, _ := cfg.Level()
			if cfg.Workers == 0 {
				cfg.Workers = runtime.NumCPU()
			}
			env.cfg = cfg
			env.log, env.closer = logging.New(cmd.ErrOrStderr(), lvl, cfg.LogFile)
			env.runID = uuid.NewString()
			env.out = cmd.OutOrStdout()
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if env.closer != nil {
				return env.closer.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.Int(config.FlagName("workers"), 0, "map workers (0 = one per CPU, 1 = no pool)")
	pf.Int(config.FlagName("batch_size"), 1000, "rows handed to a worker at a time")
	pf.Bool(config.FlagName("merge_plus"), true, "fold \"X +\" columns into field X")
	pf.Int64(config.FlagName("checkpoint_every"), 0, "write a checkpoint every N rows (0 = off)")
	pf.String(config.FlagName("checkpoint_dir"), "", "directory for checkpoints")
	pf.String(config.FlagName("log_level"), "info", "debug, info, warn or error")
	pf.String(config.FlagName("log_file"), "", "also log JSON to this rotating file")
	pf.Duration(config.FlagName("progress_interval"), 5*time.Second, "time between progress lines")
	pf.String(config.FlagName("format"), "csv", "output format: csv or parquet")
	pf.String(config.FlagName("pg_url"), "", "also load the table into PostgreSQL")
	pf.Int64(config.FlagName("min_count"), stats.DefaultMinCount, "fewest occurrences reported by unexpected_patterns")

	for _, c := range commands {
		root.AddCommand(jobCmd(c, &env))
	}
	return root
}

func jobCmd(c command, env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   c.name + " FILE... OUT",
		Short: c.short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			inputs, out := args[:len(args)-1], args[len(args)-1]
			s, err := c.run(ctx, env, inputs, out)
			if err != nil {
				return fmt.Errorf("%s: %w", c.name, err)
			}
			s.print(env.out)
			return nil
		},
	}
}
