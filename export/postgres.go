package export

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

var cellColumns = []string{"run_id", "job", "row_label", "column_label", "count"}

// Postgres loads Cells into the tabulation_cells table.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and pings. The schema is not touched; call
// EnsureSchema for that.
func OpenPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection: %w", err)
	}
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Load copies cells in one transaction. All cells must share the run and
// job of the first; cells from an earlier load of that pair are replaced.
func (p *Postgres) Load(ctx context.Context, cells []Cell) (int64, error) {
	if len(cells) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM tabulation_cells WHERE run_id = $1 AND job = $2`,
		cells[0].RunID, cells[0].Job,
	); err != nil {
		return 0, fmt.Errorf("clear previous cells: %w", err)
	}

	rows := make([][]interface{}, len(cells))
	for i, c := range cells {
		rows[i] = []interface{}{c.RunID, c.Job, c.Row, c.Column, c.Count}
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"tabulation_cells"},
		cellColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy tabulation_cells: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return copied, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
