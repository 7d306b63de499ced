package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres adapts a pgx connection pool to the pipeline's QueryExecutor
// boundary. Each run should own its own Postgres so concurrent runs never
// share a session implicitly.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Execute(ctx context.Context, command string) error {
	_, err := p.pool.Exec(ctx, command)
	return err
}

func (p *Postgres) QueryScalar(ctx context.Context, query string) (float64, bool, error) {
	var value *float64
	if err := p.pool.QueryRow(ctx, query).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if value == nil {
		return 0, false, nil
	}
	return *value, true, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
