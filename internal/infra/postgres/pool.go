package postgres

import (
	"context"
	"fmt"

	"edustop-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
)

// NewPool creates and validates a PostgreSQL connection pool.
func NewPool(ctx context.Context, url string, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info().
		Int32("max_conns", pool.Config().MaxConns).
		Msg("PostgreSQL connected")
	return pool, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorageFailure, op, err)
}
