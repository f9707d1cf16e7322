package postgres

import (
	"context"
	"errors"

	"edustop-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RankingLedger keeps user rankings in the users table.
type RankingLedger struct {
	pool *pgxpool.Pool
}

func NewRankingLedger(pool *pgxpool.Pool) *RankingLedger {
	return &RankingLedger{pool: pool}
}

// IncrementRanking adds delta in a single UPDATE and returns the new score.
func (l *RankingLedger) IncrementRanking(ctx context.Context, userID string, delta int) (int, error) {
	var ranking int
	err := l.pool.QueryRow(ctx,
		`UPDATE users SET ranking = ranking + $1 WHERE id = $2 RETURNING ranking`, delta, userID,
	).Scan(&ranking)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, storageErr("increment ranking", err)
	}
	return ranking, nil
}

func (l *RankingLedger) Ranking(ctx context.Context, offset, limit int) ([]domain.RankingEntry, error) {
	if offset < 0 || limit <= 0 {
		return []domain.RankingEntry{}, nil
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, username, ranking FROM users ORDER BY ranking DESC, username ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, storageErr("load ranking", err)
	}
	defer rows.Close()

	entries := []domain.RankingEntry{}
	for rows.Next() {
		var e domain.RankingEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Ranking); err != nil {
			return nil, storageErr("scan ranking", err)
		}
		e.Position = offset + len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("load ranking", err)
	}
	return entries, nil
}
