package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"edustop-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// TaskPool loads task JSONB from Postgres.
type TaskPool struct {
	pool *pgxpool.Pool
}

func NewTaskPool(pool *pgxpool.Pool) *TaskPool {
	return &TaskPool{pool: pool}
}

func (p *TaskPool) CountTasks(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM tasks`).Scan(&count); err != nil {
		return 0, storageErr("count tasks", err)
	}
	return count, nil
}

// TaskAtOffset orders by id so an offset names a stable row.
func (p *TaskPool) TaskAtOffset(ctx context.Context, offset int) (domain.Task, error) {
	var (
		id  string
		raw []byte
	)
	err := p.pool.QueryRow(ctx,
		`SELECT id, data FROM tasks ORDER BY id OFFSET $1 LIMIT 1`, offset,
	).Scan(&id, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Task{}, domain.ErrNoTasksAvailable
	}
	if err != nil {
		return domain.Task{}, storageErr("load task", err)
	}
	return decodeTask(id, raw)
}

func decodeTask(id string, raw []byte) (domain.Task, error) {
	var task domain.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return domain.Task{}, storageErr("decode task "+id, err)
	}
	task.ID = id
	return task, nil
}
