package memory

import (
	"context"
	"sync"

	"edustop-service/internal/domain"
)

// TaskPool keeps tasks in insertion order.
type TaskPool struct {
	mu    sync.RWMutex
	tasks []domain.Task
}

func NewTaskPool(tasks ...domain.Task) *TaskPool {
	return &TaskPool{tasks: append([]domain.Task(nil), tasks...)}
}

func (p *TaskPool) Add(task domain.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tasks = append(p.tasks, task)
}

func (p *TaskPool) CountTasks(context.Context) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.tasks), nil
}

func (p *TaskPool) TaskAtOffset(_ context.Context, offset int) (domain.Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if offset < 0 || offset >= len(p.tasks) {
		return domain.Task{}, domain.ErrNoTasksAvailable
	}
	return p.tasks[offset], nil
}
