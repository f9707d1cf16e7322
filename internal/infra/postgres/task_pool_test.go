package postgres

import (
	"errors"
	"testing"

	"edustop-service/internal/domain"
)

func TestDecodeTask(t *testing.T) {
	task, err := decodeTask("task-1", []byte(`{"id":"ignored","subject":"MATH","title":"Sums","questions":[{"id":"q1","kind":"OPEN","content":"1+1?","answers":["2"]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID != "task-1" || task.Subject != domain.SubjectMath || len(task.Questions) != 1 {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestDecodeTaskCorruptRowIsStorageFailure(t *testing.T) {
	_, err := decodeTask("task-1", []byte(`{"questions": "not-a-list"`))
	if !errors.Is(err, domain.ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
}
