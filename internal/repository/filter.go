package repository

import (
	"taskManager/internal/models/task"
	"time"
)

// TaskFilter - предфильтр выборки задач владельца; пустые поля не участвуют
type TaskFilter struct {
	OwnerID  string
	Status   *task.Status
	Priority *task.Priority
	Category *string
	// полуинтервал [DueFrom, DueTo)
	DueFrom *time.Time
	DueTo   *time.Time
}

func (f TaskFilter) Match(t *task.Task) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	if f.DueFrom != nil && t.DueDate.Before(*f.DueFrom) {
		return false
	}
	if f.DueTo != nil && !t.DueDate.Before(*f.DueTo) {
		return false
	}
	return true
}
