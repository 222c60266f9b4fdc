package service

import (
	"context"
	"taskManager/internal/models/category"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	List(context.Context, repository.TaskFilter) ([]*task.Task, error)
}

type CategoryRepository interface {
	Create(context.Context, *category.Category) error
	Update(context.Context, *category.Category) error
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*category.Category, error)
	FindByName(ctx context.Context, ownerID, name string) (*category.Category, error)
	GetDefault(ctx context.Context, ownerID string) (*category.Category, error)
	List(ctx context.Context, ownerID string) ([]*category.Category, error)
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
	ClearDefault(ctx context.Context, ownerID string, except uuid.UUID) (int, error)
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock подменяет источник текущего времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
