package handlers

import (
	"context"
	"taskManager/internal/models/category"
	"taskManager/internal/models/notification"
	"taskManager/internal/models/task"
	"taskManager/internal/service"
	"time"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, ownerID string, input service.CreateTaskInput) (*task.Task, error)
	GetTask(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, ownerID string, query service.ListQuery) ([]*task.Task, error)
	ListTasksByDate(ctx context.Context, ownerID string, day time.Time) ([]*task.Task, error)
	ApplyTaskPatch(ctx context.Context, ownerID string, id uuid.UUID, patch task.Patch) (*task.Task, error)
	DeleteTask(ctx context.Context, ownerID string, id uuid.UUID) error
}

type CategoryService interface {
	CreateCategory(ctx context.Context, ownerID string, fields category.Fields) (*category.Category, error)
	UpdateCategory(ctx context.Context, ownerID string, id uuid.UUID, fields category.Fields) (*category.Category, error)
	DeleteCategory(ctx context.Context, ownerID string, id uuid.UUID) error
	ListCategories(ctx context.Context, ownerID string) ([]*category.Category, error)
	GetDefaultCategory(ctx context.Context, ownerID string) (*category.Category, error)
}

// Scanner - ручной запуск цикла уведомлений
type Scanner interface {
	ScanOnce(ctx context.Context) []notification.Event
}
