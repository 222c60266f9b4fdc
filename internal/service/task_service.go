package service

import (
	"context"
	"errors"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewTaskService(repo TaskRepository, opts ...Option) *TaskService {
	o := buildOptions(opts)
	return &TaskService{
		repo: repo,
		now:  o.now,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Category    string
	Priority    task.Priority
	Reminders   []time.Time
}

type ListQuery struct {
	SortBy   SortMode
	Priority string
	Category string
	Status   string
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return NewStoreUnavailable(err)
	}
	return nil
}

func (s *TaskService) CreateTask(ctx context.Context, ownerID string, input CreateTaskInput) (*task.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}
	if input.DueDate.IsZero() {
		return nil, NewValidationError("dueDate", "дедлайн должен быть задан")
	}
	categoryName := strings.TrimSpace(input.Category)
	if categoryName == "" {
		return nil, NewValidationError("category", "категория должна быть задана")
	}

	priority := input.Priority
	if priority == "" {
		priority = task.PriorityMedium
	}
	if !priority.Valid() {
		return nil, NewInvalidPriority(string(priority))
	}

	reminders := make([]task.Reminder, 0, len(input.Reminders))
	for _, t := range input.Reminders {
		reminders = append(reminders, task.Reminder{Time: t})
	}

	now := s.now()
	newTask := &task.Task{
		UUID:        uuid.New(),
		OwnerID:     ownerID,
		Title:       title,
		Description: input.Description,
		Status:      task.StatusPending,
		DueDate:     input.DueDate,
		Category:    categoryName,
		Priority:    priority,
		Reminders:   reminders,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, storeError(err, "задача", newTask.UUID.String())
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("owner_id", ownerID))
	return newTask, nil
}

func (s *TaskService) GetTask(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		}
		return nil, storeError(err, "задача", id.String())
	}
	return t, nil
}

// ListTasks - предфильтр на стороне хранилища, порядок считается в приложении
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, query ListQuery) ([]*task.Task, error) {
	mode, err := ParseSortMode(string(query.SortBy))
	if err != nil {
		return nil, err
	}

	filter := repository.TaskFilter{OwnerID: ownerID}
	if query.Priority != "" {
		p := task.Priority(query.Priority)
		if !p.Valid() {
			return nil, NewInvalidPriority(query.Priority)
		}
		filter.Priority = &p
	}
	if query.Status != "" {
		st := task.Status(query.Status)
		if !st.Valid() {
			return nil, NewValidationError("status", "ожидается pending или completed")
		}
		filter.Status = &st
	}
	if query.Category != "" {
		c := query.Category
		filter.Category = &c
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "задачи", ownerID)
	}

	return OrderTasks(tasks, mode, OrderFilters{}), nil
}

// ListTasksByDate - задачи с дедлайном внутри календарного дня day (в его часовом поясе)
func (s *TaskService) ListTasksByDate(ctx context.Context, ownerID string, day time.Time) ([]*task.Task, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	tasks, err := s.repo.List(ctx, repository.TaskFilter{OwnerID: ownerID, DueFrom: &from, DueTo: &to})
	if err != nil {
		return nil, storeError(err, "задачи", ownerID)
	}
	return OrderTasks(tasks, SortByDueDate, OrderFilters{}), nil
}

// ApplyTaskPatch - единственная точка изменения задачи, флаги уведомлений пересчитываются в task.Apply.
// Сначала ищется задача: для несуществующей задачи NOT_FOUND важнее ошибок валидации патча.
func (s *TaskService) ApplyTaskPatch(ctx context.Context, ownerID string, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
		}
		return nil, storeError(err, "задача", id.String())
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}

	next, err := task.Apply(current, patch, s.now())
	if err != nil {
		switch {
		case errors.Is(err, task.ErrInvalidPriority):
			return nil, NewInvalidPriority(string(*patch.Priority))
		case errors.Is(err, task.ErrInvalidStatus):
			return nil, NewValidationError("status", "ожидается pending или completed")
		}
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, storeError(err, "задача", id.String())
	}

	if current.Status != next.Status {
		logger.Info("Service: Смена статуса задачи",
			zap.String("task_id", id.String()),
			zap.String("from", string(current.Status)),
			zap.String("to", string(next.Status)))
	}
	return next, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return storeError(err, "задача", id.String())
	}
	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}
