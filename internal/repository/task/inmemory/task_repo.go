package inmemory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskStorage - документное хранилище в памяти. Наружу всегда отдаются копии,
// поэтому каждое обновление документа атомарно под мьютексом.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	if err := repo.RequireOwner(taskToCreate.OwnerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrDuplicate
	}

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.UpdatedAt.IsZero() {
		taskToCreate.UpdatedAt = taskToCreate.CreatedAt
	}
	taskToCreate.Version = 1

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Update заменяет документ целиком, фильтр - (владелец, uuid)
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	if err := repo.RequireOwner(taskToUpdate.OwnerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok || existed.OwnerID != taskToUpdate.OwnerID {
		return repo.ErrNotFound
	}

	taskToUpdate.Version = existed.Version + 1
	stored := taskToUpdate.Clone()
	stored.CreatedAt = existed.CreatedAt
	s.storage[taskToUpdate.UUID] = stored
	return nil
}

// MarkNotified записывает только флаги доставки и только если документ не менялся
// после чтения сканером. Иначе ErrVersionConflict: задача перечитается в следующем цикле.
func (s *TaskStorage) MarkNotified(ctx context.Context, notified *task.Task) error {
	if err := repo.RequireOwner(notified.OwnerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[notified.UUID]
	if !ok || existed.OwnerID != notified.OwnerID {
		return repo.ErrNotFound
	}

	if existed.Version != notified.Version {
		logger.Warn("Repository: Конфликт версий при отметке уведомлений",
			zap.String("task_id", notified.UUID.String()),
			zap.Int("expected_version", notified.Version),
			zap.Int("actual_version", existed.Version))
		return repo.ErrVersionConflict
	}

	updated := existed.Clone()
	updated.DueNotificationSent = notified.DueNotificationSent
	updated.Reminders = notified.Clone().Reminders
	updated.Version++
	notified.Version = updated.Version
	s.storage[notified.UUID] = updated
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok || taskToGet.OwnerID != ownerID {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

func (s *TaskStorage) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := repo.RequireOwner(ownerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[id]
	if !ok || existed.OwnerID != ownerID {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// List отдаёт задачи владельца в порядке вставки
func (s *TaskStorage) List(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	if err := repo.RequireOwner(filter.OwnerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if filter.Match(t) {
			res = append(res, t.Clone())
		}
	}
	return res, nil
}

// FindDue - единственная выборка без владельца: pending задачи с созревшими уведомлениями.
// Страница упорядочена по uuid и начинается строго после after (uuid.Nil - с начала).
func (s *TaskStorage) FindDue(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	tasks := []*task.Task{}
	for _, t := range s.storage {
		if bytes.Compare(t.UUID[:], after[:]) > 0 && t.HasArmed(now) {
			tasks = append(tasks, t.Clone())
		}
	}

	slices.SortFunc(tasks, func(a, b *task.Task) int {
		return bytes.Compare(a.UUID[:], b.UUID[:])
	})
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}
