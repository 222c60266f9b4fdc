package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = time.Millisecond * 100

const taskColumns = `uuid, owner_id, title, description, status, due_date, category, priority,
	due_notification_sent, reminders, created_at, updated_at, version`

type Storage struct {
	pool *pgxpool.Pool
}

// New - пул создаётся и закрывается снаружи (database.NewPool)
func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("%w: %v", repo.ErrUnavailable, err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	if err := repo.RequireOwner(taskToCreate.OwnerID); err != nil {
		return err
	}
	start := time.Now()

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	if taskToCreate.UpdatedAt.IsZero() {
		taskToCreate.UpdatedAt = taskToCreate.CreatedAt
	}
	taskToCreate.Version = 1

	query := `INSERT INTO tasks (` + taskColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		taskToCreate.UUID,
		taskToCreate.OwnerID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.DueDate,
		taskToCreate.Category,
		taskToCreate.Priority,
		taskToCreate.DueNotificationSent,
		reminders(taskToCreate),
		taskToCreate.CreatedAt,
		taskToCreate.UpdatedAt,
		taskToCreate.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

// Update перезаписывает документ целиком, фильтр - (владелец, uuid)
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	if err := repo.RequireOwner(taskToUpdate.OwnerID); err != nil {
		return err
	}
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				due_date = $4,
				category = $5,
				priority = $6,
				due_notification_sent = $7,
				reminders = $8,
				updated_at = $9,
				version = version + 1
			WHERE uuid = $10 AND owner_id = $11
			RETURNING version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.DueDate,
		taskToUpdate.Category,
		taskToUpdate.Priority,
		taskToUpdate.DueNotificationSent,
		reminders(taskToUpdate),
		taskToUpdate.UpdatedAt,
		taskToUpdate.UUID,
		taskToUpdate.OwnerID,
	).Scan(&taskToUpdate.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление задачи: %w", err)
	}

	warnIfSlow(start)
	return nil
}

// MarkNotified пишет только флаги доставки и только поверх той версии, которую прочитал сканер.
// Если пользователь успел изменить задачу, запись отклоняется с ErrVersionConflict
// и задача перечитывается в следующем цикле.
func (s *Storage) MarkNotified(ctx context.Context, notified *task.Task) error {
	if err := repo.RequireOwner(notified.OwnerID); err != nil {
		return err
	}
	start := time.Now()

	query := `UPDATE tasks
			SET due_notification_sent = $1,
				reminders = $2,
				version = version + 1
			WHERE uuid = $3 AND owner_id = $4 AND version = $5
			RETURNING version`

	err := s.pool.QueryRow(ctx, query,
		notified.DueNotificationSent,
		reminders(notified),
		notified.UUID,
		notified.OwnerID,
		notified.Version,
	).Scan(&notified.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missingOrConflict(ctx, notified)
		}
		logger.Error("Repository: Не удалось отметить уведомления", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("отметка уведомлений: %w", err)
	}

	warnIfSlow(start)
	return nil
}

// missingOrConflict различает удалённую задачу и задачу, изменённую после чтения
func (s *Storage) missingOrConflict(ctx context.Context, t *task.Task) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE uuid = $1 AND owner_id = $2)`,
		t.UUID, t.OwnerID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}

	logger.Warn("Repository: Конфликт версий при отметке уведомлений",
		zap.String("task_id", t.UUID.String()),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*task.Task, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1 AND owner_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnIfSlow(start)
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := repo.RequireOwner(ownerID); err != nil {
		return err
	}
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

// List отдаёт задачи владельца в порядке вставки
func (s *Storage) List(ctx context.Context, filter repo.TaskFilter) ([]*task.Task, error) {
	if err := repo.RequireOwner(filter.OwnerID); err != nil {
		return nil, err
	}
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	args := []any{filter.OwnerID}

	add := func(cond string, value any) {
		args = append(args, value)
		query += " AND " + cond + " $" + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		add("status =", *filter.Status)
	}
	if filter.Priority != nil {
		add("priority =", *filter.Priority)
	}
	if filter.Category != nil {
		add("category =", *filter.Category)
	}
	if filter.DueFrom != nil {
		add("due_date >=", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		add("due_date <", *filter.DueTo)
	}
	query += " ORDER BY seq"

	tasks, err := s.query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

// FindDue - единственная выборка без владельца: pending задачи с созревшим дедлайном или напоминанием.
// Keyset-страница по uuid: начинается строго после after (uuid.Nil - с начала).
func (s *Storage) FindDue(ctx context.Context, now time.Time, after uuid.UUID, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE status = 'pending'
			  AND uuid > $2
			  AND ((due_date <= $1 AND NOT due_notification_sent)
			    OR EXISTS (
			      SELECT 1 FROM jsonb_array_elements(reminders) r
			      WHERE (r->>'time')::timestamptz <= $1
			        AND NOT COALESCE((r->>'sent')::boolean, FALSE)))
			ORDER BY uuid`
	args := []any{now, after}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	tasks, err := s.query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось выбрать задачи для уведомлений", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("выборка задач для уведомлений: %w", err)
	}

	warnIfSlow(start)
	return tasks, nil
}

func (s *Storage) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.DueDate,
		&t.Category,
		&t.Priority,
		&t.DueNotificationSent,
		&t.Reminders,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
	)
	if err != nil {
		return nil, err
	}
	if t.Reminders == nil {
		t.Reminders = []task.Reminder{}
	}
	return t, nil
}

// jsonb_array_elements падает на null, поэтому пустой список пишем как []
func reminders(t *task.Task) []task.Reminder {
	if t.Reminders == nil {
		return []task.Reminder{}
	}
	return t.Reminders
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
