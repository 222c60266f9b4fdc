package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/logger"
	"taskManager/internal/models/category"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	constraintOwnerName  = "categories_owner_name_key"
	constraintOneDefault = "categories_one_default_per_owner"
	uniqueViolation      = "23505"
)

const categoryColumns = `uuid, owner_id, name, color, icon, description, priority_tier, is_default, created_at, updated_at`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Create(ctx context.Context, c *category.Category) error {
	if err := repo.RequireOwner(c.OwnerID); err != nil {
		return err
	}
	start := time.Now()

	query := `INSERT INTO categories (` + categoryColumns + `)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.pool.Exec(ctx, query,
		c.UUID, c.OwnerID, c.Name, c.Color, c.Icon, c.Description,
		c.PriorityTier, c.IsDefault, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if mapped := mapConstraint(err); mapped != nil {
			return mapped
		}
		logger.Error("Repository: Не удалось добавить категорию", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление категории: %w", err)
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) Update(ctx context.Context, c *category.Category) error {
	if err := repo.RequireOwner(c.OwnerID); err != nil {
		return err
	}
	start := time.Now()

	query := `UPDATE categories
			SET name = $1,
				color = $2,
				icon = $3,
				description = $4,
				priority_tier = $5,
				is_default = $6,
				updated_at = $7
			WHERE uuid = $8 AND owner_id = $9`

	tag, err := s.pool.Exec(ctx, query,
		c.Name, c.Color, c.Icon, c.Description, c.PriorityTier, c.IsDefault, c.UpdatedAt,
		c.UUID, c.OwnerID,
	)
	if err != nil {
		if mapped := mapConstraint(err); mapped != nil {
			return mapped
		}
		logger.Error("Repository: Не удалось обновить категорию", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("обновление категории: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.getOne(ctx, `uuid = $2`, ownerID, id)
}

func (s *Storage) FindByName(ctx context.Context, ownerID, name string) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.getOne(ctx, `name = $2`, ownerID, name)
}

func (s *Storage) GetDefault(ctx context.Context, ownerID string) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	return s.getOne(ctx, `is_default`, ownerID)
}

func (s *Storage) getOne(ctx context.Context, cond string, args ...any) (*category.Category, error) {
	start := time.Now()

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = $1 AND ` + cond + ` LIMIT 1`

	c, err := scanCategory(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить категорию", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение категории: %w", err)
	}

	warnIfSlow(start)
	return c, nil
}

// List - новые сверху
func (s *Storage) List(ctx context.Context, ownerID string) ([]*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}
	start := time.Now()

	query := `SELECT ` + categoryColumns + ` FROM categories
			WHERE owner_id = $1
			ORDER BY created_at DESC, name`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		logger.Error("Repository: Не удалось получить категории", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	defer rows.Close()

	res := []*category.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование категории: %w", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnIfSlow(start)
	return res, nil
}

func (s *Storage) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := repo.RequireOwner(ownerID); err != nil {
		return err
	}
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		logger.Error("Repository: Удаление категории", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление категории: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnIfSlow(start)
	return nil
}

// ClearDefault снимает признак по умолчанию со всех категорий владельца, кроме except
func (s *Storage) ClearDefault(ctx context.Context, ownerID string, except uuid.UUID) (int, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return 0, err
	}
	start := time.Now()

	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET is_default = FALSE WHERE owner_id = $1 AND uuid <> $2 AND is_default`,
		ownerID, except)
	if err != nil {
		logger.Error("Repository: Не удалось снять категорию по умолчанию", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("сброс категории по умолчанию: %w", err)
	}

	warnIfSlow(start)
	return int(tag.RowsAffected()), nil
}

func scanCategory(row pgx.Row) (*category.Category, error) {
	c := &category.Category{}
	err := row.Scan(
		&c.UUID,
		&c.OwnerID,
		&c.Name,
		&c.Color,
		&c.Icon,
		&c.Description,
		&c.PriorityTier,
		&c.IsDefault,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// mapConstraint переводит нарушения уникальных индексов в ошибки хранилища
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case constraintOneDefault:
		return repo.ErrDefaultConflict
	default:
		return repo.ErrDuplicate
	}
}

func warnIfSlow(start time.Time) {
	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
