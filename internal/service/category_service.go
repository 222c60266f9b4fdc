package service

import (
	"context"
	"errors"
	"taskManager/internal/logger"
	"taskManager/internal/models/category"
	"taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// сколько раз повторяем "снять чужие default + записать", если параллельный запрос успел поставить свой
const defaultConflictRetries = 3

// CategoryService - все записи категорий идут только через него:
// уникальное название у владельца и не больше одной категории по умолчанию.
type CategoryService struct {
	repo CategoryRepository
	now  func() time.Time
}

func NewCategoryService(repo CategoryRepository, opts ...Option) *CategoryService {
	o := buildOptions(opts)
	return &CategoryService{
		repo: repo,
		now:  o.now,
	}
}

func (s *CategoryService) CreateCategory(ctx context.Context, ownerID string, fields category.Fields) (*category.Category, error) {
	fields = fields.Normalize()
	if fields.Name == nil {
		return nil, NewValidationError("name", "название категории обязательно")
	}
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, ownerID, *fields.Name, uuid.Nil); err != nil {
		return nil, err
	}

	c := category.New(ownerID, fields, s.now())
	if err := s.write(ctx, c, s.repo.Create); err != nil {
		return nil, err
	}

	logger.Info("Service: Категория создана",
		zap.String("category_id", c.UUID.String()),
		zap.String("owner_id", ownerID),
		zap.Bool("is_default", c.IsDefault))
	return c, nil
}

// UpdateCategory: попытка сменить владельца молча игнорируется
func (s *CategoryService) UpdateCategory(ctx context.Context, ownerID string, id uuid.UUID, fields category.Fields) (*category.Category, error) {
	fields = fields.Normalize()
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, storeError(err, "категория", id.String())
	}

	if fields.Name != nil && *fields.Name != current.Name {
		if err := s.ensureNameFree(ctx, ownerID, *fields.Name, id); err != nil {
			return nil, err
		}
	}

	next := current.Clone()
	next.Apply(fields)
	next.UpdatedAt = s.now()

	if err := s.write(ctx, next, s.repo.Update); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, ownerID string, id uuid.UUID) error {
	// задачи со ссылкой на название категории не трогаем
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return storeError(err, "категория", id.String())
	}
	logger.Info("Service: Категория удалена", zap.String("category_id", id.String()))
	return nil
}

func (s *CategoryService) ListCategories(ctx context.Context, ownerID string) ([]*category.Category, error) {
	list, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, "категории", ownerID)
	}
	return list, nil
}

func (s *CategoryService) GetDefaultCategory(ctx context.Context, ownerID string) (*category.Category, error) {
	c, err := s.repo.GetDefault(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, "категория по умолчанию", ownerID)
	}
	return c, nil
}

func (s *CategoryService) ensureNameFree(ctx context.Context, ownerID, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByName(ctx, ownerID, name)
	switch {
	case err == nil:
		if existing.UUID != self {
			return NewDuplicateName(name)
		}
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return storeError(err, "категория", name)
	}
}

// write сначала снимает default с остальных категорий владельца и только потом пишет новую.
// Падение между шагами оставляет максимум старый default, но не два сразу.
func (s *CategoryService) write(ctx context.Context, c *category.Category, save func(context.Context, *category.Category) error) error {
	for attempt := 1; ; attempt++ {
		if c.IsDefault {
			cleared, err := s.repo.ClearDefault(ctx, c.OwnerID, c.UUID)
			if err != nil {
				return storeError(err, "категория", c.UUID.String())
			}
			if cleared > 0 {
				logger.Debug("Service: Снят признак по умолчанию",
					zap.String("owner_id", c.OwnerID),
					zap.Int("cleared", cleared))
			}
		}

		err := save(ctx, c)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, repository.ErrDuplicate):
			return NewDuplicateName(c.Name)
		case errors.Is(err, repository.ErrDefaultConflict) && attempt < defaultConflictRetries:
			logger.Warn("Service: Конфликт категории по умолчанию, повтор",
				zap.String("owner_id", c.OwnerID),
				zap.Int("attempt", attempt))
			continue
		default:
			return storeError(err, "категория", c.UUID.String())
		}
	}
}

func validateFields(f category.Fields) error {
	if err := f.Validate(); err != nil {
		switch {
		case errors.Is(err, category.ErrEmptyName):
			return NewValidationError("name", err.Error())
		case errors.Is(err, category.ErrInvalidIcon):
			return NewValidationError("icon", err.Error())
		case errors.Is(err, category.ErrInvalidTier):
			return NewValidationError("priority", err.Error())
		}
		return NewValidationError("category", err.Error())
	}
	return nil
}
