package inmemory

import (
	"context"
	"sort"
	"sync"
	"taskManager/internal/models/category"
	repo "taskManager/internal/repository"

	"github.com/google/uuid"
)

// CategoryStorage держит те же ограничения, что и индексы в postgres:
// уникальное (владелец, название) и не больше одной категории по умолчанию на владельца.
type CategoryStorage struct {
	storage map[uuid.UUID]*category.Category
	mtx     *sync.RWMutex
}

func NewCategoryStorage() *CategoryStorage {
	return &CategoryStorage{
		storage: make(map[uuid.UUID]*category.Category),
		mtx:     &sync.RWMutex{},
	}
}

func (s *CategoryStorage) Create(ctx context.Context, c *category.Category) error {
	if err := repo.RequireOwner(c.OwnerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[c.UUID]; ok {
		return repo.ErrDuplicate
	}
	if err := s.checkConstraints(c); err != nil {
		return err
	}

	s.storage[c.UUID] = c.Clone()
	return nil
}

func (s *CategoryStorage) Update(ctx context.Context, c *category.Category) error {
	if err := repo.RequireOwner(c.OwnerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[c.UUID]
	if !ok || existed.OwnerID != c.OwnerID {
		return repo.ErrNotFound
	}
	if err := s.checkConstraints(c); err != nil {
		return err
	}

	stored := c.Clone()
	stored.CreatedAt = existed.CreatedAt
	s.storage[c.UUID] = stored
	return nil
}

// checkConstraints вызывается под блокировкой записи
func (s *CategoryStorage) checkConstraints(c *category.Category) error {
	for id, other := range s.storage {
		if id == c.UUID || other.OwnerID != c.OwnerID {
			continue
		}
		if other.Name == c.Name {
			return repo.ErrDuplicate
		}
		if c.IsDefault && other.IsDefault {
			return repo.ErrDefaultConflict
		}
	}
	return nil
}

func (s *CategoryStorage) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	c, ok := s.storage[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repo.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *CategoryStorage) FindByName(ctx context.Context, ownerID, name string) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, c := range s.storage {
		if c.OwnerID == ownerID && c.Name == name {
			return c.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *CategoryStorage) GetDefault(ctx context.Context, ownerID string) (*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, c := range s.storage {
		if c.OwnerID == ownerID && c.IsDefault {
			return c.Clone(), nil
		}
	}
	return nil, repo.ErrNotFound
}

// List - новые сверху
func (s *CategoryStorage) List(ctx context.Context, ownerID string) ([]*category.Category, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*category.Category{}
	for _, c := range s.storage {
		if c.OwnerID == ownerID {
			res = append(res, c.Clone())
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].Name < res[j].Name
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *CategoryStorage) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := repo.RequireOwner(ownerID); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	c, ok := s.storage[id]
	if !ok || c.OwnerID != ownerID {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}

// ClearDefault снимает признак по умолчанию со всех категорий владельца, кроме except
func (s *CategoryStorage) ClearDefault(ctx context.Context, ownerID string, except uuid.UUID) (int, error) {
	if err := repo.RequireOwner(ownerID); err != nil {
		return 0, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	cleared := 0
	for id, c := range s.storage {
		if id == except || c.OwnerID != ownerID || !c.IsDefault {
			continue
		}
		updated := c.Clone()
		updated.IsDefault = false
		s.storage[id] = updated
		cleared++
	}
	return cleared, nil
}
