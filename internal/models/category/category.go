package category

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	UUID         uuid.UUID `json:"uuid" db:"uuid"`
	OwnerID      string    `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	Color        string    `json:"color" db:"color"`
	Icon         Icon      `json:"icon" db:"icon"`
	Description  string    `json:"description" db:"description"`
	PriorityTier int       `json:"priority" db:"priority_tier"`
	IsDefault    bool      `json:"is_default" db:"is_default"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Icon string

const IconBookmark Icon = "bookmark"
const IconStar Icon = "star"
const IconFlag Icon = "flag"
const IconLabel Icon = "label"
const IconFolder Icon = "folder"

const DefaultColor = "#6366f1"
const DefaultIcon = IconBookmark
const DefaultPriorityTier = 1

var (
	ErrEmptyName   = errors.New("название категории не может быть пустым")
	ErrInvalidIcon = errors.New("неизвестная иконка категории")
	ErrInvalidTier = errors.New("приоритет категории должен быть 1, 2 или 3")
)

func (i Icon) Valid() bool {
	switch i {
	case IconBookmark, IconStar, IconFlag, IconLabel, IconFolder:
		return true
	}
	return false
}

// Fields - данные для создания/обновления категории, nil означает "не передано".
// OwnerID приходит только от клиента и всегда игнорируется.
type Fields struct {
	Name         *string
	Color        *string
	Icon         *Icon
	Description  *string
	PriorityTier *int
	IsDefault    *bool
	OwnerID      *string
}

// Normalize обрезает пробелы в текстовых полях
func (f Fields) Normalize() Fields {
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		f.Name = &name
	}
	if f.Description != nil {
		description := strings.TrimSpace(*f.Description)
		f.Description = &description
	}
	return f
}

func (f Fields) Validate() error {
	if f.Name != nil && *f.Name == "" {
		return ErrEmptyName
	}
	if f.Icon != nil && !f.Icon.Valid() {
		return ErrInvalidIcon
	}
	if f.PriorityTier != nil && (*f.PriorityTier < 1 || *f.PriorityTier > 3) {
		return ErrInvalidTier
	}
	return nil
}

// New создаёт категорию владельца со значениями по умолчанию
func New(ownerID string, f Fields, now time.Time) *Category {
	c := &Category{
		UUID:         uuid.New(),
		OwnerID:      ownerID,
		Color:        DefaultColor,
		Icon:         DefaultIcon,
		PriorityTier: DefaultPriorityTier,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.Apply(f)
	return c
}

// Apply переносит переданные поля, владелец не меняется никогда
func (c *Category) Apply(f Fields) {
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Color != nil {
		c.Color = *f.Color
	}
	if f.Icon != nil {
		c.Icon = *f.Icon
	}
	if f.Description != nil {
		c.Description = *f.Description
	}
	if f.PriorityTier != nil {
		c.PriorityTier = *f.PriorityTier
	}
	if f.IsDefault != nil {
		c.IsDefault = *f.IsDefault
	}
}

func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
