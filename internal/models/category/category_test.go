package category_test

import (
	"taskManager/internal/models/category"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNew_Defaults(t *testing.T) {
	now := time.Now()
	c := category.New("owner-1", category.Fields{Name: ptr("Work")}, now)

	assert.Equal(t, "owner-1", c.OwnerID)
	assert.Equal(t, "Work", c.Name)
	assert.Equal(t, category.DefaultColor, c.Color)
	assert.Equal(t, category.IconBookmark, c.Icon)
	assert.Equal(t, 1, c.PriorityTier)
	assert.False(t, c.IsDefault)
	assert.Equal(t, now, c.CreatedAt)
}

func TestApply_IgnoresOwner(t *testing.T) {
	c := category.New("owner-1", category.Fields{Name: ptr("Work")}, time.Now())
	c.Apply(category.Fields{OwnerID: ptr("intruder"), Color: ptr("#000000")})

	assert.Equal(t, "owner-1", c.OwnerID)
	assert.Equal(t, "#000000", c.Color)
}

func TestFields_Validate(t *testing.T) {
	tests := []struct {
		name   string
		fields category.Fields
		err    error
	}{
		{"ok", category.Fields{Name: ptr("Home"), Icon: ptr(category.IconStar), PriorityTier: ptr(3)}, nil},
		{"blank name", category.Fields{Name: ptr("   ")}, category.ErrEmptyName},
		{"unknown icon", category.Fields{Icon: ptr(category.Icon("school"))}, category.ErrInvalidIcon},
		{"tier too high", category.Fields{PriorityTier: ptr(4)}, category.ErrInvalidTier},
		{"tier zero", category.Fields{PriorityTier: ptr(0)}, category.ErrInvalidTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Normalize().Validate()
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
