package booking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAvailable(t *testing.T) {
	existing := []Slot{
		{Date: "2025-09-10", Time: "14:00"},
		{Date: "2025-09-10", Time: "15:00"},
		{Date: "2025-09-11", Time: "14:00"},
	}

	t.Run("exact pair is taken", func(t *testing.T) {
		assert.False(t, IsAvailable("2025-09-10", "14:00", existing))
	})

	t.Run("same date different time is free", func(t *testing.T) {
		assert.True(t, IsAvailable("2025-09-10", "16:00", existing))
	})

	t.Run("same time different date is free", func(t *testing.T) {
		assert.True(t, IsAvailable("2025-09-12", "14:00", existing))
	})

	t.Run("empty list is always free", func(t *testing.T) {
		assert.True(t, IsAvailable("2025-09-10", "14:00", nil))
	})

	t.Run("only exact string equality counts", func(t *testing.T) {
		// "14:0" is not "14:00"; no normalization happens here.
		assert.True(t, IsAvailable("2025-09-10", "14:0", existing))
	})
}

type slotsOnlyRepo struct {
	Repository

	slots     []Slot
	listCalls int
}

func (r *slotsOnlyRepo) ListSlots(ctx context.Context, professionalID uuid.UUID) ([]Slot, error) {
	r.listCalls++
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out, nil
}

func TestSlotCacheLoadsOnceAndRefreshes(t *testing.T) {
	profID := uuid.New()
	repo := &slotsOnlyRepo{slots: []Slot{{Date: "2025-09-10", Time: "14:00"}}}
	cache := NewSlotCache(repo)

	got, err := cache.Slots(context.Background(), profID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, repo.listCalls)

	// Second read is served from the cache.
	_, err = cache.Slots(context.Background(), profID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)

	// Refresh replaces the cached list with whatever the repository has now.
	repo.slots = append(repo.slots, Slot{Date: "2025-09-10", Time: "15:00"})
	require.NoError(t, cache.Refresh(context.Background(), profID))
	assert.Equal(t, 2, repo.listCalls)

	got, err = cache.Slots(context.Background(), profID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, repo.listCalls)
}
