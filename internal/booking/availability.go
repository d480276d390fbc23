package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// IsAvailable reports whether the candidate (date, time) pair is free given
// the appointments currently known for the professional. The pair is taken
// exactly as given: only string equality of both fields counts, and the
// status of the occupying appointment is deliberately ignored, so even a
// cancelled appointment keeps its slot blocked for new bookings.
func IsAvailable(date, timeOfDay string, existing []Slot) bool {
	for _, s := range existing {
		if s.Date == date && s.Time == timeOfDay {
			return false
		}
	}
	return true
}

// SlotCache holds the occupied slots per professional so the booking
// pre-check runs without a round trip. The cache may be stale between
// refreshes; the unique index at the storage boundary is the real guard.
type SlotCache struct {
	repo Repository

	mu    sync.RWMutex
	slots map[uuid.UUID][]Slot
}

func NewSlotCache(repo Repository) *SlotCache {
	return &SlotCache{
		repo:  repo,
		slots: make(map[uuid.UUID][]Slot),
	}
}

// Slots returns the cached slot list for the professional, loading it from
// the repository on first use.
func (c *SlotCache) Slots(ctx context.Context, professionalID uuid.UUID) ([]Slot, error) {
	c.mu.RLock()
	cached, ok := c.slots[professionalID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	return c.refresh(ctx, professionalID)
}

// Refresh reloads the slot list from the repository, replacing whatever was
// cached. Called after every successful booking so the next availability
// check sees the new appointment.
func (c *SlotCache) Refresh(ctx context.Context, professionalID uuid.UUID) error {
	_, err := c.refresh(ctx, professionalID)
	return err
}

func (c *SlotCache) refresh(ctx context.Context, professionalID uuid.UUID) ([]Slot, error) {
	slots, err := c.repo.ListSlots(ctx, professionalID)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}

	c.mu.Lock()
	c.slots[professionalID] = slots
	c.mu.Unlock()

	return slots, nil
}
