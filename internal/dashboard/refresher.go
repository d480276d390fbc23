package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kevenm/barber-booking/internal/booking"
	"github.com/kevenm/barber-booking/pkg/logging"
)

// Fetcher provides the ordered appointment list of one professional.
// booking.Repository satisfies it.
type Fetcher interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]booking.Appointment, error)
}

type snapshot struct {
	seq       uint64
	appts     []booking.Appointment
	fetchedAt time.Time
}

// Refresher keeps a per-professional snapshot of the appointment list. The
// background loop refetches every interval; a manual refresh runs the same
// fetch out of band. Every fetch takes a sequence number before it starts,
// and a response only replaces the stored snapshot when its sequence is
// newer, so a late-arriving stale response can never clobber a fresh one.
type Refresher struct {
	fetch    Fetcher
	interval time.Duration
	logger   *logging.Logger

	seq atomic.Uint64

	mu    sync.RWMutex
	snaps map[uuid.UUID]snapshot
}

func NewRefresher(fetch Fetcher, interval time.Duration, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Refresher{
		fetch:    fetch,
		interval: interval,
		logger:   logger,
		snaps:    make(map[uuid.UUID]snapshot),
	}
}

// Run refreshes every tracked professional on a ticker until the context is
// cancelled. A failed refresh keeps the previous snapshot and never stops
// the ticker.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("dashboard refresher stopping")
			return
		case <-ticker.C:
			r.refreshAll(ctx)
		}
	}
}

func (r *Refresher) refreshAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]uuid.UUID, 0, len(r.snaps))
	for id := range r.snaps {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := r.Refresh(runCtx, id)
		cancel()
		if err != nil {
			r.logger.Warn("dashboard refresh failed", "professional_id", id, "error", err)
		}
	}
}

// Refresh fetches the professional's appointments and stores them under the
// sequence guard. It returns the list it fetched even when a newer snapshot
// already superseded it in the store.
func (r *Refresher) Refresh(ctx context.Context, professionalID uuid.UUID) ([]booking.Appointment, error) {
	seq := r.seq.Add(1)

	appts, err := r.fetch.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}

	r.store(professionalID, snapshot{
		seq:       seq,
		appts:     appts,
		fetchedAt: time.Now(),
	})

	return appts, nil
}

func (r *Refresher) store(professionalID uuid.UUID, next snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.snaps[professionalID]; ok && cur.seq > next.seq {
		// A fetch that started later already landed; drop this one.
		return
	}
	r.snaps[professionalID] = next
}

// Snapshot returns the current snapshot for the professional, fetching one
// first if none is tracked yet.
func (r *Refresher) Snapshot(ctx context.Context, professionalID uuid.UUID) ([]booking.Appointment, time.Time, error) {
	r.mu.RLock()
	snap, ok := r.snaps[professionalID]
	r.mu.RUnlock()
	if ok {
		return snap.appts, snap.fetchedAt, nil
	}

	appts, err := r.Refresh(ctx, professionalID)
	if err != nil {
		return nil, time.Time{}, err
	}
	return appts, time.Now(), nil
}
