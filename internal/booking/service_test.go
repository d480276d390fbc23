package booking

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevenm/barber-booking/internal/config"
	"github.com/kevenm/barber-booking/internal/metrics"
	"github.com/kevenm/barber-booking/internal/redisclient"
	"github.com/kevenm/barber-booking/internal/session"
	"github.com/kevenm/barber-booking/pkg/logging"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	prof  *Professional
	appts map[uuid.UUID]*Appointment
	slots []Slot

	createErr error
	statusErr error
	created   []CreateParams
}

func newFakeRepo(prof *Professional) *fakeRepo {
	return &fakeRepo{
		prof:  prof,
		appts: make(map[uuid.UUID]*Appointment),
	}
}

func (r *fakeRepo) add(a Appointment) *Appointment {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := a
	r.appts[cp.ID] = &cp
	r.slots = append(r.slots, cp.Slot())
	return &cp
}

func (r *fakeRepo) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	if r.prof != nil && r.prof.ID == id {
		return r.prof, nil
	}
	return nil, ErrProfessionalNotFound
}

func (r *fakeRepo) GetProfessionalByEmail(ctx context.Context, email string) (*Professional, error) {
	if r.prof != nil && r.prof.Email == email {
		return r.prof, nil
	}
	return nil, ErrProfessionalNotFound
}

func (r *fakeRepo) GetAnyProfessional(ctx context.Context) (*Professional, error) {
	if r.prof != nil {
		return r.prof, nil
	}
	return nil, ErrProfessionalNotFound
}

func (r *fakeRepo) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	return nil, ErrClientNotFound
}

func (r *fakeRepo) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appts {
		if a.ProfessionalID == professionalID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appts {
		if a.ClientID != nil && *a.ClientID == clientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListSlots(ctx context.Context, professionalID uuid.UUID) ([]Slot, error) {
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out, nil
}

func (r *fakeRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if a, ok := r.appts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *fakeRepo) GetAppointmentForProfessional(ctx context.Context, id, professionalID uuid.UUID) (*Appointment, error) {
	if a, ok := r.appts[id]; ok && a.ProfessionalID == professionalID {
		cp := *a
		return &cp, nil
	}
	return nil, ErrAppointmentNotFound
}

func (r *fakeRepo) CreatePending(ctx context.Context, p CreateParams) (*Appointment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.created = append(r.created, p)
	return r.add(Appointment{
		ClientName:     p.ClientName,
		Date:           p.Date,
		Time:           p.Time,
		Status:         StatusPending,
		ProfessionalID: p.ProfessionalID,
		ClientID:       p.ClientID,
	}), nil
}

func (r *fakeRepo) UpdateStatusScoped(ctx context.Context, id, professionalID uuid.UUID, to Status) (*Appointment, error) {
	if r.statusErr != nil {
		return nil, r.statusErr
	}
	a, ok := r.appts[id]
	if !ok || a.ProfessionalID != professionalID || a.Status == to {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) UpdateDetailsScoped(ctx context.Context, id, professionalID uuid.UUID, clientName, date, timeOfDay string) (*Appointment, error) {
	a, ok := r.appts[id]
	if !ok || a.ProfessionalID != professionalID {
		return nil, ErrAppointmentNotFound
	}
	a.ClientName = clientName
	a.Date = date
	a.Time = timeOfDay
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) HasConflict(ctx context.Context, professionalID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error) {
	for _, a := range r.appts {
		if a.ID != excludeID && a.ProfessionalID == professionalID && a.Date == date && a.Time == timeOfDay {
			return true, nil
		}
	}
	return false, nil
}

type fakeLocker struct {
	busy  bool
	calls int
}

func (l *fakeLocker) WithSlotLock(ctx context.Context, professionalID uuid.UUID, date, timeOfDay string, fn func(ctx context.Context) error) error {
	l.calls++
	if l.busy {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

func testProfessional() *Professional {
	return &Professional{
		ID:          uuid.New(),
		Name:        "Barbearia Sarty",
		PhoneNumber: "+55 11 99999-0000",
		Email:       "barber@admin.com",
	}
}

func newTestService(repo *fakeRepo, locker *fakeLocker) *Service {
	cfg := config.Config{
		BookingMinDate: "2025-09-01",
		BookingMaxDate: "2028-12-31",
	}
	m := metrics.NewBooking(prometheus.NewRegistry())
	return NewService(repo, NewSlotCache(repo), locker, cfg, m, logging.New("error"))
}

func profSession(prof *Professional) session.Session {
	return session.Session{
		UserID: prof.ID,
		Email:  prof.Email,
		Kind:   session.KindProfessional,
	}
}

func TestBookCreatesPendingAppointment(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	locker := &fakeLocker{}
	svc := newTestService(repo, locker)

	result, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.Appointment.Status)
	assert.Equal(t, "Ana", result.Appointment.ClientName)
	assert.Equal(t, "2025-09-10", result.Appointment.Date)
	assert.Equal(t, "14:00", result.Appointment.Time)
	assert.Equal(t, prof.ID, result.Appointment.ProfessionalID)
	assert.Equal(t, prof.ID, result.Professional.ID)
	assert.Equal(t, 1, locker.calls)
}

func TestBookRejectsTakenSlotBeforeWriting(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	locker := &fakeLocker{}
	svc := newTestService(repo, locker)

	_, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Bruno",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)

	// The advisory check fires before the lock and before any write.
	assert.Equal(t, 0, locker.calls)
	assert.Empty(t, repo.created)
}

func TestBookCancelledAppointmentStillBlocksSlot(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusCancelled,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Bruno",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookValidation(t *testing.T) {
	prof := testProfessional()
	svc := newTestService(newFakeRepo(prof), &fakeLocker{})

	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"missing name", BookRequest{Date: "2025-09-10", Time: "14:00"}, ErrNameRequired},
		{"bad date", BookRequest{ClientName: "Ana", Date: "10/09/2025", Time: "14:00"}, ErrBadDate},
		{"bad time", BookRequest{ClientName: "Ana", Date: "2025-09-10", Time: "2pm"}, ErrBadTime},
		{"before window", BookRequest{ClientName: "Ana", Date: "2025-08-31", Time: "14:00"}, ErrOutsideWindow},
		{"after window", BookRequest{ClientName: "Ana", Date: "2029-01-01", Time: "14:00"}, ErrOutsideWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBookReportsBusySlotWhenLockHeld(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	svc := newTestService(repo, &fakeLocker{busy: true})

	_, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrSlotBusy)
	assert.Empty(t, repo.created)
}

func TestBookMapsUniqueViolationToSlotTaken(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	repo.createErr = ErrSlotOccupied
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
	})

	// A race that slips past the cached check surfaces from the insert.
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookWithoutAnyProfessional(t *testing.T) {
	svc := newTestService(newFakeRepo(nil), &fakeLocker{})

	_, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrProfessionalNotFound)
}

func TestBookAttachesClientID(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	svc := newTestService(repo, &fakeLocker{})

	clientID := uuid.New()
	result, err := svc.Book(context.Background(), BookRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
		ClientID:   &clientID,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Appointment.ClientID)
	assert.Equal(t, clientID, *result.Appointment.ClientID)
}

func TestConfirmPendingAppointment(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	updated, err := svc.Confirm(context.Background(), profSession(prof), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestReactivateCancelledAppointment(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusCancelled,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	updated, err := svc.Confirm(context.Background(), profSession(prof), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestReactivateIntoOccupiedSlotIsConflict(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusCancelled,
		ProfessionalID: prof.ID,
	})
	// Another active appointment took the slot since the cancellation, so
	// the unique index rejects the reactivation at the storage boundary.
	repo.statusErr = ErrSlotOccupied
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Confirm(context.Background(), profSession(prof), appt.ID)
	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestConfirmAlreadyConfirmed(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusConfirmed,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Confirm(context.Background(), profSession(prof), appt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmByWrongProfessionalLeavesStatusUntouched(t *testing.T) {
	owner := testProfessional()
	repo := newFakeRepo(owner)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: uuid.New(), // someone else's appointment
	})
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Confirm(context.Background(), profSession(owner), appt.ID)
	assert.ErrorIs(t, err, ErrNotOwned)

	stored, getErr := repo.GetAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusPending, stored.Status)
}

func TestCancelRequiresExplicitConfirmation(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusConfirmed,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Cancel(context.Background(), profSession(prof), appt.ID, false)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	stored, getErr := repo.GetAppointmentByID(context.Background(), appt.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusConfirmed, stored.Status)

	updated, err := svc.Cancel(context.Background(), profSession(prof), appt.ID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestActionsRequireProfessionalSession(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	clientSess := session.Session{UserID: uuid.New(), Email: "ana@example.com", Kind: session.KindClient}
	_, err := svc.Confirm(context.Background(), clientSess, appt.ID)
	assert.ErrorIs(t, err, ErrProfessionalRequired)

	_, err = svc.Confirm(context.Background(), session.Session{}, appt.ID)
	assert.ErrorIs(t, err, ErrProfessionalRequired)
}

func TestEditRejectsOccupiedTargetSlot(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusConfirmed,
		ProfessionalID: prof.ID,
	})
	target := repo.add(Appointment{
		ClientName:     "Bruno",
		Date:           "2025-09-10",
		Time:           "15:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Edit(context.Background(), profSession(prof), target.ID, EditRequest{
		ClientName: "Bruno",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrEditConflict)
}

func TestEditOntoOwnSlotSucceeds(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	appt := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusConfirmed,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	// Renaming without moving the slot must not conflict with itself.
	updated, err := svc.Edit(context.Background(), profSession(prof), appt.ID, EditRequest{
		ClientName: "Ana Souza",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", updated.ClientName)
	assert.Equal(t, "2025-09-10", updated.Date)
	assert.Equal(t, "14:00", updated.Time)
}

func TestEditNotOwnedAppointment(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	svc := newTestService(repo, &fakeLocker{})

	_, err := svc.Edit(context.Background(), profSession(prof), uuid.New(), EditRequest{
		ClientName: "Ana",
		Date:       "2025-09-10",
		Time:       "14:00",
	})
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestGetScopedToOwner(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	mine := repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	other := repo.add(Appointment{
		ClientName:     "Bruno",
		Date:           "2025-09-10",
		Time:           "15:00",
		Status:         StatusPending,
		ProfessionalID: uuid.New(),
	})
	svc := newTestService(repo, &fakeLocker{})

	got, err := svc.Get(context.Background(), profSession(prof), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = svc.Get(context.Background(), profSession(prof), other.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestListForClient(t *testing.T) {
	prof := testProfessional()
	repo := newFakeRepo(prof)
	clientID := uuid.New()
	repo.add(Appointment{
		ClientName:     "Ana",
		Date:           "2025-09-10",
		Time:           "14:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
		ClientID:       &clientID,
	})
	repo.add(Appointment{
		ClientName:     "Walk-in",
		Date:           "2025-09-10",
		Time:           "15:00",
		Status:         StatusPending,
		ProfessionalID: prof.ID,
	})
	svc := newTestService(repo, &fakeLocker{})

	appts, err := svc.ListForClient(context.Background(), session.Session{
		UserID: clientID,
		Kind:   session.KindClient,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "Ana", appts[0].ClientName)
}
