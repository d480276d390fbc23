package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kevenm/barber-booking/internal/config"
	"github.com/kevenm/barber-booking/internal/metrics"
	"github.com/kevenm/barber-booking/internal/redisclient"
	"github.com/kevenm/barber-booking/internal/session"
	"github.com/kevenm/barber-booking/pkg/logging"
)

var (
	ErrNameRequired  = errors.New("client name is required")
	ErrBadDate       = errors.New("date must be YYYY-MM-DD")
	ErrBadTime       = errors.New("time must be HH:MM")
	ErrOutsideWindow = errors.New("date is outside the booking window")

	ErrSlotTaken = errors.New("slot is already booked")
	ErrSlotBusy  = errors.New("slot is currently being booked, please retry")

	// ErrNotOwned covers both "no such appointment" and "owned by a different
	// professional"; callers are given a single message for the two cases.
	ErrNotOwned = errors.New("appointment not found for this professional")

	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrEditConflict         = errors.New("target slot is occupied by another appointment")
	ErrConfirmationRequired = errors.New("cancellation requires explicit confirmation")
	ErrProfessionalRequired = errors.New("professional session required")
)

// Service mediates every mutating operation on appointments: creation with
// the advisory availability check, the status lifecycle, and edits with
// their conflict pre-check. All writes are scoped by the owning professional.
type Service struct {
	repo    Repository
	slots   *SlotCache
	locker  redisclient.Locker
	cfg     config.Config
	metrics *metrics.Booking
	logger  *logging.Logger
}

func NewService(repo Repository, slots *SlotCache, locker redisclient.Locker, cfg config.Config, m *metrics.Booking, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:    repo,
		slots:   slots,
		locker:  locker,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

type BookRequest struct {
	ClientName string
	Date       string
	Time       string

	// Set when the caller holds an authenticated client session.
	ClientID    *uuid.UUID
	ClientEmail string
}

type BookingResult struct {
	Appointment  *Appointment
	Professional *Professional
}

// Book validates the request, runs the advisory availability check against
// the cached slot list, and inserts the appointment as pending under the
// per-slot lock. The partial unique index backs the check up: a race that
// slips past the cache surfaces as ErrSlotTaken from the insert itself.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookingResult, error) {
	if req.ClientName == "" {
		return nil, ErrNameRequired
	}
	if !ValidDate(req.Date) {
		return nil, ErrBadDate
	}
	if !ValidTime(req.Time) {
		return nil, ErrBadTime
	}
	if req.Date < s.cfg.BookingMinDate || req.Date > s.cfg.BookingMaxDate {
		return nil, ErrOutsideWindow
	}

	prof, err := s.resolveBookingProfessional(ctx, req.ClientEmail)
	if err != nil {
		return nil, err
	}

	existing, err := s.slots.Slots(ctx, prof.ID)
	if err != nil {
		return nil, err
	}
	if !IsAvailable(req.Date, req.Time, existing) {
		s.metrics.ObserveBooking("slot_taken")
		return nil, ErrSlotTaken
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, prof.ID, req.Date, req.Time, func(lockCtx context.Context) error {
		appt, err := s.repo.CreatePending(lockCtx, CreateParams{
			ClientName:     req.ClientName,
			Date:           req.Date,
			Time:           req.Time,
			ProfessionalID: prof.ID,
			ClientID:       req.ClientID,
		})
		if err != nil {
			return err
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("slot_busy")
			return nil, ErrSlotBusy
		}
		if errors.Is(err, ErrSlotOccupied) {
			s.metrics.ObserveBooking("slot_taken")
			return nil, ErrSlotTaken
		}
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	// Side effect of a successful booking: the cached slot list is refreshed
	// so the next availability check already sees this appointment.
	if err := s.slots.Refresh(ctx, prof.ID); err != nil {
		s.logger.Warn("slot cache refresh failed after booking", "professional_id", prof.ID, "error", err)
	}

	s.metrics.ObserveBooking("created")
	s.logger.Info("appointment created",
		"appointment_id", created.ID, "professional_id", prof.ID,
		"date", created.Date, "time", created.Time)

	return &BookingResult{Appointment: created, Professional: prof}, nil
}

// resolveBookingProfessional follows the original resolution chain: the
// configured default professional, then the signed-in email, then any
// registered professional.
func (s *Service) resolveBookingProfessional(ctx context.Context, email string) (*Professional, error) {
	if s.cfg.DefaultProfessionalID != "" {
		if id, err := uuid.Parse(s.cfg.DefaultProfessionalID); err == nil {
			prof, err := s.repo.GetProfessionalByID(ctx, id)
			if err == nil {
				return prof, nil
			}
			if !errors.Is(err, ErrProfessionalNotFound) {
				return nil, fmt.Errorf("load default professional: %w", err)
			}
		}
	}

	if email != "" {
		prof, err := s.repo.GetProfessionalByEmail(ctx, email)
		if err == nil {
			return prof, nil
		}
		if !errors.Is(err, ErrProfessionalNotFound) {
			return nil, fmt.Errorf("load professional by email: %w", err)
		}
	}

	prof, err := s.repo.GetAnyProfessional(ctx)
	if err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, ErrProfessionalNotFound
		}
		return nil, fmt.Errorf("load professional: %w", err)
	}
	return prof, nil
}

// TakenSlots resolves the booking professional and returns its occupied
// (date, time) pairs. This is what the public booking form polls to run the
// advisory check client side.
func (s *Service) TakenSlots(ctx context.Context, email string) ([]Slot, *Professional, error) {
	prof, err := s.resolveBookingProfessional(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	slots, err := s.slots.Slots(ctx, prof.ID)
	if err != nil {
		return nil, nil, err
	}
	return slots, prof, nil
}

// Confirm moves the appointment to confirmed on behalf of the acting
// professional.
func (s *Service) Confirm(ctx context.Context, actor session.Session, id uuid.UUID) (*Appointment, error) {
	return s.setStatus(ctx, actor, id, StatusConfirmed)
}

// Cancel moves the appointment to cancelled. The confirmed flag carries the
// caller's explicit acknowledgement; without it no write is attempted.
func (s *Service) Cancel(ctx context.Context, actor session.Session, id uuid.UUID, confirmed bool) (*Appointment, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	return s.setStatus(ctx, actor, id, StatusCancelled)
}

func (s *Service) setStatus(ctx context.Context, actor session.Session, id uuid.UUID, to Status) (*Appointment, error) {
	prof, err := s.requireProfessional(ctx, actor)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatusScoped(ctx, id, prof.ID, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, s.classifyMiss(ctx, id, prof.ID, to)
		}
		if errors.Is(err, ErrSlotOccupied) {
			// Reactivating a cancelled appointment whose slot another active
			// appointment has taken in the meantime. The unique index only
			// ignores cancelled rows, so the update itself trips it.
			s.metrics.ObserveStatusChange(string(to), "conflict")
			return nil, ErrEditConflict
		}
		s.metrics.ObserveStatusChange(string(to), "error")
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.metrics.ObserveStatusChange(string(to), "ok")
	s.logger.Info("appointment status updated",
		"appointment_id", id, "professional_id", prof.ID, "status", string(to))
	return updated, nil
}

// classifyMiss decides why a scoped status update matched no row: either the
// appointment does not exist under this professional (ownership failure) or
// it does but the requested transition is illegal.
func (s *Service) classifyMiss(ctx context.Context, id, professionalID uuid.UUID, to Status) error {
	existing, err := s.repo.GetAppointmentForProfessional(ctx, id, professionalID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.metrics.ObserveStatusChange(string(to), "not_owned")
			return ErrNotOwned
		}
		return fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(existing.Status, to) {
		s.metrics.ObserveStatusChange(string(to), "invalid_transition")
		return ErrInvalidTransition
	}
	// Row exists and the transition reads as legal; the scoped update must
	// have lost a race. Report it the same way as an illegal move.
	return ErrInvalidTransition
}

type EditRequest struct {
	ClientName string
	Date       string
	Time       string
}

// Edit updates client_name/date/time of an appointment owned by the acting
// professional. Before writing it re-queries the store for another
// appointment at the new slot; editing an appointment onto its own unchanged
// slot passes, because the check excludes the appointment itself.
func (s *Service) Edit(ctx context.Context, actor session.Session, id uuid.UUID, req EditRequest) (*Appointment, error) {
	if req.ClientName == "" {
		return nil, ErrNameRequired
	}
	if !ValidDate(req.Date) {
		return nil, ErrBadDate
	}
	if !ValidTime(req.Time) {
		return nil, ErrBadTime
	}

	prof, err := s.requireProfessional(ctx, actor)
	if err != nil {
		return nil, err
	}

	conflict, err := s.repo.HasConflict(ctx, prof.ID, req.Date, req.Time, id)
	if err != nil {
		return nil, fmt.Errorf("check edit conflict: %w", err)
	}
	if conflict {
		s.metrics.ObserveEdit("conflict")
		return nil, ErrEditConflict
	}

	updated, err := s.repo.UpdateDetailsScoped(ctx, id, prof.ID, req.ClientName, req.Date, req.Time)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			s.metrics.ObserveEdit("not_owned")
			return nil, ErrNotOwned
		}
		if errors.Is(err, ErrSlotOccupied) {
			// A concurrent booking slipped in between the pre-check and the
			// write; the unique index caught it.
			s.metrics.ObserveEdit("conflict")
			return nil, ErrEditConflict
		}
		s.metrics.ObserveEdit("error")
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	// The slot pair may have moved; keep the advisory cache honest.
	if err := s.slots.Refresh(ctx, prof.ID); err != nil {
		s.logger.Warn("slot cache refresh failed after edit", "professional_id", prof.ID, "error", err)
	}

	s.metrics.ObserveEdit("ok")
	s.logger.Info("appointment edited", "appointment_id", id, "professional_id", prof.ID)
	return updated, nil
}

// Get returns one appointment owned by the acting professional.
func (s *Service) Get(ctx context.Context, actor session.Session, id uuid.UUID) (*Appointment, error) {
	prof, err := s.requireProfessional(ctx, actor)
	if err != nil {
		return nil, err
	}
	appt, err := s.repo.GetAppointmentForProfessional(ctx, id, prof.ID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrNotOwned
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

// ListForProfessional returns the acting professional's appointments ordered
// by (date, time) ascending.
func (s *Service) ListForProfessional(ctx context.Context, actor session.Session) ([]Appointment, error) {
	prof, err := s.requireProfessional(ctx, actor)
	if err != nil {
		return nil, err
	}
	appts, err := s.repo.ListByProfessional(ctx, prof.ID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// ListForClient returns the booking history of the signed-in client.
func (s *Service) ListForClient(ctx context.Context, actor session.Session) ([]Appointment, error) {
	appts, err := s.repo.ListByClient(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list client appointments: %w", err)
	}
	return appts, nil
}

// ClientProfile returns the signed-in client's record, used to prefill the
// booking form.
func (s *Service) ClientProfile(ctx context.Context, actor session.Session) (*Client, error) {
	client, err := s.repo.GetClientByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("load client: %w", err)
	}
	return client, nil
}

// ProfessionalFor resolves the professional behind a session. Dashboard
// reads go through this so they are scoped exactly like the writes.
func (s *Service) ProfessionalFor(ctx context.Context, actor session.Session) (*Professional, error) {
	return s.requireProfessional(ctx, actor)
}

// requireProfessional re-resolves the acting professional from the session
// email on every call. A cached professional id is never trusted for writes.
func (s *Service) requireProfessional(ctx context.Context, actor session.Session) (*Professional, error) {
	if actor.Kind != session.KindProfessional || actor.Email == "" {
		return nil, ErrProfessionalRequired
	}
	prof, err := s.repo.GetProfessionalByEmail(ctx, actor.Email)
	if err != nil {
		if errors.Is(err, ErrProfessionalNotFound) {
			return nil, ErrProfessionalRequired
		}
		return nil, fmt.Errorf("resolve professional: %w", err)
	}
	return prof, nil
}
