package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProfessionalNotFound = errors.New("professional not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")

	// ErrSlotOccupied is raised by the storage layer when the partial unique
	// index on (professional_id, date, time) rejects a write.
	ErrSlotOccupied = errors.New("slot already occupied")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error)
	GetProfessionalByEmail(ctx context.Context, email string) (*Professional, error)
	GetAnyProfessional(ctx context.Context) (*Professional, error)

	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// Reads ordered by (date, time) ascending.
	ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Appointment, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Appointment, error)

	// All occupied (date, time) pairs of a professional, any status. Feeds
	// the advisory availability check.
	ListSlots(ctx context.Context, professionalID uuid.UUID) ([]Slot, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentForProfessional(ctx context.Context, id, professionalID uuid.UUID) (*Appointment, error)

	CreatePending(ctx context.Context, p CreateParams) (*Appointment, error)

	// Ownership-scoped writes. Both return ErrAppointmentNotFound when the
	// scoped WHERE clause matched no row.
	UpdateStatusScoped(ctx context.Context, id, professionalID uuid.UUID, to Status) (*Appointment, error)
	UpdateDetailsScoped(ctx context.Context, id, professionalID uuid.UUID, clientName, date, timeOfDay string) (*Appointment, error)

	// For the edit pre-check: another appointment of the same professional at
	// the exact (date, time), excluding the one being edited.
	HasConflict(ctx context.Context, professionalID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error)
}

type CreateParams struct {
	ClientName     string
	Date           string
	Time           string
	ProfessionalID uuid.UUID
	ClientID       *uuid.UUID
}
