package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a professional action may move an appointment
// from one status to another. Appointments are only ever created as pending;
// actions target confirmed or cancelled, and a cancelled appointment may be
// reactivated back to confirmed. Self transitions are rejected.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusPending {
		return false
	}
	return from != to
}

// Slot is one bookable calendar position: an exact (date, time) string pair.
// Date is YYYY-MM-DD, Time is HH:MM, both in the professional's local wall
// clock. Equality of the pair is what defines a conflict.
type Slot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type Appointment struct {
	ID             uuid.UUID
	ClientName     string
	Date           string
	Time           string
	Status         Status
	ProfessionalID uuid.UUID
	ClientID       *uuid.UUID
	CreatedAt      time.Time
}

func (a Appointment) Slot() Slot {
	return Slot{Date: a.Date, Time: a.Time}
}

type Professional struct {
	ID          uuid.UUID
	Name        string
	PhoneNumber string
	Email       string
}

type Client struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone *string
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// ValidDate reports whether s is a well formed YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a well formed HH:MM time of day.
func ValidTime(s string) bool {
	_, err := time.Parse(timeLayout, s)
	return err == nil
}
