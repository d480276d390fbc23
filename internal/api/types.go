package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/kevenm/barber-booking/internal/booking"
	"github.com/kevenm/barber-booking/internal/session"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

type CreateBookingRequest struct {
	ClientName string `json:"client_name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type AppointmentResponse struct {
	ID             uuid.UUID  `json:"id"`
	ClientName     string     `json:"client_name"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	Status         string     `json:"status"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ClientName:     a.ClientName,
		Date:           a.Date,
		Time:           a.Time,
		Status:         string(a.Status),
		ProfessionalID: a.ProfessionalID,
		ClientID:       a.ClientID,
		CreatedAt:      a.CreatedAt,
	}
}

func toAppointmentResponses(appts []booking.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for i := range appts {
		out = append(out, toAppointmentResponse(&appts[i]))
	}
	return out
}

type BookingResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	WhatsAppURL string              `json:"whatsapp_url,omitempty"`
}

type SlotsResponse struct {
	ProfessionalID   uuid.UUID      `json:"professional_id"`
	ProfessionalName string         `json:"professional_name"`
	Slots            []booking.Slot `json:"slots"`
}

type CancelRequest struct {
	Confirm bool `json:"confirm"`
}

type EditAppointmentRequest struct {
	ClientName string `json:"client_name"`
	Date       string `json:"date"`
	Time       string `json:"time"`
}

type DashboardResponse struct {
	Today     []AppointmentResponse `json:"today"`
	Future    []AppointmentResponse `json:"future"`
	Past      []AppointmentResponse `json:"past"`
	FetchedAt time.Time             `json:"fetched_at"`
}

type ClientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
