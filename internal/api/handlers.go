package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kevenm/barber-booking/internal/booking"
	"github.com/kevenm/barber-booking/internal/dashboard"
	"github.com/kevenm/barber-booking/internal/notify"
	"github.com/kevenm/barber-booking/internal/session"
)

func loginHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
			return
		}

		token, sess, err := mgr.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, session.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token, Session: sess})
	}
}

func logoutHandler(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication_required", "no active session")
			return
		}
		if err := mgr.SignOut(r.Context(), sess); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createBookingHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		bookReq := booking.BookRequest{
			ClientName: req.ClientName,
			Date:       req.Date,
			Time:       req.Time,
		}
		// A signed-in client gets the booking attached to their account.
		if sess, ok := SessionFromContext(r.Context()); ok && sess.Kind == session.KindClient {
			id := sess.UserID
			bookReq.ClientID = &id
			bookReq.ClientEmail = sess.Email
		}

		result, err := svc.Book(r.Context(), bookReq)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := BookingResponse{
			Appointment: toAppointmentResponse(result.Appointment),
			WhatsAppURL: notify.WhatsAppLink(result.Professional, result.Appointment.ClientName, result.Appointment.Date, result.Appointment.Time),
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func takenSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var email string
		if sess, ok := SessionFromContext(r.Context()); ok {
			email = sess.Email
		}

		slots, prof, err := svc.TakenSlots(r.Context(), email)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		if slots == nil {
			slots = []booking.Slot{}
		}
		writeJSON(w, http.StatusOK, SlotsResponse{
			ProfessionalID:   prof.ID,
			ProfessionalName: prof.Name,
			Slots:            slots,
		})
	}
}

func myAppointmentsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		appts, err := svc.ListForClient(r.Context(), sess)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(appts))
	}
}

func myProfileHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		client, err := svc.ClientProfile(r.Context(), sess)
		if err != nil {
			if errors.Is(err, booking.ErrClientNotFound) {
				writeError(w, http.StatusNotFound, "client_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ClientResponse{
			ID:    client.ID,
			Name:  client.Name,
			Email: client.Email,
			Phone: client.Phone,
		})
	}
}

func dashboardAppointmentsHandler(svc *booking.Service, refresher *dashboard.Refresher, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		prof, err := svc.ProfessionalFor(r.Context(), sess)
		if err != nil {
			handleActionError(w, err)
			return
		}

		appts, fetchedAt, err := refresher.Snapshot(r.Context(), prof.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		filter := booking.Filter{Search: r.URL.Query().Get("search")}
		if status := r.URL.Query().Get("status"); status != "" {
			s := booking.Status(status)
			if !s.Valid() {
				writeError(w, http.StatusBadRequest, "invalid_status", "status must be pending, confirmed or cancelled")
				return
			}
			filter.Status = s
		}

		buckets := booking.Bucketize(appts, now().Format("2006-01-02"), filter)
		writeJSON(w, http.StatusOK, DashboardResponse{
			Today:     toAppointmentResponses(buckets.Today),
			Future:    toAppointmentResponses(buckets.Future),
			Past:      toAppointmentResponses(buckets.Past),
			FetchedAt: fetchedAt,
		})
	}
}

func dashboardRefreshHandler(svc *booking.Service, refresher *dashboard.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFromContext(r.Context())
		prof, err := svc.ProfessionalFor(r.Context(), sess)
		if err != nil {
			handleActionError(w, err)
			return
		}

		if _, err := refresher.Refresh(r.Context(), prof.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sess, _ := SessionFromContext(r.Context())

		appt, err := svc.Get(r.Context(), sess, id)
		if err != nil {
			handleActionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func confirmAppointmentHandler(svc *booking.Service, refresher *dashboard.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sess, _ := SessionFromContext(r.Context())

		appt, err := svc.Confirm(r.Context(), sess, id)
		if err != nil {
			handleActionError(w, err)
			return
		}
		refreshSnapshot(r, refresher, appt.ProfessionalID)
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *booking.Service, refresher *dashboard.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sess, _ := SessionFromContext(r.Context())

		var req CancelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Cancel(r.Context(), sess, id, req.Confirm)
		if err != nil {
			handleActionError(w, err)
			return
		}
		refreshSnapshot(r, refresher, appt.ProfessionalID)
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func editAppointmentHandler(svc *booking.Service, refresher *dashboard.Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(w, r)
		if !ok {
			return
		}
		sess, _ := SessionFromContext(r.Context())

		var req EditAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.Edit(r.Context(), sess, id, booking.EditRequest{
			ClientName: req.ClientName,
			Date:       req.Date,
			Time:       req.Time,
		})
		if err != nil {
			handleActionError(w, err)
			return
		}
		refreshSnapshot(r, refresher, appt.ProfessionalID)
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// refreshSnapshot refetches the dashboard snapshot after a successful
// mutation, so the professional's own action shows up on the next read
// instead of waiting for a poll tick. A failed refetch keeps the previous
// snapshot and never fails the action itself.
func refreshSnapshot(r *http.Request, refresher *dashboard.Refresher, professionalID uuid.UUID) {
	_, _ = refresher.Refresh(r.Context(), professionalID)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrNameRequired),
		errors.Is(err, booking.ErrBadDate),
		errors.Is(err, booking.ErrBadTime),
		errors.Is(err, booking.ErrOutsideWindow):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, booking.ErrProfessionalNotFound):
		writeError(w, http.StatusUnprocessableEntity, "no_professional", "no professional is registered")
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_being_booked", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrProfessionalRequired):
		writeError(w, http.StatusUnauthorized, "authentication_required", err.Error())
	case errors.Is(err, booking.ErrNotOwned):
		// Ownership failure and missing record share one message on purpose.
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrEditConflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, booking.ErrConfirmationRequired):
		writeError(w, http.StatusBadRequest, "confirmation_required", err.Error())
	case errors.Is(err, booking.ErrNameRequired),
		errors.Is(err, booking.ErrBadDate),
		errors.Is(err, booking.ErrBadTime):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
