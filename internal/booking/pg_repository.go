package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies
// it too, so repository tests run without a database.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

const appointmentColumns = `
	id, client_name, to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI'),
	status, professional_id, client_id, created_at`

// Helpers

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.PhoneNumber,
		&p.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var phone *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.Phone = phone
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string
	var clientID *uuid.UUID

	err := row.Scan(
		&a.ID,
		&a.ClientName,
		&a.Date,
		&a.Time,
		&status,
		&a.ProfessionalID,
		&clientID,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Status = Status(status)
	a.ClientID = clientID
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Interface methods

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone_number, email
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) GetProfessionalByEmail(ctx context.Context, email string) (*Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone_number, email
		FROM professionals
		WHERE email = $1
	`, email)
	return scanProfessional(row)
}

func (r *PgRepository) GetAnyProfessional(ctx context.Context) (*Professional, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone_number, email
		FROM professionals
		ORDER BY created_at
		LIMIT 1
	`)
	return scanProfessional(row)
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, email, phone
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) ListByProfessional(ctx context.Context, professionalID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE professional_id = $1
		ORDER BY date ASC, time ASC
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_id = $1
		ORDER BY date ASC, time ASC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListSlots(ctx context.Context, professionalID uuid.UUID) ([]Slot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM-DD'), to_char(time, 'HH24:MI')
		FROM appointments
		WHERE professional_id = $1
	`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		var s Slot
		if err := rows.Scan(&s.Date, &s.Time); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentForProfessional(ctx context.Context, id, professionalID uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		  AND professional_id = $2
	`, id, professionalID)
	return scanAppointment(row)
}

func (r *PgRepository) CreatePending(ctx context.Context, p CreateParams) (*Appointment, error) {
	id := uuid.New()

	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, client_name, date, time, status, professional_id, client_id, created_at)
		VALUES ($1, $2, $3::date, $4::time, 'pending', $5, $6, now())
		RETURNING `+appointmentColumns+`
	`, id, p.ClientName, p.Date, p.Time, p.ProfessionalID, p.ClientID)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotOccupied
		}
		return nil, err
	}
	return appt, nil
}

// UpdateStatusScoped moves an appointment to the target status, scoped by
// both appointment id and owning professional id. The status guard rejects
// self transitions; everything else between the three states is legal
// (reactivation of a cancelled appointment included).
func (r *PgRepository) UpdateStatusScoped(ctx context.Context, id, professionalID uuid.UUID, to Status) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3
		WHERE id = $1
		  AND professional_id = $2
		  AND status <> $3
		RETURNING `+appointmentColumns+`
	`, id, professionalID, string(to))

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotOccupied
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) UpdateDetailsScoped(ctx context.Context, id, professionalID uuid.UUID, clientName, date, timeOfDay string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE appointments
		SET client_name = $3,
		    date = $4::date,
		    time = $5::time
		WHERE id = $1
		  AND professional_id = $2
		RETURNING `+appointmentColumns+`
	`, id, professionalID, clientName, date, timeOfDay)

	appt, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSlotOccupied
		}
		return nil, err
	}
	return appt, nil
}

func (r *PgRepository) HasConflict(ctx context.Context, professionalID uuid.UUID, date, timeOfDay string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE professional_id = $1
			  AND date = $2::date
			  AND time = $3::time
			  AND id <> $4
		)
	`, professionalID, date, timeOfDay, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
