package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// DB is the single-row query subset of pgxpool.Pool the store needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	db DB
}

func NewPgStore(db DB) *PgStore {
	return &PgStore{db: db}
}

func (s *PgStore) ProfessionalCredentials(ctx context.Context, email string) (*Credentials, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash
		FROM professionals
		WHERE email = $1
	`, email)
	return scanCredentials(row)
}

func (s *PgStore) ClientCredentials(ctx context.Context, email string) (*Credentials, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, password_hash
		FROM clients
		WHERE email = $1
	`, email)
	return scanCredentials(row)
}

func scanCredentials(row pgx.Row) (*Credentials, error) {
	var c Credentials
	if err := row.Scan(&c.ID, &c.Email, &c.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownEmail
		}
		return nil, err
	}
	return &c, nil
}
