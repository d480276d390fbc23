package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kevenm/barber-booking/internal/redisclient"
	"github.com/kevenm/barber-booking/pkg/logging"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrRevoked            = errors.New("session has been signed out")
)

// Credentials is what the manager needs to verify a login.
type Credentials struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// Store looks up login credentials. Professionals and clients live in
// separate tables; a login tries professionals first.
type Store interface {
	ProfessionalCredentials(ctx context.Context, email string) (*Credentials, error)
	ClientCredentials(ctx context.Context, email string) (*Credentials, error)
}

// ErrUnknownEmail is returned by Store implementations when no account
// carries the email.
var ErrUnknownEmail = errors.New("unknown email")

type claims struct {
	Email string `json:"email"`
	Kind  Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session tokens. Sign-out revokes the token id
// in the denylist until the token would have expired on its own.
type Manager struct {
	store    Store
	denylist redisclient.Denylist
	secret   []byte
	ttl      time.Duration
	logger   *logging.Logger
}

func NewManager(store Store, denylist redisclient.Denylist, secret string, ttl time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		store:    store,
		denylist: denylist,
		secret:   []byte(secret),
		ttl:      ttl,
		logger:   logger,
	}
}

// Login verifies the password and issues a signed token for the session.
func (m *Manager) Login(ctx context.Context, email, password string) (string, Session, error) {
	kind := KindProfessional
	creds, err := m.store.ProfessionalCredentials(ctx, email)
	if errors.Is(err, ErrUnknownEmail) {
		kind = KindClient
		creds, err = m.store.ClientCredentials(ctx, email)
	}
	if errors.Is(err, ErrUnknownEmail) {
		return "", Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Session{}, fmt.Errorf("load credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		return "", Session{}, ErrInvalidCredentials
	}

	now := time.Now()
	sess := Session{
		UserID:    creds.ID,
		Email:     creds.Email,
		Kind:      kind,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: sess.Email,
		Kind:  sess.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sess.UserID.String(),
			ID:        sess.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session token: %w", err)
	}

	m.logger.Info("session opened", "email", email, "kind", string(kind))
	return signed, sess, nil
}

// Verify parses the token, rejects revoked ones and returns the session.
func (m *Manager) Verify(ctx context.Context, token string) (Session, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	revoked, err := m.denylist.IsRevoked(ctx, c.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check denylist: %w", err)
	}
	if revoked {
		return Session{}, ErrRevoked
	}

	sess := Session{
		UserID:  userID,
		Email:   c.Email,
		Kind:    c.Kind,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	return sess, nil
}

// SignOut revokes the session token for the rest of its lifetime.
func (m *Manager) SignOut(ctx context.Context, sess Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if err := m.denylist.Revoke(ctx, sess.TokenID, ttl); err != nil {
		return err
	}
	m.logger.Info("session closed", "email", sess.Email)
	return nil
}
