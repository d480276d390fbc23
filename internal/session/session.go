package session

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindProfessional Kind = "professional"
	KindClient       Kind = "client"
)

// Session is the explicit authenticated context passed to every operation
// that needs one. It is resolved from the bearer token per request; nothing
// holds it globally.
type Session struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Kind      Kind      `json:"kind"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}
