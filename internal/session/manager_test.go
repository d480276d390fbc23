package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kevenm/barber-booking/internal/redisclient"
	"github.com/kevenm/barber-booking/pkg/logging"
)

type stubStore struct {
	professionals map[string]*Credentials
	clients       map[string]*Credentials
}

func (s *stubStore) ProfessionalCredentials(ctx context.Context, email string) (*Credentials, error) {
	if c, ok := s.professionals[email]; ok {
		return c, nil
	}
	return nil, ErrUnknownEmail
}

func (s *stubStore) ClientCredentials(ctx context.Context, email string) (*Credentials, error) {
	if c, ok := s.clients[email]; ok {
		return c, nil
	}
	return nil, ErrUnknownEmail
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newTestManager(t *testing.T) (*Manager, *stubStore) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &stubStore{
		professionals: map[string]*Credentials{
			"barber@admin.com": {
				ID:           uuid.New(),
				Email:        "barber@admin.com",
				PasswordHash: hashPassword(t, "barber123"),
			},
		},
		clients: map[string]*Credentials{
			"ana@example.com": {
				ID:           uuid.New(),
				Email:        "ana@example.com",
				PasswordHash: hashPassword(t, "client123"),
			},
		},
	}

	mgr := NewManager(store, redisclient.NewRedisDenylist(client), "test-secret", time.Hour, logging.New("error"))
	return mgr, store
}

func TestLoginAndVerifyProfessional(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	token, sess, err := mgr.Login(ctx, "barber@admin.com", "barber123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, KindProfessional, sess.Kind)
	assert.Equal(t, store.professionals["barber@admin.com"].ID, sess.UserID)

	verified, err := mgr.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, verified.UserID)
	assert.Equal(t, "barber@admin.com", verified.Email)
	assert.Equal(t, KindProfessional, verified.Kind)
	assert.Equal(t, sess.TokenID, verified.TokenID)
}

func TestLoginFallsBackToClientTable(t *testing.T) {
	mgr, store := newTestManager(t)

	_, sess, err := mgr.Login(context.Background(), "ana@example.com", "client123")
	require.NoError(t, err)
	assert.Equal(t, KindClient, sess.Kind)
	assert.Equal(t, store.clients["ana@example.com"].ID, sess.UserID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, _, err := mgr.Login(ctx, "barber@admin.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = mgr.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsGarbageAndForeignTokens(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Verify(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Token signed by a manager with a different secret.
	other, _ := newTestManager(t)
	other.secret = []byte("other-secret")
	token, _, err := other.Login(ctx, "barber@admin.com", "barber123")
	require.NoError(t, err)

	_, err = mgr.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSignOutRevokesToken(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	token, sess, err := mgr.Login(ctx, "barber@admin.com", "barber123")
	require.NoError(t, err)

	_, err = mgr.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, mgr.SignOut(ctx, sess))

	_, err = mgr.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrRevoked)
}

func TestSignOutOnlyRevokesOneSession(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	first, firstSess, err := mgr.Login(ctx, "barber@admin.com", "barber123")
	require.NoError(t, err)
	second, _, err := mgr.Login(ctx, "barber@admin.com", "barber123")
	require.NoError(t, err)

	require.NoError(t, mgr.SignOut(ctx, firstSess))

	_, err = mgr.Verify(ctx, first)
	assert.ErrorIs(t, err, ErrRevoked)

	// The second token carries its own id and stays valid.
	_, err = mgr.Verify(ctx, second)
	assert.NoError(t, err)
}
