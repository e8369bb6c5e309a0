package identity

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

const testSecret = "test-signing-secret"

type directoryStub struct {
	users map[chat.UserID]chat.UserIdentity
}

func (d *directoryStub) FindUser(_ context.Context, id chat.UserID) (*chat.UserIdentity, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, chat.ErrUserNotFound
	}
	return &u, nil
}

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	directory := &directoryStub{users: map[chat.UserID]chat.UserIdentity{
		7: {ID: 7, Username: "alice"},
	}}
	verifier := NewJWTVerifier(testSecret, directory)

	t.Run("should resolve a valid token to its user", func(t *testing.T) {
		req := require.New(t)
		token := signToken(t, testSecret, Claims{UserID: 7})

		user, err := verifier.Verify(ctx, token)
		req.NoError(err)
		req.Equal(chat.UserID(7), user.ID)
		req.Equal("alice", user.Username)
	})

	t.Run("should reject an empty credential", func(t *testing.T) {
		req := require.New(t)
		_, err := verifier.Verify(ctx, "  ")
		req.ErrorIs(err, ErrUnauthenticated)
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		req := require.New(t)
		token := signToken(t, "wrong-secret", Claims{UserID: 7})

		_, err := verifier.Verify(ctx, token)
		req.ErrorIs(err, ErrUnauthenticated)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		req := require.New(t)
		token := signToken(t, testSecret, Claims{
			UserID: 7,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})

		_, err := verifier.Verify(ctx, token)
		req.ErrorIs(err, ErrUnauthenticated)
	})

	t.Run("should reject a token without a user id", func(t *testing.T) {
		req := require.New(t)
		token := signToken(t, testSecret, Claims{})

		_, err := verifier.Verify(ctx, token)
		req.ErrorIs(err, ErrUnauthenticated)
	})

	t.Run("should reject a token for a deleted user", func(t *testing.T) {
		req := require.New(t)
		token := signToken(t, testSecret, Claims{UserID: 404})

		_, err := verifier.Verify(ctx, token)
		req.ErrorIs(err, ErrUnauthenticated)
	})

	t.Run("should reject the none algorithm", func(t *testing.T) {
		req := require.New(t)
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		req.NoError(err)

		_, err = verifier.Verify(ctx, token)
		req.ErrorIs(err, ErrUnauthenticated)
	})
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("should prefer the token query parameter", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/api/v1/ws?token=from-query", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		req.Equal("from-query", TokenFromRequest(r))
	})

	t.Run("should fall back to the bearer header", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/api/v1/ws", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		req.Equal("from-header", TokenFromRequest(r))
	})

	t.Run("should return empty when no credential is present", func(t *testing.T) {
		req := require.New(t)
		r := httptest.NewRequest("GET", "/api/v1/ws", nil)
		req.Empty(TokenFromRequest(r))

		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		req.Empty(TokenFromRequest(r))
	})
}
