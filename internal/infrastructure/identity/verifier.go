package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	chat "github.com/mohdafzal1700/max-chat/internal/pkg/chat/application/domain"
)

// ErrUnauthenticated covers every handshake rejection: missing token, bad
// signature, expired claims, or a user id that no longer exists.
var ErrUnauthenticated = errors.New("identity: credential rejected")

// Verifier turns an opaque credential into a verified user identity. The
// websocket controller refuses the connection before upgrade when Verify
// fails; no partial state is created.
type Verifier interface {
	Verify(ctx context.Context, token string) (chat.UserIdentity, error)
}

// UserDirectory is the narrow store view the verifier needs to resolve the
// display name behind a token's user id.
type UserDirectory interface {
	FindUser(ctx context.Context, id chat.UserID) (*chat.UserIdentity, error)
}

// Claims is the payload carried inside access tokens. Only user_id matters to
// the chat core; everything else stays with the external auth service.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 bearer tokens minted by the external auth
// service and resolves the embedded user id against the user directory.
type JWTVerifier struct {
	secret []byte
	users  UserDirectory
}

func NewJWTVerifier(secret string, users UserDirectory) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), users: users}
}

var _ Verifier = (*JWTVerifier)(nil)

func (v *JWTVerifier) Verify(ctx context.Context, token string) (chat.UserIdentity, error) {
	if strings.TrimSpace(token) == "" {
		return chat.UserIdentity{}, ErrUnauthenticated
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return chat.UserIdentity{}, ErrUnauthenticated
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return chat.UserIdentity{}, ErrUnauthenticated
	}

	// Resolve against the directory so the username is fresh and tokens for
	// deleted users stop working immediately.
	user, err := v.users.FindUser(ctx, chat.UserID(claims.UserID))
	if err != nil {
		return chat.UserIdentity{}, ErrUnauthenticated
	}
	return *user, nil
}

// TokenFromRequest extracts the handshake credential: the "token" query
// parameter is primary, an "Authorization: Bearer" header the alternative.
// Returns "" when neither is present.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
