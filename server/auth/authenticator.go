package auth

import (
	"context"

	"github.com/pkg/errors"
)

type contextKey int

const (
	// userIDContextKey is the key name used to store user id in the context.
	userIDContextKey contextKey = iota
)

// ErrUnauthenticated is returned when a request carries no valid token.
var ErrUnauthenticated = errors.New("authentication required")

// Authenticator resolves the user behind a request.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for tokens signed with secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate verifies the bearer token in authHeader and returns the user id.
func (a *Authenticator) Authenticate(_ context.Context, authHeader string) (int32, error) {
	token := ExtractBearerToken(authHeader)
	if token == "" {
		return 0, ErrUnauthenticated
	}
	userID, _, err := ParseAccessToken(token, a.secret)
	if err != nil {
		return 0, errors.Wrap(ErrUnauthenticated, err.Error())
	}
	return userID, nil
}

// SetUserIDInContext stores the authenticated user id.
func SetUserIDInContext(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// GetUserID returns the authenticated user id, if any.
func GetUserID(ctx context.Context) (int32, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int32)
	return userID, ok && userID > 0
}
