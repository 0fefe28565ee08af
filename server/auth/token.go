// Package auth issues and verifies access tokens that identify the tenant (user)
// behind each request.
package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the issuer of access tokens.
	Issuer = "notegraph"
	// KeyID is the key id placed in token headers.
	KeyID = "v1"
	// AccessTokenAudienceName is the audience of access tokens.
	AccessTokenAudienceName = "user.access-token"
	// AccessTokenDuration is the default lifetime of access tokens.
	AccessTokenDuration = 7 * 24 * time.Hour
)

// ClaimsMessage is the JWT claims set of an access token.
type ClaimsMessage struct {
	Name   string `json:"name"`
	UserID int32  `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an access token for userID.
func GenerateAccessToken(username string, userID int32, expirationTime time.Time, secret []byte) (string, error) {
	claims := &ClaimsMessage{
		Name:   username,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{AccessTokenAudienceName},
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   Issuer,
			Subject:  strconv.Itoa(int(userID)),
		},
	}
	if !expirationTime.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// ParseAccessToken verifies tokenString and returns the user id it was issued for.
func ParseAccessToken(tokenString string, secret []byte) (int32, *ClaimsMessage, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if kid, ok := t.Header["kid"].(string); !ok || kid != KeyID {
				return nil, errors.Errorf("unexpected kid %v", t.Header["kid"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AccessTokenAudienceName),
	)
	if err != nil {
		return 0, nil, errors.Wrap(err, "invalid access token")
	}

	if claims.UserID <= 0 || claims.Subject != strconv.Itoa(int(claims.UserID)) {
		return 0, nil, errors.Errorf("invalid user claim %d for subject %q", claims.UserID, claims.Subject)
	}
	return claims.UserID, claims, nil
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>" header.
func ExtractBearerToken(authHeader string) string {
	const prefix = "bearer "
	if len(authHeader) <= len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(prefix):])
}
