package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken("alice", 42, time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)

	userID, claims, err := ParseAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, int32(42), userID)
	assert.Equal(t, int32(42), claims.UserID)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseAccessTokenRejects(t *testing.T) {
	expired, err := GenerateAccessToken("alice", 1, time.Now().Add(-time.Minute), testSecret)
	require.NoError(t, err)

	valid, err := GenerateAccessToken("alice", 1, time.Time{}, testSecret)
	require.NoError(t, err)

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, &ClaimsMessage{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: Issuer, Audience: jwt.ClaimStrings{AccessTokenAudienceName}},
	})
	noneToken.Header["kid"] = KeyID
	unsigned, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	mismatched := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		UserID: 2,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", Issuer: Issuer, Audience: jwt.ClaimStrings{AccessTokenAudienceName}},
	})
	mismatched.Header["kid"] = KeyID
	forged, err := mismatched.SignedString(testSecret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"subject mismatch", forged, testSecret},
		{"expired", expired, testSecret},
		{"wrong secret", valid, []byte("other")},
		{"none algorithm", unsigned, testSecret},
		{"garbage", "not-a-token", testSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseAccessToken(tt.token, tt.secret)
			require.Error(t, err)
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearerToken("bearer  abc "))
	assert.Equal(t, "", ExtractBearerToken("Basic abc"))
	assert.Equal(t, "", ExtractBearerToken("Bearer "))
	assert.Equal(t, "", ExtractBearerToken(""))
}

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()
	a := NewAuthenticator(string(testSecret))

	token, err := GenerateAccessToken("bob", 7, time.Now().Add(time.Hour), testSecret)
	require.NoError(t, err)

	userID, err := a.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, int32(7), userID)

	_, err = a.Authenticate(ctx, "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = a.Authenticate(ctx, "Bearer broken")
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, ok := GetUserID(ctx)
	assert.False(t, ok)
	ctx = SetUserIDInContext(ctx, 7)
	got, ok := GetUserID(ctx)
	assert.True(t, ok)
	assert.Equal(t, int32(7), got)
}
