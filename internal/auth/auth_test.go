package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseTokenFirebaseClaims(t *testing.T) {
	raw := signToken(t, jwt.MapClaims{
		"iss":     "https://securetoken.google.com/signa-app",
		"sub":     "sub-123",
		"user_id": "uid-123",
		"email":   "signer@example.com",
		"exp":     testNow.Add(time.Hour).Unix(),
	})

	user, err := ParseToken(raw, testNow)
	require.NoError(t, err)
	require.Equal(t, &User{
		ID:        "uid-123",
		Email:     "signer@example.com",
		Issuer:    "https://securetoken.google.com/signa-app",
		ExpiresAt: testNow.Add(time.Hour),
	}, user)
}

func TestParseTokenFallsBackToSubject(t *testing.T) {
	user, err := ParseToken(signToken(t, jwt.MapClaims{"sub": "sub-only"}), testNow)
	require.NoError(t, err)
	require.Equal(t, "sub-only", user.ID)
	require.True(t, user.ExpiresAt.IsZero())
}

func TestParseTokenExpiredYieldsNoUser(t *testing.T) {
	user, err := ParseToken(signToken(t, jwt.MapClaims{"sub": "u", "exp": testNow.Add(-time.Minute).Unix()}), testNow)
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestParseTokenInvalid(t *testing.T) {
	_, err := ParseToken("not-a-jwt", testNow)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseToken(signToken(t, jwt.MapClaims{"email": "x@example.com"}), testNow)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestProviderPrefersEnvironmentToken(t *testing.T) {
	file := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(file, []byte(signToken(t, jwt.MapClaims{"sub": "from-file"})), 0o600))
	envToken := signToken(t, jwt.MapClaims{"sub": "from-env"})
	t.Setenv("SIGNA_ID_TOKEN", envToken)

	session, err := providerAt(file).Load()
	require.NoError(t, err)
	require.False(t, session.Initializing)
	require.Equal(t, "from-env", session.User.ID)
	require.Equal(t, envToken, session.IDToken)
}

func TestProviderReadsTokenFile(t *testing.T) {
	t.Setenv("SIGNA_ID_TOKEN", "")
	file := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(file, []byte(signToken(t, jwt.MapClaims{"sub": "from-file"})+"\n"), 0o600))

	session, err := providerAt(file).Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", session.User.ID)
}

func TestProviderAbsentTokenHasNoUser(t *testing.T) {
	t.Setenv("SIGNA_ID_TOKEN", "")

	session, err := providerAt(filepath.Join(t.TempDir(), "missing")).Load()
	require.NoError(t, err)
	require.Nil(t, session.User)
	require.Empty(t, session.IDToken)

	session, err = providerAt("").Load()
	require.NoError(t, err)
	require.Nil(t, session.User)
}

func TestProviderExpiredTokenDropsToken(t *testing.T) {
	t.Setenv("SIGNA_ID_TOKEN", signToken(t, jwt.MapClaims{"sub": "u", "exp": testNow.Add(-time.Hour).Unix()}))

	session, err := providerAt("").Load()
	require.NoError(t, err)
	require.Nil(t, session.User)
	require.Empty(t, session.IDToken)
}

func TestDecideAndRequire(t *testing.T) {
	require.Equal(t, RouteWait, Decide(Session{Initializing: true}))
	require.Equal(t, RouteApp, Decide(Session{User: &User{ID: "u"}}))
	require.Equal(t, RouteSignIn, Decide(Session{}))

	require.NoError(t, Require(Session{User: &User{ID: "u"}}, true))
	require.ErrorIs(t, Require(Session{}, true), ErrSignInRequired)
	require.ErrorIs(t, Require(Session{Initializing: true}, true), ErrSignInRequired)
	require.NoError(t, Require(Session{}, false))

	require.Equal(t, "sign-in", RouteSignIn.String())
	require.Equal(t, "wait", RouteWait.String())
	require.Equal(t, "app", RouteApp.String())
}

func providerAt(file string) *Provider {
	p := NewProvider(file)
	p.now = func() time.Time { return testNow }
	return p
}
