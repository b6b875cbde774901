// Package auth reads the signed-in user from a Firebase ID token.
//
// The token is decoded without signature verification; the backend verifies
// it on every upload. signa only needs the claims to decide routing.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSignInRequired is returned when a command needs a user and none is present.
	ErrSignInRequired = errors.New("sign-in required: set SIGNA_ID_TOKEN or auth.token_file")
	// ErrInvalidToken wraps tokens whose claims cannot be decoded.
	ErrInvalidToken = errors.New("invalid id token")
)

// User is the identity carried by a valid token.
type User struct {
	ID        string
	Email     string
	Issuer    string
	ExpiresAt time.Time
}

// Session mirrors the identity provider state consumed by routing.
type Session struct {
	User         *User
	IDToken      string
	Initializing bool
}

// Route is where a session sends the user.
type Route int

const (
	RouteWait Route = iota + 1
	RouteApp
	RouteSignIn
)

func (r Route) String() string {
	switch r {
	case RouteWait:
		return "wait"
	case RouteApp:
		return "app"
	case RouteSignIn:
		return "sign-in"
	default:
		return "unknown"
	}
}

// Decide applies the routing rule: initializing waits, a user opens the app,
// anything else goes to sign-in.
func Decide(s Session) Route {
	switch {
	case s.Initializing:
		return RouteWait
	case s.User != nil:
		return RouteApp
	default:
		return RouteSignIn
	}
}

// Require returns ErrSignInRequired unless the session routes to the app or
// sign-in is optional.
func Require(s Session, required bool) error {
	if !required || Decide(s) == RouteApp {
		return nil
	}
	return ErrSignInRequired
}

type tokenEnv struct {
	IDToken string `env:"SIGNA_ID_TOKEN"`
}

type firebaseClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Provider loads the session from SIGNA_ID_TOKEN or a token file.
type Provider struct {
	tokenFile string
	now       func() time.Time
}

// NewProvider reads tokens from tokenFile when the environment has none.
func NewProvider(tokenFile string) *Provider {
	return &Provider{tokenFile: strings.TrimSpace(tokenFile), now: time.Now}
}

// Load resolves the current session. Absent and expired tokens yield a
// session without a user and no error.
func (p *Provider) Load() (Session, error) {
	raw, err := p.readToken()
	if err != nil {
		return Session{}, err
	}
	if raw == "" {
		return Session{}, nil
	}

	user, err := ParseToken(raw, p.now())
	if err != nil {
		return Session{}, err
	}
	if user == nil {
		return Session{}, nil
	}
	return Session{User: user, IDToken: raw}, nil
}

func (p *Provider) readToken() (string, error) {
	var fromEnv tokenEnv
	if err := env.Parse(&fromEnv); err != nil {
		return "", fmt.Errorf("parse auth env: %w", err)
	}
	if token := strings.TrimSpace(fromEnv.IDToken); token != "" {
		return token, nil
	}
	if p.tokenFile == "" {
		return "", nil
	}

	content, err := os.ReadFile(p.tokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file %q: %w", p.tokenFile, err)
	}
	return strings.TrimSpace(string(content)), nil
}

// ParseToken decodes claims without verifying the signature. It returns a nil
// user for an expired token.
func ParseToken(raw string, now time.Time) (*User, error) {
	var claims firebaseClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := strings.TrimSpace(claims.UserID)
	if id == "" {
		id = strings.TrimSpace(claims.Subject)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing user_id and sub", ErrInvalidToken)
	}

	user := &User{ID: id, Email: claims.Email, Issuer: claims.Issuer}
	if claims.ExpiresAt != nil {
		user.ExpiresAt = claims.ExpiresAt.Time.UTC()
		if !user.ExpiresAt.After(now) {
			return nil, nil
		}
	}
	return user, nil
}
