package resumeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/schemas"
)

// Session caches the bearer token from one successful login. It is never persisted and
// never refreshed. Concurrent callers share a single in-flight login.
type Session struct {
	logins singleflight.Group

	mu            sync.Mutex
	accessToken   string
	authenticated bool
	expiresAt     time.Time
}

func (s *Session) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
	s.authenticated = true
	s.expiresAt = tokenExpiry(token)
}

func (s *Session) token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.authenticated
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.authenticated = false
	s.expiresAt = time.Time{}
}

// tokenExpiry reads the exp claim of a JWT without verifying it. Opaque tokens yield the zero time.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token struct {
		AccessToken string `json:"accessToken"`
	} `json:"token"`
}

// Authenticate logs in on first use and returns the cached token afterwards without any
// network request.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	if token, ok := c.session.token(); ok {
		return token, nil
	}

	v, err, _ := c.session.logins.Do("login", func() (any, error) {
		if token, ok := c.session.token(); ok {
			return token, nil
		}
		return c.login(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	const op = "login"

	c.log.Info("Authenticating with resume API...")
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Username: c.username, Password: c.password},
		schema: schemas.LoginResponse,
	})
	if err != nil {
		c.log.Error("Authentication failed", "error", err)
		return "", err
	}

	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", faults.Protocol(op, "failed to decode login response", err)
	}

	c.session.set(parsed.Token.AccessToken)
	logging.Success(c.log, "Authentication successful")
	if exp := c.ExpiresAt(); !exp.IsZero() {
		c.log.Debug("Access token expiry", "expires_at", exp.Format(time.RFC3339))
	}
	return parsed.Token.AccessToken, nil
}

// IsAuthenticated reports whether a token is cached.
func (c *Client) IsAuthenticated() bool {
	_, ok := c.session.token()
	return ok
}

// Logout drops the cached token; the next call logs in again.
func (c *Client) Logout() {
	c.session.clear()
	c.log.Info("Logged out")
}

// AuthHeader returns the Authorization header value, authenticating if needed.
func (c *Client) AuthHeader(ctx context.Context) (string, error) {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

// ExpiresAt is the exp claim of the cached token, or the zero time when the token is not a JWT
// or nothing is cached.
func (c *Client) ExpiresAt() time.Time {
	c.session.mu.Lock()
	defer c.session.mu.Unlock()
	return c.session.expiresAt
}
