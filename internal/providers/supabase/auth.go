package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// User is the provider's account record, trimmed to what the front end uses.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an issued token pair. It is persisted as JSON in the visitor's
// key/value store.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	User         User   `json:"user"`
}

// Expired reports whether the access token is past its expiry, allowing for
// a small clock skew.
func (s *Session) Expired(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return true
	}
	if s.ExpiresAt == 0 {
		return false
	}
	return now.Add(30*time.Second).Unix() >= s.ExpiresAt
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type signUpResponse struct {
	Session
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthClient performs password sign-in, sign-up, refresh and sign-out.
type AuthClient struct {
	t   *transport
	now func() time.Time
}

// NewAuthClient constructs an auth client.
func NewAuthClient(opts Options) (*AuthClient, error) {
	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	return &AuthClient{t: t, now: time.Now}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	query := url.Values{"grant_type": []string{"password"}}
	raw, err := c.t.do(ctx, http.MethodPost, "/auth/v1/token", query, credentials{Email: strings.TrimSpace(email), Password: password}, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeSession(raw)
}

// SignUp registers an account. When the provider requires email confirmation
// it returns a nil session and a nil error.
func (c *AuthClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	raw, err := c.t.do(ctx, http.MethodPost, "/auth/v1/signup", nil, credentials{Email: strings.TrimSpace(email), Password: password}, nil)
	if err != nil {
		return nil, err
	}
	var decoded signUpResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("supabase: decode signup: %w", err)
	}
	if decoded.AccessToken == "" {
		c.t.logger.Debug().Str("email", decoded.Email).Msg("supabase: signup pending confirmation")
		return nil, nil
	}
	session := decoded.Session
	c.fillExpiry(&session)
	return &session, nil
}

// Refresh exchanges a refresh token for a new session.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, errors.New("supabase: refresh token is required")
	}
	query := url.Values{"grant_type": []string{"refresh_token"}}
	raw, err := c.t.do(ctx, http.MethodPost, "/auth/v1/token", query, refreshRequest{RefreshToken: refreshToken}, nil)
	if err != nil {
		return nil, err
	}
	return c.decodeSession(raw)
}

// SignOut revokes the session behind the access token.
func (c *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return nil
	}
	header := http.Header{"Authorization": []string{"Bearer " + accessToken}}
	_, err := c.t.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, header)
	return err
}

func (c *AuthClient) decodeSession(raw []byte) (*Session, error) {
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("supabase: decode session: %w", err)
	}
	if session.AccessToken == "" || session.User.ID == "" {
		return nil, errors.New("supabase: session response missing token or user")
	}
	c.fillExpiry(&session)
	return &session, nil
}

func (c *AuthClient) fillExpiry(s *Session) {
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = c.now().Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &AuthError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Email and password are required"}
	}
	return nil
}
