package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAuthClient(t *testing.T, handler http.HandlerFunc) *AuthClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewAuthClient(Options{BaseURL: srv.URL, AnonKey: "anon-key"})
	if err != nil {
		t.Fatalf("NewAuthClient error: %v", err)
	}
	client.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return client
}

func TestNewAuthClientValidation(t *testing.T) {
	if _, err := NewAuthClient(Options{BaseURL: "", AnonKey: "k"}); err == nil {
		t.Fatal("expected error for empty base url")
	}
	if _, err := NewAuthClient(Options{BaseURL: "https://x.supabase.co"}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Fatalf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Fatalf("apikey header = %q", r.Header.Get("apikey"))
		}
		body, _ := io.ReadAll(r.Body)
		var creds map[string]string
		if err := json.Unmarshal(body, &creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds["email"] != "a@b.com" || creds["password"] != "secret" {
			t.Fatalf("unexpected credentials %v", creds)
		}
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"a@b.com"}}`))
	})

	session, err := client.SignInWithPassword(context.Background(), " a@b.com ", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword error: %v", err)
	}
	if session.AccessToken != "at" || session.User.ID != "u1" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.ExpiresAt != 1_700_000_000+3600 {
		t.Fatalf("ExpiresAt = %d", session.ExpiresAt)
	}
}

func TestSignInReturnsProviderMessage(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantMsg  string
		wantCode string
	}{
		{"legacy", `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, "Invalid login credentials", "invalid_grant"},
		{"current", `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, "Invalid login credentials", "invalid_credentials"},
		{"plain", `nope`, "nope", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := client.SignInWithPassword(context.Background(), "a@b.com", "bad")
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Message != tc.wantMsg || authErr.Code != tc.wantCode || authErr.Status != http.StatusBadRequest {
				t.Fatalf("unexpected error %+v", authErr)
			}
		})
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := client.SignInWithPassword(context.Background(), "", "")
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Code != "validation_failed" {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.com"}`))
	})
	session, err := client.SignUp(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
}

func TestSignUpAutoConfirmed(t *testing.T) {
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_at":1700009999,"user":{"id":"u1","email":"a@b.com"}}`))
	})
	session, err := client.SignUp(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if session == nil || session.ExpiresAt != 1700009999 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestRefreshAndSignOut(t *testing.T) {
	var sawLogout bool
	client := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			if r.URL.Query().Get("grant_type") != "refresh_token" {
				t.Fatalf("unexpected grant %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","expires_in":60,"user":{"id":"u1","email":"a@b.com"}}`))
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer at2" {
				t.Fatalf("logout authorization = %q", r.Header.Get("Authorization"))
			}
			sawLogout = true
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	session, err := client.Refresh(context.Background(), "rt")
	if err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if session.AccessToken != "at2" {
		t.Fatalf("AccessToken = %q", session.AccessToken)
	}
	if err := client.SignOut(context.Background(), session.AccessToken); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if !sawLogout {
		t.Fatal("logout endpoint not called")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	cases := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil", nil, true},
		{"no token", &Session{}, true},
		{"no expiry", &Session{AccessToken: "x"}, false},
		{"future", &Session{AccessToken: "x", ExpiresAt: 2000}, false},
		{"within skew", &Session{AccessToken: "x", ExpiresAt: 1010}, true},
		{"past", &Session{AccessToken: "x", ExpiresAt: 900}, true},
	}
	for _, tc := range cases {
		if got := tc.session.Expired(now); got != tc.want {
			t.Fatalf("%s: Expired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
