package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"possessher/internal/providers/supabase"
	"possessher/internal/storage"
)

const testSecret = "jwt-secret"

var testNow = time.Unix(1_700_000_000, 0)

type fakeAuth struct {
	signIn     *supabase.Session
	signUp     *supabase.Session
	refreshed  *supabase.Session
	err        error
	refreshErr error
	signOutErr error

	refreshCalls int
	signOutToken string
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error) {
	return f.signIn, f.err
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*supabase.Session, error) {
	return f.signUp, f.err
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error) {
	f.refreshCalls++
	return f.refreshed, f.refreshErr
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.signOutToken = accessToken
	return f.signOutErr
}

func signToken(t *testing.T, sub, email string, exp time.Time) string {
	t.Helper()
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newSession(t *testing.T, sub, email string, exp time.Time) *supabase.Session {
	return &supabase.Session{
		AccessToken:  signToken(t, sub, email, exp),
		RefreshToken: "refresh-" + sub,
		ExpiresAt:    exp.Unix(),
		User:         supabase.User{ID: sub, Email: email},
	}
}

func newTestManager(auth AuthProvider) (*Manager, *storage.Prefs) {
	prefs := storage.NewPrefs(storage.NewMemoryStore(), "profile-1")
	mgr := NewManager(auth, prefs, Options{JWTSecret: testSecret, Now: func() time.Time { return testNow }})
	return mgr, prefs
}

func persist(t *testing.T, prefs *storage.Prefs, sess *supabase.Session) {
	t.Helper()
	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := prefs.SetAuthSession(context.Background(), string(raw)); err != nil {
		t.Fatalf("SetAuthSession: %v", err)
	}
}

func TestCurrentWithoutSession(t *testing.T) {
	mgr, _ := newTestManager(&fakeAuth{})
	identity, err := mgr.Current(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("Current = %v, %v; want nil, nil", identity, err)
	}
}

func TestCurrentReturnsStoredIdentity(t *testing.T) {
	mgr, prefs := newTestManager(&fakeAuth{})
	persist(t, prefs, newSession(t, "u1", "a@b.com", testNow.Add(time.Hour)))

	identity, err := mgr.Current(context.Background())
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if identity == nil || identity.ID != "u1" || identity.Email != "a@b.com" {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestCurrentRefreshesExpiredSession(t *testing.T) {
	auth := &fakeAuth{refreshed: newSession(t, "u1", "a@b.com", testNow.Add(time.Hour))}
	mgr, prefs := newTestManager(auth)
	persist(t, prefs, newSession(t, "u1", "a@b.com", testNow.Add(-time.Minute)))

	var events []Event
	mgr.Subscribe(func(ev Event) { events = append(events, ev) })

	identity, err := mgr.Current(context.Background())
	if err != nil || identity == nil || identity.ID != "u1" {
		t.Fatalf("Current = %+v, %v", identity, err)
	}
	if auth.refreshCalls != 1 {
		t.Fatalf("refreshCalls = %d, want 1", auth.refreshCalls)
	}
	if len(events) != 1 || events[0].Type != TokenRefreshed {
		t.Fatalf("unexpected events %+v", events)
	}
	raw, _ := prefs.AuthSession(context.Background())
	if raw == "" {
		t.Fatal("expected refreshed session persisted")
	}
}

func TestCurrentRefreshFailureIsAnonymous(t *testing.T) {
	auth := &fakeAuth{refreshErr: errors.New("invalid refresh token")}
	mgr, prefs := newTestManager(auth)
	persist(t, prefs, newSession(t, "u1", "a@b.com", testNow.Add(-time.Minute)))

	identity, err := mgr.Current(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("Current = %v, %v; want nil, nil", identity, err)
	}
	raw, _ := prefs.AuthSession(context.Background())
	if raw != "" {
		t.Fatal("expected stale session cleared")
	}
}

func TestCurrentRejectsForgedToken(t *testing.T) {
	mgr, prefs := newTestManager(&fakeAuth{})
	sess := newSession(t, "u1", "a@b.com", testNow.Add(time.Hour))
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u2", ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sess.AccessToken = forged
	persist(t, prefs, sess)

	identity, err := mgr.Current(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("Current = %v, %v; want nil, nil", identity, err)
	}
}

func TestCurrentDiscardsMalformedSession(t *testing.T) {
	mgr, prefs := newTestManager(&fakeAuth{})
	if err := prefs.SetAuthSession(context.Background(), "{not json"); err != nil {
		t.Fatalf("SetAuthSession: %v", err)
	}
	identity, err := mgr.Current(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("Current = %v, %v; want nil, nil", identity, err)
	}
}

func TestSignInEmitsEvent(t *testing.T) {
	auth := &fakeAuth{signIn: newSession(t, "u1", "a@b.com", testNow.Add(time.Hour))}
	mgr, prefs := newTestManager(auth)

	var got []Event
	unsubscribe := mgr.Subscribe(func(ev Event) { got = append(got, ev) })

	if err := mgr.SignInWithPassword(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("SignInWithPassword error: %v", err)
	}
	if len(got) != 1 || got[0].Type != SignedIn || got[0].Identity.ID != "u1" {
		t.Fatalf("unexpected events %+v", got)
	}
	raw, _ := prefs.AuthSession(context.Background())
	if raw == "" {
		t.Fatal("expected session persisted")
	}

	unsubscribe()
	unsubscribe()
	if err := mgr.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unsubscribed listener received %d events", len(got))
	}
}

func TestSignInErrorPropagates(t *testing.T) {
	want := &supabase.AuthError{Status: 400, Message: "Invalid login credentials"}
	mgr, _ := newTestManager(&fakeAuth{err: want})

	err := mgr.SignInWithPassword(context.Background(), "a@b.com", "bad")
	var authErr *supabase.AuthError
	if !errors.As(err, &authErr) || authErr.Message != want.Message {
		t.Fatalf("expected AuthError, got %v", err)
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	mgr, prefs := newTestManager(&fakeAuth{})
	var fired bool
	mgr.Subscribe(func(Event) { fired = true })

	if err := mgr.SignUp(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatalf("SignUp error: %v", err)
	}
	if fired {
		t.Fatal("no event expected before confirmation")
	}
	raw, _ := prefs.AuthSession(context.Background())
	if raw != "" {
		t.Fatal("no session expected before confirmation")
	}
}

func TestSignOutClearsEvenWhenRemoteFails(t *testing.T) {
	sess := newSession(t, "u1", "a@b.com", testNow.Add(time.Hour))
	auth := &fakeAuth{signOutErr: errors.New("network down")}
	mgr, prefs := newTestManager(auth)
	persist(t, prefs, sess)

	var got []Event
	mgr.Subscribe(func(ev Event) { got = append(got, ev) })

	if err := mgr.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if auth.signOutToken != sess.AccessToken {
		t.Fatalf("remote sign out token = %q", auth.signOutToken)
	}
	if len(got) != 1 || got[0].Type != SignedOut || got[0].Identity != nil {
		t.Fatalf("unexpected events %+v", got)
	}
	if raw, _ := prefs.AuthSession(context.Background()); raw != "" {
		t.Fatal("expected session cleared")
	}
}

func TestUnverifiedClaimsWithoutSecret(t *testing.T) {
	prefs := storage.NewPrefs(storage.NewMemoryStore(), "p")
	mgr := NewManager(&fakeAuth{}, prefs, Options{Now: func() time.Time { return testNow }})
	sess := newSession(t, "u9", "z@b.com", testNow.Add(time.Hour))
	persist(t, prefs, sess)

	identity, err := mgr.Current(context.Background())
	if err != nil || identity == nil || identity.ID != "u9" {
		t.Fatalf("Current = %+v, %v", identity, err)
	}
}
