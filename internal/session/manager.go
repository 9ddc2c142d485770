// Package session keeps the auth provider session of one browser profile and
// pushes sign-in and sign-out events to subscribers.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"possessher/internal/domain"
	"possessher/internal/infra"
	"possessher/internal/providers/supabase"
	"possessher/internal/storage"
)

// EventType enumerates auth state changes.
type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is pushed to subscribers. Identity is nil for SignedOut.
type Event struct {
	Type     EventType
	Identity *domain.Identity
}

// AuthProvider is the subset of the auth REST client the manager drives.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password string) (*supabase.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Options tunes token verification and logging.
type Options struct {
	// JWTSecret enables HS256 verification of access tokens. Without it the
	// claims are read unverified and the provider is trusted.
	JWTSecret string
	Logger    *infra.Logger
	Now       func() time.Time
}

// Manager owns the persisted session of a single browser profile.
type Manager struct {
	auth   AuthProvider
	prefs  *storage.Prefs
	secret []byte
	logger *infra.Logger
	now    func() time.Time

	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// NewManager constructs a manager bound to prefs.
func NewManager(auth AuthProvider, prefs *storage.Prefs, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		auth:   auth,
		prefs:  prefs,
		secret: []byte(strings.TrimSpace(opts.JWTSecret)),
		logger: logger,
		now:    now,
		subs:   make(map[int]func(Event)),
	}
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Current returns the identity behind the persisted session, refreshing an
// expired access token first. Absent or unusable sessions yield nil.
func (m *Manager) Current(ctx context.Context) (*domain.Identity, error) {
	sess, err := m.load(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	if sess.Expired(m.now()) {
		return m.refresh(ctx, sess)
	}

	identity, err := m.identity(sess)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return m.refresh(ctx, sess)
	}
	if err != nil {
		m.logger.Warn().Err(err).Str("profile", m.prefs.Profile()).Msg("session: discarding unverifiable session")
		m.discard(ctx)
		return nil, nil
	}
	return identity, nil
}

// Subscribe registers fn for auth state changes and returns a function that
// removes it. Callbacks run synchronously on the goroutine that caused the change.
func (m *Manager) Subscribe(fn func(Event)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// SignInWithPassword authenticates and persists the resulting session.
func (m *Manager) SignInWithPassword(ctx context.Context, email, password string) error {
	sess, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	return m.establish(ctx, sess, SignedIn)
}

// SignUp registers an account. A session is only established when the
// provider confirms the account immediately.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	sess, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	return m.establish(ctx, sess, SignedIn)
}

// SignOut revokes the session remotely when possible and always forgets it locally.
func (m *Manager) SignOut(ctx context.Context) error {
	sess, err := m.load(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if err := m.auth.SignOut(ctx, sess.AccessToken); err != nil {
			m.logger.Warn().Err(err).Str("profile", m.prefs.Profile()).Msg("session: remote sign out failed")
		}
	}
	if err := m.prefs.ClearAuthSession(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	m.emit(Event{Type: SignedOut})
	return nil
}

func (m *Manager) refresh(ctx context.Context, stale *supabase.Session) (*domain.Identity, error) {
	if stale.RefreshToken == "" {
		m.discard(ctx)
		return nil, nil
	}
	fresh, err := m.auth.Refresh(ctx, stale.RefreshToken)
	if err != nil {
		m.logger.Warn().Err(err).Str("profile", m.prefs.Profile()).Msg("session: refresh failed")
		m.discard(ctx)
		m.emit(Event{Type: SignedOut})
		return nil, nil
	}
	identity, err := m.identity(fresh)
	if err != nil {
		m.discard(ctx)
		return nil, nil
	}
	if err := m.save(ctx, fresh); err != nil {
		return nil, err
	}
	m.emit(Event{Type: TokenRefreshed, Identity: identity})
	return identity, nil
}

func (m *Manager) establish(ctx context.Context, sess *supabase.Session, event EventType) error {
	identity, err := m.identity(sess)
	if err != nil {
		return fmt.Errorf("session: verify token: %w", err)
	}
	if err := m.save(ctx, sess); err != nil {
		return err
	}
	m.emit(Event{Type: event, Identity: identity})
	return nil
}

func (m *Manager) identity(sess *supabase.Session) (*domain.Identity, error) {
	claims, err := m.claims(sess.AccessToken)
	if err != nil {
		return nil, err
	}
	identity := &domain.Identity{ID: sess.User.ID, Email: sess.User.Email}
	if claims.Subject != "" {
		identity.ID = claims.Subject
	}
	if claims.Email != "" {
		identity.Email = claims.Email
	}
	if identity.ID == "" {
		return nil, errors.New("session: token carries no subject")
	}
	return identity, nil
}

func (m *Manager) claims(token string) (*accessClaims, error) {
	claims := &accessClaims{}
	if len(m.secret) == 0 {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, err
		}
		return claims, nil
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) load(ctx context.Context) (*supabase.Session, error) {
	raw, err := m.prefs.AuthSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var sess supabase.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.AccessToken == "" {
		m.logger.Warn().Str("profile", m.prefs.Profile()).Msg("session: discarding malformed session")
		m.discard(ctx)
		return nil, nil
	}
	return &sess, nil
}

func (m *Manager) save(ctx context.Context, sess *supabase.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := m.prefs.SetAuthSession(ctx, string(raw)); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (m *Manager) discard(ctx context.Context) {
	if err := m.prefs.ClearAuthSession(ctx); err != nil {
		m.logger.Error().Err(err).Str("profile", m.prefs.Profile()).Msg("session: clear failed")
	}
}

func (m *Manager) emit(ev Event) {
	m.mu.Lock()
	listeners := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
