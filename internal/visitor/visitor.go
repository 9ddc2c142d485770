// Package visitor holds the view state of one browser profile and runs the
// generation and chat flows against the remote services.
package visitor

import (
	"context"
	"strings"
	"sync"
	"time"

	"possessher/internal/domain"
	"possessher/internal/infra"
	"possessher/internal/providers/backend"
	"possessher/internal/session"
	"possessher/internal/storage"
)

// Backend is the inference API used by the quota, generation and chat flows.
type Backend interface {
	Usage(ctx context.Context, caller backend.Caller) (*backend.Usage, error)
	Generate(ctx context.Context, caller backend.Caller) (*backend.Image, error)
	Chat(ctx context.Context, caller backend.Caller, message domain.ChatMessage) (*backend.ChatReply, error)
	ResolveImageURL(ref string) (string, error)
}

// Sessions is the auth session of the visitor's browser profile.
type Sessions interface {
	Current(ctx context.Context) (*domain.Identity, error)
	Subscribe(fn func(session.Event)) func()
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// ProfileLookup resolves the entitlement flag for an email.
type ProfileLookup interface {
	IsPro(ctx context.Context, email string) (bool, error)
}

// Deps wires a visitor to its collaborators.
type Deps struct {
	Backend    Backend
	Sessions   Sessions
	Profiles   ProfileLookup
	Prefs      *storage.Prefs
	Variant    domain.Variant
	ImageHosts []string
	Logger     *infra.Logger
	// EventTimeout bounds the work triggered by auth state changes.
	EventTimeout time.Duration
	Now          func() time.Time
}

// Visitor is the single owner of one browser profile's view state. All
// fields below mu are guarded by it; no network call is made while it is held.
type Visitor struct {
	backend      Backend
	sessions     Sessions
	profiles     ProfileLookup
	prefs        *storage.Prefs
	variant      domain.Variant
	imageHosts   map[string]struct{}
	logger       *infra.Logger
	eventTimeout time.Duration
	now          func() time.Time

	initOnce sync.Once

	mu                 sync.Mutex
	unsubscribe        func()
	closed             bool
	lastSeen           time.Time
	sessionLoading     bool
	identity           *domain.Identity
	sessionGen         int
	isPro              bool
	proEmail           string
	entitlementLoading bool
	// entitlementCheckedAt is when the last profile lookup started.
	entitlementCheckedAt time.Time
	quota                *domain.Quota
	image                *domain.GeneratedImage
	imageVersion         int
	generating           bool
	generationErr        string
	chatOpen             bool
	transcript           []domain.ChatMessage
	revision             int
	draft                string
	chatting             bool
	modal                domain.Modal
	authMode             domain.AuthMode
	authMessage          string
	ageVerified          bool
	referrerID           string
}

// New builds a visitor. Init must run before the visitor serves actions.
func New(deps Deps) *Visitor {
	logger := deps.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	timeout := deps.EventTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	hosts := make(map[string]struct{}, len(deps.ImageHosts))
	for _, h := range deps.ImageHosts {
		hosts[strings.ToLower(strings.TrimSpace(h))] = struct{}{}
	}
	return &Visitor{
		backend:        deps.Backend,
		sessions:       deps.Sessions,
		profiles:       deps.Profiles,
		prefs:          deps.Prefs,
		variant:        deps.Variant,
		imageHosts:     hosts,
		logger:         logger,
		eventTimeout:   timeout,
		now:            now,
		lastSeen:       now(),
		sessionLoading: true,
		authMode:       domain.AuthModeLogin,
	}
}

// Init loads persisted preferences, subscribes to auth state changes and
// resolves the current identity. It runs at most once.
func (v *Visitor) Init(ctx context.Context) {
	v.initOnce.Do(func() { v.init(ctx) })
}

func (v *Visitor) init(ctx context.Context) {
	profile := v.prefs.Profile()
	verified, err := v.prefs.AgeVerified(ctx)
	if err != nil {
		v.logger.Error().Err(err).Str("profile", profile).Msg("visitor: load age acknowledgement")
	}
	ref, err := v.prefs.ReferrerID(ctx)
	if err != nil {
		v.logger.Error().Err(err).Str("profile", profile).Msg("visitor: load referrer")
	}

	v.mu.Lock()
	v.ageVerified = verified
	v.referrerID = ref
	v.mu.Unlock()

	unsubscribe := v.sessions.Subscribe(v.onAuthEvent)
	v.mu.Lock()
	v.unsubscribe = unsubscribe
	v.mu.Unlock()

	identity, err := v.sessions.Current(ctx)
	if err != nil {
		v.logger.Warn().Err(err).Str("profile", profile).Msg("visitor: session lookup failed, continuing anonymous")
		identity = nil
	}

	v.mu.Lock()
	v.sessionLoading = false
	v.identity = identity
	v.mu.Unlock()

	if identity == nil {
		return
	}
	v.resolveEntitlement(ctx, identity.Email)
	v.refreshQuota(ctx)
}

// Close detaches the visitor from the session stream.
func (v *Visitor) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsubscribe := v.unsubscribe
	v.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Profile returns the browser profile id.
func (v *Visitor) Profile() string {
	return v.prefs.Profile()
}

func (v *Visitor) touch() {
	v.mu.Lock()
	v.lastSeen = v.now()
	v.mu.Unlock()
}

func (v *Visitor) idleSince() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

// callerLocked builds the identity context sent to the backend. Callers hold mu.
func (v *Visitor) callerLocked() (backend.Caller, bool) {
	if !v.identity.Valid() {
		return backend.Caller{}, false
	}
	caller := backend.Caller{UserID: v.identity.ID, IsPro: v.isPro}
	if v.variant.IncludeEmail {
		caller.Email = v.identity.Email
	}
	if v.variant.IncludeReferral {
		caller.ReferredBy = v.referrerID
	}
	return caller, true
}
