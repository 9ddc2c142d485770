package visitor

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"possessher/internal/domain"
	"possessher/internal/providers/backend"
	"possessher/internal/session"
	"possessher/internal/storage"
)

var errBoom = errors.New("boom")

type fakeBackend struct {
	mu sync.Mutex

	usage    *backend.Usage
	usageErr error
	image    *backend.Image
	genErr   error
	reply    *backend.ChatReply
	chatErr  error

	genStarted  chan struct{}
	genRelease  chan struct{}
	chatStarted chan struct{}
	chatRelease chan struct{}

	usageCalls []backend.Caller
	genCalls   []backend.Caller
	chatCalls  []backend.Caller
	chatSent   []domain.ChatMessage
}

func (f *fakeBackend) Usage(ctx context.Context, caller backend.Caller) (*backend.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usageCalls = append(f.usageCalls, caller)
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	u := *f.usage
	return &u, nil
}

func (f *fakeBackend) Generate(ctx context.Context, caller backend.Caller) (*backend.Image, error) {
	f.mu.Lock()
	f.genCalls = append(f.genCalls, caller)
	started, release := f.genStarted, f.genRelease
	img, err := f.image, f.genErr
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (f *fakeBackend) Chat(ctx context.Context, caller backend.Caller, message domain.ChatMessage) (*backend.ChatReply, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, caller)
	f.chatSent = append(f.chatSent, message)
	started, release := f.chatStarted, f.chatRelease
	reply, err := f.reply, f.chatErr
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	r := *reply
	return &r, nil
}

func (f *fakeBackend) ResolveImageURL(ref string) (string, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if parsed.IsAbs() {
		return ref, nil
	}
	return "https://api.example.com/" + strings.TrimPrefix(ref, "/"), nil
}

func (f *fakeBackend) counts() (usage, gen, chat int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.usageCalls), len(f.genCalls), len(f.chatCalls)
}

func (f *fakeBackend) setUsage(images, chats int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage = &backend.Usage{ImageRemaining: images, ChatRemaining: chats}
}

type fakeSessions struct {
	mu         sync.Mutex
	current    *domain.Identity
	currentErr error
	signIn     *domain.Identity
	signInErr  error
	signUpErr  error
	subs       map[int]func(session.Event)
	next       int
	signOuts   int
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{subs: make(map[int]func(session.Event))}
}

func (f *fakeSessions) Current(ctx context.Context) (*domain.Identity, error) {
	return f.current, f.currentErr
}

func (f *fakeSessions) Subscribe(fn func(session.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeSessions) emit(ev session.Event) {
	f.mu.Lock()
	var fns []func(session.Event)
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (f *fakeSessions) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *fakeSessions) SignInWithPassword(ctx context.Context, email, password string) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.emit(session.Event{Type: session.SignedIn, Identity: f.signIn})
	return nil
}

func (f *fakeSessions) SignUp(ctx context.Context, email, password string) error {
	return f.signUpErr
}

func (f *fakeSessions) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	f.mu.Unlock()
	f.emit(session.Event{Type: session.SignedOut})
	return nil
}

type fakeProfiles struct {
	mu    sync.Mutex
	pro   map[string]bool
	err   error
	calls []string
}

func (f *fakeProfiles) IsPro(ctx context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, email)
	if f.err != nil {
		return false, f.err
	}
	return f.pro[email], nil
}

func (f *fakeProfiles) grant(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pro[email] = true
}

type harness struct {
	v        *Visitor
	backend  *fakeBackend
	sessions *fakeSessions
	profiles *fakeProfiles
	prefs    *storage.Prefs
}

var alice = &domain.Identity{ID: "user-1", Email: "alice@example.com"}

func newHarness(t *testing.T, configure ...func(*Deps, *harness)) *harness {
	t.Helper()
	h := &harness{
		backend: &fakeBackend{
			usage: &backend.Usage{ImageRemaining: 5, ChatRemaining: 5},
			image: &backend.Image{Data: []byte("png-bytes"), MIME: "image/png"},
			reply: &backend.ChatReply{Reply: "hi!"},
		},
		sessions: newFakeSessions(),
		profiles: &fakeProfiles{pro: map[string]bool{}},
		prefs:    storage.NewPrefs(storage.NewMemoryStore(), "profile-1"),
	}
	deps := Deps{
		Backend:    h.backend,
		Sessions:   h.sessions,
		Profiles:   h.profiles,
		Prefs:      h.prefs,
		Variant:    domain.Variant{Upsell: domain.UpsellModal, IncludeReferral: true, IncludeEmail: true},
		ImageHosts: []string{"api.example.com"},
	}
	for _, fn := range configure {
		fn(&deps, h)
	}
	h.v = New(deps)
	return h
}

func signedIn(d *Deps, h *harness) {
	h.sessions.current = alice
}
