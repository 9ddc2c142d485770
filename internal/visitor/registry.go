package visitor

import (
	"context"
	"sync"
	"time"

	"possessher/internal/infra"
)

// Factory builds an uninitialised visitor for a browser profile.
type Factory func(profile string) *Visitor

// Registry keeps one visitor per browser profile and evicts idle ones.
type Registry struct {
	factory Factory
	ttl     time.Duration
	now     func() time.Time
	logger  *infra.Logger

	mu       sync.Mutex
	visitors map[string]*Visitor
}

// NewRegistry constructs a registry. A non-positive ttl disables eviction.
func NewRegistry(factory Factory, ttl time.Duration, logger *infra.Logger) *Registry {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Registry{
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		visitors: make(map[string]*Visitor),
	}
}

// Get returns the visitor for profile, creating and initialising it on first
// use. Concurrent callers for the same profile share one visitor; created is
// true only for the caller that built it.
func (r *Registry) Get(ctx context.Context, profile string) (v *Visitor, created bool) {
	r.mu.Lock()
	v, ok := r.visitors[profile]
	if !ok {
		v = r.factory(profile)
		r.visitors[profile] = v
	}
	r.mu.Unlock()

	v.Init(ctx)
	v.touch()
	return v, !ok
}

// Len returns the number of live visitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

// Sweep closes and forgets visitors idle for longer than the ttl. It returns
// the number evicted.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var idle []*Visitor
	for profile, v := range r.visitors {
		if v.idleSince().Before(cutoff) {
			idle = append(idle, v)
			delete(r.visitors, profile)
		}
	}
	r.mu.Unlock()

	for _, v := range idle {
		v.Close()
	}
	if len(idle) > 0 {
		r.logger.Debug().Int("evicted", len(idle)).Msg("visitor: registry sweep")
	}
	return len(idle)
}

// Run sweeps on every tick until ctx is done, then closes all visitors.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Close()
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every visitor.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*Visitor, 0, len(r.visitors))
	for profile, v := range r.visitors {
		all = append(all, v)
		delete(r.visitors, profile)
	}
	r.mu.Unlock()
	for _, v := range all {
		v.Close()
	}
}
