package visitor

import (
	"context"

	"possessher/internal/domain"
)

// refreshQuota fetches the remaining allowance for the current identity.
// Failures keep the previous counters.
func (v *Visitor) refreshQuota(ctx context.Context) {
	v.mu.Lock()
	caller, ok := v.callerLocked()
	v.mu.Unlock()
	if !ok {
		return
	}

	usage, err := v.backend.Usage(ctx, caller)
	if err != nil {
		v.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("visitor: failed to fetch quota")
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.identity == nil || v.identity.ID != caller.UserID {
		return
	}
	v.quota = &domain.Quota{ImagesRemaining: usage.ImageRemaining, ChatsRemaining: usage.ChatRemaining}
}
