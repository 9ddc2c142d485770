package visitor

import (
	"context"
	"fmt"

	"possessher/internal/domain"
	"possessher/internal/i18n"
)

// GenerateImage requests a new image for the signed-in visitor and replaces
// the current one. A failed request clears the image and leaves a retry
// message in the view state. A result that arrives after the session changed
// is dropped.
func (v *Visitor) GenerateImage(ctx context.Context) error {
	v.touch()

	v.mu.Lock()
	if !v.requireAuthLocked() {
		v.mu.Unlock()
		return domain.ErrLoginRequired
	}
	if !v.allowLocked((*domain.Quota).ImagesLeft) {
		v.mu.Unlock()
		return domain.ErrUpgradeRequired
	}
	if v.generating {
		v.mu.Unlock()
		return domain.ErrBusy
	}
	caller, ok := v.callerLocked()
	if !ok {
		v.mu.Unlock()
		return domain.ErrUnauthorized
	}
	v.generating = true
	v.generationErr = ""
	v.image = nil
	pro := v.isPro
	gen := v.sessionGen
	v.mu.Unlock()

	img, err := v.backend.Generate(ctx, caller)

	v.mu.Lock()
	if v.sessionGen != gen {
		v.mu.Unlock()
		v.logger.Debug().Err(err).Str("user_id", caller.UserID).Msg("visitor: session changed, dropping generated image")
		return nil
	}
	v.generating = false
	if err != nil {
		v.generationErr = i18n.Ctx(ctx, i18n.GenerateFailed)
	} else {
		v.imageVersion++
		v.image = &domain.GeneratedImage{
			Data:      img.Data,
			MIME:      img.MIME,
			Version:   v.imageVersion,
			CreatedAt: v.now(),
		}
	}
	v.mu.Unlock()

	if !pro {
		v.refreshQuota(ctx)
	}
	if err != nil {
		v.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("visitor: image generation failed")
		return fmt.Errorf("visitor: generate: %w", err)
	}
	v.logger.Debug().Str("user_id", caller.UserID).Int("version", v.currentVersion()).Int("bytes", len(img.Data)).Msg("visitor: image generated")
	return nil
}

// CurrentImage returns the displayed image when version matches it. A zero
// version selects whatever is current.
func (v *Visitor) CurrentImage(version int) (*domain.GeneratedImage, error) {
	v.touch()
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.image == nil {
		return nil, domain.ErrNotFound
	}
	if version != 0 && version != v.image.Version {
		return nil, domain.ErrNotFound
	}
	out := *v.image
	return &out, nil
}

func (v *Visitor) currentVersion() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.image == nil {
		return 0
	}
	return v.image.Version
}
