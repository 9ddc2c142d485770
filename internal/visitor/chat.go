package visitor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"possessher/internal/domain"
	"possessher/internal/i18n"
	"possessher/internal/providers/backend"
)

const emptyReply = "❤️"

// SendChatMessage appends the visitor's message, asks the backend for a reply
// and appends it. Backend failures are absorbed into a single fallback reply;
// only gate outcomes are returned. A reply that arrives after the session
// changed is dropped.
func (v *Visitor) SendChatMessage(ctx context.Context, text string) error {
	v.touch()
	trimmed := strings.TrimSpace(text)

	v.mu.Lock()
	if trimmed == "" {
		v.mu.Unlock()
		return domain.ErrEmptyMessage
	}
	if !v.requireAuthLocked() {
		v.draft = text
		v.mu.Unlock()
		return domain.ErrLoginRequired
	}
	if !v.allowLocked((*domain.Quota).ChatsLeft) {
		v.draft = text
		v.mu.Unlock()
		return domain.ErrUpgradeRequired
	}
	if v.chatting {
		v.draft = text
		v.mu.Unlock()
		return domain.ErrBusy
	}
	caller, ok := v.callerLocked()
	if !ok {
		v.mu.Unlock()
		return domain.ErrUnauthorized
	}
	message := domain.ChatMessage{Role: domain.RoleUser, Content: trimmed}
	v.appendLocked(message)
	v.draft = ""
	v.chatting = true
	pro := v.isPro
	gen := v.sessionGen
	v.mu.Unlock()

	reply := v.exchange(ctx, caller, message)

	v.mu.Lock()
	if v.sessionGen != gen {
		v.mu.Unlock()
		v.logger.Debug().Str("user_id", caller.UserID).Msg("visitor: session changed, dropping chat reply")
		return nil
	}
	v.appendLocked(reply)
	v.chatting = false
	v.mu.Unlock()

	if !pro {
		v.refreshQuota(ctx)
	}
	return nil
}

func (v *Visitor) exchange(ctx context.Context, caller backend.Caller, message domain.ChatMessage) domain.ChatMessage {
	resp, err := v.backend.Chat(ctx, caller, message)
	if err != nil {
		v.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("visitor: chat request failed")
		return domain.ChatMessage{Role: domain.RoleAI, Content: i18n.Ctx(ctx, i18n.ChatFallback)}
	}

	content := resp.Reply
	if strings.TrimSpace(content) == "" {
		content = emptyReply
	}
	image, err := v.replyImage(resp)
	if err != nil {
		v.logger.Warn().Err(err).Str("user_id", caller.UserID).Msg("visitor: dropping chat image")
		image = ""
	}
	return domain.ChatMessage{Role: domain.RoleAI, Content: content, Image: image}
}

// replyImage turns the embedded reply image into a displayable reference.
// Inline payloads win over URLs; URLs must resolve to an allowed host.
func (v *Visitor) replyImage(resp *backend.ChatReply) (string, error) {
	if payload := strings.TrimSpace(resp.ImageBase64); payload != "" {
		if strings.HasPrefix(payload, "data:") {
			return payload, nil
		}
		payload = strings.Join(strings.Fields(payload), "")
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return "", fmt.Errorf("visitor: invalid inline image: %w", err)
		}
		return "data:image/png;base64," + payload, nil
	}
	if strings.TrimSpace(resp.ImageURL) == "" {
		return "", nil
	}
	resolved, err := v.backend.ResolveImageURL(resp.ImageURL)
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(resolved)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("visitor: unsupported image scheme %q", parsed.Scheme)
	}
	if _, ok := v.imageHosts[strings.ToLower(parsed.Hostname())]; !ok {
		return "", errors.New("visitor: image host not allowed: " + parsed.Hostname())
	}
	return resolved, nil
}

// appendLocked adds a transcript entry and bumps the revision the page uses
// to scroll to the latest message.
func (v *Visitor) appendLocked(msg domain.ChatMessage) {
	v.transcript = append(v.transcript, msg)
	v.revision++
}
