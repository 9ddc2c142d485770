package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"possessher/internal/domain"
	"possessher/internal/infra"
)

// ErrNotImage indicates the generation endpoint answered with something other
// than an image payload.
var ErrNotImage = errors.New("backend: response is not an image")

const maxImageBytes = 20 << 20

// Options configures the inference backend client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the remote usage, generation and chat endpoints.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *infra.Logger
}

// Caller carries the identity context every endpoint receives. Email and
// ReferredBy are omitted from the body when empty.
type Caller struct {
	UserID     string
	Email      string
	IsPro      bool
	ReferredBy string
}

// Usage is the remaining free-tier allowance reported by /usage.
type Usage struct {
	ImageRemaining int
	ChatRemaining  int
}

// Image is the binary payload returned by /generate.
type Image struct {
	Data []byte
	MIME string
}

// ChatReply is the decoded /chat response. Only one of ImageURL and
// ImageBase64 is normally set.
type ChatReply struct {
	Reply       string
	ImageURL    string
	ImageBase64 string
}

type usageRequest struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email,omitempty"`
	ReferredBy *string `json:"referred_by,omitempty"`
}

type usageResponse struct {
	ImageRemaining *int `json:"image_remaining"`
	ChatRemaining  *int `json:"chat_remaining"`
}

type generateRequest struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email,omitempty"`
	IsPro      bool    `json:"is_pro"`
	ReferredBy *string `json:"referred_by,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages   []chatMessage `json:"messages"`
	UserID     string        `json:"user_id"`
	Email      string        `json:"email,omitempty"`
	IsPro      bool          `json:"is_pro"`
	ReferredBy *string       `json:"referred_by,omitempty"`
}

type chatResponse struct {
	Reply       string `json:"reply"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("backend: base url is required")
	}
	baseURL, err := url.Parse(raw)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Usage fetches the remaining free-tier allowance for a caller.
func (c *Client) Usage(ctx context.Context, caller Caller) (*Usage, error) {
	payload := usageRequest{
		UserID:     caller.UserID,
		Email:      caller.Email,
		ReferredBy: optional(caller.ReferredBy),
	}
	raw, _, err := c.post(ctx, "/usage", payload, "application/json")
	if err != nil {
		return nil, err
	}
	var decoded usageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("backend: decode usage: %w", err)
	}
	if decoded.ImageRemaining == nil || decoded.ChatRemaining == nil {
		return nil, errors.New("backend: usage response missing counters")
	}
	return &Usage{ImageRemaining: *decoded.ImageRemaining, ChatRemaining: *decoded.ChatRemaining}, nil
}

// Generate requests a new image and returns its bytes.
func (c *Client) Generate(ctx context.Context, caller Caller) (*Image, error) {
	payload := generateRequest{
		UserID:     caller.UserID,
		Email:      caller.Email,
		IsPro:      caller.IsPro,
		ReferredBy: optional(caller.ReferredBy),
	}
	raw, header, err := c.post(ctx, "/generate", payload, "image/*")
	if err != nil {
		return nil, err
	}
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotImage, header.Get("Content-Type"))
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrNotImage)
	}
	c.logger.Debug().
		Str("user_id", caller.UserID).
		Str("mime", mediaType).
		Int("bytes", len(raw)).
		Msg("backend: generated image")
	return &Image{Data: raw, MIME: mediaType}, nil
}

// Chat sends a single new transcript message and returns the reply.
func (c *Client) Chat(ctx context.Context, caller Caller, message domain.ChatMessage) (*ChatReply, error) {
	payload := chatRequest{
		Messages:   []chatMessage{{Role: string(message.Role), Content: message.Content}},
		UserID:     caller.UserID,
		Email:      caller.Email,
		IsPro:      caller.IsPro,
		ReferredBy: optional(caller.ReferredBy),
	}
	raw, _, err := c.post(ctx, "/chat", payload, "application/json")
	if err != nil {
		return nil, err
	}
	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("backend: decode chat: %w", err)
	}
	return &ChatReply{
		Reply:       decoded.Reply,
		ImageURL:    strings.TrimSpace(decoded.ImageURL),
		ImageBase64: strings.TrimSpace(decoded.ImageBase64),
	}, nil
}

// ResolveImageURL turns a reply image path into an absolute URL on the
// backend host. Absolute URLs are returned unchanged.
func (c *Client) ResolveImageURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("backend: empty image url")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("backend: invalid image url %q: %w", ref, err)
	}
	if parsed.IsAbs() {
		return parsed.String(), nil
	}
	base := c.BaseURL()
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimPrefix(parsed.Path, "/"), RawQuery: parsed.RawQuery}).String(), nil
}

func (c *Client) post(ctx context.Context, path string, payload any, accept string) ([]byte, http.Header, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: encode request: %w", err)
	}
	endpoint := c.baseURL.JoinPath(path).String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("backend: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("backend: http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("backend: read response %s: %w", path, err)
	}

	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			if msg := firstNonEmpty(detail.Message, detail.Error); msg != "" {
				return nil, nil, fmt.Errorf("backend: %s status %d: %s", path, resp.StatusCode, msg)
			}
		}
		return nil, nil, fmt.Errorf("backend: %s status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, resp.Header, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
