// Package supabase talks to the hosted auth provider (GoTrue-compatible REST)
// and its PostgREST profile table.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"possessher/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without the anon key.
var ErrMissingAPIKey = errors.New("supabase: anon key is required")

// Options configures the provider clients.
type Options struct {
	BaseURL        string
	AnonKey        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// AuthError is a provider-reported failure. Message is safe to show to the
// visitor; the auth form displays it verbatim.
type AuthError struct {
	Status  int
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("supabase: %s (status %d)", e.Message, e.Status)
}

type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

type transport struct {
	baseURL    *url.URL
	anonKey    string
	httpClient *http.Client
	logger     *infra.Logger
}

func newTransport(opts Options) (*transport, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	baseURL, err := url.Parse(raw)
	if err != nil || raw == "" || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("supabase: invalid base url %q", opts.BaseURL)
	}
	anonKey := strings.TrimSpace(opts.AnonKey)
	if anonKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &transport{baseURL: baseURL, anonKey: anonKey, httpClient: httpClient, logger: logger}, nil
}

// do issues a request and returns the raw body for 2xx responses. Non-2xx
// responses are converted into *AuthError.
func (t *transport) do(ctx context.Context, method, path string, query url.Values, payload any, header http.Header) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	endpoint := t.baseURL.JoinPath(path)
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", t.anonKey)
	req.Header.Set("Authorization", "Bearer "+t.anonKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, values := range header {
		req.Header[k] = append([]string(nil), values...)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("supabase: read response %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodeError(status int, raw []byte) *AuthError {
	authErr := &AuthError{Status: status}
	var detail errorBody
	if err := json.Unmarshal(raw, &detail); err == nil {
		authErr.Message = firstNonEmpty(detail.Msg, detail.ErrorDescription, detail.Message, detail.Error)
		authErr.Code = firstNonEmpty(detail.ErrorCode, codeString(detail.Code), detail.Error)
	}
	if authErr.Message == "" {
		authErr.Message = strings.TrimSpace(string(raw))
	}
	if authErr.Message == "" {
		authErr.Message = http.StatusText(status)
	}
	return authErr
}

func codeString(v any) string {
	switch c := v.(type) {
	case string:
		return c
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
