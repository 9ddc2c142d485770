package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ProfileClient reads the entitlement flag through the provider's REST API.
type ProfileClient struct {
	t *transport
}

// NewProfileClient constructs a profile lookup client.
func NewProfileClient(opts Options) (*ProfileClient, error) {
	t, err := newTransport(opts)
	if err != nil {
		return nil, err
	}
	return &ProfileClient{t: t}, nil
}

type profileRow struct {
	IsPro *bool `json:"is_pro"`
}

// IsPro performs a single-row lookup filtered by exact email. No matching
// row means not pro.
func (c *ProfileClient) IsPro(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, errors.New("supabase: email is required")
	}
	query := url.Values{
		"select": []string{"is_pro"},
		"email":  []string{"eq." + email},
	}
	header := http.Header{"Accept": []string{"application/vnd.pgrst.object+json"}}
	raw, err := c.t.do(ctx, http.MethodGet, "/rest/v1/profiles", query, nil, header)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) && authErr.Status == http.StatusNotAcceptable {
			return false, nil
		}
		return false, err
	}
	var row profileRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return false, fmt.Errorf("supabase: decode profile: %w", err)
	}
	return row.IsPro != nil && *row.IsPro, nil
}
