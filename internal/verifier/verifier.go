// Package verifier resolves bearer credentials to identities by calling the
// external identity service.
package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nfrund/relay/internal/domain"
)

// Verifier is the contract the relay engine depends on. Each connection's
// authentication attempt performs its own verification; implementations must
// not cache identities across connections.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// HTTP calls the identity service over its REST contract:
// GET {base}/api/auth/me with an Authorization: Bearer header. A 200 response
// yields the identity; any other status, a malformed body, or a transport
// fault is reported uniformly as domain.ErrInvalidToken so clients cannot
// distinguish a bad credential from an unavailable upstream.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates a verifier against the given base URL. The timeout bounds
// the whole call so a stalled upstream cannot pin a connection in the
// unauthenticated state indefinitely.
func NewHTTP(baseURL string, timeout time.Duration) *HTTP {
	return &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Verify implements Verifier.
func (v *HTTP) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("building verifier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		slog.Warn("Identity verifier unreachable", "error", err)
		return nil, domain.ErrInvalidToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ErrInvalidToken
	}

	var body struct {
		User domain.Identity `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		slog.Warn("Identity verifier returned a malformed body", "error", err)
		return nil, domain.ErrInvalidToken
	}
	if body.User.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	return &body.User, nil
}
