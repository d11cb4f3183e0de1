// Package authapi is the host's client for the backend auth and jobs
// endpoints. Failures come back as structured errors; HTTP 401 maps to
// ErrUnauthorized so callers can tell "token actively wrong" apart from
// every other failure class.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jobtrail/extension-host/internal/host/cookies"
	"github.com/jobtrail/extension-host/internal/models"
)

// ErrUnauthorized reports that the backend rejected the presented token.
// Callers clear the credential store when they see it.
var ErrUnauthorized = errors.New("unauthorized")

// Client issues HTTP calls to the backend's auth and jobs endpoints.
type Client struct {
	baseURL    string
	http       *http.Client
	strategies []loginStrategy
}

// New creates a Client for the given backend base URL. hc may be nil, in
// which case http.DefaultClient is used. No timeout is set on auth calls.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: hc, strategies: defaultLoginStrategies}
}

// VerifyResult is the backend's answer to a token verification.
type VerifyResult struct {
	Valid     bool        `json:"valid"`
	User      models.User `json:"user"`
	ExpiresAt int64       `json:"expiresAt"`
}

// SessionResult is the backend's answer to a cookie session check.
type SessionResult struct {
	HasSession bool        `json:"hasSession"`
	Token      string      `json:"token,omitempty"`
	User       models.User `json:"user,omitempty"`
	ExpiresAt  int64       `json:"expiresAt,omitempty"`
}

// LinkResult is the backend's answer to a link-account request.
type LinkResult struct {
	Linked       bool   `json:"linked"`
	WebsiteEmail string `json:"websiteEmail"`
}

// SaveJobResult is the backend's answer to a job save.
type SaveJobResult struct {
	ID              string `json:"id"`
	SyncedToWebsite bool   `json:"syncedToWebsite"`
}

// Verify round-trips a candidate bearer token through the backend.
func (c *Client) Verify(ctx context.Context, token string) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodGet, "/auth/verify", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SessionCheck asks the backend whether the given website cookies carry an
// authenticated session. On success the backend mints a bearer token for
// the extension.
func (c *Client) SessionCheck(ctx context.Context, cs []cookies.Cookie) (*SessionResult, error) {
	var out SessionResult
	if err := c.do(ctx, http.MethodGet, "/auth/session", "", cs, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LinkAccount ties the extension's token to a website account.
func (c *Client) LinkAccount(ctx context.Context, token, websiteEmail, websitePassword string) (*LinkResult, error) {
	body := map[string]string{
		"websiteEmail":    websiteEmail,
		"websitePassword": websitePassword,
	}
	var out LinkResult
	if err := c.do(ctx, http.MethodPost, "/auth/link-account", token, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveJob forwards a normalized job draft to the backend. syncToWebsite
// selects the dual-write variant of the endpoint.
func (c *Client) SaveJob(ctx context.Context, token string, draft *models.JobDraft, syncToWebsite bool) (*SaveJobResult, error) {
	path := "/jobs"
	if syncToWebsite {
		path += "?syncToWebsite=true"
	}
	var out SaveJobResult
	if err := c.do(ctx, http.MethodPost, path, token, nil, draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round-trip. token, cookies, and body are each
// optional. Non-2xx statuses become errors: 401 wraps ErrUnauthorized,
// everything else carries the backend's error message when one can be
// parsed, or a generic "API error: <status>".
func (c *Client) do(ctx context.Context, method, path, token string, cs []cookies.Cookie, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, ck := range cs {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// marshalBody encodes a JSON request body.
func marshalBody(body any) (io.Reader, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// apiError turns a non-2xx response into an error, preferring the JSON
// error body and falling back to the status code.
func (c *Client) apiError(resp *http.Response) error {
	msg := fmt.Sprintf("API error: %d", resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return errors.New(msg)
}
