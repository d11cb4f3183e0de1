package authapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jobtrail/extension-host/internal/host/cookies"
	"github.com/jobtrail/extension-host/internal/models"
)

// LoginResult is the uniform outcome of a login, whichever strategy
// produced it.
type LoginResult struct {
	Token      string      `json:"token"`
	User       models.User `json:"user"`
	ExpiresAt  int64       `json:"expiresAt"`
	ViaCookies bool        `json:"-"`
}

// loginStrategy is one way of turning credentials into a bearer token.
// Strategies are tried in order; the first success wins.
type loginStrategy struct {
	name string
	run  func(ctx context.Context, c *Client, email, password string) (*LoginResult, error)
}

// defaultLoginStrategies: direct token issuance first, then the cookie
// login endpoint with token derivation from the resulting session cookies.
// The backend may run either auth mechanism; callers never need to know
// which one is live.
var defaultLoginStrategies = []loginStrategy{
	{name: "direct token", run: directTokenLogin},
	{name: "web cookies", run: cookieLogin},
}

// Login authenticates with email and password, trying each strategy in
// sequence. The returned result reports which path succeeded via
// ViaCookies.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var lastErr error
	for _, s := range c.strategies {
		res, err := s.run(ctx, c, email, password)
		if err == nil {
			return res, nil
		}
		lastErr = fmt.Errorf("%s login: %w", s.name, err)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no login strategies configured")
	}
	return nil, lastErr
}

// directTokenLogin posts credentials to the token-issuing endpoint.
func directTokenLogin(ctx context.Context, c *Client, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &out, nil
}

// cookieLogin posts credentials to the cookie-setting login endpoint, then
// derives a bearer token by presenting the resulting session cookies to the
// session-check endpoint.
func cookieLogin(ctx context.Context, c *Client, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	b, err := marshalBody(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/session/login", b)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp)
	}

	var cs []cookies.Cookie
	for _, ck := range resp.Cookies() {
		cs = append(cs, cookies.Cookie{Name: ck.Name, Value: ck.Value})
	}
	if len(cs) == 0 {
		return nil, fmt.Errorf("cookie login set no cookies")
	}

	session, err := c.SessionCheck(ctx, cs)
	if err != nil {
		return nil, err
	}
	if !session.HasSession || session.Token == "" {
		return nil, fmt.Errorf("no session after cookie login")
	}
	return &LoginResult{
		Token:      session.Token,
		User:       session.User,
		ExpiresAt:  session.ExpiresAt,
		ViaCookies: true,
	}, nil
}
