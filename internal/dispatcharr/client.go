package dispatcharr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// tokenRefreshMargin renews the access token this long before it expires.
const tokenRefreshMargin = 60 * time.Second

// Client talks to a Dispatcharr instance. Authentication is JWT-based;
// the access token's expiry is read from its claims so renewal happens
// before requests start failing. All calls run through a circuit breaker
// so a down instance does not stall generation cycles.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func NewClient(baseURL, username, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
		http:     &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "dispatcharr",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.Warnf("[DISPATCHARR] Circuit breaker %s: %s → %s", name, from, to)
			},
		}),
	}
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// login obtains a fresh token pair.
func (c *Client) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/accounts/token/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatcharr login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dispatcharr login: status %d", resp.StatusCode)
	}
	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return fmt.Errorf("dispatcharr login: %w", err)
	}

	c.accessToken = tokens.Access
	c.refreshToken = tokens.Refresh
	c.expiresAt = tokenExpiry(tokens.Access)
	logrus.Debugf("[DISPATCHARR] Authenticated, token expires %s", c.expiresAt.Format(time.RFC3339))
	return nil
}

// refresh trades the refresh token for a new access token, falling back to
// a full login when it is rejected.
func (c *Client) refresh(ctx context.Context) error {
	if c.refreshToken == "" {
		return c.login(ctx)
	}
	body, _ := json.Marshal(map[string]string{"refresh": c.refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/accounts/token/refresh/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.login(ctx)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.login(ctx)
	}
	var tokens tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return c.login(ctx)
	}
	c.accessToken = tokens.Access
	c.expiresAt = tokenExpiry(tokens.Access)
	return nil
}

// ensureToken guarantees a valid access token before a request.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken == "" {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	} else if time.Now().After(c.expiresAt.Add(-tokenRefreshMargin)) {
		if err := c.refresh(ctx); err != nil {
			return "", err
		}
	}
	return c.accessToken, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server signed it, we only need the deadline. Unparseable tokens get a
// short conservative lifetime.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err == nil {
		if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(5 * time.Minute)
}

// do performs an authenticated JSON request. A 401 triggers one forced
// re-login and retry.
func (c *Client) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doOnce(ctx, method, path, payload, dest, true)
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload, dest interface{}, retryAuth bool) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dispatcharr %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && retryAuth {
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
		return c.doOnce(ctx, method, path, payload, dest, false)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dispatcharr %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}
	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("dispatcharr %s %s: decoding: %w", method, path, err)
		}
	}
	return nil
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ensureToken(ctx)
	return err
}
