// Package apiclient is the web frontend's HTTP client for the Testcracker API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"testcracker/internal/health"
)

const maxHealthBody = 4 << 10

type Client struct {
	BaseURL       string
	HealthTimeout time.Duration
	HTTP          *http.Client
}

func New(baseURL string, healthTimeout time.Duration) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		HealthTimeout: healthTimeout,
		HTTP:          &http.Client{Timeout: 10 * time.Second},
	}
}

// HealthStatus is the outcome of one health check. Reason is set when OK is false.
type HealthStatus struct {
	OK     bool
	Reason string
}

// Health calls GET /health once, bypassing caches. It never returns an error;
// every failure is folded into the status.
func (c *Client) Health(ctx context.Context) HealthStatus {
	if c.BaseURL == "" {
		return HealthStatus{Reason: "API base URL not set"}
	}
	if c.HealthTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.HealthTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return HealthStatus{Reason: err.Error()}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return HealthStatus{Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HealthStatus{Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxHealthBody))
	if err != nil {
		return HealthStatus{Reason: err.Error()}
	}
	text := strings.TrimSpace(string(body))
	if text != health.Body {
		return HealthStatus{Reason: fmt.Sprintf("Unexpected response: %q", text)}
	}
	return HealthStatus{OK: true}
}

// APIError is a non-2xx reply from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned HTTP %d", e.Status)
	}
	return e.Message
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.post(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	var out User
	err := c.post(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	if c.BaseURL == "" {
		return errors.New("API base URL not set")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
