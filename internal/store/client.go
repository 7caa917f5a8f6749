// Package store is the HTTP client for the hosted backend. It covers the
// full remote boundary: queries, mutations, the change feed subscription,
// logo storage and auth. Everything network-shaped lives here; the
// synchronization controller only ever sees the Go-level contract.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sentinel errors mapped from server responses. Callers match them with
// errors.Is; the wrapped error keeps the server's message.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Session holds the persisted login state
type Session struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
}

// Client talks to the tablero server
type Client struct {
	session     Session
	sessionPath string
	httpClient  *http.Client
}

// NewClient creates a client, loading any persisted session from
// ~/.tablero/session.json
func NewClient(serverURL string) (*Client, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	c := &Client{
		sessionPath: filepath.Join(home, ".tablero", "session.json"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}

	c.loadSession()
	if serverURL != "" {
		c.session.ServerURL = serverURL
	}
	if c.session.ServerURL == "" {
		c.session.ServerURL = "http://localhost:8080"
	}

	return c, nil
}

func (c *Client) loadSession() {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, &c.session)
}

func (c *Client) saveSession() error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, data, 0600)
}

// IsLoggedIn returns true if a session token is present
func (c *Client) IsLoggedIn() bool {
	return c.session.Token != ""
}

// UserID returns the logged-in user id, or empty
func (c *Client) UserID() string {
	return c.session.UserID
}

// ServerURL returns the configured server URL
func (c *Client) ServerURL() string {
	return c.session.ServerURL
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Register creates a new account and stores the resulting session
func (c *Client) Register(name, email, password string) error {
	var result authResponse
	err := c.doJSON(context.Background(), http.MethodPost, "/api/v1/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}

	c.session.Token = result.Token
	c.session.UserID = result.UserID
	return c.saveSession()
}

// Login authenticates with email and password
func (c *Client) Login(email, password string) error {
	var result authResponse
	err := c.doJSON(context.Background(), http.MethodPost, "/api/v1/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.session.Token = result.Token
	c.session.UserID = result.UserID
	return c.saveSession()
}

// Logout clears the local session. The server-side session is revoked
// best-effort; a dead server must not keep the user logged in locally.
func (c *Client) Logout() error {
	_ = c.doJSON(context.Background(), http.MethodPost, "/api/v1/logout", nil, nil)
	c.session.Token = ""
	c.session.UserID = ""
	return c.saveSession()
}

// doJSON issues a request with the session token and decodes the JSON
// response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.session.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, string(respBody))
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrNotFound, string(respBody))
		}
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
