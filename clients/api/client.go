// Package api provides an HTTP client for the reflex gateway REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/events"
)

// Health reports the gateway health snapshot.
type Health struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	Ticks         uint64 `json:"ticks"`
	ActiveMode    string `json:"active_mode"`
	EventsDropped uint64 `json:"events_dropped"`
	Task          string `json:"task,omitempty"`
}

// Outcome is one journal row as served by the gateway.
type Outcome struct {
	ActionID   string `json:"action_id"`
	Mode       string `json:"mode"`
	Trigger    string `json:"trigger"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Duration   string `json:"duration"`
}

// Client talks to the reflex gateway REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL, e.g. "http://127.0.0.1:18520".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Health fetches the gateway health snapshot.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.get(ctx, "/api/health", &out)
	return out, err
}

// Modes fetches the status of every registered mode.
func (c *Client) Modes(ctx context.Context) ([]behavior.ModeStatus, error) {
	var out []behavior.ModeStatus
	err := c.get(ctx, "/api/modes", &out)
	return out, err
}

// ModesText fetches the human-readable mode listing.
func (c *Client) ModesText(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/modes/text", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// EnableMode enables the named mode.
func (c *Client) EnableMode(ctx context.Context, name string) error {
	return c.post(ctx, "/api/modes/"+name+"/enable", nil, nil)
}

// DisableMode disables the named mode.
func (c *Client) DisableMode(ctx context.Context, name string) error {
	return c.post(ctx, "/api/modes/"+name+"/disable", nil, nil)
}

// PauseMode pauses the named mode until the agent next goes idle.
func (c *Client) PauseMode(ctx context.Context, name string) error {
	return c.post(ctx, "/api/modes/"+name+"/pause", nil, nil)
}

// History fetches recent outcome records, newest first. A non-empty mode
// restricts the listing to that mode.
func (c *Client) History(ctx context.Context, limit int, mode string) ([]Outcome, error) {
	path := fmt.Sprintf("/api/history?limit=%d", limit)
	if mode != "" {
		path += "&mode=" + mode
	}
	var out []Outcome
	err := c.get(ctx, path, &out)
	return out, err
}

// Events fetches the gateway's in-memory event ring, oldest first.
func (c *Client) Events(ctx context.Context, limit int) ([]events.Event, error) {
	var out []events.Event
	err := c.get(ctx, fmt.Sprintf("/api/events?limit=%d", limit), &out)
	return out, err
}

// BeginTask claims the agent for a named external task.
func (c *Client) BeginTask(ctx context.Context, name string, d time.Duration) error {
	body := map[string]string{"name": name, "duration": d.String()}
	return c.post(ctx, "/api/task", body, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var payload io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("gateway: %s (status %d)", msg, resp.StatusCode)
	}
	return body, nil
}
