package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/daniacca/starseed/internal/scan"
	"github.com/daniacca/starseed/internal/store"
)

type (
	// Profile is a stored scan with its progress.
	Profile = store.Profile
	// Match is one seed a profile found.
	Match = store.Match
	// Scan describes a scan session on the server.
	Scan = scan.Info
	// Event is one message of a scan stream.
	Event = scan.Event
)

// Event types of a scan stream.
const (
	EventFound    = scan.EventFound
	EventProgress = scan.EventProgress
	EventDone     = scan.EventDone
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to a starseed server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// New returns a client for the server at baseURL (e.g. "http://localhost:62879").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		dialer:     websocket.DefaultDialer,
	}
}

// WithHTTPClient replaces the HTTP client used for REST calls.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method string, path []string, query url.Values, body, out any) error {
	u, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, []string{"healthz"}, nil, nil, nil)
}

// Galaxy generates one galaxy and returns its JSON document.
func (c *Client) Galaxy(ctx context.Context, game GameDesc) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodPost, []string{"galaxy"}, nil, game, &out)
	return out, err
}

// Find evaluates rule on a single galaxy and returns the matching star
// indexes.
func (c *Client) Find(ctx context.Context, game GameDesc, rule *RuleBuilder) ([]int, error) {
	body := map[string]any{"game": game, "rule": rule.Build()}
	var out struct {
		Indexes []int `json:"indexes"`
	}
	if err := c.do(ctx, http.MethodPost, []string{"find"}, nil, body, &out); err != nil {
		return nil, err
	}
	return out.Indexes, nil
}

// CreateProfile stores a scan of seeds [start, end] for later runs.
func (c *Client) CreateProfile(ctx context.Context, name string, game GameDesc, rule *RuleBuilder, start, end int32) (Profile, error) {
	body := map[string]any{
		"name":  name,
		"game":  game,
		"rule":  rule.Build(),
		"range": [2]int32{start, end},
	}
	var p Profile
	err := c.do(ctx, http.MethodPost, []string{"profiles"}, nil, body, &p)
	return p, err
}

func (c *Client) GetProfile(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := c.do(ctx, http.MethodGet, []string{"profiles", id}, nil, nil, &p)
	return p, err
}

func (c *Client) ListProfiles(ctx context.Context) ([]Profile, error) {
	var out struct {
		Profiles []Profile `json:"profiles"`
	}
	err := c.do(ctx, http.MethodGet, []string{"profiles"}, nil, nil, &out)
	return out.Profiles, err
}

func (c *Client) ListMatches(ctx context.Context, id string) ([]Match, error) {
	var out struct {
		Matches []Match `json:"matches"`
	}
	err := c.do(ctx, http.MethodGet, []string{"profiles", id, "matches"}, nil, nil, &out)
	return out.Matches, err
}

// RunProfile resumes a profile from its watermark on the server. A
// concurrency of 0 uses the server's default.
func (c *Client) RunProfile(ctx context.Context, id string, concurrency int) (Scan, error) {
	var query url.Values
	if concurrency > 0 {
		query = url.Values{"concurrency": {strconv.Itoa(concurrency)}}
	}
	var info Scan
	err := c.do(ctx, http.MethodPost, []string{"profiles", id, "run"}, query, nil, &info)
	return info, err
}

func (c *Client) StopProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, []string{"profiles", id, "stop"}, nil, nil, nil)
}

func (c *Client) DeleteProfile(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, []string{"profiles", id}, nil, nil, nil)
}

// RegisterWebhook asks the server to POST every scan event to hookURL.
func (c *Client) RegisterWebhook(ctx context.Context, id, hookURL string, headers map[string]string) error {
	body := map[string]any{
		"type":   "webhook",
		"id":     id,
		"config": map[string]any{"url": hookURL, "headers": headers},
	}
	return c.do(ctx, http.MethodPost, []string{"notifiers"}, nil, body, nil)
}

func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, []string{"notifiers", id}, nil, nil, nil)
}

// ScanRequest describes a streamed scan. ProfileID, when set, resumes that
// profile and the other fields except Concurrency are ignored.
type ScanRequest struct {
	Game        GameDesc
	Rule        *RuleBuilder
	Start, End  int32
	Concurrency int
	ProfileID   string
}

type streamMessage struct {
	Event
	Message string `json:"message"`
}

// Stream runs a scan over a WebSocket session and calls handle for every
// Found, Progress and Done event. It returns after Done, when handle
// returns an error, or when ctx is done; in the last two cases the scan is
// stopped on the server.
func (c *Client) Stream(ctx context.Context, req ScanRequest, handle func(Event) error) error {
	wsURL, err := c.websocketURL("ws")
	if err != nil {
		return err
	}
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	find := map[string]any{"type": "Find"}
	if req.Concurrency > 0 {
		find["concurrency"] = req.Concurrency
	}
	if req.ProfileID != "" {
		find["profileId"] = req.ProfileID
	} else {
		if req.Rule == nil {
			return errors.New("rule is required")
		}
		find["game"] = req.Game
		find["rule"] = req.Rule.Build()
		find["range"] = [2]int32{req.Start, req.End}
	}
	if err := conn.WriteJSON(find); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var writeMu sync.Mutex
	sendStop := func() {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.WriteJSON(map[string]string{"type": "Stop"})
	}

	// Unblock the read loop when ctx ends.
	stop := context.AfterFunc(ctx, func() {
		sendStop()
		conn.Close()
	})
	defer stop()

	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read event: %w", err)
		}
		switch msg.Type {
		case "Error":
			return errors.New(msg.Message)
		case EventFound, EventProgress, EventDone:
			if err := handle(msg.Event); err != nil {
				sendStop()
				return err
			}
			if msg.Type == EventDone {
				return nil
			}
		}
	}
}

func (c *Client) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.JoinPath(path).String(), nil
}
