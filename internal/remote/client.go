// Package remote talks to the hosted backend's REST interface: the
// impact_entries upsert target and the leaderboard view.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/Veraticus/sortwise/internal/common"
)

const (
	impactEntriesPath = "/rest/v1/impact_entries"
	leaderboardPath   = "/rest/v1/leaderboard"
	impactConflictKey = "user_id,item_key,day_key"
)

// ImpactEntry is one row of the impact_entries table. Rows are keyed by
// (user_id, item_key, day_key) so a repeated sync overwrites instead of
// double counting.
type ImpactEntry struct {
	UpdatedAt  time.Time `json:"updated_at"`
	UserID     string    `json:"user_id"`
	ItemKey    string    `json:"item_key"`
	DayKey     string    `json:"day_key"`
	Item       string    `json:"item"`
	Material   string    `json:"material"`
	Bin        string    `json:"bin"`
	Source     string    `json:"source"`
	Points     int       `json:"points"`
	Scans      int       `json:"scans"`
	Recyclable bool      `json:"recyclable"`
}

// Row is an untyped row from a backend view.
type Row map[string]any

// Config configures Client.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// StatusError is a non-2xx backend reply.
type StatusError struct {
	Message string
	Status  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// Client is a REST client for the backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a backend client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: backend URL is required", common.ErrMissingConfig)
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return nil, fmt.Errorf("%w: backend URL: %w", common.ErrInvalidConfig, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// UpsertImpactEntry writes entry, merging with any row that has the same key.
// It is never retried here; a later sync of the same key supersedes it.
func (c *Client) UpsertImpactEntry(ctx context.Context, token string, entry ImpactEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal impact entry: %w", err)
	}

	query := url.Values{"on_conflict": {impactConflictKey}}
	req, err := c.newRequest(ctx, http.MethodPost, impactEntriesPath, query, token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSyncFailed, err)
	}
	return nil
}

// FetchUserAggregate returns the caller's leaderboard row. found is false
// when the backend has no row for userID yet.
func (c *Client) FetchUserAggregate(ctx context.Context, token, userID string) (row Row, found bool, err error) {
	query := url.Values{
		"user_id": {"eq." + userID},
		"select":  {"*"},
		"limit":   {"1"},
	}

	rows, err := c.fetchRows(ctx, leaderboardPath, query, token)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// FetchLeaderboard returns up to limit leaderboard rows, highest points first.
func (c *Client) FetchLeaderboard(ctx context.Context, token string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 10
	}
	query := url.Values{
		"select": {"*"},
		"order":  {"total_points.desc"},
		"limit":  {strconv.Itoa(limit)},
	}
	return c.fetchRows(ctx, leaderboardPath, query, token)
}

// fetchRows runs an idempotent GET, retrying transient failures.
func (c *Client) fetchRows(ctx context.Context, path string, query url.Values, token string) ([]Row, error) {
	var rows []Row
	err := common.WithRetry(ctx, func() error {
		req, err := c.newRequest(ctx, http.MethodGet, path, query, token, nil)
		if err != nil {
			return &common.RetryableError{Err: err}
		}
		req.Header.Set("Accept", "application/json")

		body, err := c.do(req)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.Status < 500 && statusErr.Status != http.StatusTooManyRequests {
				return &common.RetryableError{Err: err}
			}
			return err
		}

		var decoded []Row
		if err := json.Unmarshal(body, &decoded); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to parse %s response: %w", path, err)}
		}
		rows = decoded
		return nil
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, token string, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	bearer := token
	if bearer == "" {
		bearer = c.apiKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	return body, nil
}

func errorMessage(status int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return common.Truncate(msg, 200)
	}
	return http.StatusText(status)
}
