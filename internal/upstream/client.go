// Package upstream implements the authenticated HTTP client for the
// Deutsche Bahn Timetables API. Exactly four resource kinds exist, each
// cached with its own TTL reflecting how fast the resource changes
// upstream: hourly plan slices barely change within their hour, change
// feeds churn constantly, the station directory is near static.
package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jusunglee/bahn-go/internal/cache"
)

// DefaultBaseURL is the production Timetables API endpoint.
const DefaultBaseURL = "https://apis.deutschebahn.com/db-api-marketplace/apis/timetables/v1"

const (
	planTTL    = time.Hour
	changesTTL = 30 * time.Second
	stationTTL = 12 * time.Hour

	// bodySnippetLimit caps how much of an error response body is
	// carried in an UpstreamError.
	bodySnippetLimit = 200
)

// Config holds the settings needed to construct a Client
type Config struct {
	ClientID string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// Client issues authenticated GETs against the Timetables API,
// read-through cached per resource path.
type Client struct {
	clientID   string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// New creates a Client. A missing credential pair is an AuthError
// before any network activity happens.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.APIKey == "" {
		return nil, &AuthError{
			Reason: "client ID and API key must both be provided (DB_CLIENT_ID / DB_API_KEY)",
		}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		clientID:   cfg.ClientID,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(),
	}, nil
}

// FetchPlan fetches one hourly plan slice. Date (YYMMDD) and hour (HH)
// are used verbatim as path segments; the slice planner produces them.
func (c *Client) FetchPlan(ctx context.Context, eva, date, hour string) (string, error) {
	path := fmt.Sprintf("/plan/%s/%s/%s", eva, date, hour)
	return c.cachedGet(ctx, path, planTTL)
}

// FetchFullChanges fetches the full change feed for a station.
func (c *Client) FetchFullChanges(ctx context.Context, eva string) (string, error) {
	return c.cachedGet(ctx, "/fchg/"+eva, changesTTL)
}

// FetchRecentChanges fetches the recent change feed for a station.
func (c *Client) FetchRecentChanges(ctx context.Context, eva string) (string, error) {
	return c.cachedGet(ctx, "/rchg/"+eva, changesTTL)
}

// FetchStation searches the station directory by name prefix, EVA
// number, or DS100 code.
func (c *Client) FetchStation(ctx context.Context, pattern string) (string, error) {
	return c.cachedGet(ctx, "/station/"+pattern, stationTTL)
}

func (c *Client) cachedGet(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return c.cache.GetOrFetch(path, ttl, func() (string, error) {
		return c.request(ctx, path)
	})
}

func (c *Client) request(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("DB-Client-Id", c.clientID)
	req.Header.Set("DB-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", "bahn-go/0.1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("GET %s: reading body: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &AuthError{Reason: fmt.Sprintf("upstream rejected credentials on %s (HTTP %d)", path, resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &RateLimitError{Path: path}
	case resp.StatusCode >= 400:
		return "", &UpstreamError{Path: path, Status: resp.StatusCode, Body: snippet(body)}
	}

	return string(body), nil
}

func snippet(body []byte) string {
	if len(body) > bodySnippetLimit {
		body = body[:bodySnippetLimit]
	}
	return string(body)
}
