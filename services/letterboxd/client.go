// Package letterboxd fetches the film titles of a Letterboxd watchlist or
// custom list through the list-export service. The service runs on a free
// tier that cold-starts with 503s, so fetches retry those; a 404 means the
// list path itself is wrong and is surfaced as a typed error immediately.
package letterboxd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrListNotFound is returned when the list path does not exist upstream.
var ErrListNotFound = errors.New("letterboxd list not found")

const (
	fetchAttempts = 4
	fetchDelay    = 3 * time.Second
)

// Client talks to the Letterboxd list-export service.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger

	// retryDelay is overridable in tests so retries do not sleep.
	retryDelay time.Duration
}

// NewClient builds a list client for the given service base URL.
func NewClient(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpc:      httpc,
		log:        slog.Default().With("component", "letterboxd"),
		retryDelay: fetchDelay,
	}
}

type listEntry struct {
	Title string `json:"title"`
}

// FetchList returns the film titles of the list at listPath (for example
// "105424/watchlist" or "someuser/list/best-of-1999"). 503 responses and
// transport errors are retried a fixed number of times with a fixed delay;
// a 404 fails immediately with ErrListNotFound; any other non-2xx status
// fails immediately.
func (c *Client) FetchList(ctx context.Context, listPath string) ([]string, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(listPath, "/")

	var titles []string
	err := retry.Do(
		func() error {
			entries, err := c.fetchOnce(ctx, endpoint)
			if err != nil {
				return err
			}
			titles = titles[:0]
			for _, e := range entries {
				if t := strings.TrimSpace(e.Title); t != "" {
					titles = append(titles, t)
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(fetchAttempts),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("list fetch retrying", "list", listPath, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return titles, nil
}

func (c *Client) fetchOnce(ctx context.Context, endpoint string) ([]listEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		// Transport errors are retried; the service may still be waking up.
		return nil, fmt.Errorf("list service request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var entries []listEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("decode list response: %w", err))
		}
		return entries, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(ErrListNotFound)
	case resp.StatusCode == http.StatusServiceUnavailable:
		// Free-tier cold start.
		return nil, fmt.Errorf("list service unavailable: %s", resp.Status)
	default:
		return nil, retry.Unrecoverable(fmt.Errorf("list fetch failed: %s", resp.Status))
	}
}
