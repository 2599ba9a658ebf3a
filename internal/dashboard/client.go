// Package dashboard is the live API fetch layer. The Client speaks a
// dashboard-style REST API over HTTPS and implements both the fetch
// capability used by the comparison orchestrator and the entity listing
// used to enumerate organizations, networks, and devices.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries everything the client needs. There is no process-wide
// client or organization id; both live on the Client value.
type Config struct {
	BaseURL string
	APIKey  string
	// OrgID is the organization operated on by organization-wide calls.
	OrgID string
	// CacheRoot enables listing caching when set to a store root.
	CacheRoot string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// Client is a dashboard API client bound to one organization.
type Client struct {
	baseURL   string
	apiKey    string
	orgID     string
	cacheRoot string
	cacheTTL  time.Duration
	http      *http.Client
	log       *logrus.Entry
}

// NewClient builds a Client from config.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		orgID:     cfg.OrgID,
		cacheRoot: cfg.CacheRoot,
		cacheTTL:  ttl,
		http:      &http.Client{Timeout: timeout},
		log:       logrus.WithField("component", "dashboard"),
	}
}

// OrgID returns the organization the client is bound to.
func (c *Client) OrgID() string {
	return c.orgID
}

const maxAttempts = 3

// get performs an authenticated GET and decodes the JSON response into
// out. Rate-limited (429) and server-error responses are retried with
// the server-suggested or a short fixed delay.
func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.baseURL + path

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("building request for %s: %w", path, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			retryAfter := resp.Header.Get("Retry-After")
			resp.Body.Close()
			if attempt >= maxAttempts {
				return fmt.Errorf("requesting %s: status %d after %d attempts", path, resp.StatusCode, attempt)
			}
			delay := time.Second
			if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
				delay = time.Duration(secs) * time.Second
			}
			c.log.WithFields(logrus.Fields{"path": path, "status": resp.StatusCode, "attempt": attempt}).Warn("retrying request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("requesting %s: status %d: %s", path, resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
		return nil
	}
}
