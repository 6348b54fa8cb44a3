// Package vinted fetches marketplace listings from the Vinted JSON API.
// The API requires session cookies issued to a browser-like client; see
// session.go for how those are obtained.
package vinted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"
	"time"

	"dealsense/config"
	"dealsense/models"
	"dealsense/utils"
)

const (
	catalogPath = "/api/v2/catalog/items"
	itemPath    = "/api/v2/items/"
)

// ErrUnavailable marks failures of the search endpoint itself, after
// retries. Callers treat it as fatal for the run — without search results
// there is nothing to process.
var ErrUnavailable = errors.New("marketplace unavailable")

// Client fetches listings from Vinted.
type Client struct {
	cfg    *config.Config
	logger *utils.Logger
	http   *http.Client
	retry  *utils.RetryConfig
	seen   *utils.IDSet

	sessionOnce sync.Once
	sessionErr  error
}

// New creates a ready-to-use Client. The session is established lazily on
// the first search.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.SourceTimeoutSec) * time.Second,
		},
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		seen: utils.NewIDSet(),
	}
}

// Search queries the catalog and returns up to maxItems detailed raw
// listings. Search failure is fatal (wrapped in ErrUnavailable); a failed
// detail fetch degrades to the summary payload for that item.
func (c *Client) Search(ctx context.Context, query string, maxItems int) ([]models.RawItem, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	params := url.Values{}
	params.Set("search_text", query)
	params.Set("per_page", strconv.Itoa(maxItems))

	var payload map[string]any
	err := c.retry.DoCtx(ctx, "vinted-search", func() error {
		return c.getJSON(ctx, catalogPath+"?"+params.Encode(), &payload)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %v", ErrUnavailable, query, err)
	}

	items, _ := payload["items"].([]any)
	if len(items) == 0 {
		c.logger.Warn("[vinted] Search %q returned no items", query)
		return []models.RawItem{}, nil
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	c.logger.Info("[vinted] Search %q — %d summary items, fetching details", query, len(items))

	detailed := make([]models.RawItem, 0, len(items))
	for _, entry := range items {
		summary, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		id := models.NormalizeID(summary["id"])
		if id == "" {
			c.logger.Debug("[vinted] Skipping summary item with no id")
			continue
		}
		if !c.seen.Add(id) {
			c.logger.Debug("[vinted] Skipping duplicate item: %s", id)
			continue
		}

		detail, err := c.Item(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return detailed, ctx.Err()
			}
			c.logger.Warn("[vinted] Detail fetch failed for %s, keeping summary: %v", id, err)
			detailed = append(detailed, models.RawItem(summary))
			continue
		}
		detailed = append(detailed, detail)

		if c.cfg.RateLimitMs > 0 {
			select {
			case <-ctx.Done():
				return detailed, ctx.Err()
			case <-time.After(time.Duration(c.cfg.RateLimitMs) * time.Millisecond):
			}
		}
	}

	c.logger.Info("[vinted] Search %q complete — %d raw items", query, len(detailed))
	return detailed, nil
}

// Item fetches the detail payload for one listing id.
func (c *Client) Item(ctx context.Context, id string) (models.RawItem, error) {
	var payload map[string]any
	err := c.retry.DoCtx(ctx, "vinted-item-"+id, func() error {
		return c.getJSON(ctx, itemPath+id, &payload)
	})
	if err != nil {
		return nil, err
	}
	return models.RawItem(payload), nil
}

// getJSON performs one GET and decodes the body. json.Number preserves the
// numeric ids the API returns, which would otherwise lose precision as
// float64.
func (c *Client) getJSON(ctx context.Context, path string, out *map[string]any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.VintedBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Session cookies expired mid-run; refresh once and report the
		// failure so the retry layer re-issues the request.
		c.refreshSession(ctx)
		return fmt.Errorf("GET %s: status %d (session refreshed)", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("GET %s: decoding body: %w", path, err)
	}
	return nil
}
