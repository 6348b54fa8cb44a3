package vinted

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ensureSession establishes the cookie session on first use.
func (c *Client) ensureSession(ctx context.Context) error {
	c.sessionOnce.Do(func() {
		c.sessionErr = c.bootstrapSession(ctx)
	})
	return c.sessionErr
}

// refreshSession re-runs the bootstrap after the API rejected our cookies.
func (c *Client) refreshSession(ctx context.Context) {
	c.logger.Warn("[vinted] Session rejected, re-bootstrapping")
	if err := c.bootstrapSession(ctx); err != nil {
		c.logger.Error("[vinted] Session refresh failed: %v", err)
	}
}

// bootstrapSession obtains the anonymous session cookies the API expects.
// The plain HTTP handshake is enough most of the time; the headless-browser
// path exists for regions where the anti-bot layer only issues cookies to a
// real browser.
func (c *Client) bootstrapSession(ctx context.Context) error {
	if c.cfg.BrowserSession {
		if err := c.browserSession(ctx); err != nil {
			c.logger.Warn("[vinted] Browser session failed, falling back to plain HTTP: %v", err)
		} else {
			return nil
		}
	}
	return c.plainSession(ctx)
}

// plainSession hits the homepage so the cookie jar picks up the session
// cookies from the response.
func (c *Client) plainSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.VintedBaseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session handshake: %w", err)
	}
	defer resp.Body.Close()

	base, err := url.Parse(c.cfg.VintedBaseURL)
	if err != nil {
		return err
	}
	if len(c.http.Jar.Cookies(base)) == 0 {
		return fmt.Errorf("session handshake: no cookies issued (status %d)", resp.StatusCode)
	}

	c.logger.Info("[vinted] Session established via HTTP handshake")
	return nil
}

// browserSession loads the homepage in headless Chrome and copies the
// cookies it was issued into the HTTP client's jar.
func (c *Client) browserSession(ctx context.Context) error {
	chromeBin := findChromeBinary(c.cfg.ChromeBin)
	c.logger.Info("[vinted] Bootstrapping session with browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(c.cfg.UserAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx,
		time.Duration(c.cfg.SourceTimeoutSec)*time.Second)
	defer cancelTimeout()

	var cookies []*network.Cookie
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.cfg.VintedBaseURL),
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().WithUrls([]string{c.cfg.VintedBaseURL}).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("browser bootstrap: %w", err)
	}
	if len(cookies) == 0 {
		return fmt.Errorf("browser bootstrap: no cookies issued")
	}

	base, err := url.Parse(c.cfg.VintedBaseURL)
	if err != nil {
		return err
	}

	jarCookies := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		jarCookies = append(jarCookies, &http.Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Domain: ck.Domain,
			Path:   ck.Path,
		})
	}
	c.http.Jar.SetCookies(base, jarCookies)

	c.logger.Info("[vinted] Session established via browser (%d cookies)", len(cookies))
	return nil
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
