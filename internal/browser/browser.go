// Package browser provides UI automation for scenario steps on top of
// go-rod: navigation, element interaction with retries, and screenshot
// capture honoring the harness screenshot policy.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"testrig/pkg/logging"
)

const subsystem = "Browser"

// Config holds browser behavior settings, typically filled from the
// harness configuration.
type Config struct {
	Headless          bool
	NavigationTimeout time.Duration
	ElementTimeout    time.Duration
	RetryCount        int
	RetryDelay        time.Duration

	Screenshot ScreenshotConfig
}

// ScreenshotConfig controls when and how screenshots are captured.
type ScreenshotConfig struct {
	Dir         string
	FullPage    bool
	OnFailure   bool
	FailedOnly  bool
	Timestamped bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		NavigationTimeout: 60 * time.Second,
		ElementTimeout:    30 * time.Second,
		RetryCount:        3,
		RetryDelay:        time.Second,
		Screenshot: ScreenshotConfig{
			Dir:         "screenshots",
			FullPage:    true,
			OnFailure:   true,
			FailedOnly:  true,
			Timestamped: true,
		},
	}
}

// Client owns one browser and one page. It is not safe for concurrent use;
// parallel UI scenarios each get their own client.
type Client struct {
	cfg      Config
	browser  *rod.Browser
	page     *rod.Page
	launched *launcher.Launcher
}

// New creates a client; Start launches the browser.
func New(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Start launches the browser and opens a blank page.
func (c *Client) Start(ctx context.Context) error {
	if c.browser != nil {
		return nil
	}

	logging.Info(subsystem, "starting browser (headless: %t)", c.cfg.Headless)

	c.launched = launcher.New().Headless(c.cfg.Headless)
	controlURL, err := c.launched.Launch()
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return fmt.Errorf("failed to open page: %w", err)
	}

	c.browser = browser
	c.page = page
	return nil
}

// Close shuts the page and browser down. Safe to call more than once.
func (c *Client) Close() error {
	if c.page != nil {
		_ = c.page.Close()
		c.page = nil
	}
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launched != nil {
		c.launched.Cleanup()
		c.launched = nil
	}
	logging.Info(subsystem, "browser closed")
	return err
}

func (c *Client) ensureStarted() error {
	if c.page == nil {
		return fmt.Errorf("browser not started")
	}
	return nil
}

// Navigate loads a URL and waits for the page to settle.
func (c *Client) Navigate(ctx context.Context, url string) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	logging.Info(subsystem, "navigating to %s", url)

	page := c.page.Context(ctx).Timeout(c.cfg.NavigationTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page load did not settle for %s: %w", url, err)
	}
	return nil
}

// withRetry runs op up to RetryCount times, sleeping RetryDelay between
// attempts. The last error wins.
func (c *Client) withRetry(ctx context.Context, what string, op func() error) error {
	attempts := c.cfg.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := op(); err != nil {
			lastErr = err
			logging.Debug(subsystem, "%s failed (attempt %d/%d): %v", what, attempt, attempts, err)
			if attempt < attempts {
				select {
				case <-time.After(c.cfg.RetryDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", what, attempts, lastErr)
}

// Click clicks the element matching the selector, retrying per config.
func (c *Client) Click(ctx context.Context, selector string) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	logging.Info(subsystem, "clicking %s", selector)

	return c.withRetry(ctx, "click "+selector, func() error {
		el, err := c.page.Context(ctx).Timeout(c.cfg.ElementTimeout).Element(selector)
		if err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

// Fill replaces the content of the input matching the selector.
func (c *Client) Fill(ctx context.Context, selector, text string) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	logging.Info(subsystem, "filling %s", selector)

	return c.withRetry(ctx, "fill "+selector, func() error {
		el, err := c.page.Context(ctx).Timeout(c.cfg.ElementTimeout).Element(selector)
		if err != nil {
			return err
		}
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(text)
	})
}

// Text returns the text content of the element matching the selector.
func (c *Client) Text(ctx context.Context, selector string) (string, error) {
	if err := c.ensureStarted(); err != nil {
		return "", err
	}
	el, err := c.page.Context(ctx).Timeout(c.cfg.ElementTimeout).Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %s not found: %w", selector, err)
	}
	return el.Text()
}

// WaitVisible blocks until the element matching the selector is visible.
func (c *Client) WaitVisible(ctx context.Context, selector string) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	logging.Info(subsystem, "waiting for %s", selector)

	return c.withRetry(ctx, "wait for "+selector, func() error {
		el, err := c.page.Context(ctx).Timeout(c.cfg.ElementTimeout).Element(selector)
		if err != nil {
			return err
		}
		return el.WaitVisible()
	})
}

// Title returns the current page title.
func (c *Client) Title(ctx context.Context) (string, error) {
	if err := c.ensureStarted(); err != nil {
		return "", err
	}
	info, err := c.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.Title, nil
}

// URL returns the current page URL.
func (c *Client) URL(ctx context.Context) (string, error) {
	if err := c.ensureStarted(); err != nil {
		return "", err
	}
	info, err := c.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("failed to read page info: %w", err)
	}
	return info.URL, nil
}

// Eval runs a JavaScript expression in the page and returns its result.
func (c *Client) Eval(ctx context.Context, script string) (interface{}, error) {
	if err := c.ensureStarted(); err != nil {
		return nil, err
	}
	result, err := c.page.Context(ctx).Eval(script)
	if err != nil {
		return nil, fmt.Errorf("script evaluation failed: %w", err)
	}
	return result.Value.Val(), nil
}

// Screenshot captures a screenshot when the screenshot policy allows it
// for the given outcome, returning the file path or "" when skipped.
func (c *Client) Screenshot(ctx context.Context, name string, failed bool) (string, error) {
	path, ok := screenshotPath(c.cfg.Screenshot, name, failed, time.Now())
	if !ok {
		logging.Debug(subsystem, "screenshot skipped by policy (name: %s, failed: %t)", name, failed)
		return "", nil
	}
	if err := c.ensureStarted(); err != nil {
		return "", err
	}

	var data []byte
	var err error
	if c.cfg.Screenshot.FullPage {
		data, err = c.page.Context(ctx).Screenshot(true, nil)
	} else {
		data, err = c.page.Context(ctx).Screenshot(false, nil)
	}
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save screenshot: %w", err)
	}

	logging.Info(subsystem, "screenshot saved: %s", path)
	return path, nil
}

// screenshotPath applies the screenshot policy and builds the target file
// name. The boolean is false when policy skips the capture.
func screenshotPath(cfg ScreenshotConfig, name string, failed bool, now time.Time) (string, bool) {
	if failed && !cfg.OnFailure {
		return "", false
	}
	if !failed && cfg.FailedOnly {
		return "", false
	}

	suffix := "_SUCCESS"
	if failed {
		suffix = "_FAILED"
	}

	filename := name + suffix
	if cfg.Timestamped {
		filename += "_" + now.Format("20060102_150405")
	}
	return filepath.Join(cfg.Dir, filename+".png"), true
}
