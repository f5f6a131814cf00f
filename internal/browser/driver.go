// Package browser attaches to the inspected page through the DevTools
// protocol via rod: it loads the page, evaluates the capture script,
// executes tool-provided scripts, takes screenshots, and feeds console
// and network activity into the event log.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/standardbeagle/pagelens/internal/config"
	"github.com/standardbeagle/pagelens/internal/debug"
)

// Driver owns the browser connection and the single inspected page.
type Driver struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher
}

// Connect attaches to the configured browser (or launches one) and opens
// the page under inspection.
func Connect(ctx context.Context, cfg *config.BrowserConfig) (*Driver, error) {
	d := &Driver{}

	wsURL := cfg.ControlURL
	if wsURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		wsURL = u
		d.lnch = l
		debug.Info("browser", "launched local chrome at %s", wsURL)
	} else {
		debug.Info("browser", "connecting to %s", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	d.browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	d.page = page

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := page.Context(navCtx).Navigate(cfg.PageURL); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", cfg.PageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		debug.Warn("browser", "wait load timed out for %s: %v", cfg.PageURL, err)
	}
	return d, nil
}

// Page exposes the underlying rod page.
func (d *Driver) Page() *rod.Page {
	return d.page
}

// InjectScript evaluates js on the current page and re-evaluates it on
// every future navigation.
func (d *Driver) InjectScript(ctx context.Context, js string) error {
	if _, err := (proto.PageAddScriptToEvaluateOnNewDocument{Source: js}).Call(d.page); err != nil {
		return fmt.Errorf("failed to register page script: %w", err)
	}
	if _, err := d.page.Context(ctx).Eval("() => {\n" + js + "\n}"); err != nil {
		return fmt.Errorf("failed to evaluate page script: %w", err)
	}
	return nil
}

// Close tears down the page, the browser connection, and any locally
// launched chrome.
func (d *Driver) Close() {
	if d.page != nil {
		d.page.Close()
	}
	if d.browser != nil {
		d.browser.Close()
	}
	if d.lnch != nil {
		d.lnch.Kill()
		d.lnch.Cleanup()
	}
}
