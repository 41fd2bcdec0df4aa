// Package browser drives a headless browser through accessible roles, names and labels.
//
// Two backends implement the same Launcher/Browser/Page contract: chromedp (default)
// and playwright-go. Pages never share state; each Page lives in its own browser context.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
)

var (
	// ErrTimeout is returned when a wait deadline passes before the target is visible.
	ErrTimeout = errors.New("timed out waiting for element")
	// ErrNotFound is returned when an action's target matches no element.
	ErrNotFound = errors.New("element not found")
)

// Launcher starts a browser process.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser owns a browser process. Close is safe to call more than once.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single document in an isolated browsing context.
type Page interface {
	Goto(ctx context.Context, url string) error
	// IsVisible reports whether the first match of the target is visible right
	// now. It never waits.
	IsVisible(ctx context.Context, t Target) (bool, error)
	// WaitVisible blocks until the first match is visible or timeout elapses (ErrTimeout).
	WaitVisible(ctx context.Context, t Target, timeout time.Duration) error
	Fill(ctx context.Context, t Target, value string) error
	// Click clicks the first match in document order.
	Click(ctx context.Context, t Target) error
	Screenshot(ctx context.Context, path string) error
	ConsoleErrors() []string
}

// Options configure a Launcher.
type Options struct {
	Headless       bool
	Install        bool
	ExecPath       string
	ViewportWidth  int
	ViewportHeight int
	// DefaultTimeout bounds Fill and Click auto-waits.
	DefaultTimeout time.Duration
}

// OptionsFromConfig maps the [browser] config section to launcher options.
func OptionsFromConfig(cfg config.BrowserConfig) Options {
	opts := Options{
		Headless:       cfg.Headless,
		Install:        cfg.Install,
		ExecPath:       cfg.ExecPath,
		DefaultTimeout: cfg.AssertTimeout(),
	}
	if w, h, ok := cfg.ViewportSize(); ok {
		opts.ViewportWidth, opts.ViewportHeight = w, h
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 5 * time.Second
	}
	return opts
}

// NewLauncher returns the backend named by cfg.Driver.
func NewLauncher(cfg config.BrowserConfig, logger *common.Logger) (Launcher, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	opts := OptionsFromConfig(cfg)

	switch cfg.Driver {
	case config.DriverChromedp, "":
		return NewChromedpLauncher(opts, logger), nil
	case config.DriverPlaywright:
		return NewPlaywrightLauncher(opts, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

// writeScreenshot replaces path with buf, creating parent directories.
func writeScreenshot(path string, buf []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("write screenshot %s: %w", path, err)
	}
	return nil
}
