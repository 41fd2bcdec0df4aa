package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/bobmcallan/wordspark-verify/internal/common"
)

// PlaywrightLauncher starts Chromium through a playwright driver process.
type PlaywrightLauncher struct {
	opts   Options
	logger *common.Logger
}

// NewPlaywrightLauncher creates a playwright-backed launcher.
func NewPlaywrightLauncher(opts Options, logger *common.Logger) *PlaywrightLauncher {
	return &PlaywrightLauncher{opts: opts, logger: logger}
}

func (l *PlaywrightLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runOpts := &playwright.RunOptions{Browsers: []string{"chromium"}}
	if l.opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
	}
	if l.opts.ExecPath != "" {
		launchOpts.ExecutablePath = playwright.String(l.opts.ExecPath)
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	l.logger.Debug().Bool("headless", l.opts.Headless).Str("version", b.Version()).Msg("chromium started")

	return &playwrightBrowser{pw: pw, browser: b, opts: l.opts, logger: l.logger}, nil
}

type playwrightBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	opts    Options
	logger  *common.Logger

	mu     sync.Mutex
	pages  []*playwrightPage
	closed bool
}

func (b *playwrightBrowser) NewPage(ctx context.Context) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		ctxOpts.Viewport = &playwright.Size{Width: b.opts.ViewportWidth, Height: b.opts.ViewportHeight}
	}
	bctx, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	bctx.SetDefaultTimeout(float64(b.opts.DefaultTimeout.Milliseconds()))

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	p := &playwrightPage{page: page, bctx: bctx}
	page.OnConsole(func(msg playwright.ConsoleMessage) {
		if msg.Type() == "error" {
			p.console.add(fmt.Sprintf("console.error: %s", msg.Text()))
		}
	})
	page.OnPageError(func(err error) {
		p.console.add(fmt.Sprintf("EXCEPTION: %s", err.Error()))
	})

	b.pages = append(b.pages, p)
	return p, nil
}

// Close closes the browser and stops the driver process.
func (b *playwrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	for _, p := range b.pages {
		if errs := p.console.Errors(); len(errs) > 0 {
			b.logger.Warn().Int("count", len(errs)).Str("first", errs[0]).Msg("page reported javascript errors")
		}
	}

	var errs []error
	for _, p := range b.pages {
		if err := p.bctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser context: %w", err))
		}
	}
	if err := b.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chromium: %w", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop playwright: %w", err))
	}
	return errors.Join(errs...)
}

type playwrightPage struct {
	page    playwright.Page
	bctx    playwright.BrowserContext
	console consoleCollector
}

func (p *playwrightPage) locator(t Target) playwright.Locator {
	if t.Label != "" {
		return p.page.GetByLabel(t.Label).First()
	}
	opts := playwright.PageGetByRoleOptions{Name: t.Name}
	if t.Prefix {
		opts = playwright.PageGetByRoleOptions{Name: regexp.MustCompile("^" + regexp.QuoteMeta(t.Name))}
	}
	return p.page.GetByRole(playwright.AriaRole(t.Role), opts).First()
}

// translate maps playwright errors onto package sentinels.
func translate(err error, t Target) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, t, err)
	}
	return fmt.Errorf("%s: %w", t, err)
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.page.Goto(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) IsVisible(ctx context.Context, t Target) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	visible, err := p.locator(t).IsVisible()
	if err != nil {
		return false, fmt.Errorf("check %w", translate(err, t))
	}
	return visible, nil
}

func (p *playwrightPage) WaitVisible(ctx context.Context, t Target, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	// Playwright treats a zero timeout as no timeout.
	ms := timeout.Milliseconds()
	if ms <= 0 {
		return fmt.Errorf("%w: %s", ErrTimeout, t)
	}
	err := p.locator(t).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(ms)),
	})
	if err != nil {
		return translate(err, t)
	}
	return nil
}

func (p *playwrightPage) Fill(ctx context.Context, t Target, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.locator(t).Fill(value); err != nil {
		return fmt.Errorf("fill %w", translate(err, t))
	}
	return nil
}

func (p *playwrightPage) Click(ctx context.Context, t Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.locator(t).Click(); err != nil {
		return fmt.Errorf("click %w", translate(err, t))
	}
	return nil
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := p.page.Screenshot()
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return writeScreenshot(path, buf)
}

func (p *playwrightPage) ConsoleErrors() []string {
	return p.console.Errors()
}
