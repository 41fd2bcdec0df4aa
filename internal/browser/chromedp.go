package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"github.com/bobmcallan/wordspark-verify/internal/common"
)

// pollInterval is the gap between visibility checks while waiting.
const pollInterval = 100 * time.Millisecond

// ChromedpLauncher starts Chrome through the chromedp exec allocator.
type ChromedpLauncher struct {
	opts   Options
	logger *common.Logger
}

// NewChromedpLauncher creates a chromedp-backed launcher.
func NewChromedpLauncher(opts Options, logger *common.Logger) *ChromedpLauncher {
	return &ChromedpLauncher{opts: opts, logger: logger}
}

// Launch starts the browser process. The process outlives ctx; release it with Close.
func (l *ChromedpLauncher) Launch(ctx context.Context) (Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	if l.opts.ViewportWidth > 0 && l.opts.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(l.opts.ViewportWidth, l.opts.ViewportHeight))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run on browserCtx starts the process and ties its lifetime to
	// browserCtx, so it must not run on a derived context.
	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	l.logger.Debug().Bool("headless", l.opts.Headless).Msg("chrome started")

	return &chromedpBrowser{
		opts:          l.opts,
		logger:        l.logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

type chromedpBrowser struct {
	opts          Options
	logger        *common.Logger
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	mu     sync.Mutex
	pages  []*chromedpPage
	closed bool
}

// NewPage opens a tab in a fresh browser context.
func (b *chromedpBrowser) NewPage(ctx context.Context) (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser is closed")
	}

	pageCtx, cancel := chromedp.NewContext(b.browserCtx, chromedp.WithNewBrowserContext())
	p := &chromedpPage{ctx: pageCtx, cancel: cancel, opts: b.opts}
	p.console.listenChromedp(pageCtx)

	// As with the browser, the first Run creates the tab bound to pageCtx.
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(pageCtx)
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if b.opts.ViewportWidth > 0 && b.opts.ViewportHeight > 0 {
		if err := p.run(ctx, chromedp.EmulateViewport(int64(b.opts.ViewportWidth), int64(b.opts.ViewportHeight))); err != nil {
			cancel()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	b.pages = append(b.pages, p)
	return p, nil
}

// Close closes every page, then the browser process.
func (b *chromedpBrowser) Close() error {
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
		p.cancel()
	}

	err := chromedp.Cancel(b.browserCtx)
	b.browserCancel()
	b.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close chrome: %w", err)
	}
	return nil
}

type chromedpPage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	console consoleCollector
}

// run executes actions on the page target, aborting when ctx is done.
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *chromedpPage) Goto(ctx context.Context, url string) error {
	err := p.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) IsVisible(ctx context.Context, t Target) (bool, error) {
	var visible bool
	if err := p.run(ctx, chromedp.CallFunctionOn(resolverJS, &visible, nil, t.query(opFirstVisible))); err != nil {
		return false, fmt.Errorf("check %s: %w", t, err)
	}
	return visible, nil
}

// WaitVisible polls in the page. Evaluation errors while a navigation swaps the
// document are retried until the deadline.
func (p *chromedpPage) WaitVisible(ctx context.Context, t Target, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if lastErr != nil {
				return fmt.Errorf("%w: %s after %s (last error: %v)", ErrTimeout, t, timeout, lastErr)
			}
			return fmt.Errorf("%w: %s after %s", ErrTimeout, t, timeout)
		}

		var ok bool
		err := p.run(ctx, chromedp.PollFunction(resolverJS, &ok,
			chromedp.WithPollingArgs(t.query(opFirstVisible)),
			chromedp.WithPollingInterval(pollInterval),
			chromedp.WithPollingTimeout(remaining),
		))
		switch {
		case err == nil && ok:
			return nil
		case errors.Is(err, chromedp.ErrPollingTimeout):
			return fmt.Errorf("%w: %s after %s", ErrTimeout, t, timeout)
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// mark tags the first match for t and returns a CSS selector for it.
func (p *chromedpPage) mark(ctx context.Context, t Target) (string, error) {
	q := t.query("mark")
	q.Ref = uuid.NewString()

	var ref string
	if err := p.run(ctx, chromedp.CallFunctionOn(resolverJS, &ref, nil, q)); err != nil {
		return "", fmt.Errorf("resolve %s: %w", t, err)
	}
	if ref == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, t)
	}
	return fmt.Sprintf(`[%s=%q]`, refAttr, ref), nil
}

func (p *chromedpPage) Fill(ctx context.Context, t Target, value string) error {
	if err := p.WaitVisible(ctx, t, p.opts.DefaultTimeout); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	sel, err := p.mark(ctx, t)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if err := p.run(ctx,
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, value, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("fill %s: %w", t, err)
	}
	return nil
}

func (p *chromedpPage) Click(ctx context.Context, t Target) error {
	if err := p.WaitVisible(ctx, t, p.opts.DefaultTimeout); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	sel, err := p.mark(ctx, t)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	if err := p.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", t, err)
	}
	return nil
}

func (p *chromedpPage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	return writeScreenshot(path, buf)
}

func (p *chromedpPage) ConsoleErrors() []string {
	return p.console.Errors()
}
