package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bobmcallan/wordspark-verify/internal/browser"
)

// fakeLauncher hands out a single fakeBrowser.
type fakeLauncher struct {
	browser  *fakeBrowser
	err      error
	launches int
}

func (l *fakeLauncher) Launch(ctx context.Context) (browser.Browser, error) {
	l.launches++
	if l.err != nil {
		return nil, l.err
	}
	return l.browser, nil
}

type fakeBrowser struct {
	page       *fakePage
	newPageErr error
	closeErr   error
	closes     int
}

func (b *fakeBrowser) NewPage(ctx context.Context) (browser.Page, error) {
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closes++
	return b.closeErr
}

// fakePage simulates the WordSpark page. Targets in visible are shown from the
// start; targets in appearAfter become visible after that many IsVisible calls.
// errs keys are an operation name ("goto", "fill", "click", "wait", "screenshot",
// "isvisible") optionally followed by a space and the target or path.
// Screenshots embed tag so successive runs write distinct bytes.
type fakePage struct {
	mu          sync.Mutex
	visible     map[browser.Target]bool
	appearAfter map[browser.Target]int
	checks      map[browser.Target]int
	errs        map[string]error
	panicOn     string
	tag         string

	fills  map[string]string
	clicks []browser.Target
	shots  []string
	gotos  []string
}

func newFakePage(visible ...browser.Target) *fakePage {
	p := &fakePage{
		visible:     make(map[browser.Target]bool),
		appearAfter: make(map[browser.Target]int),
		checks:      make(map[browser.Target]int),
		errs:        make(map[string]error),
		fills:       make(map[string]string),
	}
	for _, t := range visible {
		p.visible[t] = true
	}
	return p
}

// loggedOut is a page showing the login form that turns into the dashboard on sign in.
func loggedOut() *fakePage {
	return newFakePage(LoginHeading, EmailField, PasswordField, SignInButton)
}

// loggedIn is a page already showing the dashboard.
func loggedIn() *fakePage {
	return newFakePage(DashboardHeading, PlayStoryButton)
}

func (p *fakePage) fail(op, arg string) error {
	if p.panicOn == op {
		panic("fake page: " + op)
	}
	if err := p.errs[op+" "+arg]; err != nil {
		return err
	}
	return p.errs[op]
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotos = append(p.gotos, url)
	return p.fail("goto", url)
}

func (p *fakePage) IsVisible(ctx context.Context, t browser.Target) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("isvisible", t.String()); err != nil {
		return false, err
	}
	p.checks[t]++
	if n, ok := p.appearAfter[t]; ok && p.checks[t] >= n {
		p.visible[t] = true
	}
	return p.visible[t], nil
}

func (p *fakePage) WaitVisible(ctx context.Context, t browser.Target, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("wait", t.String()); err != nil {
		return err
	}
	if !p.visible[t] {
		return fmt.Errorf("%w: %s after %s", browser.ErrTimeout, t, timeout)
	}
	return nil
}

func (p *fakePage) Fill(ctx context.Context, t browser.Target, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("fill", t.String()); err != nil {
		return err
	}
	p.fills[t.Label] = value
	return nil
}

func (p *fakePage) Click(ctx context.Context, t browser.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("click", t.String()); err != nil {
		return err
	}
	if !p.visible[t] {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, t)
	}
	p.clicks = append(p.clicks, t)
	switch t {
	case SignInButton:
		p.visible[LoginHeading] = false
		p.visible[DashboardHeading] = true
		p.visible[PlayStoryButton] = true
	case PlayStoryButton:
		p.visible[StoryHeading] = true
	}
	return nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("screenshot", path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	p.shots = append(p.shots, path)
	return os.WriteFile(path, []byte("png:"+filepath.Base(path)+":"+p.tag), 0644)
}

func (p *fakePage) ConsoleErrors() []string {
	return nil
}
