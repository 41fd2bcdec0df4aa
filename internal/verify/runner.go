// Package verify runs the WordSpark login → dashboard → story check and records
// a screenshot at each stage.
package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/wordspark-verify/internal/browser"
	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
)

// Accessible landmarks of the WordSpark UI.
var (
	LoginHeading     = browser.Role("heading", "WordSpark")
	EmailField       = browser.Label("Email")
	PasswordField    = browser.Label("Password")
	SignInButton     = browser.Role("button", "Sign In")
	DashboardHeading = browser.Role("heading", "Vocabulary Lists")
	PlayStoryButton  = browser.Role("button", "Play Story")
	StoryHeading     = browser.RolePrefix("heading", "Story:")
)

// Step names, in execution order.
const (
	StepTarget              = "target"
	StepLaunch              = "launch"
	StepNewPage             = "new-page"
	StepNavigate            = "navigate"
	StepLoginCheck          = "login-check"
	StepLogin               = "login"
	StepLoginScreenshot     = "login-screenshot"
	StepDashboard           = "dashboard"
	StepDashboardScreenshot = "dashboard-screenshot"
	StepPlayStory           = "play-story"
	StepStory               = "story"
	StepStoryScreenshot     = "story-screenshot"
	StepFailureScreenshot   = "failure-screenshot"
	StepClose               = "close"
)

const loginCheckInterval = 100 * time.Millisecond

// Runner executes one verification per Run call.
type Runner struct {
	cfg      *config.Config
	launcher browser.Launcher
	logger   *common.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(cfg *config.Config, launcher browser.Launcher, logger *common.Logger) *Runner {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Runner{cfg: cfg, launcher: launcher, logger: logger}
}

// ScreenshotPath joins a screenshot name onto the configured directory.
// Absolute names are used as-is.
func ScreenshotPath(cfg config.ScreenshotsConfig, name string) string {
	if filepath.IsAbs(name) || cfg.Dir == "" {
		return name
	}
	return filepath.Join(cfg.Dir, name)
}

// Run drives the flow. The browser is closed exactly once on every return path,
// including panics. The returned report is non-nil even on error.
func (r *Runner) Run(ctx context.Context) (report *Report, err error) {
	runID := uuid.NewString()
	logger := r.logger.WithCorrelationId(runID)

	report = &Report{
		RunID:   runID,
		URL:     r.cfg.Target.URL,
		Driver:  r.cfg.Browser.Driver,
		Started: time.Now(),
	}
	defer func() { report.Finished = time.Now() }()

	if timeout := r.cfg.Browser.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info().Str("url", report.URL).Str("driver", report.Driver).Msg("verification started")

	var b browser.Browser
	err = r.step(ctx, report, logger, StepLaunch, KindLaunch, func(ctx context.Context) (string, error) {
		var lerr error
		b, lerr = r.launcher.Launch(ctx)
		return fmt.Sprintf("headless=%v", r.cfg.Browser.Headless), lerr
	})
	if err != nil {
		return report, err
	}

	var page browser.Page
	defer func() {
		if page != nil {
			report.ConsoleErrors = page.ConsoleErrors()
		}
		start := time.Now()
		closeErr := b.Close()
		res := StepResult{Name: StepClose, Pass: closeErr == nil, Detail: "browser closed", Duration: time.Since(start)}
		if closeErr != nil {
			res.Detail = closeErr.Error()
			logger.Warn().Err(closeErr).Msg("browser close failed")
			if err == nil {
				err = &StepError{Step: StepClose, Kind: KindCleanup, Err: closeErr}
			}
		}
		report.add(res)
		logger.Info().Bool("passed", err == nil).Msg("verification finished")
	}()

	err = r.step(ctx, report, logger, StepNewPage, KindLaunch, func(ctx context.Context) (string, error) {
		var perr error
		page, perr = b.NewPage(ctx)
		return "isolated browsing context", perr
	})
	if err != nil {
		return report, err
	}

	err = r.flow(ctx, page, report, logger)
	if err != nil {
		r.captureFailure(ctx, page, report, logger)
	}
	return report, err
}

// flow is the sequence between opening the page and closing the browser.
func (r *Runner) flow(ctx context.Context, page browser.Page, report *Report, logger *common.Logger) error {
	shots := r.cfg.Screenshots
	bc := r.cfg.Browser

	if err := r.step(ctx, report, logger, StepNavigate, KindNavigation, func(ctx context.Context) (string, error) {
		return r.cfg.Target.URL, page.Goto(ctx, r.cfg.Target.URL)
	}); err != nil {
		return err
	}

	var onLogin bool
	if err := r.step(ctx, report, logger, StepLoginCheck, KindElement, func(ctx context.Context) (string, error) {
		var perr error
		onLogin, perr = r.onLoginPage(ctx, page)
		if onLogin {
			return "login page detected", perr
		}
		return "already signed in", perr
	}); err != nil {
		return err
	}

	if onLogin {
		if err := r.step(ctx, report, logger, StepLogin, KindElement, func(ctx context.Context) (string, error) {
			if err := page.Fill(ctx, EmailField, r.cfg.Target.Email); err != nil {
				return "", err
			}
			if err := page.Fill(ctx, PasswordField, r.cfg.Target.Password); err != nil {
				return "", err
			}
			if err := page.Click(ctx, SignInButton); err != nil {
				return "", err
			}
			return "signed in as " + r.cfg.Target.Email, nil
		}); err != nil {
			return err
		}
		report.LoggedIn = true

		if err := r.screenshot(ctx, page, report, logger, StepLoginScreenshot, shots.Login); err != nil {
			return err
		}
	} else {
		report.add(StepResult{Name: StepLogin, Pass: true, Skipped: true, Detail: "login heading not visible"})
		logger.Debug().Msg("login skipped")
	}

	if err := r.step(ctx, report, logger, StepDashboard, KindElement, func(ctx context.Context) (string, error) {
		return DashboardHeading.String(), page.WaitVisible(ctx, DashboardHeading, bc.LandmarkTimeout())
	}); err != nil {
		return err
	}

	if err := r.screenshot(ctx, page, report, logger, StepDashboardScreenshot, shots.Dashboard); err != nil {
		return err
	}

	if err := r.step(ctx, report, logger, StepPlayStory, KindElement, func(ctx context.Context) (string, error) {
		if err := page.WaitVisible(ctx, PlayStoryButton, bc.AssertTimeout()); err != nil {
			return "", err
		}
		return "clicked first " + PlayStoryButton.String(), page.Click(ctx, PlayStoryButton)
	}); err != nil {
		return err
	}

	if err := r.step(ctx, report, logger, StepStory, KindElement, func(ctx context.Context) (string, error) {
		return StoryHeading.String(), page.WaitVisible(ctx, StoryHeading, bc.AssertTimeout())
	}); err != nil {
		return err
	}

	return r.screenshot(ctx, page, report, logger, StepStoryScreenshot, shots.Story)
}

// onLoginPage checks for the login heading. With a zero login wait it checks once;
// otherwise it polls until the login heading or the dashboard heading shows up,
// or the wait runs out.
func (r *Runner) onLoginPage(ctx context.Context, page browser.Page) (bool, error) {
	wait := r.cfg.Browser.LoginWait()
	deadline := time.Now().Add(wait)

	for {
		visible, err := page.IsVisible(ctx, LoginHeading)
		if err != nil {
			return false, err
		}
		if visible {
			return true, nil
		}
		if wait <= 0 || !time.Now().Before(deadline) {
			return false, nil
		}
		if past, err := page.IsVisible(ctx, DashboardHeading); err == nil && past {
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(loginCheckInterval):
		}
	}
}

func (r *Runner) screenshot(ctx context.Context, page browser.Page, report *Report, logger *common.Logger, name, file string) error {
	path := ScreenshotPath(r.cfg.Screenshots, file)
	err := r.step(ctx, report, logger, name, KindScreenshot, func(ctx context.Context) (string, error) {
		return path, page.Screenshot(ctx, path)
	})
	if err == nil {
		report.Screenshots = append(report.Screenshots, path)
	}
	return err
}

// captureFailure saves the page as it was when a step failed, if configured.
func (r *Runner) captureFailure(ctx context.Context, page browser.Page, report *Report, logger *common.Logger) {
	name := r.cfg.Screenshots.Failure
	if name == "" {
		return
	}
	// The run context may be what failed.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	path := ScreenshotPath(r.cfg.Screenshots, name)
	if err := page.Screenshot(ctx, path); err != nil {
		logger.Warn().Err(err).Msg("failure screenshot not captured")
		return
	}
	report.add(StepResult{Name: StepFailureScreenshot, Pass: true, Skipped: true, Detail: path})
	report.Screenshots = append(report.Screenshots, path)
}

func (r *Runner) step(ctx context.Context, report *Report, logger *common.Logger, name string, kind Kind, fn func(context.Context) (string, error)) error {
	start := time.Now()
	detail, err := fn(ctx)
	res := StepResult{Name: name, Pass: err == nil, Detail: detail, Duration: time.Since(start)}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			err = fmt.Errorf("run timeout exceeded: %w", err)
		}
		res.Detail = err.Error()
		report.add(res)
		logger.Error().Str("step", name).Str("kind", string(kind)).Dur("elapsed", res.Duration).Err(err).Msg("step failed")
		return &StepError{Step: name, Kind: kind, Err: err}
	}

	report.add(res)
	logger.Info().Str("step", name).Str("detail", detail).Dur("elapsed", res.Duration).Msg("step passed")
	return nil
}
