package verify

import (
	"context"

	"github.com/bobmcallan/wordspark-verify/internal/browser"
	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
	"github.com/bobmcallan/wordspark-verify/internal/target"
)

// Execute performs one run with the configured driver. When a target container
// is configured it is started first, used in place of target.url and terminated
// afterwards. If the run fails, the container's logs and, when logging.run_log is
// set, the run's own log lines are saved next to the screenshots.
func Execute(ctx context.Context, cfg *config.Config, logger *common.Logger) (report *Report, err error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	defer func() {
		if err != nil && cfg.Logging.RunLog != "" && report != nil && report.RunID != "" {
			if lerr := logger.SaveRun(report.RunID, ScreenshotPath(cfg.Screenshots, cfg.Logging.RunLog)); lerr != nil {
				logger.Warn().Err(lerr).Msg("run log not saved")
			}
		}
	}()

	if cfg.Target.Container.Enabled() {
		ctr, cerr := target.Start(ctx, cfg.Target.Container, logger)
		if cerr != nil {
			report = &Report{URL: cfg.Target.Container.Image, Driver: cfg.Browser.Driver}
			report.add(StepResult{Name: StepTarget, Detail: cerr.Error()})
			return report, &StepError{Step: StepTarget, Kind: KindLaunch, Err: cerr}
		}
		defer ctr.Cleanup()
		defer func() {
			if err != nil {
				if lerr := ctr.CollectLogs(cfg.Screenshots.Dir); lerr != nil {
					logger.Warn().Err(lerr).Msg("container logs not saved")
				}
			}
		}()

		local := *cfg
		local.Target.URL = ctr.URL()
		cfg = &local
	}

	launcher, err := browser.NewLauncher(cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	return NewRunner(cfg, launcher, logger).Run(ctx)
}
