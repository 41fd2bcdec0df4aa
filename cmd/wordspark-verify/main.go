package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
	"github.com/bobmcallan/wordspark-verify/internal/mcp"
	"github.com/bobmcallan/wordspark-verify/internal/server"
	"github.com/bobmcallan/wordspark-verify/internal/verify"
	"github.com/bobmcallan/wordspark-verify/internal/wordspark"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// configPaths is a custom flag type that allows multiple -config flags.
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles   configPaths
	targetURL     = flag.String("url", "", "Target URL (overrides config)")
	driver        = flag.String("driver", "", "Browser driver: chromedp or playwright (overrides config)")
	screenshotDir = flag.String("out", "", "Screenshot directory (overrides config)")
	showVersion   = flag.Bool("version", false, "Print version information")
	serveMCP      = flag.Bool("mcp", false, "Serve the verify_flow MCP tool over stdio instead of running once")
	serveMCPHTTP  = flag.String("mcp-http", "", "Serve the MCP tools over streamable HTTP on this host or host:port (port defaults to mcp.port)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion {
		fmt.Printf("wordspark-verify version %s\n", config.GetFullVersion())
		return exitOK
	}

	// Binary-relative paths are tried first so the config is found even when
	// the working directory differs from the binary location.
	if len(configFiles) == 0 {
		for _, path := range configSearchPaths() {
			if _, err := os.Stat(path); err == nil {
				configFiles = append(configFiles, path)
				break
			}
		}
	}

	cfg, err := config.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return exitUsage
	}

	config.ApplyFlagOverrides(cfg, *targetURL, *driver, *screenshotDir)

	if issues := cfg.Validate(); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Configuration error:")
		fmt.Fprintln(os.Stderr, "")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  - %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Values can be set via TOML file, WORDSPARK_* environment variables, or CLI flags.")
		fmt.Fprintln(os.Stderr, "")
		return exitUsage
	}

	logger := common.NewLogger(cfg.Logging.Level)

	logger.Info().
		Str("url", cfg.Target.URL).
		Str("driver", cfg.Browser.Driver).
		Str("screenshots", cfg.Screenshots.Dir).
		Str("config_files", fmt.Sprintf("%v", configFiles)).
		Msg("configuration loaded")

	switch {
	case *serveMCP:
		return runMCPStdio(cfg, logger)
	case *serveMCPHTTP != "":
		return runMCPHTTP(cfg, logger, *serveMCPHTTP)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info().Msg("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := verify.Execute(ctx, cfg, logger)
	if report != nil {
		fmt.Print(report.Text())
	}
	if err != nil {
		logger.Error().Str("step", verify.FailedStep(err)).Err(err).Msg("verification failed")
		if errors.Is(err, config.ErrUnknownDriver) {
			return exitUsage
		}
		return exitFailed
	}

	logger.Info().Int("screenshots", len(report.Screenshots)).Msg("verification passed")
	return exitOK
}

func runMCPStdio(cfg *config.Config, logger *common.Logger) int {
	s := mcp.NewServer(cfg, logger, nil)
	if err := s.ServeStdio(); err != nil {
		logger.Error().Err(err).Msg("MCP stdio server failed")
		return exitFailed
	}
	return exitOK
}

func runMCPHTTP(cfg *config.Config, logger *common.Logger, addr string) int {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(cfg.MCP.Port))
	}
	s := mcp.NewServer(cfg, logger, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", s.HTTPHandler())
	mux.Handle("/api/health", wordspark.NewHealthHandler(logger))

	srv := server.New(addr, mux, logger)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info().Msg("shutdown signal received")
	case err := <-errChan:
		logger.Error().Err(err).Msg("MCP HTTP server failed")
		return exitFailed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("MCP HTTP shutdown failed")
		return exitFailed
	}
	return exitOK
}

// configSearchPaths returns TOML files to auto-discover (first match wins).
// Paths are deduplicated via filepath.Abs.
func configSearchPaths() []string {
	candidates := []string{
		"wordspark-verify.toml",
		"config/wordspark-verify.toml",
	}

	exe, err := os.Executable()
	if err != nil {
		return candidates
	}
	binDir := filepath.Dir(exe)

	paths := []string{
		filepath.Join(binDir, "wordspark-verify.toml"),
		filepath.Join(binDir, "config", "wordspark-verify.toml"),
	}
	paths = append(paths, candidates...)

	seen := make(map[string]bool, len(paths))
	deduped := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		deduped = append(deduped, p)
	}
	return deduped
}
