package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
	"github.com/bobmcallan/wordspark-verify/internal/server"
	"github.com/bobmcallan/wordspark-verify/internal/wordspark"
)

var (
	port          = flag.Int("port", 8080, "Port to listen on")
	host          = flag.String("host", "localhost", "Host to bind")
	noLogin       = flag.Bool("no-login", false, "Serve the dashboard without a login")
	hideDashboard = flag.Bool("hide-dashboard", false, "Never render the \"Vocabulary Lists\" heading")
	loginDelay    = flag.Duration("login-delay", 0, "Reveal the login heading after this delay")
	logLevel      = flag.String("log-level", "info", "Log level")
	showVersion   = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("wordspark-stub version %s\n", config.GetVersion())
		os.Exit(0)
	}

	logger := common.NewLogger(*logLevel)

	app := wordspark.New(wordspark.Options{
		RequireLogin:  !*noLogin,
		HideDashboard: *hideDashboard,
		LoginDelay:    *loginDelay,
		Email:         os.Getenv("WORDSPARK_EMAIL"),
		Password:      os.Getenv("WORDSPARK_PASSWORD"),
	}, logger)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	srv := server.New(addr, app, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Str("error", err.Error()).Msg("server failed to start")
			os.Exit(1)
		}
	}()

	logger.Info().
		Str("url", "http://"+addr+"/").
		Bool("require_login", !*noLogin).
		Bool("hide_dashboard", *hideDashboard).
		Msg("wordspark stub ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server shutdown failed")
	}
}
