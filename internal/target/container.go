// Package target starts the WordSpark application under test in a container.
package target

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
)

// Container is a running WordSpark instance.
type Container struct {
	container testcontainers.Container
	logger    *common.Logger
	url       string
}

// URL returns the base URL of the running app, with a trailing slash.
func (c *Container) URL() string {
	return c.url
}

// Start runs cfg.Image, building it first when cfg.BuildContext is set, and
// waits until cfg.HealthPath answers on cfg.Port.
func Start(ctx context.Context, cfg config.ContainerConfig, logger *common.Logger) (*Container, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("no container image configured")
	}

	port := nat.Port(cfg.Port)
	if port == "" {
		port = "8080/tcp"
	}
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/"
	}
	startup := time.Duration(cfg.StartupSecs) * time.Second
	if startup <= 0 {
		startup = 60 * time.Second
	}

	if cfg.BuildContext != "" {
		if err := buildImage(ctx, cfg); err != nil {
			return nil, fmt.Errorf("build image %s: %w", cfg.Image, err)
		}
		logger.Info().Str("image", cfg.Image).Str("context", cfg.BuildContext).Msg("target image built")
	}

	logger.Info().Str("image", cfg.Image).Str("port", string(port)).Msg("starting target container")

	opts := []testcontainers.ContainerCustomizer{
		testcontainers.WithExposedPorts(string(port)),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP(healthPath).WithPort(port).WithStartupTimeout(startup),
		),
	}
	if len(cfg.Env) > 0 {
		opts = append(opts, testcontainers.WithEnv(cfg.Env))
	}

	ctr, err := testcontainers.Run(ctx, cfg.Image, opts...)
	if err != nil {
		terminate(ctr)
		return nil, fmt.Errorf("start %s: %w", cfg.Image, err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		terminate(ctr)
		return nil, fmt.Errorf("get container host: %w", err)
	}
	mapped, err := ctr.MappedPort(ctx, port)
	if err != nil {
		terminate(ctr)
		return nil, fmt.Errorf("get mapped port %s: %w", port, err)
	}

	c := &Container{
		container: ctr,
		logger:    logger,
		url:       fmt.Sprintf("http://%s:%s/", host, mapped.Port()),
	}
	logger.Info().Str("url", c.url).Msg("target container ready")
	return c, nil
}

func buildImage(ctx context.Context, cfg config.ContainerConfig) error {
	repo, tag, _ := strings.Cut(cfg.Image, ":")
	dockerfile := cfg.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			FromDockerfile: testcontainers.FromDockerfile{
				Context:    cfg.BuildContext,
				Dockerfile: dockerfile,
				Repo:       repo,
				Tag:        tag,
				KeepImage:  true,
			},
		},
	}

	ctr, err := testcontainers.GenericContainer(ctx, req)
	terminate(ctr)
	if err != nil && !strings.Contains(err.Error(), cfg.Image) {
		// The image exists once the error names it; only container creation failed.
		return err
	}
	return nil
}

// CollectLogs saves the container's stdout/stderr to dir/wordspark.log.
func (c *Container) CollectLogs(dir string) error {
	if c == nil || c.container == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reader, err := c.container.Logs(ctx)
	if err != nil {
		return fmt.Errorf("read container logs: %w", err)
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read container logs: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, "wordspark.log")
	if err := os.WriteFile(path, logs, 0644); err != nil {
		return err
	}
	c.logger.Info().Str("path", path).Msg("container logs saved")
	return nil
}

// Cleanup terminates the container. It uses a fresh context in case the
// run context has already expired.
func (c *Container) Cleanup() {
	if c == nil || c.container == nil {
		return
	}
	terminate(c.container)
	c.container = nil
	c.logger.Debug().Msg("target container terminated")
}

// terminate stops ctr, tolerating a nil container.
func terminate(ctr testcontainers.Container) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = testcontainers.TerminateContainer(ctr, testcontainers.StopContext(ctx))
}
