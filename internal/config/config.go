package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/wordspark-verify/internal/common"
)

// ErrUnknownDriver is returned when browser.driver names no known backend.
var ErrUnknownDriver = errors.New("unknown browser driver")

// Supported browser drivers.
const (
	DriverChromedp   = "chromedp"
	DriverPlaywright = "playwright"
)

// Config represents the verifier configuration.
type Config struct {
	Target      TargetConfig         `toml:"target"`
	Browser     BrowserConfig        `toml:"browser"`
	Screenshots ScreenshotsConfig    `toml:"screenshots"`
	Logging     common.LoggingConfig `toml:"logging"`
	MCP         MCPConfig            `toml:"mcp"`
}

// TargetConfig describes the WordSpark instance under test.
type TargetConfig struct {
	URL       string          `toml:"url"`
	Email     string          `toml:"email"`
	Password  string          `toml:"password"`
	Container ContainerConfig `toml:"container"`
}

// ContainerConfig starts the target from an image instead of using URL.
// When BuildContext is set the image is built from Dockerfile first and tagged Image.
type ContainerConfig struct {
	Image        string            `toml:"image"`
	BuildContext string            `toml:"build_context"`
	Dockerfile   string            `toml:"dockerfile"`
	Port         string            `toml:"port"`
	HealthPath   string            `toml:"health_path"`
	Env          map[string]string `toml:"env"`
	StartupSecs  int               `toml:"startup_timeout_seconds"`
}

// Enabled reports whether an image is configured.
func (c ContainerConfig) Enabled() bool {
	return strings.TrimSpace(c.Image) != ""
}

// BrowserConfig contains browser driver settings. Timeouts are in milliseconds.
type BrowserConfig struct {
	Driver            string `toml:"driver"`
	Headless          bool   `toml:"headless"`
	Install           bool   `toml:"install"`
	ExecPath          string `toml:"exec_path"`
	Viewport          string `toml:"viewport"`
	LandmarkTimeoutMs int    `toml:"landmark_timeout_ms"`
	AssertTimeoutMs   int    `toml:"assert_timeout_ms"`
	LoginWaitMs      int    `toml:"login_wait_ms"`
	RunTimeoutMs      int    `toml:"run_timeout_ms"`
}

// LandmarkTimeout bounds the wait for the dashboard heading.
func (b BrowserConfig) LandmarkTimeout() time.Duration {
	return time.Duration(b.LandmarkTimeoutMs) * time.Millisecond
}

// AssertTimeout is the implicit timeout of visibility assertions.
func (b BrowserConfig) AssertTimeout() time.Duration {
	return time.Duration(b.AssertTimeoutMs) * time.Millisecond
}

// LoginWait bounds the wait for the login heading. Zero means a single non-waiting check.
func (b BrowserConfig) LoginWait() time.Duration {
	return time.Duration(b.LoginWaitMs) * time.Millisecond
}

// RunTimeout bounds a whole run.
func (b BrowserConfig) RunTimeout() time.Duration {
	return time.Duration(b.RunTimeoutMs) * time.Millisecond
}

// ViewportSize parses Viewport ("WxH"). ok is false when unset or malformed.
func (b BrowserConfig) ViewportSize() (width, height int, ok bool) {
	parts := strings.SplitN(b.Viewport, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// ScreenshotsConfig names the three screenshot artifacts. Failure, when set,
// names an extra capture taken only when a step fails.
type ScreenshotsConfig struct {
	Dir       string `toml:"dir"`
	Login     string `toml:"login"`
	Dashboard string `toml:"dashboard"`
	Story     string `toml:"story"`
	Failure   string `toml:"failure"`
}

// MCPConfig contains MCP tool server settings.
type MCPConfig struct {
	Name string `toml:"name"`
	Port int    `toml:"port"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies WORDSPARK_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if url := os.Getenv("WORDSPARK_URL"); url != "" {
		config.Target.URL = url
	}
	if email := os.Getenv("WORDSPARK_EMAIL"); email != "" {
		config.Target.Email = email
	}
	if password := os.Getenv("WORDSPARK_PASSWORD"); password != "" {
		config.Target.Password = password
	}
	if image := os.Getenv("WORDSPARK_IMAGE"); image != "" {
		config.Target.Container.Image = image
	}
	if driver := os.Getenv("WORDSPARK_DRIVER"); driver != "" {
		config.Browser.Driver = driver
	}
	if headless := os.Getenv("WORDSPARK_HEADLESS"); headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
	if execPath := os.Getenv("WORDSPARK_CHROME_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if dir := os.Getenv("WORDSPARK_SCREENSHOT_DIR"); dir != "" {
		config.Screenshots.Dir = dir
	}
	if level := os.Getenv("WORDSPARK_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, url, driver, screenshotDir string) {
	if url != "" {
		config.Target.URL = url
	}
	if driver != "" {
		config.Browser.Driver = driver
	}
	if screenshotDir != "" {
		config.Screenshots.Dir = screenshotDir
	}
}

// Validate returns a list of problems; an empty list means the config is usable.
func (c *Config) Validate() []string {
	var issues []string

	if strings.TrimSpace(c.Target.URL) == "" && !c.Target.Container.Enabled() {
		issues = append(issues, "target.url is required (or set target.container.image)")
	}
	switch c.Browser.Driver {
	case DriverChromedp, DriverPlaywright:
	default:
		issues = append(issues, fmt.Sprintf("browser.driver %q: %v (use %s or %s)",
			c.Browser.Driver, ErrUnknownDriver, DriverChromedp, DriverPlaywright))
	}
	if c.Browser.LandmarkTimeoutMs <= 0 {
		issues = append(issues, "browser.landmark_timeout_ms must be positive")
	}
	if c.Browser.AssertTimeoutMs <= 0 {
		issues = append(issues, "browser.assert_timeout_ms must be positive")
	}
	if c.Browser.LoginWaitMs < 0 {
		issues = append(issues, "browser.login_wait_ms must not be negative")
	}
	if c.Browser.Viewport != "" {
		if _, _, ok := c.Browser.ViewportSize(); !ok {
			issues = append(issues, fmt.Sprintf("browser.viewport %q must look like 1280x800", c.Browser.Viewport))
		}
	}
	if c.Target.Container.Enabled() {
		if c.Target.Container.Port == "" {
			issues = append(issues, "target.container.port is required when target.container.image is set")
		}
		if c.Target.Container.BuildContext != "" && !strings.Contains(c.Target.Container.Image, ":") {
			issues = append(issues, "target.container.image must be repo:tag when build_context is set")
		}
	}
	if c.Screenshots.Login == "" || c.Screenshots.Dashboard == "" || c.Screenshots.Story == "" {
		issues = append(issues, "screenshots.login, screenshots.dashboard and screenshots.story must be set")
	}

	return issues
}
