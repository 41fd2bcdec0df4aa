package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Target.URL != "http://localhost:8080/" {
		t.Errorf("expected default url http://localhost:8080/, got %s", cfg.Target.URL)
	}
	if cfg.Target.Email != "test@example.com" {
		t.Errorf("expected default email test@example.com, got %s", cfg.Target.Email)
	}
	if cfg.Target.Password != "password" {
		t.Errorf("expected default password, got %s", cfg.Target.Password)
	}
	if cfg.Browser.Driver != DriverChromedp {
		t.Errorf("expected default driver chromedp, got %s", cfg.Browser.Driver)
	}
	if !cfg.Browser.Headless {
		t.Error("expected headless by default")
	}
	if cfg.Browser.LandmarkTimeout() != 10*time.Second {
		t.Errorf("expected landmark timeout 10s, got %s", cfg.Browser.LandmarkTimeout())
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
	if cfg.Screenshots.Dir != "jules-scratch/verification" {
		t.Errorf("expected screenshot dir jules-scratch/verification, got %s", cfg.Screenshots.Dir)
	}
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("default config should validate, got %v", issues)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Target.URL != "http://localhost:8080/" {
		t.Errorf("expected default url, got %s", cfg.Target.URL)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[target]
url = "http://wordspark.test:9090/"
email = "qa@example.com"

[browser]
driver = "playwright"
landmark_timeout_ms = 15000
viewport = "1280x800"

[screenshots]
dir = "/tmp/shots"

[logging]
level = "debug"
run_log = "verify.log"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Target.URL != "http://wordspark.test:9090/" {
		t.Errorf("expected url from file, got %s", cfg.Target.URL)
	}
	if cfg.Target.Email != "qa@example.com" {
		t.Errorf("expected email qa@example.com, got %s", cfg.Target.Email)
	}
	// Password keeps its default
	if cfg.Target.Password != "password" {
		t.Errorf("expected default password, got %s", cfg.Target.Password)
	}
	if cfg.Browser.Driver != DriverPlaywright {
		t.Errorf("expected driver playwright, got %s", cfg.Browser.Driver)
	}
	if cfg.Browser.LandmarkTimeout() != 15*time.Second {
		t.Errorf("expected landmark timeout 15s, got %s", cfg.Browser.LandmarkTimeout())
	}
	w, h, ok := cfg.Browser.ViewportSize()
	if !ok || w != 1280 || h != 800 {
		t.Errorf("expected viewport 1280x800, got %dx%d ok=%v", w, h, ok)
	}
	if cfg.Screenshots.Dir != "/tmp/shots" {
		t.Errorf("expected screenshot dir /tmp/shots, got %s", cfg.Screenshots.Dir)
	}
	if cfg.Screenshots.Dashboard != "dashboard.png" {
		t.Errorf("expected default dashboard name, got %s", cfg.Screenshots.Dashboard)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.RunLog != "verify.log" {
		t.Errorf("expected run log verify.log, got %s", cfg.Logging.RunLog)
	}
}

func TestLoadFromFiles_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	baseContent := `
[target]
url = "http://base:8080/"
email = "base@example.com"
`
	if err := os.WriteFile(base, []byte(baseContent), 0644); err != nil {
		t.Fatal(err)
	}

	override := filepath.Join(dir, "override.toml")
	overrideContent := `
[target]
url = "http://override:8080/"
`
	if err := os.WriteFile(override, []byte(overrideContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Target.URL != "http://override:8080/" {
		t.Errorf("expected url from override, got %s", cfg.Target.URL)
	}
	if cfg.Target.Email != "base@example.com" {
		t.Errorf("expected email from base file, got %s", cfg.Target.Email)
	}
}

func TestLoadFromFiles_ContainerSection(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "container.toml")

	content := `
[target.container]
image = "wordspark:test"
health_path = "/api/health"

[target.container.env]
WORDSPARK_SEED = "demo"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if !cfg.Target.Container.Enabled() {
		t.Fatal("expected container to be enabled")
	}
	if cfg.Target.Container.Port != "8080/tcp" {
		t.Errorf("expected default container port 8080/tcp, got %s", cfg.Target.Container.Port)
	}
	if cfg.Target.Container.HealthPath != "/api/health" {
		t.Errorf("expected health path /api/health, got %s", cfg.Target.Container.HealthPath)
	}
	if cfg.Target.Container.Env["WORDSPARK_SEED"] != "demo" {
		t.Errorf("expected container env WORDSPARK_SEED=demo, got %v", cfg.Target.Container.Env)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "invalid.toml")

	if err := os.WriteFile(tomlPath, []byte("this is not valid {{toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(tomlPath)
	if err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("WORDSPARK_URL", "http://env:8080/")
	t.Setenv("WORDSPARK_EMAIL", "env@example.com")
	t.Setenv("WORDSPARK_PASSWORD", "env-secret")
	t.Setenv("WORDSPARK_DRIVER", "playwright")
	t.Setenv("WORDSPARK_HEADLESS", "false")
	t.Setenv("WORDSPARK_SCREENSHOT_DIR", "/env/shots")
	t.Setenv("WORDSPARK_LOG_LEVEL", "error")

	applyEnvOverrides(cfg)

	if cfg.Target.URL != "http://env:8080/" {
		t.Errorf("expected env url, got %s", cfg.Target.URL)
	}
	if cfg.Target.Email != "env@example.com" {
		t.Errorf("expected env email, got %s", cfg.Target.Email)
	}
	if cfg.Target.Password != "env-secret" {
		t.Errorf("expected env password, got %s", cfg.Target.Password)
	}
	if cfg.Browser.Driver != DriverPlaywright {
		t.Errorf("expected env driver playwright, got %s", cfg.Browser.Driver)
	}
	if cfg.Browser.Headless {
		t.Error("expected headless=false from env")
	}
	if cfg.Screenshots.Dir != "/env/shots" {
		t.Errorf("expected env screenshot dir, got %s", cfg.Screenshots.Dir)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_InvalidHeadless(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("WORDSPARK_HEADLESS", "sometimes")

	applyEnvOverrides(cfg)

	if !cfg.Browser.Headless {
		t.Error("expected headless to remain true for invalid env value")
	}
}

func TestEnvOverridesFileConfig(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[target]
url = "http://file:8080/"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WORDSPARK_URL", "http://env:8080/")

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Target.URL != "http://env:8080/" {
		t.Errorf("expected env override url, got %s", cfg.Target.URL)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, "http://flag:8080/", "playwright", "/flag/shots")

	if cfg.Target.URL != "http://flag:8080/" {
		t.Errorf("expected flag url, got %s", cfg.Target.URL)
	}
	if cfg.Browser.Driver != DriverPlaywright {
		t.Errorf("expected flag driver, got %s", cfg.Browser.Driver)
	}
	if cfg.Screenshots.Dir != "/flag/shots" {
		t.Errorf("expected flag screenshot dir, got %s", cfg.Screenshots.Dir)
	}
}

func TestApplyFlagOverrides_EmptyNoOverride(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, "", "", "")

	if cfg.Target.URL != "http://localhost:8080/" {
		t.Errorf("expected default url, got %s", cfg.Target.URL)
	}
	if cfg.Browser.Driver != DriverChromedp {
		t.Errorf("expected default driver, got %s", cfg.Browser.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }, "unknown browser driver"},
		{"missing url", func(c *Config) { c.Target.URL = " " }, "target.url is required"},
		{"zero landmark timeout", func(c *Config) { c.Browser.LandmarkTimeoutMs = 0 }, "landmark_timeout_ms"},
		{"zero assert timeout", func(c *Config) { c.Browser.AssertTimeoutMs = 0 }, "assert_timeout_ms"},
		{"negative login wait", func(c *Config) { c.Browser.LoginWaitMs = -1 }, "login_wait_ms"},
		{"bad viewport", func(c *Config) { c.Browser.Viewport = "wide" }, "browser.viewport"},
		{"missing screenshot name", func(c *Config) { c.Screenshots.Story = "" }, "screenshots.login"},
		{"container without port", func(c *Config) {
			c.Target.Container.Image = "wordspark:test"
			c.Target.Container.Port = ""
		}, "target.container.port"},
		{"build without tag", func(c *Config) {
			c.Target.Container.Image = "wordspark"
			c.Target.Container.BuildContext = "."
		}, "repo:tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			issues := cfg.Validate()
			if len(issues) == 0 {
				t.Fatal("expected validation issues, got none")
			}
			if !strings.Contains(strings.Join(issues, "\n"), tt.want) {
				t.Errorf("expected issue containing %q, got %v", tt.want, issues)
			}
		})
	}
}

func TestValidate_ContainerReplacesURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Target.URL = ""
	cfg.Target.Container.Image = "wordspark:test"

	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("expected no issues when a container image is set, got %v", issues)
	}
}

func TestLoginWait_ZeroMeansSingleCheck(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Browser.LoginWaitMs = 0

	if cfg.Browser.LoginWait() != 0 {
		t.Errorf("expected zero login wait, got %s", cfg.Browser.LoginWait())
	}
	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("zero login wait should validate, got %v", issues)
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := LoadFromFiles(filepath.Join("..", "..", "config", "wordspark-verify.toml"))
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, NewDefaultConfig()) {
		t.Errorf("config/wordspark-verify.toml drifted from defaults:\n got %+v\nwant %+v", cfg, NewDefaultConfig())
	}
}
