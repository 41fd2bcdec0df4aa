package config

import "github.com/bobmcallan/wordspark-verify/internal/common"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			URL:      "http://localhost:8080/",
			Email:    "test@example.com",
			Password: "password",
			Container: ContainerConfig{
				Port:        "8080/tcp",
				HealthPath:  "/",
				StartupSecs: 60,
			},
		},
		Browser: BrowserConfig{
			Driver:            DriverChromedp,
			Headless:          true,
			LandmarkTimeoutMs: 10000,
			AssertTimeoutMs:   5000,
			LoginWaitMs:      2000,
			RunTimeoutMs:      60000,
		},
		Screenshots: ScreenshotsConfig{
			Dir:       "jules-scratch/verification",
			Login:     "after_login.png",
			Dashboard: "dashboard.png",
			Story:     "story_page.png",
		},
		Logging: common.LoggingConfig{
			Level: "info",
		},
		MCP: MCPConfig{
			Name: "WordSpark-Verify",
			Port: 4251,
		},
	}
}
