package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/wordspark-verify/internal/config"
	"github.com/bobmcallan/wordspark-verify/internal/verify"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// versionInfo is the get_version payload.
type versionInfo struct {
	config.VersionInfo
	Driver string `json:"driver"`
}

func (s *Server) handleGetVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(versionInfo{
		VersionInfo: config.GetVersionInfo(),
		Driver:      s.cfg.Browser.Driver,
	})
	if err != nil {
		return errorResult("failed to marshal version info"), nil
	}
	return textResult(string(out)), nil
}

func (s *Server) handleVerifyFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := *s.cfg
	config.ApplyFlagOverrides(&cfg,
		request.GetString("url", ""),
		request.GetString("driver", ""),
		request.GetString("screenshot_dir", ""),
	)
	if issues := cfg.Validate(); len(issues) > 0 {
		return errorResult("Error: invalid arguments: " + strings.Join(issues, "; ")), nil
	}

	if !s.running.TryLock() {
		return errorResult("Error: a verification run is already in progress"), nil
	}
	defer s.running.Unlock()

	s.logger.Info().Str("url", cfg.Target.URL).Str("driver", cfg.Browser.Driver).Msg("verify_flow called")

	report, err := s.run(ctx, &cfg, s.logger)
	if report == nil {
		if err == nil {
			return errorResult("Error: run produced no report"), nil
		}
		return errorResult("Error: " + err.Error()), nil
	}

	text := report.Markdown()
	if err != nil {
		s.logger.Warn().Str("step", verify.FailedStep(err)).Err(err).Msg("verify_flow failed")
		return errorResult(text + "\n**Error:** " + err.Error() + "\n"), nil
	}
	return textResult(text), nil
}
