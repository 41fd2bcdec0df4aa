// Package mcp exposes the verification run as Model Context Protocol tools.
package mcp

import (
	"context"
	"net/http"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/wordspark-verify/internal/common"
	"github.com/bobmcallan/wordspark-verify/internal/config"
	"github.com/bobmcallan/wordspark-verify/internal/verify"
)

// RunFunc performs one verification with cfg.
type RunFunc func(ctx context.Context, cfg *config.Config, logger *common.Logger) (*verify.Report, error)

// Server holds the MCP server and the base configuration tool calls start from.
type Server struct {
	mcp    *server.MCPServer
	cfg    *config.Config
	logger *common.Logger
	run    RunFunc

	// running serialises verify_flow calls; runs never overlap.
	running sync.Mutex
}

// NewServer registers the tools. A nil run uses verify.Execute.
func NewServer(cfg *config.Config, logger *common.Logger, run RunFunc) *Server {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if run == nil {
		run = verify.Execute
	}

	name := cfg.MCP.Name
	if name == "" {
		name = "WordSpark-Verify"
	}

	s := &Server{
		mcp:    server.NewMCPServer(name, config.GetVersion(), server.WithToolCapabilities(true)),
		cfg:    cfg,
		logger: logger,
		run:    run,
	}
	s.registerTools()

	logger.Info().Str("name", name).Str("version", config.GetVersion()).Msg("MCP server initialized")
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(createGetVersionTool(), s.handleGetVersion)
	s.mcp.AddTool(createVerifyFlowTool(), s.handleVerifyFlow)
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves MCP over stdin/stdout until stdin closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns a stateless streamable HTTP handler.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp, server.WithStateLess(true))
}
