package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/vuestories/pkg/mcplog"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/plugin"
)

// ServerName is reported to MCP clients.
const ServerName = "vuestories"

// Server exposes the transforms as MCP tools.
type Server struct {
	mcpServer *server.MCPServer
	plugin    *plugin.Plugin
	pm        *parser.ParserManager
	logger    *mcplog.Logger // nil disables call logging
}

// NewServer creates a server backed by p. logger may be nil.
func NewServer(p *plugin.Plugin, pm *parser.ParserManager, version string, logger *mcplog.Logger) *Server {
	s := &Server{plugin: p, pm: pm, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer(ServerName, version, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: transformStoryTool(), Handler: s.handleTransformStory},
		server.ServerTool{Tool: componentMetaTool(), Handler: s.handleComponentMeta},
		server.ServerTool{Tool: storyPreviewTool(), Handler: s.handleStoryPreview},
	)
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
