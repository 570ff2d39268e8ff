package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Shashank-Shivakumar/Docfly/internal/chat"
	"github.com/Shashank-Shivakumar/Docfly/internal/config"
	"github.com/Shashank-Shivakumar/Docfly/internal/descriptions"
	"github.com/Shashank-Shivakumar/Docfly/internal/editor"
	"github.com/Shashank-Shivakumar/Docfly/internal/export"
	"github.com/Shashank-Shivakumar/Docfly/internal/logger"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/acroform"
	"github.com/Shashank-Shivakumar/Docfly/internal/pdf/security"
	"github.com/Shashank-Shivakumar/Docfly/internal/placement"
	"github.com/Shashank-Shivakumar/Docfly/internal/render"
)

// Services holds the collaborators the server drives. Store, Mapper,
// Exporter and Paths are required; a nil Renderer, KV or Chat disables the
// tools that need them.
type Services struct {
	Store     *editor.Store
	Mapper    *placement.Mapper
	Exporter  *export.Exporter
	Paths     *security.PathValidator
	Renderer  *render.Renderer
	Inspector *acroform.Inspector
	KV        editor.KeyValueStore
	Chat      *chat.Session
	Logger    *logger.Logger
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	services  Services
	log       *logger.Logger
	mcpServer *server.MCPServer

	// probe counts pages on load; replaced in tests
	probe func([]byte) (int, error)
	now   func() time.Time

	mu       sync.Mutex
	tools    []string
	handlers map[string]server.ToolHandlerFunc
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, services Services) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	switch {
	case services.Store == nil:
		return nil, fmt.Errorf("document store cannot be nil")
	case services.Mapper == nil:
		return nil, fmt.Errorf("placement mapper cannot be nil")
	case services.Exporter == nil:
		return nil, fmt.Errorf("exporter cannot be nil")
	case services.Paths == nil:
		return nil, fmt.Errorf("path validator cannot be nil")
	}
	if services.Inspector == nil {
		services.Inspector = acroform.New(services.Logger)
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s := &Server{
		config:    cfg,
		services:  services,
		log:       logger.OrDiscard(services.Logger),
		mcpServer: mcpServer,
		probe:     render.Probe,
		now:       time.Now,
		handlers:  make(map[string]server.ToolHandlerFunc),
	}

	s.registerDocumentTools()
	s.registerFieldTools()
	s.registerExportTools()
	s.registerChatTools()
	s.addTool(mcp.NewTool("server_info",
		mcp.WithDescription(descriptions.GetToolDescription("server_info")),
	), s.handleServerInfo)
	s.registerResources()

	return s, nil
}

// addTool registers a tool and remembers its name for server_info
func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mu.Lock()
	s.tools = append(s.tools, tool.Name)
	s.handlers[tool.Name] = handler
	s.mu.Unlock()
	s.mcpServer.AddTool(tool, handler)
}

// Tools returns the registered tool names in registration order
func (s *Server) Tools() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tools...)
}

// MCPServer exposes the underlying protocol server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Run serves MCP over stdio until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	s.log.Debug("Starting %s MCP server in stdio mode", s.config.ServerName)
	s.log.Debug("Work directory: %s", s.config.WorkDir)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ServeStdio(s.mcpServer)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve stdio: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"docfly://document",
		"Current document",
		mcp.WithResourceDescription("The loaded document and its fields as JSON"),
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentResource)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	doc := s.services.Store.Document()
	if doc == nil {
		return nil, editor.ErrNoDocument
	}
	view := *doc
	view.File = nil
	data, err := json.MarshalIndent(&view, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// textResult creates a simple text tool result
func textResult(format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf(format, args...))
}

// errorResult reports a failure to the client as a tool error
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

// jsonResult returns v as indented JSON text
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("failed to encode result: %w", err))
	}
	return mcp.NewToolResultText(string(data))
}
