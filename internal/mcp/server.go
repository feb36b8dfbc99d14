package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Config contains server configuration.
type Config struct {
	// TabID tags logs and requests with the tab the server drives.
	TabID    string
	Board    BoardService
	Activity ActivityService
	Logger   *slog.Logger
	// OnSessionEnd runs once after the client session closes. Optional.
	OnSessionEnd func()
}

// NewServer creates an MCP server exposing one tab's board.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "bidsync",
		Version: Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(tabMiddleware(cfg.TabID))
	server.AddReceivingMiddleware(sessionMiddleware())
	if cfg.OnSessionEnd != nil {
		server.AddReceivingMiddleware(sessionEndMiddleware(cfg.OnSessionEnd))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, NewHandler(cfg.Board, cfg.Activity))

	return server
}
