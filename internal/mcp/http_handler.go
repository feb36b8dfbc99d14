package mcp

import (
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerFactory returns the server for a new client session.
type ServerFactory func(r *http.Request) *sdkmcp.Server

// NewHTTPHandler serves MCP over streamable HTTP at /mcp and a liveness
// probe at /health. newServer runs once per client session, so a factory
// that opens a fresh tab gives every session its own tab.
func NewHTTPHandler(newServer ServerFactory, sessionTimeout time.Duration) http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(newServer, &sdkmcp.StreamableHTTPOptions{
		Stateless:      false,
		SessionTimeout: sessionTimeout,
	})

	router := http.NewServeMux()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return router
}
