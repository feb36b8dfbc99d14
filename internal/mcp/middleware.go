package mcp

import (
	"context"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	tabIDKey contextKey = iota
	sessionIDKey
)

// getTabID extracts the serving tab's ID from context.
func getTabID(ctx context.Context) string {
	v, _ := ctx.Value(tabIDKey).(string)
	return v
}

// getSessionID extracts the client session ID from context.
func getSessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// tabMiddleware tags every request with the tab the server is bound to.
func tabMiddleware(tabID string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, tabIDKey, tabID)
			return next(ctx, method, req)
		}
	}
}

// sessionMiddleware extracts session ID from Mcp-Session-Id header (HTTP) or metadata (stdio).
func sessionMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var sessionID string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				sessionID = extra.Header.Get("Mcp-Session-Id")
			}

			// Some notifications carry nil params behind a non-nil interface.
			if sessionID == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if sid, ok := meta["session_id"].(string); ok {
								sessionID = sid
							}
						}
					}()
				}
			}

			if sessionID != "" {
				ctx = context.WithValue(ctx, sessionIDKey, sessionID)
			}

			return next(ctx, method, req)
		}
	}
}

// sessionEndMiddleware calls onEnd once the session that sent the first
// request has closed, whether the client left or it timed out.
func sessionEndMiddleware(onEnd func()) sdkmcp.Middleware {
	var once sync.Once
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if ss, ok := req.GetSession().(*sdkmcp.ServerSession); ok {
				once.Do(func() {
					go func() {
						_ = ss.Wait()
						onEnd()
					}()
				})
			}
			return next(ctx, method, req)
		}
	}
}
