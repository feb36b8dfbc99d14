package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects open for bidding with their bids, highest bid and status",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsParams) (*sdkmcp.CallToolResult, ListProjectsResult, error) {
		out, err := h.ListProjects(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project with its full bid history",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, GetProjectResult, error) {
		out, err := h.GetProject(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "place_bid",
		Description: "Place a bid on an open project. The amount must be greater than the current highest bid",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in PlaceBidParams) (*sdkmcp.CallToolResult, PlaceBidResult, error) {
		out, err := h.PlaceBid(ctx, in)
		return nil, out, err
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "project_activity",
		Description: "List recent bid and sync activity recorded by this tab for a project",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ProjectActivityParams) (*sdkmcp.CallToolResult, ProjectActivityResult, error) {
		out, err := h.ProjectActivity(ctx, in)
		return nil, out, err
	})
}
