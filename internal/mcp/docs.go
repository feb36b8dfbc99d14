package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `bidsync serves one tab of a project bidding board. Every tab sharing the same
storage sees the same bids and the same highest bid per project.

Workflow:
1) Call list_projects (optionally status=open) to see projects, their bids and highest bid.
2) Call place_bid with project_id, bidder and amount. The amount must be strictly greater
   than the current highest bid; equal bids are rejected. Closed projects reject all bids.
3) Bids placed in other tabs arrive asynchronously. Call get_project to refresh one project.
4) project_activity shows what this tab placed, received and resynced.

Errors carry a code: VALIDATION_ERROR, BIDDING_CLOSED or PROJECT_NOT_FOUND.

Docs: bidsync://docs/bidding
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "bidsync://docs/bidding",
		Name:        "docs_bidding",
		Title:       "Bidding rules and tab sync",
		Description: "How bids are validated, how the highest bid is chosen, and how tabs converge.",
		Content: `# Bidding rules

## Placing a bid
- bidder: required, surrounding whitespace is trimmed.
- amount: a finite number greater than zero and greater than the current highest bid
  (0 when the project has no bids).
- The bid is stamped with the tab's clock when accepted.
- A project accepts bids while now is before its bid close. After that it is closed for good.

## Highest bid
The highest bid is the bid with the largest amount. When several bids share the largest
amount, the one that arrived first in the history wins.

## Tabs
Each tab keeps its own copy of every project's bid history.
- An accepted bid is saved to shared storage and announced on the broadcast channel.
- Other tabs append announced bids they do not have yet. A bid is the same bid when
  bidder, amount and timestamp all match, so repeated delivery is harmless.
- When shared storage changes, tabs adopt the stored history and keep any local bids it
  is missing. Histories never shrink.
- Without a broadcast channel, tabs still converge through storage notifications.

## Known limits
Two tabs saving at the same instant can overwrite each other's stored write. Both bids stay
in the memory of the tabs that saw them and are written back by the next save.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
