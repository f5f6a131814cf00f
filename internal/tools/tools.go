// Package tools exposes the inspection surface over MCP: element and area
// capture, the inspection queue, page script execution, and page info.
package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagelens/internal/browser"
	"github.com/standardbeagle/pagelens/internal/eventlog"
	"github.com/standardbeagle/pagelens/internal/inspector"
	"github.com/standardbeagle/pagelens/internal/queue"
)

// PageOps is the subset of the browser driver the tool layer needs
// directly; captures go through the Inspector instead.
type PageOps interface {
	ExecScript(ctx context.Context, code string) (browser.ExecResult, error)
	GetPageInfo(ctx context.Context) (*browser.PageInfo, error)
	Screenshot(ctx context.Context) (string, error)
}

// Tools bundles the collaborators behind the MCP tool handlers.
type Tools struct {
	Inspector  *inspector.Inspector
	Queue      *queue.Queue
	Events     *eventlog.Log
	Page       PageOps
	Screenshot bool
}

// RegisterAll adds every pagelens tool to the server.
func (t *Tools) RegisterAll(server *mcp.Server) {
	t.registerCaptureTools(server)
	t.registerQueueTools(server)
	t.registerPageTools(server)
}

// errorResult builds a tool error the caller sees as text.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

// recordCall notes a tool invocation in the event log so later captures
// can correlate agent activity with page activity.
func (t *Tools) recordCall(name, detail string) {
	if t.Events == nil {
		return
	}
	text := name
	if detail != "" {
		text = fmt.Sprintf("%s %s", name, detail)
	}
	t.Events.RecordAsync(&eventlog.Event{
		Kind: eventlog.KindStdio,
		Text: text,
	})
}
