package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/queue"
)

// ListInspectionsInput defines input for list_inspections.
type ListInspectionsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only return items with this status (pending, in-progress, completed, failed)"`
}

// ListInspectionsOutput defines output for list_inspections.
type ListInspectionsOutput struct {
	Inspections []queue.Item `json:"inspections"`
	Count       int          `json:"count"`
}

// PlanStepInput is one step of a progress plan.
type PlanStepInput struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status" jsonschema:"pending, in-progress, completed, or failed"`
}

// UpdateStatusInput defines input for update_inspection_status.
type UpdateStatusInput struct {
	InspectionID string          `json:"inspectionId,omitempty" jsonschema:"Target item id; omit to target the current inspection"`
	Status       string          `json:"status" jsonschema:"pending, in-progress, completed, failed, or deleted"`
	Progress     []PlanStepInput `json:"progress,omitempty" jsonschema:"Step list shown while in-progress; ordering is preserved"`
	Message      string          `json:"message,omitempty" jsonschema:"Result text for completed or failed"`
}

// UpdateStatusOutput defines output for update_inspection_status.
type UpdateStatusOutput struct {
	Inspection *queue.Item `json:"inspection,omitempty"`
	Deleted    bool        `json:"deleted,omitempty"`
}

func (t *Tools) registerQueueTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_inspections",
		Description: `List the persisted inspection queue.

Each item carries its source location, element snapshot, status, and any
progress plan or result. Screenshots captured with an item are attached
as images.`,
	}, t.makeListHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name: "update_inspection_status",
		Description: `Update one inspection item's status.

"in-progress" with a progress step list reports a work plan. "completed"
and "failed" record the result text and finish the item. "deleted"
removes it permanently. Without an inspectionId the current inspection is
targeted; when none is active an explicit id is required.`,
	}, t.makeUpdateStatusHandler())
}

func (t *Tools) makeListHandler() func(context.Context, *mcp.CallToolRequest, ListInspectionsInput) (*mcp.CallToolResult, ListInspectionsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListInspectionsInput) (*mcp.CallToolResult, ListInspectionsOutput, error) {
		t.recordCall("list_inspections", input.Status)

		items := t.Queue.List()
		if input.Status != "" {
			filtered := items[:0]
			for _, item := range items {
				if item.Status == input.Status {
					filtered = append(filtered, item)
				}
			}
			items = filtered
		}

		content := []mcp.Content{&mcp.TextContent{Text: renderItems(items)}}
		for _, item := range items {
			img, ok := screenshotContent(item)
			if ok {
				content = append(content, img)
			}
		}

		return &mcp.CallToolResult{Content: content},
			ListInspectionsOutput{Inspections: items, Count: len(items)}, nil
	}
}

func (t *Tools) makeUpdateStatusHandler() func(context.Context, *mcp.CallToolRequest, UpdateStatusInput) (*mcp.CallToolResult, UpdateStatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateStatusInput) (*mcp.CallToolResult, UpdateStatusOutput, error) {
		t.recordCall("update_inspection_status", input.Status)

		var plan *queue.Plan
		if len(input.Progress) > 0 {
			steps := make([]queue.PlanStep, len(input.Progress))
			for i, s := range input.Progress {
				steps[i] = queue.PlanStep{ID: s.ID, Title: s.Title, Status: s.Status}
			}
			plan = &queue.Plan{Steps: steps}
		}

		item, err := t.Queue.UpdateStatus(input.InspectionID, input.Status, plan, input.Message)
		switch {
		case errors.Is(err, queue.ErrNoCurrent), errors.Is(err, queue.ErrNotFound):
			return errorResult(err.Error()), UpdateStatusOutput{}, nil
		case err != nil:
			return errorResult(err.Error()), UpdateStatusOutput{}, nil
		}

		if input.Status == queue.StatusDeleted {
			return textResult(fmt.Sprintf("inspection %s deleted", item.ID)),
				UpdateStatusOutput{Deleted: true}, nil
		}
		return nil, UpdateStatusOutput{Inspection: &item}, nil
	}
}

func renderItems(items []queue.Item) string {
	if len(items) == 0 {
		return "No inspections in the queue."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d inspection(s):\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "\n[%s] %s\n", item.Status, item.ID)
		if item.Description != "" {
			fmt.Fprintf(&b, "  description: %s\n", item.Description)
		}
		src := item.SourceInfo
		fmt.Fprintf(&b, "  source: %s", src.File)
		if src.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", src.Line, src.Column)
		}
		if src.Component != "" {
			fmt.Fprintf(&b, " (%s)", src.Component)
		}
		b.WriteString("\n")
		if info := src.ElementInfo; info != nil {
			fmt.Fprintf(&b, "  element: <%s> %s\n", info.TagName, info.DOMPath)
		}
		if n := len(src.RelatedElements); n > 0 {
			fmt.Fprintf(&b, "  related: %d element(s)\n", n)
		}
		if item.Progress != nil {
			for _, step := range item.Progress.Steps {
				fmt.Fprintf(&b, "  step [%s] %s\n", step.Status, step.Title)
			}
		}
		if item.Result != "" {
			fmt.Fprintf(&b, "  result: %s\n", item.Result)
		}
	}
	return b.String()
}

// screenshotContent decodes an item's data-URL screenshot into image
// content. Unparseable screenshots are skipped.
func screenshotContent(item queue.Item) (mcp.Content, bool) {
	sc := item.SelectedContext
	if sc == nil || sc.Screenshot == "" {
		return nil, false
	}

	const prefix = "data:"
	rest, ok := strings.CutPrefix(sc.Screenshot, prefix)
	if !ok {
		return nil, false
	}
	mime, b64, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		debug.Warn("tools", "bad screenshot on %s: %v", item.ID, err)
		return nil, false
	}
	return &mcp.ImageContent{Data: data, MIMEType: mime}, true
}
