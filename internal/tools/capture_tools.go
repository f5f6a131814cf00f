package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagelens/internal/debug"
	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/inspect"
	"github.com/standardbeagle/pagelens/internal/pending"
	"github.com/standardbeagle/pagelens/internal/queue"
)

// CaptureElementInput defines input for capture_element_context.
type CaptureElementInput struct {
	Selector    string `json:"selector,omitempty" jsonschema:"CSS selector for automated capture; omit to let the user click an element in the page"`
	Description string `json:"description,omitempty" jsonschema:"What the caller wants investigated about this element"`
}

// BoundsInput is an explicit region rectangle in page coordinates.
type BoundsInput struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CaptureAreaInput defines input for capture_area_context.
type CaptureAreaInput struct {
	ContainerSelector string       `json:"containerSelector,omitempty" jsonschema:"CSS selector whose bounding box defines the region"`
	Bounds            *BoundsInput `json:"bounds,omitempty" jsonschema:"Explicit region rectangle in page coordinates"`
	Description       string       `json:"description,omitempty" jsonschema:"What the caller wants investigated about this region"`
}

// CaptureOutput is the shared output of both capture tools.
type CaptureOutput struct {
	Inspections []queue.Item `json:"inspections,omitempty"`
	Cancelled   bool         `json:"cancelled,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

func (t *Tools) registerCaptureTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "capture_element_context",
		Description: `Capture the source location and DOM context of one page element.

With a selector, the element is captured immediately. Without one, the
page enters inspect mode and this call waits until the user clicks an
element (or cancels with Escape). The capture becomes a persisted
inspection item whose id works with update_inspection_status.`,
	}, t.makeCaptureElementHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name: "capture_area_context",
		Description: `Capture every relevant element inside a page region.

Provide containerSelector or bounds for an immediate capture, or neither
to let the user drag a rectangle in the page. The best-matching element
becomes the primary capture with related elements attached, ranked by
geometric fit.`,
	}, t.makeCaptureAreaHandler())
}

func (t *Tools) makeCaptureElementHandler() func(context.Context, *mcp.CallToolRequest, CaptureElementInput) (*mcp.CallToolResult, CaptureOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CaptureElementInput) (*mcp.CallToolResult, CaptureOutput, error) {
		t.recordCall("capture_element_context", input.Selector)

		captures, err := t.Inspector.CaptureElement(ctx, input.Selector)
		return t.finishCapture(ctx, captures, err, input.Description)
	}
}

func (t *Tools) makeCaptureAreaHandler() func(context.Context, *mcp.CallToolRequest, CaptureAreaInput) (*mcp.CallToolResult, CaptureOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CaptureAreaInput) (*mcp.CallToolResult, CaptureOutput, error) {
		t.recordCall("capture_area_context", input.ContainerSelector)

		var bounds *geom.Rect
		if input.Bounds != nil {
			bounds = &geom.Rect{
				X:      input.Bounds.X,
				Y:      input.Bounds.Y,
				Width:  input.Bounds.Width,
				Height: input.Bounds.Height,
			}
		}
		captures, err := t.Inspector.CaptureArea(ctx, input.ContainerSelector, bounds)
		return t.finishCapture(ctx, captures, err, input.Description)
	}
}

// finishCapture maps capture outcomes onto tool results: cancellations and
// empty selections are reported as plain text, timeouts and real failures
// as tool errors, and successful captures are persisted to the queue.
func (t *Tools) finishCapture(ctx context.Context, captures []inspect.InspectedElement, err error, description string) (*mcp.CallToolResult, CaptureOutput, error) {
	switch {
	case errors.Is(err, pending.ErrCancelled), errors.Is(err, pending.ErrSuperseded):
		return textResult(fmt.Sprintf("capture cancelled: %v", err)),
			CaptureOutput{Cancelled: true, Reason: err.Error()}, nil
	case errors.Is(err, pending.ErrTimeout):
		return errorResult("capture timed out waiting for a selection"), CaptureOutput{}, nil
	case err != nil:
		return errorResult(err.Error()), CaptureOutput{}, nil
	case len(captures) == 0:
		return textResult("selection cancelled: no element matched the region"),
			CaptureOutput{Cancelled: true, Reason: "empty selection"}, nil
	}

	var selCtx *queue.SelectedContext
	if t.Screenshot && t.Page != nil {
		if shot, shotErr := t.Page.Screenshot(ctx); shotErr != nil {
			debug.Warn("tools", "capture screenshot failed: %v", shotErr)
		} else {
			selCtx = &queue.SelectedContext{IncludeScreenshot: true, Screenshot: shot}
		}
	}

	items, err := t.Queue.Finalize(captures, description, selCtx)
	if err != nil {
		return errorResult(fmt.Sprintf("capture succeeded but could not be stored: %v", err)), CaptureOutput{}, nil
	}
	return nil, CaptureOutput{Inspections: items}, nil
}
