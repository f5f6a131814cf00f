package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/pagelens/internal/browser"
)

// ExecuteScriptInput defines input for execute_page_script.
type ExecuteScriptInput struct {
	Code string `json:"code" jsonschema:"JavaScript to evaluate in the page context"`
}

// ExecuteScriptOutput defines output for execute_page_script.
type ExecuteScriptOutput struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty" jsonschema:"Thrown error with stack, when the script failed"`
}

// PageInfoOutput defines output for get_page_info.
type PageInfoOutput struct {
	Info *browser.PageInfo `json:"info"`
}

func (t *Tools) registerPageTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "execute_page_script",
		Description: `Evaluate JavaScript in the inspected page and return the result.

The result is stringified (objects as JSON). A thrown error comes back
with its stack in the error field instead of failing the call. The code
runs with full page privileges.`,
	}, t.makeExecuteScriptHandler())

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_page_info",
		Description: `Get the inspected page's URL, title, viewport size, and a
depth-bounded accessibility-role tree.`,
	}, t.makePageInfoHandler())
}

func (t *Tools) makeExecuteScriptHandler() func(context.Context, *mcp.CallToolRequest, ExecuteScriptInput) (*mcp.CallToolResult, ExecuteScriptOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ExecuteScriptInput) (*mcp.CallToolResult, ExecuteScriptOutput, error) {
		t.recordCall("execute_page_script", "")

		if input.Code == "" {
			return errorResult("code is required"), ExecuteScriptOutput{}, nil
		}
		res, err := t.Page.ExecScript(ctx, input.Code)
		if err != nil {
			return errorResult(err.Error()), ExecuteScriptOutput{}, nil
		}
		return nil, ExecuteScriptOutput{Result: res.Value, Error: res.Error}, nil
	}
}

func (t *Tools) makePageInfoHandler() func(context.Context, *mcp.CallToolRequest, struct{}) (*mcp.CallToolResult, PageInfoOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, PageInfoOutput, error) {
		t.recordCall("get_page_info", "")

		info, err := t.Page.GetPageInfo(ctx)
		if err != nil {
			return errorResult(err.Error()), PageInfoOutput{}, nil
		}
		return nil, PageInfoOutput{Info: info}, nil
	}
}
