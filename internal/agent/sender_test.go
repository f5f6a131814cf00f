package agent

import (
	"strings"
	"testing"

	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/inspect"
	"github.com/standardbeagle/pagelens/internal/queue"
)

func TestBuildPrompt(t *testing.T) {
	item := queue.Item{
		ID:          "item-1",
		Description: "button misaligned",
		SourceInfo: inspect.InspectedElement{
			SourceLocation: inspect.SourceLocation{
				File: "src/Button.tsx", Line: 14, Column: 2, Component: "Button",
			},
			ElementInfo: &inspect.ElementSnapshot{
				TagName:     "button",
				ClassName:   "btn primary",
				DOMPath:     "html>body>main>button",
				TextContent: "Save",
				BoundingBox: geom.Rect{X: 10, Y: 20, Width: 120, Height: 40},
			},
			Note: "overflows its container",
			RelatedElements: []inspect.InspectedElement{
				{
					SourceLocation: inspect.SourceLocation{File: "src/Form.tsx"},
					ElementInfo:    &inspect.ElementSnapshot{TagName: "form", DOMPath: "html>body>main>form"},
				},
			},
		},
	}

	prompt := buildPrompt(item)
	for _, want := range []string{
		"button misaligned",
		"src/Button.tsx:14:2",
		"component Button",
		`class="btn primary"`,
		"html>body>main>button",
		"Save",
		"120x40",
		"src/Form.tsx",
		"overflows its container",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_Minimal(t *testing.T) {
	item := queue.Item{
		ID: "item-2",
		SourceInfo: inspect.InspectedElement{
			SourceLocation: inspect.SourceLocation{File: inspect.UnknownFile, Component: "div"},
		},
	}

	prompt := buildPrompt(item)
	if !strings.Contains(prompt, "unknown") {
		t.Errorf("prompt should carry the unknown sentinel:\n%s", prompt)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abcdefghij", 4); got != "abcd..." {
		t.Errorf("got %q", got)
	}
}
