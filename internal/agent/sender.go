package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/standardbeagle/pagelens/internal/queue"
)

const maxTokens = 4096

const analysisSystem = `You are a frontend debugging assistant. You receive one captured
page inspection: the element's source location, its DOM snapshot, and the
user's description of the problem. Reply with a concise diagnosis and a
suggested fix, referencing the source file and line when known.`

// Sender streams inspection analyses through the Anthropic API.
type Sender struct {
	client anthropic.Client
	model  string
}

// NewSender returns a sender using apiKey and model.
func NewSender(apiKey, model string) *Sender {
	return &Sender{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Analyze sends one inspection item for analysis and returns the full
// response text once the stream completes.
func (s *Sender) Analyze(ctx context.Context, item queue.Item) (string, error) {
	prompt := buildPrompt(item)

	stream := s.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: analysisSystem},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	var out strings.Builder
	for stream.Next() {
		event := stream.Current()
		if event.Type != "content_block_delta" {
			continue
		}
		delta := event.AsContentBlockDelta()
		if d, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok {
			out.WriteString(d.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("analysis stream failed: %w", err)
	}
	return out.String(), nil
}

func buildPrompt(item queue.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Inspection %s\n", item.ID)
	if item.Description != "" {
		fmt.Fprintf(&b, "Problem description: %s\n", item.Description)
	}

	src := item.SourceInfo
	fmt.Fprintf(&b, "Source: %s", src.File)
	if src.Line > 0 {
		fmt.Fprintf(&b, ":%d:%d", src.Line, src.Column)
	}
	if src.Component != "" {
		fmt.Fprintf(&b, " (component %s)", src.Component)
	}
	b.WriteString("\n")

	if info := src.ElementInfo; info != nil {
		fmt.Fprintf(&b, "Element: <%s>", info.TagName)
		if info.ID != "" {
			fmt.Fprintf(&b, " id=%q", info.ID)
		}
		if info.ClassName != "" {
			fmt.Fprintf(&b, " class=%q", info.ClassName)
		}
		fmt.Fprintf(&b, " at %s\n", info.DOMPath)
		if info.TextContent != "" {
			fmt.Fprintf(&b, "Text: %s\n", truncate(info.TextContent, 500))
		}
		box := info.BoundingBox
		fmt.Fprintf(&b, "Box: %.0fx%.0f at (%.0f, %.0f)\n", box.Width, box.Height, box.X, box.Y)
	}

	if len(src.RelatedElements) > 0 {
		fmt.Fprintf(&b, "Related elements (%d):\n", len(src.RelatedElements))
		for _, rel := range src.RelatedElements {
			fmt.Fprintf(&b, "  - %s", rel.File)
			if rel.ElementInfo != nil {
				fmt.Fprintf(&b, " <%s> %s", rel.ElementInfo.TagName, rel.ElementInfo.DOMPath)
			}
			b.WriteString("\n")
		}
	}
	if src.Note != "" {
		fmt.Fprintf(&b, "User note: %s\n", src.Note)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
