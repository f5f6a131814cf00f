package inspect

import (
	"testing"

	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/page"
)

func testDoc(elements []page.ElementData) *page.Document {
	for i := range elements {
		elements[i].Index = i
	}
	return &page.Document{URL: "http://localhost:3000", Target: -1, Elements: elements}
}

func TestResolve_DirectAttrs(t *testing.T) {
	doc := testDoc([]page.ElementData{
		{ParentIndex: -1, TagName: "div", DOMPath: "html>body>div", Visible: true,
			Box:   geom.Rect{X: 0, Y: 0, Width: 200, Height: 100},
			Debug: &page.DebugAttrs{File: "src/App.tsx", Line: 42, Column: 3, Component: "App"}},
	})

	got := NewResolver().Resolve(doc, 0)
	if got.File != "src/App.tsx" || got.Line != 42 || got.Column != 3 || got.Component != "App" {
		t.Errorf("unexpected location: %+v", got.SourceLocation)
	}
	if got.ElementInfo == nil || got.ElementInfo.DOMPath != "html>body>div" {
		t.Errorf("snapshot should come from the annotated element: %+v", got.ElementInfo)
	}
	if got.ElementInfo.ComputedStyles != nil {
		// no styles captured for this element, so none reported
		t.Error("expected nil computed styles")
	}
}

func TestResolve_AncestorAttrs(t *testing.T) {
	// A bare <span> inside an annotated <section>: the span has no metadata,
	// so resolution climbs to the section and snapshots it.
	doc := testDoc([]page.ElementData{
		{ParentIndex: -1, TagName: "section", DOMPath: "html>body>section", Visible: true,
			Box:   geom.Rect{X: 0, Y: 0, Width: 400, Height: 300},
			Debug: &page.DebugAttrs{File: "src/Card.tsx", Line: 7, Component: "Card"}},
		{ParentIndex: 0, TagName: "div", DOMPath: "html>body>section>div", Visible: true,
			Box: geom.Rect{X: 10, Y: 10, Width: 380, Height: 280}},
		{ParentIndex: 1, TagName: "span", DOMPath: "html>body>section>div>span", Visible: true,
			Box: geom.Rect{X: 20, Y: 20, Width: 100, Height: 20}},
	})

	got := NewResolver().Resolve(doc, 2)
	if got.File != "src/Card.tsx" || got.Component != "Card" {
		t.Errorf("expected ancestor's location, got %+v", got.SourceLocation)
	}
	if got.ElementInfo == nil || got.ElementInfo.TagName != "section" {
		t.Errorf("snapshot should be the resolved ancestor, got %+v", got.ElementInfo)
	}
	if got.ElementInfo.BoundingBox.Width != 400 {
		t.Errorf("snapshot box should match the ancestor, got %+v", got.ElementInfo.BoundingBox)
	}
}

func TestResolve_NoMetadata(t *testing.T) {
	doc := testDoc([]page.ElementData{
		{ParentIndex: -1, TagName: "div", DOMPath: "html>body>div", Visible: true,
			Box: geom.Rect{X: 0, Y: 0, Width: 100, Height: 100}},
		{ParentIndex: 0, TagName: "button", DOMPath: "html>body>div>button", Visible: true,
			Box: geom.Rect{X: 10, Y: 10, Width: 80, Height: 30}},
	})

	got := NewResolver().Resolve(doc, 1)
	if got.File != UnknownFile {
		t.Errorf("file = %q, want %q", got.File, UnknownFile)
	}
	if got.Line != 0 || got.Column != 0 {
		t.Errorf("line/column should be zero, got %d:%d", got.Line, got.Column)
	}
	if got.Component != "button" {
		t.Errorf("component should fall back to the tag, got %q", got.Component)
	}
	if got.Known() {
		t.Error("unknown location must not report as known")
	}
	// The snapshot stays on the original element when nothing resolves.
	if got.ElementInfo == nil || got.ElementInfo.TagName != "button" {
		t.Errorf("snapshot should be the original element, got %+v", got.ElementInfo)
	}
}

func TestResolve_ComponentFallsBackToResolvedTag(t *testing.T) {
	doc := testDoc([]page.ElementData{
		{ParentIndex: -1, TagName: "article", DOMPath: "html>body>article", Visible: true,
			Box:   geom.Rect{X: 0, Y: 0, Width: 100, Height: 100},
			Debug: &page.DebugAttrs{File: "src/post.html", Line: 12}},
	})

	got := NewResolver().Resolve(doc, 0)
	if got.Component != "article" {
		t.Errorf("component = %q, want resolved element's tag", got.Component)
	}
}

func TestResolve_OutOfRange(t *testing.T) {
	doc := testDoc(nil)

	got := NewResolver().Resolve(doc, 5)
	if got.File != UnknownFile {
		t.Errorf("file = %q, want %q", got.File, UnknownFile)
	}
	if got.ElementInfo != nil {
		t.Error("no snapshot expected for a missing element")
	}
}
