// Package page defines the serialized DOM snapshot exchanged between the
// in-page capture script and the Go matching pipeline. The capture script
// flattens the document into an indexed element list with parent links, so
// ancestor walks and geometry scoring can run server-side on plain data.
package page

import (
	"github.com/standardbeagle/pagelens/internal/geom"
)

// DebugAttrs holds framework-injected source metadata found on an element
// (data-source-file and friends). Nil when the element carries none.
type DebugAttrs struct {
	File      string `json:"file,omitempty"`
	Line      int    `json:"line,omitempty"`
	Column    int    `json:"column,omitempty"`
	Component string `json:"component,omitempty"`
}

// StyleGroups is the grouped computed-style summary captured for an element.
type StyleGroups struct {
	Layout     map[string]string `json:"layout,omitempty"`
	Typography map[string]string `json:"typography,omitempty"`
	Spacing    map[string]string `json:"spacing,omitempty"`
	Background map[string]string `json:"background,omitempty"`
	Border     map[string]string `json:"border,omitempty"`
	Effects    map[string]string `json:"effects,omitempty"`
}

// ElementData is one element in a flattened document snapshot.
// ParentIndex points into the enclosing Document's Elements slice (-1 for
// the document root), which is how ancestor walks work without a live DOM.
type ElementData struct {
	Index       int          `json:"index"`
	ParentIndex int          `json:"parentIndex"`
	TagName     string       `json:"tagName"`
	ID          string       `json:"id,omitempty"`
	ClassName   string       `json:"className,omitempty"`
	TextContent string       `json:"textContent,omitempty"`
	DOMPath     string       `json:"domPath"`
	Box         geom.Rect    `json:"box"`
	Visible     bool         `json:"visible"`
	Debug       *DebugAttrs  `json:"debug,omitempty"`
	Styles      *StyleGroups `json:"styles,omitempty"`
}

// Document is a point-in-time snapshot of a page's element tree.
// Target is the index of the element a selector-scoped capture resolved to,
// or -1 when the snapshot was not selector-scoped (or nothing matched).
type Document struct {
	URL      string        `json:"url"`
	Title    string        `json:"title"`
	Target   int           `json:"target"`
	Elements []ElementData `json:"elements"`
}

// Element returns the element at index, or nil when out of range.
func (d *Document) Element(index int) *ElementData {
	if d == nil || index < 0 || index >= len(d.Elements) {
		return nil
	}
	return &d.Elements[index]
}

// FindByDOMPath returns the index of the element with the given DOM path,
// or -1 when absent.
func (d *Document) FindByDOMPath(path string) int {
	if d == nil || path == "" {
		return -1
	}
	for i := range d.Elements {
		if d.Elements[i].DOMPath == path {
			return i
		}
	}
	return -1
}
