// Package inspect implements the element-context capture core: resolving a
// DOM node to its source location and snapshot, and matching a screen
// region to a primary element plus its related set.
package inspect

import (
	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/page"
)

// UnknownFile is the sentinel file name used when no ancestor of a node
// carries source metadata. Resolution never fails; it degrades to this.
const UnknownFile = "unknown"

// SourceLocation identifies where an element's markup originates.
// Immutable once resolved.
type SourceLocation struct {
	File      string `json:"file"`
	Component string `json:"component"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

// Known reports whether the location points at a real source file.
func (s SourceLocation) Known() bool {
	return s.File != "" && s.File != UnknownFile
}

// ElementSnapshot is the point-in-capture state of an element. The light
// variant used for related elements omits ComputedStyles to bound payload
// size; the primary element keeps the full snapshot.
type ElementSnapshot struct {
	TagName        string            `json:"tagName"`
	TextContent    string            `json:"textContent,omitempty"`
	ClassName      string            `json:"className,omitempty"`
	ID             string            `json:"id,omitempty"`
	DOMPath        string            `json:"domPath"`
	BoundingBox    geom.Rect         `json:"boundingBox"`
	ComputedStyles *page.StyleGroups `json:"computedStyles,omitempty"`
}

// InspectedElement is the root of a single capture: a source location plus
// the snapshot taken from the resolved node. RelatedElements is populated
// only for region captures and holds light snapshots.
type InspectedElement struct {
	SourceLocation
	ElementInfo     *ElementSnapshot   `json:"elementInfo,omitempty"`
	Note            string             `json:"note,omitempty"`
	RelatedElements []InspectedElement `json:"relatedElements,omitempty"`
	Automated       bool               `json:"automated,omitempty"`
}

// RegionMatch is the result of matching a selection rectangle: the single
// best element and the ranked set of secondary elements.
type RegionMatch struct {
	Primary InspectedElement   `json:"primary"`
	Related []InspectedElement `json:"related"`
}

func snapshotOf(el *page.ElementData, light bool) *ElementSnapshot {
	if el == nil {
		return nil
	}
	snap := &ElementSnapshot{
		TagName:     el.TagName,
		TextContent: el.TextContent,
		ClassName:   el.ClassName,
		ID:          el.ID,
		DOMPath:     el.DOMPath,
		BoundingBox: el.Box,
	}
	if !light {
		snap.ComputedStyles = el.Styles
	}
	return snap
}
