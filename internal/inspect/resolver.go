package inspect

import (
	"github.com/standardbeagle/pagelens/internal/page"
)

// Resolver maps a captured element to its source location by walking the
// ancestor chain for framework-injected debug attributes.
type Resolver struct{}

// NewResolver returns a source resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve derives the source location for the element at index in doc.
// The element's own debug attributes win; otherwise the nearest ancestor
// carrying them is used and the snapshot is taken from that ancestor, so
// the reported box and path agree with the reported source. When no
// ancestor carries metadata the location degrades to the UnknownFile
// sentinel with the original element's tag as component, and the snapshot
// stays on the original element. Resolution never fails.
func (r *Resolver) Resolve(doc *page.Document, index int) InspectedElement {
	el := doc.Element(index)
	if el == nil {
		return InspectedElement{
			SourceLocation: SourceLocation{File: UnknownFile},
		}
	}

	resolved := findAnnotated(doc, el)
	if resolved == nil {
		return InspectedElement{
			SourceLocation: SourceLocation{
				File:      UnknownFile,
				Component: el.TagName,
			},
			ElementInfo: snapshotOf(el, false),
		}
	}

	loc := SourceLocation{
		File:      resolved.Debug.File,
		Component: resolved.Debug.Component,
		Line:      resolved.Debug.Line,
		Column:    resolved.Debug.Column,
	}
	if loc.Component == "" {
		loc.Component = resolved.TagName
	}
	return InspectedElement{
		SourceLocation: loc,
		ElementInfo:    snapshotOf(resolved, false),
	}
}

// findAnnotated walks from el toward the root and returns the first element
// with a usable source file attribute, or nil.
func findAnnotated(doc *page.Document, el *page.ElementData) *page.ElementData {
	for cur := el; cur != nil; cur = doc.Element(cur.ParentIndex) {
		if cur.Debug != nil && cur.Debug.File != "" {
			return cur
		}
	}
	return nil
}
