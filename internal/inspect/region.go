package inspect

import (
	"sort"
	"strings"

	"github.com/standardbeagle/pagelens/internal/geom"
	"github.com/standardbeagle/pagelens/internal/page"
)

const (
	// MaxRelated caps the secondary element set of a region match.
	MaxRelated = 50
	// MinDragSize is the minimum selection width and height in pixels.
	// Smaller drags are treated as accidental and produce no match.
	MinDragSize = 5

	// overlayPrefix marks elements injected by the inspection overlay
	// itself, which must never appear in match results.
	overlayPrefix = "__pagelens"
)

// Matcher scores page elements against a drag-selected rectangle.
type Matcher struct {
	resolver *Resolver
}

// NewMatcher returns a region matcher using the given resolver.
func NewMatcher(r *Resolver) *Matcher {
	return &Matcher{resolver: r}
}

type candidate struct {
	index int
	iou   float64
}

// Match finds the primary element and related set for a selection rectangle.
// Returns (nil, false) when the selection is below the minimum drag size or
// no element qualifies. Candidate ranking is by IoU descending with snapshot
// index as the tie-break, so equal-geometry inputs always produce the same
// primary.
func (m *Matcher) Match(doc *page.Document, sel geom.Rect) (*RegionMatch, bool) {
	if doc == nil || sel.Width < MinDragSize || sel.Height < MinDragSize {
		return nil, false
	}

	var cands []candidate
	for i := range doc.Elements {
		el := &doc.Elements[i]
		if !eligible(el) {
			continue
		}
		if !sel.Intersects(el.Box) {
			continue
		}
		// An element belongs to the selection only when its center does.
		// Big containers that merely overlap the drag stay out, however
		// much of the selection their box covers.
		cx, cy := el.Box.Center()
		if !sel.ContainsPoint(cx, cy) {
			continue
		}
		cands = append(cands, candidate{index: i, iou: sel.IoU(el.Box)})
	}
	if len(cands) == 0 {
		return nil, false
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].iou != cands[b].iou {
			return cands[a].iou > cands[b].iou
		}
		return cands[a].index < cands[b].index
	})

	resolved := make([]InspectedElement, len(cands))
	for i, c := range cands {
		resolved[i] = m.resolver.Resolve(doc, c.index)
	}

	// The primary is the best-scoring element that resolves to real source.
	// When nothing in the region carries source metadata, fall back to the
	// highest-IoU candidate so the capture still reports something useful.
	primaryAt := 0
	for i := range resolved {
		if resolved[i].Known() {
			primaryAt = i
			break
		}
	}
	match := &RegionMatch{Primary: resolved[primaryAt]}

	// Multiple candidates can resolve to the same annotated ancestor; report
	// each resolved node once.
	seen := map[string]bool{}
	if info := match.Primary.ElementInfo; info != nil {
		seen[info.DOMPath] = true
	}
	for i := range resolved {
		if i == primaryAt || !resolved[i].Known() {
			continue
		}
		rel := resolved[i]
		if rel.ElementInfo != nil {
			if seen[rel.ElementInfo.DOMPath] {
				continue
			}
			seen[rel.ElementInfo.DOMPath] = true
		}
		if rel.ElementInfo != nil {
			light := *rel.ElementInfo
			light.ComputedStyles = nil
			rel.ElementInfo = &light
		}
		match.Related = append(match.Related, rel)
	}

	// Related elements read best largest-first: containers before leaves.
	sort.SliceStable(match.Related, func(a, b int) bool {
		return relArea(match.Related[a]) > relArea(match.Related[b])
	})
	if len(match.Related) > MaxRelated {
		match.Related = match.Related[:MaxRelated]
	}
	return match, true
}

func relArea(el InspectedElement) float64 {
	if el.ElementInfo == nil {
		return 0
	}
	return el.ElementInfo.BoundingBox.Area()
}

// eligible filters out structural roots, invisible elements, and the
// overlay's own DOM.
func eligible(el *page.ElementData) bool {
	if !el.Visible || el.Box.Area() <= 0 {
		return false
	}
	switch strings.ToLower(el.TagName) {
	case "html", "body":
		return false
	}
	if strings.HasPrefix(el.ID, overlayPrefix) || strings.Contains(el.ClassName, overlayPrefix) {
		return false
	}
	return true
}
