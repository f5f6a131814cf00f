// Package geom provides the rectangle math used for region matching:
// intersection, area, and Intersection-over-Union scoring.
package geom

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the rectangle's area. Degenerate rectangles have area 0.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Center returns the rectangle's center point.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// ContainsPoint reports whether the point lies inside the rectangle.
// Edges count as inside.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Intersect returns the overlapping region of two rectangles.
// Returns a zero-area Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	left := max(r.X, o.X)
	top := max(r.Y, o.Y)
	right := min(r.X+r.Width, o.X+o.Width)
	bottom := min(r.Y+r.Height, o.Y+o.Height)

	if right <= left || bottom <= top {
		return Rect{}
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// Intersects reports whether two rectangles overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.Intersect(o).Area() > 0
}

// IoU computes Intersection-over-Union against another rectangle:
// area(intersection) / (area(r) + area(o) - area(intersection)).
// A union of zero or less yields 0.
func (r Rect) IoU(o Rect) float64 {
	inter := r.Intersect(o).Area()
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
