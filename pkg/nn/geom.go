package nn

import (
	"fmt"

	"github.com/chewxy/math32"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Distance(b Point) float32 {
	return math32.Sqrt(float32((p.X-b.X)*(p.X-b.X) + (p.Y-b.Y)*(p.Y-b.Y)))
}

// Rect is a bounding box in pixel coordinates.
// A valid rectangle has X1 < X2 and Y1 < Y2. Degenerate rectangles are
// rejected by the producers of detections, so the geometry functions here
// only need to behave sanely (return zero, not panic) when given one.
type Rect struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func MakeRect(x1, y1, x2, y2 int) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (r Rect) Width() int {
	return r.X2 - r.X1
}

func (r Rect) Height() int {
	return r.Y2 - r.Y1
}

func (r Rect) Area() int {
	return r.Width() * r.Height()
}

func (r Rect) IsValid() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

func (r Rect) Center() Point {
	return Point{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
	}
}

func (r Rect) Intersection(b Rect) Rect {
	x1 := max(r.X1, b.X1)
	y1 := max(r.Y1, b.Y1)
	x2 := min(r.X2, b.X2)
	y2 := min(r.Y2, b.Y2)
	return Rect{
		X1: x1,
		Y1: y1,
		X2: max(x1, x2),
		Y2: max(y1, y2),
	}
}

func (r Rect) Union(b Rect) Rect {
	return Rect{
		X1: min(r.X1, b.X1),
		Y1: min(r.Y1, b.Y1),
		X2: max(r.X2, b.X2),
		Y2: max(r.Y2, b.Y2),
	}
}

// Intersection over Union.
// Returns 0 if the rectangles do not overlap (touching edges count as no
// overlap), or if either rectangle has non-positive area.
func (r Rect) IOU(b Rect) float32 {
	if r.Area() <= 0 || b.Area() <= 0 {
		return 0
	}
	intersection := r.Intersection(b).Area()
	if intersection <= 0 {
		return 0
	}
	return float32(intersection) / float32(r.Area()+b.Area()-intersection)
}

func (r *Rect) Offset(dx, dy int) {
	r.X1 += dx
	r.Y1 += dy
	r.X2 += dx
	r.Y2 += dy
}

func (r Rect) String() string {
	return fmt.Sprintf("(%v,%v,%v,%v)", r.X1, r.Y1, r.X2, r.Y2)
}
