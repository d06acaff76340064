package shape

import "math"

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

// Trapezoid places each corner of a quadrilateral horizontally inside its
// bounding rectangle. 0 is the left edge, 1 the right edge. Values outside
// [0,1] are allowed and put the corner outside the rectangle.
type Trapezoid struct {
	TopLeftX     float64 `yaml:"top_left"`
	TopRightX    float64 `yaml:"top_right"`
	BottomLeftX  float64 `yaml:"bottom_left"`
	BottomRightX float64 `yaml:"bottom_right"`
}

// Centered builds a trapezoid from the widths of its top and bottom edges,
// both centered in the rectangle.
func Centered(topWidth, bottomWidth float64) Trapezoid {
	topLeft := (1 - topWidth) / 2
	bottomLeft := (1 - bottomWidth) / 2
	return Trapezoid{
		TopLeftX:     topLeft,
		TopRightX:    topLeft + topWidth,
		BottomLeftX:  bottomLeft,
		BottomRightX: bottomLeft + bottomWidth,
	}
}

// Rect covers the whole bounding rectangle.
var Rect = Trapezoid{TopLeftX: 0, TopRightX: 1, BottomLeftX: 0, BottomRightX: 1}

// Outline returns the corners in order top-left, top-right, bottom-right,
// bottom-left for a rectangle of the given size.
func (t Trapezoid) Outline(size Size) Outline {
	w, h := size.Width, size.Height
	return Outline{
		{X: w * t.TopLeftX, Y: 0},
		{X: w * t.TopRightX, Y: 0},
		{X: w * t.BottomRightX, Y: h},
		{X: w * t.BottomLeftX, Y: h},
	}
}

// Outline is a closed quadrilateral; the edge from the last point back to
// the first is implicit.
type Outline [4]Point

// Closed returns the path with the first point repeated at the end.
func (o Outline) Closed() []Point {
	return []Point{o[0], o[1], o[2], o[3], o[0]}
}

func (o Outline) Area() float64 {
	var sum float64
	for i := range o {
		j := (i + 1) % len(o)
		sum += o[i].X*o[j].Y - o[j].X*o[i].Y
	}
	return math.Abs(sum) / 2
}

func (o Outline) Bounds() (min, max Point) {
	min, max = o[0], o[0]
	for _, p := range o[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Contains reports whether p lies inside the outline (even-odd rule).
// Outlines with no height or no width contain nothing. Crossed ratios give a
// bow-tie whose two halves both count.
func (o Outline) Contains(p Point) bool {
	lo, hi := o.Bounds()
	if hi.X == lo.X || hi.Y == lo.Y {
		return false
	}
	inside := false
	for i, j := 0, len(o)-1; i < len(o); j, i = i, i+1 {
		a, b := o[i], o[j]
		if (a.Y > p.Y) == (b.Y > p.Y) {
			continue
		}
		x := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
		if p.X < x {
			inside = !inside
		}
	}
	return inside
}
