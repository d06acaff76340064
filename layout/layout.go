// Package layout places the four mouth regions over the instrument image and
// maps screen points to mouths.
package layout

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"agogo/shape"
	"agogo/sound"
)

// Reference is the canvas the default offsets and sizes were measured on.
var Reference = shape.Size{Width: 900, Height: 600}

// Mouth is the trapezoid cut of every default region: a narrow top edge
// opening to the full bottom edge.
var Mouth = shape.Trapezoid{TopLeftX: 0.35, TopRightX: 0.65, BottomLeftX: 0, BottomRightX: 1}

var ErrInvalid = errors.New("invalid layout")

// Color is an RGBA overlay tint, written as "#rrggbbaa" in layout files.
type Color color.NRGBA

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}

func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*c = parsed
	return nil
}

// ParseColor accepts #rrggbb or #rrggbbaa. Without alpha the color is fully
// opaque.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// Region is one mouth's tap area. The box is centered on the canvas center
// plus Offset, rotated clockwise by Rotation degrees about its own center,
// and cut by Trapezoid.
type Region struct {
	Mouth     int             `yaml:"mouth"`
	Offset    shape.Point     `yaml:"offset"`
	Rotation  float64         `yaml:"rotation"`
	Size      shape.Size      `yaml:"size"`
	Trapezoid shape.Trapezoid `yaml:"trapezoid"`
	Color     Color           `yaml:"color"`
}

// Outline is the region's trapezoid in its own unrotated box.
func (r Region) Outline() shape.Outline {
	return r.Trapezoid.Outline(r.Size)
}

type Layout struct {
	Canvas  shape.Size `yaml:"canvas"`
	Regions []Region   `yaml:"regions"` // draw order; later regions are on top
}

// Default is the placement of the original instrument: mouths drawn from the
// biggest (4, green) to the smallest (1, yellow).
func Default() *Layout {
	return &Layout{
		Canvas: Reference,
		Regions: []Region{
			{Mouth: 4, Offset: shape.Point{X: -210, Y: 50}, Rotation: 120, Size: shape.Size{Width: 190, Height: 350}, Trapezoid: Mouth, Color: Color{R: 0x00, G: 0xff, B: 0x00, A: 0x66}},
			{Mouth: 3, Offset: shape.Point{X: -40, Y: -30}, Rotation: 157, Size: shape.Size{Width: 230, Height: 280}, Trapezoid: Mouth, Color: Color{R: 0xff, G: 0x00, B: 0x00, A: 0x66}},
			{Mouth: 2, Offset: shape.Point{X: 160, Y: -10}, Rotation: -155, Size: shape.Size{Width: 190, Height: 260}, Trapezoid: Mouth, Color: Color{R: 0x00, G: 0x00, B: 0xff, A: 0x66}},
			{Mouth: 1, Offset: shape.Point{X: 270, Y: 95}, Rotation: -118, Size: shape.Size{Width: 140, Height: 260}, Trapezoid: Mouth, Color: Color{R: 0xff, G: 0xff, B: 0x00, A: 0x66}},
		},
	}
}

// Load reads a YAML layout. Fields left out fall back to the default region
// of the same mouth.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	l.fillDefaults()
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) fillDefaults() {
	def := Default()
	if l.Canvas == (shape.Size{}) {
		l.Canvas = def.Canvas
	}
	if len(l.Regions) == 0 {
		l.Regions = def.Regions
	}
}

// UnmarshalYAML starts from the default region of the same mouth, so only the
// keys present in the file override it. An explicit zero, such as a fully
// transparent color, is kept. Offset and rotation start at zero.
func (r *Region) UnmarshalYAML(n *yaml.Node) error {
	type plain Region
	var head struct {
		Mouth int `yaml:"mouth"`
	}
	if err := n.Decode(&head); err != nil {
		return err
	}
	var p plain
	if d, ok := Default().Region(head.Mouth); ok {
		p = plain(d)
		p.Offset = shape.Point{}
		p.Rotation = 0
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*r = Region(p)
	return nil
}

// Validate requires one region per mouth, non-negative sizes and a non-empty
// canvas.
func (l *Layout) Validate() error {
	if l.Canvas.Width <= 0 || l.Canvas.Height <= 0 {
		return fmt.Errorf("%w: canvas %gx%g", ErrInvalid, l.Canvas.Width, l.Canvas.Height)
	}
	var seen [sound.Mouths + 1]bool
	for _, r := range l.Regions {
		if r.Mouth < 1 || r.Mouth > sound.Mouths {
			return fmt.Errorf("%w: mouth %d out of range 1..%d", ErrInvalid, r.Mouth, sound.Mouths)
		}
		if seen[r.Mouth] {
			return fmt.Errorf("%w: mouth %d listed twice", ErrInvalid, r.Mouth)
		}
		seen[r.Mouth] = true
		if r.Size.Width < 0 || r.Size.Height < 0 {
			return fmt.Errorf("%w: mouth %d has negative size", ErrInvalid, r.Mouth)
		}
		if math.IsNaN(r.Rotation) || math.IsInf(r.Rotation, 0) {
			return fmt.Errorf("%w: mouth %d rotation", ErrInvalid, r.Mouth)
		}
	}
	for m := 1; m <= sound.Mouths; m++ {
		if !seen[m] {
			return fmt.Errorf("%w: mouth %d missing", ErrInvalid, m)
		}
	}
	return nil
}

func (l *Layout) Region(mouth int) (Region, bool) {
	for _, r := range l.Regions {
		if r.Mouth == mouth {
			return r, true
		}
	}
	return Region{}, false
}

// Marshal encodes the layout in the format Load reads.
func (l *Layout) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// Frame fits the layout's canvas into a target canvas, keeping proportions
// and centering.
type Frame struct {
	Center shape.Point
	Scale  float64
}

func (l *Layout) Frame(canvas shape.Size) Frame {
	scale := 0.0
	if l.Canvas.Width > 0 && l.Canvas.Height > 0 {
		scale = math.Min(canvas.Width/l.Canvas.Width, canvas.Height/l.Canvas.Height)
	}
	return Frame{
		Center: shape.Point{X: canvas.Width / 2, Y: canvas.Height / 2},
		Scale:  scale,
	}
}

// Local maps a canvas point into the region's unrotated box, where the
// trapezoid outline lives.
func (f Frame) Local(r Region, p shape.Point) shape.Point {
	if f.Scale == 0 {
		return shape.Point{X: math.NaN(), Y: math.NaN()}
	}
	cx := f.Center.X + r.Offset.X*f.Scale
	cy := f.Center.Y + r.Offset.Y*f.Scale
	dx, dy := p.X-cx, p.Y-cy
	sin, cos := math.Sincos(r.Rotation * math.Pi / 180)
	x := dx*cos + dy*sin
	y := -dx*sin + dy*cos
	return shape.Point{
		X: x/f.Scale + r.Size.Width/2,
		Y: y/f.Scale + r.Size.Height/2,
	}
}

// Canvas maps a point of the region's box to the canvas. It inverts Local.
func (f Frame) Canvas(r Region, p shape.Point) shape.Point {
	x := (p.X - r.Size.Width/2) * f.Scale
	y := (p.Y - r.Size.Height/2) * f.Scale
	sin, cos := math.Sincos(r.Rotation * math.Pi / 180)
	return shape.Point{
		X: f.Center.X + r.Offset.X*f.Scale + x*cos - y*sin,
		Y: f.Center.Y + r.Offset.Y*f.Scale + x*sin + y*cos,
	}
}

// HitTest returns the mouth under p on a canvas of the given size, or 0.
// Overlapping regions resolve to the one drawn last.
func (l *Layout) HitTest(p shape.Point, canvas shape.Size) int {
	f := l.Frame(canvas)
	for i := len(l.Regions) - 1; i >= 0; i-- {
		r := l.Regions[i]
		if r.Outline().Contains(f.Local(r, p)) {
			return r.Mouth
		}
	}
	return 0
}

// RegionAt is HitTest returning the whole region.
func (l *Layout) RegionAt(p shape.Point, canvas shape.Size) (Region, bool) {
	m := l.HitTest(p, canvas)
	if m == 0 {
		return Region{}, false
	}
	return l.Region(m)
}
