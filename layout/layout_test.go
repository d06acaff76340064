package layout

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agogo/shape"
)

func TestDefaultValid(t *testing.T) {
	l := Default()
	if err := l.Validate(); err != nil {
		t.Fatal(err)
	}
	var order []int
	for _, r := range l.Regions {
		order = append(order, r.Mouth)
		if r.Trapezoid != Mouth {
			t.Errorf("mouth %d trapezoid = %+v", r.Mouth, r.Trapezoid)
		}
	}
	if want := []int{4, 3, 2, 1}; !equalInts(order, want) {
		t.Errorf("draw order = %v, want %v", order, want)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestHitTestCenters(t *testing.T) {
	l := Default()
	canvases := []shape.Size{
		Reference,
		{Width: 1800, Height: 1200},
		{Width: 1800, Height: 600}, // letterboxed horizontally
	}
	for _, canvas := range canvases {
		f := l.Frame(canvas)
		for _, r := range l.Regions {
			p := shape.Point{
				X: f.Center.X + r.Offset.X*f.Scale,
				Y: f.Center.Y + r.Offset.Y*f.Scale,
			}
			if got := l.HitTest(p, canvas); got != r.Mouth {
				t.Errorf("canvas %v: center of mouth %d hit %d", canvas, r.Mouth, got)
			}
		}
	}
}

func TestHitTestMisses(t *testing.T) {
	l := Default()
	for _, p := range []shape.Point{{X: 10, Y: 10}, {X: 450, Y: 590}, {X: -5, Y: 300}} {
		if got := l.HitTest(p, Reference); got != 0 {
			t.Errorf("HitTest(%v) = %d, want 0", p, got)
		}
	}
	if got := l.HitTest(shape.Point{X: 450, Y: 300}, shape.Size{}); got != 0 {
		t.Errorf("empty canvas hit %d", got)
	}
}

func TestHitTestRespectsTrapezoid(t *testing.T) {
	l := Default()
	r, _ := l.Region(1)
	f := l.Frame(Reference)

	// Inside the box, beside the narrow edge.
	corner := f.Canvas(r, shape.Point{X: 3, Y: 3})
	if got := l.HitTest(corner, Reference); got != 0 {
		t.Errorf("box corner hit %d, want 0", got)
	}
	// Same height, on the axis.
	edge := f.Canvas(r, shape.Point{X: r.Size.Width / 2, Y: 3})
	if got := l.HitTest(edge, Reference); got != 1 {
		t.Errorf("narrow edge hit %d, want 1", got)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	l := Default()
	canvas := shape.Size{Width: 1234, Height: 777}
	f := l.Frame(canvas)
	for _, r := range l.Regions {
		p := shape.Point{X: 17, Y: 42}
		back := f.Local(r, f.Canvas(r, p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("mouth %d: %v -> %v", r.Mouth, p, back)
		}
	}
}

func TestLaterRegionWins(t *testing.T) {
	box := shape.Size{Width: 100, Height: 100}
	l := &Layout{
		Canvas: Reference,
		Regions: []Region{
			{Mouth: 1, Size: box, Trapezoid: shape.Rect},
			{Mouth: 2, Size: box, Trapezoid: shape.Rect},
			{Mouth: 3, Offset: shape.Point{X: 300}, Size: box, Trapezoid: shape.Rect},
			{Mouth: 4, Offset: shape.Point{X: -300}, Size: box, Trapezoid: shape.Rect},
		},
	}
	if got := l.HitTest(shape.Point{X: 450, Y: 300}, Reference); got != 2 {
		t.Errorf("overlap hit %d, want 2", got)
	}
	if _, ok := l.RegionAt(shape.Point{X: 0, Y: 0}, Reference); ok {
		t.Error("RegionAt reported a miss as a hit")
	}
}

func TestParsePartial(t *testing.T) {
	data := []byte(`
regions:
  - mouth: 4
    offset: {x: -200, y: 40}
    rotation: 90
  - mouth: 3
    color: "#112233"
  - mouth: 2
    size: {width: 10, height: 20}
  - mouth: 1
    trapezoid: {top_left: 0, top_right: 1, bottom_left: 0.25, bottom_right: 0.75}
`)
	l, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if l.Canvas != Reference {
		t.Errorf("canvas = %v", l.Canvas)
	}
	r4, _ := l.Region(4)
	d4, _ := def.Region(4)
	if r4.Offset != (shape.Point{X: -200, Y: 40}) || r4.Rotation != 90 || r4.Size != d4.Size {
		t.Errorf("mouth 4 = %+v", r4)
	}
	r3, _ := l.Region(3)
	if r3.Color != (Color{R: 0x11, G: 0x22, B: 0x33, A: 0xff}) {
		t.Errorf("mouth 3 color = %v", r3.Color)
	}
	r1, _ := l.Region(1)
	if r1.Trapezoid.BottomLeftX != 0.25 || r1.Trapezoid.TopRightX != 1 {
		t.Errorf("mouth 1 trapezoid = %+v", r1.Trapezoid)
	}
}

func TestParseKeepsExplicitZeros(t *testing.T) {
	data := []byte(`
regions:
  - {mouth: 4}
  - {mouth: 3}
  - {mouth: 2, size: {width: 0, height: 0}}
  - mouth: 1
    color: "#00000000"
    trapezoid: {top_left: 0, top_right: 0, bottom_left: 0, bottom_right: 0}
`)
	l, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	r1, _ := l.Region(1)
	if r1.Color != (Color{}) {
		t.Errorf("mouth 1 color = %v, want transparent", r1.Color)
	}
	if r1.Trapezoid != (shape.Trapezoid{}) {
		t.Errorf("mouth 1 trapezoid = %+v, want zero", r1.Trapezoid)
	}
	r2, _ := l.Region(2)
	if r2.Size != (shape.Size{}) {
		t.Errorf("mouth 2 size = %v, want zero", r2.Size)
	}
	r4, _ := l.Region(4)
	d4, _ := Default().Region(4)
	if r4.Color != d4.Color || r4.Size != d4.Size || r4.Trapezoid != d4.Trapezoid {
		t.Errorf("mouth 4 = %+v, want default color, size and trapezoid", r4)
	}
	if r4.Offset != (shape.Point{}) || r4.Rotation != 0 {
		t.Errorf("mouth 4 offset/rotation = %v/%v, want zero", r4.Offset, r4.Rotation)
	}
}

func TestParseEmptyIsDefault(t *testing.T) {
	l, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Regions) != 4 {
		t.Errorf("regions = %d", len(l.Regions))
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"out of range", "regions: [{mouth: 5}]", "out of range"},
		{"duplicate", "regions: [{mouth: 1}, {mouth: 1}, {mouth: 2}, {mouth: 3}]", "twice"},
		{"missing", "regions: [{mouth: 1}, {mouth: 2}, {mouth: 3}]", "mouth 4 missing"},
		{"negative", "regions: [{mouth: 1, size: {width: -1, height: 3}}, {mouth: 2}, {mouth: 3}, {mouth: 4}]", "negative"},
		{"canvas", "canvas: {width: -10, height: 5}", "canvas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseBadColor(t *testing.T) {
	_, err := Parse([]byte(`regions: [{mouth: 1, color: "green"}]`))
	if err == nil || !strings.Contains(err.Error(), "color") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadWrittenLayout(t *testing.T) {
	data, err := Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "#00ff0066") {
		t.Errorf("colors not written as hex:\n%s", data)
	}
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := shape.Point{X: 450 + 270, Y: 300 + 95}
	if got := l.HitTest(p, Reference); got != 1 {
		t.Errorf("loaded layout hit %d, want 1", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}
