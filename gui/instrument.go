//go:build gui

package gui

import (
	"image"
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"agogo/layout"
	"agogo/shape"
	"agogo/sound"
)

const flashTime = 150 * time.Millisecond

// Instrument is the image screen: an optional background picture with the
// mouth regions on top. Tapping a region fires its trigger.
type Instrument struct {
	widget.BaseWidget
	layout     *layout.Layout
	triggers   [sound.Mouths]func()
	background string

	mu      sync.Mutex
	overlay bool
	flash   [sound.Mouths + 1]time.Time
	stopCh  chan struct{}
}

func NewInstrument(l *layout.Layout, triggers [sound.Mouths]func(), background string, overlay bool) *Instrument {
	i := &Instrument{
		layout:     l,
		triggers:   triggers,
		background: background,
		overlay:    overlay,
		stopCh:     make(chan struct{}),
	}
	i.ExtendBaseWidget(i)
	go i.animate()
	return i
}

func (i *Instrument) SetOverlay(on bool) {
	i.mu.Lock()
	i.overlay = on
	i.mu.Unlock()
	fyne.Do(i.Refresh)
}

// Flash highlights a mouth briefly. Safe from any goroutine.
func (i *Instrument) Flash(mouth int) {
	if mouth < 1 || mouth > sound.Mouths {
		return
	}
	i.mu.Lock()
	i.flash[mouth] = time.Now()
	i.mu.Unlock()
}

func (i *Instrument) Tapped(ev *fyne.PointEvent) {
	size := i.Size()
	p := shape.Point{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	mouth := i.layout.HitTest(p, shape.Size{Width: float64(size.Width), Height: float64(size.Height)})
	if mouth == 0 {
		return
	}
	i.triggers[mouth-1]()
}

func (i *Instrument) Stop() {
	select {
	case <-i.stopCh:
	default:
		close(i.stopCh)
	}
}

func (i *Instrument) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	wasLit := false
	for {
		select {
		case <-i.stopCh:
			return
		case <-ticker.C:
			lit := i.anyFlash(time.Now())
			if lit || wasLit {
				fyne.Do(i.Refresh)
			}
			wasLit = lit
		}
	}
}

func (i *Instrument) anyFlash(now time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, t := range i.flash[1:] {
		if now.Sub(t) < flashTime {
			return true
		}
	}
	return false
}

func (i *Instrument) MinSize() fyne.Size {
	return fyne.NewSize(float32(layout.Reference.Width)/2, float32(layout.Reference.Height)/2)
}

func (i *Instrument) CreateRenderer() fyne.WidgetRenderer {
	r := &instrumentRenderer{inst: i}
	if i.background != "" {
		r.image = canvas.NewImageFromFile(i.background)
		r.image.FillMode = canvas.ImageFillContain
	}
	r.raster = canvas.NewRaster(r.draw)
	return r
}

type instrumentRenderer struct {
	inst   *Instrument
	image  *canvas.Image
	raster *canvas.Raster
}

func (r *instrumentRenderer) Layout(size fyne.Size) {
	if r.image != nil {
		r.image.Resize(size)
	}
	r.raster.Resize(size)
}

func (r *instrumentRenderer) MinSize() fyne.Size {
	return r.inst.MinSize()
}

func (r *instrumentRenderer) Refresh() {
	r.raster.Refresh()
}

func (r *instrumentRenderer) Objects() []fyne.CanvasObject {
	if r.image != nil {
		return []fyne.CanvasObject{r.image, r.raster}
	}
	return []fyne.CanvasObject{r.raster}
}

func (r *instrumentRenderer) Destroy() {
	r.inst.Stop()
}

// draw paints each region inside its canvas bounding box, in draw order, so
// the picture matches what HitTest reports.
func (r *instrumentRenderer) draw(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	r.inst.mu.Lock()
	overlay := r.inst.overlay
	flash := r.inst.flash
	r.inst.mu.Unlock()

	now := time.Now()
	l := r.inst.layout
	f := l.Frame(shape.Size{Width: float64(w), Height: float64(h)})
	for _, reg := range l.Regions {
		c := color.NRGBA(reg.Color)
		lit := now.Sub(flash[reg.Mouth]) < flashTime
		switch {
		case lit:
			c.A = 0xcc
		case !overlay:
			continue
		}

		outline := reg.Outline()
		minX, minY, maxX, maxY := canvasBounds(f, reg, outline, w, h)
		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				p := f.Local(reg, shape.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
				if outline.Contains(p) {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img
}

func canvasBounds(f layout.Frame, reg layout.Region, o shape.Outline, w, h int) (minX, minY, maxX, maxY int) {
	lo := shape.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := shape.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, corner := range o {
		p := f.Canvas(reg, corner)
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	minX = max(0, int(math.Floor(lo.X)))
	minY = max(0, int(math.Floor(lo.Y)))
	maxX = min(w, int(math.Ceil(hi.X)))
	maxY = min(h, int(math.Ceil(hi.Y)))
	return
}
