package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate uint32
)

type otoContext struct {
	ctx *oto.Context
}

// NewOtoContext opens the shared oto output. oto has no device selection, so
// Devices reports a single default entry.
func NewOtoContext(config PlaybackConfig) (Context, error) {
	config = config.withDefaults()
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(config.SampleRate),
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   config.Latency,
		})
		if otoErr != nil {
			return
		}
		<-ready
		otoRate = config.SampleRate
	})
	if otoErr != nil {
		return nil, fmt.Errorf("oto: %w", otoErr)
	}
	if config.SampleRate != otoRate {
		return nil, fmt.Errorf("oto: context already open at %d Hz", otoRate)
	}
	return &otoContext{ctx: otoCtx}, nil
}

func (o *otoContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "oto", Name: "oto default output"}}, nil
}

func (o *otoContext) NewPlayback(_ *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	if config.SampleRate != 0 && config.SampleRate != otoRate {
		return nil, fmt.Errorf("oto: playback at %d Hz on a %d Hz context", config.SampleRate, otoRate)
	}
	return &otoPlayback{ctx: o.ctx}, nil
}

// Close is a no-op: the oto context lives for the whole process.
func (o *otoContext) Close() {}

type otoPlayback struct {
	ctx      *oto.Context
	callback atomic.Pointer[RenderCallback]

	mu      sync.Mutex
	player  *oto.Player
	scratch []int16
}

// Read adapts the render callback to the io.Reader oto pulls from.
func (p *otoPlayback) Read(b []byte) (int, error) {
	n := len(b) / 4 * Channels
	if len(p.scratch) < n {
		p.scratch = make([]int16, n)
	}
	buf := p.scratch[:n]
	render(p.callback.Load(), buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return n * 2, nil
}

func (p *otoPlayback) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		p.player = p.ctx.NewPlayer(p)
	}
	p.player.Play()
	return nil
}

func (p *otoPlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
}

func (p *otoPlayback) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Close()
		p.player = nil
	}
}

func (p *otoPlayback) SetCallback(cb RenderCallback) {
	p.callback.Store(&cb)
}

func (p *otoPlayback) ClearCallback() {
	p.callback.Store(nil)
}

func (p *otoPlayback) DeviceName() string { return "oto default output" }
