package audio

import (
	"sync"
	"time"
)

const fakeFrameSize = 1024

// FakeContext is an output that renders into memory. With realtime set, each
// playback pulls fakeFrameSize frames at the pace a sound card would;
// otherwise frames are pulled only through Render.
type FakeContext struct {
	realtime bool

	mu        sync.Mutex
	playbacks []*FakePlayback
	closed    bool
}

func NewFakeContext(realtime bool) *FakeContext {
	return &FakeContext{realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *FakeContext) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeContext) NewPlayback(_ *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	p := &FakePlayback{config: config.withDefaults(), realtime: f.realtime}
	f.mu.Lock()
	f.playbacks = append(f.playbacks, p)
	f.mu.Unlock()
	return p, nil
}

// Playbacks returns every device opened on this context.
func (f *FakeContext) Playbacks() []*FakePlayback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakePlayback(nil), f.playbacks...)
}

type FakePlayback struct {
	config   PlaybackConfig
	realtime bool

	mu       sync.Mutex
	cb       RenderCallback
	running  bool
	starts   int
	stops    int
	closes   int
	rendered int
	loud     int
	peak     int16
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakePlayback) SetCallback(cb RenderCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakePlayback) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakePlayback) HasCallback() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb != nil
}

func (f *FakePlayback) DeviceName() string { return "fake" }

// Render pulls frames from the callback as the output thread would and
// returns the interleaved stereo samples.
func (f *FakePlayback) Render(frames int) []int16 {
	buf := make([]int16, frames*Channels)
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(buf)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rendered += frames
	for i := 0; i < len(buf); i += Channels {
		l, r := abs16(buf[i]), abs16(buf[i+1])
		if l > 0 || r > 0 {
			f.loud++
		}
		f.peak = max(f.peak, l, r)
	}
	return buf
}

func abs16(s int16) int16 {
	if s < 0 {
		if s == -32768 {
			return 32767
		}
		return -s
	}
	return s
}

// FakeStats summarizes what a fake output has been asked to do.
type FakeStats struct {
	Starts, Stops, Closes int
	Rendered              int // frames pulled
	Loud                  int // frames with any non-zero sample
	Peak                  int16
}

func (f *FakePlayback) Stats() FakeStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FakeStats{
		Starts:   f.starts,
		Stops:    f.stops,
		Closes:   f.closes,
		Rendered: f.rendered,
		Loud:     f.loud,
		Peak:     f.peak,
	}
}

func (f *FakePlayback) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *FakePlayback) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.running {
		return nil
	}
	f.running = true
	if !f.realtime {
		return nil
	}

	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	interval := time.Duration(fakeFrameSize) * time.Second / time.Duration(f.config.SampleRate)
	stop, done := f.stopCh, f.feedDone
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				f.Render(fakeFrameSize)
			}
		}
	}()
	return nil
}

func (f *FakePlayback) Stop() {
	f.mu.Lock()
	f.stops++
	stop, done := f.stopCh, f.feedDone
	f.stopCh, f.feedDone = nil, nil
	f.running = false
	f.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (f *FakePlayback) Close() {
	f.Stop()
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
}
