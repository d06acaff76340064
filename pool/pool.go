// Package pool is a fixed-capacity short-sound-effect player. Samples are
// decoded in the background after Load; Play mixes them into a single
// playback device with per-stream volume, loop, rate and priority.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"agogo/asset"
	"agogo/audio"
	"agogo/sound"
)

const (
	MinRate = 0.5
	MaxRate = 2.0
)

var ErrReleased = errors.New("pool released")

type Usage int

const (
	UsageMedia Usage = iota
	UsageGame
	UsageNotification
)

type ContentType int

const (
	ContentMusic ContentType = iota
	ContentSonification
)

// Attributes describe what the pool plays; they pick the output buffer size.
type Attributes struct {
	Usage   Usage
	Content ContentType
}

func (a Attributes) latency() time.Duration {
	if a.Content == ContentSonification || a.Usage == UsageGame {
		return 20 * time.Millisecond
	}
	return 50 * time.Millisecond
}

type Config struct {
	MaxStreams int
	SampleRate int
	Attributes Attributes
	Logger     sound.Logger
}

// DefaultConfig is one stream per mouth, tuned for short percussive samples.
var DefaultConfig = Config{
	MaxStreams: sound.MaxStreams,
	SampleRate: audio.DefaultSampleRate,
	Attributes: Attributes{Usage: UsageMedia, Content: ContentSonification},
}

// PlaybackConfig is the output configuration matching cfg.
func (c Config) PlaybackConfig() audio.PlaybackConfig {
	c = c.withDefaults()
	return audio.PlaybackConfig{
		SampleRate: uint32(c.SampleRate),
		Latency:    c.Attributes.latency(),
	}
}

func (c Config) withDefaults() Config {
	if c.MaxStreams <= 0 {
		c.MaxStreams = DefaultConfig.MaxStreams
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultConfig.SampleRate
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
	return c
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type sample struct {
	name  string
	pcm   asset.PCM
	ready bool
	err   error
}

type stream struct {
	id       sound.StreamID
	sample   *sample
	pos      float64
	step     float64
	left     float32
	right    float32
	priority int
	loop     int
	seq      uint64
}

type Pool struct {
	cfg Config
	out audio.PlaybackDevice
	log sound.Logger

	mu         sync.Mutex
	samples    map[sound.Handle]*sample
	nextHandle sound.Handle
	streams    []*stream
	nextStream sound.StreamID
	seq        uint64
	released   bool
	mix        [][2]float32

	loading sync.WaitGroup
	once    sync.Once
}

var _ sound.Backend = (*Pool)(nil)

// New installs the mixer on out and starts it. The pool owns out from here
// on and closes it in Release.
func New(out audio.PlaybackDevice, cfg Config) (*Pool, error) {
	cfg = cfg.withDefaults()
	p := &Pool{
		cfg:     cfg,
		out:     out,
		log:     cfg.Logger,
		samples: make(map[sound.Handle]*sample),
	}
	out.SetCallback(p.render)
	if err := out.Start(); err != nil {
		out.ClearCallback()
		out.Close()
		return nil, fmt.Errorf("starting output %s: %w", out.DeviceName(), err)
	}
	return p, nil
}

// Load opens a synchronously and decodes it in the background. The handle
// is playable once decoding finishes.
func (p *Pool) Load(a sound.Asset, priority int) (sound.Handle, error) {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return 0, ErrReleased
	}
	p.mu.Unlock()

	rc, err := a.Open()
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", a.Name(), err)
	}

	p.mu.Lock()
	p.nextHandle++
	h := p.nextHandle
	s := &sample{name: a.Name()}
	p.samples[h] = s
	p.mu.Unlock()

	p.loading.Add(1)
	go func() {
		defer p.loading.Done()
		defer rc.Close()
		start := time.Now()
		pcm, err := asset.Decode(a.Name(), rc)
		if err == nil && pcm.SampleRate <= 0 {
			err = fmt.Errorf("invalid sample rate %d", pcm.SampleRate)
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			s.err = err
			p.log.Warnf("decoding %s: %v", a.Name(), err)
			return
		}
		s.pcm = pcm
		s.ready = true
		p.log.Debugf("loaded %s as handle %d: %d frames at %d Hz in %s",
			a.Name(), h, len(pcm.Frames), pcm.SampleRate, time.Since(start).Round(time.Millisecond))
	}()
	return h, nil
}

// Loaded reports whether h has finished decoding successfully.
func (p *Pool) Loaded(h sound.Handle) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.samples[h]
	return s != nil && s.ready
}

// WaitLoaded blocks until every Load so far has finished decoding and
// returns the decode failures, if any.
func (p *Pool) WaitLoaded(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.loading.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for h := sound.Handle(1); h <= p.nextHandle; h++ {
		if s := p.samples[h]; s != nil && s.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, s.err))
		}
	}
	return errors.Join(errs...)
}

// Play starts h and returns its stream id, or 0 when h is unknown, not yet
// decoded, or every stream is taken by a higher-priority sound. loop is the
// number of extra repeats; -1 loops until Stop. rate is clamped to
// [MinRate, MaxRate].
func (p *Pool) Play(h sound.Handle, left, right float32, priority, loop int, rate float32) sound.StreamID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return 0
	}
	s := p.samples[h]
	if s == nil || !s.ready || len(s.pcm.Frames) == 0 {
		return 0
	}

	if len(p.streams) >= p.cfg.MaxStreams {
		victim := p.stealable()
		if victim < 0 || p.streams[victim].priority > priority {
			return 0
		}
		p.log.Debugf("stream %d stolen by handle %d", p.streams[victim].id, h)
		p.streams = append(p.streams[:victim], p.streams[victim+1:]...)
	}

	if loop < -1 {
		loop = -1
	}
	p.nextStream++
	p.seq++
	st := &stream{
		id:       p.nextStream,
		sample:   s,
		step:     float64(clampRate(rate)) * float64(s.pcm.SampleRate) / float64(p.cfg.SampleRate),
		left:     clampVolume(left),
		right:    clampVolume(right),
		priority: priority,
		loop:     loop,
		seq:      p.seq,
	}
	p.streams = append(p.streams, st)
	return st.id
}

// stealable returns the index of the oldest stream among those with the
// lowest priority.
func (p *Pool) stealable() int {
	best := -1
	for i, st := range p.streams {
		if best < 0 {
			best = i
			continue
		}
		b := p.streams[best]
		if st.priority < b.priority || (st.priority == b.priority && st.seq < b.seq) {
			best = i
		}
	}
	return best
}

// Stop ends a stream early. Unknown or finished streams are ignored.
func (p *Pool) Stop(id sound.StreamID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, st := range p.streams {
		if st.id == id {
			p.streams = append(p.streams[:i], p.streams[i+1:]...)
			return
		}
	}
}

// Active returns the number of streams still sounding.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.streams)
}

// Release stops all streams and closes the output. Safe to call more than
// once.
func (p *Pool) Release() {
	p.once.Do(func() {
		p.mu.Lock()
		p.released = true
		p.streams = nil
		p.mu.Unlock()

		p.out.ClearCallback()
		p.out.Stop()
		p.out.Close()
	})
}

// render is the output callback: it mixes every active stream into buf.
func (p *Pool) render(buf []int16) {
	frames := len(buf) / audio.Channels

	p.mu.Lock()
	defer p.mu.Unlock()
	if cap(p.mix) < frames {
		p.mix = make([][2]float32, frames)
	}
	mix := p.mix[:frames]
	clear(mix)

	live := p.streams[:0]
	for _, st := range p.streams {
		if st.advance(mix) {
			live = append(live, st)
		}
	}
	clear(p.streams[len(live):])
	p.streams = live

	for i, f := range mix {
		buf[i*2] = toInt16(f[0])
		buf[i*2+1] = toInt16(f[1])
	}
}

// advance adds the stream's next len(mix) frames and reports whether it is
// still playing.
func (st *stream) advance(mix [][2]float32) bool {
	src := st.sample.pcm.Frames
	n := float64(len(src))
	if n == 0 {
		return false
	}
	for i := range mix {
		// A step longer than the sample wraps more than once; each wrap is
		// one repeat.
		for st.pos >= n {
			if st.loop == 0 {
				return false
			}
			if st.loop > 0 {
				st.loop--
			}
			st.pos -= n
		}
		idx := int(st.pos)
		frac := float32(st.pos - float64(idx))
		cur := src[idx]
		next := cur
		if idx+1 < len(src) {
			next = src[idx+1]
		}
		l := cur[0] + (next[0]-cur[0])*frac
		r := cur[1] + (next[1]-cur[1])*frac
		mix[i][0] += l * st.left
		mix[i][1] += r * st.right
		st.pos += st.step
	}
	return st.pos < n || st.loop != 0
}

// NaN volume is silence.
func clampVolume(v float32) float32 {
	if v != v {
		return 0
	}
	return max(0, min(1, v))
}

// NaN rate is normal speed.
func clampRate(r float32) float32 {
	if r != r {
		return 1
	}
	return max(MinRate, min(MaxRate, r))
}

func toInt16(v float32) int16 {
	v = max(-1, min(1, v))
	return int16(v * 32767)
}
