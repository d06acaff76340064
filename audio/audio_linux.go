//go:build linux

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

type pulseContext struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient(pulse.ClientApplicationName("agogo"))
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseContext{client: c}, nil
}

func (p *pulseContext) Devices() ([]DeviceInfo, error) {
	sinks, err := p.client.ListSinks()
	if err != nil {
		return nil, fmt.Errorf("pulse list sinks: %w", err)
	}
	var devices []DeviceInfo
	for _, s := range sinks {
		devices = append(devices, DeviceInfo{
			ID:   s.ID(),
			Name: s.Name(),
		})
	}
	return devices, nil
}

func (p *pulseContext) NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	return &pulsePlayback{
		client: p.client,
		device: device,
		config: config.withDefaults(),
	}, nil
}

func (p *pulseContext) Close() {
	p.client.Close()
}

type pulsePlayback struct {
	client   *pulse.Client
	device   *DeviceInfo
	config   PlaybackConfig
	callback atomic.Pointer[RenderCallback]

	stream *pulse.PlaybackStream
	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
}

func (c *pulsePlayback) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}

	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		// Pulse may ask for an odd count; keep frames whole.
		n := len(buf) &^ 1
		render(c.callback.Load(), buf[:n])
		return n, nil
	})

	opts := []pulse.PlaybackOption{
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(int(c.config.SampleRate)),
		pulse.PlaybackLatency(c.config.Latency.Seconds()),
		pulse.PlaybackMediaName("agogo"),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	}
	if c.device != nil {
		sink, err := c.client.SinkByID(c.device.ID)
		if err == nil && sink != nil {
			opts = append(opts, pulse.PlaybackSink(sink))
		}
	}

	stream, err := c.client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("pulse playback: %w", err)
	}

	c.stream = stream
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		stream.Start()
		<-c.stop
		stream.Stop()
		stream.Close()
	}()

	return nil
}

func (c *pulsePlayback) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		select {
		case <-c.stop:
		default:
			close(c.stop)
		}
		<-c.done
		c.stream = nil
	}
}

func (c *pulsePlayback) Close() {
	c.Stop()
}

func (c *pulsePlayback) SetCallback(cb RenderCallback) {
	c.callback.Store(&cb)
}

func (c *pulsePlayback) ClearCallback() {
	c.callback.Store(nil)
}

func (c *pulsePlayback) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "system default"
}
