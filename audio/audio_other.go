//go:build !linux

package audio

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoContext struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoContext{ctx: ctx}, nil
}

func (m *malgoContext) Devices() ([]DeviceInfo, error) {
	devices, err := m.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	var result []DeviceInfo
	for _, d := range devices {
		result = append(result, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return result, nil
}

func (m *malgoContext) NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error) {
	config = config.withDefaults()
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = Channels
	deviceConfig.SampleRate = config.SampleRate
	deviceConfig.PeriodSizeInMilliseconds = uint32(config.Latency.Milliseconds())

	if device != nil {
		idBytes, err := hex.DecodeString(device.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid device ID: %w", err)
		}
		var devID malgo.DeviceID
		copy(devID[:], idBytes)
		deviceConfig.Playback.DeviceID = devID.Pointer()
	}

	p := &malgoPlayback{info: device}
	callbacks := malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frameCount uint32) {
			p.fill(out, frameCount)
		},
	}

	dev, err := malgo.InitDevice(m.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, err
	}
	p.device = dev
	return p, nil
}

func (m *malgoContext) Close() {
	m.ctx.Uninit()
	m.ctx.Free()
}

type malgoPlayback struct {
	device   *malgo.Device
	info     *DeviceInfo
	callback atomic.Pointer[RenderCallback]

	mu      sync.Mutex
	scratch []int16
	closed  bool
}

func (p *malgoPlayback) fill(out []byte, frameCount uint32) {
	n := int(frameCount) * Channels
	if len(p.scratch) < n {
		p.scratch = make([]int16, n)
	}
	buf := p.scratch[:n]
	render(p.callback.Load(), buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
}

func (p *malgoPlayback) Start() error {
	return p.device.Start()
}

func (p *malgoPlayback) Stop() {
	p.device.Stop()
}

func (p *malgoPlayback) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.device.Uninit()
}

func (p *malgoPlayback) SetCallback(cb RenderCallback) {
	p.callback.Store(&cb)
}

func (p *malgoPlayback) ClearCallback() {
	p.callback.Store(nil)
}

func (p *malgoPlayback) DeviceName() string {
	if p.info != nil {
		return p.info.Name
	}
	return "system default"
}
