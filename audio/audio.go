// Package audio opens platform playback outputs behind one contract: a device
// pulls interleaved 16-bit stereo frames from a render callback.
package audio

import (
	"strings"
	"time"
)

const (
	DefaultSampleRate = 44100
	Channels          = 2
)

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the name whether an output adds wireless latency.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// RenderCallback fills buf with interleaved stereo samples. It runs on the
// output's goroutine and must not block.
type RenderCallback func(buf []int16)

type PlaybackConfig struct {
	SampleRate uint32
	Latency    time.Duration
}

func (c PlaybackConfig) withDefaults() PlaybackConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Latency <= 0 {
		c.Latency = 50 * time.Millisecond
	}
	return c
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewPlayback(device *DeviceInfo, config PlaybackConfig) (PlaybackDevice, error)
	Close()
}

type PlaybackDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb RenderCallback)
	ClearCallback()
	DeviceName() string
}

// render calls cb or writes silence when none is installed.
func render(cb *RenderCallback, buf []int16) {
	if cb == nil {
		clear(buf)
		return
	}
	(*cb)(buf)
}
