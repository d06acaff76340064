package asset

import (
	"fmt"
	"math"
	"sync"

	"agogo/sound"
)

const (
	ToneSampleRate = 44100
	toneDuration   = 0.7
	toneVolume     = 0.6
)

// Fundamental of each mouth. Mouth 1 is the smallest bell and the highest.
var toneFreqs = [sound.Mouths]float64{1320, 1040, 830, 660}

// Bell partials relative to the fundamental, with their level and decay.
var partials = []struct {
	ratio float64
	level float64
	decay float64
}{
	{1.0, 1.0, 9},
	{2.0, 0.45, 14},
	{2.76, 0.30, 18},
	{5.40, 0.12, 30},
}

// levelSum normalizes the partial mix to [-1, 1].
const levelSum = 1.0 + 0.45 + 0.30 + 0.12

// GenerateTone synthesizes a metallic strike for the given mouth as 16-bit
// mono samples at ToneSampleRate.
func GenerateTone(mouth int) []int16 {
	freq := toneFreqs[(mouth-1)%sound.Mouths]
	n := int(ToneSampleRate * toneDuration)
	out := make([]int16, n)
	const attack = 0.002
	for i := 0; i < n; i++ {
		t := float64(i) / ToneSampleRate
		var s float64
		for _, p := range partials {
			s += p.level * math.Exp(-t*p.decay) * math.Sin(2*math.Pi*freq*p.ratio*t)
		}
		if t < attack {
			s *= t / attack
		}
		s *= toneVolume / levelSum
		s = math.Max(-1, math.Min(1, s))
		out[i] = int16(s * 32767)
	}
	return out
}

func encodeTone(mouth int) ([]byte, error) {
	enc, err := NewFlac(ToneSampleRate)
	if err != nil {
		return nil, err
	}
	if err := enc.Encode(GenerateTone(mouth)); err != nil {
		return nil, fmt.Errorf("encoding mouth %d: %w", mouth, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("closing mouth %d: %w", mouth, err)
	}
	return enc.Bytes(), nil
}

var (
	defaultsOnce sync.Once
	defaults     [sound.Mouths]sound.Asset
	defaultsErr  error
)

// Defaults returns the synthesized samples, FLAC-encoded in memory.
func Defaults() ([sound.Mouths]sound.Asset, error) {
	defaultsOnce.Do(func() {
		for i := range defaults {
			data, err := encodeTone(i + 1)
			if err != nil {
				defaultsErr = err
				return
			}
			defaults[i] = NewMemory(fmt.Sprintf("sound%d.flac", i+1), data)
		}
	})
	return defaults, defaultsErr
}
