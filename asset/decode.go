package asset

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/wav"
	"github.com/mewkiz/flac"
)

var ErrFormat = errors.New("unsupported sound format")

// PCM is a decoded sample: interleaved stereo frames in [-1, 1].
type PCM struct {
	SampleRate int
	Frames     [][2]float32
}

func (p PCM) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Frames)) / float64(p.SampleRate)
}

// Decode picks a decoder from the extension of name.
func Decode(name string, r io.Reader) (PCM, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".flac":
		return DecodeFLAC(r)
	case ".wav":
		return DecodeWAV(r)
	}
	return PCM{}, fmt.Errorf("%w: %s", ErrFormat, name)
}

func DecodeFLAC(r io.Reader) (PCM, error) {
	stream, err := flac.New(r)
	if err != nil {
		return PCM{}, fmt.Errorf("flac: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	if info.NChannels < 1 || info.BitsPerSample == 0 {
		return PCM{}, fmt.Errorf("flac: invalid stream info")
	}
	scale := float32(int64(1) << (info.BitsPerSample - 1))
	pcm := PCM{SampleRate: int(info.SampleRate)}
	if info.NSamples > 0 {
		pcm.Frames = make([][2]float32, 0, info.NSamples)
	}

	for {
		f, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return PCM{}, fmt.Errorf("flac frame: %w", err)
		}
		left := f.Subframes[0].Samples
		right := left
		if len(f.Subframes) > 1 {
			right = f.Subframes[1].Samples
		}
		for i := 0; i < int(f.BlockSize) && i < len(left); i++ {
			pcm.Frames = append(pcm.Frames, [2]float32{
				float32(left[i]) / scale,
				float32(right[i]) / scale,
			})
		}
	}
	return pcm, nil
}

func DecodeWAV(r io.Reader) (PCM, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return PCM{}, fmt.Errorf("wav: %w", err)
	}
	defer streamer.Close()

	pcm := PCM{SampleRate: int(format.SampleRate)}
	if n := streamer.Len(); n > 0 {
		pcm.Frames = make([][2]float32, 0, n)
	}
	buf := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(buf)
		for _, s := range buf[:n] {
			pcm.Frames = append(pcm.Frames, [2]float32{float32(s[0]), float32(s[1])})
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return PCM{}, fmt.Errorf("wav: %w", err)
	}
	return pcm, nil
}
