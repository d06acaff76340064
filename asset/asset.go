// Package asset locates, synthesizes and decodes the four mouth samples.
package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"agogo/sound"
)

// Extensions are tried in this order when looking up soundN in a directory.
var Extensions = []string{".flac", ".wav"}

var ErrMissing = errors.New("sound file not found")

// File is a sample stored on disk.
type File string

func (f File) Name() string { return filepath.Base(string(f)) }

func (f File) Open() (io.ReadCloser, error) {
	return os.Open(string(f))
}

// Memory is a sample held in memory (synthesized defaults).
type Memory struct {
	name string
	data []byte
}

func NewMemory(name string, data []byte) Memory {
	return Memory{name: name, data: data}
}

func (m Memory) Name() string { return m.name }

func (m Memory) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m Memory) Bytes() []byte { return m.data }

// Dir returns sound1..sound4 from dir.
func Dir(dir string) ([sound.Mouths]sound.Asset, error) {
	var out [sound.Mouths]sound.Asset
	for i := range out {
		base := fmt.Sprintf("sound%d", i+1)
		found := false
		for _, ext := range Extensions {
			path := filepath.Join(dir, base+ext)
			if st, err := os.Stat(path); err == nil && !st.IsDir() {
				out[i] = File(path)
				found = true
				break
			}
		}
		if !found {
			return out, fmt.Errorf("%w: %s{%s} in %s", ErrMissing, base, strings.Join(Extensions, ","), dir)
		}
	}
	return out, nil
}

// Resolve picks the sample set: dir when non-empty, the synthesized defaults
// otherwise.
func Resolve(dir string) ([sound.Mouths]sound.Asset, error) {
	if dir == "" {
		return Defaults()
	}
	return Dir(dir)
}

// Export writes the synthesized defaults to dir as soundN.flac.
func Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	var written []string
	for i := 1; i <= sound.Mouths; i++ {
		data, err := encodeTone(i)
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, fmt.Sprintf("sound%d.flac", i))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
