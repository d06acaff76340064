// Package sound owns the instrument's short-sound-effect player: it loads the
// four mouth samples once, plays them by mouth id and releases the player
// exactly once.
package sound

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Mouths is the number of mouths on the instrument. Mouth ids run 1..Mouths.
const Mouths = 4

// MaxStreams is the number of overlapping plays the backend must support:
// one per mouth.
const MaxStreams = Mouths

// LoadPriority is passed to Backend.Load for every sample.
const LoadPriority = 1

// Fixed playback parameters for a strike.
const (
	strikeVolume   = 1.0
	strikePriority = 0
	strikeLoop     = 0
	strikeRate     = 1.0
)

var (
	ErrUnknownMouth = errors.New("unknown mouth")
	ErrReleased     = errors.New("sound service released")
	ErrNotPlayed    = errors.New("backend did not start a stream")
)

// Handle identifies a loaded sample inside a Backend. Zero is never a valid
// handle.
type Handle int

// StreamID identifies one playing instance of a Handle. Zero means the play
// request was not honored.
type StreamID int

// Asset is a loadable sound reference.
type Asset interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Backend is the short-sound-effect player the service drives.
type Backend interface {
	Load(a Asset, priority int) (Handle, error)
	Play(h Handle, left, right float32, priority, loop int, rate float32) StreamID
	Release()
}

type State int

const (
	StateReady State = iota + 1
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateReleased:
		return "released"
	}
	return "uninitialized"
}

// Logger receives the service's diagnostics. The log package satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

type Option func(*Service)

func WithLogger(l Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithObserver registers a callback invoked after every successful strike.
func WithObserver(fn func(mouth int, stream StreamID)) Option {
	return func(s *Service) { s.observe = fn }
}

// Service maps mouth ids to loaded samples and fires them on demand.
type Service struct {
	mu       sync.Mutex
	backend  Backend
	bank     [Mouths + 1]Handle // index 0 unused
	released bool
	once     sync.Once
	log      Logger
	observe  func(int, StreamID)
}

// New takes ownership of backend and loads assets[i] as mouth i+1. If any
// load fails the backend is released before the error is returned.
func New(backend Backend, assets [Mouths]Asset, opts ...Option) (*Service, error) {
	s := &Service{backend: backend, log: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}

	for i, a := range assets {
		if a == nil {
			s.Release()
			return nil, fmt.Errorf("mouth %d: no asset", i+1)
		}
		h, err := backend.Load(a, LoadPriority)
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("loading %s for mouth %d: %w", a.Name(), i+1, err)
		}
		s.bank[i+1] = h
	}
	return s, nil
}

// Play strikes the given mouth at full volume on both channels, once, at
// normal rate. It never blocks on playback.
func (s *Service) Play(mouth int) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrReleased
	}
	if mouth < 1 || mouth > Mouths || s.bank[mouth] == 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownMouth, mouth)
	}
	h := s.bank[mouth]
	stream := s.backend.Play(h, strikeVolume, strikeVolume, strikePriority, strikeLoop, strikeRate)
	s.mu.Unlock()

	if stream == 0 {
		return fmt.Errorf("mouth %d: %w", mouth, ErrNotPlayed)
	}
	if s.observe != nil {
		s.observe(mouth, stream)
	}
	return nil
}

// Triggers returns the zero-argument callbacks for mouths 1..4, in order.
func (s *Service) Triggers() [Mouths]func() {
	var out [Mouths]func()
	for i := range out {
		mouth := i + 1
		out[i] = func() {
			if err := s.Play(mouth); err != nil {
				s.log.Debugf("strike ignored: %v", err)
			}
		}
	}
	return out
}

// Release frees the backend. Only the first call has an effect; Play after
// Release returns ErrReleased without touching the backend.
func (s *Service) Release() {
	s.once.Do(func() {
		s.mu.Lock()
		s.released = true
		s.bank = [Mouths + 1]Handle{}
		s.mu.Unlock()
		s.backend.Release()
	})
}

func (s *Service) Close() error {
	s.Release()
	return nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return StateReleased
	}
	return StateReady
}

// Handle returns the handle loaded for a mouth, or 0.
func (s *Service) Handle(mouth int) Handle {
	if mouth < 1 || mouth > Mouths {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bank[mouth]
}
