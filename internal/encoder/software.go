package encoder

import (
	"errors"
	"sync"
)

// softwareBackend is a placeholder passthrough backend, used by default and
// in tests. A real deployment registers a hardware/x264-style factory in its
// place; modeled on LanternOps-breeze's
// agent/internal/remote/desktop/encoder_software.go, which carries the same
// "placeholder until real bindings are integrated" shape.
type softwareBackend struct {
	mu            sync.Mutex
	width, height int
	targetBps     int
	maxBps        int
}

// NewSoftwareBackend is a BackendFactory producing the placeholder backend.
func NewSoftwareBackend(width, height int) (Backend, error) {
	return &softwareBackend{width: width, height: height}, nil
}

func (b *softwareBackend) Encode(raw []byte, pts int64) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("softwareBackend: empty frame")
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// RequiresPlanarInput is true for the placeholder so the §4.C converter path
// is exercised by default; a packed-BGRA-native backend would return false
// and elide the conversion entirely, per §4.C's last sentence.
func (b *softwareBackend) RequiresPlanarInput() bool { return true }

func (b *softwareBackend) SetBitrate(targetBps, maxBps int) error {
	if targetBps <= 0 || maxBps <= 0 {
		return ErrInvalidBitrate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targetBps, b.maxBps = targetBps, maxBps
	return nil
}

func (b *softwareBackend) Close() error { return nil }

func (b *softwareBackend) Name() string { return "software" }
