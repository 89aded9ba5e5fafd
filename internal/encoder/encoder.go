// Package encoder owns the video codec instance and produces encoded frames
// plus bitrate telemetry for the session driver.
package encoder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethan/cloudrender-relay/internal/bitrate"
	"github.com/ethan/cloudrender-relay/internal/yuv"
)

var (
	ErrEmptyFrame      = errors.New("encoder: empty raw frame")
	ErrNotInitialized  = errors.New("encoder: not initialized")
	ErrInvalidBitrate  = errors.New("encoder: invalid bitrate")
	ErrInvalidDuration = errors.New("encoder: invalid duration")
)

const (
	sourceMeterWindow  = 60  // source-rate meter, reported as debug info
	encodedMeterWindow = 120 // encoded-rate meter, two seconds at 60 Hz
	ptsStep            = 1   // monotonic integer tick per frame, fixed cadence
)

// PixelFormat describes the raw frame's packed pixel layout.
type PixelFormat int

const (
	PixelFormatBGRA PixelFormat = iota
)

// Backend is the pluggable codec contract. A Backend is owned exclusively by
// one Stage and is rebuilt whenever the frame resolution changes.
//
// Modeled on LanternOps-breeze's agent/internal/remote/desktop/encoder.go
// encoderBackend interface, trimmed of the GPU/D3D11 hooks that have no
// analogue in this server's pipeline.
type Backend interface {
	// Encode consumes one raw frame (already converted to the backend's
	// required pixel layout) and returns the concatenated payload of every
	// codec packet emitted for that frame, in emission order.
	Encode(raw []byte, pts int64) ([]byte, error)
	// RequiresPlanarInput reports whether raw frames must be converted to
	// I420 via internal/yuv before Encode, or whether the backend consumes
	// packed BGRA directly (in which case §4.C is elided for this backend).
	RequiresPlanarInput() bool
	SetBitrate(targetBps, maxBps int) error
	Close() error
	Name() string
}

// BackendFactory constructs a Backend sized to (width, height).
type BackendFactory func(width, height int) (Backend, error)

// Config configures a Stage.
type Config struct {
	Width, Height     int
	InitialBitrateBps int
	PixelFormat       PixelFormat
	// EnableRateReconfig gates the BWE-driven runtime bitrate reconfiguration
	// path described in §9: off by default, mirroring the original
	// implementation's commented-out reconfiguration (held back pending a
	// jitter issue in the peer-state library's BWE interceptor).
	EnableRateReconfig bool
	NewBackend         BackendFactory
}

// EncodedFrame is the output of one Encode call: a concatenated codec
// payload plus the telemetry the session driver needs.
type EncodedFrame struct {
	Payload     []byte
	Duration    time.Duration
	EncodedBps  float64
	CaptureTime time.Time
}

// Stage owns one codec instance parameterized by (width, height), rebuilding
// it whenever the incoming frame resolution changes.
type Stage struct {
	mu sync.Mutex

	cfg     Config
	backend Backend
	width   int
	height  int

	scratch []byte // reusable I420 conversion buffer

	sourceMeter  *bitrate.Meter // raw source payload size, reported as debug info
	encodedMeter *bitrate.Meter // encoder output size, for reporting
	smoother     *bitrate.Smoother

	pts int64
}

// NewStage constructs the encoder stage and its initial backend instance.
func NewStage(cfg Config, now time.Time) (*Stage, error) {
	if cfg.NewBackend == nil {
		return nil, errors.New("encoder: NewBackend factory is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("encoder: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	backend, err := cfg.NewBackend(cfg.Width, cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("encoder: construct backend: %w", err)
	}
	return &Stage{
		cfg:          cfg,
		backend:      backend,
		width:        cfg.Width,
		height:       cfg.Height,
		sourceMeter:  bitrate.NewMeter(sourceMeterWindow),
		encodedMeter: bitrate.NewMeter(encodedMeterWindow),
		smoother:     bitrate.NewSmoother(now),
	}, nil
}

// Size returns the resolution the current backend instance is sized for.
func (s *Stage) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Encode implements the §4.D algorithm: resolution-change detection and
// backend rebuild, optional planar conversion, codec feed, bitrate metering,
// and BWE-driven rate reconfiguration.
func (s *Stage) Encode(raw []byte, width, height int, stride int, duration time.Duration, bweSample *float64, captureTime time.Time) (EncodedFrame, error) {
	if len(raw) == 0 {
		return EncodedFrame{}, ErrEmptyFrame
	}
	if duration <= 0 {
		return EncodedFrame{}, ErrInvalidDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if width != s.width || height != s.height {
		if err := s.rebuildLocked(width, height); err != nil {
			return EncodedFrame{}, err
		}
	}

	if bweSample != nil {
		if s.smoother.Update(*bweSample, captureTime) && s.cfg.EnableRateReconfig {
			target := s.smoother.Target()
			if err := s.backend.SetBitrate(int(target*0.8), int(target)); err != nil {
				return EncodedFrame{}, fmt.Errorf("encoder: rate reconfig: %w", err)
			}
		}
	}

	input := raw
	var wantCRC16 uint16
	var wantCRC8 uint8
	planar := s.backend.RequiresPlanarInput()
	if planar {
		need := yuv.I420Size(width, height)
		if cap(s.scratch) < need {
			s.scratch = make([]byte, need)
		}
		s.scratch = s.scratch[:need]
		yuv.BGRAToI420(s.scratch, raw, width, height, stride)
		input = s.scratch
		wantCRC16, wantCRC8 = scratchChecksum(s.scratch)
	}

	s.pts += ptsStep
	payload, err := s.backend.Encode(input, s.pts)
	if err != nil {
		return EncodedFrame{}, fmt.Errorf("encoder: encode: %w", err)
	}

	if planar {
		if err := checkScratchIntegrity(s.scratch, wantCRC16, wantCRC8); err != nil {
			return EncodedFrame{}, err
		}
	}

	s.sourceMeter.Push(len(raw), captureTime)
	s.encodedMeter.Push(len(payload), captureTime)

	return EncodedFrame{
		Payload:     payload,
		Duration:    duration,
		EncodedBps:  s.encodedMeter.Rate(captureTime),
		CaptureTime: captureTime,
	}, nil
}

// SourceRateBps returns the current source (pre-encode) bitrate estimate,
// which the Runner reports to the frame source as DebugInfo.EstimatedBps.
func (s *Stage) SourceRateBps(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sourceMeter.Rate(now)
}

// Close releases the current backend instance.
func (s *Stage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	err := s.backend.Close()
	s.backend = nil
	return err
}

// rebuildLocked discards the current backend and constructs a new one sized
// to (width, height). Caller must hold mu.
func (s *Stage) rebuildLocked(width, height int) error {
	next, err := s.cfg.NewBackend(width, height)
	if err != nil {
		return fmt.Errorf("encoder: rebuild backend for %dx%d: %w", width, height, err)
	}
	if s.backend != nil {
		_ = s.backend.Close()
	}
	s.backend = next
	s.width = width
	s.height = height
	return nil
}
