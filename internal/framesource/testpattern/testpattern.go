// Package testpattern is a reference frame source implementation: an
// animated color-bar BGRA generator, grounded on original_source's
// FrameImpl/GameSessionImpl solid-color demo generator and extended to a
// moving gradient so cadence and resolution-change scenarios have visibly
// distinct frames.
package testpattern

import (
	"context"
	"time"

	"github.com/ethan/cloudrender-relay/internal/framesource"
)

// Source is the testpattern framesource.Source implementation.
type Source struct{}

// NewSource returns a testpattern Source.
func NewSource() *Source { return &Source{} }

// NewSession implements framesource.Source.
func (s *Source) NewSession(ctx context.Context, width, height int) (framesource.Session, error) {
	return &session{width: width, height: height, start: time.Now()}, nil
}

type session struct {
	width, height int
	start         time.Time
	tick          uint32
	lastDebug     framesource.DebugInfo
}

// RenderFrame fills a BGRA buffer with a moving horizontal gradient keyed
// off the session's tick count, so consecutive frames are distinguishable in
// tests without needing a real renderer.
func (s *session) RenderFrame(ctx context.Context) (framesource.RawFrame, error) {
	s.tick++
	stride := s.width * 4
	data := make([]byte, stride*s.height)
	offset := byte(s.tick % 256)
	for row := 0; row < s.height; row++ {
		for col := 0; col < s.width; col++ {
			i := row*stride + col*4
			data[i+0] = byte(col) + offset  // B
			data[i+1] = byte(row) + offset  // G
			data[i+2] = offset              // R
			data[i+3] = 255                 // A
		}
	}
	return framesource.RawFrame{
		Data:   data,
		Width:  s.width,
		Height: s.height,
		Stride: stride,
		Time:   time.Now(),
	}, nil
}

// Resize updates the session's output resolution.
func (s *session) Resize(ctx context.Context, width, height int) error {
	s.width, s.height = width, height
	return nil
}

// SendDebugInfo records the latest telemetry; exposed via LastDebugInfo for
// tests and diagnostics overlays.
func (s *session) SendDebugInfo(info framesource.DebugInfo) {
	s.lastDebug = info
}

// LastDebugInfo returns the most recently reported telemetry.
func (s *session) LastDebugInfo() framesource.DebugInfo {
	return s.lastDebug
}
