// Package framesource defines the external frame-source contract consumed
// by the frame pump (§4.H / §6). The game/application providing framebuffers
// is out of scope for this repository's core pipeline; this package only
// defines the interface plus a reference test-pattern implementation used
// for demos and tests.
package framesource

import (
	"context"
	"time"
)

// RawFrame is one packed-BGRA framebuffer as handed to the encoder stage.
type RawFrame struct {
	Data   []byte
	Width  int
	Height int
	Stride int
	Time   time.Time
}

// DebugInfo is the fire-and-forget telemetry the encoder stage reports back
// to the frame source every tick.
type DebugInfo struct {
	CurrentBps   float64
	EstimatedBps float64
}

// Session is one render session's frame-producing side, requested from a
// Source at a given resolution.
type Session interface {
	// RenderFrame produces the next frame; may suspend.
	RenderFrame(ctx context.Context) (RawFrame, error)
	// Resize changes the session's render resolution; may suspend.
	Resize(ctx context.Context, width, height int) error
	// SendDebugInfo is fire-and-forget telemetry from the encoder stage.
	SendDebugInfo(info DebugInfo)
}

// Source constructs Sessions for a given initial resolution.
type Source interface {
	NewSession(ctx context.Context, width, height int) (Session, error)
}
