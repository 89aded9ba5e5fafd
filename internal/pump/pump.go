// Package pump drives the fixed 60 Hz rendering cadence described in §4.H,
// handing raw frames to the encoder stage over a bounded channel.
package pump

import (
	"context"
	"time"

	"github.com/ethan/cloudrender-relay/internal/framesource"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

// TargetPeriod is the fixed cadence period: 60 Hz.
const TargetPeriod = time.Second / 60

// RawFrameDelivery is one (frame, duration) handoff from the pump to the
// encoder stage.
type RawFrameDelivery struct {
	Frame    framesource.RawFrame
	Duration time.Duration
}

// Pump is the frame-pump task. Out is a capacity-1 channel; a full Out
// causes the pump to block, propagating backpressure per invariant 6.
type Pump struct {
	session framesource.Session
	out     chan<- RawFrameDelivery
	log     *logger.Logger
}

// New constructs a Pump reading from session and writing to out.
func New(session framesource.Session, out chan<- RawFrameDelivery, log *logger.Logger) *Pump {
	return &Pump{session: session, out: out, log: log}
}

// Run executes the pump loop until ctx is cancelled (a handoff cancelled this
// way is treated as the queue closing, per §4.H) or the frame source returns
// an error.
func (p *Pump) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		t0 := time.Now()

		frame, err := p.session.RenderFrame(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.log.Warn("frame source render failed", "error", err)
			}
			return
		}

		duration := time.Since(t0)
		if duration < TargetPeriod {
			duration = TargetPeriod
		}

		if !p.handoff(ctx, RawFrameDelivery{Frame: frame, Duration: duration}) {
			return // queue closed, session ending
		}

		if elapsed := time.Since(t0); elapsed < TargetPeriod {
			select {
			case <-time.After(TargetPeriod - elapsed):
			case <-ctx.Done():
				return
			}
		}
	}
}

// handoff sends to the bounded channel, returning false if ctx is cancelled
// before the send completes (treated as "queue closed" per §7).
func (p *Pump) handoff(ctx context.Context, d RawFrameDelivery) bool {
	select {
	case p.out <- d:
		return true
	case <-ctx.Done():
		return false
	}
}
