package encoder

import (
	"context"
	"time"

	"github.com/ethan/cloudrender-relay/internal/framesource"
	"github.com/ethan/cloudrender-relay/internal/pump"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

// BWESource supplies the latest clamped bandwidth estimate for the
// rate-control adjustment step (§4.D); normally the session's shared State.
type BWESource interface {
	EstimatedBitrate() float64
}

// Runner is the encoder stage's cooperative task: it reads raw frames from
// the pump's outgoing channel, encodes them, reports debug info back to the
// frame source, and forwards EncodedFrames to the session driver.
type Runner struct {
	stage   *Stage
	session framesource.Session
	bwe     BWESource
	in      <-chan pump.RawFrameDelivery
	out     chan<- EncodedFrame
	log     *logger.Logger
}

// NewRunner constructs a Runner wiring in, out, the encoder stage and BWE
// source together.
func NewRunner(stage *Stage, session framesource.Session, bwe BWESource, in <-chan pump.RawFrameDelivery, out chan<- EncodedFrame, log *logger.Logger) *Runner {
	return &Runner{stage: stage, session: session, bwe: bwe, in: in, out: out, log: log}
}

// Run drains in until it is closed, ctx is cancelled, or an encode fails, and
// closes out on return. The driver does not close out; when the driver exits,
// the session cleanup cancels ctx, which ends Run.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.out)
	for {
		select {
		case delivery, ok := <-r.in:
			if !ok {
				return
			}
			if err := r.encodeAndForward(ctx, delivery); err != nil {
				r.log.Error("encode failed, aborting session", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// encodeAndForward encodes one raw frame and hands it to the driver. A
// non-nil error is a codec failure, fatal to the session per §4.D; the
// caller tears the session down by returning from Run, which closes out and
// signals the driver via its closed-channel case.
func (r *Runner) encodeAndForward(ctx context.Context, delivery pump.RawFrameDelivery) error {
	frame := delivery.Frame
	var bweSample *float64
	if r.bwe != nil {
		v := r.bwe.EstimatedBitrate()
		bweSample = &v
	}

	encoded, err := r.stage.Encode(frame.Data, frame.Width, frame.Height, frame.Stride, delivery.Duration, bweSample, frame.Time)
	if err != nil {
		return err
	}

	r.session.SendDebugInfo(framesource.DebugInfo{
		CurrentBps:   encoded.EncodedBps,
		EstimatedBps: r.stage.SourceRateBps(time.Now()),
	})

	select {
	case r.out <- encoded:
	case <-ctx.Done():
	}
	return nil
}
