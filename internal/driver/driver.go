// Package driver implements the session driver (§4.G): the heart of the
// system, owning the peer-state adapter and running the single-threaded
// cooperative event loop that dispatches protocol events, paces bandwidth
// hints, and writes encoded frames into the bound media track.
package driver

import (
	"context"
	"time"

	"github.com/ethan/cloudrender-relay/internal/encoder"
	"github.com/ethan/cloudrender-relay/internal/pacer"
	"github.com/ethan/cloudrender-relay/internal/rtcsession"
	"github.com/ethan/cloudrender-relay/internal/session"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

const (
	rtpClockRate = 90_000

	// Desired-bitrate headroom bounds from §4.G step 7.
	minHeadroomBps = 300_000
	maxHeadroomBps = 3_000_000
	headroomRatio  = 0.1
)

// Driver is the session driver task.
type Driver struct {
	adapter   *rtcsession.Adapter
	state     *session.State
	encodedCh <-chan encoder.EncodedFrame
	log       *logger.Logger

	trackBound      bool
	accumulatedTime time.Duration
	hintPacer       *pacer.BitrateHintPacer
}

// New constructs a Driver. encodedCh is the capacity-1 channel fed by the
// encoder stage's Runner.
func New(adapter *rtcsession.Adapter, state *session.State, encodedCh <-chan encoder.EncodedFrame, log *logger.Logger) *Driver {
	return &Driver{
		adapter:   adapter,
		state:     state,
		encodedCh: encodedCh,
		log:       log,
		hintPacer: pacer.NewBitrateHintPacer(pacer.DefaultRate),
	}
}

// Run executes the cooperative event loop until the session is Closed or
// ctx is cancelled. Grounded on original_source/server/src/webrtc/mod.rs's
// run_rtc poll loop, adapted for pion's callback-driven Adapter: the
// Transmit/Timeout-input steps of the idealized peer-state Poll() collapse
// into this select, since pion performs its own socket I/O over the UDP mux
// and has no pull-based deadline to report (see internal/rtcsession for the
// full rationale).
func (d *Driver) Run(ctx context.Context) {
	defer func() {
		if err := d.adapter.Close(); err != nil {
			d.log.Warn("error closing peer connection", "error", err)
		}
	}()

	for {
		// The encoded-frame case is only armed when the session is
		// Connected and a track is bound, per §4.G step 5's second wait
		// condition; a nil channel in a select blocks forever, so this
		// conditionally disables the case rather than racing on a stale
		// read.
		var encCh <-chan encoder.EncodedFrame
		if d.state.CanWriteTrack() && d.trackBound {
			encCh = d.encodedCh
		}

		select {
		case ev, ok := <-d.adapter.Events():
			if !ok {
				return
			}
			if d.dispatch(ev) {
				return
			}
		case frame, ok := <-encCh:
			if !ok {
				return // encoder stage exited, tear down
			}
			d.handleEncodedFrame(frame)
		case <-ctx.Done():
			return
		}

		if d.state.Phase() == session.PhaseClosed {
			return
		}
	}
}

// dispatch handles one adapter event per §4.G's dispatch table. Returns
// true if the driver should exit (terminal ICE transition).
func (d *Driver) dispatch(ev rtcsession.Event) bool {
	switch ev.Kind {
	case rtcsession.EventICEStateChange:
		switch ev.ICEState {
		case rtcsession.ICEStateConnected:
			d.state.MarkICEConnected()
			d.log.DebugSession("ice connected")
		case rtcsession.ICEStateDisconnected:
			d.state.MarkICEDisconnected()
			d.log.Info("ice disconnected, tearing down session")
			return true
		}
	case rtcsession.EventMediaAdded:
		if d.trackBound {
			d.log.Info("rejected second media track", "mid", ev.Mid)
			return false
		}
		d.trackBound = true
		d.accumulatedTime = 0
		d.state.MarkMediaAdded()
		d.log.DebugSession("media added", "mid", ev.Mid)
	case rtcsession.EventDataChannelOpen:
		d.log.DebugSession("data channel opened", "label", ev.Label)
	case rtcsession.EventChannelData:
		d.log.Debug("events channel trace", "label", ev.Label, "bytes", len(ev.Data))
	case rtcsession.EventBWEEstimate:
		d.state.SetEstimatedBitrate(ev.BitrateBps)
		d.log.DebugBWE("egress bwe estimate", "bps", ev.BitrateBps)
	}
	return false
}

// handleEncodedFrame implements §4.G step 7: push bitrate hints with
// probing headroom, then write the frame into the bound track using the d/2
// accumulated-time policy.
func (d *Driver) handleEncodedFrame(frame encoder.EncodedFrame) {
	if d.hintPacer.Allow() {
		current := uint64(frame.EncodedBps)
		headroom := clampHeadroom(frame.EncodedBps * headroomRatio)
		desired := current + uint64(headroom)

		d.adapter.SetCurrentBitrate(current)
		d.adapter.SetDesiredBitrate(desired)
	}

	if len(frame.Payload) == 0 {
		return // empty frame payloads are silently dropped
	}

	mediaTime := uint32(d.accumulatedTime.Seconds() * rtpClockRate)
	d.accumulatedTime += frame.Duration / 2

	if err := d.adapter.WriteTrack(mediaTime, frame.Payload); err != nil {
		d.log.Warn("track write failed", "error", err)
	}
}

func clampHeadroom(bps float64) float64 {
	if bps < minHeadroomBps {
		return minHeadroomBps
	}
	if bps > maxHeadroomBps {
		return maxHeadroomBps
	}
	return bps
}
