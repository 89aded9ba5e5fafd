package encoder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/cloudrender-relay/internal/framesource"
	"github.com/ethan/cloudrender-relay/internal/pump"
	"github.com/ethan/cloudrender-relay/pkg/logger"
)

func mustLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.NewConfig())
	require.NoError(t, err)
	return log
}

type fakeSession struct {
	debugInfo []framesource.DebugInfo
}

func (s *fakeSession) RenderFrame(ctx context.Context) (framesource.RawFrame, error) {
	return framesource.RawFrame{}, nil
}
func (s *fakeSession) Resize(ctx context.Context, width, height int) error { return nil }
func (s *fakeSession) SendDebugInfo(info framesource.DebugInfo) {
	s.debugInfo = append(s.debugInfo, info)
}

type fakeBWE struct{ bps float64 }

func (f *fakeBWE) EstimatedBitrate() float64 { return f.bps }

func TestRunner_ForwardsEncodedFrames(t *testing.T) {
	st := newTestStage(t, 4, 4)
	sess := &fakeSession{}
	bwe := &fakeBWE{bps: 1_000_000}

	in := make(chan pump.RawFrameDelivery, 1)
	out := make(chan EncodedFrame, 1)
	r := NewRunner(st, sess, bwe, in, out, mustLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	in <- pump.RawFrameDelivery{
		Frame:    framesource.RawFrame{Data: makeFrame(4, 4), Width: 4, Height: 4, Stride: 16, Time: time.Now()},
		Duration: 16 * time.Millisecond,
	}

	select {
	case encoded := <-out:
		assert.NotEmpty(t, encoded.Payload)
	case <-time.After(time.Second):
		t.Fatal("no encoded frame delivered")
	}

	require.NotEmpty(t, sess.debugInfo)
}

// TestRunner_EncodeFailureAbortsSession covers §4.D's "encode failures are
// fatal to the session": an empty frame payload fails Encode, and the
// runner must close out rather than keep draining in.
func TestRunner_EncodeFailureAbortsSession(t *testing.T) {
	st := newTestStage(t, 4, 4)
	sess := &fakeSession{}
	bwe := &fakeBWE{bps: 1_000_000}

	in := make(chan pump.RawFrameDelivery, 1)
	out := make(chan EncodedFrame, 1)
	r := NewRunner(st, sess, bwe, in, out, mustLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	in <- pump.RawFrameDelivery{
		Frame:    framesource.RawFrame{Data: nil, Width: 4, Height: 4, Stride: 16, Time: time.Now()},
		Duration: 16 * time.Millisecond,
	}

	select {
	case _, ok := <-out:
		assert.False(t, ok, "out must be closed after an encode failure")
	case <-time.After(time.Second):
		t.Fatal("runner did not close out after encode failure")
	}
}
