package encoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStage(t *testing.T, w, h int) *Stage {
	t.Helper()
	st, err := NewStage(Config{
		Width:             w,
		Height:            h,
		InitialBitrateBps: 2_500_000,
		NewBackend:        NewSoftwareBackend,
	}, time.Now())
	require.NoError(t, err)
	return st
}

func makeFrame(w, h int) []byte {
	return make([]byte, w*h*4)
}

func TestStage_EncodeProducesFrame(t *testing.T) {
	st := newTestStage(t, 4, 4)
	now := time.Now()
	f, err := st.Encode(makeFrame(4, 4), 4, 4, 4*4, 16*time.Millisecond, nil, now)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Payload)
	assert.Equal(t, 16*time.Millisecond, f.Duration)
	assert.Equal(t, now, f.CaptureTime)
}

func TestStage_ResolutionChangeRebuildsWithoutDroppingFrames(t *testing.T) {
	st := newTestStage(t, 1280, 720)
	now := time.Now()

	w, h := st.Size()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)

	for i := 0; i < 30; i++ {
		_, err := st.Encode(makeFrame(1280, 720), 1280, 720, 1280*4, 16*time.Millisecond, nil, now)
		require.NoError(t, err)
	}

	for i := 0; i < 30; i++ {
		_, err := st.Encode(makeFrame(1920, 1080), 1920, 1080, 1920*4, 16*time.Millisecond, nil, now)
		require.NoError(t, err)
	}

	w, h = st.Size()
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1080, h)
}

func TestStage_EmptyFrameRejected(t *testing.T) {
	st := newTestStage(t, 4, 4)
	_, err := st.Encode(nil, 4, 4, 16, 16*time.Millisecond, nil, time.Now())
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestStage_RateReconfigGatedOffByDefault(t *testing.T) {
	st := newTestStage(t, 4, 4)
	// 40 Mbps against the 10 Mbps seed gives a window mean of 25 Mbps, a 2.5x
	// ratio, so the smoother commits. EnableRateReconfig defaults to false, so
	// SetBitrate must not have been invoked with the committed target.
	bwe := 40_000_000.0
	_, err := st.Encode(makeFrame(4, 4), 4, 4, 16, 16*time.Millisecond, &bwe, time.Now())
	require.NoError(t, err)
	assert.Zero(t, st.backend.(*softwareBackend).targetBps)
}
