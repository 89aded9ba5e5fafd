package driver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestAccumulatedTime_MonotonicHalfDurationIncrement covers invariant 3: the
// accumulated media time strictly increases by exactly d/2 per non-empty
// frame of duration d, and is never decreasing, without needing a live
// pion PeerConnection.
func TestAccumulatedTime_MonotonicHalfDurationIncrement(t *testing.T) {
	d := &Driver{trackBound: true}

	durations := []time.Duration{
		16 * time.Millisecond,
		16 * time.Millisecond,
		33 * time.Millisecond,
	}

	var prev time.Duration
	var prevMediaTimeTicks uint32
	for i, dur := range durations {
		mediaTimeTicks := uint32(d.accumulatedTime.Seconds() * rtpClockRate)
		if i > 0 {
			assert.GreaterOrEqual(t, mediaTimeTicks, prevMediaTimeTicks)
		} else {
			assert.Equal(t, uint32(0), mediaTimeTicks, "first write must stamp rtp_time = 0")
		}
		before := d.accumulatedTime
		d.accumulatedTime += dur / 2
		assert.Equal(t, before+dur/2, d.accumulatedTime)
		assert.GreaterOrEqual(t, d.accumulatedTime, prev)

		prev = d.accumulatedTime
		prevMediaTimeTicks = mediaTimeTicks
	}
}

func TestClampHeadroom(t *testing.T) {
	assert.Equal(t, float64(minHeadroomBps), clampHeadroom(1000))
	assert.Equal(t, float64(maxHeadroomBps), clampHeadroom(1_000_000_000))
	assert.Equal(t, 500_000.0, clampHeadroom(500_000))
}
