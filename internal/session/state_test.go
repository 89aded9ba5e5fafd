package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_StartedSignalsExactlyOnce_ICEThenMedia(t *testing.T) {
	s := New()
	s.MarkICEConnected()
	assertNotStarted(t, s)
	s.MarkMediaAdded()
	assertStarted(t, s)
	assert.Equal(t, PhaseConnected, s.Phase())
}

func TestState_StartedSignalsExactlyOnce_MediaThenICE(t *testing.T) {
	s := New()
	s.MarkMediaAdded()
	assert.Equal(t, PhaseNew, s.Phase())
	assertNotStarted(t, s)
	s.MarkICEConnected()
	assertStarted(t, s)
}

func TestState_DisconnectIsTerminal(t *testing.T) {
	s := New()
	s.MarkICEConnected()
	s.MarkMediaAdded()
	s.MarkICEDisconnected()
	assert.Equal(t, PhaseClosed, s.Phase())
	assert.False(t, s.CanWriteTrack())
}

func TestState_EstimatedBitrateClamped(t *testing.T) {
	s := New()
	s.SetEstimatedBitrate(-5)
	assert.Equal(t, float64(0), s.EstimatedBitrate())
	s.SetEstimatedBitrate(100_000_000)
	assert.Equal(t, float64(maxEstimatedBitrate), s.EstimatedBitrate())
}

func TestState_CanWriteTrackRequiresConnectedAndMedia(t *testing.T) {
	s := New()
	assert.False(t, s.CanWriteTrack())
	s.MarkICEConnected()
	assert.False(t, s.CanWriteTrack())
	s.MarkMediaAdded()
	assert.True(t, s.CanWriteTrack())
}

func assertStarted(t *testing.T, s *State) {
	t.Helper()
	select {
	case <-s.Started():
	case <-time.After(100 * time.Millisecond):
		t.Fatal("expected started to be signalled")
	}
}

func assertNotStarted(t *testing.T, s *State) {
	t.Helper()
	select {
	case <-s.Started():
		t.Fatal("started signalled too early")
	default:
	}
}
