package bitrate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMeter_RateInvariant(t *testing.T) {
	base := time.Now()
	m := NewMeter(120)

	assert.Equal(t, float64(0), m.Rate(base), "rate is zero on an empty window")

	m.Push(1000, base)
	m.Push(2000, base.Add(500*time.Millisecond))
	m.Push(3000, base.Add(time.Second))

	got := m.Rate(base.Add(time.Second))
	want := 8 * float64(1000+2000+3000) / 1.0
	assert.InDelta(t, want, got, 0.001)
}

func TestMeter_EvictsOldestWhenFull(t *testing.T) {
	base := time.Now()
	m := NewMeter(2)

	m.Push(100, base)
	m.Push(200, base.Add(time.Second))
	m.Push(300, base.Add(2*time.Second)) // evicts the first sample

	assert.Equal(t, 2, m.Len())
	got := m.Rate(base.Add(2 * time.Second))
	want := 8 * float64(200+300) / 1.0
	assert.InDelta(t, want, got, 0.001)
}
