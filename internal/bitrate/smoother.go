package bitrate

import "time"

const (
	estimationWindowSize = 60
	commitRatioThreshold = 2.0
	commitMaxAge         = 3 * time.Second
	seedTargetBps        = 10_000_000 // 10 Mbps seed, matches original_source's initial target
)

// Smoother damps a stream of raw BWE samples into a committed target bitrate,
// avoiding rate-control churn on every tick while still reacting quickly to
// large swings. Not safe for concurrent use.
type Smoother struct {
	window     []float64
	committed  float64
	lastCommit time.Time
}

// NewSmoother returns a Smoother seeded with a single 10 Mbps sample, per the
// estimation window invariant (never empty after initialization).
func NewSmoother(now time.Time) *Smoother {
	return &Smoother{
		window:     []float64{seedTargetBps},
		committed:  seedTargetBps,
		lastCommit: now,
	}
}

// Update appends a new raw BWE sample (evicting the oldest if the window is
// full), and commits the window's arithmetic mean as the new target if the
// mean/committed ratio is >= 2.0 in either direction, or if more than 3s have
// elapsed since the last commit. Returns whether a commit occurred.
func (s *Smoother) Update(sampleBps float64, now time.Time) bool {
	if len(s.window) == estimationWindowSize {
		copy(s.window, s.window[1:])
		s.window = s.window[:len(s.window)-1]
	}
	s.window = append(s.window, sampleBps)

	mean := s.mean()
	ratio := commitRatio(mean, s.committed)
	if ratio >= commitRatioThreshold || now.Sub(s.lastCommit) > commitMaxAge {
		s.committed = mean
		s.lastCommit = now
		return true
	}
	return false
}

// Target returns the most recently committed bitrate target in bits/sec.
func (s *Smoother) Target() float64 {
	return s.committed
}

func (s *Smoother) mean() float64 {
	var sum float64
	for _, v := range s.window {
		sum += v
	}
	return sum / float64(len(s.window))
}

// commitRatio returns max(a,b)/min(a,b), the symmetric ratio used by the
// commit rule. Guards against division by zero when both are zero.
func commitRatio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if a == 0 || b == 0 {
		return commitRatioThreshold // force a commit rather than divide by zero
	}
	if a > b {
		return a / b
	}
	return b / a
}
