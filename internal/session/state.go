// Package session holds the shared, mutex-guarded session state read by the
// frame pump and written by the session driver.
package session

import "sync"

// Phase is the connection lifecycle phase of a session.
type Phase int

const (
	PhaseNew Phase = iota
	PhaseConnected
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseConnected:
		return "connected"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

const maxEstimatedBitrate = 20_000_000 // 20 Mbps clamp ceiling

// State is the small shared record described in §4.E: connection phase,
// media-added flag, and the latest clamped BWE sample, guarded by a single
// non-reentrant mutex. The zero value is not usable; construct with New.
type State struct {
	mu sync.Mutex

	phase        Phase
	mediaAdded   bool
	estimatedBps float64

	startOnce sync.Once
	started   chan struct{}
}

// New returns a fresh session State in phase New with no media bound.
func New() *State {
	return &State{
		phase:   PhaseNew,
		started: make(chan struct{}),
	}
}

// Started returns a channel that is closed exactly once, the moment the
// session reaches Connected with a media track bound (in either transition
// order).
func (s *State) Started() <-chan struct{} {
	return s.started
}

// MarkICEConnected transitions New -> Connected. A no-op if already
// Connected or Closed.
func (s *State) MarkICEConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseNew {
		s.phase = PhaseConnected
	}
	s.maybeSignalStarted()
}

// MarkICEDisconnected transitions any phase to the terminal Closed phase.
func (s *State) MarkICEDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseClosed
}

// MarkMediaAdded records that a track has been bound. Only the first call
// has effect; callers are expected to reject subsequent tracks themselves
// (§4.G dispatch logs and ignores them before reaching here).
func (s *State) MarkMediaAdded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediaAdded = true
	s.maybeSignalStarted()
}

// maybeSignalStarted must be called with mu held.
func (s *State) maybeSignalStarted() {
	if s.phase == PhaseConnected && s.mediaAdded {
		s.startOnce.Do(func() { close(s.started) })
	}
}

// Phase returns the current connection phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// MediaAdded reports whether a track has been bound.
func (s *State) MediaAdded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaAdded
}

// SetEstimatedBitrate stores a new BWE sample, clamped to [0, 20 Mbps].
func (s *State) SetEstimatedBitrate(bps float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.estimatedBps = clampBitrate(bps)
}

// EstimatedBitrate returns the last BWE sample, already clamped to
// [0, 20 Mbps].
func (s *State) EstimatedBitrate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimatedBps
}

// CanWriteTrack reports whether the track-write precondition holds: the
// session is Connected and a track has been bound (invariant 5).
func (s *State) CanWriteTrack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseConnected && s.mediaAdded
}

func clampBitrate(bps float64) float64 {
	if bps < 0 {
		return 0
	}
	if bps > maxEstimatedBitrate {
		return maxEstimatedBitrate
	}
	return bps
}
