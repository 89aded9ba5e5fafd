// Package pacer throttles how often bitrate hints are pushed out to the
// peer-state adapter. Encoded frames arrive at 60 Hz but a bitrate hint is
// only useful a few times a second; pushing one on every frame just spams
// the adapter's diagnostic log. Modeled on pkg/nest.CommandQueue, which
// paced outbound Nest API calls with a golang.org/x/time/rate limiter to
// stay under Google's quota: the same token-bucket idea, stripped of the
// priority heap and ticket/response machinery that command queue needed and
// this one-hint-at-a-time use case does not.
package pacer

import (
	"golang.org/x/time/rate"
)

// DefaultRate is how often a bitrate hint is allowed through: 5 Hz.
const DefaultRate = 5

// BitrateHintPacer gates bitrate-hint pushes to at most DefaultRate per
// second, always letting the first call through immediately.
type BitrateHintPacer struct {
	limiter *rate.Limiter
}

// NewBitrateHintPacer constructs a pacer allowing hz hints per second, with a
// burst of 1 (no queuing, a late hint is simply skipped rather than bursting
// later, matching the command queue's "no bursts" design note).
func NewBitrateHintPacer(hz float64) *BitrateHintPacer {
	return &BitrateHintPacer{limiter: rate.NewLimiter(rate.Limit(hz), 1)}
}

// Allow reports whether a bitrate hint may be pushed right now, consuming a
// token if so.
func (p *BitrateHintPacer) Allow() bool {
	return p.limiter.Allow()
}
