// Package governor enforces the run's safety envelope: the hard submission
// cap, randomized pacing between browser actions, duplicate suppression
// against persisted history, and backoff on transient navigation failures.
package governor

import (
	"context"
	"log"

	"github.com/khrees2412/jobpilot/pkg/models"
)

// History is the slice of the persistence layer the governor needs for
// duplicate suppression.
type History interface {
	HasTerminalAttempt(ctx context.Context, postingID string) (bool, error)
}

// Governor guards every application attempt.
type Governor struct {
	cap     int
	state   *models.RunState
	history History
	pacer   *Pacer
}

// New returns a Governor enforcing the given per-run submission cap.
func New(cap int, state *models.RunState, history History, pacer *Pacer) *Governor {
	return &Governor{cap: cap, state: state, history: history, pacer: pacer}
}

// CapReached reports whether the run has hit its submission cap. Once true,
// remaining candidates are skipped without being opened.
func (g *Governor) CapReached() bool {
	return g.state.Submissions() >= g.cap
}

// RecordSubmission counts one submitted outcome and returns the new total.
func (g *Governor) RecordSubmission() int {
	return g.state.RecordSubmission()
}

// AlreadyAttempted reports whether the posting has a terminal attempt in
// persisted history. A history read failure is logged and treated as "not
// attempted"; losing dedup on one posting beats aborting the run.
func (g *Governor) AlreadyAttempted(ctx context.Context, postingID string) bool {
	if g.history == nil {
		return false
	}
	seen, err := g.history.HasTerminalAttempt(ctx, postingID)
	if err != nil {
		log.Printf("[governor] history lookup failed for %s: %v", postingID, err)
		return false
	}
	return seen
}

// Pacer returns the delay injector shared with the browser-facing components.
func (g *Governor) Pacer() *Pacer {
	return g.pacer
}
