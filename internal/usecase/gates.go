package usecase

import (
	"errors"
	"sync"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

var ErrUnknownSection = errors.New("unknown review section")

// GateTracker holds the mandatory pre-visit acknowledgment flags. Flags only
// transition false -> true; a new encounter gets a fresh tracker.
type GateTracker struct {
	events ports.EventSink

	mu    sync.Mutex
	acked map[domain.ReviewSection]bool
}

func NewGateTracker(events ports.EventSink) *GateTracker {
	acked := make(map[domain.ReviewSection]bool, len(domain.AllReviewSections))
	for _, section := range domain.AllReviewSections {
		acked[section] = false
	}
	return &GateTracker{events: events, acked: acked}
}

// Acknowledge marks a section as reviewed. Acknowledging an already-true
// section is a no-op.
func (g *GateTracker) Acknowledge(section domain.ReviewSection) error {
	g.mu.Lock()
	current, ok := g.acked[section]
	if !ok {
		g.mu.Unlock()
		return ErrUnknownSection
	}
	if current {
		g.mu.Unlock()
		return nil
	}
	g.acked[section] = true
	g.mu.Unlock()

	g.events.GateAcknowledged(section)
	return nil
}

// FullyAcknowledged reports whether every section has been acknowledged.
func (g *GateTracker) FullyAcknowledged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, acked := range g.acked {
		if !acked {
			return false
		}
	}
	return true
}

// Pending returns the unacknowledged sections in display order.
func (g *GateTracker) Pending() []domain.ReviewSection {
	g.mu.Lock()
	defer g.mu.Unlock()
	var pending []domain.ReviewSection
	for _, section := range domain.AllReviewSections {
		if !g.acked[section] {
			pending = append(pending, section)
		}
	}
	return pending
}

// Snapshot returns a copy of the current flag set.
func (g *GateTracker) Snapshot() map[domain.ReviewSection]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[domain.ReviewSection]bool, len(g.acked))
	for section, acked := range g.acked {
		out[section] = acked
	}
	return out
}
