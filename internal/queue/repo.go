// Package queue holds the waiting-room patient queue the cockpit is driven
// from. The repository is injectable and snapshot-returning; nothing shares
// mutable state with it.
package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Patient is one queued patient waiting for consultation.
type Patient struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Reason   string    `json:"reason"`
	QueuedAt time.Time `json:"queuedAt"`
}

// Repository is an in-memory patient queue. Reads and the result of Add are
// immutable snapshots.
type Repository struct {
	mu       sync.Mutex
	patients []Patient
}

func NewRepository(seed ...Patient) *Repository {
	r := &Repository{}
	for _, p := range seed {
		r.Add(p)
	}
	return r
}

// Add enqueues a patient, assigning an id and queue time when absent, and
// returns the new queue snapshot.
func (r *Repository) Add(p Patient) []Patient {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.QueuedAt.IsZero() {
		p.QueuedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients = append(r.patients, p)
	return r.snapshotLocked()
}

// List returns the queue in arrival order.
func (r *Repository) List() []Patient {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Get looks a patient up by id.
func (r *Repository) Get(id string) (Patient, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// Remove advances the queue past a patient, typically after their encounter
// is finalized. It reports whether the patient was present.
func (r *Repository) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.patients {
		if p.ID == id {
			r.patients = append(r.patients[:i], r.patients[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Repository) snapshotLocked() []Patient {
	out := make([]Patient, len(r.patients))
	copy(out, r.patients)
	return out
}
