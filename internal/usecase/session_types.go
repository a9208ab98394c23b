package usecase

import (
	"sync"
	"time"

	"medcockpit/internal/ports"
)

type activeCapture struct {
	cancel    func()
	session   ports.AudioSession // nil in demo mode
	pumpDone  chan struct{}
	demo      bool
	demoStop  chan struct{}
	demoOnce  sync.Once
	startedAt time.Time

	mu        sync.Mutex
	chunks    [][]byte
	demoTicks int
}

// stopDemo ends the demo loop. Stop and Close can race on the same capture,
// so the channel close is once-guarded.
func (a *activeCapture) stopDemo() {
	a.demoOnce.Do(func() { close(a.demoStop) })
}

func (a *activeCapture) appendChunk(chunk []byte) {
	copied := append([]byte(nil), chunk...)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = append(a.chunks, copied)
}

// segment concatenates the accumulated chunks into the single segment handed
// to transcription. Partial chunks are never transcribed individually.
func (a *activeCapture) segment() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total int
	for _, chunk := range a.chunks {
		total += len(chunk)
	}
	out := make([]byte, 0, total)
	for _, chunk := range a.chunks {
		out = append(out, chunk...)
	}
	return out
}

func (a *activeCapture) setDemoTicks(ticks int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.demoTicks = ticks
}

func (a *activeCapture) elapsedSeconds() int {
	if a.demo {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.demoTicks
	}
	return int(time.Since(a.startedAt) / time.Second)
}
