package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

var (
	ErrRecordingActive   = errors.New("a recording is already active")
	ErrNoActiveRecording = errors.New("no active recording")
)

// RecorderConfig controls audio capture for one encounter.
type RecorderConfig struct {
	Audio ports.AudioConfig
	// ChunkBytes is the capture read size; defaults to one second of
	// signed 16-bit PCM at the configured rate.
	ChunkBytes   int
	Demo         bool
	DemoInterval time.Duration
}

func (c RecorderConfig) chunkBytes() int {
	if c.ChunkBytes > 0 {
		return c.ChunkBytes
	}
	rate := c.Audio.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	channels := c.Audio.Channels
	if channels <= 0 {
		channels = 1
	}
	return rate * channels * 2
}

func (c RecorderConfig) demoInterval() time.Duration {
	if c.DemoInterval > 0 {
		return c.DemoInterval
	}
	return time.Second
}

// Recorder captures audio in one-second chunks and hands the concatenated
// segment to the transcription client at Stop. The device is exclusive:
// Start fails fast while a recording is active, and Close releases the
// device unconditionally.
type Recorder struct {
	capture     ports.AudioCapture
	client      *TranscriptionClient
	events      ports.EventSink
	encounterID string
	cfg         RecorderConfig

	mu      sync.Mutex
	state   domain.RecorderState
	current *activeCapture
}

func NewRecorder(
	capture ports.AudioCapture,
	client *TranscriptionClient,
	events ports.EventSink,
	encounterID string,
	cfg RecorderConfig,
) *Recorder {
	return &Recorder{
		capture:     capture,
		client:      client,
		events:      events,
		encounterID: encounterID,
		cfg:         cfg,
		state:       domain.RecorderStateIdle,
	}
}

// Start acquires the audio input device and begins capturing. On permission
// denial or a missing device the categorized error is returned to the caller
// and the recorder stays idle; there is no silent retry.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != domain.RecorderStateIdle {
		r.mu.Unlock()
		return ErrRecordingActive
	}
	r.state = domain.RecorderStateRecording
	r.mu.Unlock()

	if r.cfg.Demo {
		active := &activeCapture{
			demo:      true,
			demoStop:  make(chan struct{}),
			pumpDone:  make(chan struct{}),
			startedAt: time.Now(),
		}
		r.mu.Lock()
		r.current = active
		r.mu.Unlock()

		go r.demoLoop(active)
		r.events.RecorderStateChanged(domain.RecorderStateRecording)
		return nil
	}

	captureCtx, cancel := context.WithCancel(ctx)
	session, err := r.capture.Start(captureCtx, r.cfg.Audio)
	if err != nil {
		cancel()
		r.mu.Lock()
		r.state = domain.RecorderStateIdle
		r.mu.Unlock()
		r.events.SessionError(domain.ErrorCodeDevice, err.Error())
		return err
	}

	active := &activeCapture{
		cancel:    cancel,
		session:   session,
		pumpDone:  make(chan struct{}),
		startedAt: time.Now(),
	}
	r.mu.Lock()
	r.current = active
	r.mu.Unlock()

	go r.pump(active)
	r.events.RecorderStateChanged(domain.RecorderStateRecording)
	return nil
}

// Stop finalizes the in-progress segment, releases the device and hands the
// segment to transcription, then returns the recorder to idle.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != domain.RecorderStateRecording || r.current == nil {
		r.mu.Unlock()
		return ErrNoActiveRecording
	}
	r.state = domain.RecorderStateProcessing
	active := r.current
	r.mu.Unlock()

	r.events.RecorderStateChanged(domain.RecorderStateProcessing)

	var transcribeErr error
	if active.demo {
		active.stopDemo()
		<-active.pumpDone
	} else {
		if err := active.session.Stop(); err != nil {
			r.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("failed to stop audio capture cleanly: %v", err))
		}
		<-active.pumpDone
		active.cancel()
		transcribeErr = r.client.Transcribe(ctx, r.encounterID, active.segment())
	}

	r.mu.Lock()
	if r.current == active {
		r.current = nil
	}
	r.state = domain.RecorderStateIdle
	r.mu.Unlock()

	r.events.RecorderStateChanged(domain.RecorderStateIdle)
	return transcribeErr
}

// Close releases the device unconditionally, discarding any in-progress
// segment. Safe to call repeatedly and without a prior Stop.
func (r *Recorder) Close() {
	r.mu.Lock()
	active := r.current
	r.current = nil
	wasIdle := r.state == domain.RecorderStateIdle
	r.state = domain.RecorderStateIdle
	r.mu.Unlock()

	if active == nil {
		return
	}
	if active.demo {
		active.stopDemo()
	} else {
		active.cancel()
		_ = active.session.Stop()
	}
	<-active.pumpDone

	if !wasIdle {
		r.events.RecorderStateChanged(domain.RecorderStateIdle)
	}
}

// State returns the current recorder state.
func (r *Recorder) State() domain.RecorderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns whole seconds of recording time, zero when idle.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return 0
	}
	return r.current.elapsedSeconds()
}

func (r *Recorder) pump(active *activeCapture) {
	defer close(active.pumpDone)

	buf := make([]byte, r.cfg.chunkBytes())
	for {
		n, err := active.session.Read(buf)
		if n > 0 {
			active.appendChunk(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.events.SessionError(domain.ErrorCodeAudioStream, fmt.Sprintf("audio capture error: %v", err))
			}
			return
		}
	}
}

func (r *Recorder) demoLoop(active *activeCapture) {
	defer close(active.pumpDone)

	ticker := time.NewTicker(r.cfg.demoInterval())
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ticker.C:
			ticks++
			active.setDemoTicks(ticks)
			r.client.DemoTick(ticks)
		case <-active.demoStop:
			return
		}
	}
}
