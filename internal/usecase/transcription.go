package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

// TranscriptBuffer accumulates transcript text for one encounter. It is
// append-only; cleared only by explicit user action or encounter reset.
type TranscriptBuffer struct {
	mu    sync.Mutex
	lines []string
}

func NewTranscriptBuffer() *TranscriptBuffer {
	return &TranscriptBuffer{}
}

func (b *TranscriptBuffer) Append(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, text)
}

// Text returns the accumulated transcript, newline-joined.
func (b *TranscriptBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Lines returns a copy of the appended lines.
func (b *TranscriptBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

func (b *TranscriptBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// demoScript is the canned consultation used by the offline demo mode. One
// line is appended per 5 seconds of simulated recording; %s receives the
// elapsed mm:ss timestamp. When the script runs out, appending stops.
var demoScript = []string{
	"[%s] Physician: Good morning. What brings you in today?",
	"[%s] Patient: I've had a persistent cough for about two weeks now.",
	"[%s] Physician: Any fever or shortness of breath along with it?",
	"[%s] Patient: A low fever at night, no trouble breathing.",
	"[%s] Physician: Are you taking anything for it at the moment?",
	"[%s] Patient: Just an over-the-counter syrup, it barely helps.",
	"[%s] Physician: Let me listen to your lungs. Deep breath, please.",
	"[%s] Physician: There is a slight wheeze on the right side.",
	"[%s] Patient: Is it something serious, doctor?",
	"[%s] Physician: Likely bronchitis. I'll order a chest X-ray to be sure.",
}

func demoTimestamp(elapsedSeconds int) string {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d", elapsedSeconds/60, elapsedSeconds%60)
}

// TranscriptionClient feeds the transcript buffer from finished audio
// segments, or from the demo script when running offline.
type TranscriptionClient struct {
	transcriber ports.SegmentTranscriber
	events      ports.EventSink
	buffer      *TranscriptBuffer

	mu         sync.Mutex
	scriptNext int
}

func NewTranscriptionClient(transcriber ports.SegmentTranscriber, events ports.EventSink) *TranscriptionClient {
	return &TranscriptionClient{
		transcriber: transcriber,
		events:      events,
		buffer:      NewTranscriptBuffer(),
	}
}

// Transcribe sends one finished segment to the transcription service and
// appends the returned text. Without an encounter id the segment is not sent
// anywhere; a size-only placeholder is appended instead. On failure the
// buffer is left unchanged. Callers must not submit the same segment twice.
func (c *TranscriptionClient) Transcribe(ctx context.Context, encounterID string, segment []byte) error {
	if len(segment) == 0 {
		return nil
	}

	if encounterID == "" {
		placeholder := fmt.Sprintf("[audio captured locally: %d KB]", (len(segment)+1023)/1024)
		c.buffer.Append(placeholder)
		c.events.TranscriptAppended(placeholder)
		return nil
	}

	text, err := c.transcriber.Transcribe(ctx, encounterID, segment)
	if err != nil {
		c.events.SessionError(domain.ErrorCodeTranscription, err.Error())
		return fmt.Errorf("transcribe segment: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	c.buffer.Append(text)
	c.events.TranscriptAppended(text)
	return nil
}

// DemoTick advances the scripted transcript. Called once per simulated
// second; on multiples of 5 it appends the next script line with the elapsed
// timestamp substituted. Exhausting the script simply stops appending.
func (c *TranscriptionClient) DemoTick(elapsedSeconds int) {
	if elapsedSeconds <= 0 || elapsedSeconds%5 != 0 {
		return
	}

	c.mu.Lock()
	if c.scriptNext >= len(demoScript) {
		c.mu.Unlock()
		return
	}
	line := fmt.Sprintf(demoScript[c.scriptNext], demoTimestamp(elapsedSeconds))
	c.scriptNext++
	c.mu.Unlock()

	c.buffer.Append(line)
	c.events.TranscriptAppended(line)
}

// Buffer exposes the transcript accumulator.
func (c *TranscriptionClient) Buffer() *TranscriptBuffer {
	return c.buffer
}

// Reset clears the buffer and rewinds the demo script.
func (c *TranscriptionClient) Reset() {
	c.mu.Lock()
	c.scriptNext = 0
	c.mu.Unlock()
	c.buffer.Clear()
}
