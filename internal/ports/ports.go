package ports

import (
	"context"
	"io"

	"medcockpit/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. The device is an
// exclusive resource; Start must fail fast when it cannot be acquired.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// SegmentTranscriber converts one finished audio segment into text.
type SegmentTranscriber interface {
	Transcribe(ctx context.Context, encounterID string, segment []byte) (string, error)
}

// EncounterService is the narrow interface to the clinic records system.
// All persistence is delegated through it; the cockpit owns no storage.
type EncounterService interface {
	StartEncounter(ctx context.Context, patientID string) (domain.Encounter, error)
	FetchBriefing(ctx context.Context, patientID string) (domain.Briefing, error)
	FetchHistory(ctx context.Context, patientID string) ([]domain.HistoryEntry, error)
	FetchNote(ctx context.Context, encounterID string) (domain.StructuredNote, error)
	UpdateNoteField(ctx context.Context, noteID string, field domain.NoteField, value string) error
	MarkNoteReviewed(ctx context.Context, noteID string) error
	SaveVitals(ctx context.Context, encounterID string, record domain.VitalSigns) error
	UpdateSection(ctx context.Context, patientID string, edit domain.SectionEdit) error
	FinalizeEncounter(ctx context.Context, encounterID string) error
}

// EventSink emits backend state/events to the UI shell.
type EventSink interface {
	EncounterStateChanged(state domain.EncounterState, reason domain.EncounterStateReason)
	RecorderStateChanged(state domain.RecorderState)
	PanelLoaded(panel domain.Panel)
	PanelFailed(panel domain.Panel, detail string)
	TranscriptAppended(line string)
	NoteFieldSaved(field domain.NoteField)
	NoteValidated()
	VitalsSaved()
	GateAcknowledged(section domain.ReviewSection)
	SessionError(code domain.ErrorCode, detail string)
}
