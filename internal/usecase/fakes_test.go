package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

type fakeService struct {
	mu sync.Mutex

	startErr    error
	briefingErr error
	historyErr  error
	noteErr     error
	saveErr     error
	reviewErr   error
	vitalsErr   error
	sectionErr  error
	finalizeErr error

	note     domain.StructuredNote
	briefing domain.Briefing
	history  []domain.HistoryEntry

	startCalls    int
	finalizeCalls int
	savedFields   []savedField
	savedVitals   []domain.VitalSigns
	sectionEdits  []domain.SectionEdit
	reviewedNotes []string
}

type savedField struct {
	noteID string
	field  domain.NoteField
	value  string
}

func (f *fakeService) StartEncounter(_ context.Context, patientID string) (domain.Encounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return domain.Encounter{}, f.startErr
	}
	return domain.Encounter{ID: "enc-1", PatientID: patientID, StartedAt: time.Now()}, nil
}

func (f *fakeService) FetchBriefing(_ context.Context, _ string) (domain.Briefing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.briefingErr != nil {
		return domain.Briefing{}, f.briefingErr
	}
	return f.briefing, nil
}

func (f *fakeService) FetchHistory(_ context.Context, _ string) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeService) FetchNote(_ context.Context, _ string) (domain.StructuredNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.noteErr != nil {
		return domain.StructuredNote{}, f.noteErr
	}
	return f.note, nil
}

func (f *fakeService) UpdateNoteField(_ context.Context, noteID string, field domain.NoteField, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedFields = append(f.savedFields, savedField{noteID: noteID, field: field, value: value})
	return nil
}

func (f *fakeService) MarkNoteReviewed(_ context.Context, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewErr != nil {
		return f.reviewErr
	}
	f.reviewedNotes = append(f.reviewedNotes, noteID)
	return nil
}

func (f *fakeService) SaveVitals(_ context.Context, _ string, record domain.VitalSigns) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vitalsErr != nil {
		return f.vitalsErr
	}
	f.savedVitals = append(f.savedVitals, record)
	return nil
}

func (f *fakeService) UpdateSection(_ context.Context, _ string, edit domain.SectionEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sectionErr != nil {
		return f.sectionErr
	}
	f.sectionEdits = append(f.sectionEdits, edit)
	return nil
}

func (f *fakeService) FinalizeEncounter(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalizeCalls++
	return f.finalizeErr
}

func (f *fakeService) snapshotSavedFields() []savedField {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]savedField, len(f.savedFields))
	copy(out, f.savedFields)
	return out
}

func (f *fakeService) snapshotFinalizeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finalizeCalls
}

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

type fakeAudioSession struct {
	mu        sync.Mutex
	chunks    [][]byte
	index     int
	stopCalls int
	stopErr   error
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index >= len(f.chunks) {
		return 0, io.EOF
	}
	n := copy(p, f.chunks[f.index])
	f.index++
	return n, nil
}

func (f *fakeAudioSession) Close() error { return nil }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

var _ io.ReadCloser = (*fakeAudioSession)(nil)

type fakeTranscriber struct {
	mu       sync.Mutex
	text     string
	err      error
	segments [][]byte
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, segment []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.segments = append(f.segments, append([]byte(nil), segment...))
	return f.text, nil
}

func (f *fakeTranscriber) snapshotSegments() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.segments))
	copy(out, f.segments)
	return out
}

type stateEvent struct {
	state  domain.EncounterState
	reason domain.EncounterStateReason
}

type panelEvent struct {
	panel  domain.Panel
	failed bool
	detail string
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

type fakeEventSink struct {
	mu sync.Mutex

	states      []stateEvent
	recorder    []domain.RecorderState
	panels      []panelEvent
	transcripts []string
	noteSaves   []domain.NoteField
	validations int
	vitalsSaves int
	gateAcks    []domain.ReviewSection
	errors      []errEvent
}

func (f *fakeEventSink) EncounterStateChanged(state domain.EncounterState, reason domain.EncounterStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) RecorderStateChanged(state domain.RecorderState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorder = append(f.recorder, state)
}

func (f *fakeEventSink) PanelLoaded(panel domain.Panel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels = append(f.panels, panelEvent{panel: panel})
}

func (f *fakeEventSink) PanelFailed(panel domain.Panel, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels = append(f.panels, panelEvent{panel: panel, failed: true, detail: detail})
}

func (f *fakeEventSink) TranscriptAppended(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, line)
}

func (f *fakeEventSink) NoteFieldSaved(field domain.NoteField) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteSaves = append(f.noteSaves, field)
}

func (f *fakeEventSink) NoteValidated() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validations++
}

func (f *fakeEventSink) VitalsSaved() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vitalsSaves++
}

func (f *fakeEventSink) GateAcknowledged(section domain.ReviewSection) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gateAcks = append(f.gateAcks, section)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotRecorder() []domain.RecorderState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.RecorderState, len(f.recorder))
	copy(out, f.recorder)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) snapshotGateAcks() []domain.ReviewSection {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ReviewSection, len(f.gateAcks))
	copy(out, f.gateAcks)
	return out
}

func (f *fakeEventSink) snapshotTranscripts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.transcripts))
	copy(out, f.transcripts)
	return out
}

var _ ports.EncounterService = (*fakeService)(nil)
var _ ports.EventSink = (*fakeEventSink)(nil)
var _ ports.SegmentTranscriber = (*fakeTranscriber)(nil)
