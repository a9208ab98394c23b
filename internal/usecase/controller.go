package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

var (
	ErrEncounterActive    = errors.New("an encounter is already active")
	ErrNoActiveEncounter  = errors.New("no active encounter")
	ErrEncounterNotActive = errors.New("encounter is not in the active state")
	ErrEncounterReleased  = errors.New("encounter released during preparation")
	ErrFinalizeInFlight   = errors.New("finalize already in flight")
)

// Config controls encounter orchestration behavior.
type Config struct {
	Recorder RecorderConfig
}

// EncounterController coordinates one active consultation: preparation
// panels, review gates, the structured note, vitals and the audio pipeline.
// It is the only component allowed to finalize an encounter.
type EncounterController struct {
	service     ports.EncounterService
	transcriber ports.SegmentTranscriber
	capture     ports.AudioCapture
	events      ports.EventSink
	cfg         Config

	mu      sync.Mutex
	state   domain.EncounterState
	current *activeEncounter
}

type activeEncounter struct {
	encounter     domain.Encounter
	gates         *GateTracker
	note          *NoteEditor
	vitals        *VitalsEditor
	transcription *TranscriptionClient
	recorder      *Recorder

	prepDone chan struct{}

	mu          sync.Mutex
	briefing    *domain.Briefing
	history     []domain.HistoryEntry
	panelLoaded map[domain.Panel]bool
	panelErr    map[domain.Panel]string
}

func (a *activeEncounter) panelOK(panel domain.Panel) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panelLoaded[panel] = true
	delete(a.panelErr, panel)
}

func (a *activeEncounter) panelFail(panel domain.Panel, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panelErr[panel] = err.Error()
}

func (a *activeEncounter) failedPanels() []domain.Panel {
	a.mu.Lock()
	defer a.mu.Unlock()
	var failed []domain.Panel
	for _, panel := range []domain.Panel{domain.PanelBriefing, domain.PanelHistory, domain.PanelNote} {
		if _, ok := a.panelErr[panel]; ok {
			failed = append(failed, panel)
		}
	}
	return failed
}

func NewEncounterController(
	service ports.EncounterService,
	transcriber ports.SegmentTranscriber,
	capture ports.AudioCapture,
	events ports.EventSink,
	cfg Config,
) *EncounterController {
	return &EncounterController{
		service:     service,
		transcriber: transcriber,
		capture:     capture,
		events:      events,
		cfg:         cfg,
		state:       domain.EncounterStateIdle,
	}
}

// Begin starts an encounter for a queued patient and kicks off the
// preparation panel loads. Panels load independently; the controller
// becomes active as soon as the briefing is in, without waiting for the
// optional panels.
func (c *EncounterController) Begin(ctx context.Context, patientID string) error {
	c.mu.Lock()
	if c.state != domain.EncounterStateIdle {
		c.mu.Unlock()
		return ErrEncounterActive
	}
	c.state = domain.EncounterStatePreparing
	c.mu.Unlock()

	c.events.EncounterStateChanged(domain.EncounterStatePreparing, domain.EncounterReasonPatientSelected)

	encounter, err := c.service.StartEncounter(ctx, patientID)
	if err != nil {
		c.mu.Lock()
		c.state = domain.EncounterStateIdle
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeStartup, err.Error())
		c.events.EncounterStateChanged(domain.EncounterStateIdle, domain.EncounterReasonStartFailed)
		return fmt.Errorf("start encounter: %w", err)
	}

	transcription := NewTranscriptionClient(c.transcriber, c.events)
	active := &activeEncounter{
		encounter:     encounter,
		gates:         NewGateTracker(c.events),
		note:          NewNoteEditor(c.service, c.events),
		vitals:        NewVitalsEditor(c.service, c.events, encounter.ID),
		transcription: transcription,
		recorder:      NewRecorder(c.capture, transcription, c.events, encounter.ID, c.cfg.Recorder),
		prepDone:      make(chan struct{}),
		panelLoaded:   make(map[domain.Panel]bool),
		panelErr:      make(map[domain.Panel]string),
	}

	c.mu.Lock()
	// A Release during the StartEncounter call wins; do not install a
	// session the user already walked away from.
	if c.state != domain.EncounterStatePreparing {
		c.mu.Unlock()
		return ErrEncounterReleased
	}
	c.current = active
	c.mu.Unlock()

	go c.prepare(ctx, active)
	return nil
}

func (c *EncounterController) prepare(ctx context.Context, active *activeEncounter) {
	defer close(active.prepDone)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		c.loadPanel(ctx, active, domain.PanelBriefing)
	}()
	go func() {
		defer wg.Done()
		c.loadPanel(ctx, active, domain.PanelHistory)
	}()
	go func() {
		defer wg.Done()
		c.loadPanel(ctx, active, domain.PanelNote)
	}()
	wg.Wait()
}

func (c *EncounterController) loadPanel(ctx context.Context, active *activeEncounter, panel domain.Panel) {
	var err error
	switch panel {
	case domain.PanelBriefing:
		var briefing domain.Briefing
		briefing, err = c.service.FetchBriefing(ctx, active.encounter.PatientID)
		if err == nil {
			active.mu.Lock()
			active.briefing = &briefing
			active.mu.Unlock()
		}
	case domain.PanelHistory:
		var history []domain.HistoryEntry
		history, err = c.service.FetchHistory(ctx, active.encounter.PatientID)
		if err == nil {
			active.mu.Lock()
			active.history = history
			active.mu.Unlock()
		}
	case domain.PanelNote:
		var note domain.StructuredNote
		note, err = c.service.FetchNote(ctx, active.encounter.ID)
		if err == nil {
			active.note.Load(note)
		}
	}

	if err != nil {
		active.panelFail(panel, err)
		c.events.PanelFailed(panel, err.Error())
		return
	}

	active.panelOK(panel)
	c.events.PanelLoaded(panel)
	if panel == domain.PanelBriefing {
		c.activate(active)
	}
}

// activate moves preparing -> active once the minimum data set is loaded.
func (c *EncounterController) activate(active *activeEncounter) {
	c.mu.Lock()
	transition := c.current == active && c.state == domain.EncounterStatePreparing
	if transition {
		c.state = domain.EncounterStateActive
	}
	c.mu.Unlock()

	if transition {
		c.events.EncounterStateChanged(domain.EncounterStateActive, domain.EncounterReasonBriefingLoaded)
	}
}

// RetryPreparing refetches every panel that failed to load. The briefing
// panel, once loaded, activates the encounter.
func (c *EncounterController) RetryPreparing(ctx context.Context) error {
	c.mu.Lock()
	active := c.current
	c.mu.Unlock()
	if active == nil {
		return ErrNoActiveEncounter
	}

	var errs []error
	for _, panel := range active.failedPanels() {
		c.loadPanel(ctx, active, panel)
		active.mu.Lock()
		if detail, ok := active.panelErr[panel]; ok {
			errs = append(errs, fmt.Errorf("%s: %s", panel, detail))
		}
		active.mu.Unlock()
	}
	return errors.Join(errs...)
}

// Finalize closes the encounter. The precondition (every review gate
// acknowledged and the note validated) is checked client-side; the records
// system is never called while it fails. At most one finalize is in flight.
func (c *EncounterController) Finalize(ctx context.Context) error {
	c.mu.Lock()
	if c.state == domain.EncounterStateFinalizing {
		c.mu.Unlock()
		return ErrFinalizeInFlight
	}
	if c.state != domain.EncounterStateActive || c.current == nil {
		c.mu.Unlock()
		return ErrEncounterNotActive
	}
	active := c.current
	c.mu.Unlock()

	if reasons := finalizeReasons(active.gates, active.note); len(reasons) > 0 {
		c.events.SessionError(domain.ErrorCodeFinalize, readinessDetail(reasons))
		return &FinalizeRejectedError{Reasons: reasons}
	}

	c.mu.Lock()
	if c.state != domain.EncounterStateActive || c.current != active {
		c.mu.Unlock()
		return ErrFinalizeInFlight
	}
	c.state = domain.EncounterStateFinalizing
	c.mu.Unlock()

	c.events.EncounterStateChanged(domain.EncounterStateFinalizing, domain.EncounterReasonFinalizing)

	if err := c.service.FinalizeEncounter(ctx, active.encounter.ID); err != nil {
		c.mu.Lock()
		c.state = domain.EncounterStateActive
		c.mu.Unlock()
		c.events.SessionError(domain.ErrorCodeFinalize, err.Error())
		c.events.EncounterStateChanged(domain.EncounterStateActive, domain.EncounterReasonFinalizeFailed)
		return fmt.Errorf("finalize encounter: %w", err)
	}

	active.recorder.Close()

	c.mu.Lock()
	if c.current == active {
		c.current = nil
	}
	c.state = domain.EncounterStateIdle
	c.mu.Unlock()

	c.events.EncounterStateChanged(domain.EncounterStateIdle, domain.EncounterReasonFinalized)
	return nil
}

// Release tears the encounter down without finalizing, e.g. when the
// clinician navigates away. The audio device is released unconditionally.
func (c *EncounterController) Release() {
	c.mu.Lock()
	active := c.current
	c.current = nil
	wasIdle := c.state == domain.EncounterStateIdle
	c.state = domain.EncounterStateIdle
	c.mu.Unlock()

	if active != nil {
		active.recorder.Close()
	}
	if !wasIdle {
		c.events.EncounterStateChanged(domain.EncounterStateIdle, domain.EncounterReasonReleased)
	}
}

// EditSection forwards a typed pre-visit section edit to the records
// system. Gate flags are never reset by an edit.
func (c *EncounterController) EditSection(ctx context.Context, edit domain.SectionEdit) error {
	active, err := c.getCurrent()
	if err != nil {
		return err
	}
	if err := c.service.UpdateSection(ctx, active.encounter.PatientID, edit); err != nil {
		c.events.SessionError(domain.ErrorCodeSectionEdit, err.Error())
		return fmt.Errorf("update %s section: %w", edit.Section(), err)
	}
	return nil
}

// Gates returns the review gate tracker of the active encounter.
func (c *EncounterController) Gates() (*GateTracker, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	return active.gates, nil
}

// Note returns the structured note editor of the active encounter.
func (c *EncounterController) Note() (*NoteEditor, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	return active.note, nil
}

// Vitals returns the vitals editor of the active encounter.
func (c *EncounterController) Vitals() (*VitalsEditor, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	return active.vitals, nil
}

// Recorder returns the audio recorder of the active encounter.
func (c *EncounterController) Recorder() (*Recorder, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	return active.recorder, nil
}

// Transcription returns the transcription client of the active encounter.
func (c *EncounterController) Transcription() (*TranscriptionClient, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	return active.transcription, nil
}

// Briefing returns the loaded briefing, nil while the panel is pending.
func (c *EncounterController) Briefing() (*domain.Briefing, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	active.mu.Lock()
	defer active.mu.Unlock()
	if active.briefing == nil {
		return nil, nil
	}
	briefing := *active.briefing
	return &briefing, nil
}

// History returns the loaded past-encounters panel.
func (c *EncounterController) History() ([]domain.HistoryEntry, error) {
	active, err := c.getCurrent()
	if err != nil {
		return nil, err
	}
	active.mu.Lock()
	defer active.mu.Unlock()
	out := make([]domain.HistoryEntry, len(active.history))
	copy(out, active.history)
	return out, nil
}

// Status returns a snapshot of the controller for the UI shell.
func (c *EncounterController) Status() domain.Status {
	c.mu.Lock()
	state := c.state
	active := c.current
	c.mu.Unlock()

	status := domain.Status{
		State:    state,
		Active:   state != domain.EncounterStateIdle,
		Recorder: domain.RecorderStateIdle,
	}
	if active == nil {
		return status
	}

	encounter := active.encounter
	status.Encounter = &encounter
	status.Recorder = active.recorder.State()
	status.ElapsedSeconds = active.recorder.Elapsed()

	active.mu.Lock()
	status.PanelsLoaded = make(map[domain.Panel]bool, len(active.panelLoaded))
	for panel, loaded := range active.panelLoaded {
		status.PanelsLoaded[panel] = loaded
	}
	status.PanelErrors = make(map[domain.Panel]string, len(active.panelErr))
	for panel, detail := range active.panelErr {
		status.PanelErrors[panel] = detail
	}
	active.mu.Unlock()
	return status
}

func (c *EncounterController) getCurrent() (*activeEncounter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, ErrNoActiveEncounter
	}
	return c.current, nil
}
