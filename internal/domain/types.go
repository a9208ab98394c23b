package domain

import "time"

// EncounterState models the cockpit consultation lifecycle.
type EncounterState string

const (
	EncounterStateIdle       EncounterState = "idle"
	EncounterStatePreparing  EncounterState = "preparing"
	EncounterStateActive     EncounterState = "active"
	EncounterStateFinalizing EncounterState = "finalizing"
)

// EncounterStateReason provides a structured reason for state transitions.
type EncounterStateReason string

const (
	EncounterReasonBooted          EncounterStateReason = "booted"
	EncounterReasonPatientSelected EncounterStateReason = "patient_selected"
	EncounterReasonStartFailed     EncounterStateReason = "start_failed"
	EncounterReasonBriefingLoaded  EncounterStateReason = "briefing_loaded"
	EncounterReasonFinalizing      EncounterStateReason = "finalizing"
	EncounterReasonFinalized       EncounterStateReason = "encounter_finalized"
	EncounterReasonFinalizeFailed  EncounterStateReason = "finalize_failed"
	EncounterReasonReleased        EncounterStateReason = "encounter_released"
)

// RecorderState models the audio capture lifecycle.
type RecorderState string

const (
	RecorderStateIdle       RecorderState = "idle"
	RecorderStateRecording  RecorderState = "recording"
	RecorderStateProcessing RecorderState = "processing"
)

// ErrorCode identifies non-fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeDevice        ErrorCode = "device"
	ErrorCodeAudioStream   ErrorCode = "audio_stream"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeNoteSave      ErrorCode = "note_save"
	ErrorCodeNoteValidate  ErrorCode = "note_validate"
	ErrorCodeVitalsSave    ErrorCode = "vitals_save"
	ErrorCodePanelLoad     ErrorCode = "panel_load"
	ErrorCodeSectionEdit   ErrorCode = "section_edit"
	ErrorCodeFinalize      ErrorCode = "finalize"
)

// DeviceErrorKind categorizes audio device acquisition failures.
type DeviceErrorKind string

const (
	DevicePermissionDenied DeviceErrorKind = "permission-denied"
	DeviceNotFound         DeviceErrorKind = "device-not-found"
	DeviceUnknown          DeviceErrorKind = "unknown"
)

// DeviceError wraps a device acquisition failure with its category.
type DeviceError struct {
	Kind DeviceErrorKind
	Err  error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return "audio device error: " + string(e.Kind)
	}
	return "audio device error (" + string(e.Kind) + "): " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ReviewSection names one mandatory pre-visit data section.
type ReviewSection string

const (
	SectionAllergies   ReviewSection = "allergies"
	SectionMedications ReviewSection = "medications"
	SectionHistory     ReviewSection = "history"
	SectionIntakeForm  ReviewSection = "intake-form"
)

// AllReviewSections is the fixed gate set, in display order.
var AllReviewSections = []ReviewSection{
	SectionAllergies,
	SectionMedications,
	SectionHistory,
	SectionIntakeForm,
}

// Panel names one independently loaded preparation panel.
type Panel string

const (
	PanelBriefing Panel = "briefing"
	PanelHistory  Panel = "history"
	PanelNote     Panel = "note"
)

// Encounter is the unit of work: one active consultation.
type Encounter struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	StartedAt time.Time `json:"startedAt"`
}

// IntakeForm holds the patient-submitted pre-visit questionnaire.
type IntakeForm struct {
	ChiefComplaint  string `json:"chiefComplaint"`
	SymptomDuration string `json:"symptomDuration"`
	PainLevel       int    `json:"painLevel"`
	Notes           string `json:"notes,omitempty"`
}

// Briefing is the pre-visit summary fetched while preparing.
type Briefing struct {
	Allergies      []string   `json:"allergies"`
	Medications    []string   `json:"medications"`
	Alerts         []string   `json:"alerts"`
	PendingStudies []string   `json:"pendingStudies"`
	History        string     `json:"history"`
	Intake         IntakeForm `json:"intake"`
}

// HistoryEntry summarizes one past encounter.
type HistoryEntry struct {
	EncounterID string    `json:"encounterId"`
	Date        time.Time `json:"date"`
	Summary     string    `json:"summary"`
	Physician   string    `json:"physician,omitempty"`
}

// Status summarizes the controller runtime for the UI shell.
type Status struct {
	State          EncounterState   `json:"state"`
	Active         bool             `json:"active"`
	Encounter      *Encounter       `json:"encounter,omitempty"`
	Recorder       RecorderState    `json:"recorder"`
	ElapsedSeconds int              `json:"elapsedSeconds"`
	PanelsLoaded   map[Panel]bool   `json:"panelsLoaded,omitempty"`
	PanelErrors    map[Panel]string `json:"panelErrors,omitempty"`
	Message        string           `json:"message,omitempty"`
}
