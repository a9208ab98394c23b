package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medcockpit/internal/domain"
	"medcockpit/internal/queue"
	"medcockpit/internal/usecase"
	"medcockpit/pkg/logging"
)

// Handler exposes every cockpit contract operation to the UI shell.
type Handler struct {
	controller *usecase.EncounterController
	patients   *queue.Repository
	logger     *logging.Logger
	savedFlash time.Duration
}

func NewHandler(
	controller *usecase.EncounterController,
	patients *queue.Repository,
	logger *logging.Logger,
	savedFlash time.Duration,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if savedFlash <= 0 {
		savedFlash = 2 * time.Second
	}
	return &Handler{
		controller: controller,
		patients:   patients,
		logger:     logger,
		savedFlash: savedFlash,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/status", h.getStatus)

	r.Get("/queue", h.listQueue)
	r.Post("/queue", h.addPatient)

	r.Post("/encounter", h.beginEncounter)
	r.Post("/encounter/retry", h.retryPreparing)
	r.Post("/encounter/finalize", h.finalizeEncounter)
	r.Delete("/encounter", h.releaseEncounter)
	r.Get("/encounter/briefing", h.getBriefing)
	r.Get("/encounter/history", h.getHistory)

	r.Get("/gates", h.getGates)
	r.Post("/gates/{section}/acknowledge", h.acknowledgeGate)
	r.Put("/sections/{section}", h.editSection)

	r.Get("/note", h.getNote)
	r.Post("/note/{field}/edit", h.beginNoteEdit)
	r.Post("/note/{field}/commit", h.commitNoteField)
	r.Post("/note/{field}/cancel", h.cancelNoteEdit)
	r.Post("/note/validate", h.validateNote)

	r.Get("/vitals", h.getVitals)
	r.Put("/vitals/{field}", h.setVitalField)
	r.Post("/vitals/save", h.saveVitals)

	r.Post("/recording/start", h.startRecording)
	r.Post("/recording/stop", h.stopRecording)
	r.Get("/transcript", h.getTranscript)
	r.Delete("/transcript", h.clearTranscript)
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) listQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"patients": h.patients.List()})
}

func (h *Handler) addPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		jsonError(w, "name is required", http.StatusBadRequest)
		return
	}
	snapshot := h.patients.Add(queue.Patient{Name: req.Name, Reason: req.Reason})
	writeJSON(w, http.StatusCreated, map[string]any{"patients": snapshot})
}

func (h *Handler) beginEncounter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID string `json:"patientId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID == "" {
		jsonError(w, "patientId is required", http.StatusBadRequest)
		return
	}
	if _, ok := h.patients.Get(req.PatientID); !ok {
		jsonError(w, "patient is not in the queue", http.StatusNotFound)
		return
	}

	// Panel loads outlive the request.
	if err := h.controller.Begin(context.WithoutCancel(r.Context()), req.PatientID); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.controller.Status())
}

func (h *Handler) retryPreparing(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.RetryPreparing(context.WithoutCancel(r.Context())); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) finalizeEncounter(w http.ResponseWriter, r *http.Request) {
	status := h.controller.Status()

	if err := h.controller.Finalize(r.Context()); err != nil {
		h.writeOpError(w, err)
		return
	}
	if status.Encounter != nil {
		h.patients.Remove(status.Encounter.PatientID)
	}
	writeJSON(w, http.StatusOK, h.controller.Status())
}

func (h *Handler) releaseEncounter(w http.ResponseWriter, r *http.Request) {
	h.controller.Release()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getBriefing(w http.ResponseWriter, r *http.Request) {
	briefing, err := h.controller.Briefing()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if briefing == nil {
		jsonError(w, "briefing not loaded yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, briefing)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.controller.History()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": history})
}

func (h *Handler) getGates(w http.ResponseWriter, r *http.Request) {
	gates, err := h.controller.Gates()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": gates.Snapshot(),
		"pending":  gates.Pending(),
		"complete": gates.FullyAcknowledged(),
	})
}

func (h *Handler) acknowledgeGate(w http.ResponseWriter, r *http.Request) {
	gates, err := h.controller.Gates()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	section := domain.ReviewSection(chi.URLParam(r, "section"))
	if err := gates.Acknowledge(section); err != nil {
		h.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) editSection(w http.ResponseWriter, r *http.Request) {
	section := domain.ReviewSection(chi.URLParam(r, "section"))

	var edit domain.SectionEdit
	switch section {
	case domain.SectionAllergies:
		var payload domain.AllergiesEdit
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			jsonError(w, "invalid allergies payload", http.StatusBadRequest)
			return
		}
		edit = payload
	case domain.SectionMedications:
		var payload domain.MedicationsEdit
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			jsonError(w, "invalid medications payload", http.StatusBadRequest)
			return
		}
		edit = payload
	case domain.SectionHistory:
		var payload domain.HistoryEdit
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			jsonError(w, "invalid history payload", http.StatusBadRequest)
			return
		}
		edit = payload
	case domain.SectionIntakeForm:
		var payload domain.IntakeEdit
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			jsonError(w, "invalid intake payload", http.StatusBadRequest)
			return
		}
		edit = payload
	default:
		jsonError(w, "unknown section", http.StatusBadRequest)
		return
	}

	if err := h.controller.EditSection(r.Context(), edit); err != nil {
		h.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.controller.Note()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note.Snapshot())
}

func (h *Handler) beginNoteEdit(w http.ResponseWriter, r *http.Request) {
	note, err := h.controller.Note()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	field := domain.NoteField(chi.URLParam(r, "field"))
	if err := note.BeginEdit(field); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note.Snapshot())
}

func (h *Handler) commitNoteField(w http.ResponseWriter, r *http.Request) {
	note, err := h.controller.Note()
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid commit payload", http.StatusBadRequest)
		return
	}

	field := domain.NoteField(chi.URLParam(r, "field"))
	if err := note.Commit(r.Context(), field, req.Text); err != nil {
		h.writeOpError(w, err)
		return
	}

	// The just-saved decoration is time-boxed by the shell, not the editor.
	time.AfterFunc(h.savedFlash, func() { note.ClearJustSaved(field) })
	writeJSON(w, http.StatusOK, note.Snapshot())
}

func (h *Handler) cancelNoteEdit(w http.ResponseWriter, r *http.Request) {
	note, err := h.controller.Note()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	field := domain.NoteField(chi.URLParam(r, "field"))
	if err := note.Cancel(field); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note.Snapshot())
}

func (h *Handler) validateNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.controller.Note()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if err := note.Validate(r.Context()); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note.Snapshot())
}

func (h *Handler) getVitals(w http.ResponseWriter, r *http.Request) {
	vitals, err := h.controller.Vitals()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	record, saving, justSaved := vitals.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"record":    record,
		"saving":    saving,
		"justSaved": justSaved,
	})
}

func (h *Handler) setVitalField(w http.ResponseWriter, r *http.Request) {
	vitals, err := h.controller.Vitals()
	if err != nil {
		h.writeOpError(w, err)
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid vitals payload", http.StatusBadRequest)
		return
	}

	field := domain.VitalField(chi.URLParam(r, "field"))
	if err := vitals.SetField(field, req.Value); err != nil {
		h.writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) saveVitals(w http.ResponseWriter, r *http.Request) {
	vitals, err := h.controller.Vitals()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if err := vitals.Save(r.Context()); err != nil {
		h.writeOpError(w, err)
		return
	}
	time.AfterFunc(h.savedFlash, vitals.ClearSaved)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startRecording(w http.ResponseWriter, r *http.Request) {
	recorder, err := h.controller.Recorder()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if err := recorder.Start(context.WithoutCancel(r.Context())); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(recorder.State())})
}

func (h *Handler) stopRecording(w http.ResponseWriter, r *http.Request) {
	recorder, err := h.controller.Recorder()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	if err := recorder.Stop(context.WithoutCancel(r.Context())); err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(recorder.State())})
}

func (h *Handler) getTranscript(w http.ResponseWriter, r *http.Request) {
	transcription, err := h.controller.Transcription()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"text":  transcription.Buffer().Text(),
		"lines": transcription.Buffer().Lines(),
	})
}

func (h *Handler) clearTranscript(w http.ResponseWriter, r *http.Request) {
	transcription, err := h.controller.Transcription()
	if err != nil {
		h.writeOpError(w, err)
		return
	}
	transcription.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// writeOpError maps orchestration errors onto HTTP statuses. Precondition
// rejections carry their enumerated reasons so the shell can show them.
func (h *Handler) writeOpError(w http.ResponseWriter, err error) {
	var rejected *usecase.FinalizeRejectedError
	if errors.As(err, &rejected) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "finalize rejected",
			"reasons": rejected.Reasons,
		})
		return
	}

	var unsaved *usecase.FieldsUnsavedError
	if errors.As(err, &unsaved) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "note fields never saved",
			"fields": unsaved.Fields,
		})
		return
	}

	var deviceErr *domain.DeviceError
	if errors.As(err, &deviceErr) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": deviceErr.Error(),
			"kind":  string(deviceErr.Kind),
		})
		return
	}

	switch {
	case errors.Is(err, usecase.ErrUnknownSection),
		errors.Is(err, usecase.ErrUnknownNoteField),
		errors.Is(err, usecase.ErrUnknownVitalField),
		errors.Is(err, usecase.ErrInvalidMeasurement):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, usecase.ErrNoActiveEncounter),
		errors.Is(err, usecase.ErrEncounterNotActive),
		errors.Is(err, usecase.ErrEncounterActive),
		errors.Is(err, usecase.ErrEncounterReleased),
		errors.Is(err, usecase.ErrFinalizeInFlight),
		errors.Is(err, usecase.ErrRecordingActive),
		errors.Is(err, usecase.ErrNoActiveRecording),
		errors.Is(err, usecase.ErrSaveInFlight),
		errors.Is(err, usecase.ErrNoActiveEdit):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("collaborator call failed", "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
