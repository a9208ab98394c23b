package gateway

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"medcockpit/internal/domain"
	"medcockpit/pkg/logging"
)

const (
	eventState      = "cockpit:state"
	eventRecorder   = "cockpit:recorder"
	eventPanel      = "cockpit:panel"
	eventTranscript = "cockpit:transcript"
	eventNote       = "cockpit:note"
	eventVitals     = "cockpit:vitals"
	eventGate       = "cockpit:gate"
	eventError      = "cockpit:error"
)

// Event is one backend event pushed to the UI shell.
type Event struct {
	Name    string            `json:"name"`
	Payload map[string]string `json:"payload"`
}

// Hub implements ports.EventSink by broadcasting events to every connected
// websocket client.
type Hub struct {
	logger   *logging.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the connection and keeps it registered until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Clients only listen; drain until the peer goes away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) broadcast(name string, payload map[string]string) {
	event := Event{Name: name, Payload: payload}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) EncounterStateChanged(state domain.EncounterState, reason domain.EncounterStateReason) {
	h.broadcast(eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

func (h *Hub) RecorderStateChanged(state domain.RecorderState) {
	h.broadcast(eventRecorder, map[string]string{"state": string(state)})
}

func (h *Hub) PanelLoaded(panel domain.Panel) {
	h.broadcast(eventPanel, map[string]string{"panel": string(panel), "status": "loaded"})
}

func (h *Hub) PanelFailed(panel domain.Panel, detail string) {
	h.broadcast(eventPanel, map[string]string{"panel": string(panel), "status": "failed", "detail": detail})
}

func (h *Hub) TranscriptAppended(line string) {
	h.broadcast(eventTranscript, map[string]string{"line": line})
}

func (h *Hub) NoteFieldSaved(field domain.NoteField) {
	h.broadcast(eventNote, map[string]string{"field": string(field), "status": "saved"})
}

func (h *Hub) NoteValidated() {
	h.broadcast(eventNote, map[string]string{"status": "validated"})
}

func (h *Hub) VitalsSaved() {
	h.broadcast(eventVitals, map[string]string{"status": "saved"})
}

func (h *Hub) GateAcknowledged(section domain.ReviewSection) {
	h.broadcast(eventGate, map[string]string{"section": string(section)})
}

func (h *Hub) SessionError(code domain.ErrorCode, detail string) {
	h.broadcast(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.EncounterStateReason) string {
	switch reason {
	case domain.EncounterReasonBooted:
		return "Cockpit ready"
	case domain.EncounterReasonPatientSelected:
		return "Preparing encounter"
	case domain.EncounterReasonStartFailed:
		return "Could not start the encounter"
	case domain.EncounterReasonBriefingLoaded:
		return "Encounter in progress"
	case domain.EncounterReasonFinalizing:
		return "Finalizing encounter..."
	case domain.EncounterReasonFinalized:
		return "Encounter finalized"
	case domain.EncounterReasonFinalizeFailed:
		return "Finalize failed; encounter still open"
	case domain.EncounterReasonReleased:
		return "Encounter released"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeDevice:
		return "Microphone unavailable"
	case domain.ErrorCodeAudioStream:
		return "Audio capture issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeNoteSave:
		return "Note save failed"
	case domain.ErrorCodeNoteValidate:
		return "Note validation failed"
	case domain.ErrorCodeVitalsSave:
		return "Vitals save failed"
	case domain.ErrorCodePanelLoad:
		return "Panel failed to load"
	case domain.ErrorCodeSectionEdit:
		return "Section update failed"
	case domain.ErrorCodeFinalize:
		return "Encounter cannot be finalized"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
