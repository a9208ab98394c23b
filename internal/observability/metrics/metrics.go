package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

// EncounterMetrics exposes counters for the cockpit orchestration flows.
type EncounterMetrics struct {
	stateTransitions *prometheus.CounterVec
	noteSaves        *prometheus.CounterVec
	gateAcks         *prometheus.CounterVec
	transcriptLines  prometheus.Counter
	vitalsSaves      prometheus.Counter
	sessionErrors    *prometheus.CounterVec
}

func NewEncounterMetrics(reg prometheus.Registerer) *EncounterMetrics {
	m := &EncounterMetrics{
		stateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "encounter",
			Name:      "state_transitions_total",
			Help:      "Encounter state transitions by state and reason",
		}, []string{"state", "reason"}),
		noteSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "note",
			Name:      "field_saves_total",
			Help:      "Successful structured-note field saves",
		}, []string{"field"}),
		gateAcks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "gates",
			Name:      "acknowledgments_total",
			Help:      "Review gate acknowledgments",
		}, []string{"section"}),
		transcriptLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "transcription",
			Name:      "lines_total",
			Help:      "Transcript lines appended to the buffer",
		}),
		vitalsSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "vitals",
			Name:      "saves_total",
			Help:      "Successful vitals snapshot saves",
		}),
		sessionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medcockpit",
			Subsystem: "session",
			Name:      "errors_total",
			Help:      "Backend errors surfaced to the UI",
		}, []string{"code"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.stateTransitions,
		m.noteSaves,
		m.gateAcks,
		m.transcriptLines,
		m.vitalsSaves,
		m.sessionErrors,
	)
	return m
}

// Sink decorates an EventSink with metric observation. Every event is
// counted and then forwarded unchanged.
type Sink struct {
	next    ports.EventSink
	metrics *EncounterMetrics
}

func NewSink(next ports.EventSink, metrics *EncounterMetrics) *Sink {
	return &Sink{next: next, metrics: metrics}
}

func (s *Sink) EncounterStateChanged(state domain.EncounterState, reason domain.EncounterStateReason) {
	if s.metrics != nil {
		s.metrics.stateTransitions.WithLabelValues(string(state), string(reason)).Inc()
	}
	s.next.EncounterStateChanged(state, reason)
}

func (s *Sink) RecorderStateChanged(state domain.RecorderState) {
	s.next.RecorderStateChanged(state)
}

func (s *Sink) PanelLoaded(panel domain.Panel) {
	s.next.PanelLoaded(panel)
}

func (s *Sink) PanelFailed(panel domain.Panel, detail string) {
	s.next.PanelFailed(panel, detail)
}

func (s *Sink) TranscriptAppended(line string) {
	if s.metrics != nil {
		s.metrics.transcriptLines.Inc()
	}
	s.next.TranscriptAppended(line)
}

func (s *Sink) NoteFieldSaved(field domain.NoteField) {
	if s.metrics != nil {
		s.metrics.noteSaves.WithLabelValues(string(field)).Inc()
	}
	s.next.NoteFieldSaved(field)
}

func (s *Sink) NoteValidated() {
	s.next.NoteValidated()
}

func (s *Sink) VitalsSaved() {
	if s.metrics != nil {
		s.metrics.vitalsSaves.Inc()
	}
	s.next.VitalsSaved()
}

func (s *Sink) GateAcknowledged(section domain.ReviewSection) {
	if s.metrics != nil {
		s.metrics.gateAcks.WithLabelValues(string(section)).Inc()
	}
	s.next.GateAcknowledged(section)
}

func (s *Sink) SessionError(code domain.ErrorCode, detail string) {
	if s.metrics != nil {
		s.metrics.sessionErrors.WithLabelValues(string(code)).Inc()
	}
	s.next.SessionError(code, detail)
}
