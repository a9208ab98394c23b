package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"medcockpit/internal/domain"
	"medcockpit/internal/ports"
)

var (
	ErrUnknownVitalField  = errors.New("unknown vital field")
	ErrInvalidMeasurement = errors.New("measurement is not a number")
)

// VitalsEditor holds the mutable vitals record for one encounter and
// mediates user edits. Persistence happens only through an explicit Save.
type VitalsEditor struct {
	service     ports.EncounterService
	events      ports.EventSink
	encounterID string

	mu        sync.Mutex
	record    domain.VitalSigns
	saving    bool
	justSaved bool
}

func NewVitalsEditor(service ports.EncounterService, events ports.EventSink, encounterID string) *VitalsEditor {
	return &VitalsEditor{service: service, events: events, encounterID: encounterID}
}

// SetField parses raw as a decimal measurement. The empty string unsets the
// field; non-numeric input is rejected and the previous value stays.
func (v *VitalsEditor) SetField(field domain.VitalField, raw string) error {
	raw = strings.TrimSpace(raw)

	var value *float64
	if raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMeasurement, raw)
		}
		value = &parsed
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.record.Set(field, value) {
		return ErrUnknownVitalField
	}
	return nil
}

// Save persists the complete current record. While a save is in flight,
// further calls are no-ops. An all-unset record is a valid save.
func (v *VitalsEditor) Save(ctx context.Context) error {
	v.mu.Lock()
	if v.saving {
		v.mu.Unlock()
		return nil
	}
	v.saving = true
	record := v.record
	v.mu.Unlock()

	err := v.service.SaveVitals(ctx, v.encounterID, record)

	v.mu.Lock()
	v.saving = false
	if err == nil {
		v.justSaved = true
	}
	v.mu.Unlock()

	if err != nil {
		v.events.SessionError(domain.ErrorCodeVitalsSave, err.Error())
		return fmt.Errorf("save vitals: %w", err)
	}
	v.events.VitalsSaved()
	return nil
}

// ClearSaved clears the transient saved indicator. The display window is
// owned by the caller, not by this editor.
func (v *VitalsEditor) ClearSaved() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.justSaved = false
}

// Snapshot returns the current record plus the transient flags.
func (v *VitalsEditor) Snapshot() (domain.VitalSigns, bool, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.record, v.saving, v.justSaved
}
