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
	ErrUnknownNoteField = errors.New("unknown note field")
	ErrNoActiveEdit     = errors.New("field is not being edited")
	ErrSaveInFlight     = errors.New("a field save is in flight")
)

// FieldsUnsavedError rejects validation while fields have never been
// explicitly saved by a human.
type FieldsUnsavedError struct {
	Fields []domain.NoteField
}

func (e *FieldsUnsavedError) Error() string {
	return fmt.Sprintf("note fields never saved: %v", e.Fields)
}

// NoteEditor holds the structured note and its single edit session. At most
// one field is editing or saving at a time across the whole editor; starting
// a new edit implicitly cancels the previous one.
type NoteEditor struct {
	service ports.EncounterService
	events  ports.EventSink

	mu        sync.Mutex
	note      domain.StructuredNote
	edit      domain.NoteEditState
	savedOnce map[domain.NoteField]bool
	justSaved map[domain.NoteField]bool
}

func NewNoteEditor(service ports.EncounterService, events ports.EventSink) *NoteEditor {
	return &NoteEditor{
		service:   service,
		events:    events,
		edit:      domain.NoteViewing(),
		savedOnce: make(map[domain.NoteField]bool, len(domain.AllNoteFields)),
		justSaved: make(map[domain.NoteField]bool, len(domain.AllNoteFields)),
	}
}

// Load replaces the note with one fetched from the records system. Fields of
// a machine-authored draft count as unsaved until a human commits them;
// fields of a previously human-saved note count as saved.
func (n *NoteEditor) Load(note domain.StructuredNote) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.note = note
	n.edit = domain.NoteViewing()
	for _, field := range domain.AllNoteFields {
		n.savedOnce[field] = !note.MachineAuthored
		n.justSaved[field] = false
	}
}

// BeginEdit opens an edit session on field, implicitly cancelling any edit
// on a different field. It is refused while a save is in flight.
func (n *NoteEditor) BeginEdit(field domain.NoteField) error {
	if !domain.ValidNoteField(field) {
		return ErrUnknownNoteField
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.edit.Mode == domain.NoteEditSaving {
		return ErrSaveInFlight
	}
	n.edit = domain.NoteEditing(field, n.note.FieldValue(field))
	return nil
}

// Cancel discards the in-progress text and returns to viewing.
func (n *NoteEditor) Cancel(field domain.NoteField) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.edit.Mode != domain.NoteEditEditing || n.edit.Field != field {
		return ErrNoActiveEdit
	}
	n.edit = domain.NoteViewing()
	return nil
}

// Commit persists text into field through the records system. On failure the
// attempted text stays editable so the user can retry or cancel.
func (n *NoteEditor) Commit(ctx context.Context, field domain.NoteField, text string) error {
	n.mu.Lock()
	if n.edit.Mode == domain.NoteEditSaving {
		n.mu.Unlock()
		return ErrSaveInFlight
	}
	if n.edit.Mode != domain.NoteEditEditing || n.edit.Field != field {
		n.mu.Unlock()
		return ErrNoActiveEdit
	}
	n.edit = domain.NoteSaving(field, text)
	noteID := n.note.ID
	n.mu.Unlock()

	err := n.service.UpdateNoteField(ctx, noteID, field, text)

	n.mu.Lock()
	if err != nil {
		n.edit = domain.NoteEditing(field, text)
		n.mu.Unlock()
		n.events.SessionError(domain.ErrorCodeNoteSave, err.Error())
		return fmt.Errorf("commit note field %s: %w", field, err)
	}
	n.note.SetFieldValue(field, text)
	n.savedOnce[field] = true
	n.justSaved[field] = true
	n.edit = domain.NoteViewing()
	n.mu.Unlock()

	n.events.NoteFieldSaved(field)
	return nil
}

// Validate marks the note as reviewed by the clinician. Every field must
// have been explicitly saved at least once; once set, the flag is not
// clearable from this editor, though fields remain editable.
func (n *NoteEditor) Validate(ctx context.Context) error {
	n.mu.Lock()
	if n.note.Validated {
		n.mu.Unlock()
		return nil
	}
	var unsaved []domain.NoteField
	for _, field := range domain.AllNoteFields {
		if !n.savedOnce[field] {
			unsaved = append(unsaved, field)
		}
	}
	noteID := n.note.ID
	n.mu.Unlock()

	if len(unsaved) > 0 {
		return &FieldsUnsavedError{Fields: unsaved}
	}

	if err := n.service.MarkNoteReviewed(ctx, noteID); err != nil {
		n.events.SessionError(domain.ErrorCodeNoteValidate, err.Error())
		return fmt.Errorf("mark note reviewed: %w", err)
	}

	n.mu.Lock()
	n.note.Validated = true
	n.mu.Unlock()

	n.events.NoteValidated()
	return nil
}

// Validated reports whether the clinician has signed off.
func (n *NoteEditor) Validated() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.note.Validated
}

// ClearJustSaved clears the transient saved decoration on one field. The
// display window is owned by the caller.
func (n *NoteEditor) ClearJustSaved(field domain.NoteField) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.justSaved[field] = false
}

// Snapshot returns the note, the edit session and the transient flags.
func (n *NoteEditor) Snapshot() domain.NoteSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	justSaved := make(map[domain.NoteField]bool, len(n.justSaved))
	for field, saved := range n.justSaved {
		justSaved[field] = saved
	}
	return domain.NoteSnapshot{Note: n.note, Edit: n.edit, JustSaved: justSaved}
}
