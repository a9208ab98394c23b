package usecase

import (
	"context"
	"errors"
	"testing"

	"medcockpit/internal/domain"
)

func machineDraft() domain.StructuredNote {
	return domain.StructuredNote{
		ID:              "note-1",
		Subjective:      "Cough for two weeks.",
		Objective:       "Slight wheeze on the right.",
		Assessment:      "Probable bronchitis.",
		Plan:            "Chest X-ray, reassess in a week.",
		MachineAuthored: true,
	}
}

func TestNoteEditorCommitPersistsField(t *testing.T) {
	t.Parallel()

	service := &fakeService{}
	events := &fakeEventSink{}
	editor := NewNoteEditor(service, events)
	editor.Load(machineDraft())

	if err := editor.BeginEdit(domain.FieldPlan); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.Commit(context.Background(), domain.FieldPlan, "Chest X-ray today."); err != nil {
		t.Fatalf("commit: %v", err)
	}

	saved := service.snapshotSavedFields()
	if len(saved) != 1 || saved[0].field != domain.FieldPlan || saved[0].value != "Chest X-ray today." {
		t.Fatalf("unexpected saved fields: %+v", saved)
	}

	snap := editor.Snapshot()
	if snap.Note.Plan != "Chest X-ray today." {
		t.Fatalf("note text not updated: %q", snap.Note.Plan)
	}
	if snap.Edit.Mode != domain.NoteEditViewing {
		t.Fatalf("expected viewing after commit, got %s", snap.Edit.Mode)
	}
	if !snap.JustSaved[domain.FieldPlan] {
		t.Fatalf("expected just-saved decoration on plan")
	}
}

func TestNoteEditorCommitFailureKeepsAttemptedText(t *testing.T) {
	t.Parallel()

	service := &fakeService{saveErr: errors.New("records down")}
	events := &fakeEventSink{}
	editor := NewNoteEditor(service, events)
	editor.Load(machineDraft())

	if err := editor.BeginEdit(domain.FieldAssessment); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.Commit(context.Background(), domain.FieldAssessment, "Viral bronchitis."); err == nil {
		t.Fatalf("expected commit error")
	}

	snap := editor.Snapshot()
	if snap.Edit.Mode != domain.NoteEditEditing || snap.Edit.Field != domain.FieldAssessment {
		t.Fatalf("attempted text must stay editable, got %+v", snap.Edit)
	}
	if snap.Edit.Draft != "Viral bronchitis." {
		t.Fatalf("draft lost: %q", snap.Edit.Draft)
	}
	if snap.Note.Assessment != "Probable bronchitis." {
		t.Fatalf("note text must be untouched on failure: %q", snap.Note.Assessment)
	}

	errs := events.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeNoteSave {
		t.Fatalf("expected a note_save error event, got %+v", errs)
	}
}

func TestNoteEditorBeginEditSwitchesFieldWithoutLeak(t *testing.T) {
	t.Parallel()

	editor := NewNoteEditor(&fakeService{}, &fakeEventSink{})
	editor.Load(machineDraft())

	if err := editor.BeginEdit(domain.FieldSubjective); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	// Starting on another field implicitly cancels the first edit.
	if err := editor.BeginEdit(domain.FieldObjective); err != nil {
		t.Fatalf("switch edit: %v", err)
	}

	snap := editor.Snapshot()
	if snap.Edit.Field != domain.FieldObjective {
		t.Fatalf("expected objective edit, got %s", snap.Edit.Field)
	}
	if snap.Edit.Draft != "Slight wheeze on the right." {
		t.Fatalf("draft must come from the target field, got %q", snap.Edit.Draft)
	}
	if snap.Note.Subjective != "Cough for two weeks." {
		t.Fatalf("abandoned edit must not alter the note")
	}
}

func TestNoteEditorCancelDiscardsDraft(t *testing.T) {
	t.Parallel()

	editor := NewNoteEditor(&fakeService{}, &fakeEventSink{})
	editor.Load(machineDraft())

	if err := editor.Cancel(domain.FieldPlan); !errors.Is(err, ErrNoActiveEdit) {
		t.Fatalf("expected ErrNoActiveEdit, got %v", err)
	}

	if err := editor.BeginEdit(domain.FieldPlan); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.Cancel(domain.FieldPlan); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if snap := editor.Snapshot(); snap.Edit.Mode != domain.NoteEditViewing {
		t.Fatalf("expected viewing after cancel, got %s", snap.Edit.Mode)
	}
}

func TestNoteEditorRejectsUnknownField(t *testing.T) {
	t.Parallel()

	editor := NewNoteEditor(&fakeService{}, &fakeEventSink{})
	editor.Load(machineDraft())

	if err := editor.BeginEdit("impression"); !errors.Is(err, ErrUnknownNoteField) {
		t.Fatalf("expected ErrUnknownNoteField, got %v", err)
	}
}

func TestNoteEditorValidateRequiresEveryFieldSaved(t *testing.T) {
	t.Parallel()

	service := &fakeService{}
	editor := NewNoteEditor(service, &fakeEventSink{})
	editor.Load(machineDraft())

	// Machine-authored fields count as unsaved until a human commits them.
	err := editor.Validate(context.Background())
	var unsaved *FieldsUnsavedError
	if !errors.As(err, &unsaved) {
		t.Fatalf("expected FieldsUnsavedError, got %v", err)
	}
	if len(unsaved.Fields) != len(domain.AllNoteFields) {
		t.Fatalf("expected every field unsaved, got %v", unsaved.Fields)
	}

	for _, field := range domain.AllNoteFields {
		if err := editor.BeginEdit(field); err != nil {
			t.Fatalf("begin edit %s: %v", field, err)
		}
		if err := editor.Commit(context.Background(), field, "reviewed"); err != nil {
			t.Fatalf("commit %s: %v", field, err)
		}
	}

	if err := editor.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !editor.Validated() {
		t.Fatalf("expected validated note")
	}
	service.mu.Lock()
	reviewed := len(service.reviewedNotes)
	service.mu.Unlock()
	if reviewed != 1 {
		t.Fatalf("expected one review call, got %d", reviewed)
	}
}

func TestNoteEditorHumanSavedNoteValidatesImmediately(t *testing.T) {
	t.Parallel()

	note := machineDraft()
	note.MachineAuthored = false

	events := &fakeEventSink{}
	editor := NewNoteEditor(&fakeService{}, events)
	editor.Load(note)

	if err := editor.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	events.mu.Lock()
	defer events.mu.Unlock()
	if events.validations != 1 {
		t.Fatalf("expected one validation event, got %d", events.validations)
	}
}

func TestNoteEditorValidatedStaysSetAfterEdits(t *testing.T) {
	t.Parallel()

	note := machineDraft()
	note.MachineAuthored = false

	service := &fakeService{}
	editor := NewNoteEditor(service, &fakeEventSink{})
	editor.Load(note)

	if err := editor.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Fields remain editable after sign-off; the flag is not cleared.
	if err := editor.BeginEdit(domain.FieldPlan); err != nil {
		t.Fatalf("begin edit: %v", err)
	}
	if err := editor.Commit(context.Background(), domain.FieldPlan, "Adjusted plan."); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !editor.Validated() {
		t.Fatalf("validated flag must survive later edits")
	}

	// A second validate is a no-op, not another review call.
	if err := editor.Validate(context.Background()); err != nil {
		t.Fatalf("revalidate: %v", err)
	}
	service.mu.Lock()
	defer service.mu.Unlock()
	if len(service.reviewedNotes) != 1 {
		t.Fatalf("expected a single review call, got %d", len(service.reviewedNotes))
	}
}
