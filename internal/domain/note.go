package domain

// NoteField names one part of the structured clinical note.
type NoteField string

const (
	FieldSubjective NoteField = "subjective"
	FieldObjective  NoteField = "objective"
	FieldAssessment NoteField = "assessment"
	FieldPlan       NoteField = "plan"
)

// AllNoteFields is the fixed field set, in documentation order.
var AllNoteFields = []NoteField{
	FieldSubjective,
	FieldObjective,
	FieldAssessment,
	FieldPlan,
}

// ValidNoteField reports whether f is one of the four note fields.
func ValidNoteField(f NoteField) bool {
	switch f {
	case FieldSubjective, FieldObjective, FieldAssessment, FieldPlan:
		return true
	}
	return false
}

// Diagnosis is a coded diagnosis attached to the note. Read-only in the
// cockpit; populated by the machine draft or by the records system.
type Diagnosis struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// StructuredNote is the four-part clinical note. It persists past the
// encounter as a medical record; the Validated flag is terminal within a
// session.
type StructuredNote struct {
	ID              string      `json:"id"`
	Subjective      string      `json:"subjective"`
	Objective       string      `json:"objective"`
	Assessment      string      `json:"assessment"`
	Plan            string      `json:"plan"`
	Diagnoses       []Diagnosis `json:"diagnoses,omitempty"`
	MachineAuthored bool        `json:"machineAuthored"`
	Validated       bool        `json:"validated"`
}

// FieldValue returns the current text of one field.
func (n StructuredNote) FieldValue(f NoteField) string {
	switch f {
	case FieldSubjective:
		return n.Subjective
	case FieldObjective:
		return n.Objective
	case FieldAssessment:
		return n.Assessment
	case FieldPlan:
		return n.Plan
	}
	return ""
}

// SetFieldValue stores text into one field.
func (n *StructuredNote) SetFieldValue(f NoteField, value string) {
	switch f {
	case FieldSubjective:
		n.Subjective = value
	case FieldObjective:
		n.Objective = value
	case FieldAssessment:
		n.Assessment = value
	case FieldPlan:
		n.Plan = value
	}
}

// NoteEditMode tags the note editor state machine.
type NoteEditMode string

const (
	NoteEditViewing NoteEditMode = "viewing"
	NoteEditEditing NoteEditMode = "editing"
	NoteEditSaving  NoteEditMode = "saving"
)

// NoteEditState is the tagged edit-session state. At most one field is
// editing or saving at a time; Field and Draft are meaningful only outside
// the viewing mode.
type NoteEditState struct {
	Mode  NoteEditMode `json:"mode"`
	Field NoteField    `json:"field,omitempty"`
	Draft string       `json:"draft,omitempty"`
}

// NoteViewing is the quiescent edit state.
func NoteViewing() NoteEditState {
	return NoteEditState{Mode: NoteEditViewing}
}

// NoteEditing marks field as the single active edit session.
func NoteEditing(field NoteField, draft string) NoteEditState {
	return NoteEditState{Mode: NoteEditEditing, Field: field, Draft: draft}
}

// NoteSaving marks field as having a commit in flight.
func NoteSaving(field NoteField, draft string) NoteEditState {
	return NoteEditState{Mode: NoteEditSaving, Field: field, Draft: draft}
}

// NoteSnapshot is the editor view handed to the UI shell.
type NoteSnapshot struct {
	Note      StructuredNote     `json:"note"`
	Edit      NoteEditState      `json:"edit"`
	JustSaved map[NoteField]bool `json:"justSaved"`
}
