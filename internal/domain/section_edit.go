package domain

// SectionEdit is the typed payload for editing one pre-visit section. Each
// section carries its own shape; the gateway switches over the concrete
// variants so every branch is statically checked.
type SectionEdit interface {
	Section() ReviewSection
}

// AllergiesEdit replaces the patient's allergy list.
type AllergiesEdit struct {
	Allergies []string `json:"allergies"`
}

func (AllergiesEdit) Section() ReviewSection { return SectionAllergies }

// MedicationsEdit replaces the active medication list.
type MedicationsEdit struct {
	Medications []string `json:"medications"`
}

func (MedicationsEdit) Section() ReviewSection { return SectionMedications }

// HistoryEdit replaces the free-text medical history.
type HistoryEdit struct {
	Text string `json:"text"`
}

func (HistoryEdit) Section() ReviewSection { return SectionHistory }

// IntakeEdit replaces the intake questionnaire.
type IntakeEdit struct {
	Form IntakeForm `json:"form"`
}

func (IntakeEdit) Section() ReviewSection { return SectionIntakeForm }
