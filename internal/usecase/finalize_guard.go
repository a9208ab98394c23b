package usecase

import "strings"

// FinalizeRejectedError enumerates why a finalize attempt was refused
// client-side. The records system is never called while reasons remain.
type FinalizeRejectedError struct {
	Reasons []string
}

func (e *FinalizeRejectedError) Error() string {
	return "finalize rejected: " + strings.Join(e.Reasons, "; ")
}

// finalizeReasons computes the readiness check: every gate acknowledged and
// the note validated. An empty result means finalize may proceed.
func finalizeReasons(gates *GateTracker, note *NoteEditor) []string {
	var reasons []string
	for _, section := range gates.Pending() {
		reasons = append(reasons, "pending: "+string(section))
	}
	if !note.Validated() {
		reasons = append(reasons, "note not validated")
	}
	return reasons
}

// readinessDetail flattens reasons for event payloads.
func readinessDetail(reasons []string) string {
	return strings.Join(reasons, "; ")
}
