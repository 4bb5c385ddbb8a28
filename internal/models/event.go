package models

type ActivityEvent struct {
	Type      string            `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	Role      Role              `json:"role,omitempty"`
	SubjectID string            `json:"subject_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

const (
	EventLoggedIn          = "user.logged_in"
	EventLoggedOut         = "user.logged_out"
	EventAssignmentSaved   = "assignment.saved"
	EventAssignmentDeleted = "assignment.deleted"
	EventAssignmentLocked  = "assignment.lock_changed"
	EventNoteSaved         = "note.saved"
	EventNoteDeleted       = "note.deleted"
	EventSubmissionGraded  = "submission.graded"
	EventSubmissionCreated = "submission.created"
	EventSubmissionRemoved = "submission.removed"
)
