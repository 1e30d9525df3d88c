package audit

import "time"

// Event is an immutable, append-only record of one forwarding attempt.
//
// Invariants:
// - Events are never updated or deleted.
// - Recording is best-effort; a failed append must never block the voice
//   response that the provider is waiting on.

type Event struct {
	ID   string `json:"id" db:"id"`
	Kind Kind   `json:"kind" db:"kind"`

	// Path is the backend path the report was posted to.
	Path string `json:"path" db:"path"`

	StatusCode int  `json:"status_code" db:"status_code"`
	Accepted   bool `json:"accepted" db:"accepted"`

	// SubjectID is the caller-supplied correlation id, when present.
	SubjectID string `json:"subject_id,omitempty" db:"subject_id"`

	// Message is the backend's response message or the failure reason.
	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Kind string

const (
	KindCallStatus   Kind = "call-status"
	KindSmsStatus    Kind = "sms-status"
	KindGatherResult Kind = "gather-result"
)
