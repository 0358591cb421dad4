package types

import "time"

// SessionState is the single source of truth for what the UI renders.
type SessionState string

const (
	StateIdle         SessionState = "idle"
	StateValidating   SessionState = "validating"
	StateTransferring SessionState = "transferring"
	StatePolling      SessionState = "polling"
	StateCompleted    SessionState = "completed"
	StateFailed       SessionState = "failed"
	StateCancelled    SessionState = "cancelled"
)

// Terminal reports whether no further automatic transitions happen from s.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// FileRef describes the local file selected for an upload session.
// The session owns the referenced file until it reaches a terminal state.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
}

// SessionSnapshot is a read-only copy of the session handed to consumers
// (control API, WebSocket subscribers). Consumers never see the live session.
type SessionSnapshot struct {
	JobID     string       `json:"jobId,omitempty"`
	State     SessionState `json:"state"`
	Progress  float64      `json:"progress"`
	FileName  string       `json:"fileName,omitempty"`
	FileSize  int64        `json:"fileSize,omitempty"`
	LastError *UploadError `json:"lastError,omitempty"`
}

// UploadDescriptor is the terminal record of one upload, passed to the
// completion callback and kept in the recent-upload cache.
type UploadDescriptor struct {
	JobID      string       `json:"jobId,omitempty"`
	Filename   string       `json:"filename"`
	SizeBytes  int64        `json:"sizeBytes"`
	AcceptedAt time.Time    `json:"acceptedAt,omitempty"`
	FinishedAt time.Time    `json:"finishedAt"`
	Outcome    SessionState `json:"outcome"`
	Error      *UploadError `json:"error,omitempty"`
}
