package types

// ErrorKind classifies an upload failure for user-facing handling.
type ErrorKind string

const (
	ErrFileTooLarge      ErrorKind = "file_too_large"
	ErrUnreachable       ErrorKind = "unreachable"
	ErrPayloadRejected   ErrorKind = "payload_rejected"
	ErrRemoteProcessing  ErrorKind = "remote_processing_error"
	ErrStatusCheckFailed ErrorKind = "status_check_failed"
	ErrUnknown           ErrorKind = "unknown"
)

// UploadError is a classified upload failure. Message and Action are
// user-facing; Detail carries the raw failure for logs and support.
type UploadError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Action     string    `json:"action,omitempty"`
	SizeBytes  int64     `json:"sizeBytes,omitempty"`
	LimitBytes int64     `json:"limitBytes,omitempty"`
}

func (e *UploadError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}
