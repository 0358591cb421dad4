package types

// Remote job statuses reported by GET /upload/{id}/status.
const (
	RemoteStatusPending   = "pending"
	RemoteStatusUploading = "uploading"
	RemoteStatusUploaded  = "uploaded"
	RemoteStatusError     = "error"
	RemoteStatusCancelled = "cancelled"
)

// UploadAcceptedResponse is returned by POST /upload and POST /upload/{id}/replace.
type UploadAcceptedResponse struct {
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
	FileSize int64  `json:"file_size"`
	// UploadTime is kept as the raw string the service emits; it is display-only.
	UploadTime string `json:"upload_time"`
	Status     string `json:"status"`
}

// UploadStatusResponse is returned by GET /upload/{id}/status.
type UploadStatusResponse struct {
	UploadID string  `json:"upload_id"`
	Status   string  `json:"status"`
	Filename string  `json:"filename"`
	FileSize int64   `json:"file_size"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}
