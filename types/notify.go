package types

// Notification types pushed to the sink and the WebSocket hub.
const (
	NotifyTypeInfo            = "info"
	NotifyTypeUploadStart     = "upload_start"
	NotifyTypeUploadComplete  = "upload_complete"
	NotifyTypeUploadFailed    = "upload_failed"
	NotifyTypeUploadCancelled = "upload_cancelled"
	NotifyTypeStateChange     = "state_change"
)

// Notification represents a notification message structure
type Notification struct {
	ID      string         `json:"id,omitempty"`      // unique notification id
	Type    string         `json:"type,omitempty"`    // e.g. "upload_start", "upload_complete"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}
