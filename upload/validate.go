package upload

import (
	"fmt"

	"github.com/datadoctor/uploader-go/tool"
)

// SizeError is a local size-ceiling rejection. No network request was made.
type SizeError struct {
	SizeBytes  int64
	LimitBytes int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file is %s, limit is %s", tool.FormatBytes(e.SizeBytes), tool.FormatBytes(e.LimitBytes))
}

// ValidateSize checks the selected file against the configured ceiling.
// It is pure and synchronous; a limit of zero or less disables the check.
func ValidateSize(sizeBytes, limitBytes int64) error {
	if limitBytes > 0 && sizeBytes > limitBytes {
		return &SizeError{SizeBytes: sizeBytes, LimitBytes: limitBytes}
	}
	return nil
}
