package upload

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	"github.com/datadoctor/uploader-go/transfer"
	"github.com/datadoctor/uploader-go/types"
)

// errorGuides is the single place mapping failure kinds to user-facing text.
var errorGuides = map[types.ErrorKind]struct {
	message string
	action  string
}{
	types.ErrFileTooLarge: {
		message: "File is too large to upload.",
		action:  "Split the data into smaller files, or raise the configured size limit.",
	},
	types.ErrUnreachable: {
		message: "Could not reach the upload service.",
		action:  "Check that the service is running and reachable, then try again.",
	},
	types.ErrPayloadRejected: {
		message: "The service rejected the file.",
		action:  "Check the accepted formats and the size limit, then try again.",
	},
	types.ErrRemoteProcessing: {
		message: "The service failed while processing the upload.",
		action:  "Retry the upload. Contact support if it keeps failing.",
	},
	types.ErrStatusCheckFailed: {
		message: "Lost track of the upload status.",
		action:  "Check the status again, or restart the upload.",
	},
	types.ErrUnknown: {
		message: "The upload failed unexpectedly.",
		action:  "Please try again.",
	},
}

func newUploadError(kind types.ErrorKind, detail string) *types.UploadError {
	guide, ok := errorGuides[kind]
	if !ok {
		kind = types.ErrUnknown
		guide = errorGuides[types.ErrUnknown]
	}
	return &types.UploadError{
		Kind:    kind,
		Message: guide.message,
		Detail:  detail,
		Action:  guide.action,
	}
}

// Classify maps a raw failure from validation or initiation to the error
// taxonomy. It never panics; unmatched conditions fall back to ErrUnknown.
func Classify(err error) *types.UploadError {
	if err == nil {
		return nil
	}

	var already *types.UploadError
	if errors.As(err, &already) {
		return already
	}

	var sizeErr *SizeError
	if errors.As(err, &sizeErr) {
		uerr := newUploadError(types.ErrFileTooLarge, sizeErr.Error())
		uerr.SizeBytes = sizeErr.SizeBytes
		uerr.LimitBytes = sizeErr.LimitBytes
		return uerr
	}

	var statusErr *transfer.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType, http.StatusBadRequest:
			return newUploadError(types.ErrPayloadRejected, statusErr.Detail)
		}
		return newUploadError(types.ErrUnknown, statusErr.Error())
	}

	if isUnreachable(err) {
		return newUploadError(types.ErrUnreachable, err.Error())
	}

	return newUploadError(types.ErrUnknown, err.Error())
}

// statusCheckError classifies a failed poll request. The position in the
// lifecycle determines the kind, not the underlying error.
func statusCheckError(err error) *types.UploadError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return newUploadError(types.ErrStatusCheckFailed, detail)
}

// remoteProcessingError carries the remote-provided message when present,
// otherwise the generic fallback from the guide table.
func remoteProcessingError(remoteMsg string) *types.UploadError {
	uerr := newUploadError(types.ErrRemoteProcessing, remoteMsg)
	if remoteMsg != "" {
		uerr.Message = remoteMsg
	}
	return uerr
}

func isUnreachable(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
