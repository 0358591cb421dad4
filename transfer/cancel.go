package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/datadoctor/uploader-go/tool"
)

// CancelUpload issues DELETE /upload/{id}. Callers treat failures as
// non-fatal; local cancellation is authoritative either way.
func CancelUpload(ctx context.Context, baseURL, uploadID string) error {
	if uploadID == "" {
		return fmt.Errorf("invalid parameters: uploadID must not be empty")
	}

	url := fmt.Sprintf("%s/upload/%s", baseURL, uploadID)
	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create cancel request: %v", err)
	}

	resp, err := tool.GetStatusHttpClient().Do(req)
	if err != nil {
		return fmt.Errorf("failed to send cancel request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, _ := io.ReadAll(resp.Body)

	// 404 means the job is already gone on the service side, which is the
	// outcome a cancel wants anyway.
	if resp.StatusCode == http.StatusNotFound {
		tool.DefaultLogger.Debugf("Cancel: upload %s already gone", uploadID)
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newStatusError(resp.StatusCode, body)
	}

	tool.DefaultLogger.Infof("Cancel request sent successfully for upload %s", uploadID)
	return nil
}
