package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/types"
)

// FetchStatus queries GET /upload/{id}/status for one remote job.
func FetchStatus(ctx context.Context, baseURL, uploadID string) (*types.UploadStatusResponse, error) {
	if uploadID == "" {
		return nil, fmt.Errorf("invalid parameters: uploadID must not be empty")
	}

	url := fmt.Sprintf("%s/upload/%s/status", baseURL, uploadID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %v", err)
	}

	resp, err := tool.GetStatusHttpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send status request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		tool.DefaultLogger.Warnf("Failed to read status response body: %v", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newStatusError(resp.StatusCode, body)
	}

	var status types.UploadStatusResponse
	if err := sonic.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %v", err)
	}
	if status.Status == "" {
		return nil, fmt.Errorf("status response missing status field")
	}
	return &status, nil
}
