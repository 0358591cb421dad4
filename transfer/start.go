package transfer

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/bytedance/sonic"
	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/types"
)

// StartUpload sends the file to POST /upload and returns the accepted job.
func StartUpload(ctx context.Context, baseURL string, file types.FileRef) (*types.UploadAcceptedResponse, error) {
	return postFile(ctx, baseURL+"/upload", file)
}

// ReplaceUpload sends the file to POST /upload/{id}/replace. The service
// cancels the previous job and returns a fresh one in a single call.
func ReplaceUpload(ctx context.Context, baseURL, uploadID string, file types.FileRef) (*types.UploadAcceptedResponse, error) {
	if uploadID == "" {
		return nil, fmt.Errorf("invalid parameters: uploadID must not be empty")
	}
	return postFile(ctx, fmt.Sprintf("%s/upload/%s/replace", baseURL, uploadID), file)
}

func postFile(ctx context.Context, url string, file types.FileRef) (*types.UploadAcceptedResponse, error) {
	if file.Path == "" {
		return nil, fmt.Errorf("invalid parameters: file path must not be empty")
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for upload: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close upload file: %v", err)
		}
	}()

	// Stream the multipart body instead of buffering it; uploads can be
	// hundreds of megabytes.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", file.Name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", url, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := tool.GetUploadHttpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("upload cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to send upload request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close response body: %v", err)
		}
	}()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		tool.DefaultLogger.Warnf("Failed to read upload response body: %v", readErr)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(resp.StatusCode, body)
	}

	var accepted types.UploadAcceptedResponse
	if err := sonic.Unmarshal(body, &accepted); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %v", err)
	}
	if accepted.UploadID == "" {
		return nil, fmt.Errorf("upload response missing upload_id")
	}

	tool.DefaultLogger.Infof("Upload accepted by %s: id=%s file=%s", url, accepted.UploadID, file.Name)
	return &accepted, nil
}
