package controllers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/types"
	"github.com/datadoctor/uploader-go/upload"
)

// UploadController bridges the local UI to the upload orchestrator.
type UploadController struct {
	orch        *upload.Orchestrator
	stagingRoot string
}

func NewUploadController(orch *upload.Orchestrator) *UploadController {
	return &UploadController{
		orch:        orch,
		stagingRoot: filepath.Join(os.TempDir(), "datadoctor-uploader"),
	}
}

// HandleUpload receives the file from the UI, stages it locally and starts
// (or replaces, with ?replace=true) the upload session. The response is the
// session snapshot right after initiation resolves.
func (ctrl *UploadController) HandleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing file field"))
		return
	}

	// One staged file at a time; the previous session's staging is discarded
	// together with the session it belonged to.
	if err := os.RemoveAll(ctrl.stagingRoot); err != nil {
		tool.DefaultLogger.Warnf("Failed to clear staging dir: %v", err)
	}
	stageDir := filepath.Join(ctrl.stagingRoot, uuid.NewString())
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		tool.DefaultLogger.Errorf("Failed to create staging dir: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to stage file"))
		return
	}
	stagedPath := filepath.Join(stageDir, filepath.Base(header.Filename))
	if err := c.SaveUploadedFile(header, stagedPath); err != nil {
		tool.DefaultLogger.Errorf("Failed to stage uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to stage file"))
		return
	}

	file := types.FileRef{
		Name: filepath.Base(header.Filename),
		Size: header.Size,
		Path: stagedPath,
	}

	tool.DefaultLogger.Infof("[Upload] Starting upload: %s (%s, replace=%s)",
		file.Name, tool.FormatBytes(file.Size), c.Query("replace"))

	var startErr error
	if c.Query("replace") == "true" {
		startErr = ctrl.orch.Replace(c.Request.Context(), file)
	} else {
		startErr = ctrl.orch.Start(c.Request.Context(), file)
	}

	snap := ctrl.orch.Snapshot()
	if startErr != nil {
		uerr := upload.Classify(startErr)
		c.JSON(statusForKind(uerr.Kind), tool.FastReturnErrorWithData(uerr.Message, map[string]any{
			"kind":    uerr.Kind,
			"detail":  uerr.Detail,
			"action":  uerr.Action,
			"session": snap,
		}))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(snap))
}

// HandleStatus returns the current session snapshot.
func (ctrl *UploadController) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.orch.Snapshot()))
}

// HandleCancel cancels the in-flight upload. Always succeeds locally.
func (ctrl *UploadController) HandleCancel(c *gin.Context) {
	ctrl.orch.Cancel()
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.orch.Snapshot()))
}

// HandleReset discards the session entirely and returns to idle, for when
// the owning UI workflow goes away. Staged files are cleaned up too.
func (ctrl *UploadController) HandleReset(c *gin.Context) {
	ctrl.orch.Reset()
	if err := os.RemoveAll(ctrl.stagingRoot); err != nil {
		tool.DefaultLogger.Warnf("Failed to clear staging dir: %v", err)
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(ctrl.orch.Snapshot()))
}

// statusForKind maps classified failures to control API status codes.
func statusForKind(kind types.ErrorKind) int {
	switch kind {
	case types.ErrFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case types.ErrPayloadRejected:
		return http.StatusUnsupportedMediaType
	case types.ErrUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
