package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datadoctor/uploader-go/notify"
	"github.com/datadoctor/uploader-go/tool"
)

// HandleConfigGet exposes the limits the UI needs for pre-upload guidance.
func HandleConfigGet(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"serviceUrl":     cfg.ServiceURL,
		"maxUploadBytes": cfg.MaxUploadBytes,
		"maxUploadHuman": tool.FormatBytes(cfg.MaxUploadBytes),
		"pollIntervalMs": cfg.PollIntervalMs,
		"notifyEnabled":  notify.UseNotify,
	}))
}

// HandleHealth probes the upload service and reports reachability.
func HandleHealth(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	reachable := tool.ServiceReachable(cfg.ServiceURL)
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(gin.H{
		"serviceUrl": cfg.ServiceURL,
		"reachable":  reachable,
	}))
}
