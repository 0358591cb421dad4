package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/datadoctor/uploader-go/share"
	"github.com/datadoctor/uploader-go/tool"
)

// HandleHistory lists recent upload outcomes, newest first. The list is
// TTL-bounded in memory; nothing survives a restart.
func HandleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(share.ListUploads()))
}
