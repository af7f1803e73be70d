// Package web serves the bundled single-page UI for manual issue analysis.
package web

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed index.html
var indexHTML []byte

// Register mounts the UI at /ui.
func Register(router *gin.Engine) {
	router.GET("/ui", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
}
