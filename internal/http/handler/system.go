package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"triage.app/assistant/internal/http/dto"
)

type SystemHandler struct {
	version      string
	startTime    time.Time
	llmAvailable bool
}

func NewSystemHandler(version string, llmAvailable bool) *SystemHandler {
	return &SystemHandler{
		version:      version,
		startTime:    time.Now(),
		llmAvailable: llmAvailable,
	}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RootResponse{
		Message:       "GitHub Issue Assistant API",
		Version:       h.version,
		Documentation: "/ui",
	})
}

// Health always answers 200; degraded dependencies show up in the body,
// not the status code.
func (h *SystemHandler) Health(c *gin.Context) {
	llmStatus := "unavailable"
	if h.llmAvailable {
		llmStatus = "operational"
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Dependencies: map[string]string{
			"github_api":  "operational",
			"llm_service": llmStatus,
		},
	})
}
