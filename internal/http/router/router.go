package router

import (
	"github.com/gin-gonic/gin"

	"triage.app/assistant/internal/analyzer"
	"triage.app/assistant/internal/github"
	"triage.app/assistant/internal/http/handler"
	"triage.app/assistant/web"
)

type RouterConfig struct {
	Version string
}

// SetupRoutes wires the API surface. A nil analyzer disables analysis but
// keeps the rest of the surface up.
func SetupRoutes(router *gin.Engine, fetcher github.Fetcher, issueAnalyzer analyzer.Analyzer, cfg RouterConfig) {
	system := handler.NewSystemHandler(cfg.Version, issueAnalyzer != nil)
	analyze := handler.NewAnalyzeHandler(fetcher, issueAnalyzer)

	router.GET("/", system.Root)
	router.GET("/health", system.Health)
	router.POST("/analyze", analyze.Analyze)

	web.Register(router)
}
