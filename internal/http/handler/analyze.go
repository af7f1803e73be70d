package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"triage.app/assistant/common/logger"
	"triage.app/assistant/internal/analyzer"
	"triage.app/assistant/internal/github"
	"triage.app/assistant/internal/http/dto"
)

const rateLimitDocsURL = "https://docs.github.com/en/rest/overview/resources-in-the-rest-api#rate-limiting"

type AnalyzeHandler struct {
	fetcher  github.Fetcher
	analyzer analyzer.Analyzer
}

// NewAnalyzeHandler creates the /analyze handler. A nil analyzer means no
// provider is configured; requests then fail fast with 503.
func NewAnalyzeHandler(fetcher github.Fetcher, issueAnalyzer analyzer.Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{
		fetcher:  fetcher,
		analyzer: issueAnalyzer,
	}
}

func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Detail:    "invalid request: " + err.Error(),
			ErrorType: "invalid_request",
		})
		return
	}

	owner, repo, err := ParseRepoURL(req.RepoURL)
	if err != nil {
		slog.WarnContext(ctx, "invalid repository url", "error", err, "repo_url", req.RepoURL)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Detail:    "Invalid GitHub repository URL: " + err.Error(),
			ErrorType: "invalid_url",
			Metadata:  map[string]any{"input": req.RepoURL},
		})
		return
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Owner:       logger.Ptr(owner),
		Repo:        logger.Ptr(repo),
		IssueNumber: logger.Ptr(req.IssueNumber),
	})

	if h.analyzer == nil {
		slog.WarnContext(ctx, "analysis requested but no provider is configured")
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Detail:    "LLM service is not available",
			ErrorType: "service_unavailable",
		})
		return
	}

	bundle, err := h.fetcher.GetBundle(ctx, owner, repo, req.IssueNumber)
	if err != nil {
		h.respondError(c, err, owner, repo, req.IssueNumber)
		return
	}

	analysis, err := h.analyzer.Analyze(ctx, bundle)
	if err != nil {
		h.respondError(c, err, owner, repo, req.IssueNumber)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// respondError is the single place fetch and analysis errors become HTTP
// responses. Everything unrecognized falls through to a generic 500.
func (h *AnalyzeHandler) respondError(c *gin.Context, err error, owner, repo string, number int) {
	ctx := c.Request.Context()

	var rateErr *github.RateLimitError
	var apiErr *github.APIError

	switch {
	case errors.Is(err, github.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Detail:    fmt.Sprintf("Issue #%d not found in %s/%s or repository is private", number, owner, repo),
			ErrorType: "not_found",
		})

	case errors.As(err, &rateErr):
		c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Detail:    "GitHub API rate limit exceeded",
			ErrorType: "rate_limited",
			Metadata: map[string]any{
				"reset_time": strconv.FormatInt(rateErr.ResetAt.Unix(), 10),
				"docs":       rateLimitDocsURL,
			},
		})

	case errors.As(err, &apiErr):
		// Echo GitHub's status for errors outside the taxonomy (401, 403, 5xx).
		c.JSON(apiErr.StatusCode, dto.ErrorResponse{
			Detail:    "GitHub API error: " + apiErr.Message,
			ErrorType: "github_error",
		})

	case errors.Is(err, github.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Detail:    "Failed to connect to the GitHub API",
			ErrorType: "github_unavailable",
		})

	case errors.Is(err, analyzer.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Detail:    "LLM service is not available",
			ErrorType: "service_unavailable",
		})

	case errors.Is(err, analyzer.ErrMalformedReply):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Detail:    "The analysis provider returned an unreadable reply",
			ErrorType: "malformed_provider_response",
		})

	case errors.Is(err, analyzer.ErrInvalidAnalysis):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Detail:    "The analysis did not pass validation",
			ErrorType: "analysis_validation_failed",
		})

	default:
		slog.ErrorContext(ctx, "analyze request failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Detail:    "An unexpected error occurred while processing the request",
			ErrorType: "internal_server_error",
		})
	}
}
