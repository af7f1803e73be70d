package dto

// AnalyzeRequest identifies one GitHub issue to analyze.
type AnalyzeRequest struct {
	RepoURL     string `json:"repo_url" binding:"required"`
	IssueNumber int    `json:"issue_number" binding:"required,gt=0"`
}

// ErrorResponse is the envelope for every non-2xx reply.
type ErrorResponse struct {
	Detail    string         `json:"detail"`
	ErrorType string         `json:"error_type,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type RootResponse struct {
	Message       string `json:"message"`
	Version       string `json:"version"`
	Documentation string `json:"documentation"`
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       float64           `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}
