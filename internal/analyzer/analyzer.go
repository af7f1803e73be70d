// Package analyzer turns a fetched issue bundle into a normalized
// IssueAnalysis by prompting an LLM provider and validating its reply.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"triage.app/assistant/common/llm"
	"triage.app/assistant/common/logger"
	"triage.app/assistant/internal/model"
)

var (
	// ErrProviderUnavailable reports a transport failure or timeout while
	// calling the provider.
	ErrProviderUnavailable = errors.New("llm provider unavailable")

	// ErrMalformedReply reports a reply that is not a JSON object of the
	// expected shape. Distinct from transport failures.
	ErrMalformedReply = errors.New("malformed provider reply")

	// ErrInvalidAnalysis reports a reply that parsed but failed
	// validation after normalization.
	ErrInvalidAnalysis = errors.New("analysis failed validation")
)

// analysisReply pins the reply shape for providers with schema support.
type analysisReply struct {
	Summary         string   `json:"summary" jsonschema_description:"One-sentence summary of the user's problem or request"`
	Type            string   `json:"type" jsonschema:"enum=bug,enum=feature_request,enum=documentation,enum=question,enum=other" jsonschema_description:"Issue classification"`
	PriorityScore   string   `json:"priority_score" jsonschema_description:"Score from 1 (low) to 5 (critical)"`
	SuggestedLabels []string `json:"suggested_labels" jsonschema_description:"One to five GitHub labels to apply"`
	PotentialImpact string   `json:"potential_impact" jsonschema_description:"Potential user impact if this is a bug"`
}

var analysisSchema = llm.GenerateSchema[analysisReply]()

// rawAnalysis decodes the reply leniently: providers reply with a string
// or a number for priority_score depending on mood and model.
type rawAnalysis struct {
	Summary         string   `json:"summary"`
	Type            string   `json:"type"`
	PriorityScore   any      `json:"priority_score"`
	SuggestedLabels []string `json:"suggested_labels"`
	PotentialImpact string   `json:"potential_impact"`
}

// Analyzer produces a normalized analysis for an issue bundle.
type Analyzer interface {
	Analyze(ctx context.Context, bundle *model.IssueBundle) (*model.IssueAnalysis, error)
}

type analyzer struct {
	llm      llm.Client
	provider string
	timeout  time.Duration
}

// New creates an Analyzer backed by the given provider client. The timeout
// bounds each provider call; zero falls back to 45s.
func New(client llm.Client, provider string, timeout time.Duration) Analyzer {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &analyzer{
		llm:      client,
		provider: provider,
		timeout:  timeout,
	}
}

func (a *analyzer) Analyze(ctx context.Context, bundle *model.IssueBundle) (*model.IssueAnalysis, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Provider:  logger.Ptr(a.provider),
		Component: "assistant.analyzer",
	})

	sc := logger.StartSpan(ctx, "analyzer.analyze")
	defer sc.End()
	ctx = sc.Context()

	prompt := buildPrompt(bundle)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.llm.Generate(ctx, llm.Request{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   prompt,
		SchemaName:   "issue_analysis",
		Schema:       analysisSchema,
		Temperature:  llm.Temp(0.2), // Low temp for consistent classification
	})
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	analysis, err := normalize(reply)
	if err != nil {
		slog.WarnContext(ctx, "provider reply rejected",
			"error", err,
			"reply", logger.Truncate(reply, 200))
		sc.RecordError(err)
		return nil, err
	}

	slog.InfoContext(ctx, "issue analyzed",
		"model", a.llm.Model(),
		"type", analysis.Type,
		"priority", analysis.PriorityScore,
		"label_count", len(analysis.SuggestedLabels),
		"latency_ms", time.Since(start).Milliseconds())

	return analysis, nil
}

// normalize parses the raw reply and coerces it into a valid IssueAnalysis.
// Unknown types collapse to "other", numeric priorities become strings, and
// label lists are capped; an empty label list is the one shape violation
// that cannot be repaired and fails validation instead.
func normalize(reply string) (*model.IssueAnalysis, error) {
	dec := json.NewDecoder(strings.NewReader(reply))
	dec.UseNumber()

	var raw rawAnalysis
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	analysis := &model.IssueAnalysis{
		Summary:         raw.Summary,
		Type:            normalizeType(raw.Type),
		PriorityScore:   normalizePriority(raw.PriorityScore),
		SuggestedLabels: capLabels(raw.SuggestedLabels),
		PotentialImpact: raw.PotentialImpact,
	}

	if len(analysis.SuggestedLabels) == 0 {
		return nil, fmt.Errorf("%w: suggested_labels is empty", ErrInvalidAnalysis)
	}

	return analysis, nil
}

func normalizeType(s string) model.IssueType {
	t := model.IssueType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if !t.Known() {
		return model.IssueTypeOther
	}
	return t
}

func normalizePriority(v any) string {
	switch p := v.(type) {
	case nil:
		return "1"
	case string:
		return p
	case json.Number:
		return p.String()
	default:
		return fmt.Sprint(p)
	}
}

func capLabels(labels []string) []string {
	if labels == nil {
		return []string{}
	}
	if len(labels) > model.MaxSuggestedLabels {
		return labels[:model.MaxSuggestedLabels]
	}
	return labels
}

// buildPrompt renders the bundle deterministically: same bundle, same
// prompt, so cached issues produce reproducible provider inputs.
func buildPrompt(bundle *model.IssueBundle) string {
	issue := bundle.Issue

	var sb strings.Builder
	sb.WriteString("# GitHub Issue Analysis\n\n")
	sb.WriteString(fmt.Sprintf("## Issue: #%d - %s\n\n", issue.Number, issue.Title))

	state := "Closed"
	if issue.State == model.IssueStateOpen {
		state = "Open"
	}
	sb.WriteString(fmt.Sprintf("**State:** %s\n", state))
	sb.WriteString(fmt.Sprintf("**Created by:** %s\n", issue.Author))
	sb.WriteString(fmt.Sprintf("**Created at:** %s\n", issue.CreatedAt))
	sb.WriteString(fmt.Sprintf("**Updated at:** %s\n\n", issue.UpdatedAt))

	sb.WriteString("## Description\n")
	if issue.Body != "" {
		sb.WriteString(issue.Body)
	} else {
		sb.WriteString("No description provided.")
	}
	sb.WriteString("\n")

	if len(bundle.Comments) > 0 {
		sb.WriteString("\nComments:\n")
		for i, c := range bundle.Comments {
			sb.WriteString(fmt.Sprintf("\n--- Comment %d by %s ---\n%s\n", i+1, c.Author, c.Body))
		}
	}

	sb.WriteString("\n## Your Analysis\n")
	sb.WriteString("Please analyze this issue and provide the requested JSON response.")

	return sb.String()
}

const analysisSystemPrompt = `You are an expert GitHub issue analyst. You analyze GitHub issues and provide structured insights.

For each issue, read the title, description, and comments to understand:
1. What the issue is about
2. Whether it is a bug, feature request, documentation issue, question, or other
3. Its priority level (1-5, with 5 being most critical)
4. Relevant GitHub labels that should be applied
5. If it is a bug, the potential impact on users

Your response MUST be a valid JSON object with exactly this structure (field names must match):
{
    "summary": "A one-sentence summary of the user's problem or request.",
    "type": "One of: bug, feature_request, documentation, question, other.",
    "priority_score": "A score from 1 (low) to 5 (critical).",
    "suggested_labels": ["label1", "label2", "label3"],
    "potential_impact": "Brief sentence on potential user impact if this is a bug."
}

Guidelines:
- Be concise but thorough
- For bugs, weigh severity and how many users are affected
- For feature requests, weigh the potential value to users
- Use existing GitHub label conventions when possible
- Suggest at least one label and at most five
- If information is missing or unclear, make reasonable assumptions and note them in the summary`
