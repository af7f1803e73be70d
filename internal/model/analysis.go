package model

type IssueType string

const (
	IssueTypeBug            IssueType = "bug"
	IssueTypeFeatureRequest IssueType = "feature_request"
	IssueTypeDocumentation  IssueType = "documentation"
	IssueTypeQuestion       IssueType = "question"
	IssueTypeOther          IssueType = "other"
)

// Known reports whether t is one of the recognized issue types.
func (t IssueType) Known() bool {
	switch t {
	case IssueTypeBug, IssueTypeFeatureRequest, IssueTypeDocumentation, IssueTypeQuestion, IssueTypeOther:
		return true
	}
	return false
}

// MaxSuggestedLabels caps how many labels an analysis may carry.
// Longer provider lists are truncated, never rejected.
const MaxSuggestedLabels = 5

// IssueAnalysis is the normalized classification returned to clients.
// PriorityScore stays a string even when providers reply with a number.
type IssueAnalysis struct {
	Summary         string    `json:"summary"`
	Type            IssueType `json:"type"`
	PriorityScore   string    `json:"priority_score"`
	SuggestedLabels []string  `json:"suggested_labels"`
	PotentialImpact string    `json:"potential_impact"`
}
