package model

type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Issue is the subset of a GitHub issue the analysis pipeline consumes.
// Timestamps are RFC 3339 strings, formatted once at the fetch boundary.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Author    string     `json:"author"`
	State     IssueState `json:"state"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
}

type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// IssueBundle is an issue plus its comments in posting order.
// It is the unit of caching and the unit of prompt rendering.
type IssueBundle struct {
	Issue    Issue     `json:"issue"`
	Comments []Comment `json:"comments"`
}
