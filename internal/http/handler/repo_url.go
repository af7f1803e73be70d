package handler

import (
	"fmt"
	"strings"
)

// ParseRepoURL extracts the owner and repository name from a GitHub URL.
// It accepts http and https forms and ignores anything after owner/repo,
// so issue links like https://github.com/facebook/react/issues/123 work.
func ParseRepoURL(rawURL string) (owner, repo string, err error) {
	trimmed := strings.TrimRight(rawURL, "/")
	if !strings.Contains(trimmed, "github.com") {
		return "", "", fmt.Errorf("URL must point to github.com")
	}

	parts := strings.Split(trimmed, "github.com/")
	path := parts[len(parts)-1]

	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return "", "", fmt.Errorf("expected format https://github.com/<owner>/<repo>")
	}

	return segments[0], segments[1], nil
}
