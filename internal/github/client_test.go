package github_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"triage.app/assistant/core/config"
	"triage.app/assistant/internal/github"
	"triage.app/assistant/internal/model"
)

const issueJSON = `{
	"number": 42,
	"title": "Crash on save",
	"body": "The app crashes when I press save.",
	"state": "open",
	"user": {"login": "alice"},
	"created_at": "2024-05-01T10:00:00Z",
	"updated_at": "2024-05-02T11:30:00Z"
}`

const commentsJSON = `[
	{"user": {"login": "bob"}, "body": "Same here on v2.1."},
	{"user": {"login": "carol"}, "body": "Reproduced on main."}
]`

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func newFetcher(baseURL string, ttl time.Duration) github.Fetcher {
	fetcher, err := github.NewFetcher(config.GitHubConfig{BaseURL: baseURL, CacheTTL: ttl})
	Expect(err).NotTo(HaveOccurred())
	return fetcher
}

var _ = Describe("Fetcher", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("fetches the issue and its comments as one bundle", func() {
		var issueCalls, commentCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			issueCalls.Add(1)
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			commentCalls.Add(1)
			writeJSON(w, http.StatusOK, commentsJSON)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		bundle, err := fetcher.GetBundle(ctx, "acme", "widget", 42)

		Expect(err).NotTo(HaveOccurred())
		Expect(bundle.Issue.Number).To(Equal(42))
		Expect(bundle.Issue.Title).To(Equal("Crash on save"))
		Expect(bundle.Issue.Author).To(Equal("alice"))
		Expect(bundle.Issue.State).To(Equal(model.IssueStateOpen))
		Expect(bundle.Issue.CreatedAt).To(Equal("2024-05-01T10:00:00Z"))
		Expect(bundle.Issue.UpdatedAt).To(Equal("2024-05-02T11:30:00Z"))
		Expect(bundle.Comments).To(HaveLen(2))
		Expect(bundle.Comments[0].Author).To(Equal("bob"))
		Expect(bundle.Comments[1].Body).To(Equal("Reproduced on main."))
		Expect(issueCalls.Load()).To(Equal(int32(1)))
		Expect(commentCalls.Load()).To(Equal(int32(1)))
	})

	It("serves repeat requests from the cache", func() {
		var issueCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			issueCalls.Add(1)
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, commentsJSON)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)

		first, err := fetcher.GetBundle(ctx, "acme", "widget", 42)
		Expect(err).NotTo(HaveOccurred())

		second, err := fetcher.GetBundle(ctx, "acme", "widget", 42)
		Expect(err).NotTo(HaveOccurred())

		Expect(second).To(BeIdenticalTo(first))
		Expect(issueCalls.Load()).To(Equal(int32(1)))
	})

	It("refetches once the TTL expires", func() {
		var issueCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			issueCalls.Add(1)
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, commentsJSON)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, 10*time.Millisecond)

		_, err := fetcher.GetBundle(ctx, "acme", "widget", 42)
		Expect(err).NotTo(HaveOccurred())

		time.Sleep(25 * time.Millisecond)

		_, err = fetcher.GetBundle(ctx, "acme", "widget", 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(issueCalls.Load()).To(Equal(int32(2)))
	})

	It("returns ErrIssueNotFound when the issue does not exist", func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/999", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"message": "Not Found"}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		bundle, err := fetcher.GetBundle(ctx, "acme", "widget", 999)

		Expect(err).To(MatchError(github.ErrIssueNotFound))
		Expect(bundle).To(BeNil())
	})

	It("tolerates a 404 from the comments endpoint", func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, `{"message": "Not Found"}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		bundle, err := fetcher.GetBundle(ctx, "acme", "widget", 42)

		Expect(err).NotTo(HaveOccurred())
		Expect(bundle.Issue.Number).To(Equal(42))
		Expect(bundle.Comments).To(BeEmpty())
	})

	It("maps an exhausted rate limit", func() {
		reset := time.Now().Add(20 * time.Minute).Unix()
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "API rate limit exceeded"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		_, err := fetcher.GetBundle(ctx, "acme", "widget", 42)

		var rateErr *github.RateLimitError
		Expect(errors.As(err, &rateErr)).To(BeTrue(), "expected RateLimitError, got %v", err)
		Expect(rateErr.ResetAt.Unix()).To(Equal(reset))
	})

	It("preserves the upstream status for other API errors", func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusInternalServerError, `{"message": "boom"}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		_, err := fetcher.GetBundle(ctx, "acme", "widget", 42)

		var apiErr *github.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue(), "expected APIError, got %v", err)
		Expect(apiErr.StatusCode).To(Equal(http.StatusInternalServerError))
		Expect(apiErr.Message).To(Equal("boom"))
	})

	It("reports an unreachable API", func() {
		server := httptest.NewServer(http.NewServeMux())
		server.Close()

		fetcher := newFetcher(server.URL, time.Minute)
		_, err := fetcher.GetBundle(ctx, "acme", "widget", 42)

		Expect(err).To(MatchError(github.ErrUnavailable))
	})

	It("sends the configured token", func() {
		var gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, `[]`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher, err := github.NewFetcher(config.GitHubConfig{
			Token:    "test-token",
			BaseURL:  server.URL,
			CacheTTL: time.Minute,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = fetcher.GetBundle(ctx, "acme", "widget", 42)

		Expect(err).NotTo(HaveOccurred())
		Expect(gotAuth).To(Equal("Bearer test-token"))
	})

	It("handles concurrent requests for the same issue", func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/repos/acme/widget/issues/42", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, issueJSON)
		})
		mux.HandleFunc("/repos/acme/widget/issues/42/comments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, commentsJSON)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		fetcher := newFetcher(server.URL, time.Minute)

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		bundles := make([]*model.IssueBundle, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				bundles[i], errs[i] = fetcher.GetBundle(ctx, "acme", "widget", 42)
			}(i)
		}
		wg.Wait()

		for i := 0; i < n; i++ {
			Expect(errs[i]).NotTo(HaveOccurred())
			Expect(bundles[i].Issue.Number).To(Equal(42))
			Expect(bundles[i].Comments).To(HaveLen(2))
		}
	})
})
