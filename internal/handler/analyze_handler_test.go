package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/ai"
	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/github"
	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/store"
	"github.com/arturoeanton/gitgrade-analyzer/internal/middleware"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
	"github.com/arturoeanton/gitgrade-analyzer/internal/service"
)

const exampleReport = `{"score":72,"level":"Advanced","summary":"Well organised demo repository.","strengths":["a","b"],"weaknesses":["c"],"metrics":{"codeQuality":75,"documentation":70,"testCoverage":60,"projectStructure":80,"gitPractices":72,"realWorldRelevance":85},"roadmap":[{"title":"Add tests","description":"Introduce a unit test suite.","priority":"high"},{"title":"Add CI","description":"Run the tests on every push.","priority":"medium"}]}`

type harness struct {
	app        *fiber.App
	githubHits atomic.Int32
	aiHits     atomic.Int32
}

type harnessOpts struct {
	aiStatus  int
	aiReply   string
	noAPIKey  bool
	rateLimit int
}

func newHarness(t *testing.T, opts harnessOpts) *harness {
	t.Helper()
	h := &harness{}

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.githubHits.Add(1)
		if r.URL.Path == "/repos/octocat/Hello-World" {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"name":"Hello-World","full_name":"octocat/Hello-World","default_branch":"master","language":"Go","stargazers_count":3}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))
	t.Cleanup(gh.Close)

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.aiHits.Add(1)
		if opts.aiStatus != 0 && opts.aiStatus != http.StatusOK {
			w.WriteHeader(opts.aiStatus)
			fmt.Fprint(w, `{"error":"upstream says no"}`)
			return
		}
		resp := map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": opts.aiReply}}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(model.Close)

	fetcher, err := github.NewFetcher(github.Config{BaseURL: gh.URL})
	if err != nil {
		t.Fatal(err)
	}
	key := "test-key"
	if opts.noAPIKey {
		key = ""
	}
	gateway := ai.NewGatewayProvider(ai.GatewayConfig{URL: model.URL, Model: "test-model", APIKey: key})

	var limiter *service.RateLimiter
	if opts.rateLimit > 0 {
		limiter = service.NewRateLimiter(store.NewMemoryStore(), opts.rateLimit, time.Hour)
	}

	h.app = fiber.New()
	h.app.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:  []string{"https://gitgrade.app"},
		DefaultOrigin: "https://gitgrade.app",
	}))
	NewAnalyzeHandler(service.NewAnalysisService(fetcher, gateway), limiter).Register(h.app)
	return h
}

func (h *harness) post(t *testing.T, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(b)
}

func errorBody(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}

func compact(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		t.Fatalf("compact %q: %v", s, err)
	}
	return buf.String()
}

func TestAnalyzeRejectsInvalidURLWithoutNetwork(t *testing.T) {
	cases := map[string]string{
		"not a url":     `{"repoUrl":"not-a-url"}`,
		"missing field": `{}`,
		"wrong type":    `{"repoUrl":42}`,
		"not json":      `repoUrl=https://github.com/octocat/Hello-World`,
		"other host":    `{"repoUrl":"https://gitlab.com/octocat/Hello-World"}`,
		"too long":      `{"repoUrl":"https://github.com/octocat/` + strings.Repeat("a", 300) + `"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, harnessOpts{aiReply: exampleReport})
			status, got := h.post(t, AnalyzePath, body)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if got != errorBody(port.MsgInvalidURL) {
				t.Errorf("body = %s", got)
			}
			if n := h.githubHits.Load() + h.aiHits.Load(); n != 0 {
				t.Errorf("%d outbound calls recorded, want 0", n)
			}
		})
	}
}

func TestAnalyzeReturnsReportUnchanged(t *testing.T) {
	for _, path := range []string{AnalyzePath, LegacyAnalyzePath} {
		t.Run(path, func(t *testing.T) {
			h := newHarness(t, harnessOpts{aiReply: exampleReport})
			status, got := h.post(t, path, `{"repoUrl":"https://github.com/octocat/Hello-World"}`)
			if status != http.StatusOK {
				t.Fatalf("status = %d, body %s", status, got)
			}
			if compact(t, got) != exampleReport {
				t.Errorf("body changed:\n got %s\nwant %s", got, exampleReport)
			}
			if h.aiHits.Load() != 1 {
				t.Errorf("AI hits = %d, want 1", h.aiHits.Load())
			}
		})
	}
}

func TestAnalyzeAcceptsFencedReply(t *testing.T) {
	h := newHarness(t, harnessOpts{aiReply: "```json\n" + exampleReport + "\n```"})
	status, got := h.post(t, AnalyzePath, `{"repoUrl":"https://github.com/octocat/Hello-World.git"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, got)
	}
	if compact(t, got) != exampleReport {
		t.Errorf("body = %s", got)
	}
}

func TestAnalyzeErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		opts       harnessOpts
		url        string
		wantStatus int
		wantMsg    string
		wantAIHits int32
	}{
		{"repository not found", harnessOpts{aiReply: exampleReport}, "https://github.com/octocat/missing", 404, port.MsgNotFound, 0},
		{"invalid schema", harnessOpts{aiReply: `{"score":150,"level":"Advanced"}`}, "https://github.com/octocat/Hello-World", 500, port.MsgAnalysisFailed, 1},
		{"prose reply", harnessOpts{aiReply: "I cannot grade this."}, "https://github.com/octocat/Hello-World", 500, port.MsgAnalysisFailed, 1},
		{"ai rate limited", harnessOpts{aiStatus: http.StatusTooManyRequests}, "https://github.com/octocat/Hello-World", 429, port.MsgRateLimited, 1},
		{"ai payment required", harnessOpts{aiStatus: http.StatusPaymentRequired}, "https://github.com/octocat/Hello-World", 503, port.MsgServiceUnavailable, 1},
		{"ai server error", harnessOpts{aiStatus: http.StatusBadGateway}, "https://github.com/octocat/Hello-World", 500, port.MsgAnalysisFailed, 1},
		{"no api key", harnessOpts{noAPIKey: true}, "https://github.com/octocat/Hello-World", 503, port.MsgServiceUnavailable, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.opts)
			status, got := h.post(t, AnalyzePath, `{"repoUrl":"`+tc.url+`"}`)
			if status != tc.wantStatus {
				t.Errorf("status = %d, want %d", status, tc.wantStatus)
			}
			if got != errorBody(tc.wantMsg) {
				t.Errorf("body = %s, want message %q", got, tc.wantMsg)
			}
			if h.aiHits.Load() != tc.wantAIHits {
				t.Errorf("AI hits = %d, want %d", h.aiHits.Load(), tc.wantAIHits)
			}
		})
	}
}

func TestAnalyzeRateLimit(t *testing.T) {
	h := newHarness(t, harnessOpts{aiReply: exampleReport, rateLimit: 2})
	body := `{"repoUrl":"https://github.com/octocat/Hello-World"}`

	for i := 0; i < 2; i++ {
		if status, got := h.post(t, AnalyzePath, body); status != http.StatusOK {
			t.Fatalf("request %d: status %d, body %s", i+1, status, got)
		}
	}
	status, got := h.post(t, AnalyzePath, body)
	if status != http.StatusTooManyRequests || got != errorBody(port.MsgRateLimited) {
		t.Errorf("3rd request: %d %s", status, got)
	}
	if h.aiHits.Load() != 2 {
		t.Errorf("AI hits = %d, want 2", h.aiHits.Load())
	}
}

func TestAnalyzePreflight(t *testing.T) {
	h := newHarness(t, harnessOpts{})
	req := httptest.NewRequest(http.MethodOptions, AnalyzePath, nil)
	req.Header.Set("Origin", "https://gitgrade.app")
	resp, err := h.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://gitgrade.app" {
		t.Errorf("Allow-Origin = %q", got)
	}
	if h.githubHits.Load() != 0 {
		t.Error("preflight reached GitHub")
	}
}
