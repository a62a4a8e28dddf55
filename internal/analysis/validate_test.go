package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

const validReport = `{"score":72,"level":"Advanced","summary":"A tidy sample repository with room to grow.","strengths":["a","b"],"weaknesses":["c"],"metrics":{"codeQuality":80,"documentation":65,"testCoverage":40,"projectStructure":75,"gitPractices":70,"realWorldRelevance":90},"roadmap":[{"title":"Add tests","description":"Cover the core paths with unit tests.","priority":"high"},{"title":"Write docs","description":"Expand the README with usage examples.","priority":"medium"}]}`

func compact(t *testing.T, b []byte) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		t.Fatalf("compact: %v", err)
	}
	return buf.String()
}

func TestParseReportRoundTripsUnchanged(t *testing.T) {
	report, err := ParseReport(validReport)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	out, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := compact(t, out); got != validReport {
		t.Errorf("report changed:\n got %s\nwant %s", got, validReport)
	}
}

func TestParseReportStripsFences(t *testing.T) {
	cases := map[string]string{
		"json fence":  "```json\n" + validReport + "\n```",
		"bare fence":  "```\n" + validReport + "\n```",
		"inline tag":  "```json" + validReport + "```",
		"padded":      "\n\n  " + validReport + "  \n",
		"crlf fenced": "```json\r\n" + validReport + "\r\n```\r\n",
		"open only":   "```json\n" + validReport,
		"close only":  validReport + "\n```",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			report, err := ParseReport(raw)
			if err != nil {
				t.Fatalf("ParseReport: %v", err)
			}
			if report.Score != 72 || report.Level != "Advanced" {
				t.Errorf("unexpected report: %+v", report)
			}
		})
	}
}

// mutate decodes validReport into a generic map, applies fn and re-encodes it.
func mutate(t *testing.T, fn func(m map[string]any)) string {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(validReport), &m); err != nil {
		t.Fatal(err)
	}
	fn(m)
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func strs(n int, s string) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func roadmapItems(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = map[string]any{"title": "t", "description": "d", "priority": "low"}
	}
	return out
}

func TestParseReportRejects(t *testing.T) {
	metrics := func(m map[string]any) map[string]any { return m["metrics"].(map[string]any) }
	firstStep := func(m map[string]any) map[string]any {
		return m["roadmap"].([]any)[0].(map[string]any)
	}

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"only fences", "```json\n```"},
		{"not json", "Here is your report!"},
		{"array", "[1,2,3]"},
		{"trailing data", validReport + ` {"extra":true}`},
		{"prose after", validReport + " Hope this helps."},
		{"unknown field", mutate(t, func(m map[string]any) { m["grade"] = "A" })},
		{"unknown metric", mutate(t, func(m map[string]any) { metrics(m)["security"] = 50 })},
		{"unknown roadmap field", mutate(t, func(m map[string]any) { firstStep(m)["eta"] = "1w" })},
		{"missing score", mutate(t, func(m map[string]any) { delete(m, "score") })},
		{"missing level", mutate(t, func(m map[string]any) { delete(m, "level") })},
		{"missing summary", mutate(t, func(m map[string]any) { delete(m, "summary") })},
		{"missing strengths", mutate(t, func(m map[string]any) { delete(m, "strengths") })},
		{"null weaknesses", mutate(t, func(m map[string]any) { m["weaknesses"] = nil })},
		{"missing metrics", mutate(t, func(m map[string]any) { delete(m, "metrics") })},
		{"missing roadmap", mutate(t, func(m map[string]any) { delete(m, "roadmap") })},
		{"missing metric", mutate(t, func(m map[string]any) { delete(metrics(m), "gitPractices") })},
		{"missing priority", mutate(t, func(m map[string]any) { delete(firstStep(m), "priority") })},
		{"score string", mutate(t, func(m map[string]any) { m["score"] = "72" })},
		{"score negative", mutate(t, func(m map[string]any) { m["score"] = -1 })},
		{"score over 100", mutate(t, func(m map[string]any) { m["score"] = 100.5 })},
		{"metric over 100", mutate(t, func(m map[string]any) { metrics(m)["codeQuality"] = 101 })},
		{"metric negative", mutate(t, func(m map[string]any) { metrics(m)["testCoverage"] = -5 })},
		{"unknown level", mutate(t, func(m map[string]any) { m["level"] = "Guru" })},
		{"lowercase level", mutate(t, func(m map[string]any) { m["level"] = "advanced" })},
		{"empty summary", mutate(t, func(m map[string]any) { m["summary"] = "   " })},
		{"long summary", mutate(t, func(m map[string]any) { m["summary"] = strings.Repeat("x", MaxSummaryLen+1) })},
		{"no strengths", mutate(t, func(m map[string]any) { m["strengths"] = []any{} })},
		{"too many weaknesses", mutate(t, func(m map[string]any) { m["weaknesses"] = strs(MaxListItems+1, "w") })},
		{"empty strength", mutate(t, func(m map[string]any) { m["strengths"] = []any{""} })},
		{"long weakness", mutate(t, func(m map[string]any) { m["weaknesses"] = strs(1, strings.Repeat("w", MaxListItemLen+1)) })},
		{"strength not string", mutate(t, func(m map[string]any) { m["strengths"] = []any{1} })},
		{"empty roadmap", mutate(t, func(m map[string]any) { m["roadmap"] = []any{} })},
		{"long roadmap", mutate(t, func(m map[string]any) { m["roadmap"] = roadmapItems(MaxRoadmapItems + 1) })},
		{"bad priority", mutate(t, func(m map[string]any) { firstStep(m)["priority"] = "urgent" })},
		{"empty title", mutate(t, func(m map[string]any) { firstStep(m)["title"] = "" })},
		{"long title", mutate(t, func(m map[string]any) { firstStep(m)["title"] = strings.Repeat("t", MaxTitleLen+1) })},
		{"long description", mutate(t, func(m map[string]any) { firstStep(m)["description"] = strings.Repeat("d", MaxDescLen+1) })},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := ParseReport(tc.raw)
			if err == nil {
				t.Fatalf("expected rejection, got %+v", report)
			}
			if !errors.Is(err, port.ErrAnalysisFailed) {
				t.Errorf("error %v does not wrap ErrAnalysisFailed", err)
			}
			if report != nil {
				t.Error("rejected report must be nil")
			}
		})
	}
}

func TestParseReportAcceptsBoundaries(t *testing.T) {
	raw := mutate(t, func(m map[string]any) {
		m["score"] = 0
		m["level"] = "Beginner"
		m["summary"] = strings.Repeat("é", MaxSummaryLen)
		m["strengths"] = strs(MaxListItems, strings.Repeat("s", MaxListItemLen))
		m["roadmap"] = roadmapItems(MaxRoadmapItems)
		m["metrics"].(map[string]any)["realWorldRelevance"] = 100
	})
	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport: %v", err)
	}
	if len(report.Strengths) != MaxListItems || len(report.Roadmap) != MaxRoadmapItems {
		t.Errorf("unexpected lengths: %d strengths, %d steps", len(report.Strengths), len(report.Roadmap))
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```JSON\n{\"a\":1}```", `{"a":1}`},
		{"  ```\n[1]\n```  ", `[1]`},
		{"```", ""},
		{"{\"a\":1}\n```", `{"a":1}`},
		{"```json\n{\"a\":1}", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := StripFences(tc.in); got != tc.want {
			t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
