package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, "https://github.com/octocat/Hello-World", &domain.AnalysisReport{
		Score:      72,
		Level:      domain.LevelAdvanced,
		Summary:    "Solid.",
		Strengths:  []string{"tests"},
		Weaknesses: []string{"docs"},
		Metrics:    domain.Metrics{CodeQuality: 100, TestCoverage: 50},
		Roadmap:    []domain.RoadmapItem{{Title: "Write docs", Description: "Add a usage section.", Priority: domain.PriorityHigh}},
	})
	out := buf.String()
	for _, want := range []string{
		"Score: 72/100 (Advanced)",
		"Code quality           100  ####################",
		"Test coverage           50  ##########..........",
		"  + tests",
		"  - docs",
		"1. [high] Write docs",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLevelsCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"levels"})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), " 90-100  Expert") {
		t.Errorf("levels output:\n%s", buf.String())
	}
}

func TestAnalyzeRejectsBadURL(t *testing.T) {
	rootCmd.SetArgs([]string{"analyze", "not-a-url"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	if !errors.Is(err, port.ErrInvalidURL) {
		t.Fatalf("err = %v, want ErrInvalidURL", err)
	}
	if !strings.HasPrefix(err.Error(), port.MsgInvalidURL) {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWriteReportFormats(t *testing.T) {
	r := &domain.AnalysisReport{Score: 40, Level: domain.LevelIntermediate, Metrics: domain.Metrics{GitPractices: 55}}

	var js bytes.Buffer
	if err := writeReport(&js, "json", "u", r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"gitPractices": 55`) {
		t.Errorf("json output:\n%s", js.String())
	}

	var ym bytes.Buffer
	if err := writeReport(&ym, "yaml", "u", r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ym.String(), "level: Intermediate") || !strings.Contains(ym.String(), "gitPractices: 55") {
		t.Errorf("yaml output:\n%s", ym.String())
	}

	if err := writeReport(&bytes.Buffer{}, "xml", "u", r); err == nil {
		t.Error("unknown format accepted")
	}
}
