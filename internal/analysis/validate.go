package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// Report bounds. Lengths are counted in characters.
const (
	MinSummaryLen   = 1
	MaxSummaryLen   = 1000
	MinListItems    = 1
	MaxListItems    = 6
	MaxListItemLen  = 300
	MinRoadmapItems = 1
	MaxRoadmapItems = 8
	MaxTitleLen     = 120
	MaxDescLen      = 600
)

// Wire shapes use pointers so an absent field can be told apart from a zero
// value. Every field is required.
type wireReport struct {
	Score      *float64      `json:"score"`
	Level      *string       `json:"level"`
	Summary    *string       `json:"summary"`
	Strengths  []string      `json:"strengths"`
	Weaknesses []string      `json:"weaknesses"`
	Metrics    *wireMetrics  `json:"metrics"`
	Roadmap    []wireRoadmap `json:"roadmap"`
}

type wireMetrics struct {
	CodeQuality        *float64 `json:"codeQuality"`
	Documentation      *float64 `json:"documentation"`
	TestCoverage       *float64 `json:"testCoverage"`
	ProjectStructure   *float64 `json:"projectStructure"`
	GitPractices       *float64 `json:"gitPractices"`
	RealWorldRelevance *float64 `json:"realWorldRelevance"`
}

type wireRoadmap struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

// ParseReport turns raw completion text into a validated report. Markdown
// code fences around the JSON are tolerated; anything else that does not
// match the report schema exactly is rejected with port.ErrAnalysisFailed.
func ParseReport(raw string) (*domain.AnalysisReport, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty completion", port.ErrAnalysisFailed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var w wireReport
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: decode report: %v", port.ErrAnalysisFailed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after report", port.ErrAnalysisFailed)
	}

	report, err := w.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrAnalysisFailed, err)
	}
	return report, nil
}

// StripFences removes a leading ``` or ```json line and a trailing ```,
// each independently of the other.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the info string (e.g. "json") up to the first newline or brace.
		if i := strings.IndexAny(s, "\n{["); i >= 0 {
			s = s[i:]
		} else {
			s = ""
		}
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func (w *wireReport) validate() (*domain.AnalysisReport, error) {
	var missing []string
	if w.Score == nil {
		missing = append(missing, "score")
	}
	if w.Level == nil {
		missing = append(missing, "level")
	}
	if w.Summary == nil {
		missing = append(missing, "summary")
	}
	if w.Strengths == nil {
		missing = append(missing, "strengths")
	}
	if w.Weaknesses == nil {
		missing = append(missing, "weaknesses")
	}
	if w.Metrics == nil {
		missing = append(missing, "metrics")
	}
	if w.Roadmap == nil {
		missing = append(missing, "roadmap")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	if err := checkScore("score", *w.Score); err != nil {
		return nil, err
	}
	if !domain.IsLevel(*w.Level) {
		return nil, fmt.Errorf("level %q is not a known label", *w.Level)
	}
	if err := checkLen("summary", *w.Summary, MinSummaryLen, MaxSummaryLen); err != nil {
		return nil, err
	}
	if err := checkList("strengths", w.Strengths); err != nil {
		return nil, err
	}
	if err := checkList("weaknesses", w.Weaknesses); err != nil {
		return nil, err
	}
	metrics, err := w.Metrics.validate()
	if err != nil {
		return nil, err
	}

	if n := len(w.Roadmap); n < MinRoadmapItems || n > MaxRoadmapItems {
		return nil, fmt.Errorf("roadmap has %d items, want %d-%d", n, MinRoadmapItems, MaxRoadmapItems)
	}
	roadmap := make([]domain.RoadmapItem, 0, len(w.Roadmap))
	for i, it := range w.Roadmap {
		if it.Title == nil || it.Description == nil || it.Priority == nil {
			return nil, fmt.Errorf("roadmap[%d]: title, description and priority are required", i)
		}
		if err := checkLen(fmt.Sprintf("roadmap[%d].title", i), *it.Title, 1, MaxTitleLen); err != nil {
			return nil, err
		}
		if err := checkLen(fmt.Sprintf("roadmap[%d].description", i), *it.Description, 1, MaxDescLen); err != nil {
			return nil, err
		}
		if !domain.IsPriority(*it.Priority) {
			return nil, fmt.Errorf("roadmap[%d].priority %q is not high, medium or low", i, *it.Priority)
		}
		roadmap = append(roadmap, domain.RoadmapItem{
			Title:       *it.Title,
			Description: *it.Description,
			Priority:    *it.Priority,
		})
	}

	return &domain.AnalysisReport{
		Score:      *w.Score,
		Level:      *w.Level,
		Summary:    *w.Summary,
		Strengths:  w.Strengths,
		Weaknesses: w.Weaknesses,
		Metrics:    metrics,
		Roadmap:    roadmap,
	}, nil
}

func (m *wireMetrics) validate() (domain.Metrics, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"codeQuality", m.CodeQuality},
		{"documentation", m.Documentation},
		{"testCoverage", m.TestCoverage},
		{"projectStructure", m.ProjectStructure},
		{"gitPractices", m.GitPractices},
		{"realWorldRelevance", m.RealWorldRelevance},
	}
	for _, f := range fields {
		if f.v == nil {
			return domain.Metrics{}, fmt.Errorf("metrics.%s is missing", f.name)
		}
		if err := checkScore("metrics."+f.name, *f.v); err != nil {
			return domain.Metrics{}, err
		}
	}
	return domain.Metrics{
		CodeQuality:        *m.CodeQuality,
		Documentation:      *m.Documentation,
		TestCoverage:       *m.TestCoverage,
		ProjectStructure:   *m.ProjectStructure,
		GitPractices:       *m.GitPractices,
		RealWorldRelevance: *m.RealWorldRelevance,
	}, nil
}

func checkScore(name string, v float64) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s = %v, want 0-100", name, v)
	}
	return nil
}

func checkLen(name, s string, lo, hi int) error {
	if strings.TrimSpace(s) == "" && lo > 0 {
		return fmt.Errorf("%s is empty", name)
	}
	if n := utf8.RuneCountInString(s); n < lo || n > hi {
		return fmt.Errorf("%s has %d characters, want %d-%d", name, n, lo, hi)
	}
	return nil
}

func checkList(name string, items []string) error {
	if n := len(items); n < MinListItems || n > MaxListItems {
		return fmt.Errorf("%s has %d items, want %d-%d", name, n, MinListItems, MaxListItems)
	}
	for i, it := range items {
		if err := checkLen(fmt.Sprintf("%s[%d]", name, i), it, 1, MaxListItemLen); err != nil {
			return err
		}
	}
	return nil
}
