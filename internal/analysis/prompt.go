package analysis

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
)

// SystemPrompt is sent alongside every evaluation prompt.
const SystemPrompt = "You are an expert code reviewer. Always respond with valid JSON only, no markdown formatting, no code fences and no text outside the JSON object."

// Metric weights used by the overall score formula. They sum to 100.
var MetricWeights = []struct {
	Key    string
	Weight int
}{
	{"codeQuality", 25},
	{"documentation", 15},
	{"testCoverage", 20},
	{"projectStructure", 15},
	{"gitPractices", 15},
	{"realWorldRelevance", 10},
}

const rubric = `SCORING RUBRIC
Score each metric from 0 to 100 using these bands:

codeQuality (weight 25%)
  90-100: consistent idiomatic code, strong typing or linting, clear modules
  70-89:  mostly clean with minor inconsistencies
  40-69:  working code with noticeable smells or duplication
  0-39:   disorganized, fragile or unreadable code

documentation (weight 15%)
  90-100: thorough README (purpose, setup, usage, examples) plus docs folder or guides
  70-89:  README covers setup and usage
  40-69:  README exists but is thin or outdated
  0-39:   no README or a placeholder only

testCoverage (weight 20%)
  90-100: test suite present, wired into CI, covering core paths
  70-89:  tests present with partial coverage
  40-69:  a few tests or only test scaffolding
  0-39:   no tests found

projectStructure (weight 15%)
  90-100: clear layout, config, license, contributing guide, build tooling
  70-89:  sensible layout with minor gaps
  40-69:  flat or mixed layout
  0-39:   no discernible structure

gitPractices (weight 15%)
  90-100: descriptive commits, steady history, branches, releases, PR and issue flow
  70-89:  mostly descriptive commits and regular activity
  40-69:  irregular history or vague commit messages
  0-39:   few commits or meaningless messages

realWorldRelevance (weight 10%)
  90-100: solves a real problem, adopted by others (stars, forks, contributors)
  70-89:  useful and complete for its scope
  40-69:  learning project with some practical value
  0-39:   trivial or unfinished

OVERALL SCORE
score = round(0.25*codeQuality + 0.15*documentation + 0.20*testCoverage + 0.15*projectStructure + 0.15*gitPractices + 0.10*realWorldRelevance)

LEVEL (from the overall score)
`

const outputFormat = `OUTPUT FORMAT
Respond with a single JSON object and nothing else: no prose before or after it, no markdown, no code fences.
The object must have exactly these fields:
{
  "score": <integer 0-100, the weighted overall score>,
  "level": <one of "Beginner", "Intermediate", "Advanced", "Expert", taken from the level table>,
  "summary": <2-3 sentence evaluation of the repository's current quality>,
  "strengths": [<2-4 specific strengths>],
  "weaknesses": [<2-4 specific areas for improvement>],
  "metrics": {
    "codeQuality": <0-100>,
    "documentation": <0-100>,
    "testCoverage": <0-100>,
    "projectStructure": <0-100>,
    "gitPractices": <0-100>,
    "realWorldRelevance": <0-100>
  },
  "roadmap": [
    {"title": <short step title>, "description": <what to do and why>, "priority": <"high" | "medium" | "low">}
  ]
}
The roadmap must contain 4-6 actionable steps ordered by priority, high first.
Be honest but constructive. Focus on actionable feedback that would help the developer improve.`

// BuildPrompt renders a snapshot into the evaluation prompt. The output is a
// pure function of the snapshot.
func BuildPrompt(s *domain.RepositorySnapshot) string {
	var b strings.Builder

	b.WriteString("You are an expert code reviewer and mentor. Evaluate the GitHub repository described below and grade it with the rubric that follows.\n\n")

	section(&b, "REPOSITORY")
	line(&b, "Name", s.Name)
	line(&b, "Full name", s.FullName)
	line(&b, "Description", orNone(s.Description))
	if s.Homepage != "" {
		line(&b, "Homepage", s.Homepage)
	}
	line(&b, "Default branch", s.DefaultBranch)
	line(&b, "Primary language", s.Language)
	line(&b, "Topics", joinOrNone(s.Topics))
	line(&b, "Archived", yesNo(s.Archived))
	line(&b, "Fork", yesNo(s.Fork))

	section(&b, "ACTIVITY")
	line(&b, "Created", formatTime(s.CreatedAt))
	line(&b, "Last updated", formatTime(s.UpdatedAt))
	line(&b, "Last pushed", formatTime(s.PushedAt))
	line(&b, "Total commits", fmt.Sprint(s.TotalCommits))
	line(&b, "Branches", fmt.Sprint(s.Branches))
	line(&b, "Releases", fmt.Sprint(s.Releases))

	section(&b, "COMMUNITY")
	line(&b, "Stars", fmt.Sprint(s.Stars))
	line(&b, "Forks", fmt.Sprint(s.Forks))
	line(&b, "Watchers", fmt.Sprint(s.Watchers))
	line(&b, "Contributors", fmt.Sprint(s.Contributors))
	line(&b, "Open issues", fmt.Sprint(s.OpenIssues))
	line(&b, "Closed issues", fmt.Sprint(s.ClosedIssues))
	line(&b, "Open pull requests", fmt.Sprint(s.OpenPulls))

	sig := s.Signals
	section(&b, "SIGNALS")
	line(&b, "Has README", yesNo(sig.HasReadme))
	line(&b, "Has tests", yesNo(sig.HasTests))
	line(&b, "Has license", yesNo(sig.HasLicense))
	line(&b, "Has CI/CD", yesNo(sig.HasCI))
	line(&b, "CI systems", joinOrNone(s.CISystems))
	line(&b, "Has contributing guide", yesNo(sig.HasContributing))
	line(&b, "Has changelog", yesNo(sig.HasChangelog))
	line(&b, "Has code of conduct", yesNo(sig.HasCodeOfConduct))
	line(&b, "Has security policy", yesNo(sig.HasSecurityPolicy))
	line(&b, "Has docs folder", yesNo(sig.HasDocs))
	line(&b, "Has Dockerfile", yesNo(sig.HasDockerfile))
	line(&b, "Has Makefile", yesNo(sig.HasMakefile))
	line(&b, "Uses TypeScript", yesNo(sig.UsesTypeScript))

	section(&b, "LANGUAGES (bytes)")
	writeLanguages(&b, s.Languages)

	section(&b, "FILE STRUCTURE (root)")
	list(&b, s.FileStructure)

	section(&b, "RECENT COMMITS")
	if len(s.RecentCommits) == 0 {
		b.WriteString("none\n")
	}
	for _, c := range s.RecentCommits {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", c.Message, orNone(c.Author), formatTime(c.Date))
	}

	section(&b, "PACKAGE MANIFEST")
	writeManifest(&b, s.Manifest)

	section(&b, "README EXCERPT")
	switch {
	case s.ReadmeExcerpt != "":
		b.WriteString(s.ReadmeExcerpt)
		b.WriteString("\n")
	case s.Signals.HasReadme:
		// Listed in the root tree but the content could not be fetched.
		b.WriteString("README excerpt unavailable\n")
	default:
		b.WriteString("No README found\n")
	}

	b.WriteString("\n")
	b.WriteString(rubric)
	for _, band := range domain.LevelBands {
		fmt.Fprintf(&b, "  %d-%d: %s\n", band.Min, band.Max, band.Level)
	}
	b.WriteString("\n")
	b.WriteString(outputFormat)
	b.WriteString("\n")

	return b.String()
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n## %s\n", title)
}

func line(b *strings.Builder, key, value string) {
	fmt.Fprintf(b, "%s: %s\n", key, value)
}

func list(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("none\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

// writeLanguages renders the histogram by descending byte count, then name.
func writeLanguages(b *strings.Builder, langs map[string]int) {
	if len(langs) == 0 {
		b.WriteString("none\n")
		return
	}
	names := make([]string, 0, len(langs))
	total := 0
	for name, n := range langs {
		names = append(names, name)
		total += n
	}
	sort.Slice(names, func(i, j int) bool {
		if langs[names[i]] != langs[names[j]] {
			return langs[names[i]] > langs[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		pct := 0.0
		if total > 0 {
			pct = float64(langs[name]) * 100 / float64(total)
		}
		fmt.Fprintf(b, "- %s: %d (%.1f%%)\n", name, langs[name], pct)
	}
}

func writeManifest(b *strings.Builder, m *domain.PackageManifest) {
	if m == nil {
		b.WriteString("none\n")
		return
	}
	line(b, "Name", orNone(m.Name))
	line(b, "Version", orNone(m.Version))
	line(b, "Description", orNone(m.Description))
	line(b, "Scripts", joinOrNone(m.Scripts))
	line(b, "Dependencies", joinOrNone(m.Dependencies))
	line(b, "Dev dependencies", joinOrNone(m.DevDependencies))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
