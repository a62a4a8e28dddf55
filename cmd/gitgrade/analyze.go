package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

var analyzeOutput string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <repo-url>",
	Short: "Grade a repository and print the report",
	Example: `  gitgrade analyze https://github.com/octocat/Hello-World
  gitgrade analyze -o json https://github.com/octocat/Hello-World`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		report, err := svc.Analyze(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		return writeReport(cmd.OutOrStdout(), analyzeOutput, args[0], report)
	},
}

var promptCmd = &cobra.Command{
	Use:   "prompt <repo-url>",
	Short: "Fetch a repository and print the evaluation prompt without calling the model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		prompt, err := svc.Prompt(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), prompt)
		return err
	},
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Print the score range of each level label",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, b := range domain.LevelBands {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d-%-3d  %s\n", b.Min, b.Max, b.Level)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format: text, json or yaml")
}

func writeReport(w io.Writer, format, url string, r *domain.AnalysisReport) error {
	switch format {
	case "text", "":
		printReport(w, url, r)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// describe pairs the user-facing message with the underlying cause.
func describe(err error) error {
	_, msg := port.PublicError(err)
	if errors.Is(err, port.ErrServiceUnavailable) {
		msg += " (is AI_GATEWAY_API_KEY set?)"
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func printReport(w io.Writer, url string, r *domain.AnalysisReport) {
	fmt.Fprintf(w, "%s\n", url)
	fmt.Fprintf(w, "Score: %.0f/100 (%s)\n\n", r.Score, r.Level)
	fmt.Fprintf(w, "%s\n\n", r.Summary)

	m := r.Metrics
	fmt.Fprintln(w, "Metrics:")
	for _, row := range []struct {
		name  string
		value float64
	}{
		{"Code quality", m.CodeQuality},
		{"Documentation", m.Documentation},
		{"Test coverage", m.TestCoverage},
		{"Project structure", m.ProjectStructure},
		{"Git practices", m.GitPractices},
		{"Real-world relevance", m.RealWorldRelevance},
	} {
		fmt.Fprintf(w, "  %-22s %3.0f  %s\n", row.name, row.value, bar(row.value))
	}

	fmt.Fprintln(w, "\nStrengths:")
	for _, s := range r.Strengths {
		fmt.Fprintf(w, "  + %s\n", s)
	}
	fmt.Fprintln(w, "\nWeaknesses:")
	for _, s := range r.Weaknesses {
		fmt.Fprintf(w, "  - %s\n", s)
	}
	fmt.Fprintln(w, "\nRoadmap:")
	for i, step := range r.Roadmap {
		fmt.Fprintf(w, "  %d. [%s] %s\n     %s\n", i+1, step.Priority, step.Title, step.Description)
	}
}

func bar(v float64) string {
	n := int(v / 5)
	if n < 0 {
		n = 0
	}
	if n > 20 {
		n = 20
	}
	return strings.Repeat("#", n) + strings.Repeat(".", 20-n)
}
