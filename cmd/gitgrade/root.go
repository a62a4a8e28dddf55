package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/ai"
	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/github"
	"github.com/arturoeanton/gitgrade-analyzer/internal/service"
	"github.com/arturoeanton/gitgrade-analyzer/pkg/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	verbose bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "gitgrade",
	Short: "Grade a public GitHub repository with an AI reviewer",
	Long: `gitgrade fetches facts about a public GitHub repository, asks an AI
reviewer to grade it against a fixed rubric and prints the validated report.

Configuration is read from the environment (and a .env file if present):
  AI_GATEWAY_API_KEY   chat-completion API key (required for analyze)
  AI_GATEWAY_URL       chat-completion endpoint
  AI_MODEL             model identifier
  GITHUB_TOKEN         optional GitHub token for a higher API quota`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		} else {
			slog.SetLogLoggerLevel(slog.LevelWarn)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable verbose/debug output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 3*time.Minute,
		"overall time limit for one command")

	rootCmd.Version = Version
	rootCmd.AddCommand(analyzeCmd, promptCmd, levelsCmd)
}

// newService wires the analysis pipeline from environment configuration.
func newService() (*service.AnalysisService, error) {
	cfg := config.Load()
	fetcher, err := github.NewFetcher(github.Config{
		Token:        cfg.GitHubToken,
		RetryBackoff: cfg.GitHubRetryBackoff,
	})
	if err != nil {
		return nil, fmt.Errorf("create GitHub client: %w", err)
	}
	gateway := ai.NewGatewayProvider(ai.GatewayConfig{
		URL:    cfg.AIGatewayURL,
		Model:  cfg.AIModel,
		APIKey: cfg.AIAPIKey,
	})
	return service.NewAnalysisService(fetcher, gateway), nil
}
