package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"skillmatch/internal/common"
	"skillmatch/internal/config"
	"skillmatch/internal/extract"
	"skillmatch/internal/matching"
	"skillmatch/internal/store"
	"skillmatch/internal/types"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [profile-file] [requirements-file]",
	Short: "Score a candidate profile against job requirements",
	Long: `Score a structured candidate profile against structured job requirements.
The command takes two arguments: the path to a candidate profile JSON file and
the path to a job requirements JSON file. The output is a deterministic match
result with an overall score, per-skill breakdown, and gap analysis.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if matchConfig.OutputFormat == "" {
			matchConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(matchConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runMatch,
}

var (
	matchConfig common.CommandConfig
	matchSave   bool
)

func init() {
	matchCmd.Flags().StringVarP(&matchConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	matchCmd.Flags().StringVar(&matchConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	matchCmd.Flags().BoolVar(&matchSave, "save", false, "Persist the result to match history (requires app.databasePath)")

	// Add completion for format flag
	_ = matchCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// newScorer builds a Scorer from the configured matching policy
func newScorer(cfg *config.Config) (*matching.Scorer, error) {
	return matching.NewScorer(matching.Options{
		RequiredWeight:     cfg.Matching.RequiredWeight,
		BonusWeight:        cfg.Matching.BonusWeight,
		DefaultProficiency: cfg.Matching.DefaultProficiency,
		Aliases:            cfg.Matching.Aliases,
	})
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	scorer, err := newScorer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create scorer: %w", err)
	}

	var history *store.Store
	if matchSave {
		if cfg.App.DatabasePath == "" {
			return fmt.Errorf("--save requires app.databasePath to be configured")
		}
		history, err = store.Open(cfg.App.DatabasePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open match history: %w", err)
		}
		defer func() {
			if err := history.Close(); err != nil {
				logger.LogError(err, "Failed to close match history store")
			}
		}()
	}

	createInput := func(contents []string) (types.MatchInput, error) {
		if len(contents) != 2 {
			return types.MatchInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		var candidate types.CandidateProfile
		if err := json.Unmarshal([]byte(contents[0]), &candidate); err != nil {
			return types.MatchInput{}, fmt.Errorf("invalid candidate profile JSON: %w", err)
		}
		var job types.JobRequirements
		if err := json.Unmarshal([]byte(contents[1]), &job); err != nil {
			return types.MatchInput{}, fmt.Errorf("invalid job requirements JSON: %w", err)
		}
		return types.MatchInput{Candidate: &candidate, Job: &job}, nil
	}

	logDetails := func(input types.MatchInput, cfg common.CommandConfig) {
		logger.Info("Starting match scoring",
			"candidate_skills", len(input.Candidate.Skills),
			"job_skills", len(input.Job.Skills),
			"output_format", cfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input types.MatchInput) (*types.MatchResult, *extract.TokenUsage, error) {
		result, err := scorer.Score(input.Candidate, input.Job)
		if err != nil {
			return nil, nil, err
		}
		if history != nil {
			record, err := history.SaveMatch(ctx, result, "cli")
			if err != nil {
				logger.LogError(err, "Failed to persist match history")
			} else {
				logger.Info("Match history saved", "record_id", record.ID)
			}
		}
		return result, nil, nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		matchConfig,
		args,
		createInput,
		matchOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score match: %w", err)
	}
	logger.Info("Match scoring completed successfully")
	return nil
}
