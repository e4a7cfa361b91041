package cli

import (
	"context"
	"fmt"

	"skillmatch/internal/common"
	"skillmatch/internal/extract"
	"skillmatch/internal/types"

	"github.com/spf13/cobra"
)

var fitCmd = &cobra.Command{
	Use:   "fit [resume-file] [job-description-file]",
	Short: "Extract and score a resume against a job description",
	Long: `Extract a skill profile from a resume and skill requirements from a job
description, then score the match. The command takes two arguments: the path
to the resume file and the path to the job description file. Plain text and
PDF files are supported.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if fitConfig.OutputFormat == "" {
			fitConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(fitConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runFit,
}

var fitConfig common.CommandConfig

func init() {
	fitCmd.Flags().StringVarP(&fitConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	fitCmd.Flags().StringVar(&fitConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = fitCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	scorer, err := newScorer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create scorer: %w", err)
	}

	extractService, err := extract.NewService(&cfg.Extract, logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}
	defer func() {
		if err := extractService.Close(); err != nil {
			logger.LogError(err, "Failed to close extraction service")
		}
	}()

	createInput := func(contents []string) (types.FitInput, error) {
		if len(contents) != 2 {
			return types.FitInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.FitInput{
			Resume:         contents[0],
			JobDescription: contents[1],
		}, nil
	}

	logDetails := func(input types.FitInput, cfg common.CommandConfig) {
		logger.Info("Starting fit scoring",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"provider", getConfigFromContext(cmd.Context()).Extract.Provider,
			"output_format", cfg.OutputFormat)
	}

	fitOperation := func(ctx context.Context, input types.FitInput) (types.FitOutput, *extract.TokenUsage, error) {
		profile, profileUsage, err := extractService.Provider.ExtractProfile(ctx, input.Resume)
		if err != nil {
			return types.FitOutput{}, nil, fmt.Errorf("failed to extract candidate profile: %w", err)
		}

		requirements, requirementsUsage, err := extractService.Provider.ExtractRequirements(ctx, input.JobDescription)
		if err != nil {
			return types.FitOutput{}, nil, fmt.Errorf("failed to extract job requirements: %w", err)
		}

		match, err := scorer.Score(&profile, &requirements)
		if err != nil {
			return types.FitOutput{}, nil, err
		}

		return types.FitOutput{
			ExtractedProfile:      profile,
			ExtractedRequirements: requirements,
			Match:                 *match,
		}, combineTokenUsage(profileUsage, requirementsUsage), nil
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		fitConfig,
		args,
		createInput,
		fitOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score fit: %w", err)
	}
	logger.Info("Fit scoring completed successfully")
	return nil
}

// combineTokenUsage sums token usage from both extraction calls. Returns nil
// when neither call reported usage (the keyword provider).
func combineTokenUsage(usages ...*extract.TokenUsage) *extract.TokenUsage {
	var total *extract.TokenUsage
	for _, usage := range usages {
		if usage == nil {
			continue
		}
		if total == nil {
			total = &extract.TokenUsage{}
		}
		total.InputTokens += usage.InputTokens
		total.OutputTokens += usage.OutputTokens
		total.TotalTokens += usage.TotalTokens
	}
	return total
}
