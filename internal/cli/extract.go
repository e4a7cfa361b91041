package cli

import (
	"context"
	"fmt"

	"skillmatch/internal/common"
	"skillmatch/internal/extract"
	"skillmatch/internal/types"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [document-file]",
	Short: "Extract a skill profile or job requirements from a document",
	Long: `Extract structured skills from a single document. By default the document
is treated as a resume and a candidate profile is produced. Use --job to treat
the document as a job posting and produce skill requirements instead. Plain
text and PDF files are supported.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if extractConfig.OutputFormat == "" {
			extractConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(extractConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runExtract,
}

var (
	extractConfig common.CommandConfig
	extractAsJob  bool
)

func init() {
	extractCmd.Flags().StringVarP(&extractConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().StringVar(&extractConfig.OutputFormat, "format", "", "Output format: json or text")
	extractCmd.Flags().BoolVar(&extractAsJob, "job", false, "Treat the document as a job posting and extract requirements")

	// Add completion for format flag
	_ = extractCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	extractService, err := extract.NewService(&cfg.Extract, logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction service: %w", err)
	}
	defer func() {
		if err := extractService.Close(); err != nil {
			logger.LogError(err, "Failed to close extraction service")
		}
	}()

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(input string, cfg common.CommandConfig) {
		kind := "profile"
		if extractAsJob {
			kind = "requirements"
		}
		logger.Info("Starting skill extraction",
			"document_chars", len(input),
			"kind", kind,
			"provider", getConfigFromContext(cmd.Context()).Extract.Provider,
			"output_format", cfg.OutputFormat)
	}

	if extractAsJob {
		operation := func(ctx context.Context, input string) (types.JobRequirements, *extract.TokenUsage, error) {
			return extractService.Provider.ExtractRequirements(ctx, input)
		}
		err = common.RunFileCommand(cmd.Context(), logger, extractConfig, args, createInput, operation, logDetails)
	} else {
		operation := func(ctx context.Context, input string) (types.CandidateProfile, *extract.TokenUsage, error) {
			return extractService.Provider.ExtractProfile(ctx, input)
		}
		err = common.RunFileCommand(cmd.Context(), logger, extractConfig, args, createInput, operation, logDetails)
	}

	if err != nil {
		return fmt.Errorf("failed to extract skills: %w", err)
	}
	logger.Info("Skill extraction completed successfully")
	return nil
}
