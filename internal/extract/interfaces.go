package extract

import (
	"context"

	"skillmatch/internal/types"
)

// Provider turns free-form resume and job description text into structured
// matching inputs. All methods return token usage information - deterministic
// providers return nil and callers can ignore it.
type Provider interface {
	ExtractProfile(ctx context.Context, resume string) (types.CandidateProfile, *TokenUsage, error)
	ExtractRequirements(ctx context.Context, jobDescription string) (types.JobRequirements, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from model responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the extraction backend
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
