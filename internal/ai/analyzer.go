// Package ai defines the contract shared by the match analysis providers.
package ai

import (
	"context"

	"github.com/spigell/jobflow/internal/resume"
)

const (
	ProviderBackend = "backend"
	ProviderGemini  = "gemini"
)

// Analyzer scores resume text against a job description.
type Analyzer interface {
	Analyze(ctx context.Context, resumeText, jobDescription string) (*resume.Match, error)
}
