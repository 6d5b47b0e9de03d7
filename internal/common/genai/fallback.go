// internal/common/genai/fallback.go
package genai

import (
	"context"
	"strings"
)

// Fallback returns a fixed narrative assembled from the prompt facts.
type Fallback struct{}

func (Fallback) Generate(_ context.Context, prompt Prompt) (*Content, error) {
	summary := "Automated narrative unavailable. Summary compiled from case data."
	if len(prompt.Facts) > 0 {
		summary += " " + strings.Join(prompt.Facts, "; ") + "."
	}
	return &Content{
		ExecutiveSummary: summary,
		Strengths:        []string{"Review the scored profile and top program matches below."},
		Risks:            []string{"Verify budget, liquidity and English test status with the student."},
		NextSteps: []string{
			"Confirm funding source and proof of liquidity.",
			"Book an English test if not yet taken.",
			"Shortlist two backup programs before the intake deadline.",
		},
		Source: SourceFallback,
	}, nil
}
