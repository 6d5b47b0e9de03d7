// internal/reports/format.go
package reports

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/engine/leadscore"
	"counsel-workers/internal/models"
)

var printer = message.NewPrinter(language.English)

// Money formats an amount with thousands separators and no decimals.
func Money(v float64) string {
	return printer.Sprintf("%.0f", v)
}

func optMoney(v models.OptFloat, missing string) string {
	if f, ok := v.Get(); ok {
		return Money(f)
	}
	return missing
}

func optNumber(v models.OptFloat, missing string) string {
	if f, ok := v.Get(); ok {
		return printer.Sprintf("%g", f)
	}
	return missing
}

func joinOr(items []string, missing string) string {
	if len(items) == 0 {
		return missing
	}
	return strings.Join(items, ", ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Input carries everything a report can draw on. Lead and Narrative are optional.
type Input struct {
	Profile   models.StudentProfile
	Ranked    []models.MatchResult
	Lead      *leadscore.Result
	Narrative *genai.Content
}

// Full joins the internal report and the strategic roadmap into the single
// document stored on the case.
func Full(in Input) string {
	return Internal(in) + "\n\n---\n\n" + Roadmap(in)
}
