// internal/reports/narrative.go
package reports

import (
	"fmt"

	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/engine/ranking"
)

// NarrativePrompt summarises the case as facts for the generative-text
// collaborator. Only data already on the case is included.
func NarrativePrompt(in Input) genai.Prompt {
	p := in.Profile
	facts := []string{
		fmt.Sprintf("Destinations: %s", joinOr(p.Destinations, "undecided")),
		fmt.Sprintf("Preferred majors: %s", joinOr(p.MajorChoices, "not provided")),
		fmt.Sprintf("Annual budget: %s", optMoney(p.Finance.AnnualBudget, "not provided")),
		fmt.Sprintf("English: %s %s", orDefault(p.English, "not provided"), optNumber(p.EnglishScore, "")),
		fmt.Sprintf("GPA: %s", optNumber(p.GPA, "not provided")),
		fmt.Sprintf("Data confidence: %.0f%%", Confidence(p)*100),
	}
	if in.Lead != nil {
		facts = append(facts, fmt.Sprintf("Lead score %d/100, status %s", in.Lead.TotalScore, in.Lead.Status))
		facts = append(facts, in.Lead.Breakdown...)
	}
	for i, m := range ranking.Top(in.Ranked, recommendationCount) {
		facts = append(facts, fmt.Sprintf("Option %d: %s at %s (%s), yearly cost %s, score %.2f",
			i+1, m.ProgramName, m.Institution, m.Country, Money(m.YearlyCost), m.Score))
	}

	return genai.Prompt{
		Instruction: "Write a short internal executive summary for the counselling team about this prospective student.",
		Facts:       facts,
		Temperature: 0.3,
	}
}
