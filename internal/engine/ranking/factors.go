// internal/engine/ranking/factors.go
package ranking

import (
	"fmt"
	"strings"

	"counsel-workers/internal/models"
)

// Weights of the four sub-scores. They sum to 1.0.
const (
	WeightAffordability = 0.55
	WeightVisa          = 0.20
	WeightInterest      = 0.15
	WeightScholarship   = 0.10
)

const (
	noBudgetAffordability = 0.45
	bufferPenalty         = 0.75
	requirementPenalty    = 0.75
	unmatchedInterest     = 0.6
	// ratio used when a negative budget makes the real ratio meaningless
	invalidBudgetRatio = 99.0
)

var visaRiskWeight = map[string]float64{"Low": 1.0, "Medium": 0.7, "High": 0.4}

var scholarshipWeight = map[string]float64{"High": 1.0, "Medium": 0.7, "Low": 0.4}

const (
	defaultVisaRisk    = "Medium"
	defaultScholarship = "Low"
)

// categoryKeywords are matched as substrings of the lowercased, space-joined
// major choices.
var categoryKeywords = map[string][]string{
	"IT":       {"computer", "it", "data", "software", "ai", "cyber", "information"},
	"Business": {"business", "finance", "account", "management", "commerce", "marketing"},
	"Design":   {"design", "animation", "media", "creative", "ui", "ux"},
	"Health":   {"nursing", "health", "medicine", "pharmacy"},
}

// Affordability scores yearlyCost against the student's finances.
func Affordability(fin models.FinancialProfile, yearlyCost float64) (float64, string) {
	budget, ok := fin.AnnualBudget.Get()
	if !ok || budget == 0 {
		return noBudgetAffordability, "No budget provided"
	}

	ratio := invalidBudgetRatio
	if budget > 0 {
		ratio = yearlyCost / budget
	}
	score := clamp(1.1-ratio, 0, 1)

	savings, hasSavings := fin.Savings.Get()
	buffer, hasBuffer := fin.CashBuffer.Get()
	if hasSavings && hasBuffer {
		shortfall := yearlyCost - budget
		if shortfall < 0 {
			shortfall = 0
		}
		if savings-shortfall < buffer {
			return score * bufferPenalty, "Budget shortfall risks breaking cash buffer"
		}
	}
	return score, fmt.Sprintf("Cost/Budget ratio %.2f", ratio)
}

// VisaWeight maps a visa-risk tag to its weight, defaulting to Medium.
func VisaWeight(tag string) float64 {
	if w, ok := visaRiskWeight[tag]; ok {
		return w
	}
	return visaRiskWeight[defaultVisaRisk]
}

// ScholarshipWeight maps a scholarship tag to its weight, defaulting to Low.
func ScholarshipWeight(tag string) float64 {
	if w, ok := scholarshipWeight[tag]; ok {
		return w
	}
	return scholarshipWeight[defaultScholarship]
}

// Interest scores how well a program category matches the stated majors.
func Interest(majorChoices []string, category string) (float64, string) {
	if len(majorChoices) == 0 {
		return unmatchedInterest, "No major choices provided"
	}

	lowered := make([]string, len(majorChoices))
	for i, m := range majorChoices {
		lowered[i] = strings.ToLower(m)
	}
	text := strings.Join(lowered, " ")

	for _, kw := range categoryKeywords[category] {
		if strings.Contains(text, kw) {
			return 1.0, "Category matches stated interests"
		}
	}
	return unmatchedInterest, "Category not clearly matched to stated interests"
}

// Requirements returns the compounded GPA/English penalty. Unknown student or
// program values skip the corresponding check.
func Requirements(profile models.StudentProfile, program models.ProgramRecord) (float64, string) {
	penalty := 1.0
	var reasons []string

	if gpa, ok := profile.GPA.Get(); ok {
		if min, ok := program.GPAMin.Get(); ok && gpa < min {
			penalty *= requirementPenalty
			reasons = append(reasons, "GPA below typical minimum")
		}
	}
	if score, ok := profile.EnglishScore.Get(); ok {
		if min, ok := program.IELTSMin.Get(); ok && score < min {
			penalty *= requirementPenalty
			reasons = append(reasons, "IELTS below typical minimum")
		}
	}

	if len(reasons) == 0 {
		return penalty, "No requirement conflicts detected"
	}
	return penalty, strings.Join(reasons, ", ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
