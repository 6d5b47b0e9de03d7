// Package ranking scores university programs against a student's finances,
// interests and entry credentials. Rank is pure and safe for concurrent use.
package ranking

import (
	"sort"

	"counsel-workers/internal/models"
)

// Rank filters the catalog by preferred destination, scores every remaining
// program and returns them best first. Equal scores keep catalog order.
// The catalog is never modified.
func Rank(profile models.StudentProfile, catalog []models.ProgramRecord) []models.MatchResult {
	destinations := NormalizeDestinations(profile.Destinations)
	allowed := make(map[string]bool, len(destinations))
	for _, d := range destinations {
		allowed[d] = true
	}

	results := make([]models.MatchResult, 0, len(catalog))
	for _, program := range catalog {
		if len(allowed) > 0 && !allowed[program.Country] {
			continue
		}
		results = append(results, ScoreProgram(profile, program))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// ScoreProgram computes one MatchResult.
func ScoreProgram(profile models.StudentProfile, program models.ProgramRecord) models.MatchResult {
	yearlyCost := program.TuitionPerYear + program.LivingPerYear

	aff, affNote := Affordability(profile.Finance, yearlyCost)
	interest, interestNote := Interest(profile.MajorChoices, program.Category)
	visa := VisaWeight(program.VisaRisk)
	scholarship := ScholarshipWeight(program.ScholarshipLevel)
	penalty, reqNote := Requirements(profile, program)

	base := WeightAffordability*aff +
		WeightVisa*visa +
		WeightInterest*interest +
		WeightScholarship*scholarship

	record := program
	if record.VisaRisk == "" {
		record.VisaRisk = defaultVisaRisk
	}
	if record.ScholarshipLevel == "" {
		record.ScholarshipLevel = defaultScholarship
	}

	return models.MatchResult{
		ProgramRecord: record,
		YearlyCost:    yearlyCost,
		Score:         base * penalty,
		Notes: models.MatchNotes{
			Affordability: affNote,
			Interest:      interestNote,
			Requirements:  reqNote,
		},
	}
}

// NormalizeDestinations drops blank entries and the intake form's "other"
// choice. Matching is otherwise exact and case-sensitive.
func NormalizeDestinations(destinations []string) []string {
	out := make([]string, 0, len(destinations))
	for _, d := range destinations {
		if d == "" || d == "other" || d == "Other" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Top returns at most n results.
func Top(results []models.MatchResult, n int) []models.MatchResult {
	if n < 0 || n >= len(results) {
		return results
	}
	return results[:n]
}
