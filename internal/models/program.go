// internal/models/program.go
package models

// ProgramRecord is one catalog entry. Optional requirement and risk fields
// fall back to documented defaults in the ranker.
type ProgramRecord struct {
	Country          string   `json:"country" csv:"country"`
	City             string   `json:"city" csv:"city"`
	Institution      string   `json:"institution" csv:"institution"`
	Level            string   `json:"level" csv:"level"`
	Category         string   `json:"category" csv:"category"`
	ProgramName      string   `json:"program_name" csv:"program_name"`
	TuitionPerYear   float64  `json:"tuition_per_year" csv:"tuition_per_year"`
	LivingPerYear    float64  `json:"living_per_year" csv:"living_per_year"`
	DurationYears    float64  `json:"duration_years" csv:"duration_years"`
	IntakeMonths     string   `json:"intake_months" csv:"intake_months,omitempty"`
	IELTSMin         OptFloat `json:"ielts_min" csv:"ielts_min,omitempty"`
	GPAMin           OptFloat `json:"gpa_min" csv:"gpa_min,omitempty"`
	VisaRisk         string   `json:"visa_risk,omitempty" csv:"visa_risk,omitempty"`
	ScholarshipLevel string   `json:"scholarship_level,omitempty" csv:"scholarship_level,omitempty"`
	Vibe             string   `json:"vibe,omitempty" csv:"vibe,omitempty"`
}

// MatchNotes explains the affordability, interest and requirement factors.
type MatchNotes struct {
	Affordability string `json:"affordability"`
	Interest      string `json:"interest"`
	Requirements  string `json:"requirements"`
}

// MatchResult is a ProgramRecord scored against one student.
type MatchResult struct {
	ProgramRecord
	YearlyCost float64    `json:"yearly_cost"`
	Score      float64    `json:"score"`
	Notes      MatchNotes `json:"notes"`
}
