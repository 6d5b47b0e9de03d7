// internal/workers/reporting/generate-report/models.go
package generatereport

type Input struct {
	CaseID      string `json:"caseId"`
	RequestedBy string `json:"requestedBy,omitempty"`
	// SkipNarrative renders the report with the static summary only.
	SkipNarrative bool `json:"skipNarrative,omitempty"`
}

type Output struct {
	CaseID          string  `json:"caseId"`
	ReportLength    int     `json:"reportLength"`
	Confidence      float64 `json:"confidence"`
	TopInstitution  string  `json:"topInstitution,omitempty"`
	MatchCount      int     `json:"matchCount"`
	NarrativeSource string  `json:"narrativeSource"`
	CatalogSource   string  `json:"catalogSource"`
	GeneratedAt     string  `json:"generatedAt"`
}
