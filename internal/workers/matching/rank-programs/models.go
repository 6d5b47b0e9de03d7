// internal/workers/matching/rank-programs/models.go
package rankprograms

import "counsel-workers/internal/models"

// Input names either a stored case or an inline profile. An inline profile
// wins when both are present.
type Input struct {
	CaseID  string                 `json:"caseId"`
	Profile *models.StudentProfile `json:"profile,omitempty"`
	TopN    int                    `json:"topN"`
}

type Output struct {
	CaseID          string               `json:"caseId,omitempty"`
	Matches         []models.MatchResult `json:"matches"`
	MatchCount      int                  `json:"matchCount"`
	TotalCandidates int                  `json:"totalCandidates"`
	CatalogSource   string               `json:"catalogSource"`
}
