// internal/workers/qualification/score-lead/models.go
package scorelead

import "counsel-workers/internal/engine/leadscore"

type Input struct {
	CaseID  string            `json:"caseId"`
	Answers map[string]string `json:"answers"`
	// ScoredBy is the staff user who ran the interview, for the audit trail.
	ScoredBy string `json:"scoredBy,omitempty"`
}

type Output struct {
	LeadScore   int                 `json:"leadScore"`
	LeadStatus  string              `json:"leadStatus"`
	LeadTier    string              `json:"leadTier"`
	IsHotLead   bool                `json:"isHotLead"`
	SubScores   leadscore.SubScores `json:"subScores"`
	Flags       []string            `json:"flags"`
	Rule        string              `json:"rule"`
	ActionPlan  string              `json:"actionPlan"`
	Breakdown   []string            `json:"breakdown"`
	IgnoredKeys []string            `json:"ignoredKeys,omitempty"`
}
