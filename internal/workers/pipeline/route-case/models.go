// internal/workers/pipeline/route-case/models.go
package routecase

const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

type Input struct {
	CaseID string `json:"caseId"`
	// LeadStatus overrides the status stored on the case, e.g. straight
	// after score-lead in the same process instance.
	LeadStatus string `json:"leadStatus,omitempty"`
}

type Output struct {
	CaseID         string `json:"caseId"`
	Priority       string `json:"priority"`
	AssignedTo     string `json:"assignedTo,omitempty"`
	AssigneeName   string `json:"assigneeName,omitempty"`
	AssigneeEmail  string `json:"assigneeEmail,omitempty"`
	AutoAssigned   bool   `json:"autoAssigned"`
	NextFollowupAt string `json:"nextFollowupAt"` // ISO 8601
}
