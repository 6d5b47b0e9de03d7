// internal/workers/pipeline/update-case-status/models.go
package updatecasestatus

type Action string

const (
	ActionUpdateStatus   Action = "UPDATE_STATUS"
	ActionMarkContacted  Action = "MARK_CONTACTED"
	ActionContactAttempt Action = "CONTACT_ATTEMPT"
	ActionAssign         Action = "ASSIGN"
)

type Input struct {
	CaseID string `json:"caseId"`
	// Action defaults to UPDATE_STATUS when only a status is given.
	Action    Action `json:"action,omitempty"`
	Status    string `json:"status,omitempty"`
	ActorID   string `json:"actorId,omitempty"`
	ActorRole string `json:"actorRole,omitempty"`
	// AssigneeID empty with ASSIGN clears the owner.
	AssigneeID string `json:"assigneeId,omitempty"`
}

type Output struct {
	CaseID         string `json:"caseId"`
	Action         Action `json:"action"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previousStatus"`
	AssignedTo     string `json:"assignedTo,omitempty"`
	UpdatedAt      string `json:"updatedAt"` // ISO 8601
}
