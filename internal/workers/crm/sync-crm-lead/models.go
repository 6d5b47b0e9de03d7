// internal/workers/crm/sync-crm-lead/models.go
package synccrmlead

type Input struct {
	CaseID string `json:"caseId"`
	// LeadStatus and LeadScore override the stored qualification, for
	// processes that sync straight after score-lead.
	LeadStatus string `json:"leadStatus,omitempty"`
	LeadScore  *int   `json:"leadScore,omitempty"`
}

type Output struct {
	CaseID    string `json:"caseId"`
	Synced    bool   `json:"synced"`
	CRMLeadID string `json:"crmLeadId,omitempty"`
	// CRMAction is "insert" or "update" as reported by Zoho.
	CRMAction     string `json:"crmAction,omitempty"`
	CRMStatus     string `json:"crmStatus,omitempty"`
	SkippedReason string `json:"skippedReason,omitempty"`
}
