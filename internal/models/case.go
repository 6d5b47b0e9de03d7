// internal/models/case.go
package models

import "time"

// CaseStatus is the pipeline stage of a lead.
type CaseStatus string

const (
	CaseNew           CaseStatus = "NEW"
	CaseContacted     CaseStatus = "CONTACTED"
	CaseMeetingBooked CaseStatus = "MEETING_BOOKED"
	CaseApplied       CaseStatus = "APPLIED"
	CaseWon           CaseStatus = "WON"
	CaseLost          CaseStatus = "LOST"
)

// CaseStatuses lists statuses in work-queue priority order.
var CaseStatuses = []CaseStatus{CaseNew, CaseContacted, CaseMeetingBooked, CaseApplied, CaseWon, CaseLost}

// Priority returns the status position in the work queue; unknown statuses sort last.
func (s CaseStatus) Priority() int {
	for i, st := range CaseStatuses {
		if st == s {
			return i
		}
	}
	return 99
}

func (s CaseStatus) Valid() bool {
	return s.Priority() != 99
}

// Case is a lead as stored in the cases table.
type Case struct {
	ID                   string         `json:"caseId"`
	CreatedAt            time.Time      `json:"createdAt"`
	Status               CaseStatus     `json:"status"`
	StudentName          string         `json:"studentName"`
	Phone                string         `json:"phone"`
	Email                string         `json:"email"`
	Destinations         []string       `json:"destinations"`
	AnnualBudget         OptFloat       `json:"annualBudget"`
	Savings              OptFloat       `json:"savings"`
	CashBuffer           OptFloat       `json:"cashBuffer"`
	Profile              StudentProfile `json:"profile"`
	CounsellorBrief      string         `json:"counsellorBrief,omitempty"`
	FullReport           string         `json:"fullReport,omitempty"`
	FullReportUpdatedAt  *time.Time     `json:"fullReportUpdatedAt,omitempty"`
	AssignedTo           string         `json:"assignedTo,omitempty"`
	FirstContactedAt     *time.Time     `json:"firstContactedAt,omitempty"`
	LastContactAttemptAt *time.Time     `json:"lastContactAttemptAt,omitempty"`
	NextFollowupAt       *time.Time     `json:"nextFollowupAt,omitempty"`
	LastUpdatedAt        *time.Time     `json:"lastUpdatedAt,omitempty"`
	LeadStatus           string         `json:"leadStatus,omitempty"`
	LeadScore            *int           `json:"leadScore,omitempty"`
}

// AgeTag buckets time since creation: green under 6h, amber under 24h, red otherwise.
func (c Case) AgeTag(now time.Time) string {
	age := now.Sub(c.CreatedAt)
	switch {
	case age < 6*time.Hour:
		return "green"
	case age < 24*time.Hour:
		return "amber"
	default:
		return "red"
	}
}

// CaseFilter narrows ListCases. Zero values mean no restriction.
type CaseFilter struct {
	Status         CaseStatus
	AssignedTo     string
	UnassignedOnly bool
	Destination    string
}

// AuditAction names an audited event.
type AuditAction string

const (
	AuditNewCase        AuditAction = "NEW_CASE"
	AuditViewCase       AuditAction = "VIEW_CASE"
	AuditUpdateStatus   AuditAction = "UPDATE_STATUS"
	AuditAssignCase     AuditAction = "ASSIGN_CASE"
	AuditGenerateReport AuditAction = "GENERATE_REPORT"
	AuditLogin          AuditAction = "LOGIN"
	AuditContactAttempt AuditAction = "CONTACT_ATTEMPT"
	AuditMarkContacted  AuditAction = "MARK_CONTACTED"
	AuditScoreLead      AuditAction = "SCORE_LEAD"
)

// AuditEntry is one row of audit_log.
type AuditEntry struct {
	Timestamp time.Time              `json:"ts"`
	UserID    string                 `json:"userId,omitempty"`
	Action    AuditAction            `json:"action"`
	CaseID    string                 `json:"caseId,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
