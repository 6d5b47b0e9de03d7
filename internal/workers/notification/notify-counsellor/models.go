// internal/workers/notification/notify-counsellor/models.go
package notifycounsellor

const highPriority = "HIGH"

type Input struct {
	CaseID   string `json:"caseId"`
	Priority string `json:"priority,omitempty"`
	// Assignee fields are normally the outputs of route-case; when empty the
	// case owner is looked up.
	AssignedTo    string `json:"assignedTo,omitempty"`
	AssigneeName  string `json:"assigneeName,omitempty"`
	AssigneeEmail string `json:"assigneeEmail,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	CaseID         string `json:"caseId"`
	Recipient      string `json:"recipient,omitempty"`
	EmailSent      bool   `json:"emailSent"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
	SMSSent        bool   `json:"smsSent"`
	SMSMessageID   string `json:"smsMessageId,omitempty"`
	SentAt         string `json:"sentAt"` // ISO 8601
}
