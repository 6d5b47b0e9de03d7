// internal/workers/notification/notify-counsellor/handler.go
package notifycounsellor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/models"
	"counsel-workers/internal/reports"
	"counsel-workers/internal/store"
)

const TaskType = "notify-counsellor"

var (
	ErrMissingCaseID = errors.New("MISSING_CASE_ID")
	ErrEmailFailed   = errors.New("EMAIL_SEND_FAILED")
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	users      *store.UserStore
	email      EmailSender
	sms        SMSSender
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler accepts nil senders; the matching channel is then skipped.
func NewHandler(config *Config, cases *store.CaseStore, users *store.UserStore, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		users:      users,
		email:      email,
		sms:        sms,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, standardError(input.CaseID, err))
		return
	}

	h.completeJob(client, job, output)
}

func standardError(caseID string, err error) error {
	switch {
	case errors.Is(err, ErrMissingCaseID):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, ErrEmailFailed):
		return apperrors.NewNotificationSendFailedError("email", err)
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("notify counsellor", err)
	default:
		return err
	}
}

// EmailSubject is prefixed with the priority so inbox rules can sort leads.
func EmailSubject(c *models.Case, priority string) string {
	if priority == "" {
		priority = "NEW"
	}
	return fmt.Sprintf("[%s] Lead %s: %s", priority, c.ID, c.StudentName)
}

func EmailBody(c *models.Case, assigneeName, priority string) string {
	var b strings.Builder
	greeting := "Team"
	if assigneeName != "" {
		greeting = assigneeName
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", greeting)
	fmt.Fprintf(&b, "Case %s needs follow-up.\n\n", c.ID)
	fmt.Fprintf(&b, "Student: %s\nPhone: %s\n", c.StudentName, c.Phone)
	if c.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", c.Email)
	}
	if len(c.Destinations) > 0 {
		fmt.Fprintf(&b, "Destinations: %s\n", strings.Join(c.Destinations, ", "))
	}
	if c.LeadStatus != "" {
		fmt.Fprintf(&b, "Lead status: %s\n", c.LeadStatus)
	}
	if priority != "" {
		fmt.Fprintf(&b, "Priority: %s\n", priority)
	}
	brief := c.CounsellorBrief
	if brief == "" {
		brief = reports.CounsellorBrief(c.Profile)
	}
	b.WriteString("\n")
	b.WriteString(brief)
	return b.String()
}

func SMSText(c *models.Case, assigneeName string) string {
	owner := "unassigned"
	if assigneeName != "" {
		owner = assigneeName
	}
	return fmt.Sprintf("HOT lead %s: %s %s (%s)", c.ID, c.StudentName, c.Phone, owner)
}

func (h *Handler) recipient(ctx context.Context, c *models.Case, input *Input) (email, name string) {
	if input.AssigneeEmail != "" {
		return input.AssigneeEmail, input.AssigneeName
	}
	owner := input.AssignedTo
	if owner == "" {
		owner = c.AssignedTo
	}
	if owner != "" {
		u, err := h.users.GetUser(ctx, owner)
		if err == nil {
			return u.Email, u.Name
		}
		h.logger.Warn("assignee lookup failed, using team inbox", map[string]interface{}{
			"error":      err,
			"assignedTo": owner,
		})
	}
	return h.config.TeamInbox, ""
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CaseID == "" {
		return nil, fmt.Errorf("%w: caseId is required", ErrMissingCaseID)
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		CaseID:         c.ID,
		SentAt:         h.now().Format(time.RFC3339),
	}

	to, name := h.recipient(ctx, c, input)
	output.Recipient = to

	if h.config.EmailEnabled && h.email != nil && to != "" {
		id, err := h.email.SendEmail(ctx, to, EmailSubject(c, input.Priority), EmailBody(c, name, input.Priority))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmailFailed, err)
		}
		output.EmailSent = true
		output.EmailMessageID = id
	}

	if input.Priority == highPriority && h.config.SMSEnabled && h.sms != nil && h.config.HotLeadPhone != "" {
		id, err := h.sms.SendSMS(ctx, h.config.HotLeadPhone, SMSText(c, name))
		if err != nil {
			h.logger.Warn("hot lead sms failed", map[string]interface{}{
				"error":  err,
				"caseId": c.ID,
			})
		} else {
			output.SMSSent = true
			output.SMSMessageID = id
		}
	}

	h.logger.Info("counsellor notified", map[string]interface{}{
		"caseId":    c.ID,
		"recipient": to,
		"emailSent": output.EmailSent,
		"smsSent":   output.SMSSent,
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":         job.Key,
		"notificationId": output.NotificationID,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
