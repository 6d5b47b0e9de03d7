// internal/workers/intake/create-case/handler.go
package createcase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/common/validation"
	"counsel-workers/internal/common/zoho"
	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/models"
	"counsel-workers/internal/reports"
	"counsel-workers/internal/store"
)

const (
	TaskType = "create-case"
)

var (
	ErrInvalidIntake = errors.New("VALIDATION_FAILED")
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	audit      *store.AuditLog
	crm        *zoho.CRMClient
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the intake worker. crm may be nil when the Zoho
// integration is disabled.
func NewHandler(config *Config, cases *store.CaseStore, audit *store.AuditLog, crm *zoho.CRMClient, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		audit:      audit,
		crm:        crm,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
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
		h.errHandler.HandleJobError(ctx, client, job, standardError(err))
		return
	}

	h.completeJob(client, job, output)
}

func standardError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidIntake):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, store.ErrDuplicateCase):
		return apperrors.NewDuplicateCaseError(err.Error())
	case errors.Is(err, store.ErrDatabaseWriteFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	default:
		return err
	}
}

// ValidateIntake checks the profile against the intake schema.
func ValidateIntake(profile models.StudentProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIntake, err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIntake, err)
	}
	res, err := validation.Validate(intakeSchema, doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidIntake, err)
	}
	if !res.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidIntake, res.Err())
	}
	if strings.TrimSpace(profile.StudentName) == "" || strings.TrimSpace(profile.Phone) == "" {
		return fmt.Errorf("%w: student_name and phone must not be blank", ErrInvalidIntake)
	}
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	profile := input.Profile
	profile.StudentName = strings.TrimSpace(profile.StudentName)
	profile.Phone = strings.TrimSpace(profile.Phone)

	if err := ValidateIntake(profile); err != nil {
		return nil, err
	}

	c := &models.Case{
		StudentName:     profile.StudentName,
		Phone:           profile.Phone,
		Email:           profile.Email,
		Destinations:    ranking.NormalizeDestinations(profile.Destinations),
		AnnualBudget:    profile.Finance.AnnualBudget,
		Savings:         profile.Finance.Savings,
		CashBuffer:      profile.Finance.CashBuffer,
		Profile:         profile,
		CounsellorBrief: reports.CounsellorBrief(profile),
	}
	if err := h.cases.InsertCase(ctx, c); err != nil {
		return nil, err
	}

	h.audit.Record(ctx, "", models.AuditNewCase, c.ID, map[string]interface{}{
		"source":       profile.ReferralSource,
		"destinations": c.Destinations,
	})

	output := &Output{
		CaseID:     c.ID,
		CaseStatus: string(c.Status),
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}

	if h.crm != nil {
		leadID, err := h.pushLead(ctx, c)
		if err != nil {
			h.logger.Warn("crm lead push failed", map[string]interface{}{
				"error":  err,
				"caseId": c.ID,
			})
		} else {
			output.CRMLeadID = leadID
		}
	}

	h.logger.Info("case created", map[string]interface{}{
		"caseId":       c.ID,
		"destinations": len(c.Destinations),
		"crmLeadId":    output.CRMLeadID,
	})
	return output, nil
}

func (h *Handler) pushLead(ctx context.Context, c *models.Case) (string, error) {
	res, err := h.crm.UpsertLead(ctx, zoho.LeadFromCase(c, h.config.LeadSource))
	if err != nil {
		return "", err
	}
	return res.ID, nil
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
		"jobKey": job.Key,
		"caseId": output.CaseID,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
