// internal/workers/crm/sync-crm-lead/handler.go
package synccrmlead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/common/zoho"
	"counsel-workers/internal/store"
)

const TaskType = "sync-crm-lead"

var (
	ErrMissingCaseID = errors.New("MISSING_CASE_ID")
	ErrCRMSyncFailed = errors.New("CRM_SYNC_FAILED")
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	crm        *zoho.CRMClient
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

// NewHandler builds the CRM sync worker. With a nil crm every job completes
// with synced=false so the process does not stall while Zoho is disabled.
func NewHandler(config *Config, cases *store.CaseStore, crm *zoho.CRMClient, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
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
		h.errHandler.HandleJobError(ctx, client, job, standardError(input.CaseID, err))
		return
	}

	h.completeJob(client, job, output)
}

func standardError(caseID string, err error) error {
	switch {
	case errors.Is(err, ErrMissingCaseID):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, ErrCRMSyncFailed):
		return apperrors.NewCRMSyncFailedError(err)
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("sync crm lead", err)
	default:
		return err
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CaseID == "" {
		return nil, fmt.Errorf("%w: caseId is required", ErrMissingCaseID)
	}
	if h.crm == nil {
		return &Output{CaseID: input.CaseID, SkippedReason: "crm integration disabled"}, nil
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	if input.LeadStatus != "" {
		c.LeadStatus = input.LeadStatus
	}
	if input.LeadScore != nil {
		c.LeadScore = input.LeadScore
	}

	lead := zoho.LeadFromCase(c, h.config.LeadSource)
	res, err := h.crm.UpsertLead(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCRMSyncFailed, err)
	}

	h.logger.Info("crm lead synced", map[string]interface{}{
		"caseId":    c.ID,
		"crmLeadId": res.ID,
		"action":    res.Action,
	})
	return &Output{
		CaseID:    c.ID,
		Synced:    true,
		CRMLeadID: res.ID,
		CRMAction: res.Action,
		CRMStatus: lead.Status,
	}, nil
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
		"synced": output.Synced,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
