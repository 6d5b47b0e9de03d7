// internal/workers/pipeline/update-case-status/handler.go
package updatecasestatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

const TaskType = "update-case-status"

var (
	ErrMissingCaseID = errors.New("MISSING_CASE_ID")
	ErrUnknownAction = errors.New("UNKNOWN_ACTION")
)

// transitionError carries both ends of a rejected status change.
type transitionError struct {
	from, to string
	err      error
}

func (e *transitionError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.from, e.to, e.err)
}

func (e *transitionError) Unwrap() error { return e.err }

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	users      *store.UserStore
	audit      *store.AuditLog
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, cases *store.CaseStore, users *store.UserStore, audit *store.AuditLog, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		users:      users,
		audit:      audit,
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
		h.errHandler.HandleJobError(ctx, client, job, standardError(&input, err))
		return
	}

	h.completeJob(client, job, output)
}

func standardError(input *Input, err error) error {
	var te *transitionError
	switch {
	case errors.As(err, &te):
		return apperrors.NewInvalidTransitionError(te.from, te.to)
	case errors.Is(err, ErrMissingCaseID), errors.Is(err, ErrUnknownAction):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, store.ErrForbiddenRole):
		return apperrors.NewForbiddenRoleError(input.ActorRole, string(input.Action))
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(input.CaseID)
	case errors.Is(err, store.ErrUserNotFound):
		return apperrors.NewUserNotFoundError(input.AssigneeID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("update case", err)
	case errors.Is(err, store.ErrDatabaseWriteFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	default:
		return err
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CaseID == "" {
		return nil, fmt.Errorf("%w: caseId is required", ErrMissingCaseID)
	}
	action := input.Action
	if action == "" && input.Status != "" {
		action = ActionUpdateStatus
	}
	actor := input.ActorID
	if actor == "" {
		actor = h.config.DefaultActor
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		CaseID:         c.ID,
		Action:         action,
		Status:         string(c.Status),
		PreviousStatus: string(c.Status),
		AssignedTo:     c.AssignedTo,
	}

	switch action {
	case ActionUpdateStatus:
		status := models.CaseStatus(input.Status)
		if err := h.cases.UpdateStatus(ctx, c.ID, status); err != nil {
			if errors.Is(err, store.ErrInvalidStatus) {
				return nil, &transitionError{from: string(c.Status), to: input.Status, err: err}
			}
			return nil, err
		}
		h.audit.Record(ctx, actor, models.AuditUpdateStatus, c.ID, map[string]interface{}{
			"status":   input.Status,
			"previous": string(c.Status),
		})
		output.Status = input.Status

	case ActionMarkContacted:
		if err := h.cases.MarkContacted(ctx, c.ID); err != nil {
			return nil, err
		}
		h.audit.Record(ctx, actor, models.AuditMarkContacted, c.ID, nil)

	case ActionContactAttempt:
		if err := h.cases.LogContactAttempt(ctx, c.ID); err != nil {
			return nil, err
		}
		h.audit.Record(ctx, actor, models.AuditContactAttempt, c.ID, nil)

	case ActionAssign:
		role := models.Role(input.ActorRole)
		if input.AssigneeID != "" && role.CanAssign() {
			if _, err := h.users.GetUser(ctx, input.AssigneeID); err != nil {
				return nil, err
			}
		}
		if err := h.cases.AssignCase(ctx, c.ID, role, input.AssigneeID); err != nil {
			return nil, err
		}
		var assignee interface{}
		if input.AssigneeID != "" {
			assignee = input.AssigneeID
		}
		h.audit.Record(ctx, actor, models.AuditAssignCase, c.ID, map[string]interface{}{
			"assigned_to": assignee,
		})
		output.AssignedTo = input.AssigneeID

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	output.UpdatedAt = h.now().Format(time.RFC3339)
	h.logger.Info("case updated", map[string]interface{}{
		"caseId": c.ID,
		"action": action,
		"actor":  actor,
		"status": output.Status,
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
		"jobKey": job.Key,
		"action": output.Action,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
