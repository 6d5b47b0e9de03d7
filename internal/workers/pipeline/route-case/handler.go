// internal/workers/pipeline/route-case/handler.go
package routecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"counsel-workers/internal/common/database"
	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/engine/leadscore"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

const (
	TaskType = "route-case"

	// systemActor is the role routing acts with when it assigns a case.
	systemActor = models.RoleManager
	systemUser  = "system:router"
)

var (
	ErrMissingCaseID     = errors.New("MISSING_CASE_ID")
	ErrNoAgentsAvailable = errors.New("NO_AGENTS_AVAILABLE")
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	users      *store.UserStore
	audit      *store.AuditLog
	cache      *database.RedisClient
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, cases *store.CaseStore, users *store.UserStore, audit *store.AuditLog, cache *database.RedisClient, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		users:      users,
		audit:      audit,
		cache:      cache,
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
	case errors.Is(err, ErrNoAgentsAvailable):
		return apperrors.NewNoAgentsAvailableError()
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("route case", err)
	case errors.Is(err, store.ErrDatabaseWriteFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	default:
		return err
	}
}

// PriorityFor maps a lead status to a routing tier. Unscored leads are
// treated as MEDIUM until the qualification interview happens.
func PriorityFor(leadStatus string) string {
	if leadStatus == "" {
		return PriorityMedium
	}
	switch leadscore.Status(leadStatus).Tier() {
	case leadscore.StatusHot:
		return PriorityHigh
	case leadscore.StatusWarm:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// nextAgent picks agents in turn using a shared Redis counter so every
// worker replica continues the same rotation.
func (h *Handler) nextAgent(ctx context.Context, agents []models.StaffUser) models.StaffUser {
	if h.cache == nil {
		return agents[0]
	}
	n, err := h.cache.Client.Incr(ctx, h.config.CounterKey).Result()
	if err != nil {
		h.logger.Warn("round robin counter unavailable, using first agent", map[string]interface{}{
			"error": err,
		})
		return agents[0]
	}
	return agents[int((n-1)%int64(len(agents)))]
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CaseID == "" {
		return nil, fmt.Errorf("%w: caseId is required", ErrMissingCaseID)
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}

	leadStatus := input.LeadStatus
	if leadStatus == "" {
		leadStatus = c.LeadStatus
	}
	priority := PriorityFor(leadStatus)

	output := &Output{
		CaseID:     c.ID,
		Priority:   priority,
		AssignedTo: c.AssignedTo,
	}

	if c.AssignedTo == "" && priority == PriorityHigh {
		agents, err := h.users.ListUsers(ctx, models.RoleAgent, true)
		if err != nil {
			return nil, err
		}
		if len(agents) == 0 {
			return nil, fmt.Errorf("%w: case %s", ErrNoAgentsAvailable, c.ID)
		}
		agent := h.nextAgent(ctx, agents)
		if err := h.cases.AssignCase(ctx, c.ID, systemActor, agent.ID); err != nil {
			return nil, err
		}
		h.audit.Record(ctx, systemUser, models.AuditAssignCase, c.ID, map[string]interface{}{
			"assignee": agent.ID,
			"priority": priority,
			"auto":     true,
		})
		output.AssignedTo = agent.ID
		output.AssigneeName = agent.Name
		output.AssigneeEmail = agent.Email
		output.AutoAssigned = true
	} else if c.AssignedTo != "" {
		if u, err := h.users.GetUser(ctx, c.AssignedTo); err == nil {
			output.AssigneeName = u.Name
			output.AssigneeEmail = u.Email
		} else {
			h.logger.Warn("assignee lookup failed", map[string]interface{}{
				"error":      err,
				"assignedTo": c.AssignedTo,
			})
		}
	}

	followup := h.now().Add(h.config.FollowupSLA[priority])
	if err := h.cases.SetNextFollowup(ctx, c.ID, followup); err != nil {
		return nil, err
	}
	output.NextFollowupAt = followup.Format(time.RFC3339)

	h.logger.Info("case routed", map[string]interface{}{
		"caseId":       c.ID,
		"priority":     priority,
		"assignedTo":   output.AssignedTo,
		"autoAssigned": output.AutoAssigned,
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
		"jobKey":   job.Key,
		"priority": output.Priority,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
