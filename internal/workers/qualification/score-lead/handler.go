// internal/workers/qualification/score-lead/handler.go
package scorelead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
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
	TaskType       = "score-lead"
	CacheKeyPrefix = "leadscore:"
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	audit      *store.AuditLog
	cache      *database.RedisClient
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, cases *store.CaseStore, audit *store.AuditLog, cache *database.RedisClient, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		audit:      audit,
		cache:      cache,
		errHandler: apperrors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
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

	h.completeJob(client, job, output, time.Since(start))
}

func standardError(caseID string, err error) error {
	switch {
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("get case", err)
	case errors.Is(err, store.ErrDatabaseWriteFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	default:
		return err
	}
}

// toAnswers keeps known questions and returns the keys it dropped, sorted.
func toAnswers(raw map[string]string) (leadscore.Answers, []string) {
	known := map[leadscore.Question]bool{}
	for _, q := range leadscore.Questions() {
		known[q] = true
	}
	answers := leadscore.Answers{}
	var ignored []string
	for k, v := range raw {
		q := leadscore.Question(k)
		if !known[q] {
			ignored = append(ignored, k)
			continue
		}
		answers[q] = v
	}
	sort.Strings(ignored)
	return answers, ignored
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	answers, ignored := toAnswers(input.Answers)
	result := leadscore.Score(answers)

	flags := make([]string, len(result.Flags))
	for i, f := range result.Flags {
		flags[i] = string(f)
	}
	output := &Output{
		LeadScore:   result.TotalScore,
		LeadStatus:  string(result.Status),
		LeadTier:    string(result.Status.Tier()),
		IsHotLead:   result.Status == leadscore.StatusHot,
		SubScores:   result.SubScores,
		Flags:       flags,
		Rule:        result.Rule,
		ActionPlan:  result.ActionPlan,
		Breakdown:   result.Breakdown,
		IgnoredKeys: ignored,
	}
	if input.CaseID == "" {
		metrics.LeadClassifications.WithLabelValues(output.LeadStatus).Inc()
		h.logger.Info("scored without case", map[string]interface{}{"leadStatus": output.LeadStatus})
		return output, nil
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	profile := c.Profile
	profile.Qualification = make(map[string]string, len(answers))
	for q, tag := range answers {
		profile.Qualification[string(q)] = tag
	}
	if err := h.cases.UpdateCasePayload(ctx, input.CaseID, profile); err != nil {
		return nil, err
	}
	if err := h.cases.SaveLeadScore(ctx, input.CaseID, output.LeadStatus, output.LeadScore); err != nil {
		return nil, err
	}
	metrics.LeadClassifications.WithLabelValues(output.LeadStatus).Inc()

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, CacheKeyPrefix+input.CaseID, result, h.config.CacheTTL); err != nil {
			h.logger.Warn("failed to cache score", map[string]interface{}{
				"error":  err,
				"caseId": input.CaseID,
			})
		}
	}

	h.audit.Record(ctx, input.ScoredBy, models.AuditScoreLead, input.CaseID, map[string]interface{}{
		"score":  output.LeadScore,
		"status": output.LeadStatus,
		"rule":   output.Rule,
	})

	h.logger.Info("lead scored", map[string]interface{}{
		"caseId":     input.CaseID,
		"leadScore":  output.LeadScore,
		"leadStatus": output.LeadStatus,
		"flags":      flags,
	})
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output, took time.Duration) {
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
		"jobKey":     job.Key,
		"durationMs": took.Milliseconds(),
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
