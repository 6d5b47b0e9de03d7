// internal/workers/matching/rank-programs/handler.go
package rankprograms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"counsel-workers/internal/catalog"
	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

const (
	TaskType = "rank-programs"
)

var (
	ErrMissingProfile = errors.New("MISSING_PROFILE")
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	loader     *catalog.Loader
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, cases *store.CaseStore, loader *catalog.Loader, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		cases:      cases,
		loader:     loader,
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
	case errors.Is(err, ErrMissingProfile):
		return apperrors.NewValidationError(err.Error())
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("get case", err)
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return apperrors.NewCatalogUnavailableError(err)
	default:
		return err
	}
}

// TopN applies the default and the ceiling to a requested result count.
func (c *Config) TopN(requested int) int {
	switch {
	case requested <= 0:
		return c.DefaultTopN
	case requested > c.MaxTopN:
		return c.MaxTopN
	default:
		return requested
	}
}

func (h *Handler) profileFor(ctx context.Context, input *Input) (models.StudentProfile, error) {
	if input.Profile != nil {
		return *input.Profile, nil
	}
	if input.CaseID == "" {
		return models.StudentProfile{}, fmt.Errorf("%w: caseId or profile is required", ErrMissingProfile)
	}
	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return models.StudentProfile{}, err
	}
	p := c.Profile
	if len(p.Destinations) == 0 {
		p.Destinations = c.Destinations
	}
	return p, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	profile, err := h.profileFor(ctx, input)
	if err != nil {
		return nil, err
	}

	countries := ranking.NormalizeDestinations(profile.Destinations)
	programs, source, err := h.loader.Load(ctx, countries)
	if err != nil {
		return nil, err
	}

	ranked := ranking.Rank(profile, programs)
	top := ranking.Top(ranked, h.config.TopN(input.TopN))
	metrics.ProgramRankings.Inc()

	h.logger.Info("programs ranked", map[string]interface{}{
		"caseId":        input.CaseID,
		"candidates":    len(ranked),
		"returned":      len(top),
		"catalogSource": source,
		"durationMs":    time.Since(start).Milliseconds(),
	})

	if top == nil {
		top = []models.MatchResult{}
	}
	return &Output{
		CaseID:          input.CaseID,
		Matches:         top,
		MatchCount:      len(top),
		TotalCandidates: len(ranked),
		CatalogSource:   source,
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
		"jobKey":     job.Key,
		"matchCount": output.MatchCount,
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
