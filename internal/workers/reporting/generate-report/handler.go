// internal/workers/reporting/generate-report/handler.go
package generatereport

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
	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/engine/leadscore"
	"counsel-workers/internal/engine/ranking"
	"counsel-workers/internal/models"
	"counsel-workers/internal/reports"
	"counsel-workers/internal/store"
)

const (
	TaskType = "generate-report"
)

var (
	ErrMissingCaseID = errors.New("MISSING_CASE_ID")
)

type Handler struct {
	config     *Config
	cases      *store.CaseStore
	audit      *store.AuditLog
	loader     *catalog.Loader
	generator  genai.Generator
	errHandler *apperrors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, cases *store.CaseStore, audit *store.AuditLog, loader *catalog.Loader, generator genai.Generator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if generator == nil {
		generator = genai.Fallback{}
	}
	return &Handler{
		config:     config,
		cases:      cases,
		audit:      audit,
		loader:     loader,
		generator:  generator,
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
	case errors.Is(err, store.ErrCaseNotFound):
		return apperrors.NewCaseNotFoundError(caseID)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewQueryExecutionFailedError("get case", err)
	case errors.Is(err, store.ErrDatabaseWriteFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return apperrors.NewCatalogUnavailableError(err)
	default:
		return err
	}
}

// leadResult rescoring is deterministic, so the stored answers reproduce the
// breakdown without caching it on the case.
func leadResult(p models.StudentProfile) *leadscore.Result {
	if len(p.Qualification) == 0 {
		return nil
	}
	answers := leadscore.Answers{}
	for q, tag := range p.Qualification {
		answers[leadscore.Question(q)] = tag
	}
	res := leadscore.Score(answers)
	return &res
}

func (h *Handler) narrative(ctx context.Context, in reports.Input) *genai.Content {
	ctx, cancel := context.WithTimeout(ctx, h.config.NarrativeTimeout)
	defer cancel()

	content, err := h.generator.Generate(ctx, reports.NarrativePrompt(in))
	if err != nil {
		h.logger.Warn("narrative generation failed, using fallback", map[string]interface{}{
			"error": err,
		})
		content, _ = genai.Fallback{}.Generate(ctx, reports.NarrativePrompt(in))
	}
	return content
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.CaseID == "" {
		return nil, fmt.Errorf("%w: caseId is required", ErrMissingCaseID)
	}

	c, err := h.cases.GetCase(ctx, input.CaseID)
	if err != nil {
		return nil, err
	}
	profile := c.Profile
	if len(profile.Destinations) == 0 {
		profile.Destinations = c.Destinations
	}

	programs, source, err := h.loader.Load(ctx, ranking.NormalizeDestinations(profile.Destinations))
	if err != nil {
		return nil, err
	}

	in := reports.Input{
		Profile: profile,
		Ranked:  ranking.Rank(profile, programs),
		Lead:    leadResult(profile),
	}

	narrativeSource := "none"
	if !input.SkipNarrative {
		in.Narrative = h.narrative(ctx, in)
		if in.Narrative != nil {
			narrativeSource = in.Narrative.Source
		}
	}

	report := reports.Full(in)
	if err := h.cases.SaveFullReport(ctx, c.ID, report); err != nil {
		return nil, err
	}

	h.audit.Record(ctx, input.RequestedBy, models.AuditGenerateReport, c.ID, map[string]interface{}{
		"matches":   len(in.Ranked),
		"narrative": narrativeSource,
	})

	output := &Output{
		CaseID:          c.ID,
		ReportLength:    len(report),
		Confidence:      reports.Confidence(profile),
		MatchCount:      len(in.Ranked),
		NarrativeSource: narrativeSource,
		CatalogSource:   source,
		GeneratedAt:     h.now().Format(time.RFC3339),
	}
	if len(in.Ranked) > 0 {
		output.TopInstitution = in.Ranked[0].Institution
	}

	h.logger.Info("report generated", map[string]interface{}{
		"caseId":    c.ID,
		"length":    output.ReportLength,
		"narrative": narrativeSource,
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
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
