// internal/scheduler/sweeper.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/metrics"
	"counsel-workers/internal/models"
)

const overdueKeyPrefix = "sla:overdue:"

type overdueLister interface {
	ListOverdue(ctx context.Context, now time.Time, slaHours int) ([]models.Case, error)
}

// SweepResult summarises one pass over the work queue.
type SweepResult struct {
	Overdue  int      `json:"overdue"`
	Reported int      `json:"reported"`
	CaseIDs  []string `json:"caseIds"`
}

// Sweeper finds NEW cases nobody has contacted within the SLA. Each case is
// reported once per MarkerTTL; the marker lives in Redis so replicas share it.
type Sweeper struct {
	cases     overdueLister
	cache     *database.RedisClient
	slaHours  int
	MarkerTTL time.Duration
	logger    logger.Logger
	now       func() time.Time
}

func NewSweeper(cases overdueLister, cache *database.RedisClient, slaHours int, log logger.Logger) *Sweeper {
	if slaHours <= 0 {
		slaHours = 24
	}
	return &Sweeper{
		cases:     cases,
		cache:     cache,
		slaHours:  slaHours,
		MarkerTTL: 24 * time.Hour,
		logger:    log.WithFields(map[string]interface{}{"component": "sla-sweeper"}),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// firstReport reports whether this sweep is the first to see the case
// overdue. Without a cache every sweep reports every case.
func (s *Sweeper) firstReport(ctx context.Context, caseID string) bool {
	if s.cache == nil {
		return true
	}
	ok, err := s.cache.Client.SetNX(ctx, overdueKeyPrefix+caseID, s.now().Format(time.RFC3339), s.MarkerTTL).Result()
	if err != nil {
		s.logger.Warn("overdue marker unavailable", map[string]interface{}{
			"error":  err,
			"caseId": caseID,
		})
		return true
	}
	return ok
}

func (s *Sweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	cases, err := s.cases.ListOverdue(ctx, now, s.slaHours)
	if err != nil {
		return nil, fmt.Errorf("list overdue cases: %w", err)
	}

	res := &SweepResult{Overdue: len(cases), CaseIDs: []string{}}
	for _, c := range cases {
		res.CaseIDs = append(res.CaseIDs, c.ID)
		if !s.firstReport(ctx, c.ID) {
			continue
		}
		res.Reported++
		metrics.CasesOverdue.Inc()
		s.logger.Warn("case overdue for first contact", map[string]interface{}{
			"caseId":     c.ID,
			"student":    c.StudentName,
			"assignedTo": c.AssignedTo,
			"ageHours":   int(now.Sub(c.CreatedAt).Hours()),
			"leadStatus": c.LeadStatus,
		})
	}

	s.logger.Info("sla sweep finished", map[string]interface{}{
		"overdue":  res.Overdue,
		"reported": res.Reported,
		"slaHours": s.slaHours,
	})
	return res, nil
}
