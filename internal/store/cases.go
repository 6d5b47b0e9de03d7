// internal/store/cases.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
)

const caseColumns = `case_id, created_at, status, student_name, phone, email,
	destination_1, destination_2, destination_3, annual_budget, savings, cash_buffer,
	raw_json, counsellor_brief_md, full_report_md, full_report_updated_at, assigned_to,
	first_contacted_at, last_contact_attempt_at, next_followup_at, last_updated_at,
	lead_status, lead_score`

// CaseStore persists leads in the cases table.
type CaseStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewCaseStore(db *sql.DB, log logger.Logger) *CaseStore {
	return &CaseStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "case-store"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// InsertCase stores a new case built from an intake profile. ID and CreatedAt
// are assigned when empty; at most three destinations are kept.
func (s *CaseStore) InsertCase(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		c.ID = NewCaseID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.Status == "" {
		c.Status = models.CaseNew
	}

	raw, err := json.Marshal(c.Profile)
	if err != nil {
		return fmt.Errorf("%w: marshal profile: %v", ErrDatabaseWriteFailed, err)
	}

	dest := make([]sql.NullString, 3)
	for i := 0; i < 3 && i < len(c.Destinations); i++ {
		dest[i] = nullString(c.Destinations[i])
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (
			case_id, created_at, status, student_name, phone, email,
			destination_1, destination_2, destination_3,
			annual_budget, savings, cash_buffer, raw_json, counsellor_brief_md
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.CreatedAt, string(c.Status), c.StudentName, c.Phone, nullString(c.Email),
		dest[0], dest[1], dest[2],
		c.AnnualBudget.OrNil(), c.Savings.OrNil(), c.CashBuffer.OrNil(),
		raw, c.CounsellorBrief,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCase, c.ID)
		}
		return fmt.Errorf("%w: insert case: %v", ErrDatabaseWriteFailed, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(row rowScanner) (*models.Case, error) {
	var (
		c                                        models.Case
		status                                   string
		email, d1, d2, d3, brief, report, assign sql.NullString
		leadStatus                               sql.NullString
		budget, savings, buffer                  sql.NullFloat64
		raw                                      []byte
		reportAt, firstAt, attemptAt             sql.NullTime
		followupAt, updatedAt                    sql.NullTime
		leadScore                                sql.NullInt64
	)
	err := row.Scan(
		&c.ID, &c.CreatedAt, &status, &c.StudentName, &c.Phone, &email,
		&d1, &d2, &d3, &budget, &savings, &buffer,
		&raw, &brief, &report, &reportAt, &assign,
		&firstAt, &attemptAt, &followupAt, &updatedAt,
		&leadStatus, &leadScore,
	)
	if err != nil {
		return nil, err
	}

	c.Status = models.CaseStatus(status)
	c.Email = email.String
	for _, d := range []sql.NullString{d1, d2, d3} {
		if d.Valid && d.String != "" {
			c.Destinations = append(c.Destinations, d.String)
		}
	}
	c.AnnualBudget = optFloat(budget)
	c.Savings = optFloat(savings)
	c.CashBuffer = optFloat(buffer)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Profile); err != nil {
			return nil, fmt.Errorf("decode raw_json for %s: %w", c.ID, err)
		}
	}
	c.CounsellorBrief = brief.String
	c.FullReport = report.String
	c.FullReportUpdatedAt = timePtr(reportAt)
	c.AssignedTo = assign.String
	c.FirstContactedAt = timePtr(firstAt)
	c.LastContactAttemptAt = timePtr(attemptAt)
	c.NextFollowupAt = timePtr(followupAt)
	c.LastUpdatedAt = timePtr(updatedAt)
	c.LeadStatus = leadStatus.String
	if leadScore.Valid {
		v := int(leadScore.Int64)
		c.LeadScore = &v
	}
	return &c, nil
}

func optFloat(v sql.NullFloat64) models.OptFloat {
	if !v.Valid {
		return models.OptFloat{}
	}
	return models.Some(v.Float64)
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func (s *CaseStore) GetCase(ctx context.Context, caseID string) (*models.Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE case_id = $1`, caseID)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get case: %v", ErrQueryFailed, err)
	}
	return c, nil
}

// ListCases returns cases matching filter, newest first.
func (s *CaseStore) ListCases(ctx context.Context, filter models.CaseFilter) ([]models.Case, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.UnassignedOnly {
		where = append(where, "assigned_to IS NULL")
	} else if filter.AssignedTo != "" {
		where = append(where, "assigned_to = "+arg(filter.AssignedTo))
	}
	if filter.Destination != "" {
		p := arg(filter.Destination)
		where = append(where, fmt.Sprintf("(destination_1 = %s OR destination_2 = %s OR destination_3 = %s)", p, p, p))
	}

	query := `SELECT ` + caseColumns + ` FROM cases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryCases(ctx, query, args...)
}

func (s *CaseStore) queryCases(ctx context.Context, query string, args ...interface{}) ([]models.Case, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list cases: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan case: %v", ErrQueryFailed, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate cases: %v", ErrQueryFailed, err)
	}
	return out, nil
}

// SortWorkQueue orders cases by status priority, then oldest first.
func SortWorkQueue(cases []models.Case) {
	sort.SliceStable(cases, func(i, j int) bool {
		pi, pj := cases[i].Status.Priority(), cases[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return cases[i].CreatedAt.Before(cases[j].CreatedAt)
	})
}

func (s *CaseStore) exec(ctx context.Context, op, caseID, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseWriteFailed, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDatabaseWriteFailed, op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	return nil
}

func (s *CaseStore) UpdateStatus(ctx context.Context, caseID string, status models.CaseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, status)
	}
	return s.exec(ctx, "update status", caseID,
		`UPDATE cases SET status = $1, last_updated_at = $2 WHERE case_id = $3`,
		string(status), s.now(), caseID)
}

// AssignCase sets or clears (empty assigneeID) the case owner. Only admins
// and managers may assign.
func (s *CaseStore) AssignCase(ctx context.Context, caseID string, actor models.Role, assigneeID string) error {
	if !actor.CanAssign() {
		return fmt.Errorf("%w: role %s cannot assign cases", ErrForbiddenRole, actor)
	}
	return s.exec(ctx, "assign case", caseID,
		`UPDATE cases SET assigned_to = $1, last_updated_at = $2 WHERE case_id = $3`,
		nullString(assigneeID), s.now(), caseID)
}

// MarkContacted records a successful contact. The first contact time is
// never overwritten.
func (s *CaseStore) MarkContacted(ctx context.Context, caseID string) error {
	now := s.now()
	return s.exec(ctx, "mark contacted", caseID, `
		UPDATE cases
		SET first_contacted_at = COALESCE(first_contacted_at, $1),
		    last_contact_attempt_at = $1,
		    last_updated_at = $1
		WHERE case_id = $2`,
		now, caseID)
}

func (s *CaseStore) LogContactAttempt(ctx context.Context, caseID string) error {
	now := s.now()
	return s.exec(ctx, "log contact attempt", caseID,
		`UPDATE cases SET last_contact_attempt_at = $1, last_updated_at = $1 WHERE case_id = $2`,
		now, caseID)
}

func (s *CaseStore) SaveFullReport(ctx context.Context, caseID, reportMD string) error {
	now := s.now()
	return s.exec(ctx, "save full report", caseID,
		`UPDATE cases SET full_report_md = $1, full_report_updated_at = $2, last_updated_at = $2 WHERE case_id = $3`,
		reportMD, now, caseID)
}

// UpdateCasePayload replaces the stored intake profile, e.g. after the
// qualification interview adds answers and counsellor notes.
func (s *CaseStore) UpdateCasePayload(ctx context.Context, caseID string, profile models.StudentProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w: marshal profile: %v", ErrDatabaseWriteFailed, err)
	}
	return s.exec(ctx, "update payload", caseID,
		`UPDATE cases SET raw_json = $1, last_updated_at = $2 WHERE case_id = $3`,
		raw, s.now(), caseID)
}

func (s *CaseStore) SaveLeadScore(ctx context.Context, caseID, leadStatus string, score int) error {
	return s.exec(ctx, "save lead score", caseID,
		`UPDATE cases SET lead_status = $1, lead_score = $2, last_updated_at = $3 WHERE case_id = $4`,
		leadStatus, score, s.now(), caseID)
}

func (s *CaseStore) SetNextFollowup(ctx context.Context, caseID string, at time.Time) error {
	return s.exec(ctx, "set followup", caseID,
		`UPDATE cases SET next_followup_at = $1, last_updated_at = $2 WHERE case_id = $3`,
		at, s.now(), caseID)
}

// ListOverdue returns NEW cases older than slaHours that have never been contacted, oldest first.
func (s *CaseStore) ListOverdue(ctx context.Context, now time.Time, slaHours int) ([]models.Case, error) {
	cutoff := now.Add(-time.Duration(slaHours) * time.Hour)
	return s.queryCases(ctx, `SELECT `+caseColumns+` FROM cases
		WHERE status = $1 AND first_contacted_at IS NULL AND created_at < $2
		ORDER BY created_at ASC`,
		string(models.CaseNew), cutoff)
}
