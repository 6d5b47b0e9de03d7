// internal/workers/reporting/generate-report/handler_test.go
package generatereport

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel-workers/internal/catalog"
	"counsel-workers/internal/common/genai"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
	"counsel-workers/internal/store/storetest"
)

type staticSource []models.ProgramRecord

func (s staticSource) Programs(context.Context, []string) ([]models.ProgramRecord, error) {
	return s, nil
}

type fakeGenerator struct {
	content *genai.Content
	err     error
	prompts []genai.Prompt
}

func (f *fakeGenerator) Generate(_ context.Context, p genai.Prompt) (*genai.Content, error) {
	f.prompts = append(f.prompts, p)
	return f.content, f.err
}

// reportCapture records the Markdown passed to SaveFullReport.
type reportCapture struct{ value string }

func (r *reportCapture) Match(v driver.Value) bool {
	s, ok := v.(string)
	r.value = s
	return ok
}

func testCase() models.Case {
	return models.Case{
		ID:           "CASE0001",
		StudentName:  "Minh Tran",
		Phone:        "+84 90",
		Destinations: []string{"Australia"},
		Profile: models.StudentProfile{
			StudentName:  "Minh Tran",
			Phone:        "+84 90",
			Destinations: []string{"Australia"},
			MajorChoices: []string{"Business"},
			English:      "IELTS",
			Finance:      models.FinancialProfile{AnnualBudget: models.Some(55000)},
			Qualification: map[string]string{
				"q_action": "DOER",
				"q_anchor": "PRACTICAL",
			},
		},
	}
}

func testPrograms() staticSource {
	return staticSource{
		{Country: "Australia", Institution: "Harbour University", Category: "Business", ProgramName: "Master of Business",
			TuitionPerYear: 30000, LivingPerYear: 20000, DurationYears: 2},
		{Country: "Australia", Institution: "Coastal Institute", Category: "IT", ProgramName: "Master of IT",
			TuitionPerYear: 28000, LivingPerYear: 18000, DurationYears: 2},
	}
}

func newTestHandler(t *testing.T, gen genai.Generator) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	loader := catalog.NewLoader(nil, nil, testPrograms(), time.Minute, log)
	h := NewHandler(LoadConfig(), store.NewCaseStore(db, log), store.NewAuditLog(db, log), loader, gen, log)
	h.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	return h, mock
}

func expectCaseAndSave(mock sqlmock.Sqlmock, capture *reportCapture) {
	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(testCase()))
	mock.ExpectExec(`UPDATE cases SET full_report_md`).
		WithArgs(capture, sqlmock.AnyArg(), "CASE0001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "MGR01", "GENERATE_REPORT", "CASE0001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
}

func TestHandler_Execute_WithNarrative(t *testing.T) {
	gen := &fakeGenerator{content: &genai.Content{
		ExecutiveSummary: "Strong business candidate for Australia.",
		Strengths:        []string{"Clear budget"},
		Source:           genai.SourceAnthropic,
	}}
	h, mock := newTestHandler(t, gen)
	capture := &reportCapture{}
	expectCaseAndSave(mock, capture)

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", RequestedBy: "MGR01"})

	require.NoError(t, err)
	assert.Equal(t, "anthropic", out.NarrativeSource)
	assert.Equal(t, "Harbour University", out.TopInstitution)
	assert.Equal(t, 2, out.MatchCount)
	assert.Equal(t, catalog.SourcePostgres, out.CatalogSource)
	assert.Equal(t, "2026-03-02T08:00:00Z", out.GeneratedAt)
	assert.Equal(t, len(capture.value), out.ReportLength)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, capture.value, "# Internal Student Report: Minh Tran")
	assert.Contains(t, capture.value, "Strong business candidate for Australia.")
	assert.Contains(t, capture.value, "Lead score")
	assert.Contains(t, capture.value, "# STRATEGIC ROADMAP: MINH TRAN")

	require.Len(t, gen.prompts, 1)
	assert.NotEmpty(t, gen.prompts[0].Facts)
}

func TestHandler_Execute_GeneratorErrorFallsBack(t *testing.T) {
	h, mock := newTestHandler(t, &fakeGenerator{err: genai.ErrTimeout})
	capture := &reportCapture{}
	expectCaseAndSave(mock, capture)

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", RequestedBy: "MGR01"})

	require.NoError(t, err)
	assert.Equal(t, genai.SourceFallback, out.NarrativeSource)
	assert.Contains(t, capture.value, "Automated narrative unavailable")
}

func TestHandler_Execute_SkipNarrative(t *testing.T) {
	gen := &fakeGenerator{}
	h, mock := newTestHandler(t, gen)
	capture := &reportCapture{}
	expectCaseAndSave(mock, capture)

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", RequestedBy: "MGR01", SkipNarrative: true})

	require.NoError(t, err)
	assert.Equal(t, "none", out.NarrativeSource)
	assert.Empty(t, gen.prompts)
	assert.NotContains(t, capture.value, "## Executive Summary\n")
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingCaseID)

	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("NOPE0000").
		WillReturnError(errors.New("connection reset"))
	_, err = h.Execute(context.Background(), &Input{CaseID: "NOPE0000"})
	assert.ErrorIs(t, err, store.ErrQueryFailed)
	assert.ErrorContains(t, standardError("NOPE0000", err), "QUERY_EXECUTION_FAILED")
}

func TestLeadResult(t *testing.T) {
	assert.Nil(t, leadResult(models.StudentProfile{}))

	res := leadResult(testCase().Profile)
	require.NotNil(t, res)
	assert.Equal(t, 30, res.TotalScore)
}
