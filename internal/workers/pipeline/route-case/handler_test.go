// internal/workers/pipeline/route-case/handler_test.go
package routecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"counsel-workers/internal/common/database"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
	"counsel-workers/internal/store/storetest"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func agents() []models.StaffUser {
	return []models.StaffUser{
		{ID: "AGENT001", Name: "An", Email: "an@counsel.local", Role: models.RoleAgent, Active: true, CreatedAt: fixedNow},
		{ID: "AGENT002", Name: "Binh", Email: "binh@counsel.local", Role: models.RoleAgent, Active: true, CreatedAt: fixedNow},
	}
}

func newTestHandler(t *testing.T, cache *database.RedisClient) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	h := NewHandler(LoadConfig(), store.NewCaseStore(db, log), store.NewUserStore(db, log), store.NewAuditLog(db, log), cache, log)
	h.now = func() time.Time { return fixedNow }
	return h, mock
}

func expectHotAssignment(mock sqlmock.Sqlmock, caseID, agentID string) {
	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs(caseID).
		WillReturnRows(storetest.CaseRows(models.Case{ID: caseID, StudentName: "Ana", Phone: "1", LeadStatus: "HOT"}))
	mock.ExpectQuery(`FROM users WHERE`).WithArgs("AGENT").
		WillReturnRows(storetest.UserRows(agents()...))
	mock.ExpectExec(`UPDATE cases SET assigned_to`).WithArgs(agentID, sqlmock.AnyArg(), caseID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "system:router", "ASSIGN_CASE", caseID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE cases SET next_followup_at`).
		WithArgs(fixedNow.Add(2*time.Hour), sqlmock.AnyArg(), caseID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestPriorityFor(t *testing.T) {
	tests := map[string]string{
		"":                 PriorityMedium,
		"HOT":              PriorityHigh,
		"WARM":             PriorityMedium,
		"WARM_DOWNGRADED":  PriorityMedium,
		"RISKY":            PriorityLow,
		"RISKY_DOWNGRADED": PriorityLow,
		"RISKY_COLD":       PriorityLow,
	}
	for status, want := range tests {
		assert.Equal(t, want, PriorityFor(status), status)
	}
}

func TestHandler_Execute_HotLeadsRoundRobin(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	h, mock := newTestHandler(t, cache)

	expectHotAssignment(mock, "CASE0001", "AGENT001")
	expectHotAssignment(mock, "CASE0002", "AGENT002")

	first, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001"})
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), &Input{CaseID: "CASE0002"})
	require.NoError(t, err)

	assert.Equal(t, "AGENT001", first.AssignedTo)
	assert.Equal(t, "an@counsel.local", first.AssigneeEmail)
	assert.True(t, first.AutoAssigned)
	assert.Equal(t, PriorityHigh, first.Priority)
	assert.Equal(t, "2026-03-01T12:00:00Z", first.NextFollowupAt)
	assert.Equal(t, "AGENT002", second.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())

	counter, err := mr.Get("route:agent-rr")
	require.NoError(t, err)
	assert.Equal(t, "2", counter)
}

func TestHandler_Execute_InputStatusOverridesCase(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0003").
		WillReturnRows(storetest.CaseRows(models.Case{ID: "CASE0003", StudentName: "Ana", Phone: "1"}))
	mock.ExpectQuery(`FROM users WHERE`).WithArgs("AGENT").
		WillReturnRows(storetest.UserRows(agents()...))
	mock.ExpectExec(`UPDATE cases SET assigned_to`).WithArgs("AGENT001", sqlmock.AnyArg(), "CASE0003").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE cases SET next_followup_at`).WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0003", LeadStatus: "HOT"})
	require.NoError(t, err)
	assert.Equal(t, "AGENT001", out.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_AlreadyAssigned(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0004").
		WillReturnRows(storetest.CaseRows(models.Case{
			ID: "CASE0004", StudentName: "Ana", Phone: "1", LeadStatus: "WARM", AssignedTo: "AGENT002",
		}))
	mock.ExpectQuery(`FROM users WHERE user_id`).WithArgs("AGENT002").
		WillReturnRows(storetest.UserRows(agents()[1]))
	mock.ExpectExec(`UPDATE cases SET next_followup_at`).
		WithArgs(fixedNow.Add(24*time.Hour), sqlmock.AnyArg(), "CASE0004").
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0004"})

	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, out.Priority)
	assert.Equal(t, "AGENT002", out.AssignedTo)
	assert.Equal(t, "Binh", out.AssigneeName)
	assert.False(t, out.AutoAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RiskyLeadStaysInQueue(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0005").
		WillReturnRows(storetest.CaseRows(models.Case{ID: "CASE0005", StudentName: "Ana", Phone: "1", LeadStatus: "RISKY_COLD"}))
	mock.ExpectExec(`UPDATE cases SET next_followup_at`).
		WithArgs(fixedNow.Add(72*time.Hour), sqlmock.AnyArg(), "CASE0005").
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0005"})
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, out.Priority)
	assert.Empty(t, out.AssignedTo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NoAgents(t *testing.T) {
	h, mock := newTestHandler(t, nil)

	mock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0006").
		WillReturnRows(storetest.CaseRows(models.Case{ID: "CASE0006", StudentName: "Ana", Phone: "1", LeadStatus: "HOT"}))
	mock.ExpectQuery(`FROM users WHERE`).WithArgs("AGENT").
		WillReturnRows(storetest.UserRows())

	_, err := h.Execute(context.Background(), &Input{CaseID: "CASE0006"})
	assert.ErrorIs(t, err, ErrNoAgentsAvailable)
	assert.ErrorContains(t, standardError("CASE0006", err), "NO_AGENTS_AVAILABLE")

	_, err = h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrMissingCaseID)
}

func TestNextAgent_CounterFailureUsesFirstAgent(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectIncr("route:agent-rr").SetErr(errors.New("READONLY"))

	h, _ := newTestHandler(t, &database.RedisClient{Client: client})
	got := h.nextAgent(context.Background(), agents())

	assert.Equal(t, "AGENT001", got.ID)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestNextAgent_Wraps(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	redisMock.ExpectIncr("route:agent-rr").SetVal(5)

	h, _ := newTestHandler(t, &database.RedisClient{Client: client})
	assert.Equal(t, "AGENT001", h.nextAgent(context.Background(), agents()).ID)
}
