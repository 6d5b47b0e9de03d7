// internal/workers/notification/notify-counsellor/handler_test.go
package notifycounsellor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
	"counsel-workers/internal/store/storetest"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

func testConfig() *Config {
	cfg := LoadConfig()
	cfg.SMSEnabled = true
	cfg.TeamInbox = "counsellors@counsel.local"
	cfg.HotLeadPhone = "+61400000000"
	return cfg
}

func newTestHandler(t *testing.T, cfg *Config, email EmailSender, sms SMSSender) (*Handler, sqlmock.Sqlmock) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	h := NewHandler(cfg, store.NewCaseStore(db, log), store.NewUserStore(db, log), email, sms, log)
	h.now = func() time.Time { return fixedNow }
	return h, dbMock
}

func hotCase() models.Case {
	return models.Case{
		ID: "CASE0001", StudentName: "Ana", Phone: "+84 90 123", Email: "ana@example.com",
		Destinations: []string{"Australia"}, LeadStatus: "HOT", CounsellorBrief: "## Brief\nready",
	}
}

func TestHandler_Execute_HotLeadEmailAndSMS(t *testing.T) {
	email, sms := &mockEmail{}, &mockSMS{}
	h, dbMock := newTestHandler(t, testConfig(), email, sms)

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(hotCase()))
	email.On("SendEmail", mock.Anything, "binh@counsel.local", "[HIGH] Lead CASE0001: Ana",
		mock.MatchedBy(func(body string) bool {
			return assert.Contains(t, body, "Hi Binh") && assert.Contains(t, body, "## Brief")
		})).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, "+61400000000", "HOT lead CASE0001: Ana +84 90 123 (Binh)").
		Return("sns-1", nil)

	out, err := h.Execute(context.Background(), &Input{
		CaseID: "CASE0001", Priority: "HIGH",
		AssigneeName: "Binh", AssigneeEmail: "binh@counsel.local",
	})

	require.NoError(t, err)
	assert.True(t, out.EmailSent)
	assert.Equal(t, "ses-1", out.EmailMessageID)
	assert.True(t, out.SMSSent)
	assert.Equal(t, "sns-1", out.SMSMessageID)
	assert.Equal(t, "2026-03-01T10:00:00Z", out.SentAt)
	assert.NotEmpty(t, out.NotificationID)
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestHandler_Execute_LooksUpCaseOwner(t *testing.T) {
	email, sms := &mockEmail{}, &mockSMS{}
	h, dbMock := newTestHandler(t, testConfig(), email, sms)

	c := hotCase()
	c.AssignedTo = "AGENT002"
	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(c))
	dbMock.ExpectQuery(`FROM users WHERE user_id`).WithArgs("AGENT002").
		WillReturnRows(storetest.UserRows(models.StaffUser{
			ID: "AGENT002", Name: "Binh", Email: "binh@counsel.local", Role: models.RoleAgent, Active: true,
		}))
	email.On("SendEmail", mock.Anything, "binh@counsel.local", "[MEDIUM] Lead CASE0001: Ana", mock.Anything).
		Return("ses-2", nil)

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", Priority: "MEDIUM"})

	require.NoError(t, err)
	assert.Equal(t, "binh@counsel.local", out.Recipient)
	assert.False(t, out.SMSSent)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
	email.AssertExpectations(t)
}

func TestHandler_Execute_UnassignedGoesToTeamInbox(t *testing.T) {
	email := &mockEmail{}
	h, dbMock := newTestHandler(t, testConfig(), email, nil)

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(hotCase()))
	email.On("SendEmail", mock.Anything, "counsellors@counsel.local", mock.Anything,
		mock.MatchedBy(func(body string) bool { return assert.Contains(t, body, "Hi Team") })).
		Return("ses-3", nil)

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", Priority: "HIGH"})

	require.NoError(t, err)
	assert.Equal(t, "counsellors@counsel.local", out.Recipient)
	assert.True(t, out.EmailSent)
	assert.False(t, out.SMSSent)
}

func TestHandler_Execute_EmailFailureIsRetryable(t *testing.T) {
	email := &mockEmail{}
	h, dbMock := newTestHandler(t, testConfig(), email, nil)

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(hotCase()))
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("throttled"))

	_, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", AssigneeEmail: "binh@counsel.local"})

	assert.ErrorIs(t, err, ErrEmailFailed)
	assert.ErrorContains(t, standardError("CASE0001", err), "NOTIFICATION_SEND_FAILED")
}

func TestHandler_Execute_SMSFailureDoesNotFailJob(t *testing.T) {
	email, sms := &mockEmail{}, &mockSMS{}
	h, dbMock := newTestHandler(t, testConfig(), email, sms)

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(hotCase()))
	email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-4", nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("opted out"))

	out, err := h.Execute(context.Background(), &Input{
		CaseID: "CASE0001", Priority: "HIGH", AssigneeEmail: "binh@counsel.local",
	})

	require.NoError(t, err)
	assert.True(t, out.EmailSent)
	assert.False(t, out.SMSSent)
}

func TestHandler_Execute_ChannelsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	email, sms := &mockEmail{}, &mockSMS{}
	h, dbMock := newTestHandler(t, cfg, email, sms)

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("CASE0001").
		WillReturnRows(storetest.CaseRows(hotCase()))

	out, err := h.Execute(context.Background(), &Input{CaseID: "CASE0001", Priority: "HIGH", AssigneeEmail: "x@y.z"})

	require.NoError(t, err)
	assert.False(t, out.EmailSent)
	assert.False(t, out.SMSSent)
	email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, dbMock := newTestHandler(t, testConfig(), nil, nil)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorContains(t, standardError("", err), "VALIDATION_FAILED")

	dbMock.ExpectQuery(`FROM cases WHERE case_id`).WithArgs("MISSING1").
		WillReturnRows(sqlmock.NewRows(storetest.CaseColumns))
	_, err = h.Execute(context.Background(), &Input{CaseID: "MISSING1"})
	assert.ErrorContains(t, standardError("MISSING1", err), "CASE_NOT_FOUND")
}

func TestEmailBody_FallsBackToGeneratedBrief(t *testing.T) {
	c := &models.Case{
		ID: "CASE0009", StudentName: "Minh", Phone: "1",
		Profile: models.StudentProfile{StudentName: "Minh", Phone: "1"},
	}
	body := EmailBody(c, "", "")

	assert.Contains(t, body, "Hi Team")
	assert.Contains(t, body, "Case CASE0009 needs follow-up.")
	assert.NotContains(t, body, "Priority:")
	assert.Contains(t, body, "Minh")
	assert.Equal(t, "[NEW] Lead CASE0009: Minh", EmailSubject(c, ""))
}
