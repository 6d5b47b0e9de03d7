// internal/workers/intake/create-case/handler_test.go
package createcase

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "counsel-workers/internal/common/errors"
	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/common/zoho"
	"counsel-workers/internal/models"
	"counsel-workers/internal/store"
)

func createTestInput() *Input {
	return &Input{Profile: models.StudentProfile{
		StudentName:    "Linh Nguyen",
		Phone:          "+84 90 123 4567",
		Email:          "linh@example.com",
		ReferralSource: "Facebook",
		Destinations:   []string{"Australia", "Other", "Canada"},
		MajorChoices:   []string{"Business"},
		Finance:        models.FinancialProfile{AnnualBudget: models.Some(40000)},
	}}
}

func newTestHandler(t *testing.T, db *sql.DB, crm *zoho.CRMClient) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(), store.NewCaseStore(db, log), store.NewAuditLog(db, log), crm, log)
}

func expectInsert(mock sqlmock.Sqlmock) *sqlmock.ExpectedExec {
	args := make([]driver.Value, 14)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return mock.ExpectExec(`INSERT INTO cases`).WithArgs(args...)
}

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), nil, "NEW_CASE", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := newTestHandler(t, db, nil).Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Len(t, output.CaseID, 8)
	assert.Equal(t, "NEW", output.CaseStatus)
	assert.NotEmpty(t, output.CreatedAt)
	assert.Empty(t, output.CRMLeadID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing phone", func(in *Input) { in.Profile.Phone = "" }},
		{"blank name", func(in *Input) { in.Profile.StudentName = "   " }},
		{"too many destinations", func(in *Input) {
			in.Profile.Destinations = []string{"Australia", "Canada", "UK", "USA"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			input := createTestInput()
			tt.mutate(input)

			output, err := newTestHandler(t, db, nil).Execute(context.Background(), input)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, ErrInvalidIntake)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_DuplicateCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectInsert(mock).WillReturnError(&pq.Error{Code: "23505"})

	_, err = newTestHandler(t, db, nil).Execute(context.Background(), createTestInput())
	assert.ErrorIs(t, err, store.ErrDuplicateCase)

	var stdErr *apperrors.StandardError
	require.True(t, errors.As(standardError(err), &stdErr))
	assert.Equal(t, apperrors.ErrCodeDuplicateCase, stdErr.Code)
}

func TestHandler_Execute_PushesCRMLead(t *testing.T) {
	var lead map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Data []map[string]interface{} `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		lead = body.Data[0]
		_, _ = w.Write([]byte(`{"data":[{"status":"success","action":"insert","details":{"id":"zoho-9"}}]}`))
	}))
	defer srv.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := newTestHandler(t, db, zoho.NewCRMClient(srv.URL, "tok")).
		Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, "zoho-9", output.CRMLeadID)
	assert.Equal(t, "Linh", lead["First_Name"])
	assert.Equal(t, "Nguyen", lead["Last_Name"])
	assert.Equal(t, "Facebook", lead["Lead_Source"])
	assert.Equal(t, "Not Contacted", lead["Lead_Status"])
	assert.Equal(t, output.CaseID, lead["Case_ID"])
}

func TestHandler_Execute_CRMFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnResult(sqlmock.NewResult(1, 1))

	output, err := newTestHandler(t, db, zoho.NewCRMClient(srv.URL, "tok")).
		Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.NotEmpty(t, output.CaseID)
	assert.Empty(t, output.CRMLeadID)
}

func TestHandler_Execute_AuditFailureIsNotFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	expectInsert(mock).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).WillReturnError(errors.New("disk full"))

	output, err := newTestHandler(t, db, nil).Execute(context.Background(), createTestInput())
	require.NoError(t, err)
	assert.NotEmpty(t, output.CaseID)
}

func TestValidateIntake(t *testing.T) {
	ok := createTestInput().Profile
	assert.NoError(t, ValidateIntake(ok))

	noDest := ok
	noDest.Destinations = nil
	assert.NoError(t, ValidateIntake(noDest))

	err := ValidateIntake(models.StudentProfile{StudentName: "A"})
	assert.ErrorIs(t, err, ErrInvalidIntake)
	assert.ErrorContains(t, err, "phone")
}
