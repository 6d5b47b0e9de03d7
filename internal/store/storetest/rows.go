// internal/store/storetest/rows.go

// Package storetest builds sqlmock rows shaped like the store's SELECTs so
// worker tests can stub case reads without repeating the column list.
package storetest

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"counsel-workers/internal/models"
)

var CaseColumns = []string{
	"case_id", "created_at", "status", "student_name", "phone", "email",
	"destination_1", "destination_2", "destination_3", "annual_budget", "savings", "cash_buffer",
	"raw_json", "counsellor_brief_md", "full_report_md", "full_report_updated_at", "assigned_to",
	"first_contacted_at", "last_contact_attempt_at", "next_followup_at", "last_updated_at",
	"lead_status", "lead_score",
}

var UserColumns = []string{"user_id", "name", "email", "password_hash", "role", "is_active", "created_at"}

func str(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}

func ts(t *time.Time) driver.Value {
	if t == nil {
		return nil
	}
	return *t
}

// CaseRows returns one row per case. The profile is stored as raw_json.
func CaseRows(cases ...models.Case) *sqlmock.Rows {
	rows := sqlmock.NewRows(CaseColumns)
	for _, c := range cases {
		raw, _ := json.Marshal(c.Profile)
		dest := make([]driver.Value, 3)
		for i := 0; i < 3 && i < len(c.Destinations); i++ {
			dest[i] = c.Destinations[i]
		}
		var score driver.Value
		if c.LeadScore != nil {
			score = int64(*c.LeadScore)
		}
		created := c.CreatedAt
		if created.IsZero() {
			created = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		}
		status := c.Status
		if status == "" {
			status = models.CaseNew
		}
		rows.AddRow(
			c.ID, created, string(status), c.StudentName, c.Phone, str(c.Email),
			dest[0], dest[1], dest[2], c.AnnualBudget.OrNil(), c.Savings.OrNil(), c.CashBuffer.OrNil(),
			raw, str(c.CounsellorBrief), str(c.FullReport), ts(c.FullReportUpdatedAt), str(c.AssignedTo),
			ts(c.FirstContactedAt), ts(c.LastContactAttemptAt), ts(c.NextFollowupAt), ts(c.LastUpdatedAt),
			str(c.LeadStatus), score,
		)
	}
	return rows
}

// UserRows returns one row per staff user.
func UserRows(users ...models.StaffUser) *sqlmock.Rows {
	rows := sqlmock.NewRows(UserColumns)
	for _, u := range users {
		rows.AddRow(u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Active, u.CreatedAt)
	}
	return rows
}
