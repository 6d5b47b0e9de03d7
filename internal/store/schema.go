// internal/store/schema.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrCaseNotFound        = errors.New("CASE_NOT_FOUND")
	ErrDuplicateCase       = errors.New("DUPLICATE_CASE")
	ErrInvalidStatus       = errors.New("INVALID_STATUS_TRANSITION")
	ErrForbiddenRole       = errors.New("FORBIDDEN_ROLE")
	ErrUserNotFound        = errors.New("USER_NOT_FOUND")
	ErrDuplicateUser       = errors.New("DUPLICATE_USER")
	ErrInvalidCredentials  = errors.New("INVALID_CREDENTIALS")
	ErrQueryFailed         = errors.New("QUERY_EXECUTION_FAILED")
	ErrDatabaseWriteFailed = errors.New("DATABASE_INSERT_FAILED")
)

// Schema creates the tables used by the case pipeline and the program catalog.
const Schema = `
CREATE TABLE IF NOT EXISTS cases (
	case_id                 TEXT PRIMARY KEY,
	created_at              TIMESTAMPTZ NOT NULL,
	status                  TEXT NOT NULL DEFAULT 'NEW',
	student_name            TEXT NOT NULL,
	phone                   TEXT NOT NULL,
	email                   TEXT,
	destination_1           TEXT,
	destination_2           TEXT,
	destination_3           TEXT,
	annual_budget           DOUBLE PRECISION,
	savings                 DOUBLE PRECISION,
	cash_buffer             DOUBLE PRECISION,
	raw_json                JSONB NOT NULL,
	counsellor_brief_md     TEXT,
	full_report_md          TEXT,
	full_report_updated_at  TIMESTAMPTZ,
	assigned_to             TEXT,
	first_contacted_at      TIMESTAMPTZ,
	last_contact_attempt_at TIMESTAMPTZ,
	next_followup_at        TIMESTAMPTZ,
	last_updated_at         TIMESTAMPTZ,
	lead_status             TEXT,
	lead_score              INTEGER
);
CREATE INDEX IF NOT EXISTS idx_cases_status_created ON cases (status, created_at);

CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
	id       BIGSERIAL PRIMARY KEY,
	ts       TIMESTAMPTZ NOT NULL,
	user_id  TEXT,
	action   TEXT NOT NULL,
	case_id  TEXT,
	metadata JSONB
);
CREATE INDEX IF NOT EXISTS idx_audit_case ON audit_log (case_id, ts DESC);

CREATE TABLE IF NOT EXISTS programs (
	country           TEXT NOT NULL,
	city              TEXT,
	institution       TEXT NOT NULL,
	level             TEXT,
	category          TEXT NOT NULL,
	program_name      TEXT NOT NULL,
	tuition_per_year  DOUBLE PRECISION NOT NULL,
	living_per_year   DOUBLE PRECISION NOT NULL,
	duration_years    DOUBLE PRECISION,
	intake_months     TEXT,
	ielts_min         DOUBLE PRECISION,
	gpa_min           DOUBLE PRECISION,
	visa_risk         TEXT,
	scholarship_level TEXT,
	vibe              TEXT,
	PRIMARY KEY (institution, category, program_name)
);
`

// Migrate applies Schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// NewCaseID returns an 8-character upper-case identifier taken from a random UUID.
func NewCaseID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
