// internal/store/audit.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
)

// AuditLog appends to and reads from audit_log.
type AuditLog struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewAuditLog(db *sql.DB, log logger.Logger) *AuditLog {
	return &AuditLog{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "audit-log"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record writes one entry. Failures are logged and swallowed so auditing never
// blocks the action being audited.
func (a *AuditLog) Record(ctx context.Context, userID string, action models.AuditAction, caseID string, metadata map[string]interface{}) {
	meta := []byte("{}")
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			a.logger.Warn("failed to marshal audit metadata", map[string]interface{}{
				"error":  err,
				"action": string(action),
			})
		} else {
			meta = b
		}
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO audit_log (ts, user_id, action, case_id, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		a.now(), nullString(userID), string(action), nullString(caseID), meta,
	)
	if err != nil {
		a.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":  err,
			"action": string(action),
			"caseId": caseID,
		})
	}
}

// ForCase returns the latest entries for a case, newest first.
func (a *AuditLog) ForCase(ctx context.Context, caseID string, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT ts, user_id, action, metadata
		FROM audit_log
		WHERE case_id = $1
		ORDER BY ts DESC
		LIMIT $2`, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: audit for case: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e      models.AuditEntry
			userID sql.NullString
			action string
			meta   []byte
		)
		if err := rows.Scan(&e.Timestamp, &userID, &action, &meta); err != nil {
			return nil, fmt.Errorf("%w: scan audit: %v", ErrQueryFailed, err)
		}
		e.UserID = userID.String
		e.Action = models.AuditAction(action)
		e.CaseID = caseID
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Metadata)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
