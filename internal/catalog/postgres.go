// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"counsel-workers/internal/models"
)

const programColumns = `country, city, institution, level, category, program_name,
	tuition_per_year, living_per_year, duration_years, intake_months,
	ielts_min, gpa_min, visa_risk, scholarship_level, vibe`

// PostgresRepository stores the catalog in the programs table.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert writes all records in one transaction, keyed on
// (institution, category, program_name).
func (r *PostgresRepository) Upsert(ctx context.Context, records []models.ProgramRecord) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO programs (`+programColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (institution, category, program_name) DO UPDATE SET
			country = EXCLUDED.country,
			city = EXCLUDED.city,
			level = EXCLUDED.level,
			tuition_per_year = EXCLUDED.tuition_per_year,
			living_per_year = EXCLUDED.living_per_year,
			duration_years = EXCLUDED.duration_years,
			intake_months = EXCLUDED.intake_months,
			ielts_min = EXCLUDED.ielts_min,
			gpa_min = EXCLUDED.gpa_min,
			visa_risk = EXCLUDED.visa_risk,
			scholarship_level = EXCLUDED.scholarship_level,
			vibe = EXCLUDED.vibe`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range records {
		_, err := stmt.ExecContext(ctx,
			p.Country, p.City, p.Institution, p.Level, p.Category, p.ProgramName,
			p.TuitionPerYear, p.LivingPerYear, p.DurationYears, p.IntakeMonths,
			p.IELTSMin.OrNil(), p.GPAMin.OrNil(), p.VisaRisk, p.ScholarshipLevel, p.Vibe,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("upsert %s: %w", Key(p), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// Programs returns the catalog in stable (country, institution, program)
// order, limited to countries when any are given.
func (r *PostgresRepository) Programs(ctx context.Context, countries []string) ([]models.ProgramRecord, error) {
	query := `SELECT ` + programColumns + ` FROM programs`
	var args []interface{}
	if len(countries) > 0 {
		query += ` WHERE country = ANY($1)`
		args = append(args, pq.Array(countries))
	}
	query += ` ORDER BY country, institution, program_name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query programs: %w", err)
	}
	defer rows.Close()

	var out []models.ProgramRecord
	for rows.Next() {
		var (
			p                                  models.ProgramRecord
			city, level, intake, visa, sch, vb sql.NullString
			duration, ielts, gpa               sql.NullFloat64
		)
		if err := rows.Scan(
			&p.Country, &city, &p.Institution, &level, &p.Category, &p.ProgramName,
			&p.TuitionPerYear, &p.LivingPerYear, &duration, &intake,
			&ielts, &gpa, &visa, &sch, &vb,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		p.City, p.Level, p.IntakeMonths = city.String, level.String, intake.String
		p.VisaRisk, p.ScholarshipLevel, p.Vibe = visa.String, sch.String, vb.String
		p.DurationYears = duration.Float64
		if ielts.Valid {
			p.IELTSMin = models.Some(ielts.Float64)
		}
		if gpa.Valid {
			p.GPAMin = models.Some(gpa.Float64)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
