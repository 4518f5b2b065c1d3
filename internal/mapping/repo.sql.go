package mapping

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists GL code mappings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a mapping repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListByReportType returns all mappings configured for a report type.
func (r *Repository) ListByReportType(ctx context.Context, reportType string) ([]Mapping, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("mapping repo not initialised")
	}
	const query = `
SELECT gl_code, report_type, line_id, sign_multiplier
FROM gl_report_mapping
WHERE report_type = $1
ORDER BY gl_code`
	rows, err := r.pool.Query(ctx, query, reportType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var mappings []Mapping
	for rows.Next() {
		var m Mapping
		if err := rows.Scan(&m.GLCode, &m.ReportType, &m.LineID, &m.SignMultiplier); err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// Upsert saves a mapping, replacing the line and sign when the
// (gl_code, report_type) pair already exists.
func (r *Repository) Upsert(ctx context.Context, m Mapping) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("mapping repo not initialised")
	}
	const query = `
INSERT INTO gl_report_mapping (gl_code, report_type, line_id, sign_multiplier)
VALUES ($1, $2, $3, $4)
ON CONFLICT (gl_code, report_type)
DO UPDATE SET line_id = EXCLUDED.line_id, sign_multiplier = EXCLUDED.sign_multiplier`
	_, err := r.pool.Exec(ctx, query, m.GLCode, m.ReportType, m.LineID, m.SignMultiplier)
	return err
}

// Delete removes a mapping.
func (r *Repository) Delete(ctx context.Context, glCode, reportType string) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("mapping repo not initialised")
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM gl_report_mapping WHERE gl_code = $1 AND report_type = $2`, glCode, reportType)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMappingNotFound
	}
	return nil
}

// Get fetches one mapping row.
func (r *Repository) Get(ctx context.Context, glCode, reportType string) (Mapping, error) {
	var m Mapping
	if r == nil || r.pool == nil {
		return m, fmt.Errorf("mapping repo not initialised")
	}
	const query = `
SELECT gl_code, report_type, line_id, sign_multiplier
FROM gl_report_mapping
WHERE gl_code = $1 AND report_type = $2`
	err := r.pool.QueryRow(ctx, query, glCode, reportType).Scan(&m.GLCode, &m.ReportType, &m.LineID, &m.SignMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return m, ErrMappingNotFound
	}
	return m, err
}

// UnmappedCode describes a ledger GL code with no mapping for a report type.
type UnmappedCode struct {
	GLCode      string `json:"gl_code"`
	AccountName string `json:"account_name"`
}

// UnmappedCodes lists distinct ledger GL codes that have no mapping for the
// given report type. Used by the data-quality scan, never by report builds.
func (r *Repository) UnmappedCodes(ctx context.Context, reportType string) ([]UnmappedCode, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("mapping repo not initialised")
	}
	const query = `
SELECT DISTINCT tbd.gl_code, MIN(tbd.account_name)
FROM trial_balance_data tbd
WHERE NOT EXISTS (
    SELECT 1 FROM gl_report_mapping grm
    WHERE grm.gl_code = tbd.gl_code AND grm.report_type = $1
)
GROUP BY tbd.gl_code
ORDER BY tbd.gl_code`
	rows, err := r.pool.Query(ctx, query, reportType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []UnmappedCode
	for rows.Next() {
		var c UnmappedCode
		if err := rows.Scan(&c.GLCode, &c.AccountName); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
