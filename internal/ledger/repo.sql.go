package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ferretmix/ferretmix/internal/platform/db"
	"github.com/ferretmix/ferretmix/internal/platform/httpx"
)

// Repository persists uploads and trial balance facts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// SaveBatch stores the upload record and its facts in one transaction.
// A second upload for the same (company, period, data type) axis conflicts.
func (r *Repository) SaveBatch(ctx context.Context, upload Upload, facts []Fact) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("ledger repo not initialised")
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const uploadQuery = `
INSERT INTO trial_balance_uploads
    (upload_id, filename, upload_date, period_end_date, data_type, processing_status, row_count, company)
VALUES ($1, $2, NOW(), $3, $4, $5, $6, $7)`
		if _, err := tx.Exec(ctx, uploadQuery,
			upload.ID, upload.Filename, upload.PeriodEnd, upload.DataType, upload.Status, upload.RowCount, upload.Company,
		); err != nil {
			return err
		}
		if len(facts) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		const factQuery = `
INSERT INTO trial_balance_data (upload_id, gl_code, account_name, period_end_date, amount, data_type)
VALUES ($1, $2, $3, $4, $5, $6)`
		for _, f := range facts {
			batch.Queue(factQuery, f.UploadID, f.GLCode, f.AccountName, f.PeriodEnd, f.Amount, f.DataType)
		}
		results := tx.SendBatch(ctx, batch)
		for range facts {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: trial balance already loaded for %s at %s",
			httpx.ErrDuplicate, upload.Company, upload.PeriodEnd.Format("2006-01-02"))
	}
	return err
}

// FactsByCompanyType returns all facts for a company and data type across
// its completed upload batches. Date filtering happens in the report core.
func (r *Repository) FactsByCompanyType(ctx context.Context, company string, dataType DataType) ([]Fact, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger repo not initialised")
	}
	const query = `
SELECT tbd.gl_code, tbd.account_name, tbd.period_end_date, tbd.amount, tbd.data_type, tbd.upload_id
FROM trial_balance_data tbd
JOIN trial_balance_uploads tbu ON tbu.upload_id = tbd.upload_id
WHERE tbu.company = $1
  AND tbu.processing_status = $2
  AND tbd.data_type = $3
ORDER BY tbd.period_end_date, tbd.gl_code`
	rows, err := r.pool.Query(ctx, query, company, UploadStatusComplete, dataType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.GLCode, &f.AccountName, &f.PeriodEnd, &f.Amount, &f.DataType, &f.UploadID); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// ListUploads returns completed uploads, newest period first.
func (r *Repository) ListUploads(ctx context.Context) ([]Upload, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger repo not initialised")
	}
	const query = `
SELECT upload_id, filename, company, period_end_date, data_type, row_count, processing_status, upload_date
FROM trial_balance_uploads
WHERE processing_status = $1
ORDER BY period_end_date DESC, upload_date DESC`
	rows, err := r.pool.Query(ctx, query, UploadStatusComplete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var uploads []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.Filename, &u.Company, &u.PeriodEnd, &u.DataType, &u.RowCount, &u.Status, &u.UploadedAt); err != nil {
			return nil, err
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// Companies lists companies with at least one completed upload.
func (r *Repository) Companies(ctx context.Context) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger repo not initialised")
	}
	const query = `
SELECT DISTINCT company
FROM trial_balance_uploads
WHERE processing_status = $1
ORDER BY company`
	rows, err := r.pool.Query(ctx, query, UploadStatusComplete)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Periods lists the distinct actual-data period end dates for a company.
func (r *Repository) Periods(ctx context.Context, company string) ([]time.Time, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger repo not initialised")
	}
	const query = `
SELECT DISTINCT tbd.period_end_date
FROM trial_balance_data tbd
JOIN trial_balance_uploads tbu ON tbu.upload_id = tbd.upload_id
WHERE tbu.company = $1
  AND tbu.processing_status = $2
  AND tbd.data_type = $3
ORDER BY tbd.period_end_date DESC`
	rows, err := r.pool.Query(ctx, query, company, UploadStatusComplete, DataTypeActual)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []time.Time
	for rows.Next() {
		var p time.Time
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// GLBalance is a GL code with its stored balance inside one upload.
type GLBalance struct {
	GLCode      string  `json:"gl_code"`
	AccountName string  `json:"account_name"`
	Amount      float64 `json:"amount"`
}

// GLCodes lists the GL codes of one upload batch for the mapping tool.
func (r *Repository) GLCodes(ctx context.Context, uploadID uuid.UUID, dataType DataType) ([]GLBalance, error) {
	if r == nil || r.pool == nil {
		return nil, fmt.Errorf("ledger repo not initialised")
	}
	const query = `
SELECT gl_code, account_name, SUM(amount)
FROM trial_balance_data
WHERE upload_id = $1 AND data_type = $2
GROUP BY gl_code, account_name
ORDER BY gl_code`
	rows, err := r.pool.Query(ctx, query, uploadID, dataType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []GLBalance
	for rows.Next() {
		var b GLBalance
		if err := rows.Scan(&b.GLCode, &b.AccountName, &b.Amount); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// DeleteByCompanyPeriod removes the upload batches and all facts for a
// company and period end date.
func (r *Repository) DeleteByCompanyPeriod(ctx context.Context, company string, periodEnd time.Time) error {
	if r == nil || r.pool == nil {
		return fmt.Errorf("ledger repo not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const find = `
SELECT upload_id FROM trial_balance_uploads
WHERE company = $1 AND period_end_date = $2`
		rows, err := tx.Query(ctx, find, company, periodEnd)
		if err != nil {
			return err
		}
		var ids []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrUploadNotFound
		}
		for _, id := range ids {
			if _, err := tx.Exec(ctx, `DELETE FROM trial_balance_data WHERE upload_id = $1`, id); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM trial_balance_uploads WHERE upload_id = $1`, id); err != nil {
				return err
			}
		}
		return nil
	})
}
