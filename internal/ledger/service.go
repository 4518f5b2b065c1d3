package ledger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ferretmix/ferretmix/internal/ledger/ingest"
)

// ServiceRepository abstracts persistence for the ledger service.
type ServiceRepository interface {
	SaveBatch(ctx context.Context, upload Upload, facts []Fact) error
	ListUploads(ctx context.Context) ([]Upload, error)
	Companies(ctx context.Context) ([]string, error)
	Periods(ctx context.Context, company string) ([]time.Time, error)
	GLCodes(ctx context.Context, uploadID uuid.UUID, dataType DataType) ([]GLBalance, error)
	DeleteByCompanyPeriod(ctx context.Context, company string, periodEnd time.Time) error
}

// Service ingests trial balance exports and manages upload batches.
type Service struct {
	repo   ServiceRepository
	logger *slog.Logger
}

// NewService constructs a ledger service.
func NewService(repo ServiceRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// IngestInput carries one trial balance export to load.
type IngestInput struct {
	Reader    io.Reader
	Filename  string
	Company   string
	PeriodEnd time.Time
	DataType  DataType
}

// IngestResult summarises a completed ingestion.
type IngestResult struct {
	UploadID      uuid.UUID `json:"upload_id"`
	RowsProcessed int       `json:"rows_processed"`
	PeriodEnd     time.Time `json:"period_end_date"`
	Company       string    `json:"company"`
}

// Ingest parses the export and stores the batch atomically.
func (s *Service) Ingest(ctx context.Context, in IngestInput) (IngestResult, error) {
	if in.Company == "" {
		return IngestResult{}, fmt.Errorf("ledger: company required")
	}
	if in.PeriodEnd.IsZero() {
		return IngestResult{}, fmt.Errorf("ledger: period end date required")
	}

	rows, err := ingest.Parse(in.Reader)
	if err != nil {
		return IngestResult{}, err
	}

	uploadID := uuid.New()
	facts := make([]Fact, 0, len(rows))
	for _, row := range rows {
		facts = append(facts, Fact{
			GLCode:      row.GLCode,
			AccountName: row.AccountName,
			PeriodEnd:   in.PeriodEnd,
			Amount:      row.Amount,
			DataType:    in.DataType,
			UploadID:    uploadID,
		})
	}

	upload := Upload{
		ID:        uploadID,
		Filename:  in.Filename,
		Company:   in.Company,
		PeriodEnd: in.PeriodEnd,
		DataType:  in.DataType,
		RowCount:  len(facts),
		Status:    UploadStatusComplete,
	}
	if err := s.repo.SaveBatch(ctx, upload, facts); err != nil {
		return IngestResult{}, err
	}

	if s.logger != nil {
		s.logger.Info("trial balance ingested",
			slog.String("company", in.Company),
			slog.String("upload_id", uploadID.String()),
			slog.Int("rows", len(facts)),
			slog.String("data_type", string(in.DataType)),
		)
	}

	return IngestResult{
		UploadID:      uploadID,
		RowsProcessed: len(facts),
		PeriodEnd:     in.PeriodEnd,
		Company:       in.Company,
	}, nil
}

// Uploads lists completed upload batches.
func (s *Service) Uploads(ctx context.Context) ([]Upload, error) {
	return s.repo.ListUploads(ctx)
}

// Companies lists companies with loaded data.
func (s *Service) Companies(ctx context.Context) ([]string, error) {
	return s.repo.Companies(ctx)
}

// Periods lists the available reporting periods for a company.
func (s *Service) Periods(ctx context.Context, company string) ([]time.Time, error) {
	if company == "" {
		return nil, fmt.Errorf("ledger: company required")
	}
	return s.repo.Periods(ctx, company)
}

// GLCodes lists GL balances of one upload for the mapping tool.
func (s *Service) GLCodes(ctx context.Context, uploadID uuid.UUID, dataType DataType) ([]GLBalance, error) {
	return s.repo.GLCodes(ctx, uploadID, dataType)
}

// Delete removes a company's trial balance for one period.
func (s *Service) Delete(ctx context.Context, company string, periodEnd time.Time) error {
	if company == "" {
		return fmt.Errorf("ledger: company required")
	}
	return s.repo.DeleteByCompanyPeriod(ctx, company, periodEnd)
}
