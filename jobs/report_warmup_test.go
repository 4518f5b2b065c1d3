package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretmix/ferretmix/internal/ledger"
)

type fakeLedgerRepo struct {
	companies []string
	periods   map[string][]time.Time
}

func (f *fakeLedgerRepo) SaveBatch(ctx context.Context, upload ledger.Upload, facts []ledger.Fact) error {
	return nil
}

func (f *fakeLedgerRepo) ListUploads(ctx context.Context) ([]ledger.Upload, error) { return nil, nil }

func (f *fakeLedgerRepo) Companies(ctx context.Context) ([]string, error) {
	return f.companies, nil
}

func (f *fakeLedgerRepo) Periods(ctx context.Context, company string) ([]time.Time, error) {
	return f.periods[company], nil
}

func (f *fakeLedgerRepo) GLCodes(ctx context.Context, uploadID uuid.UUID, dataType ledger.DataType) ([]ledger.GLBalance, error) {
	return nil, nil
}

func (f *fakeLedgerRepo) DeleteByCompanyPeriod(ctx context.Context, company string, periodEnd time.Time) error {
	return nil
}

func newWarmupJob(repo *fakeLedgerRepo) *ReportWarmupJob {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &ReportWarmupJob{Ledger: ledger.NewService(repo, logger), Logger: logger}
}

func TestWarmupScopesExplicitPair(t *testing.T) {
	job := newWarmupJob(&fakeLedgerRepo{})

	scopes, err := job.scopes(context.Background(), ReportWarmupPayload{
		Company:   "acme",
		PeriodEnd: "2024-03-31",
	})
	require.NoError(t, err)
	assert.Equal(t, []warmupScope{{company: "acme", period: "2024-03-31"}}, scopes)
}

func TestWarmupScopesDiscoverLatestPeriods(t *testing.T) {
	repo := &fakeLedgerRepo{
		companies: []string{"acme", "globex", "initech"},
		periods: map[string][]time.Time{
			"acme": {
				time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
				time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			},
			"globex": {
				time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	job := newWarmupJob(repo)

	scopes, err := job.scopes(context.Background(), ReportWarmupPayload{})
	require.NoError(t, err)

	// initech has no periods loaded and is skipped.
	assert.Equal(t, []warmupScope{
		{company: "acme", period: "2024-03-31"},
		{company: "globex", period: "2023-12-31"},
	}, scopes)
}

func TestWarmupScopesCompanyOnly(t *testing.T) {
	repo := &fakeLedgerRepo{
		periods: map[string][]time.Time{
			"acme": {time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)},
		},
	}
	job := newWarmupJob(repo)

	scopes, err := job.scopes(context.Background(), ReportWarmupPayload{Company: "acme"})
	require.NoError(t, err)
	assert.Equal(t, []warmupScope{{company: "acme", period: "2024-01-31"}}, scopes)
}
