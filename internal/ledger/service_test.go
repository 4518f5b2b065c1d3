package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	uploads   []Upload
	facts     []Fact
	companies []string
	periods   []time.Time
	balances  []GLBalance
	saveErr   error
	deleted   []string
}

func (m *mockRepo) SaveBatch(ctx context.Context, upload Upload, facts []Fact) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.uploads = append(m.uploads, upload)
	m.facts = append(m.facts, facts...)
	return nil
}

func (m *mockRepo) ListUploads(ctx context.Context) ([]Upload, error) {
	return m.uploads, nil
}

func (m *mockRepo) Companies(ctx context.Context) ([]string, error) {
	return m.companies, nil
}

func (m *mockRepo) Periods(ctx context.Context, company string) ([]time.Time, error) {
	return m.periods, nil
}

func (m *mockRepo) GLCodes(ctx context.Context, uploadID uuid.UUID, dataType DataType) ([]GLBalance, error) {
	return m.balances, nil
}

func (m *mockRepo) DeleteByCompanyPeriod(ctx context.Context, company string, periodEnd time.Time) error {
	m.deleted = append(m.deleted, company)
	return nil
}

func testPeriod() time.Time {
	return time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func TestIngest(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)

	csv := "GL Code,Account Name,Amount\n" +
		"4000,Sales Revenue,-1000\n" +
		"5000,Cost of Sales,400\n"

	result, err := svc.Ingest(context.Background(), IngestInput{
		Reader:    strings.NewReader(csv),
		Filename:  "tb_march.csv",
		Company:   "acme",
		PeriodEnd: testPeriod(),
		DataType:  DataTypeActual,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowsProcessed)
	assert.Equal(t, "acme", result.Company)
	assert.NotEqual(t, uuid.Nil, result.UploadID)

	require.Len(t, repo.uploads, 1)
	assert.Equal(t, UploadStatusComplete, repo.uploads[0].Status)
	assert.Equal(t, "tb_march.csv", repo.uploads[0].Filename)
	assert.Equal(t, DataTypeActual, repo.uploads[0].DataType)
	assert.Equal(t, 2, repo.uploads[0].RowCount)

	require.Len(t, repo.facts, 2)
	for _, f := range repo.facts {
		assert.Equal(t, result.UploadID, f.UploadID)
		assert.Equal(t, DataTypeActual, f.DataType)
		assert.Equal(t, testPeriod(), f.PeriodEnd)
	}
	assert.Equal(t, -1000.0, repo.facts[0].Amount)
}

func TestIngestValidatesInput(t *testing.T) {
	svc := NewService(&mockRepo{}, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Reader:    strings.NewReader("GL Code,Account Name,Amount\n"),
		Company:   "",
		PeriodEnd: testPeriod(),
	})
	require.Error(t, err)

	_, err = svc.Ingest(context.Background(), IngestInput{
		Reader:  strings.NewReader("GL Code,Account Name,Amount\n"),
		Company: "acme",
	})
	require.Error(t, err)
}

func TestIngestRejectsMalformedExport(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{
		Reader:    strings.NewReader("Just,Some,Columns\n1,2,3\n"),
		Company:   "acme",
		PeriodEnd: testPeriod(),
		DataType:  DataTypeActual,
	})
	require.Error(t, err)
	assert.Empty(t, repo.uploads)
}

func TestParseDataType(t *testing.T) {
	for _, valid := range []string{"actual", "budget", "prior_year"} {
		dt, err := ParseDataType(valid)
		require.NoError(t, err)
		assert.Equal(t, DataType(valid), dt)
	}
	_, err := ParseDataType("forecast")
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, nil)

	require.Error(t, svc.Delete(context.Background(), "", testPeriod()))
	require.NoError(t, svc.Delete(context.Background(), "acme", testPeriod()))
	assert.Equal(t, []string{"acme"}, repo.deleted)
}
