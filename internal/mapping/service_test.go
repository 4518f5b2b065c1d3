package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/shared"
)

type mockRepo struct {
	byType   map[string][]Mapping
	upserted []Mapping
	deleted  []string
	unmapped []UnmappedCode
}

func newMockRepo() *mockRepo {
	return &mockRepo{byType: make(map[string][]Mapping)}
}

func (m *mockRepo) ListByReportType(ctx context.Context, reportType string) ([]Mapping, error) {
	return m.byType[reportType], nil
}

func (m *mockRepo) Upsert(ctx context.Context, mapping Mapping) error {
	m.upserted = append(m.upserted, mapping)
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, glCode, reportType string) error {
	m.deleted = append(m.deleted, glCode)
	return nil
}

func (m *mockRepo) UnmappedCodes(ctx context.Context, reportType string) ([]UnmappedCode, error) {
	return m.unmapped, nil
}

func TestServiceSaveValidates(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	err := svc.Save(ctx, Mapping{GLCode: "", ReportType: shared.ReportProfitLoss, LineID: "x", SignMultiplier: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Save(ctx, Mapping{GLCode: "4000", ReportType: shared.ReportProfitLoss, LineID: "", SignMultiplier: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Save(ctx, Mapping{GLCode: "4000", ReportType: "cashflow", LineID: "x", SignMultiplier: 1})
	require.ErrorIs(t, err, shared.ErrUnknownReportType)

	err = svc.Save(ctx, Mapping{GLCode: "4000", ReportType: shared.ReportProfitLoss, LineID: "x", SignMultiplier: 2})
	require.ErrorIs(t, err, ErrInvalidSign)

	assert.Empty(t, repo.upserted)
}

func TestServiceSaveTrimsAndPersists(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	err := svc.Save(context.Background(), Mapping{
		GLCode:         " 4000 ",
		ReportType:     shared.ReportProfitLoss,
		LineID:         " sales_revenue ",
		SignMultiplier: -1,
	})
	require.NoError(t, err)

	require.Len(t, repo.upserted, 1)
	assert.Equal(t, "4000", repo.upserted[0].GLCode)
	assert.Equal(t, "sales_revenue", repo.upserted[0].LineID)
}

func TestServiceResolverFor(t *testing.T) {
	repo := newMockRepo()
	repo.byType[shared.ReportProfitLoss] = []Mapping{
		{GLCode: "4000", LineID: "sales_revenue", SignMultiplier: -1},
	}
	svc := NewService(repo)

	resolver, err := svc.ResolverFor(context.Background(), shared.ReportProfitLoss)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.Len())

	_, err = svc.ResolverFor(context.Background(), "cashflow")
	require.ErrorIs(t, err, shared.ErrUnknownReportType)
}

func TestServiceUnmapped(t *testing.T) {
	repo := newMockRepo()
	repo.unmapped = []UnmappedCode{{GLCode: "9999", AccountName: "Suspense"}}
	svc := NewService(repo)

	codes, err := svc.Unmapped(context.Background(), shared.ReportBalanceSheet)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "9999", codes[0].GLCode)
}
