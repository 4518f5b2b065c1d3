package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/platform/cache"
)

type fakeRepo struct {
	uploads   []ledger.Upload
	facts     []ledger.Fact
	companies []string
	periods   []time.Time
	deleted   []string
}

func (f *fakeRepo) SaveBatch(ctx context.Context, upload ledger.Upload, facts []ledger.Fact) error {
	f.uploads = append(f.uploads, upload)
	f.facts = append(f.facts, facts...)
	return nil
}

func (f *fakeRepo) ListUploads(ctx context.Context) ([]ledger.Upload, error) {
	return f.uploads, nil
}

func (f *fakeRepo) Companies(ctx context.Context) ([]string, error) {
	return f.companies, nil
}

func (f *fakeRepo) Periods(ctx context.Context, company string) ([]time.Time, error) {
	return f.periods, nil
}

func (f *fakeRepo) GLCodes(ctx context.Context, uploadID uuid.UUID, dataType ledger.DataType) ([]ledger.GLBalance, error) {
	return nil, nil
}

func (f *fakeRepo) DeleteByCompanyPeriod(ctx context.Context, company string, periodEnd time.Time) error {
	f.deleted = append(f.deleted, company)
	return nil
}

func newTestRouter(t *testing.T, repo *fakeRepo) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := ledger.NewService(repo, logger)
	handler, err := NewHandler(logger, service, cache.NewVersioned(nil, time.Minute), 1<<20)
	require.NoError(t, err)
	router := chi.NewRouter()
	handler.MountRoutes(router)
	return router
}

func multipartUpload(t *testing.T, fields map[string]string, filename, contents string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(t, repo)

	body, contentType := multipartUpload(t, map[string]string{
		"company":         "acme",
		"period_end_date": "2024-03-31",
		"data_type":       "actual",
	}, "tb.csv", "GL Code,Account Name,Amount\n4000,Sales,-1000\n")

	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result ledger.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.RowsProcessed)
	assert.Equal(t, "acme", result.Company)

	require.Len(t, repo.uploads, 1)
	assert.Equal(t, "tb.csv", repo.uploads[0].Filename)
}

func TestUploadDefaultsToActual(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(t, repo)

	body, contentType := multipartUpload(t, map[string]string{
		"company":         "acme",
		"period_end_date": "2024-03-31",
	}, "tb.csv", "GL Code,Account Name,Amount\n4000,Sales,-1000\n")

	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.facts, 1)
	assert.Equal(t, ledger.DataTypeActual, repo.facts[0].DataType)
}

func TestUploadRejectsBadRequests(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"missing company", map[string]string{"period_end_date": "2024-03-31"}},
		{"missing period", map[string]string{"company": "acme"}},
		{"bad period", map[string]string{"company": "acme", "period_end_date": "31-03-2024"}},
		{"bad data type", map[string]string{"company": "acme", "period_end_date": "2024-03-31", "data_type": "forecast"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tc.fields, "tb.csv", "GL Code,Account Name,Amount\n")
			req := httptest.NewRequest(http.MethodPost, "/uploads", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCompaniesAndPeriods(t *testing.T) {
	repo := &fakeRepo{
		companies: []string{"acme", "globex"},
		periods: []time.Time{
			time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	router := newTestRouter(t, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "globex")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods?company=acme", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-03-31")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/periods", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTrialBalance(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(t, repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/trial-balance?company=acme&period=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"acme"}, repo.deleted)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/trial-balance?company=acme", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGLCodesValidatesUploadID(t *testing.T) {
	router := newTestRouter(t, &fakeRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/not-a-uuid/gl-codes", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
