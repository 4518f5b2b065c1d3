// Package http exposes trial balance uploads and lookups as a JSON API.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ferretmix/ferretmix/internal/ledger"
	"github.com/ferretmix/ferretmix/internal/platform/cache"
	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// Handler wires HTTP interactions for trial balance data.
type Handler struct {
	logger         *slog.Logger
	service        *ledger.Service
	cache          *cache.Versioned
	validator      *validator.Validate
	maxUploadBytes int64
	rateLimit      func(http.Handler) http.Handler
}

// NewHandler constructs a ledger handler. maxUploadBytes caps the accepted
// multipart body size.
func NewHandler(logger *slog.Logger, service *ledger.Service, cache *cache.Versioned, maxUploadBytes int64) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("ledger handler: service required")
	}
	limiter := httprate.Limit(12, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	return &Handler{
		logger:         logger,
		service:        service,
		cache:          cache,
		validator:      validator.New(),
		maxUploadBytes: maxUploadBytes,
		rateLimit:      limiter,
	}, nil
}

// MountRoutes registers the trial balance endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/uploads", h.HandleUpload)
	})
	r.Get("/uploads", h.HandleListUploads)
	r.Get("/uploads/{uploadID}/gl-codes", h.HandleGLCodes)
	r.Get("/companies", h.HandleCompanies)
	r.Get("/periods", h.HandlePeriods)
	r.Delete("/trial-balance", h.HandleDelete)
}

type uploadForm struct {
	Company  string `validate:"required,max=120"`
	Period   string `validate:"required"`
	DataType string `validate:"required"`
}

// HandleUpload ingests one trial balance CSV export.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Upload Too Large", "multipart body exceeds the configured limit")
		return
	}

	form := uploadForm{
		Company:  strings.TrimSpace(r.PostFormValue("company")),
		Period:   strings.TrimSpace(r.PostFormValue("period_end_date")),
		DataType: strings.TrimSpace(r.PostFormValue("data_type")),
	}
	if form.DataType == "" {
		form.DataType = string(ledger.DataTypeActual)
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, validationDetail(err)))
		return
	}

	periodEnd, err := shared.ParsePeriodEnd(form.Period)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: period_end_date must be %s", httpx.ErrValidation, shared.PeriodEndLayout))
		return
	}
	dataType, err := ledger.ParseDataType(form.DataType)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: file is required", httpx.ErrValidation))
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.service.Ingest(r.Context(), ledger.IngestInput{
		Reader:    file,
		Filename:  header.Filename,
		Company:   form.Company,
		PeriodEnd: periodEnd,
		DataType:  dataType,
	})
	if err != nil {
		h.logger.Error("trial balance upload failed",
			slog.String("company", form.Company),
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		httpx.RespondError(w, err)
		return
	}

	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("report cache bump failed", slog.String("error", err.Error()))
	}

	httpx.JSON(w, http.StatusCreated, result)
}

// HandleListUploads lists completed upload batches.
func (h *Handler) HandleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.service.Uploads(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"uploads": uploads})
}

// HandleGLCodes lists the GL balances of one upload for the mapping tool.
func (h *Handler) HandleGLCodes(w http.ResponseWriter, r *http.Request) {
	uploadID, err := uuid.Parse(chi.URLParam(r, "uploadID"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: upload id must be a uuid", httpx.ErrValidation))
		return
	}
	dataType := ledger.DataTypeActual
	if raw := strings.TrimSpace(r.URL.Query().Get("data_type")); raw != "" {
		dataType, err = ledger.ParseDataType(raw)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err))
			return
		}
	}
	balances, err := h.service.GLCodes(r.Context(), uploadID, dataType)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"gl_codes": balances})
}

// HandleCompanies lists companies with loaded data.
func (h *Handler) HandleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.Companies(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"companies": companies})
}

// HandlePeriods lists the available reporting periods for a company.
func (h *Handler) HandlePeriods(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		httpx.RespondError(w, fmt.Errorf("%w: company is required", httpx.ErrValidation))
		return
	}
	periods, err := h.service.Periods(r.Context(), company)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Format(shared.PeriodEndLayout))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"company": company, "periods": out})
}

// HandleDelete removes a company's trial balance for one period.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	periodRaw := strings.TrimSpace(r.URL.Query().Get("period"))
	if company == "" || periodRaw == "" {
		httpx.RespondError(w, fmt.Errorf("%w: company and period are required", httpx.ErrValidation))
		return
	}
	periodEnd, err := shared.ParsePeriodEnd(periodRaw)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: period must be %s", httpx.ErrValidation, shared.PeriodEndLayout))
		return
	}

	if err := h.service.Delete(r.Context(), company, periodEnd); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("report cache bump failed", slog.String("error", err.Error()))
	}

	h.logger.Info("trial balance deleted",
		slog.String("company", company),
		slog.String("period", periodRaw),
	)
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "company": company, "period": periodRaw})
}

func validationDetail(err error) string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return strings.Join(parts, "; ")
}
