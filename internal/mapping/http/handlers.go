// Package http exposes the GL mapping table as a JSON API.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ferretmix/ferretmix/internal/mapping"
	"github.com/ferretmix/ferretmix/internal/platform/cache"
	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/report"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// Handler wires HTTP interactions for the GL mapping table.
type Handler struct {
	logger    *slog.Logger
	service   *mapping.Service
	templates report.TemplateSource
	cache     *cache.Versioned
	validator *validator.Validate
}

// NewHandler constructs a mapping handler. templates supplies the report
// line options offered as mapping targets.
func NewHandler(logger *slog.Logger, service *mapping.Service, templates report.TemplateSource, cache *cache.Versioned) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("mapping handler: service required")
	}
	if templates == nil {
		return nil, fmt.Errorf("mapping handler: template source required")
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		cache:     cache,
		validator: validator.New(),
	}, nil
}

// MountRoutes registers the mapping endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/mappings/{reportType}", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleSave)
		r.Delete("/{glCode}", h.HandleDelete)
		r.Get("/lines", h.HandleLineOptions)
		r.Get("/unmapped", h.HandleUnmapped)
	})
}

func reportTypeParam(r *http.Request) (string, error) {
	reportType := strings.TrimSpace(chi.URLParam(r, "reportType"))
	if err := shared.ValidateReportType(reportType); err != nil {
		return "", fmt.Errorf("%w: %s %q", httpx.ErrValidation, err, reportType)
	}
	return reportType, nil
}

// HandleList returns the mapping rows for a report type.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	reportType, err := reportTypeParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	mappings, err := h.service.List(r.Context(), reportType)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report_type": reportType,
		"mappings":    mappings,
	})
}

type saveForm struct {
	GLCode         string `json:"gl_code" validate:"required,max=60"`
	LineID         string `json:"line_id" validate:"required,max=120"`
	SignMultiplier int    `json:"sign_multiplier" validate:"required,oneof=1 -1"`
}

// HandleSave upserts one mapping row and invalidates cached reports.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	reportType, err := reportTypeParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form saveForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid json body", httpx.ErrValidation))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, validationDetail(err)))
		return
	}

	m := mapping.Mapping{
		GLCode:         form.GLCode,
		ReportType:     reportType,
		LineID:         form.LineID,
		SignMultiplier: form.SignMultiplier,
	}
	if err := h.service.Save(r.Context(), m); err != nil {
		if errors.Is(err, shared.ErrUnknownReportType) {
			err = fmt.Errorf("%w: %s", httpx.ErrValidation, err)
		}
		httpx.RespondError(w, err)
		return
	}

	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("report cache bump failed", slog.String("error", err.Error()))
	}

	h.logger.Info("mapping saved",
		slog.String("report_type", reportType),
		slog.String("gl_code", form.GLCode),
		slog.String("line_id", form.LineID),
		slog.Int("sign", form.SignMultiplier),
	)
	httpx.JSON(w, http.StatusOK, m)
}

// HandleDelete removes one mapping row and invalidates cached reports.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	reportType, err := reportTypeParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	glCode := strings.TrimSpace(chi.URLParam(r, "glCode"))
	if glCode == "" {
		httpx.RespondError(w, fmt.Errorf("%w: gl code is required", httpx.ErrValidation))
		return
	}
	if err := h.service.Remove(r.Context(), glCode, reportType); err != nil {
		httpx.RespondError(w, err)
		return
	}

	if err := h.cache.Bump(r.Context()); err != nil {
		h.logger.Warn("report cache bump failed", slog.String("error", err.Error()))
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "gl_code": glCode, "report_type": reportType})
}

// HandleLineOptions returns the mappable report lines of the template.
func (h *Handler) HandleLineOptions(w http.ResponseWriter, r *http.Request) {
	reportType, err := reportTypeParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tpl, err := h.templates.Load(reportType)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report_type": reportType,
		"lines":       tpl.LineOptions(),
	})
}

// HandleUnmapped lists loaded GL codes without a mapping for the report type.
func (h *Handler) HandleUnmapped(w http.ResponseWriter, r *http.Request) {
	reportType, err := reportTypeParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	codes, err := h.service.Unmapped(r.Context(), reportType)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"report_type": reportType,
		"unmapped":    codes,
	})
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
