package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/ferretmix/ferretmix/internal/platform/httpx"
	"github.com/ferretmix/ferretmix/internal/shared"
)

// ServiceRepository abstracts the persistence needed by the mapping service.
type ServiceRepository interface {
	ListByReportType(ctx context.Context, reportType string) ([]Mapping, error)
	Upsert(ctx context.Context, m Mapping) error
	Delete(ctx context.Context, glCode, reportType string) error
	UnmappedCodes(ctx context.Context, reportType string) ([]UnmappedCode, error)
}

// Service validates and persists GL code mappings and builds resolvers.
type Service struct {
	repo ServiceRepository
}

// NewService constructs a mapping service.
func NewService(repo ServiceRepository) *Service {
	return &Service{repo: repo}
}

// ResolverFor loads the mapping table for a report type into a Resolver.
func (s *Service) ResolverFor(ctx context.Context, reportType string) (*Resolver, error) {
	if err := shared.ValidateReportType(reportType); err != nil {
		return nil, err
	}
	mappings, err := s.repo.ListByReportType(ctx, reportType)
	if err != nil {
		return nil, fmt.Errorf("load mappings for %s: %w", reportType, err)
	}
	return NewResolver(mappings), nil
}

// List returns the mapping rows for a report type.
func (s *Service) List(ctx context.Context, reportType string) ([]Mapping, error) {
	if err := shared.ValidateReportType(reportType); err != nil {
		return nil, err
	}
	return s.repo.ListByReportType(ctx, reportType)
}

// Save validates and upserts a mapping.
func (s *Service) Save(ctx context.Context, m Mapping) error {
	m.GLCode = strings.TrimSpace(m.GLCode)
	m.LineID = strings.TrimSpace(m.LineID)
	if m.GLCode == "" {
		return fmt.Errorf("mapping: gl code required: %w", httpx.ErrValidation)
	}
	if m.LineID == "" {
		return fmt.Errorf("mapping: line id required: %w", httpx.ErrValidation)
	}
	if err := shared.ValidateReportType(m.ReportType); err != nil {
		return err
	}
	if m.SignMultiplier != 1 && m.SignMultiplier != -1 {
		return ErrInvalidSign
	}
	return s.repo.Upsert(ctx, m)
}

// Remove deletes a mapping.
func (s *Service) Remove(ctx context.Context, glCode, reportType string) error {
	if err := shared.ValidateReportType(reportType); err != nil {
		return err
	}
	return s.repo.Delete(ctx, strings.TrimSpace(glCode), reportType)
}

// Unmapped lists ledger GL codes without a mapping for the report type.
func (s *Service) Unmapped(ctx context.Context, reportType string) ([]UnmappedCode, error) {
	if err := shared.ValidateReportType(reportType); err != nil {
		return nil, err
	}
	return s.repo.UnmappedCodes(ctx, reportType)
}
