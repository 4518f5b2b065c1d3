// Package mapping resolves general ledger codes to report lines.
package mapping

import (
	"fmt"

	"github.com/ferretmix/ferretmix/internal/platform/httpx"
)

// Mapping links a GL code to a report line for one report type.
// (gl_code, report_type) is unique; saving again replaces the target line
// and sign.
type Mapping struct {
	GLCode         string `json:"gl_code"`
	ReportType     string `json:"report_type"`
	LineID         string `json:"line_id"`
	SignMultiplier int    `json:"sign_multiplier"`
}

// LineRef is the resolved target of a GL code.
type LineRef struct {
	LineID string
	Sign   int
}

// ErrMappingNotFound indicates the requested mapping row is missing.
var ErrMappingNotFound = fmt.Errorf("mapping: not found: %w", httpx.ErrNotFound)

// ErrInvalidSign indicates a sign multiplier outside {-1, 1}.
var ErrInvalidSign = fmt.Errorf("mapping: sign multiplier must be 1 or -1: %w", httpx.ErrValidation)
