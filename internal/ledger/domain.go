// Package ledger stores trial balance facts grouped by upload batch.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ferretmix/ferretmix/internal/platform/httpx"
)

// DataType distinguishes the variant a fact belongs to.
type DataType string

// Supported data types.
const (
	DataTypeActual    DataType = "actual"
	DataTypeBudget    DataType = "budget"
	DataTypePriorYear DataType = "prior_year"
)

// ParseDataType validates a data type string.
func ParseDataType(value string) (DataType, error) {
	switch DataType(value) {
	case DataTypeActual, DataTypeBudget, DataTypePriorYear:
		return DataType(value), nil
	}
	return "", fmt.Errorf("unknown data type %q", value)
}

// Fact is one atomic balance contribution, immutable once ingested.
type Fact struct {
	GLCode      string    `json:"gl_code"`
	AccountName string    `json:"account_name"`
	PeriodEnd   time.Time `json:"period_end_date"`
	Amount      float64   `json:"amount"`
	DataType    DataType  `json:"data_type"`
	UploadID    uuid.UUID `json:"upload_id"`
}

// Upload statuses.
const (
	UploadStatusComplete = "complete"
	UploadStatusFailed   = "failed"
)

// Upload groups the facts of one ingestion batch.
type Upload struct {
	ID         uuid.UUID `json:"upload_id"`
	Filename   string    `json:"filename"`
	Company    string    `json:"company"`
	PeriodEnd  time.Time `json:"period_end_date"`
	DataType   DataType  `json:"data_type"`
	RowCount   int       `json:"row_count"`
	Status     string    `json:"processing_status"`
	UploadedAt time.Time `json:"upload_date"`
}

// ErrUploadNotFound indicates no upload batch matches the selection.
var ErrUploadNotFound = fmt.Errorf("ledger: upload not found: %w", httpx.ErrNotFound)
