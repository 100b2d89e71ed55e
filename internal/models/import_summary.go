package models

import (
	"github.com/google/uuid"
)

// RowError records one failed import row. Row numbers are 1-based over data
// rows, the header excluded.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportSummary is the outcome of one CSV import. Partial success is the
// normal case: failed rows land in Errors, the rest are persisted.
type ImportSummary struct {
	BatchID uuid.UUID  `json:"batch_id"`
	Success int        `json:"success"`
	Total   int        `json:"total"`
	Errors  []RowError `json:"errors"`
}

// AddRowError appends a failure for the given 1-based data row
func (s *ImportSummary) AddRowError(row int, message string) {
	s.Errors = append(s.Errors, RowError{Row: row, Message: message})
}
