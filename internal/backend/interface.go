package backend

import (
	"context"

	"it10bb/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the export writer and optional cleanup function. Writer
// is nil for the none backend.
type Result struct {
	Writer  sheets.BreakdownWriter
	Cleanup CleanupFunc
}

// Factory creates export backends based on configuration
type Factory interface {
	// CreateExporter creates a breakdown writer for the provided config
	CreateExporter(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for export backend creation
type Config struct {
	Type Type

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string
	CredentialsJSON     string
	CredentialsFile     string
}

// Type names an export backend
type Type string

const (
	NoneBackend   Type = "none"
	SheetsBackend Type = "sheets"
	MemoryBackend Type = "memory"
)

// IsValid checks if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case NoneBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// String returns the string representation of the backend type
func (t Type) String() string {
	return string(t)
}
