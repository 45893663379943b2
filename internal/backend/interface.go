// Package backend builds the storage, messaging and report adapters the
// services run on from application configuration.
package backend

import (
	"context"

	"paycycle/internal/amqp"
	"paycycle/internal/services"
	"paycycle/internal/sheets"
	"paycycle/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the wired adapters. Publisher, Broker and Reports
// are nil when the matching integration is not configured.
type BackendResult struct {
	Store     storage.Store
	Publisher services.RolloverPublisher
	Broker    *amqp.Client
	Reports   sheets.ReportWriter
	Cleanup   CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Rollover messaging, optional for every store type
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Trend report export, optional
	GoogleSpreadsheetID   string
	GoogleReportSheetName string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
