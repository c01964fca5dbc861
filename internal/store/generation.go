package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// GenerationLogStore defines the interface for the append-only generation
// audit trail. Records are never updated or deleted by application code;
// they persist even when the ticket they reference is later removed.
type GenerationLogStore interface {
	// Append durably adds a generation record.
	Append(ctx context.Context, record *domain.GenerationRecord) error

	// ListByTemplate retrieves all records for a template, newest first.
	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*domain.GenerationRecord, error)

	// WithTx returns a new GenerationLogStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) GenerationLogStore
}
