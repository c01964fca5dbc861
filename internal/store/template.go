package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// TemplateStore defines the interface for recurring template persistence.
//
// The administrative CRUD methods mutate the whole template; the scheduler
// surface (FindDue, UpdateSchedule) reads due templates and advances only
// the generation watermarks. There is no claim/lock step in FindDue: the
// design assumes a single active scheduler process, and a multi-replica
// deployment would need to add one.
type TemplateStore interface {
	// Create saves a new recurring template to the store.
	// Returns ErrTemplateNameExists if a template with the same name exists.
	Create(ctx context.Context, template *domain.RecurringTemplate) error

	// GetByID retrieves a template by its unique ID.
	// Returns ErrTemplateNotFound if the template does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.RecurringTemplate, error)

	// List retrieves all templates, newest first.
	List(ctx context.Context) ([]*domain.RecurringTemplate, error)

	// Update replaces the administrative fields of an existing template
	// (name, cron expression, ticket fields, enabled flag). The generation
	// watermarks are not touched; those belong to UpdateSchedule.
	// Returns ErrTemplateNotFound if the template does not exist.
	Update(ctx context.Context, template *domain.RecurringTemplate) error

	// Delete removes a template from the store by its ID.
	// Returns ErrTemplateNotFound if the template does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindDue retrieves all enabled templates that are due at the given
	// instant: next_generation_at is unset or at/before now. Ordered by
	// creation time so processing order is stable across ticks.
	FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error)

	// UpdateSchedule advances a template's generation watermarks after a
	// materialization. Forward-only advancement of next_generation_at is the
	// scheduler's sole guard against re-generating on every subsequent tick.
	// Returns ErrTemplateNotFound if the template does not exist.
	UpdateSchedule(ctx context.Context, id uuid.UUID, lastGeneratedAt, nextGenerationAt time.Time) error

	// WithTx returns a new TemplateStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TemplateStore
}
