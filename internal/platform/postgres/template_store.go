package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/platform/logger"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// templateColumns is the canonical column list shared by all template reads.
const templateColumns = `
	id, name, cron_expression, title, description, priority, assignee,
	attributes, enabled, last_generated_at, next_generation_at,
	created_at, updated_at
`

// TemplateStore implements the store.TemplateStore interface using PostgreSQL.
type TemplateStore struct {
	db store.DBTX
}

// NewTemplateStore creates a new TemplateStore.
func NewTemplateStore(db store.DBTX) *TemplateStore {
	return &TemplateStore{db: db}
}

// WithTx returns a new TemplateStore instance that uses the provided transaction.
func (s *TemplateStore) WithTx(tx *sql.Tx) store.TemplateStore {
	return &TemplateStore{db: tx}
}

// Create saves a new recurring template to the database.
// Returns store.ErrTemplateNameExists if a template with the same name exists.
func (s *TemplateStore) Create(ctx context.Context, tpl *domain.RecurringTemplate) error {
	log := logger.FromContext(ctx)

	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO recurring_templates
			(id, name, cron_expression, title, description, priority, assignee,
			 attributes, enabled, last_generated_at, next_generation_at,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.db.ExecContext(ctx, query,
		tpl.ID,
		tpl.Name,
		tpl.CronExpression,
		tpl.Fields.Title,
		tpl.Fields.Description,
		tpl.Fields.Priority,
		tpl.Fields.Assignee,
		nullJSON(tpl.Fields.Attributes),
		tpl.Enabled,
		nullTime(tpl.LastGeneratedAt),
		nullTime(tpl.NextGenerationAt),
		tpl.CreatedAt,
		tpl.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create template", "template_id", tpl.ID, "error", err)
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return store.ErrTemplateNameExists
		}
		return mapped
	}

	return nil
}

// GetByID retrieves a template by its unique ID.
// Returns store.ErrTemplateNotFound if the template does not exist.
func (s *TemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates WHERE id = $1`

	tpl, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTemplateNotFound
		}
		return nil, MapError(err)
	}
	return tpl, nil
}

// List retrieves all templates, newest first.
func (s *TemplateStore) List(ctx context.Context) ([]*domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM recurring_templates ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTemplates(rows)
}

// Update replaces the administrative fields of an existing template. The
// generation watermarks are deliberately excluded; they belong to
// UpdateSchedule and must not be clobbered by concurrent admin edits.
// Returns store.ErrTemplateNotFound if the template does not exist.
func (s *TemplateStore) Update(ctx context.Context, tpl *domain.RecurringTemplate) error {
	if err := tpl.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE recurring_templates
		SET name = $1, cron_expression = $2, title = $3, description = $4,
		    priority = $5, assignee = $6, attributes = $7, enabled = $8,
		    updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(ctx, query,
		tpl.Name,
		tpl.CronExpression,
		tpl.Fields.Title,
		tpl.Fields.Description,
		tpl.Fields.Priority,
		tpl.Fields.Assignee,
		nullJSON(tpl.Fields.Attributes),
		tpl.Enabled,
		time.Now().UTC(),
		tpl.ID,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			return store.ErrTemplateNameExists
		}
		return mapped
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTemplateNotFound
	}

	return nil
}

// Delete removes a template from the database by its ID.
// Returns store.ErrTemplateNotFound if the template does not exist.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recurring_templates WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTemplateNotFound
	}

	return nil
}

// FindDue retrieves all enabled templates due at the given instant: never
// scheduled (next_generation_at IS NULL) or scheduled at or before now.
// Ordered by creation time so processing order is stable across ticks.
func (s *TemplateStore) FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error) {
	query := `SELECT ` + templateColumns + `
		FROM recurring_templates
		WHERE enabled = TRUE
		  AND (next_generation_at IS NULL OR next_generation_at <= $1)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectTemplates(rows)
}

// UpdateSchedule advances a template's generation watermarks.
// Returns store.ErrTemplateNotFound if the template does not exist.
func (s *TemplateStore) UpdateSchedule(ctx context.Context, id uuid.UUID, lastGeneratedAt, nextGenerationAt time.Time) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE recurring_templates
		SET last_generated_at = $1, next_generation_at = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, lastGeneratedAt, nextGenerationAt, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update template schedule", "template_id", id, "error", err)
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Deleted between FindDue and here; nothing to reschedule.
		return store.ErrTemplateNotFound
	}

	return nil
}

// scanTemplate reads one template row in the canonical column order.
func scanTemplate(row rowScanner) (*domain.RecurringTemplate, error) {
	var (
		tpl        domain.RecurringTemplate
		attributes []byte
		last, next sql.NullTime
	)

	err := row.Scan(
		&tpl.ID,
		&tpl.Name,
		&tpl.CronExpression,
		&tpl.Fields.Title,
		&tpl.Fields.Description,
		&tpl.Fields.Priority,
		&tpl.Fields.Assignee,
		&attributes,
		&tpl.Enabled,
		&last,
		&next,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tpl.Fields.Attributes = attributes
	if last.Valid {
		t := last.Time.UTC()
		tpl.LastGeneratedAt = &t
	}
	if next.Valid {
		t := next.Time.UTC()
		tpl.NextGenerationAt = &t
	}

	return &tpl, nil
}

// collectTemplates drains rows into a slice, mapping any scan or iteration error.
func collectTemplates(rows *sql.Rows) ([]*domain.RecurringTemplate, error) {
	var templates []*domain.RecurringTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, MapError(err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return templates, nil
}

// nullTime converts an optional time into its nullable SQL form.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
