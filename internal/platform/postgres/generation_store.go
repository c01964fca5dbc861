package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/platform/logger"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// GenerationLogStore implements the store.GenerationLogStore interface using
// PostgreSQL. The backing table is append-only; there are no update or
// delete statements here by design, and no foreign key to tickets so the
// audit trail survives ticket deletion.
type GenerationLogStore struct {
	db store.DBTX
}

// NewGenerationLogStore creates a new GenerationLogStore.
func NewGenerationLogStore(db store.DBTX) *GenerationLogStore {
	return &GenerationLogStore{db: db}
}

// WithTx returns a new GenerationLogStore instance that uses the provided transaction.
func (s *GenerationLogStore) WithTx(tx *sql.Tx) store.GenerationLogStore {
	return &GenerationLogStore{db: tx}
}

// Append durably adds a generation record.
func (s *GenerationLogStore) Append(ctx context.Context, rec *domain.GenerationRecord) error {
	log := logger.FromContext(ctx)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO generation_records (id, template_id, ticket_id, trigger_type, generated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.TemplateID,
		rec.TicketID,
		rec.Trigger,
		rec.GeneratedAt,
	)
	if err != nil {
		log.Error("failed to append generation record",
			"template_id", rec.TemplateID,
			"ticket_id", rec.TicketID,
			"error", err)
		return MapError(err)
	}

	return nil
}

// ListByTemplate retrieves all records for a template, newest first.
func (s *GenerationLogStore) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*domain.GenerationRecord, error) {
	query := `
		SELECT id, template_id, ticket_id, trigger_type, generated_at
		FROM generation_records
		WHERE template_id = $1
		ORDER BY generated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.GenerationRecord
	for rows.Next() {
		var rec domain.GenerationRecord
		err := rows.Scan(&rec.ID, &rec.TemplateID, &rec.TicketID, &rec.Trigger, &rec.GeneratedAt)
		if err != nil {
			return nil, MapError(err)
		}
		rec.GeneratedAt = rec.GeneratedAt.UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return records, nil
}
