package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/platform/logger"
	"github.com/opsgrove/helpdesk-api/internal/store"
)

// defaultTicketPageSize bounds unfiltered ticket listings.
const defaultTicketPageSize = 50

// TicketStore implements the store.TicketStore interface using PostgreSQL.
type TicketStore struct {
	db store.DBTX
}

// NewTicketStore creates a new TicketStore.
func NewTicketStore(db store.DBTX) *TicketStore {
	return &TicketStore{db: db}
}

// WithTx returns a new TicketStore instance that uses the provided transaction.
func (s *TicketStore) WithTx(tx *sql.Tx) store.TicketStore {
	return &TicketStore{db: tx}
}

// Create saves a new ticket to the database.
func (s *TicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	log := logger.FromContext(ctx)

	if err := ticket.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tickets
			(id, title, description, priority, status, creator, assignee,
			 template_id, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.Creator,
		ticket.Assignee,
		nullUUID(ticket.TemplateID),
		nullJSON(ticket.Attributes),
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create ticket", "ticket_id", ticket.ID, "error", err)
		return MapError(err)
	}

	return nil
}

// GetByID retrieves a ticket by its unique ID.
// Returns store.ErrTicketNotFound if the ticket does not exist.
func (s *TicketStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `
		SELECT id, title, description, priority, status, creator, assignee,
		       template_id, attributes, created_at, updated_at
		FROM tickets
		WHERE id = $1
	`

	ticket, err := scanTicket(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if store.IsNotFoundError(MapError(err)) {
			return nil, store.ErrTicketNotFound
		}
		return nil, MapError(err)
	}
	return ticket, nil
}

// List retrieves tickets matching the given options, newest first.
func (s *TicketStore) List(ctx context.Context, opts store.ListTicketsOptions) ([]*domain.Ticket, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultTicketPageSize
	}

	query := `
		SELECT id, title, description, priority, status, creator, assignee,
		       template_id, attributes, created_at, updated_at
		FROM tickets
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR template_id = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := s.db.QueryContext(ctx, query,
		string(opts.Status),
		nullUUID(opts.TemplateID),
		limit,
		opts.Offset,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return tickets, nil
}

// UpdateStatus moves a ticket to a new workflow status.
// Returns store.ErrTicketNotFound if the ticket does not exist.
func (s *TicketStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TicketStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidStatus)
	}

	query := `
		UPDATE tickets
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTicketNotFound
	}

	return nil
}

// Delete removes a ticket from the database by its ID. Generation records
// referencing the ticket are left untouched; the audit trail outlives it.
// Returns store.ErrTicketNotFound if the ticket does not exist.
func (s *TicketStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTicketNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTicket reads one ticket row in the canonical column order.
func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket     domain.Ticket
		templateID uuid.NullUUID
		attributes []byte
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Creator,
		&ticket.Assignee,
		&templateID,
		&attributes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		ticket.TemplateID = templateID.UUID
	}
	ticket.Attributes = attributes

	return &ticket, nil
}

// nullUUID converts a uuid.UUID into its nullable SQL form, treating the
// zero UUID as NULL.
func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// nullJSON converts raw JSON bytes into a NULL-able parameter, treating an
// empty payload as NULL.
func nullJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}
