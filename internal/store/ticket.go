package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// ListTicketsOptions narrows a ticket listing. Zero values mean "no filter";
// a zero Limit falls back to the implementation's default page size.
type ListTicketsOptions struct {
	Status     domain.TicketStatus
	TemplateID uuid.UUID
	Limit      int
	Offset     int
}

// TicketStore defines the interface for ticket data persistence.
// The recurring task engine only ever calls Create; the remaining methods
// serve the administrative API and normal ticket workflows.
type TicketStore interface {
	// Create saves a new ticket to the store.
	// Returns validation errors if the ticket data is invalid.
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID retrieves a ticket by its unique ID.
	// Returns ErrTicketNotFound if the ticket does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)

	// List retrieves tickets matching the given options, newest first.
	List(ctx context.Context, opts ListTicketsOptions) ([]*domain.Ticket, error)

	// UpdateStatus moves a ticket to a new workflow status.
	// Returns ErrTicketNotFound if the ticket does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TicketStatus) error

	// Delete removes a ticket from the store by its ID.
	// Returns ErrTicketNotFound if the ticket does not exist.
	// Generation audit records referencing the ticket are deliberately left
	// in place; the audit trail outlives the ticket.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new TicketStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller.
	WithTx(tx *sql.Tx) TicketStore
}
