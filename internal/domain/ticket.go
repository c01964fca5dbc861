package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

// Possible ticket priority values
const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketStatus represents the workflow state of a ticket.
type TicketStatus string

// Possible ticket status values
const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Ticket-specific validation errors
var (
	// ErrTicketIDEmpty is returned when a ticket ID is empty or nil.
	ErrTicketIDEmpty = errors.New("ticket ID cannot be empty")

	// ErrTicketTitleEmpty is returned when a ticket's title is empty.
	ErrTicketTitleEmpty = errors.New("ticket title cannot be empty")

	// ErrTicketCreatorEmpty is returned when a ticket's creator is empty.
	ErrTicketCreatorEmpty = errors.New("ticket creator cannot be empty")
)

// Ticket represents a single unit of helpdesk work. Tickets created by the
// recurring task engine carry the originating template's ID in TemplateID;
// manually created tickets leave it as uuid.Nil. Once created, a generated
// ticket is indistinguishable from any other ticket and is owned entirely
// by the normal ticket workflow.
type Ticket struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    TicketPriority  `json:"priority"`
	Status      TicketStatus    `json:"status"`
	Creator     string          `json:"creator"`
	Assignee    string          `json:"assignee,omitempty"`
	TemplateID  uuid.UUID       `json:"template_id,omitempty"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewTicket creates a new open Ticket with the given fields. It generates a
// new UUID for the ticket ID and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewTicket(
	title, description string,
	priority TicketPriority,
	creator, assignee string,
) (*Ticket, error) {
	now := time.Now().UTC()
	ticket := &Ticket{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      TicketStatusOpen,
		Creator:     creator,
		Assignee:    assignee,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := ticket.Validate(); err != nil {
		return nil, err
	}

	return ticket, nil
}

// Validate checks if the Ticket has valid data.
// Returns an error if any field fails validation.
func (t *Ticket) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTicketIDEmpty
	}

	if t.Title == "" {
		return ErrTicketTitleEmpty
	}

	if t.Creator == "" {
		return ErrTicketCreatorEmpty
	}

	if !t.Priority.IsValid() {
		return ErrInvalidPriority
	}

	if !t.Status.IsValid() {
		return ErrInvalidStatus
	}

	if len(t.Attributes) > 0 {
		var js json.RawMessage
		if err := json.Unmarshal(t.Attributes, &js); err != nil {
			return ErrInvalidAttributes
		}
	}

	return nil
}

// IsValid reports whether the priority is one of the recognized values.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// IsValid reports whether the status is one of the recognized values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}
