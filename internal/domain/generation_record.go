package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GenerationTrigger distinguishes scheduler-driven generation from
// generation requested by an administrator.
type GenerationTrigger string

// Possible generation trigger values
const (
	TriggerAutomatic GenerationTrigger = "automatic"
	TriggerManual    GenerationTrigger = "manual"
)

// GenerationRecord-specific validation errors
var (
	// ErrRecordTemplateIDEmpty is returned when a record's template ID is empty.
	ErrRecordTemplateIDEmpty = errors.New("generation record template ID cannot be empty")

	// ErrRecordTicketIDEmpty is returned when a record's ticket ID is empty.
	ErrRecordTicketIDEmpty = errors.New("generation record ticket ID cannot be empty")
)

// GenerationRecord is an immutable audit entry written once per successful
// materialization. Records are append-only and outlive the generated ticket:
// deleting the ticket leaves the record in place, so the generation history
// stays durable independent of the mutable template state.
type GenerationRecord struct {
	ID          uuid.UUID         `json:"id"`
	TemplateID  uuid.UUID         `json:"template_id"`
	TicketID    uuid.UUID         `json:"ticket_id"`
	Trigger     GenerationTrigger `json:"trigger"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// NewGenerationRecord creates a new GenerationRecord linking a template to
// the ticket it produced at the given instant.
// Returns an error if validation fails.
func NewGenerationRecord(
	templateID, ticketID uuid.UUID,
	trigger GenerationTrigger,
	generatedAt time.Time,
) (*GenerationRecord, error) {
	rec := &GenerationRecord{
		ID:          uuid.New(),
		TemplateID:  templateID,
		TicketID:    ticketID,
		Trigger:     trigger,
		GeneratedAt: generatedAt.UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the GenerationRecord has valid data.
func (r *GenerationRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrInvalidID
	}

	if r.TemplateID == uuid.Nil {
		return ErrRecordTemplateIDEmpty
	}

	if r.TicketID == uuid.Nil {
		return ErrRecordTicketIDEmpty
	}

	if r.Trigger != TriggerAutomatic && r.Trigger != TriggerManual {
		return ErrInvalidTrigger
	}

	return nil
}
