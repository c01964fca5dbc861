package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Template-specific validation errors
var (
	// ErrTemplateIDEmpty is returned when a template ID is empty or nil.
	ErrTemplateIDEmpty = errors.New("template ID cannot be empty")

	// ErrTemplateNameEmpty is returned when a template's name is empty.
	ErrTemplateNameEmpty = errors.New("template name cannot be empty")

	// ErrTemplateCronEmpty is returned when a template's cron expression is empty.
	ErrTemplateCronEmpty = errors.New("template cron expression cannot be empty")

	// ErrTemplateTitleEmpty is returned when a template's ticket title is empty.
	ErrTemplateTitleEmpty = errors.New("template ticket title cannot be empty")

	// ErrTemplateAssigneeEmpty is returned when a template's assignee is empty.
	// The assignee is required because generated tickets record it as both
	// creator and assignee.
	ErrTemplateAssigneeEmpty = errors.New("template assignee cannot be empty")
)

// TemplateFields holds the ticket fields a template copies verbatim into
// each generated ticket.
type TemplateFields struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    TicketPriority  `json:"priority"`
	Assignee    string          `json:"assignee"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// RecurringTemplate is a persisted recurring-task definition: a five-field
// cron schedule plus the ticket fields to stamp into each generated ticket.
//
// LastGeneratedAt and NextGenerationAt are the scheduler's watermarks. A nil
// NextGenerationAt means the template has never been scheduled and is due
// immediately. The scheduler only ever mutates these two fields; all other
// fields belong to the administrative CRUD surface.
type RecurringTemplate struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	CronExpression   string         `json:"cron_expression"`
	Fields           TemplateFields `json:"fields"`
	Enabled          bool           `json:"enabled"`
	LastGeneratedAt  *time.Time     `json:"last_generated_at,omitempty"`
	NextGenerationAt *time.Time     `json:"next_generation_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewRecurringTemplate creates a new enabled RecurringTemplate with the
// given name, cron expression, and ticket fields. It generates a new UUID
// and sets the creation/update timestamps. The cron expression is checked
// only for presence here; syntactic validation is the schedule package's
// concern so the domain stays free of parser dependencies.
// Returns an error if validation fails.
func NewRecurringTemplate(name, cronExpression string, fields TemplateFields) (*RecurringTemplate, error) {
	now := time.Now().UTC()
	tpl := &RecurringTemplate{
		ID:             uuid.New(),
		Name:           name,
		CronExpression: cronExpression,
		Fields:         fields,
		Enabled:        true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	return tpl, nil
}

// Validate checks if the RecurringTemplate has valid data.
// Returns an error if any field fails validation.
func (t *RecurringTemplate) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTemplateIDEmpty
	}

	if t.Name == "" {
		return ErrTemplateNameEmpty
	}

	if t.CronExpression == "" {
		return ErrTemplateCronEmpty
	}

	if t.Fields.Title == "" {
		return ErrTemplateTitleEmpty
	}

	if t.Fields.Assignee == "" {
		return ErrTemplateAssigneeEmpty
	}

	if !t.Fields.Priority.IsValid() {
		return ErrInvalidPriority
	}

	if len(t.Fields.Attributes) > 0 {
		var js json.RawMessage
		if err := json.Unmarshal(t.Fields.Attributes, &js); err != nil {
			return ErrInvalidAttributes
		}
	}

	return nil
}

// IsDue reports whether the template is due for generation at the given
// instant: either it has never been scheduled (nil NextGenerationAt) or its
// next generation instant has arrived or passed.
func (t *RecurringTemplate) IsDue(now time.Time) bool {
	return t.NextGenerationAt == nil || !t.NextGenerationAt.After(now)
}
