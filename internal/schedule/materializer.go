package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// FallbackRetryInterval is the fixed offset applied to a template's next
// generation instant when its cron expression cannot be evaluated. The
// template then retries daily instead of stalling forever or hot-looping
// every tick.
const FallbackRetryInterval = 24 * time.Hour

// Constructor validation errors
var (
	ErrNilTicketStore   = errors.New("ticket store cannot be nil")
	ErrNilTemplateStore = errors.New("template store cannot be nil")
	ErrNilGenerationLog = errors.New("generation log cannot be nil")
	ErrNilEvaluator     = errors.New("evaluator cannot be nil")
	ErrNilNotifier      = errors.New("notifier cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
)

// TicketCreator is the slice of the ticket store the materializer needs.
type TicketCreator interface {
	// Create saves a new ticket to the store.
	Create(ctx context.Context, ticket *domain.Ticket) error
}

// ScheduleUpdater is the slice of the template store the materializer needs.
type ScheduleUpdater interface {
	// UpdateSchedule advances a template's generation watermarks.
	UpdateSchedule(ctx context.Context, id uuid.UUID, lastGeneratedAt, nextGenerationAt time.Time) error
}

// GenerationAppender is the slice of the generation log the materializer needs.
type GenerationAppender interface {
	// Append durably adds a generation record.
	Append(ctx context.Context, record *domain.GenerationRecord) error
}

// Notifier delivers a best-effort notification to a user. Implementations
// must not block for long; errors are logged and swallowed by the caller.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// Result is the outcome of materializing one template. A nil Err means a
// ticket was created and the template's schedule advanced. TicketID may be
// set even when Err is non-nil: a schedule-update failure after ticket
// creation leaves the ticket in place and retries the template next tick.
type Result struct {
	TemplateID uuid.UUID
	TicketID   uuid.UUID
	NextAt     time.Time
	Err        error
}

// Materializer turns one due template into one concrete ticket, an audit
// record, and a notification, then advances the template's schedule.
type Materializer struct {
	tickets   TicketCreator
	templates ScheduleUpdater
	log       GenerationAppender
	evaluator *Evaluator
	notifier  Notifier
	logger    *slog.Logger
}

// NewMaterializer creates a Materializer from its collaborators.
// Returns an error if any dependency is nil.
func NewMaterializer(
	tickets TicketCreator,
	templates ScheduleUpdater,
	log GenerationAppender,
	evaluator *Evaluator,
	notifier Notifier,
	logger *slog.Logger,
) (*Materializer, error) {
	if tickets == nil {
		return nil, ErrNilTicketStore
	}
	if templates == nil {
		return nil, ErrNilTemplateStore
	}
	if log == nil {
		return nil, ErrNilGenerationLog
	}
	if evaluator == nil {
		return nil, ErrNilEvaluator
	}
	if notifier == nil {
		return nil, ErrNilNotifier
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &Materializer{
		tickets:   tickets,
		templates: templates,
		log:       log,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger,
	}, nil
}

// Materialize creates one ticket from the template, records it in the audit
// trail, advances the template's schedule, and notifies the assignee.
//
// The next occurrence is seeded from now (the tick time), not from the
// template's stale NextGenerationAt, so a backlog accumulated during
// downtime produces a single catch-up ticket rather than a burst. An
// unparseable cron expression does not abort the materialization: the
// ticket and audit record stand and the schedule falls back to now plus
// FallbackRetryInterval.
func (m *Materializer) Materialize(
	ctx context.Context,
	tpl *domain.RecurringTemplate,
	now time.Time,
	trigger domain.GenerationTrigger,
) Result {
	log := m.logger.With("template_id", tpl.ID, "template_name", tpl.Name, "trigger", trigger)
	res := Result{TemplateID: tpl.ID}

	// The template's target assignee owns the recurring obligation, so it
	// is recorded as both creator and assignee of the generated ticket.
	ticket, err := domain.NewTicket(
		tpl.Fields.Title,
		tpl.Fields.Description,
		tpl.Fields.Priority,
		tpl.Fields.Assignee,
		tpl.Fields.Assignee,
	)
	if err != nil {
		res.Err = fmt.Errorf("failed to build ticket from template: %w", err)
		return res
	}
	ticket.TemplateID = tpl.ID
	ticket.Attributes = tpl.Fields.Attributes

	if err := m.tickets.Create(ctx, ticket); err != nil {
		res.Err = fmt.Errorf("failed to persist generated ticket: %w", err)
		return res
	}
	res.TicketID = ticket.ID
	log = log.With("ticket_id", ticket.ID)

	// The audit sink is fire-and-forget from the engine's side: the ticket
	// already exists, and aborting here would re-generate it next tick.
	if rec, err := domain.NewGenerationRecord(tpl.ID, ticket.ID, trigger, now); err != nil {
		log.Error("failed to build generation record", "error", err)
	} else if err := m.log.Append(ctx, rec); err != nil {
		log.Error("failed to append generation record", "error", err)
	}

	next, err := m.evaluator.NextAfter(tpl.CronExpression, now)
	if err != nil {
		next = now.Add(FallbackRetryInterval)
		log.Warn("cron evaluation failed, falling back to daily retry",
			"cron_expression", tpl.CronExpression,
			"next_generation_at", next,
			"error", err)
	}
	res.NextAt = next

	// Forward-only advancement of next_generation_at is the sole guard
	// against re-generating on every subsequent tick. If this write fails
	// the template is retried next tick and the ticket just created may be
	// duplicated; at-least-once is the accepted failure mode here.
	if err := m.templates.UpdateSchedule(ctx, tpl.ID, now, next); err != nil {
		res.Err = fmt.Errorf("failed to advance template schedule: %w", err)
		log.Error("failed to advance template schedule", "error", err)
		return res
	}

	message := fmt.Sprintf("Recurring task %q generated ticket %s: %s",
		tpl.Name, ticket.ID, ticket.Title)
	if err := m.notifier.Notify(ctx, tpl.Fields.Assignee, message); err != nil {
		log.Warn("failed to notify assignee", "assignee", tpl.Fields.Assignee, "error", err)
	}

	log.Info("materialized recurring template",
		"next_generation_at", next,
		"priority", ticket.Priority)
	return res
}
