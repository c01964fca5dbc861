package api

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opsgrove/helpdesk-api/internal/domain"
	"github.com/opsgrove/helpdesk-api/internal/store"
	"github.com/stretchr/testify/require"
)

// MockTemplateStore is a mock implementation of store.TemplateStore for testing
type MockTemplateStore struct {
	CreateFn         func(ctx context.Context, template *domain.RecurringTemplate) error
	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.RecurringTemplate, error)
	ListFn           func(ctx context.Context) ([]*domain.RecurringTemplate, error)
	UpdateFn         func(ctx context.Context, template *domain.RecurringTemplate) error
	DeleteFn         func(ctx context.Context, id uuid.UUID) error
	FindDueFn        func(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error)
	UpdateScheduleFn func(ctx context.Context, id uuid.UUID, lastGeneratedAt, nextGenerationAt time.Time) error
}

func (m *MockTemplateStore) Create(ctx context.Context, template *domain.RecurringTemplate) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, template)
	}
	return nil
}

func (m *MockTemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.RecurringTemplate, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrTemplateNotFound
}

func (m *MockTemplateStore) List(ctx context.Context) ([]*domain.RecurringTemplate, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *MockTemplateStore) Update(ctx context.Context, template *domain.RecurringTemplate) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, template)
	}
	return nil
}

func (m *MockTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *MockTemplateStore) FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error) {
	if m.FindDueFn != nil {
		return m.FindDueFn(ctx, now)
	}
	return nil, nil
}

func (m *MockTemplateStore) UpdateSchedule(
	ctx context.Context,
	id uuid.UUID,
	lastGeneratedAt, nextGenerationAt time.Time,
) error {
	if m.UpdateScheduleFn != nil {
		return m.UpdateScheduleFn(ctx, id, lastGeneratedAt, nextGenerationAt)
	}
	return nil
}

func (m *MockTemplateStore) WithTx(tx *sql.Tx) store.TemplateStore { return m }

// MockTicketStore is a mock implementation of store.TicketStore for testing
type MockTicketStore struct {
	CreateFn       func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	ListFn         func(ctx context.Context, opts store.ListTicketsOptions) ([]*domain.Ticket, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status domain.TicketStatus) error
	DeleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *MockTicketStore) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, ticket)
	}
	return nil
}

func (m *MockTicketStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, store.ErrTicketNotFound
}

func (m *MockTicketStore) List(
	ctx context.Context,
	opts store.ListTicketsOptions,
) ([]*domain.Ticket, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, opts)
	}
	return nil, nil
}

func (m *MockTicketStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TicketStatus,
) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *MockTicketStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

func (m *MockTicketStore) WithTx(tx *sql.Tx) store.TicketStore { return m }

// MockGenerationLogStore is a mock implementation of store.GenerationLogStore for testing
type MockGenerationLogStore struct {
	AppendFn         func(ctx context.Context, record *domain.GenerationRecord) error
	ListByTemplateFn func(ctx context.Context, templateID uuid.UUID) ([]*domain.GenerationRecord, error)
}

func (m *MockGenerationLogStore) Append(ctx context.Context, record *domain.GenerationRecord) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, record)
	}
	return nil
}

func (m *MockGenerationLogStore) ListByTemplate(
	ctx context.Context,
	templateID uuid.UUID,
) ([]*domain.GenerationRecord, error) {
	if m.ListByTemplateFn != nil {
		return m.ListByTemplateFn(ctx, templateID)
	}
	return nil, nil
}

func (m *MockGenerationLogStore) WithTx(tx *sql.Tx) store.GenerationLogStore { return m }

// MockNotifier is a mock implementation of schedule.Notifier for testing
type MockNotifier struct {
	NotifyFn func(ctx context.Context, userID, message string) error
}

func (m *MockNotifier) Notify(ctx context.Context, userID, message string) error {
	if m.NotifyFn != nil {
		return m.NotifyFn(ctx, userID, message)
	}
	return nil
}

// testLogger returns a logger that discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testTemplate builds a valid enabled template for handler tests.
func testTemplate(t *testing.T, name, cronExpression string) *domain.RecurringTemplate {
	t.Helper()

	tpl, err := domain.NewRecurringTemplate(name, cronExpression, domain.TemplateFields{
		Title:       "Check backup job",
		Description: "Verify last night's backup completed",
		Priority:    domain.TicketPriorityMedium,
		Assignee:    "mbauer",
	})
	require.NoError(t, err)
	return tpl
}
