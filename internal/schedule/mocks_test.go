package schedule

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/opsgrove/helpdesk-api/internal/domain"
)

// Test doubles with overridable Fn fields, mirroring the hand-written mock
// store pattern used throughout the codebase's tests.

type mockTicketCreator struct {
	mu       sync.Mutex
	created  []*domain.Ticket
	CreateFn func(ctx context.Context, ticket *domain.Ticket) error
}

func (m *mockTicketCreator) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, ticket); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, ticket)
	return nil
}

func (m *mockTicketCreator) Created() []*domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.Ticket(nil), m.created...)
}

type scheduleUpdate struct {
	ID   uuid.UUID
	Last time.Time
	Next time.Time
}

type mockScheduleUpdater struct {
	mu       sync.Mutex
	updates  []scheduleUpdate
	UpdateFn func(ctx context.Context, id uuid.UUID, last, next time.Time) error
}

func (m *mockScheduleUpdater) UpdateSchedule(ctx context.Context, id uuid.UUID, last, next time.Time) error {
	if m.UpdateFn != nil {
		if err := m.UpdateFn(ctx, id, last, next); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, scheduleUpdate{ID: id, Last: last, Next: next})
	return nil
}

func (m *mockScheduleUpdater) Updates() []scheduleUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]scheduleUpdate(nil), m.updates...)
}

type mockGenerationLog struct {
	mu       sync.Mutex
	records  []*domain.GenerationRecord
	AppendFn func(ctx context.Context, rec *domain.GenerationRecord) error
}

func (m *mockGenerationLog) Append(ctx context.Context, rec *domain.GenerationRecord) error {
	if m.AppendFn != nil {
		if err := m.AppendFn(ctx, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockGenerationLog) Records() []*domain.GenerationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.GenerationRecord(nil), m.records...)
}

type notification struct {
	UserID  string
	Message string
}

type mockNotifier struct {
	mu       sync.Mutex
	sent     []notification
	NotifyFn func(ctx context.Context, userID, message string) error
}

func (m *mockNotifier) Notify(ctx context.Context, userID, message string) error {
	if m.NotifyFn != nil {
		if err := m.NotifyFn(ctx, userID, message); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, notification{UserID: userID, Message: message})
	return nil
}

func (m *mockNotifier) Sent() []notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification(nil), m.sent...)
}

// mockTemplateStore is an in-memory DueFinder plus ScheduleUpdater that
// mimics the store's due semantics: enabled templates whose
// NextGenerationAt is unset or at/before now.
type mockTemplateStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*domain.RecurringTemplate
	FindDueFn func(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error)
	UpdateFn  func(ctx context.Context, id uuid.UUID, last, next time.Time) error
}

func newMockTemplateStore(templates ...*domain.RecurringTemplate) *mockTemplateStore {
	s := &mockTemplateStore{templates: make(map[uuid.UUID]*domain.RecurringTemplate)}
	for _, tpl := range templates {
		s.templates[tpl.ID] = tpl
	}
	return s
}

func (s *mockTemplateStore) FindDue(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error) {
	if s.FindDueFn != nil {
		return s.FindDueFn(ctx, now)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*domain.RecurringTemplate
	for _, tpl := range s.templates {
		if tpl.Enabled && tpl.IsDue(now) {
			copied := *tpl
			due = append(due, &copied)
		}
	}
	return due, nil
}

func (s *mockTemplateStore) UpdateSchedule(ctx context.Context, id uuid.UUID, last, next time.Time) error {
	if s.UpdateFn != nil {
		if err := s.UpdateFn(ctx, id, last, next); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl, ok := s.templates[id]; ok {
		tpl.LastGeneratedAt = &last
		tpl.NextGenerationAt = &next
	}
	return nil
}

func (s *mockTemplateStore) Get(id uuid.UUID) *domain.RecurringTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates[id]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testTemplate(t *testing.T, name, expr string) *domain.RecurringTemplate {
	t.Helper()
	tpl, err := domain.NewRecurringTemplate(name, expr, domain.TemplateFields{
		Title:       "Check server room temperature",
		Description: "Walk the racks and log readings",
		Priority:    domain.TicketPriorityMedium,
		Assignee:    "mbauer",
	})
	require.NoError(t, err)
	return tpl
}
