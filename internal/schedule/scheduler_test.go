package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgrove/helpdesk-api/internal/domain"
)

func newTestScheduler(t *testing.T, store *mockTemplateStore, cfg Config) (*Scheduler, *mockTicketCreator) {
	t.Helper()

	tickets := &mockTicketCreator{}
	log := &mockGenerationLog{}
	notifier := &mockNotifier{}

	mat, err := NewMaterializer(tickets, store, log, NewEvaluator(time.UTC), notifier, testLogger())
	require.NoError(t, err)

	sched, err := NewScheduler(store, mat, cfg, testLogger())
	require.NoError(t, err)
	return sched, tickets
}

func TestNewScheduler_Validation(t *testing.T) {
	t.Parallel()

	store := newMockTemplateStore()
	tickets := &mockTicketCreator{}
	mat, err := NewMaterializer(tickets, store, &mockGenerationLog{}, NewEvaluator(time.UTC), &mockNotifier{}, testLogger())
	require.NoError(t, err)

	_, err = NewScheduler(nil, mat, DefaultConfig(), testLogger())
	assert.Error(t, err)

	_, err = NewScheduler(store, nil, DefaultConfig(), testLogger())
	assert.Error(t, err)

	_, err = NewScheduler(store, mat, Config{Enabled: true, TickInterval: 0}, testLogger())
	assert.Error(t, err)
}

func TestScheduler_Tick_ProcessesDueTemplates(t *testing.T) {
	t.Parallel()

	// One never-scheduled template (due), one scheduled in the future
	// (not due), one disabled (never due).
	due := testTemplate(t, "due", "0 9 * * 1")
	future := testTemplate(t, "future", "0 9 * * 1")
	at := time.Now().UTC().Add(time.Hour)
	future.NextGenerationAt = &at
	disabled := testTemplate(t, "disabled", "0 9 * * 1")
	disabled.Enabled = false

	store := newMockTemplateStore(due, future, disabled)
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: time.Minute})

	report := sched.Tick()
	require.NoError(t, report.Err)

	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 0, report.Failed)
	require.Len(t, tickets.Created(), 1)
	assert.Equal(t, due.ID, tickets.Created()[0].TemplateID)

	// The due template's watermark advanced strictly past the tick time.
	updated := store.Get(due.ID)
	require.NotNil(t, updated.NextGenerationAt)
	assert.True(t, updated.NextGenerationAt.After(report.StartedAt))
}

func TestScheduler_Tick_IsolatesTemplateFailures(t *testing.T) {
	t.Parallel()

	first := testTemplate(t, "first", "0 9 * * 1")
	second := testTemplate(t, "second", "0 9 * * 1")
	third := testTemplate(t, "third", "0 9 * * 1")
	store := newMockTemplateStore(first, second, third)

	tickets := &mockTicketCreator{
		CreateFn: func(ctx context.Context, ticket *domain.Ticket) error {
			if ticket.TemplateID == second.ID {
				return errors.New("boom")
			}
			return nil
		},
	}
	mat, err := NewMaterializer(tickets, store, &mockGenerationLog{}, NewEvaluator(time.UTC), &mockNotifier{}, testLogger())
	require.NoError(t, err)
	sched, err := NewScheduler(store, mat, Config{Enabled: true, TickInterval: time.Minute}, testLogger())
	require.NoError(t, err)

	report := sched.Tick()
	require.NoError(t, report.Err)

	// One template failing never blocks its siblings.
	assert.Equal(t, 3, report.Due)
	assert.Equal(t, 2, report.Generated)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, tickets.Created(), 2)

	var failed []Result
	for _, res := range report.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, second.ID, failed[0].TemplateID)
}

func TestScheduler_Tick_DueQueryFailureAbortsTick(t *testing.T) {
	t.Parallel()

	store := newMockTemplateStore(testTemplate(t, "due", "0 9 * * 1"))
	store.FindDueFn = func(ctx context.Context, now time.Time) ([]*domain.RecurringTemplate, error) {
		return nil, errors.New("connection refused")
	}
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: time.Minute})

	report := sched.Tick()
	require.Error(t, report.Err)
	assert.Zero(t, report.Due)
	assert.Empty(t, tickets.Created())
}

func TestScheduler_Start_FirstTickFiresPromptly(t *testing.T) {
	t.Parallel()

	// A template overdue at boot is caught up without waiting out the
	// first interval: the interval is far longer than the wait below.
	store := newMockTemplateStore(testTemplate(t, "overdue", "0 9 * * 1"))
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: time.Hour})

	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return len(tickets.Created()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_Start_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMockTemplateStore(testTemplate(t, "due", "0 9 * * 1"))
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: time.Hour})

	// Two starts must arm exactly one timer: after the prompt first tick
	// the single due template yields exactly one ticket, not two.
	sched.Start()
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return len(tickets.Created()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give a duplicate loop (if one existed) a chance to double-generate.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, tickets.Created(), 1)
}

func TestScheduler_Start_DisabledIsNoOp(t *testing.T) {
	t.Parallel()

	store := newMockTemplateStore(testTemplate(t, "due", "0 9 * * 1"))
	sched, tickets := newTestScheduler(t, store, Config{Enabled: false, TickInterval: time.Millisecond})

	sched.Start()
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	assert.Empty(t, tickets.Created(), "disabled scheduler must not tick")
}

func TestScheduler_StopAndRestart(t *testing.T) {
	t.Parallel()

	first := testTemplate(t, "first", "0 9 * * 1")
	store := newMockTemplateStore(first)
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: time.Hour})

	sched.Start()
	require.Eventually(t, func() bool {
		return len(tickets.Created()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	sched.Stop()

	// Stop resets the guard: a fresh due template is picked up by the
	// restarted loop's prompt first tick.
	second := testTemplate(t, "second", "0 9 * * 1")
	store.mu.Lock()
	store.templates[second.ID] = second
	store.mu.Unlock()

	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return len(tickets.Created()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_Stop_WithoutStart(t *testing.T) {
	t.Parallel()

	store := newMockTemplateStore()
	sched, _ := newTestScheduler(t, store, DefaultConfig())

	// Must not panic or hang.
	sched.Stop()
}

func TestScheduler_PeriodicTicks(t *testing.T) {
	t.Parallel()

	// A template whose cron fails falls back to +24h, so it is generated
	// exactly once per fallback window no matter how many ticks elapse.
	broken := testTemplate(t, "broken", "0 9 * * 1")
	broken.CronExpression = "not-a-cron"
	store := newMockTemplateStore(broken)
	sched, tickets := newTestScheduler(t, store, Config{Enabled: true, TickInterval: 20 * time.Millisecond})

	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return len(tickets.Created()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Several more ticks pass; the fallback watermark keeps it from
	// re-generating within the window.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, tickets.Created(), 1)

	updated := store.Get(broken.ID)
	require.NotNil(t, updated.NextGenerationAt)
	assert.True(t, updated.NextGenerationAt.Sub(*updated.LastGeneratedAt) == FallbackRetryInterval)
}
