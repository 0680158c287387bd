package worker

import (
	"context"
	"sync"
	"time"

	"github.com/usertasks/reminder-worker/internal/domain"
	"github.com/usertasks/reminder-worker/internal/messaging"
)

// mockTaskStore is an in-memory store.TaskStore with injectable overrides,
// implementing the real selection and conditional-mark semantics.
type mockTaskStore struct {
	mu    sync.Mutex
	tasks map[int64]*domain.TaskItem

	// FindFn and MarkFn override the default behavior when set.
	FindFn func(ctx context.Context, now time.Time, limit int) ([]domain.TaskItem, error)
	MarkFn func(ctx context.Context, taskID int64, sentAt time.Time) (bool, error)

	markCalls []int64
}

func newMockTaskStore(tasks ...domain.TaskItem) *mockTaskStore {
	s := &mockTaskStore{tasks: make(map[int64]*domain.TaskItem)}
	for i := range tasks {
		task := tasks[i]
		s.tasks[task.ID] = &task
	}
	return s
}

func (s *mockTaskStore) FindOverdueUnsent(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]domain.TaskItem, error) {
	if s.FindFn != nil {
		return s.FindFn(ctx, now, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var selected []domain.TaskItem
	for _, task := range s.tasks {
		if task.ReminderDue(now) {
			selected = append(selected, *task)
		}
	}

	// Ascending due date, as the store contract requires.
	for i := 1; i < len(selected); i++ {
		for j := i; j > 0 && selected[j].DueDateUTC.Before(*selected[j-1].DueDateUTC); j-- {
			selected[j], selected[j-1] = selected[j-1], selected[j]
		}
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected, nil
}

func (s *mockTaskStore) MarkReminderSent(
	ctx context.Context,
	taskID int64,
	sentAt time.Time,
) (bool, error) {
	if s.MarkFn != nil {
		return s.MarkFn(ctx, taskID, sentAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.markCalls = append(s.markCalls, taskID)

	task, ok := s.tasks[taskID]
	if !ok || task.ReminderSentUTC != nil {
		return false, nil
	}
	sent := sentAt
	task.ReminderSentUTC = &sent
	return true, nil
}

func (s *mockTaskStore) get(taskID int64) domain.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[taskID]
}

// mockPublisher records published messages and fails on demand.
type mockPublisher struct {
	mu        sync.Mutex
	published []messaging.ReminderMessage

	// PublishFn overrides the default recording behavior when set.
	PublishFn func(ctx context.Context, msg messaging.ReminderMessage) error
}

func (p *mockPublisher) Publish(ctx context.Context, msg messaging.ReminderMessage) error {
	if p.PublishFn != nil {
		if err := p.PublishFn(ctx, msg); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, msg)
	return nil
}

func (p *mockPublisher) messages() []messaging.ReminderMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]messaging.ReminderMessage, len(p.published))
	copy(out, p.published)
	return out
}

// mockBroker implements Broker with a scripted sequence of Initialize
// results.
type mockBroker struct {
	mu        sync.Mutex
	initErrs  []error
	initCalls int
	closed    bool
}

func (b *mockBroker) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	call := b.initCalls
	b.initCalls++
	if call < len(b.initErrs) {
		return b.initErrs[call]
	}
	return nil
}

func (b *mockBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *mockBroker) attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initCalls
}

// mockConsumer implements ReminderConsumer.
type mockConsumer struct {
	mu          sync.Mutex
	initialized bool
	consuming   bool
	handler     messaging.Handler

	InitFn  func(ctx context.Context) error
	StartFn func(ctx context.Context, handler messaging.Handler) error
}

func (c *mockConsumer) Initialize(ctx context.Context) error {
	if c.InitFn != nil {
		return c.InitFn(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = true
	return nil
}

func (c *mockConsumer) StartConsuming(ctx context.Context, handler messaging.Handler) error {
	if c.StartFn != nil {
		return c.StartFn(ctx, handler)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consuming = true
	c.handler = handler
	return nil
}
