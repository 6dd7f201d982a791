package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/kv"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

// Change operations reported to a Notifier.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const maxIDAttempts = 8

// ErrIDExhausted is returned when the ID generator keeps producing ids that
// are already taken.
var ErrIDExhausted = errors.New("could not generate a unique expense id")

// Notifier is told about every applied mutation. Failures are logged only.
type Notifier interface {
	PublishExpenseChange(ctx context.Context, op, id string) error
}

// Option configures an ExpenseStore.
type Option func(*ExpenseStore)

// WithNotifier attaches a change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *ExpenseStore) { s.notifier = n }
}

// WithIDGenerator replaces the default random UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *ExpenseStore) { s.newID = gen }
}

// ExpenseStore owns the ordered expense collection. The in-memory slice is
// the source of truth; every mutation writes the whole collection through to
// the key-value store under the same lock.
type ExpenseStore struct {
	mu       sync.Mutex
	kv       kv.Store
	notifier Notifier
	newID    func() string

	loaded   bool
	items    []core.Expense
	issued   map[string]struct{}
	revision uint64
}

func NewExpenseStore(store kv.Store, opts ...Option) *ExpenseStore {
	s := &ExpenseStore{
		kv:     store,
		newID:  uuid.NewString,
		issued: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureLoaded reads the persisted collection once. Caller holds s.mu.
func (s *ExpenseStore) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true

	items, err := kv.TryLoad(ctx, s.kv, kv.KeyExpenses, []core.Expense{})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(applog.OpRead).Inc()
		slog.ErrorContext(ctx, "Failed to load expenses, starting empty",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldKey, kv.KeyExpenses,
			applog.FieldError, err)
	}

	s.items = make([]core.Expense, 0, len(items))
	for _, e := range items {
		if _, dup := s.issued[e.ID]; dup || e.ID == "" {
			slog.WarnContext(ctx, "Skipping stored expense with missing or duplicate id",
				applog.FieldComponent, applog.ComponentExpense,
				applog.FieldExpenseID, e.ID)
			continue
		}
		s.issued[e.ID] = struct{}{}
		s.items = append(s.items, e)
	}
	metrics.StoreRecords.Set(float64(len(s.items)))
	slog.DebugContext(ctx, "Expenses loaded",
		applog.FieldComponent, applog.ComponentExpense,
		applog.FieldCount, len(s.items))
}

// List returns a copy of the collection in insertion order.
func (s *ExpenseStore) List(ctx context.Context) []core.Expense {
	items, _ := s.Snapshot(ctx)
	return items
}

// Get returns the expense with id, if present.
func (s *ExpenseStore) Get(ctx context.Context, id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	return core.Expense{}, false
}

// Snapshot returns a copy of the collection together with the revision it
// belongs to. The revision increases by one on every applied mutation.
func (s *ExpenseStore) Snapshot(ctx context.Context) ([]core.Expense, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	out := make([]core.Expense, len(s.items))
	copy(out, s.items)
	return out, s.revision
}

// Create validates in, assigns a fresh id and appends the record.
func (s *ExpenseStore) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		metrics.ValidationFailures.Inc()
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.mu.Lock()
	s.ensureLoaded(ctx)
	id, err := s.nextID()
	if err != nil {
		s.mu.Unlock()
		return core.Expense{}, err
	}
	e := in.WithID(id)
	s.issued[id] = struct{}{}
	s.items = append(s.items, e)
	s.commit(ctx, applog.OpCreate)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense created",
		applog.NewFields().
			WithExpense(e.ID, e.Title, e.Amount.String(), e.Category, e.Date.String()).
			WithComponent(applog.ComponentExpense).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	s.notify(ctx, ChangeCreated, id)
	return e, nil
}

// Update replaces the stored record with the same id. Unknown ids are a
// no-op.
func (s *ExpenseStore) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		metrics.ValidationFailures.Inc()
		return fmt.Errorf("update expense: %w", err)
	}

	s.mu.Lock()
	s.ensureLoaded(ctx)
	i := s.indexOf(e.ID)
	if i < 0 {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Update for unknown expense ignored",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldExpenseID, e.ID)
		return nil
	}
	s.items[i] = e
	s.commit(ctx, applog.OpUpdate)
	s.mu.Unlock()

	s.notify(ctx, ChangeUpdated, e.ID)
	return nil
}

// Delete removes the record with id. Unknown ids are a no-op.
func (s *ExpenseStore) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	s.ensureLoaded(ctx)
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.commit(ctx, applog.OpDelete)
	s.mu.Unlock()

	s.notify(ctx, ChangeDeleted, id)
}

func (s *ExpenseStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ExpenseStore) nextID() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if id == "" {
			continue
		}
		if _, taken := s.issued[id]; !taken {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// commit bumps the revision and writes the collection through. A failed
// write is logged and dropped; the next mutation will try again.
func (s *ExpenseStore) commit(ctx context.Context, op string) {
	s.revision++
	metrics.StoreMutations.WithLabelValues(op).Inc()
	metrics.StoreRecords.Set(float64(len(s.items)))

	if err := kv.Save(ctx, s.kv, kv.KeyExpenses, s.items); err != nil {
		metrics.PersistenceFailures.WithLabelValues(applog.OpWrite).Inc()
		slog.ErrorContext(ctx, "Failed to persist expenses, keeping in-memory state",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldOperation, op,
			applog.FieldKey, kv.KeyExpenses,
			applog.FieldRevision, s.revision,
			applog.FieldError, err)
	}
}

// notify runs after the lock is released so a slow broker never blocks
// readers.
func (s *ExpenseStore) notify(ctx context.Context, op, id string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishExpenseChange(ctx, op, id); err != nil {
		slog.WarnContext(ctx, "Failed to publish expense change",
			applog.FieldComponent, applog.ComponentAMQP,
			applog.FieldOperation, op,
			applog.FieldExpenseID, id,
			applog.FieldError, err)
	}
}

// Close releases the underlying key-value store.
func (s *ExpenseStore) Close() error {
	if s.kv == nil {
		return nil
	}
	return s.kv.Close()
}
