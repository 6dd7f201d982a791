package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/kv"
	"expensetracker/internal/kv/memory"
)

func input(title string, cents int64, category, date string) core.ExpenseInput {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.ExpenseInput{Title: title, Amount: core.Money{Cents: cents}, Category: category, Date: d}
}

type recordingNotifier struct {
	events []string
	err    error
}

func (n *recordingNotifier) PublishExpenseChange(_ context.Context, op, id string) error {
	n.events = append(n.events, op+":"+id)
	return n.err
}

type failingKV struct{ *memory.Store }

func (failingKV) Set(context.Context, string, []byte) error { return errors.New("quota exceeded") }

func TestCreateAssignsUniqueIDAndPersists(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	s := NewExpenseStore(backing)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		e, err := s.Create(ctx, input(fmt.Sprintf("item %d", i), 100, "Other", "2024-01-01"))
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if e.ID == "" || seen[e.ID] {
			t.Fatalf("create %d returned empty or reused id %q", i, e.ID)
		}
		seen[e.ID] = true
	}

	list := s.List(ctx)
	if len(list) != 50 {
		t.Fatalf("expected 50 records, got %d", len(list))
	}
	if list[0].Title != "item 0" || list[49].Title != "item 49" {
		t.Fatalf("list not in insertion order")
	}

	// A fresh store over the same backing sees the persisted collection.
	reopened := NewExpenseStore(backing).List(ctx)
	if len(reopened) != 50 || reopened[10].ID != list[10].ID {
		t.Fatalf("persisted collection mismatch: %d records", len(reopened))
	}
}

func TestCreateCoffeeScenario(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())
	e, err := s.Create(ctx, input("Coffee", 450, "Dining Out", "2024-01-15"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	list := s.List(ctx)
	if len(list) != 1 || list[0] != e {
		t.Fatalf("list = %+v, want [%+v]", list, e)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())
	bads := []core.ExpenseInput{
		input("Zero", 0, "Other", "2024-01-01"),
		input("  ", 100, "Other", "2024-01-01"),
		{Title: "no date", Amount: core.Money{Cents: 1}},
	}
	for i, in := range bads {
		if _, err := s.Create(ctx, in); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
	items, rev := s.Snapshot(ctx)
	if len(items) != 0 {
		t.Fatalf("collection changed by rejected creates: %d records", len(items))
	}
	if rev != 0 {
		t.Fatalf("revision bumped by rejected creates")
	}
}

func TestCreateRetriesCollidingIDs(t *testing.T) {
	ctx := context.Background()
	ids := []string{"a", "a", "", "b"}
	gen := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s := NewExpenseStore(memory.New(), WithIDGenerator(gen))
	first, _ := s.Create(ctx, input("one", 1, "Other", "2024-01-01"))
	second, err := s.Create(ctx, input("two", 1, "Other", "2024-01-01"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("ids = %q, %q; want a, b", first.ID, second.ID)
	}

	stuck := NewExpenseStore(memory.New(), WithIDGenerator(func() string { return "same" }))
	if _, err := stuck.Create(ctx, input("one", 1, "Other", "2024-01-01")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := stuck.Create(ctx, input("two", 1, "Other", "2024-01-01")); !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
}

func TestDeletedIDsAreNotReissued(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New(), WithIDGenerator(func() string { return "fixed" }))
	e, _ := s.Create(ctx, input("one", 1, "Other", "2024-01-01"))
	s.Delete(ctx, e.ID)
	if _, err := s.Create(ctx, input("two", 1, "Other", "2024-01-01")); !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected deleted id to stay reserved, got %v", err)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())
	var created []core.Expense
	for i := 0; i < 5; i++ {
		e, _ := s.Create(ctx, input(fmt.Sprintf("e%d", i), int64(100+i), "Groceries", "2024-03-01"))
		created = append(created, e)
	}

	s.Delete(ctx, created[2].ID)
	list := s.List(ctx)
	if len(list) != 4 {
		t.Fatalf("expected 4 records, got %d", len(list))
	}
	want := []core.Expense{created[0], created[1], created[3], created[4]}
	for i := range want {
		if list[i] != want[i] {
			t.Fatalf("record %d altered: %+v vs %+v", i, list[i], want[i])
		}
	}

	_, rev := s.Snapshot(ctx)
	s.Delete(ctx, "missing")
	if items, after := s.Snapshot(ctx); len(items) != 4 || after != rev {
		t.Fatalf("delete of absent id changed the store")
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())
	a, _ := s.Create(ctx, input("a", 100, "Groceries", "2024-01-01"))
	b, _ := s.Create(ctx, input("b", 200, "Travel", "2024-01-02"))

	b.Title = "b2"
	b.Amount = core.Money{Cents: 250}
	if err := s.Update(ctx, b); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := s.Get(ctx, b.ID)
	if !ok || got != b {
		t.Fatalf("get after update = %+v, %v", got, ok)
	}
	if list := s.List(ctx); list[0] != a || list[1] != b {
		t.Fatalf("update changed order or other records: %+v", list)
	}

	before := s.List(ctx)
	ghost := b
	ghost.ID = "ghost"
	if err := s.Update(ctx, ghost); err != nil {
		t.Fatalf("update of unknown id should be a no-op, got %v", err)
	}
	after := s.List(ctx)
	if len(after) != len(before) || after[0] != before[0] || after[1] != before[1] {
		t.Fatalf("collection changed by update of unknown id")
	}

	bad := a
	bad.Amount = core.Money{}
	if err := s.Update(ctx, bad); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got, _ := s.Get(ctx, a.ID); got != a {
		t.Fatalf("rejected update altered the record")
	}
}

func TestWriteFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(failingKV{memory.New()})
	e, err := s.Create(ctx, input("Coffee", 450, "Dining Out", "2024-01-15"))
	if err != nil {
		t.Fatalf("write failure must not surface: %v", err)
	}
	if list := s.List(ctx); len(list) != 1 || list[0].ID != e.ID {
		t.Fatalf("in-memory state lost after write failure")
	}
}

func TestUnreadableCollectionFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	backing := memory.NewSeeded(map[string][]byte{kv.KeyExpenses: []byte(`{"oops"`)})
	s := NewExpenseStore(backing)
	if n := len(s.List(ctx)); n != 0 {
		t.Fatalf("expected empty collection, got %d", n)
	}
	if _, err := s.Create(ctx, input("a", 1, "Other", "2024-01-01")); err != nil {
		t.Fatalf("create after bad load: %v", err)
	}
	if n := len(NewExpenseStore(backing).List(ctx)); n != 1 {
		t.Fatalf("next write should repair storage, got %d records", n)
	}
}

func TestLoadSkipsDuplicateIDs(t *testing.T) {
	raw := `[{"id":"x","title":"a","amount":1,"category":"Other","date":"2024-01-01"},
	         {"id":"x","title":"b","amount":2,"category":"Other","date":"2024-01-01"}]`
	s := NewExpenseStore(memory.NewSeeded(map[string][]byte{kv.KeyExpenses: []byte(raw)}))
	list := s.List(context.Background())
	if len(list) != 1 || list[0].Title != "a" {
		t.Fatalf("expected first record only, got %+v", list)
	}
}

func TestNotifierReceivesChanges(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("broker down")}
	s := NewExpenseStore(memory.New(), WithNotifier(n), WithIDGenerator(func() string { return "id1" }))
	e, err := s.Create(ctx, input("a", 1, "Other", "2024-01-01"))
	if err != nil {
		t.Fatalf("notifier failure must not surface: %v", err)
	}
	_ = s.Update(ctx, e)
	s.Delete(ctx, e.ID)
	s.Delete(ctx, e.ID)

	want := []string{"created:id1", "updated:id1", "deleted:id1"}
	if fmt.Sprint(n.events) != fmt.Sprint(want) {
		t.Fatalf("events = %v, want %v", n.events, want)
	}
}

func TestListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())
	_, _ = s.Create(ctx, input("a", 1, "Other", "2024-01-01"))
	list := s.List(ctx)
	list[0].Title = "mutated"
	if s.List(ctx)[0].Title != "a" {
		t.Fatalf("List exposed internal storage")
	}
}

func TestSnapshotPairsItemsWithRevision(t *testing.T) {
	ctx := context.Background()
	s := NewExpenseStore(memory.New())

	items, rev := s.Snapshot(ctx)
	if len(items) != 0 || rev != 0 {
		t.Fatalf("fresh store snapshot = %d items at rev %d", len(items), rev)
	}

	a, _ := s.Create(ctx, input("a", 100, "Groceries", "2024-01-01"))
	items, rev = s.Snapshot(ctx)
	if len(items) != 1 || rev != 1 {
		t.Fatalf("after create: %d items at rev %d", len(items), rev)
	}

	items[0].Title = "mutated"
	a.Amount = core.Money{Cents: 250}
	if err := s.Update(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, rev = s.Snapshot(ctx)
	if rev != 2 || items[0].Title != "a" || items[0].Amount.Cents != 250 {
		t.Fatalf("after update: %+v at rev %d", items, rev)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, input("c", 100, "Travel", "2024-01-02"))
		}()
	}
	for i := 0; i < 8; i++ {
		items, rev := s.Snapshot(ctx)
		// one create per revision after the update
		if want := uint64(len(items)) + 1; rev != want {
			t.Errorf("snapshot of %d items carries rev %d, want %d", len(items), rev, want)
		}
	}
	wg.Wait()
}
