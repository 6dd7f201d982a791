package form

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/kv/memory"
	"expensetracker/internal/services"
)

func TestParseValid(t *testing.T) {
	sub, err := Parse(Input{Title: "  Coffee ", Amount: "4.5", Category: "Dining Out", Date: "2024-01-15"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sub.IsEdit() {
		t.Fatalf("expected add mode")
	}
	if sub.Expense.Title != "Coffee" || sub.Expense.Amount.Cents != 450 || sub.Expense.Date.String() != "2024-01-15" {
		t.Fatalf("unexpected submission %+v", sub)
	}

	// Category passes through uninterpreted.
	sub, err = Parse(Input{ID: "x", Title: "a", Amount: "1", Category: "Whatever", Date: "2024-01-15"})
	if err != nil || sub.Expense.Category != "Whatever" || !sub.IsEdit() {
		t.Fatalf("unexpected %+v err=%v", sub, err)
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []Input{
		{Title: "", Amount: "1", Date: "2024-01-01"},
		{Title: "   ", Amount: "1", Date: "2024-01-01"},
		{Title: "a", Amount: "", Date: "2024-01-01"},
		{Title: "a", Amount: "0", Date: "2024-01-01"},
		{Title: "a", Amount: "-3", Date: "2024-01-01"},
		{Title: "a", Amount: "abc", Date: "2024-01-01"},
		{Title: "a", Amount: "Infinity", Date: "2024-01-01"},
		{Title: "a", Amount: "46116860184273879.03", Date: "2024-01-01"},
		{Title: "a", Amount: "1", Date: "not a date"},
	}
	for i, in := range cases {
		_, err := Parse(in)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d expected ErrInvalid, got %v", i, err)
		}
	}
}

func TestSubmitCreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := services.NewExpenseStore(memory.New())

	sub, _ := Parse(Input{Title: "Coffee", Amount: "4.50", Category: "Dining Out", Date: "2024-01-15"})
	created, err := Submit(ctx, store, sub)
	if err != nil || created.ID == "" {
		t.Fatalf("create: %+v err=%v", created, err)
	}

	in := FromExpense(created)
	in.Amount = "5.25"
	sub, err = Parse(in)
	if err != nil {
		t.Fatalf("parse edit: %v", err)
	}
	if _, err := Submit(ctx, store, sub); err != nil {
		t.Fatalf("update: %v", err)
	}
	list := store.List(ctx)
	if len(list) != 1 || list[0].Amount.Cents != 525 || list[0].ID != created.ID {
		t.Fatalf("unexpected list after edit: %+v", list)
	}
}

func TestRejectedFormDoesNotTouchStore(t *testing.T) {
	ctx := context.Background()
	store := services.NewExpenseStore(memory.New())
	if _, err := Parse(Input{Title: "Zero", Amount: "0", Category: "Other", Date: "2024-01-01"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(store.List(ctx)) != 0 {
		t.Fatalf("store changed")
	}
}

func TestBlank(t *testing.T) {
	b := Blank()
	if b.Category != "Groceries" || b.Date != core.Today().String() || b.ID != "" {
		t.Fatalf("unexpected blank form %+v", b)
	}
}
