// Package form turns raw expense form input into a store submission.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/metrics"
)

// ErrInvalid is the single message shown for any invalid field.
var ErrInvalid = errors.New("Please fill in all fields with valid values. Amount must be positive.")

// Input is the raw text of the expense form. A non-empty ID means edit mode.
type Input struct {
	ID       string
	Title    string
	Amount   string
	Category string
	Date     string
}

// Submission is a validated form ready for the store.
type Submission struct {
	ID      string
	Expense core.ExpenseInput
}

// IsEdit reports whether the submission updates an existing record.
func (s Submission) IsEdit() bool {
	return s.ID != ""
}

// Parse validates in. Every failure maps to ErrInvalid; the underlying cause
// is kept in the chain for logging.
func Parse(in Input) (Submission, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Submission{}, invalid(core.ErrEmptyTitle)
	}
	cents, err := core.ParseDecimalToCents(in.Amount)
	if err != nil {
		return Submission{}, invalid(err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return Submission{}, invalid(err)
	}
	return Submission{
		ID: strings.TrimSpace(in.ID),
		Expense: core.ExpenseInput{
			Title:    title,
			Amount:   core.Money{Cents: cents},
			Category: in.Category,
			Date:     date,
		},
	}, nil
}

func invalid(cause error) error {
	metrics.ValidationFailures.Inc()
	return fmt.Errorf("%w (%w)", ErrInvalid, cause)
}

// Store is the part of the expense store a form submits to.
type Store interface {
	Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	Update(ctx context.Context, e core.Expense) error
}

// Submit creates a new record or replaces the one named by sub.ID. It
// returns the record as stored (or as submitted, for updates).
func Submit(ctx context.Context, store Store, sub Submission) (core.Expense, error) {
	if !sub.IsEdit() {
		return store.Create(ctx, sub.Expense)
	}
	e := sub.Expense.WithID(sub.ID)
	if err := store.Update(ctx, e); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// FromExpense pre-fills the form for editing e.
func FromExpense(e core.Expense) Input {
	return Input{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount.String(),
		Category: e.Category,
		Date:     e.Date.String(),
	}
}

// Blank returns a fresh add-mode form for today.
func Blank() Input {
	return Input{Category: core.DefaultCategory(), Date: core.Today().String()}
}
