// Package aggregate derives totals and category breakdowns from a snapshot
// of expenses. Everything is recomputed on each call; nothing is cached here.
package aggregate

import (
	"slices"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// TotalSpend sums all amounts in integer cents. An empty slice sums to zero.
// Each amount is at most core.MaxCents, so the sum fits int64 for any
// collection under roughly nine hundred thousand records at the cap.
func TotalSpend(expenses []core.Expense) core.Money {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return core.Money{Cents: total}
}

// ItemCount returns the number of records.
func ItemCount(expenses []core.Expense) int {
	return len(expenses)
}

// CategoryBreakdown sums amounts per category label, in order of first
// appearance. Categories without records are omitted.
func CategoryBreakdown(expenses []core.Expense) Breakdown {
	index := make(map[string]int)
	var out Breakdown
	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, core.CategoryAmount{Name: e.Category})
		}
		out[i].Amount.Cents += e.Amount.Cents
	}
	return out
}

// Summarize bundles total, count and breakdown.
func Summarize(expenses []core.Expense) core.Summary {
	return core.Summary{
		Total:      TotalSpend(expenses),
		Count:      ItemCount(expenses),
		ByCategory: CategoryBreakdown(expenses),
	}
}

// SortByDateDesc returns a copy sorted newest first. Records on the same
// date keep their insertion order.
func SortByDateDesc(expenses []core.Expense) []core.Expense {
	out := slices.Clone(expenses)
	slices.SortStableFunc(out, func(a, b core.Expense) int {
		return b.Date.Compare(a.Date.Time)
	})
	return out
}

// Breakdown is an ordered category breakdown.
type Breakdown []core.CategoryAmount

// Map returns the breakdown keyed by category.
func (b Breakdown) Map() map[string]core.Money {
	m := make(map[string]core.Money, len(b))
	for _, c := range b {
		m[c.Name] = c.Amount
	}
	return m
}

// Total sums the breakdown; it always equals TotalSpend of the same input.
func (b Breakdown) Total() core.Money {
	var total int64
	for _, c := range b {
		total += c.Amount.Cents
	}
	return core.Money{Cents: total}
}

// Share is one category's whole-percent share of the total.
type Share struct {
	Name    string
	Amount  core.Money
	Percent int
}

// Percentages computes each category's share of the breakdown total,
// rounded half-up to whole percents. The arithmetic runs in decimal so large
// amounts cannot overflow.
func (b Breakdown) Percentages() []Share {
	total := decimal.Zero
	for _, c := range b {
		total = total.Add(decimal.NewFromInt(c.Amount.Cents))
	}
	hundred := decimal.NewFromInt(100)

	out := make([]Share, 0, len(b))
	for _, c := range b {
		pct := 0
		if total.IsPositive() {
			share := decimal.NewFromInt(c.Amount.Cents).Mul(hundred).Div(total)
			pct = int(share.Round(0).IntPart())
		}
		out = append(out, Share{Name: c.Name, Amount: c.Amount, Percent: pct})
	}
	return out
}
