package charts

import (
	"bytes"
	"errors"
	"testing"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
)

func TestSlicesLabelsAndColors(t *testing.T) {
	var b aggregate.Breakdown
	for i := 0; i < 11; i++ {
		b = append(b, core.CategoryAmount{Name: core.Categories[i%10] + string(rune('a'+i)), Amount: core.Money{Cents: 100}})
	}
	values := Slices(b)
	if len(values) != 11 {
		t.Fatalf("expected 11 slices, got %d", len(values))
	}
	if values[0].Label != "Groceriesa 9%" {
		t.Fatalf("label = %q", values[0].Label)
	}
	if values[0].Value != 1 {
		t.Fatalf("value = %v, want 1", values[0].Value)
	}
	if values[10].Style.FillColor != values[0].Style.FillColor {
		t.Fatalf("palette should cycle after ten colors")
	}
}

func TestCategoryPNG(t *testing.T) {
	g := NewChartGenerator()
	if _, err := g.CategoryPNG(nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}

	list := []core.Expense{
		{ID: "1", Title: "a", Amount: core.Money{Cents: 2000}, Category: "Groceries", Date: core.NewDate(2024, 1, 1)},
		{ID: "2", Title: "b", Amount: core.Money{Cents: 450}, Category: "Dining Out", Date: core.NewDate(2024, 1, 2)},
	}
	png, err := g.CategoryPNG(list)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG")
	}
}
