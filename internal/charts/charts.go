// Package charts renders the category breakdown as a pie chart.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"expensetracker/internal/aggregate"
	"expensetracker/internal/core"
)

// ContentType of the rendered image.
const ContentType = "image/png"

// ErrNoData is returned for an empty breakdown.
var ErrNoData = errors.New("no expense data to chart")

// Palette is cycled over categories in breakdown order.
var Palette = []string{
	"6200ea", "03dac6", "cf6679", "bb86fc", "f2a03d",
	"4caf50", "2196f3", "ffc107", "e91e63", "9c27b0",
}

type ChartGenerator struct {
	Width  int
	Height int
}

func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{Width: 800, Height: 500}
}

// Slices builds the chart values: one per category, labelled
// "<name> <pct>%". Unknown categories keep their stored label.
func Slices(b aggregate.Breakdown) []chart.Value {
	shares := b.Percentages()
	values := make([]chart.Value, 0, len(shares))
	for i, s := range shares {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %d%%", s.Name, s.Percent),
			Value: float64(s.Amount.Cents) / 100,
			Style: chart.Style{
				FillColor:   drawing.ColorFromHex(Palette[i%len(Palette)]),
				StrokeColor: chart.ColorWhite,
				StrokeWidth: 1,
			},
		})
	}
	return values
}

// RenderCategoryPie writes a PNG pie chart of the breakdown to w.
func (g *ChartGenerator) RenderCategoryPie(w io.Writer, b aggregate.Breakdown) error {
	if len(b) == 0 {
		return ErrNoData
	}
	pie := chart.PieChart{
		Title:  "Spending by category",
		Width:  g.Width,
		Height: g.Height,
		Values: Slices(b),
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 40, Right: 40, Bottom: 40},
			FillColor: chart.ColorWhite,
		},
	}
	if err := pie.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render category pie: %w", err)
	}
	return nil
}

// CategoryPNG renders the pie chart for expenses into memory.
func (g *ChartGenerator) CategoryPNG(expenses []core.Expense) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.RenderCategoryPie(&buf, aggregate.CategoryBreakdown(expenses)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
