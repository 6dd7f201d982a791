// Package export serializes expenses to CSV.
//
// Only the title column is quoted: ids, amounts, categories and dates are
// constrained formats that never contain the delimiter or a quote.
package export

import (
	"errors"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// ContentType is the MIME type of the exported file.
const ContentType = "text/csv"

// Header is the fixed column order.
var Header = []string{"ID", "Title", "Amount", "Category", "Date"}

// ErrEmptyInput is returned instead of producing a file with no data rows.
var ErrEmptyInput = errors.New("no expenses to export")

// ToCSV encodes expenses in the given order. Rows are separated by "\n" with
// no trailing separator.
func ToCSV(expenses []core.Expense) (string, error) {
	if len(expenses) == 0 {
		return "", ErrEmptyInput
	}

	var b strings.Builder
	b.WriteString(strings.Join(Header, ","))
	for _, e := range expenses {
		b.WriteByte('\n')
		b.WriteString(e.ID)
		b.WriteByte(',')
		b.WriteString(quote(e.Title))
		b.WriteByte(',')
		b.WriteString(e.Amount.String())
		b.WriteByte(',')
		b.WriteString(e.Category)
		b.WriteByte(',')
		b.WriteString(e.Date.String())
	}
	return b.String(), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename returns expenses-YYYY-MM-DD.csv for the given day.
func Filename(day time.Time) string {
	return "expenses-" + day.Format(core.DateLayout) + ".csv"
}
