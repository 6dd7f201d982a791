package core

// CategoryOther is the catch-all label; unknown categories display as it.
const CategoryOther = "Other"

// Categories lists the labels offered by the expense form, in display order.
var Categories = []string{
	"Groceries",
	"Utilities",
	"Rent/Mortgage",
	"Transportation",
	"Entertainment",
	"Healthcare",
	"Dining Out",
	"Shopping",
	"Travel",
	CategoryOther,
}

var knownCategories = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		m[c] = struct{}{}
	}
	return m
}()

// IsKnownCategory reports whether name is one of Categories.
func IsKnownCategory(name string) bool {
	_, ok := knownCategories[name]
	return ok
}

// DisplayCategory maps unrecognized labels to CategoryOther. Stored values
// are never rewritten.
func DisplayCategory(name string) string {
	if IsKnownCategory(name) {
		return name
	}
	return CategoryOther
}

// DefaultCategory is preselected on a fresh form.
func DefaultCategory() string {
	return Categories[0]
}
