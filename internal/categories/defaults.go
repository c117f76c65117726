package categories

import "github.com/cleared-dev/cartola/internal/model"

// Defaults returns the category set seeded into a new ledger.
func Defaults() []string {
	return []string{
		model.Uncategorized,
		"Groceries",
		"Dining",
		"Transport",
		"Fuel",
		"Housing",
		"Utilities",
		"Health",
		"Subscriptions",
		"Shopping",
		"Entertainment",
		"Travel",
		"Education",
		"Income",
		"Transfers",
	}
}
