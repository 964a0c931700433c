package core

import (
	"fmt"
	"strings"
)

// Fixed category sets, partitioned by kind. Categories outside these lists
// are rejected at validation time.
var (
	IncomeCategories = []string{
		"Salary",
		"Freelance",
		"Investments",
		"Other Income",
	}

	ExpenseCategories = []string{
		"Food",
		"Transport",
		"Housing",
		"Leisure",
		"Utilities",
		"Health",
		"Education",
		"Security",
		"Other Expenses",
	}
)

// categoryColors drives the presentation layer's charts.
var categoryColors = map[string]string{
	"Salary":         "#10b981",
	"Freelance":      "#059669",
	"Investments":    "#0ea5e9",
	"Other Income":   "#3b82f6",
	"Food":           "#ec4899",
	"Transport":      "#ef4444",
	"Housing":        "#f97316",
	"Leisure":        "#eab308",
	"Utilities":      "#8b5cf6",
	"Health":         "#06b6d4",
	"Education":      "#84cc16",
	"Security":       "#6366f1",
	"Other Expenses": "#64748b",
}

const defaultCategoryColor = "#6b7280"

// CategoriesForKind returns the allowed category list for a kind. The
// returned slice is a copy.
func CategoriesForKind(k Kind) []string {
	switch k {
	case KindIncome:
		return append([]string(nil), IncomeCategories...)
	case KindExpense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

// ValidateCategoryForKind fails when category is not a member of the fixed
// set for kind; the error names the allowed list.
func ValidateCategoryForKind(k Kind, category string) error {
	allowed := CategoriesForKind(k)
	for _, c := range allowed {
		if c == category {
			return nil
		}
	}
	return &ValidationError{
		Field: "category",
		Reason: fmt.Sprintf("%q is not valid for %s transactions; allowed: %s",
			category, k, strings.Join(allowed, ", ")),
	}
}

// CategoryColor returns the chart color for a category, with a gray
// fallback for unknown names.
func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return defaultCategoryColor
}
