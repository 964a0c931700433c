package core

import (
	"math"
	"sort"
)

type (
	// CategoryAmount is one row of a per-category breakdown. Percent is the
	// rounded share of the same-kind total, 0 when that total is 0.
	CategoryAmount struct {
		Category string
		Amount   float64
		Percent  int
	}

	// MonthlySummary aggregates one user's transactions for one month.
	MonthlySummary struct {
		Month              Month
		Income             float64
		Expenses           float64
		Balance            float64
		IncomeByCategory   []CategoryAmount
		ExpensesByCategory []CategoryAmount
		TransactionCount   int
	}

	// BudgetProgress measures spending against one budget's monthly cap.
	BudgetProgress struct {
		BudgetID  int64
		Category  string
		Target    float64
		Spent     float64
		Percent   float64
		Remaining float64
	}

	// AlertLevel classifies budget consumption for the presentation layer.
	AlertLevel string
)

const (
	AlertNone      AlertLevel = "none"
	AlertNearLimit AlertLevel = "near_limit"
	AlertExceeded  AlertLevel = "exceeded"
)

// Summarize computes the monthly summary for a set of transactions already
// filtered to one owner and one month.
func Summarize(month Month, txs []Transaction) MonthlySummary {
	s := MonthlySummary{Month: month, TransactionCount: len(txs)}

	incomeBy := map[string]float64{}
	expenseBy := map[string]float64{}
	var incomeOrder, expenseOrder []string

	for _, t := range txs {
		switch t.Kind {
		case KindIncome:
			s.Income += t.Amount
			if _, seen := incomeBy[t.Category]; !seen {
				incomeOrder = append(incomeOrder, t.Category)
			}
			incomeBy[t.Category] += t.Amount
		case KindExpense:
			s.Expenses += t.Amount
			if _, seen := expenseBy[t.Category]; !seen {
				expenseOrder = append(expenseOrder, t.Category)
			}
			expenseBy[t.Category] += t.Amount
		}
	}

	s.Balance = s.Income - s.Expenses
	s.IncomeByCategory = breakdown(incomeOrder, incomeBy, s.Income)
	s.ExpensesByCategory = breakdown(expenseOrder, expenseBy, s.Expenses)
	return s
}

// breakdown builds the per-category rows sorted by amount descending; ties
// keep first-seen source order.
func breakdown(order []string, amounts map[string]float64, total float64) []CategoryAmount {
	rows := make([]CategoryAmount, 0, len(order))
	for _, cat := range order {
		amount := amounts[cat]
		percent := 0
		if total > 0 {
			percent = int(math.Round(amount / total * 100))
		}
		rows = append(rows, CategoryAmount{Category: cat, Amount: amount, Percent: percent})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount > rows[j].Amount
	})
	return rows
}

// ExpenseFor returns the summarized expense amount for a category, 0 when
// the category has no expenses that month.
func (s MonthlySummary) ExpenseFor(category string) float64 {
	for _, row := range s.ExpensesByCategory {
		if row.Category == category {
			return row.Amount
		}
	}
	return 0
}

// Progress measures a budget against the summary for its month. A zero or
// negative target yields 0 percent rather than dividing by zero.
func Progress(b Budget, s MonthlySummary) BudgetProgress {
	spent := s.ExpenseFor(b.Category)
	percent := 0.0
	if b.Amount > 0 {
		percent = spent / b.Amount * 100
	}
	return BudgetProgress{
		BudgetID:  b.ID,
		Category:  b.Category,
		Target:    b.Amount,
		Spent:     spent,
		Percent:   percent,
		Remaining: b.Amount - spent,
	}
}

// Classify maps consumption to an alert level: near the limit from 90% up
// to and including 100%, exceeded strictly above 100%.
func Classify(p BudgetProgress) AlertLevel {
	switch {
	case p.Percent > 100:
		return AlertExceeded
	case p.Percent >= 90:
		return AlertNearLimit
	default:
		return AlertNone
	}
}
