package core

import (
	"reflect"
	"testing"
	"time"
)

func expense(amount float64, category string) Transaction {
	return Transaction{
		Kind:     KindExpense,
		Amount:   amount,
		Category: category,
		Date:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		OwnerID:  1,
	}
}

func income(amount float64, category string) Transaction {
	t := expense(amount, category)
	t.Kind = KindIncome
	return t
}

func TestSummarizePercentages(t *testing.T) {
	s := Summarize("2024-03", []Transaction{
		expense(300, "Food"),
		expense(700, "Transport"),
	})

	if s.Expenses != 1000 || s.Income != 0 || s.Balance != -1000 {
		t.Fatalf("totals: income=%v expenses=%v balance=%v", s.Income, s.Expenses, s.Balance)
	}
	want := []CategoryAmount{
		{Category: "Transport", Amount: 700, Percent: 70},
		{Category: "Food", Amount: 300, Percent: 30},
	}
	if !reflect.DeepEqual(s.ExpensesByCategory, want) {
		t.Fatalf("breakdown = %+v, want %+v", s.ExpensesByCategory, want)
	}
	if s.TransactionCount != 2 {
		t.Fatalf("count = %d, want 2", s.TransactionCount)
	}
}

func TestSummarizeZeroTotalPercent(t *testing.T) {
	// No income at all: income rows would divide by zero.
	s := Summarize("2024-03", []Transaction{expense(50, "Food")})
	if len(s.IncomeByCategory) != 0 {
		t.Fatalf("unexpected income rows: %+v", s.IncomeByCategory)
	}

	for _, row := range s.ExpensesByCategory {
		if row.Percent != 100 {
			t.Fatalf("single category percent = %d, want 100", row.Percent)
		}
	}
}

func TestSummarizeMixedKinds(t *testing.T) {
	s := Summarize("2024-03", []Transaction{
		income(2000, "Salary"),
		income(500, "Freelance"),
		expense(800, "Housing"),
	})

	if s.Income != 2500 || s.Expenses != 800 || s.Balance != 1700 {
		t.Fatalf("totals: income=%v expenses=%v balance=%v", s.Income, s.Expenses, s.Balance)
	}
	if s.IncomeByCategory[0].Category != "Salary" || s.IncomeByCategory[0].Percent != 80 {
		t.Fatalf("salary row = %+v", s.IncomeByCategory[0])
	}
	if s.IncomeByCategory[1].Percent != 20 {
		t.Fatalf("freelance row = %+v", s.IncomeByCategory[1])
	}
}

func TestSummarizeTiesKeepSourceOrder(t *testing.T) {
	s := Summarize("2024-03", []Transaction{
		expense(100, "Leisure"),
		expense(100, "Food"),
		expense(100, "Health"),
	})

	got := []string{
		s.ExpensesByCategory[0].Category,
		s.ExpensesByCategory[1].Category,
		s.ExpensesByCategory[2].Category,
	}
	want := []string{"Leisure", "Food", "Health"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tie order = %v, want %v", got, want)
	}
}

func TestSummarizeAccumulatesSameCategory(t *testing.T) {
	s := Summarize("2024-03", []Transaction{
		expense(30, "Food"),
		expense(70, "Food"),
	})

	if len(s.ExpensesByCategory) != 1 {
		t.Fatalf("expected one row, got %+v", s.ExpensesByCategory)
	}
	if s.ExpensesByCategory[0].Amount != 100 || s.ExpensesByCategory[0].Percent != 100 {
		t.Fatalf("row = %+v", s.ExpensesByCategory[0])
	}
}

func TestProgress(t *testing.T) {
	summary := Summarize("2024-03", []Transaction{expense(95000, "Food")})
	b := Budget{ID: 7, Category: "Food", Amount: 100000, Month: "2024-03"}

	p := Progress(b, summary)
	if p.Spent != 95000 || p.Percent != 95 || p.Remaining != 5000 {
		t.Fatalf("progress = %+v", p)
	}
	if got := Classify(p); got != AlertNearLimit {
		t.Fatalf("Classify = %v, want %v", got, AlertNearLimit)
	}
}

func TestProgressExceeded(t *testing.T) {
	summary := Summarize("2024-03", []Transaction{expense(150000, "Food")})
	b := Budget{ID: 7, Category: "Food", Amount: 100000, Month: "2024-03"}

	p := Progress(b, summary)
	if p.Percent != 150 || p.Remaining != -50000 {
		t.Fatalf("progress = %+v", p)
	}
	if got := Classify(p); got != AlertExceeded {
		t.Fatalf("Classify = %v, want %v", got, AlertExceeded)
	}
}

func TestProgressZeroTarget(t *testing.T) {
	summary := Summarize("2024-03", []Transaction{expense(40, "Food")})
	b := Budget{Category: "Food", Amount: 0}

	p := Progress(b, summary)
	if p.Percent != 0 {
		t.Fatalf("zero target percent = %v, want 0", p.Percent)
	}
	if p.Remaining != -40 {
		t.Fatalf("remaining = %v, want -40", p.Remaining)
	}
}

func TestProgressCategoryAbsent(t *testing.T) {
	summary := Summarize("2024-03", nil)
	b := Budget{Category: "Food", Amount: 100}

	p := Progress(b, summary)
	if p.Spent != 0 || p.Percent != 0 || p.Remaining != 100 {
		t.Fatalf("progress = %+v", p)
	}
	if got := Classify(p); got != AlertNone {
		t.Fatalf("Classify = %v, want %v", got, AlertNone)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		percent float64
		want    AlertLevel
	}{
		{0, AlertNone},
		{89.9, AlertNone},
		{90, AlertNearLimit},
		{100, AlertNearLimit},
		{100.1, AlertExceeded},
	}

	for _, tt := range tests {
		if got := Classify(BudgetProgress{Percent: tt.percent}); got != tt.want {
			t.Errorf("Classify(%v%%) = %v, want %v", tt.percent, got, tt.want)
		}
	}
}

func TestCategoryColorFallback(t *testing.T) {
	if CategoryColor("Food") == CategoryColor("Unknown Thing") {
		t.Fatal("known category should not use the fallback color")
	}
	if CategoryColor("Unknown Thing") != defaultCategoryColor {
		t.Fatal("unknown category should use the fallback color")
	}
}
