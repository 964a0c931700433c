package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// DateLayout is the canonical on-disk encoding for transaction dates.
const DateLayout = "2006-01-02"

type (
	// Kind partitions transactions into the two ledger sides.
	Kind string

	// Month is a calendar month in YYYY-MM form.
	Month string

	// Settings is the open-ended per-user preference map (currency code,
	// notification toggles and whatever the presentation layer stores).
	Settings map[string]string

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		RegisteredAt time.Time
		Settings     Settings
	}

	Transaction struct {
		ID          int64
		Kind        Kind
		Amount      float64
		Category    string
		Description string
		Date        time.Time
		OwnerID     int64
	}

	Budget struct {
		ID        int64
		Category  string
		Amount    float64
		Month     Month
		OwnerID   int64
		CreatedAt time.Time
	}
)

var monthRe = regexp.MustCompile(`^\d{4}-\d{2}$`)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// CurrentMonth returns the month containing the current wall-clock time.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}

// Validate checks the YYYY-MM shape, the month range and that the month is
// not later than the current calendar month.
func (m Month) Validate() error {
	if m == "" {
		return &ValidationError{Field: "month", Reason: "month cannot be empty"}
	}
	if !monthRe.MatchString(string(m)) {
		return &ValidationError{Field: "month", Reason: "month must use the YYYY-MM format"}
	}
	var year, month int
	if _, err := fmt.Sscanf(string(m), "%d-%d", &year, &month); err != nil {
		return &ValidationError{Field: "month", Reason: "month must use the YYYY-MM format"}
	}
	if month < 1 || month > 12 {
		return &ValidationError{Field: "month", Reason: "month must be between 01 and 12"}
	}
	if m > CurrentMonth() {
		return &ValidationError{Field: "month", Reason: "budgets cannot target future months"}
	}
	return nil
}

// Merge returns a copy of s overlaid with partial. Neither input is mutated.
func (s Settings) Merge(partial Settings) Settings {
	out := make(Settings, len(s)+len(partial))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// NormalizeEmail lowercases and trims an email the way every write path
// stores it, so uniqueness is case and whitespace insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: `kind must be "income" or "expense"`}
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if err := ValidateCategory(t.Category); err != nil {
		return err
	}
	if err := ValidateCategoryForKind(t.Kind, t.Category); err != nil {
		return err
	}
	if err := ValidateTransactionDate(t.Date); err != nil {
		return err
	}
	return ValidateDescription(t.Description)
}

func (b Budget) Validate() error {
	if err := ValidateCategory(b.Category); err != nil {
		return err
	}
	if err := ValidateAmount(b.Amount); err != nil {
		return err
	}
	return b.Month.Validate()
}
