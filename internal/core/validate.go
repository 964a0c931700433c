package core

import (
	"regexp"
	"strings"
	"time"
)

// MaxAmount is the upper bound for transaction and budget amounts.
const MaxAmount = 1_000_000_000

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateName checks the user display name: non-empty after trim, at most
// 50 characters.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "name cannot be empty"}
	}
	if len(name) > 50 {
		return &ValidationError{Field: "name", Reason: "name cannot exceed 50 characters"}
	}
	return nil
}

// ValidateEmail checks the local@domain.tld shape and the 100 character cap.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Reason: "email cannot be empty"}
	}
	if !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "email format is not valid"}
	}
	if len(email) > 100 {
		return &ValidationError{Field: "email", Reason: "email cannot exceed 100 characters"}
	}
	return nil
}

// ValidatePassword checks the 6-50 character length bounds on the plaintext
// input. Hashing happens after validation, in the account service.
func ValidatePassword(password string) error {
	if password == "" {
		return &ValidationError{Field: "password", Reason: "password cannot be empty"}
	}
	if len(password) < 6 {
		return &ValidationError{Field: "password", Reason: "password must have at least 6 characters"}
	}
	if len(password) > 50 {
		return &ValidationError{Field: "password", Reason: "password cannot exceed 50 characters"}
	}
	return nil
}

// ValidateAmount checks that an amount is positive and within MaxAmount.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "amount must be greater than 0"}
	}
	if amount > MaxAmount {
		return &ValidationError{Field: "amount", Reason: "amount cannot exceed 1,000,000,000"}
	}
	return nil
}

// ValidateCategory checks the free-form category constraints shared by
// transactions and budgets. Kind membership is checked separately.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return &ValidationError{Field: "category", Reason: "category cannot be empty"}
	}
	if len(category) > 50 {
		return &ValidationError{Field: "category", Reason: "category cannot exceed 50 characters"}
	}
	return nil
}

// ValidateTransactionDate rejects zero and future dates.
func ValidateTransactionDate(date time.Time) error {
	if date.IsZero() {
		return &ValidationError{Field: "date", Reason: "date cannot be empty"}
	}
	if date.After(time.Now()) {
		return &ValidationError{Field: "date", Reason: "transactions cannot have a future date"}
	}
	return nil
}

// ValidateDescription allows empty descriptions but caps length at 200.
func ValidateDescription(description string) error {
	if len(description) > 200 {
		return &ValidationError{Field: "description", Reason: "description cannot exceed 200 characters"}
	}
	return nil
}
