package services

import (
	"fmt"
	"sync"

	"finly/internal/core"
)

// AlertTracker deduplicates budget alerts: each (budget, level) pair fires
// at most once per tracker lifetime, so a view refresh does not re-notify
// for budgets the user has already seen. The presentation layer keeps one
// tracker per view or session and resets it on data reload.
type AlertTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewAlertTracker() *AlertTracker {
	return &AlertTracker{seen: make(map[string]struct{})}
}

// ShouldAlert reports whether an alert for this budget and level has not
// fired yet, and marks it fired. AlertNone never fires.
func (t *AlertTracker) ShouldAlert(budgetID int64, level core.AlertLevel) bool {
	if level == core.AlertNone {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	key := fmt.Sprintf("%d:%s", budgetID, level)
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Reset forgets every fired alert.
func (t *AlertTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen = make(map[string]struct{})
}
