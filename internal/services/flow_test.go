package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finly/internal/core"
	"finly/internal/notify"
	"finly/internal/session"
	"finly/internal/storage/filestore"
)

// Exercises the whole happy path over one shared store: sign up, miss a
// login, log in, record an expense and read it back through the summary.
func TestSignupToSummaryFlow(t *testing.T) {
	store := filestore.New(t.TempDir())
	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("initialize store: %v", err)
	}

	hub := notify.NewHub(nil)
	accounts := NewAccountService(store, hub, session.NewManager())
	ledger := NewLedgerService(store, hub)

	if _, err := accounts.Register(ctx, "Ana", "Ana@X.Com", "secret1", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := accounts.Login(ctx, "ana@x.com", "wrong-password"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Fatalf("bad login error = %v, want ErrInvalidCredentials", err)
	}

	user, err := accounts.Login(ctx, "ana@x.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	accounts.SetCurrentUser(ctx, user)

	if _, err := ledger.AddTransaction(ctx, core.Transaction{
		Kind:     core.KindExpense,
		Amount:   50000,
		Category: "Food",
		Date:     time.Now(),
		OwnerID:  user.ID,
	}); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	s, err := ledger.MonthlySummary(ctx, user.ID, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Expenses != 50000 || s.Balance != -50000 || s.TransactionCount != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if s.ExpenseFor("Food") != 50000 {
		t.Fatalf("food total = %v, want 50000", s.ExpenseFor("Food"))
	}
}
