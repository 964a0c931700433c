package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finly/internal/core"
	"finly/internal/storage"
	"finly/internal/storage/filestore"
	"finly/internal/storage/sqlite"
)

// Both backends must behave identically behind the Store interface, so the
// whole suite runs once per implementation.
func TestStoreContract(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) storage.Store
	}{
		{
			name: "filestore",
			open: func(t *testing.T) storage.Store {
				return filestore.New(t.TempDir())
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) storage.Store {
				repo, err := sqlite.New(filepath.Join(t.TempDir(), "finly.db"))
				if err != nil {
					t.Fatalf("open sqlite: %v", err)
				}
				return repo
			},
		},
	}

	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			runContract(t, b.open)
		})
	}
}

func openStore(t *testing.T, open func(t *testing.T) storage.Store) storage.Store {
	t.Helper()
	store := open(t)
	t.Cleanup(func() { store.Close() })
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// Initialization is idempotent.
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("second initialize: %v", err)
	}
	return store
}

func runContract(t *testing.T, open func(t *testing.T) storage.Store) {
	ctx := context.Background()

	t.Run("user lifecycle", func(t *testing.T) {
		store := openStore(t, open)

		created, err := store.CreateUser(ctx, " Ana ", " Ana@X.Com ", "hash1")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		if created.Name != "Ana" || created.Email != "ana@x.com" {
			t.Fatalf("normalization: %+v", created)
		}
		if created.Settings == nil || len(created.Settings) != 0 {
			t.Fatalf("new user settings = %v, want empty map", created.Settings)
		}

		byEmail, err := store.GetUserByEmail(ctx, "ANA@x.com")
		if err != nil || byEmail.ID != created.ID {
			t.Fatalf("get by email: user=%+v err=%v", byEmail, err)
		}

		if _, err := store.CreateUser(ctx, "Other", "ana@x.com", "hash2"); !errors.Is(err, core.ErrEmailTaken) {
			t.Fatalf("duplicate email error = %v, want ErrEmailTaken", err)
		}
		if _, err := store.CreateUser(ctx, "Other", "  ANA@X.COM  ", "hash2"); !errors.Is(err, core.ErrEmailTaken) {
			t.Fatalf("case variant duplicate error = %v, want ErrEmailTaken", err)
		}

		updated, err := store.UpdateUser(ctx, created.ID, "Ana Maria", "ana.maria@x.com")
		if err != nil || updated.Name != "Ana Maria" || updated.Email != "ana.maria@x.com" {
			t.Fatalf("update user: user=%+v err=%v", updated, err)
		}
		if _, err := store.UpdateUser(ctx, 9999, "Ghost", "ghost@x.com"); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("update missing user error = %v, want ErrNotFound", err)
		}

		second, err := store.CreateUser(ctx, "Bo", "bo@x.com", "hash3")
		if err != nil {
			t.Fatalf("create second user: %v", err)
		}
		if _, err := store.UpdateUser(ctx, second.ID, "Bo", "ana.maria@x.com"); !errors.Is(err, core.ErrEmailTaken) {
			t.Fatalf("email collision on update error = %v, want ErrEmailTaken", err)
		}

		users, err := store.ListUsers(ctx)
		if err != nil || len(users) != 2 {
			t.Fatalf("list users: %v (err %v)", users, err)
		}
		if users[0].ID != second.ID {
			t.Fatalf("expected newest user first, got %+v", users[0])
		}

		if _, err := store.UpdateUserPassword(ctx, created.ID, "hash-v2"); err != nil {
			t.Fatalf("update password: %v", err)
		}
		reread, err := store.GetUserByID(ctx, created.ID)
		if err != nil || reread.PasswordHash != "hash-v2" {
			t.Fatalf("password not persisted: %+v err=%v", reread, err)
		}
	})

	t.Run("settings merge", func(t *testing.T) {
		store := openStore(t, open)

		u, err := store.CreateUser(ctx, "Ana", "ana@x.com", "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}

		first, err := store.UpdateUserSettings(ctx, u.ID, core.Settings{"currency": "EUR", "notify": "on"})
		if err != nil || first["currency"] != "EUR" {
			t.Fatalf("first merge: %v err=%v", first, err)
		}

		second, err := store.UpdateUserSettings(ctx, u.ID, core.Settings{"notify": "off"})
		if err != nil {
			t.Fatalf("second merge: %v", err)
		}
		if second["currency"] != "EUR" || second["notify"] != "off" {
			t.Fatalf("shallow merge lost keys: %v", second)
		}

		stored, err := store.GetUserSettings(ctx, u.ID)
		if err != nil || stored["currency"] != "EUR" || stored["notify"] != "off" {
			t.Fatalf("stored settings: %v err=%v", stored, err)
		}

		if _, err := store.GetUserSettings(ctx, 9999); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("settings of missing user error = %v, want ErrNotFound", err)
		}
	})

	t.Run("transactions", func(t *testing.T) {
		store := openStore(t, open)

		u, err := store.CreateUser(ctx, "Ana", "ana@x.com", "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}

		mk := func(day int, amount float64, category string) core.Transaction {
			created, err := store.AddTransaction(ctx, core.Transaction{
				Kind:        core.KindExpense,
				Amount:      amount,
				Category:    category,
				Description: "d",
				Date:        time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
				OwnerID:     u.ID,
			})
			if err != nil {
				t.Fatalf("add transaction: %v", err)
			}
			return created
		}

		oldest := mk(1, 10, "Food")
		newest := mk(20, 30, "Transport")
		middle := mk(10, 20, "Food")

		if oldest.ID == 0 || oldest.Amount != 10 || oldest.Category != "Food" {
			t.Fatalf("round trip lost fields: %+v", oldest)
		}

		all, err := store.ListTransactions(ctx, u.ID, 0)
		if err != nil || len(all) != 3 {
			t.Fatalf("list: %v err=%v", all, err)
		}
		if all[0].ID != newest.ID || all[1].ID != middle.ID || all[2].ID != oldest.ID {
			t.Fatalf("expected newest-first ordering, got %+v", all)
		}

		limited, err := store.ListTransactions(ctx, u.ID, 2)
		if err != nil || len(limited) != 2 || limited[0].ID != newest.ID {
			t.Fatalf("limited list: %v err=%v", limited, err)
		}

		// A transaction in another month stays out of the month listing.
		other, err := store.AddTransaction(ctx, core.Transaction{
			Kind:     core.KindExpense,
			Amount:   5,
			Category: "Food",
			Date:     time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC),
			OwnerID:  u.ID,
		})
		if err != nil {
			t.Fatalf("add other-month transaction: %v", err)
		}

		march, err := store.ListTransactionsForMonth(ctx, u.ID, "2024-03")
		if err != nil || len(march) != 3 {
			t.Fatalf("month list: %v err=%v", march, err)
		}
		for _, tx := range march {
			if tx.ID == other.ID {
				t.Fatal("other-month transaction leaked into month listing")
			}
		}

		stranger, err := store.CreateUser(ctx, "Bo", "bo@x.com", "hash")
		if err != nil {
			t.Fatalf("create second user: %v", err)
		}
		if err := store.DeleteTransaction(ctx, newest.ID, stranger.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("wrong-owner delete error = %v, want ErrNotFound", err)
		}
		if err := store.DeleteTransaction(ctx, newest.ID, u.ID); err != nil {
			t.Fatalf("owner delete: %v", err)
		}
		if err := store.DeleteTransaction(ctx, newest.ID, u.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("budgets", func(t *testing.T) {
		store := openStore(t, open)

		u, err := store.CreateUser(ctx, "Ana", "ana@x.com", "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}

		created, err := store.AddBudget(ctx, core.Budget{
			Category: "Food",
			Amount:   100000,
			Month:    "2024-03",
			OwnerID:  u.ID,
		})
		if err != nil || created.ID == 0 || created.CreatedAt.IsZero() {
			t.Fatalf("add budget: %+v err=%v", created, err)
		}

		if _, err := store.AddBudget(ctx, core.Budget{
			Category: "Transport", Amount: 40000, Month: "2024-02", OwnerID: u.ID,
		}); err != nil {
			t.Fatalf("add second budget: %v", err)
		}

		all, err := store.ListBudgets(ctx, u.ID, "")
		if err != nil || len(all) != 2 {
			t.Fatalf("list all budgets: %v err=%v", all, err)
		}

		march, err := store.ListBudgets(ctx, u.ID, "2024-03")
		if err != nil || len(march) != 1 || march[0].Category != "Food" {
			t.Fatalf("month-filtered budgets: %v err=%v", march, err)
		}

		created.Amount = 120000
		updated, err := store.UpdateBudget(ctx, created)
		if err != nil || updated.Amount != 120000 {
			t.Fatalf("update budget: %+v err=%v", updated, err)
		}

		ghost := created
		ghost.ID = 9999
		if _, err := store.UpdateBudget(ctx, ghost); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("update missing budget error = %v, want ErrNotFound", err)
		}

		stranger, err := store.CreateUser(ctx, "Bo", "bo@x.com", "hash")
		if err != nil {
			t.Fatalf("create second user: %v", err)
		}
		if err := store.DeleteBudget(ctx, created.ID, stranger.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("wrong-owner budget delete error = %v, want ErrNotFound", err)
		}
		if err := store.DeleteBudget(ctx, created.ID, u.ID); err != nil {
			t.Fatalf("delete budget: %v", err)
		}
	})

	t.Run("delete user cascades", func(t *testing.T) {
		store := openStore(t, open)

		u, err := store.CreateUser(ctx, "Ana", "ana@x.com", "hash")
		if err != nil {
			t.Fatalf("create user: %v", err)
		}
		keeper, err := store.CreateUser(ctx, "Bo", "bo@x.com", "hash")
		if err != nil {
			t.Fatalf("create second user: %v", err)
		}

		for _, owner := range []int64{u.ID, keeper.ID} {
			if _, err := store.AddTransaction(ctx, core.Transaction{
				Kind: core.KindExpense, Amount: 10, Category: "Food",
				Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), OwnerID: owner,
			}); err != nil {
				t.Fatalf("add transaction: %v", err)
			}
			if _, err := store.AddBudget(ctx, core.Budget{
				Category: "Food", Amount: 100, Month: "2024-03", OwnerID: owner,
			}); err != nil {
				t.Fatalf("add budget: %v", err)
			}
		}

		if err := store.DeleteUser(ctx, u.ID); err != nil {
			t.Fatalf("delete user: %v", err)
		}
		if _, err := store.GetUserByID(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("deleted user still readable: %v", err)
		}

		gone, err := store.ListTransactions(ctx, u.ID, 0)
		if err != nil || len(gone) != 0 {
			t.Fatalf("orphaned transactions: %v err=%v", gone, err)
		}
		goneBudgets, err := store.ListBudgets(ctx, u.ID, "")
		if err != nil || len(goneBudgets) != 0 {
			t.Fatalf("orphaned budgets: %v err=%v", goneBudgets, err)
		}

		kept, err := store.ListTransactions(ctx, keeper.ID, 0)
		if err != nil || len(kept) != 1 {
			t.Fatalf("other user's transactions disturbed: %v err=%v", kept, err)
		}

		if err := store.DeleteUser(ctx, u.ID); !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("second delete error = %v, want ErrNotFound", err)
		}
	})
}
