package storage

import (
	"context"

	"finly/internal/core"
)

// Store is the uniform persistence contract. Both backends satisfy it and
// both must pass the same contract tests; callers never see which one they
// talk to. All writes are durable when the call returns.
type Store interface {
	// Initialize prepares the schema or namespace. It is idempotent and
	// safe to call concurrently: one setup runs at a time, waiters share
	// its outcome and give up with core.ErrInitTimeout after a bounded
	// wait.
	Initialize(ctx context.Context) error
	Close() error

	ListUsers(ctx context.Context) ([]core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
	CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) (core.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) (core.User, error)
	GetUserSettings(ctx context.Context, id int64) (core.Settings, error)
	// UpdateUserSettings shallow-merges partial into the stored settings
	// and returns the merged map.
	UpdateUserSettings(ctx context.Context, id int64, partial core.Settings) (core.Settings, error)
	// DeleteUser removes the user and every transaction and budget they
	// own.
	DeleteUser(ctx context.Context, id int64) error

	AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// ListTransactions returns the owner's transactions newest-first;
	// limit <= 0 means no limit.
	ListTransactions(ctx context.Context, ownerID int64, limit int) ([]core.Transaction, error)
	ListTransactionsForMonth(ctx context.Context, ownerID int64, month core.Month) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id, ownerID int64) error

	AddBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, id, ownerID int64) error
	// ListBudgets returns the owner's budgets; an empty month means all
	// months.
	ListBudgets(ctx context.Context, ownerID int64, month core.Month) ([]core.Budget, error)
}
