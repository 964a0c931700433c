package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finly/internal/core"
	"finly/internal/storage"

	_ "modernc.org/sqlite"
)

// Repository is the embedded relational backend.
type Repository struct {
	db    *sql.DB
	path  string
	guard *storage.InitGuard
}

// New opens the database file, creating its directory if needed. The schema
// is not touched until Initialize runs.
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{
		db:    db,
		path:  dbPath,
		guard: storage.NewInitGuard(0),
	}, nil
}

// Initialize runs migrations behind the single-flight guard.
func (r *Repository) Initialize(ctx context.Context) error {
	return r.guard.Do(ctx, func() error {
		if err := RunMigrations(r.path); err != nil {
			return err
		}
		slog.InfoContext(ctx, "SQLite schema ready", "path", r.path)
		return nil
	})
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const userColumns = "id, name, email, password_hash, settings, registered_at"

func scanUser(row interface{ Scan(...any) error }) (core.User, error) {
	var (
		u            core.User
		settingsJSON string
		registeredAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &settingsJSON, &registeredAt); err != nil {
		return core.User{}, err
	}
	if err := json.Unmarshal([]byte(settingsJSON), &u.Settings); err != nil {
		return core.User{}, fmt.Errorf("decode settings: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, registeredAt)
	if err != nil {
		return core.User{}, fmt.Errorf("parse registered_at: %w", err)
	}
	u.RegisteredAt = ts
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id DESC")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ?", core.NormalizeEmail(email))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	registeredAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, settings, registered_at) VALUES (?, ?, ?, '{}', ?)",
		strings.TrimSpace(name), core.NormalizeEmail(email), passwordHash,
		registeredAt.Format(time.RFC3339))
	if isUniqueViolation(err) {
		return core.User{}, core.ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "email", core.NormalizeEmail(email))
	return r.GetUserByID(ctx, id)
}

func (r *Repository) UpdateUser(ctx context.Context, id int64, name, email string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ? WHERE id = ?",
		strings.TrimSpace(name), core.NormalizeEmail(email), id)
	if isUniqueViolation(err) {
		return core.User{}, core.ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.User{}, core.ErrNotFound
	}
	return r.GetUserByID(ctx, id)
}

func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id)
	if err != nil {
		return core.User{}, fmt.Errorf("update user password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.User{}, core.ErrNotFound
	}
	return r.GetUserByID(ctx, id)
}

func (r *Repository) GetUserSettings(ctx context.Context, id int64) (core.Settings, error) {
	u, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Settings == nil {
		return core.Settings{}, nil
	}
	return u.Settings, nil
}

func (r *Repository) UpdateUserSettings(ctx context.Context, id int64, partial core.Settings) (core.Settings, error) {
	current, err := r.GetUserSettings(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := current.Merge(partial)
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		"UPDATE users SET settings = ? WHERE id = ?", string(encoded), id); err != nil {
		return nil, fmt.Errorf("update user settings: %w", err)
	}
	return merged, nil
}

// DeleteUser removes the user and everything they own in one transaction,
// so no orphaned rows survive a partial failure.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE owner_id = ?", id); err != nil {
		return fmt.Errorf("delete user transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM budgets WHERE owner_id = ?", id); err != nil {
		return fmt.Errorf("delete user budgets: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	slog.InfoContext(ctx, "User deleted", "id", id)
	return nil
}

const transactionColumns = "id, kind, amount, category, description, tx_date, owner_id"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t      core.Transaction
		kind   string
		txDate string
	)
	if err := row.Scan(&t.ID, &kind, &t.Amount, &t.Category, &t.Description, &txDate, &t.OwnerID); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	date, err := time.Parse(core.DateLayout, txDate)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse tx_date: %w", err)
	}
	t.Date = date
	return t, nil
}

func (r *Repository) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions (kind, amount, category, description, tx_date, owner_id) VALUES (?, ?, ?, ?, ?, ?)",
		string(t.Kind), t.Amount, t.Category, t.Description, t.Date.Format(core.DateLayout), t.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", t.Kind,
		"amount", t.Amount,
		"category", t.Category,
		"owner_id", t.OwnerID)

	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	created, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read created transaction: %w", err)
	}
	return created, nil
}

func (r *Repository) ListTransactions(ctx context.Context, ownerID int64, limit int) ([]core.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE owner_id = ? ORDER BY tx_date DESC, id DESC"
	args := []any{ownerID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *Repository) ListTransactionsForMonth(ctx context.Context, ownerID int64, month core.Month) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE owner_id = ? AND substr(tx_date, 1, 7) = ? ORDER BY tx_date DESC, id DESC",
		ownerID, string(month))
	if err != nil {
		return nil, fmt.Errorf("list transactions for month: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *Repository) DeleteTransaction(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

const budgetColumns = "id, category, amount, month, owner_id, created_at"

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b         core.Budget
		month     string
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.Category, &b.Amount, &month, &b.OwnerID, &createdAt); err != nil {
		return core.Budget{}, err
	}
	b.Month = core.Month(month)
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse created_at: %w", err)
	}
	b.CreatedAt = ts
	return b, nil
}

func (r *Repository) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	createdAt := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budgets (category, amount, month, owner_id, created_at) VALUES (?, ?, ?, ?, ?)",
		b.Category, b.Amount, string(b.Month), b.OwnerID, createdAt.Format(time.RFC3339))
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", id,
		"category", b.Category,
		"amount", b.Amount,
		"month", b.Month,
		"owner_id", b.OwnerID)

	row := r.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id)
	created, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read created budget: %w", err)
	}
	return created, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET category = ?, amount = ?, month = ? WHERE id = ? AND owner_id = ?",
		b.Category, b.Amount, string(b.Month), b.ID, b.OwnerID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Budget{}, core.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", b.ID)
	updated, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("read updated budget: %w", err)
	}
	return updated, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id, ownerID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM budgets WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context, ownerID int64, month core.Month) ([]core.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budgets WHERE owner_id = ?"
	args := []any{ownerID}
	if month != "" {
		query += " AND month = ?"
		args = append(args, string(month))
	}
	query += " ORDER BY month DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
