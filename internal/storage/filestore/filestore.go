// Package filestore is the flat keyed-blob backend: one JSON blob per
// record family, held in memory and rewritten on every mutation. It mirrors
// the layout a browser build keeps in local storage, so an existing data
// directory rehydrates the store at startup.
package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"finly/internal/core"
	"finly/internal/storage"
)

const (
	usersBlob        = "users.json"
	transactionsBlob = "transactions.json"
	budgetsBlob      = "budgets.json"
)

type (
	userRecord struct {
		ID           int64         `json:"id"`
		Name         string        `json:"name"`
		Email        string        `json:"email"`
		PasswordHash string        `json:"password_hash"`
		Settings     core.Settings `json:"settings"`
		RegisteredAt time.Time     `json:"registered_at"`
	}

	transactionRecord struct {
		ID          int64   `json:"id"`
		Kind        string  `json:"kind"`
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Date        string  `json:"date"`
		OwnerID     int64   `json:"owner_id"`
	}

	budgetRecord struct {
		ID        int64     `json:"id"`
		Category  string    `json:"category"`
		Amount    float64   `json:"amount"`
		Month     string    `json:"month"`
		OwnerID   int64     `json:"owner_id"`
		CreatedAt time.Time `json:"created_at"`
	}

	blob[T any] struct {
		NextID int64 `json:"next_id"`
		Items  []T   `json:"items"`
	}
)

// Store keeps all records in memory behind one mutex and persists each
// touched blob before a write returns.
type Store struct {
	dir   string
	guard *storage.InitGuard

	mu           sync.Mutex
	users        blob[userRecord]
	transactions blob[transactionRecord]
	budgets      blob[budgetRecord]
}

func New(dir string) *Store {
	return &Store{
		dir:   dir,
		guard: storage.NewInitGuard(0),
	}
}

// Initialize creates the data directory and rehydrates every blob that
// already exists on disk.
func (s *Store) Initialize(ctx context.Context) error {
	return s.guard.Do(ctx, func() error {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if err := loadBlob(filepath.Join(s.dir, usersBlob), &s.users); err != nil {
			return err
		}
		if err := loadBlob(filepath.Join(s.dir, transactionsBlob), &s.transactions); err != nil {
			return err
		}
		if err := loadBlob(filepath.Join(s.dir, budgetsBlob), &s.budgets); err != nil {
			return err
		}

		slog.InfoContext(ctx, "File store ready",
			"dir", s.dir,
			"users", len(s.users.Items),
			"transactions", len(s.transactions.Items),
			"budgets", len(s.budgets.Items))
		return nil
	})
}

func (s *Store) Close() error { return nil }

func loadBlob[T any](path string, dst *blob[T]) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		dst.NextID = 0
		dst.Items = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveBlob writes through a temp file and renames, so a crashed write never
// leaves a truncated blob behind.
func saveBlob[T any](path string, b blob[T]) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) saveUsers() error {
	return saveBlob(filepath.Join(s.dir, usersBlob), s.users)
}

func (s *Store) saveTransactions() error {
	return saveBlob(filepath.Join(s.dir, transactionsBlob), s.transactions)
}

func (s *Store) saveBudgets() error {
	return saveBlob(filepath.Join(s.dir, budgetsBlob), s.budgets)
}

func toUser(r userRecord) core.User {
	settings := r.Settings
	if settings == nil {
		settings = core.Settings{}
	}
	return core.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		RegisteredAt: r.RegisteredAt,
		Settings:     settings,
	}
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]core.User, 0, len(s.users.Items))
	for _, r := range s.users.Items {
		users = append(users, toUser(r))
	}
	// Newest first, matching the relational backend's ordering.
	sort.SliceStable(users, func(i, j int) bool { return users[i].ID > users[j].ID })
	return users, nil
}

func (s *Store) findUser(id int64) (int, bool) {
	for i, r := range s.users.Items {
		if r.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return toUser(s.users.Items[i]), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeEmail(email)
	for _, r := range s.users.Items {
		if r.Email == normalized {
			return toUser(r), nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := core.NormalizeEmail(email)
	for _, r := range s.users.Items {
		if r.Email == normalized {
			return core.User{}, core.ErrEmailTaken
		}
	}

	s.users.NextID++
	record := userRecord{
		ID:           s.users.NextID,
		Name:         strings.TrimSpace(name),
		Email:        normalized,
		PasswordHash: passwordHash,
		Settings:     core.Settings{},
		RegisteredAt: time.Now().UTC(),
	}
	s.users.Items = append(s.users.Items, record)
	if err := s.saveUsers(); err != nil {
		s.users.Items = s.users.Items[:len(s.users.Items)-1]
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User created", "id", record.ID, "email", record.Email)
	return toUser(record), nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, name, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return core.User{}, core.ErrNotFound
	}

	normalized := core.NormalizeEmail(email)
	for _, r := range s.users.Items {
		if r.Email == normalized && r.ID != id {
			return core.User{}, core.ErrEmailTaken
		}
	}

	s.users.Items[i].Name = strings.TrimSpace(name)
	s.users.Items[i].Email = normalized
	if err := s.saveUsers(); err != nil {
		return core.User{}, err
	}
	return toUser(s.users.Items[i]), nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int64, passwordHash string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	s.users.Items[i].PasswordHash = passwordHash
	if err := s.saveUsers(); err != nil {
		return core.User{}, err
	}
	return toUser(s.users.Items[i]), nil
}

func (s *Store) GetUserSettings(_ context.Context, id int64) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return nil, core.ErrNotFound
	}
	if s.users.Items[i].Settings == nil {
		return core.Settings{}, nil
	}
	return s.users.Items[i].Settings.Merge(nil), nil
}

func (s *Store) UpdateUserSettings(_ context.Context, id int64, partial core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return nil, core.ErrNotFound
	}

	merged := s.users.Items[i].Settings.Merge(partial)
	s.users.Items[i].Settings = merged
	if err := s.saveUsers(); err != nil {
		return nil, err
	}
	return merged.Merge(nil), nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findUser(id)
	if !ok {
		return core.ErrNotFound
	}
	s.users.Items = append(s.users.Items[:i], s.users.Items[i+1:]...)

	kept := s.transactions.Items[:0]
	for _, t := range s.transactions.Items {
		if t.OwnerID != id {
			kept = append(kept, t)
		}
	}
	s.transactions.Items = kept

	keptBudgets := s.budgets.Items[:0]
	for _, b := range s.budgets.Items {
		if b.OwnerID != id {
			keptBudgets = append(keptBudgets, b)
		}
	}
	s.budgets.Items = keptBudgets

	if err := s.saveUsers(); err != nil {
		return err
	}
	if err := s.saveTransactions(); err != nil {
		return err
	}
	if err := s.saveBudgets(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "User deleted", "id", id)
	return nil
}

func toTransaction(r transactionRecord) (core.Transaction, error) {
	date, err := time.Parse(core.DateLayout, r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	return core.Transaction{
		ID:          r.ID,
		Kind:        core.Kind(r.Kind),
		Amount:      r.Amount,
		Category:    r.Category,
		Description: r.Description,
		Date:        date,
		OwnerID:     r.OwnerID,
	}, nil
}

func (s *Store) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions.NextID++
	record := transactionRecord{
		ID:          s.transactions.NextID,
		Kind:        string(t.Kind),
		Amount:      t.Amount,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.Format(core.DateLayout),
		OwnerID:     t.OwnerID,
	}
	s.transactions.Items = append(s.transactions.Items, record)
	if err := s.saveTransactions(); err != nil {
		s.transactions.Items = s.transactions.Items[:len(s.transactions.Items)-1]
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", record.ID,
		"kind", record.Kind,
		"amount", record.Amount,
		"category", record.Category,
		"owner_id", record.OwnerID)
	return toTransaction(record)
}

func (s *Store) listTransactions(ownerID int64, keep func(transactionRecord) bool) ([]core.Transaction, error) {
	var txs []core.Transaction
	for _, r := range s.transactions.Items {
		if r.OwnerID != ownerID || !keep(r) {
			continue
		}
		t, err := toTransaction(r)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.After(txs[j].Date)
		}
		return txs[i].ID > txs[j].ID
	})
	return txs, nil
}

func (s *Store) ListTransactions(_ context.Context, ownerID int64, limit int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.listTransactions(ownerID, func(transactionRecord) bool { return true })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *Store) ListTransactionsForMonth(_ context.Context, ownerID int64, month core.Month) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listTransactions(ownerID, func(r transactionRecord) bool {
		return strings.HasPrefix(r.Date, string(month))
	})
}

func (s *Store) DeleteTransaction(ctx context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.transactions.Items {
		if r.ID == id && r.OwnerID == ownerID {
			s.transactions.Items = append(s.transactions.Items[:i], s.transactions.Items[i+1:]...)
			if err := s.saveTransactions(); err != nil {
				return err
			}
			slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
			return nil
		}
	}
	return core.ErrNotFound
}

func toBudget(r budgetRecord) core.Budget {
	return core.Budget{
		ID:        r.ID,
		Category:  r.Category,
		Amount:    r.Amount,
		Month:     core.Month(r.Month),
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
	}
}

func (s *Store) AddBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets.NextID++
	record := budgetRecord{
		ID:        s.budgets.NextID,
		Category:  b.Category,
		Amount:    b.Amount,
		Month:     string(b.Month),
		OwnerID:   b.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
	s.budgets.Items = append(s.budgets.Items, record)
	if err := s.saveBudgets(); err != nil {
		s.budgets.Items = s.budgets.Items[:len(s.budgets.Items)-1]
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", record.ID,
		"category", record.Category,
		"amount", record.Amount,
		"month", record.Month,
		"owner_id", record.OwnerID)
	return toBudget(record), nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.budgets.Items {
		if r.ID == b.ID && r.OwnerID == b.OwnerID {
			s.budgets.Items[i].Category = b.Category
			s.budgets.Items[i].Amount = b.Amount
			s.budgets.Items[i].Month = string(b.Month)
			if err := s.saveBudgets(); err != nil {
				return core.Budget{}, err
			}
			return toBudget(s.budgets.Items[i]), nil
		}
	}
	return core.Budget{}, core.ErrNotFound
}

func (s *Store) DeleteBudget(_ context.Context, id, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.budgets.Items {
		if r.ID == id && r.OwnerID == ownerID {
			s.budgets.Items = append(s.budgets.Items[:i], s.budgets.Items[i+1:]...)
			return s.saveBudgets()
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, ownerID int64, month core.Month) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var budgets []core.Budget
	for _, r := range s.budgets.Items {
		if r.OwnerID != ownerID {
			continue
		}
		if month != "" && r.Month != string(month) {
			continue
		}
		budgets = append(budgets, toBudget(r))
	}
	sort.SliceStable(budgets, func(i, j int) bool {
		if budgets[i].Month != budgets[j].Month {
			return budgets[i].Month > budgets[j].Month
		}
		return budgets[i].ID > budgets[j].ID
	})
	return budgets, nil
}
