package services

import (
	"context"

	"finly/internal/core"
	"finly/internal/notify"
	"finly/internal/storage"
)

// LedgerService owns transactions, budgets and the monthly aggregations
// built from them.
type LedgerService struct {
	store storage.Store
	hub   *notify.Hub
}

func NewLedgerService(store storage.Store, hub *notify.Hub) *LedgerService {
	return &LedgerService{
		store: store,
		hub:   hub,
	}
}

// AddTransaction runs the full rule chain, including category membership
// for the transaction's kind, before delegating to storage.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.AddTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityTransaction, Op: notify.OpCreated, ID: created.ID, OwnerID: created.OwnerID})
	return created, nil
}

// Transactions returns the owner's transactions newest-first; limit <= 0
// means all of them.
func (s *LedgerService) Transactions(ctx context.Context, ownerID int64, limit int) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, ownerID, limit)
}

func (s *LedgerService) TransactionsForMonth(ctx context.Context, ownerID int64, month core.Month) ([]core.Transaction, error) {
	return s.store.ListTransactionsForMonth(ctx, ownerID, month)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id, ownerID int64) error {
	if err := s.store.DeleteTransaction(ctx, id, ownerID); err != nil {
		return err
	}
	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityTransaction, Op: notify.OpDeleted, ID: id, OwnerID: ownerID})
	return nil
}

// MonthlySummary aggregates one month of the owner's transactions. An empty
// month means the current calendar month.
func (s *LedgerService) MonthlySummary(ctx context.Context, ownerID int64, month core.Month) (core.MonthlySummary, error) {
	if month == "" {
		month = core.CurrentMonth()
	}

	txs, err := s.store.ListTransactionsForMonth(ctx, ownerID, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return core.Summarize(month, txs), nil
}

// Budgets returns the owner's budgets, optionally filtered to one month.
func (s *LedgerService) Budgets(ctx context.Context, ownerID int64, month core.Month) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, ownerID, month)
}

// CreateBudget validates and enforces the one-budget-per-category-and-month
// rule against fresh storage state.
func (s *LedgerService) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkDuplicate(ctx, b, 0); err != nil {
		return core.Budget{}, err
	}

	created, err := s.store.AddBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityBudget, Op: notify.OpCreated, ID: created.ID, OwnerID: created.OwnerID})
	return created, nil
}

func (s *LedgerService) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkDuplicate(ctx, b, b.ID); err != nil {
		return core.Budget{}, err
	}

	updated, err := s.store.UpdateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, err
	}

	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityBudget, Op: notify.OpUpdated, ID: updated.ID, OwnerID: updated.OwnerID})
	return updated, nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, id, ownerID int64) error {
	if err := s.store.DeleteBudget(ctx, id, ownerID); err != nil {
		return err
	}
	s.hub.Notify(ctx, notify.Event{Entity: notify.EntityBudget, Op: notify.OpDeleted, ID: id, OwnerID: ownerID})
	return nil
}

func (s *LedgerService) checkDuplicate(ctx context.Context, b core.Budget, excludeID int64) error {
	existing, err := s.store.ListBudgets(ctx, b.OwnerID, b.Month)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Category == b.Category && other.ID != excludeID {
			return core.ErrDuplicateBudget
		}
	}
	return nil
}

// Progress measures one budget against a summary for its month.
func (s *LedgerService) Progress(b core.Budget, summary core.MonthlySummary) core.BudgetProgress {
	return core.Progress(b, summary)
}

// ProgressForMonth computes the progress of every budget active in the
// given month against that month's summary. An empty month means the
// current one.
func (s *LedgerService) ProgressForMonth(ctx context.Context, ownerID int64, month core.Month) ([]core.BudgetProgress, error) {
	if month == "" {
		month = core.CurrentMonth()
	}

	budgets, err := s.store.ListBudgets(ctx, ownerID, month)
	if err != nil {
		return nil, err
	}

	summary, err := s.MonthlySummary(ctx, ownerID, month)
	if err != nil {
		return nil, err
	}

	progress := make([]core.BudgetProgress, len(budgets))
	for i, b := range budgets {
		progress[i] = core.Progress(b, summary)
	}
	return progress, nil
}
