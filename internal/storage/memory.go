package storage

import (
	"context"
	"sync"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/shopspring/decimal"
)

// MemoryStorage keeps every record in process memory, in insertion order.
type MemoryStorage struct {
	mu           sync.RWMutex
	transactions []finance.Transaction
	budgets      []finance.Budget
	investments  []finance.Investment
	goals        []finance.Goal
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (inMem *MemoryStorage) GetStorageType() string {
	return "memory"
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, item := range items {
		if match(item) {
			return i
		}
	}
	return -1
}

func notFound(kind, id string) error {
	return appErrors.NotFound("%s with id %s not found", kind, id)
}

// --- TRANSACTIONS --- //

func (inMem *MemoryStorage) SaveTransaction(ctx context.Context, t finance.Transaction) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.transactions = append(inMem.transactions, t)
	return nil
}

func (inMem *MemoryStorage) GetTransactions(ctx context.Context) ([]finance.Transaction, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	return append([]finance.Transaction{}, inMem.transactions...), nil
}

func (inMem *MemoryStorage) GetFilteredTransactions(ctx context.Context, filter finance.TransactionFilter) ([]finance.Transaction, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()

	results := []finance.Transaction{}
	for _, t := range inMem.transactions {
		if t.Date < filter.StartDate || t.Date > filter.EndDate {
			continue
		}
		if filter.Type != "" && filter.Type != finance.ExportTypeAll && t.Type != filter.Type {
			continue
		}
		results = append(results, t)
	}
	return results, nil
}

func (inMem *MemoryStorage) GetTransactionById(ctx context.Context, id string) (finance.Transaction, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	i := indexOf(inMem.transactions, func(t finance.Transaction) bool { return t.ID == id })
	if i < 0 {
		return finance.Transaction{}, notFound("transaction", id)
	}
	return inMem.transactions[i], nil
}

func (inMem *MemoryStorage) UpdateTransaction(ctx context.Context, t finance.Transaction) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.transactions, func(x finance.Transaction) bool { return x.ID == t.ID })
	if i < 0 {
		return notFound("transaction", t.ID)
	}
	inMem.transactions[i] = t
	return nil
}

func (inMem *MemoryStorage) DeleteTransaction(ctx context.Context, id string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.transactions, func(t finance.Transaction) bool { return t.ID == id })
	if i < 0 {
		return notFound("transaction", id)
	}
	inMem.transactions = append(inMem.transactions[:i], inMem.transactions[i+1:]...)
	return nil
}

// --- BUDGETS --- //

func (inMem *MemoryStorage) GetBudgets(ctx context.Context) ([]finance.Budget, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	return append([]finance.Budget{}, inMem.budgets...), nil
}

func (inMem *MemoryStorage) GetBudgetByCategory(ctx context.Context, category string) (finance.Budget, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	i := indexOf(inMem.budgets, func(b finance.Budget) bool { return b.Category == category })
	if i < 0 {
		return finance.Budget{}, appErrors.NotFound("budget for category %s not found", category)
	}
	return inMem.budgets[i], nil
}

func (inMem *MemoryStorage) UpsertBudgetByCategory(ctx context.Context, b finance.Budget) (finance.Budget, bool, error) {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.budgets, func(x finance.Budget) bool { return x.Category == b.Category })
	if i < 0 {
		inMem.budgets = append(inMem.budgets, b)
		return b, true, nil
	}
	inMem.budgets[i].Limit = b.Limit
	inMem.budgets[i].Period = b.Period
	return inMem.budgets[i], false, nil
}

func (inMem *MemoryStorage) DeleteBudget(ctx context.Context, id string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.budgets, func(b finance.Budget) bool { return b.ID == id })
	if i < 0 {
		return notFound("budget", id)
	}
	inMem.budgets = append(inMem.budgets[:i], inMem.budgets[i+1:]...)
	return nil
}

// --- INVESTMENTS --- //

func (inMem *MemoryStorage) SaveInvestment(ctx context.Context, inv finance.Investment) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.investments = append(inMem.investments, inv)
	return nil
}

func (inMem *MemoryStorage) GetInvestments(ctx context.Context) ([]finance.Investment, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	return append([]finance.Investment{}, inMem.investments...), nil
}

func (inMem *MemoryStorage) GetInvestmentById(ctx context.Context, id string) (finance.Investment, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	i := indexOf(inMem.investments, func(x finance.Investment) bool { return x.ID == id })
	if i < 0 {
		return finance.Investment{}, notFound("investment", id)
	}
	return inMem.investments[i], nil
}

func (inMem *MemoryStorage) UpdateInvestment(ctx context.Context, inv finance.Investment) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.investments, func(x finance.Investment) bool { return x.ID == inv.ID })
	if i < 0 {
		return notFound("investment", inv.ID)
	}
	inMem.investments[i] = inv
	return nil
}

func (inMem *MemoryStorage) UpdateInvestmentPrice(ctx context.Context, id string, price decimal.Decimal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.investments, func(x finance.Investment) bool { return x.ID == id })
	if i < 0 {
		return notFound("investment", id)
	}
	inMem.investments[i].CurrentPrice = price
	return nil
}

func (inMem *MemoryStorage) DeleteInvestment(ctx context.Context, id string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.investments, func(x finance.Investment) bool { return x.ID == id })
	if i < 0 {
		return notFound("investment", id)
	}
	inMem.investments = append(inMem.investments[:i], inMem.investments[i+1:]...)
	return nil
}

// --- GOALS --- //

func (inMem *MemoryStorage) SaveGoal(ctx context.Context, g finance.Goal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	inMem.goals = append(inMem.goals, g)
	return nil
}

func (inMem *MemoryStorage) GetGoals(ctx context.Context) ([]finance.Goal, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	return append([]finance.Goal{}, inMem.goals...), nil
}

func (inMem *MemoryStorage) GetGoalById(ctx context.Context, id string) (finance.Goal, error) {
	inMem.mu.RLock()
	defer inMem.mu.RUnlock()
	i := indexOf(inMem.goals, func(x finance.Goal) bool { return x.ID == id })
	if i < 0 {
		return finance.Goal{}, notFound("goal", id)
	}
	return inMem.goals[i], nil
}

func (inMem *MemoryStorage) UpdateGoal(ctx context.Context, g finance.Goal) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.goals, func(x finance.Goal) bool { return x.ID == g.ID })
	if i < 0 {
		return notFound("goal", g.ID)
	}
	inMem.goals[i] = g
	return nil
}

func (inMem *MemoryStorage) DeleteGoal(ctx context.Context, id string) error {
	inMem.mu.Lock()
	defer inMem.mu.Unlock()
	i := indexOf(inMem.goals, func(x finance.Goal) bool { return x.ID == id })
	if i < 0 {
		return notFound("goal", id)
	}
	inMem.goals = append(inMem.goals[:i], inMem.goals[i+1:]...)
	return nil
}
