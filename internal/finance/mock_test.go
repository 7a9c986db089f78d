package finance

import (
	"context"
	"errors"
	"sync"
	"time"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/oracle"
	"github.com/shopspring/decimal"
)

// Mocks
type MockStorage struct {
	mu           sync.Mutex
	transactions []Transaction
	budgets      []Budget
	investments  []Investment
	goals        []Goal

	failPriceUpdate map[string]bool
	failReads       bool
}

var errStorage = errors.New("storage error")

func notFound(kind, id string) error {
	return appErrors.NotFound("%s with id %s not found", kind, id)
}

func (m *MockStorage) SaveTransaction(ctx context.Context, t Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, t)
	return nil
}

func (m *MockStorage) GetTransactions(ctx context.Context) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, errStorage
	}
	return append([]Transaction(nil), m.transactions...), nil
}

func (m *MockStorage) GetFilteredTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transaction
	for _, t := range m.transactions {
		if t.Date < f.StartDate || t.Date > f.EndDate {
			continue
		}
		if f.Type != ExportTypeAll && t.Type != f.Type {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *MockStorage) GetTransactionById(ctx context.Context, id string) (Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return Transaction{}, notFound("transaction", id)
}

func (m *MockStorage) UpdateTransaction(ctx context.Context, t Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == t.ID {
			m.transactions[i] = t
			return nil
		}
	}
	return notFound("transaction", t.ID)
}

func (m *MockStorage) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return notFound("transaction", id)
}

func (m *MockStorage) GetBudgets(ctx context.Context) ([]Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Budget(nil), m.budgets...), nil
}

func (m *MockStorage) GetBudgetByCategory(ctx context.Context, category string) (Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.budgets {
		if b.Category == category {
			return b, nil
		}
	}
	return Budget{}, appErrors.NotFound("budget for category %s not found", category)
}

func (m *MockStorage) UpsertBudgetByCategory(ctx context.Context, b Budget) (Budget, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		if m.budgets[i].Category == b.Category {
			m.budgets[i].Limit = b.Limit
			m.budgets[i].Period = b.Period
			return m.budgets[i], false, nil
		}
	}
	m.budgets = append(m.budgets, b)
	return b, true, nil
}

func (m *MockStorage) DeleteBudget(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		if m.budgets[i].ID == id {
			m.budgets = append(m.budgets[:i], m.budgets[i+1:]...)
			return nil
		}
	}
	return notFound("budget", id)
}

func (m *MockStorage) SaveInvestment(ctx context.Context, inv Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.investments = append(m.investments, inv)
	return nil
}

func (m *MockStorage) GetInvestments(ctx context.Context) ([]Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, errStorage
	}
	return append([]Investment(nil), m.investments...), nil
}

func (m *MockStorage) GetInvestmentById(ctx context.Context, id string) (Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.investments {
		if inv.ID == id {
			return inv, nil
		}
	}
	return Investment{}, notFound("investment", id)
}

func (m *MockStorage) UpdateInvestment(ctx context.Context, inv Investment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.investments {
		if m.investments[i].ID == inv.ID {
			m.investments[i] = inv
			return nil
		}
	}
	return notFound("investment", inv.ID)
}

func (m *MockStorage) UpdateInvestmentPrice(ctx context.Context, id string, price decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPriceUpdate[id] {
		return errStorage
	}
	for i := range m.investments {
		if m.investments[i].ID == id {
			m.investments[i].CurrentPrice = price
			return nil
		}
	}
	return notFound("investment", id)
}

func (m *MockStorage) DeleteInvestment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.investments {
		if m.investments[i].ID == id {
			m.investments = append(m.investments[:i], m.investments[i+1:]...)
			return nil
		}
	}
	return notFound("investment", id)
}

func (m *MockStorage) SaveGoal(ctx context.Context, g Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals = append(m.goals, g)
	return nil
}

func (m *MockStorage) GetGoals(ctx context.Context) ([]Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Goal(nil), m.goals...), nil
}

func (m *MockStorage) GetGoalById(ctx context.Context, id string) (Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.goals {
		if g.ID == id {
			return g, nil
		}
	}
	return Goal{}, notFound("goal", id)
}

func (m *MockStorage) UpdateGoal(ctx context.Context, g Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.goals {
		if m.goals[i].ID == g.ID {
			m.goals[i] = g
			return nil
		}
	}
	return notFound("goal", g.ID)
}

func (m *MockStorage) DeleteGoal(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.goals {
		if m.goals[i].ID == id {
			m.goals = append(m.goals[:i], m.goals[i+1:]...)
			return nil
		}
	}
	return notFound("goal", id)
}

func (m *MockStorage) GetStorageType() string {
	return "mock"
}

// MockOracle answers from fixed tables; tickers missing from quotes fail as not found.
type MockOracle struct {
	quotes        map[string]oracle.Quote
	rate          decimal.Decimal
	rateErr       error
	searchResults []oracle.SearchResult
	searchErr     error

	quoteCalls  []string
	searchCalls int
}

func (m *MockOracle) LatestQuote(ctx context.Context, ticker string) (oracle.Quote, error) {
	m.quoteCalls = append(m.quoteCalls, ticker)
	q, ok := m.quotes[ticker]
	if !ok {
		return oracle.Quote{}, &oracle.Error{Kind: oracle.KindNotFound, Op: "quote", Ticker: ticker, Err: errors.New("404 Not Found")}
	}
	return q, nil
}

func (m *MockOracle) USDINRRate(ctx context.Context) (decimal.Decimal, error) {
	if m.rateErr != nil {
		return decimal.Zero, m.rateErr
	}
	return m.rate, nil
}

func (m *MockOracle) Search(ctx context.Context, query string, limit int) ([]oracle.SearchResult, error) {
	m.searchCalls++
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.searchResults) > limit {
		return m.searchResults[:limit], nil
	}
	return m.searchResults, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func newTestTracker(s *MockStorage, o *MockOracle) *Tracker {
	return NewTracker(s, o, nil, dec("84"))
}

// setClock pins the tracker's clock to noon UTC of date.
func setClock(t *Tracker, date string) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		panic(err)
	}
	t.now = func() time.Time { return day.Add(12 * time.Hour) }
}
