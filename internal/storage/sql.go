package storage

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/shopspring/decimal"
)

// SQLStorage keeps records in MySQL, PostgreSQL or SQLite through database/sql.
type SQLStorage struct {
	db      *sql.DB
	dialect string
}

func NewSQLStorage(db *sql.DB, dialect string) *SQLStorage {
	return &SQLStorage{db: db, dialect: dialect}
}

func (s *SQLStorage) GetStorageType() string {
	return s.dialect
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}

func (s *SQLStorage) q(query string) string {
	return rebind(s.dialect, query)
}

func internalError(ctx context.Context, fn, action string, err error, message string) error {
	logging.Logger.Errorf("[TraceID=%s] | failed to %s in Storage.%s() function | Error: %v", contextutil.TraceIDFromContext(ctx), action, fn, err)
	return appErrors.ErrorResponse{
		Code:    appErrors.ErrInternal,
		Message: message,
	}
}

// execOne runs a write that must touch exactly one row, or reports NOT FOUND.
func (s *SQLStorage) execOne(ctx context.Context, fn, kind, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return internalError(ctx, fn, "write "+kind, err, "Failed to save the "+kind+", try again later.")
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return internalError(ctx, fn, "check affected rows", err, "Failed to save the "+kind+", try again later.")
	}
	if rowsAffected == 0 {
		return notFound(kind, id)
	}
	return nil
}

func queryList[T any](ctx context.Context, s *SQLStorage, fn, kind, query string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, internalError(ctx, fn, "query "+kind+"s", err, "Failed to get "+kind+"s, try again later.")
	}
	defer rows.Close()

	list := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, internalError(ctx, fn, "scan "+kind, err, "Failed to get "+kind+"s, try again later.")
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, internalError(ctx, fn, "iterate "+kind+"s", err, "Failed to get "+kind+"s, try again later.")
	}
	return list, nil
}

func queryOne[T any](ctx context.Context, s *SQLStorage, fn, kind, key, query string, scan func(rowScanner) (T, error), args ...any) (T, error) {
	item, err := scan(s.db.QueryRowContext(ctx, s.q(query), args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, appErrors.NotFound("%s %s not found", kind, key)
		}
		return zero, internalError(ctx, fn, "get "+kind, err, "Failed to get the "+kind+", try again later.")
	}
	return item, nil
}

// --- TRANSACTIONS --- //

func (s *SQLStorage) SaveTransaction(ctx context.Context, t finance.Transaction) error {
	query := "INSERT INTO txn (" + transactionColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.q(query), t.ID, t.Amount, t.Category, t.Description, t.Type, t.Date, t.Recurrence, t.NextDate)
	if err != nil {
		return internalError(ctx, "SaveTransaction", "save transaction", err, "Failed to save the transaction, try again later.")
	}
	return nil
}

func (s *SQLStorage) GetTransactions(ctx context.Context) ([]finance.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM txn ORDER BY id"
	return queryList(ctx, s, "GetTransactions", "transaction", query, scanTransaction)
}

func (s *SQLStorage) GetFilteredTransactions(ctx context.Context, filter finance.TransactionFilter) ([]finance.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM txn WHERE txn_date >= ? AND txn_date <= ?"
	args := []any{filter.StartDate, filter.EndDate}
	if filter.Type != "" && filter.Type != finance.ExportTypeAll {
		query += " AND txn_type = ?"
		args = append(args, filter.Type)
	}
	query += " ORDER BY id"
	return queryList(ctx, s, "GetFilteredTransactions", "transaction", query, scanTransaction, args...)
}

func (s *SQLStorage) GetTransactionById(ctx context.Context, id string) (finance.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM txn WHERE id = ?"
	return queryOne(ctx, s, "GetTransactionById", "transaction", "with id "+id, query, scanTransaction, id)
}

func (s *SQLStorage) UpdateTransaction(ctx context.Context, t finance.Transaction) error {
	query := "UPDATE txn SET amount = ?, category = ?, description = ?, txn_type = ?, txn_date = ?, recurrence = ?, next_date = ? WHERE id = ?"
	return s.execOne(ctx, "UpdateTransaction", "transaction", t.ID, query, t.Amount, t.Category, t.Description, t.Type, t.Date, t.Recurrence, t.NextDate, t.ID)
}

func (s *SQLStorage) DeleteTransaction(ctx context.Context, id string) error {
	return s.execOne(ctx, "DeleteTransaction", "transaction", id, "DELETE FROM txn WHERE id = ?", id)
}

// --- BUDGETS --- //

func (s *SQLStorage) GetBudgets(ctx context.Context) ([]finance.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budget ORDER BY id"
	return queryList(ctx, s, "GetBudgets", "budget", query, scanBudget)
}

func (s *SQLStorage) GetBudgetByCategory(ctx context.Context, category string) (finance.Budget, error) {
	query := "SELECT " + budgetColumns + " FROM budget WHERE category = ?"
	return queryOne(ctx, s, "GetBudgetByCategory", "budget", "for category "+category, query, scanBudget, category)
}

func (s *SQLStorage) updateBudgetByCategory(ctx context.Context, b finance.Budget) (finance.Budget, error) {
	query := "UPDATE budget SET limit_amount = ?, period = ? WHERE category = ?"
	if _, err := s.db.ExecContext(ctx, s.q(query), b.Limit, b.Period, b.Category); err != nil {
		return finance.Budget{}, internalError(ctx, "UpsertBudgetByCategory", "update budget", err, "Failed to save the budget, try again later.")
	}
	return s.GetBudgetByCategory(ctx, b.Category)
}

func (s *SQLStorage) UpsertBudgetByCategory(ctx context.Context, b finance.Budget) (finance.Budget, bool, error) {
	_, err := s.GetBudgetByCategory(ctx, b.Category)
	if err == nil {
		updated, err := s.updateBudgetByCategory(ctx, b)
		return updated, false, err
	}
	if appErrors.CodeOf(err) != appErrors.ErrNotFound {
		return finance.Budget{}, false, err
	}

	query := "INSERT INTO budget (" + budgetColumns + ") VALUES (?, ?, ?, ?)"
	_, err = s.db.ExecContext(ctx, s.q(query), b.ID, b.Category, b.Limit, b.Period)
	if err != nil {
		if isUniqueViolation(err) {
			// another request created the category in between
			updated, err := s.updateBudgetByCategory(ctx, b)
			return updated, false, err
		}
		return finance.Budget{}, false, internalError(ctx, "UpsertBudgetByCategory", "save budget", err, "Failed to save the budget, try again later.")
	}
	return b, true, nil
}

func (s *SQLStorage) DeleteBudget(ctx context.Context, id string) error {
	return s.execOne(ctx, "DeleteBudget", "budget", id, "DELETE FROM budget WHERE id = ?", id)
}

// --- INVESTMENTS --- //

func (s *SQLStorage) SaveInvestment(ctx context.Context, inv finance.Investment) error {
	query := "INSERT INTO investment (" + investmentColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.q(query), inv.ID, inv.Name, inv.Ticker, inv.Category, inv.Quantity, inv.BuyPrice, inv.CurrentPrice, inv.Date, inv.Currency, inv.Exchange)
	if err != nil {
		return internalError(ctx, "SaveInvestment", "save investment", err, "Failed to save the investment, try again later.")
	}
	return nil
}

func (s *SQLStorage) GetInvestments(ctx context.Context) ([]finance.Investment, error) {
	query := "SELECT " + investmentColumns + " FROM investment ORDER BY id"
	return queryList(ctx, s, "GetInvestments", "investment", query, scanInvestment)
}

func (s *SQLStorage) GetInvestmentById(ctx context.Context, id string) (finance.Investment, error) {
	query := "SELECT " + investmentColumns + " FROM investment WHERE id = ?"
	return queryOne(ctx, s, "GetInvestmentById", "investment", "with id "+id, query, scanInvestment, id)
}

func (s *SQLStorage) UpdateInvestment(ctx context.Context, inv finance.Investment) error {
	query := `UPDATE investment SET name = ?, ticker = ?, category = ?, quantity = ?, buy_price = ?, current_price = ?,
		purchase_date = ?, currency = ?, exchange_name = ? WHERE id = ?`
	return s.execOne(ctx, "UpdateInvestment", "investment", inv.ID, query,
		inv.Name, inv.Ticker, inv.Category, inv.Quantity, inv.BuyPrice, inv.CurrentPrice, inv.Date, inv.Currency, inv.Exchange, inv.ID)
}

func (s *SQLStorage) UpdateInvestmentPrice(ctx context.Context, id string, price decimal.Decimal) error {
	return s.execOne(ctx, "UpdateInvestmentPrice", "investment", id, "UPDATE investment SET current_price = ? WHERE id = ?", price, id)
}

func (s *SQLStorage) DeleteInvestment(ctx context.Context, id string) error {
	return s.execOne(ctx, "DeleteInvestment", "investment", id, "DELETE FROM investment WHERE id = ?", id)
}

// --- GOALS --- //

func (s *SQLStorage) SaveGoal(ctx context.Context, g finance.Goal) error {
	query := "INSERT INTO goal (" + goalColumns + ") VALUES (?, ?, ?, ?, ?, ?)"
	_, err := s.db.ExecContext(ctx, s.q(query), g.ID, g.Name, g.TargetAmount, g.SavedAmount, g.Deadline, g.Color)
	if err != nil {
		return internalError(ctx, "SaveGoal", "save goal", err, "Failed to save the goal, try again later.")
	}
	return nil
}

func (s *SQLStorage) GetGoals(ctx context.Context) ([]finance.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goal ORDER BY id"
	return queryList(ctx, s, "GetGoals", "goal", query, scanGoal)
}

func (s *SQLStorage) GetGoalById(ctx context.Context, id string) (finance.Goal, error) {
	query := "SELECT " + goalColumns + " FROM goal WHERE id = ?"
	return queryOne(ctx, s, "GetGoalById", "goal", "with id "+id, query, scanGoal, id)
}

func (s *SQLStorage) UpdateGoal(ctx context.Context, g finance.Goal) error {
	query := "UPDATE goal SET name = ?, target_amount = ?, saved_amount = ?, deadline = ?, color = ? WHERE id = ?"
	return s.execOne(ctx, "UpdateGoal", "goal", g.ID, query, g.Name, g.TargetAmount, g.SavedAmount, g.Deadline, g.Color, g.ID)
}

func (s *SQLStorage) DeleteGoal(ctx context.Context, id string) error {
	return s.execOne(ctx, "DeleteGoal", "goal", id, "DELETE FROM goal WHERE id = ?", id)
}
