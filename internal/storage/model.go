package storage

import (
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	transactionColumns = "id, amount, category, description, txn_type, txn_date, recurrence, next_date"
	budgetColumns      = "id, category, limit_amount, period"
	investmentColumns  = "id, name, ticker, category, quantity, buy_price, current_price, purchase_date, currency, exchange_name"
	goalColumns        = "id, name, target_amount, saved_amount, deadline, color"
)

func scanTransaction(row rowScanner) (finance.Transaction, error) {
	var t finance.Transaction
	err := row.Scan(&t.ID, &t.Amount, &t.Category, &t.Description, &t.Type, &t.Date, &t.Recurrence, &t.NextDate)
	return t, err
}

func scanBudget(row rowScanner) (finance.Budget, error) {
	var b finance.Budget
	err := row.Scan(&b.ID, &b.Category, &b.Limit, &b.Period)
	return b, err
}

func scanInvestment(row rowScanner) (finance.Investment, error) {
	var i finance.Investment
	err := row.Scan(&i.ID, &i.Name, &i.Ticker, &i.Category, &i.Quantity, &i.BuyPrice, &i.CurrentPrice, &i.Date, &i.Currency, &i.Exchange)
	return i, err
}

func scanGoal(row rowScanner) (finance.Goal, error) {
	var g finance.Goal
	err := row.Scan(&g.ID, &g.Name, &g.TargetAmount, &g.SavedAmount, &g.Deadline, &g.Color)
	return g, err
}
