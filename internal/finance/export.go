package finance

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
)

const (
	ExportTypeAll      = "all"
	DefaultExportStart = "2000-01-01"
	DefaultExportEnd   = "2099-12-31"
	ExportFileName     = "report.csv"
)

var ExportHeader = []string{"Date", "Type", "Category", "Amount", "Description"}

// NormalizeFilter fills in the default window and type and validates the result.
func NormalizeFilter(f TransactionFilter) (TransactionFilter, error) {
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
	f.Type = strings.ToLower(strings.TrimSpace(f.Type))

	if f.StartDate == "" {
		f.StartDate = DefaultExportStart
	}
	if f.EndDate == "" {
		f.EndDate = DefaultExportEnd
	}
	if f.Type == "" {
		f.Type = ExportTypeAll
	}

	if err := validateDate("start_date", f.StartDate); err != nil {
		return TransactionFilter{}, err
	}
	if err := validateDate("end_date", f.EndDate); err != nil {
		return TransactionFilter{}, err
	}
	if f.StartDate > f.EndDate {
		return TransactionFilter{}, appErrors.InvalidInput("start_date %s is after end_date %s", f.StartDate, f.EndDate)
	}
	switch f.Type {
	case ExportTypeAll, TypeIncome, TypeExpense:
	default:
		return TransactionFilter{}, appErrors.InvalidInput("invalid export type: %q, must be one of all, income, expense", f.Type)
	}
	return f, nil
}

// ExportTransactions returns the transactions matching filter. An empty result is NOT FOUND so
// callers never produce an empty report.
func (t *Tracker) ExportTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	filter, err := NormalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	txns, err := t.storage.GetFilteredTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get filtered transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, appErrors.NotFound("no transactions between %s and %s", filter.StartDate, filter.EndDate)
	}
	return txns, nil
}

func WriteTransactionsCSV(w io.Writer, txns []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, txn := range txns {
		record := []string{txn.Date, txn.Type, txn.Category, txn.Amount.StringFixed(2), txn.Description}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
