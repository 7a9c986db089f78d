package finance

import (
	"bytes"
	"context"
	"testing"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFilter(t *testing.T) {
	tests := []struct {
		name        string
		in          TransactionFilter
		want        TransactionFilter
		expectedErr bool
	}{
		{name: "defaults", in: TransactionFilter{}, want: TransactionFilter{StartDate: DefaultExportStart, EndDate: DefaultExportEnd, Type: ExportTypeAll}},
		{name: "type lower cased", in: TransactionFilter{Type: "Income"}, want: TransactionFilter{StartDate: DefaultExportStart, EndDate: DefaultExportEnd, Type: TypeIncome}},
		{name: "bad type", in: TransactionFilter{Type: "transfer"}, expectedErr: true},
		{name: "bad date", in: TransactionFilter{StartDate: "2024/01/01"}, expectedErr: true},
		{name: "start after end", in: TransactionFilter{StartDate: "2024-05-01", EndDate: "2024-04-01"}, expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeFilter(tt.in)
			if tt.expectedErr {
				assert.Equal(t, appErrors.ErrInvalidInput, appErrors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExportTransactions(t *testing.T) {
	storage := &MockStorage{transactions: []Transaction{
		{ID: "1", Date: "2024-01-01", Type: TypeExpense, Category: "Food", Amount: dec("10"), Description: "early"},
		{ID: "2", Date: "2024-06-01", Type: TypeIncome, Category: "Salary", Amount: dec("2500.5"), Description: "June, paid"},
	}}
	tracker := newTestTracker(storage, &MockOracle{})

	txns, err := tracker.ExportTransactions(context.Background(), TransactionFilter{StartDate: "2024-02-01", EndDate: "2024-12-31"})
	require.NoError(t, err)
	require.Len(t, txns, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteTransactionsCSV(&buf, txns))
	assert.Equal(t, "Date,Type,Category,Amount,Description\n2024-06-01,income,Salary,2500.50,\"June, paid\"\n", buf.String())
}

func TestExportTransactions_Empty(t *testing.T) {
	storage := &MockStorage{transactions: []Transaction{
		{ID: "1", Date: "2024-01-01", Type: TypeExpense, Category: "Food", Amount: dec("10")},
	}}
	tracker := newTestTracker(storage, &MockOracle{})

	_, err := tracker.ExportTransactions(context.Background(), TransactionFilter{Type: "income"})
	assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(err))
}
