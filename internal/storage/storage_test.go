package storage

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/config"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(context.Background(), db, DialectSQLite))
	return db
}

// every implementation must pass the same contract
func storages(t *testing.T) map[string]finance.Storage {
	return map[string]finance.Storage{
		"sqlite": NewSQLStorage(openSQLite(t), DialectSQLite),
		"memory": NewMemoryStorage(),
	}
}

func TestTransactions(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := finance.Transaction{ID: "01", Amount: dec("12.5"), Category: "Food", Description: "lunch", Type: "expense", Date: "2024-01-01", Recurrence: "None"}
			second := finance.Transaction{ID: "02", Amount: dec("3000"), Category: "Salary", Type: "income", Date: "2024-06-01", Recurrence: "Monthly", NextDate: "2024-07-01"}
			require.NoError(t, s.SaveTransaction(ctx, first))
			require.NoError(t, s.SaveTransaction(ctx, second))

			all, err := s.GetTransactions(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "01", all[0].ID)
			assert.Equal(t, "02", all[1].ID)
			assert.True(t, dec("12.5").Equal(all[0].Amount))
			assert.Equal(t, "lunch", all[0].Description)
			assert.Equal(t, "", all[1].Description)

			got, err := s.GetTransactionById(ctx, "02")
			require.NoError(t, err)
			assert.Equal(t, "Monthly", got.Recurrence)
			assert.Equal(t, "2024-07-01", got.NextDate)
			assert.Equal(t, "", all[0].NextDate)

			got.Amount = dec("3100.25")
			got.Category = "Pay"
			got.Recurrence = "None"
			got.NextDate = ""
			require.NoError(t, s.UpdateTransaction(ctx, got))
			got, err = s.GetTransactionById(ctx, "02")
			require.NoError(t, err)
			assert.True(t, dec("3100.25").Equal(got.Amount))
			assert.Equal(t, "Pay", got.Category)
			assert.Equal(t, "None", got.Recurrence)
			assert.Equal(t, "", got.NextDate)

			// saving the same values again still counts as found
			require.NoError(t, s.UpdateTransaction(ctx, got))

			require.NoError(t, s.DeleteTransaction(ctx, "01"))
			_, err = s.GetTransactionById(ctx, "01")
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(err))
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(s.DeleteTransaction(ctx, "01")))
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(s.UpdateTransaction(ctx, finance.Transaction{ID: "nope", Amount: dec("1")})))
		})
	}
}

func TestGetFilteredTransactions(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, txn := range []finance.Transaction{
				{ID: "01", Amount: dec("1"), Category: "A", Type: "expense", Date: "2024-01-01", Recurrence: "None"},
				{ID: "02", Amount: dec("2"), Category: "B", Type: "income", Date: "2024-02-01", Recurrence: "None"},
				{ID: "03", Amount: dec("3"), Category: "C", Type: "expense", Date: "2024-06-01", Recurrence: "None"},
				{ID: "04", Amount: dec("4"), Category: "D", Type: "expense", Date: "2025-01-01", Recurrence: "None"},
			} {
				require.NoError(t, s.SaveTransaction(ctx, txn))
			}

			tests := []struct {
				name   string
				filter finance.TransactionFilter
				want   []string
			}{
				{name: "inclusive window", filter: finance.TransactionFilter{StartDate: "2024-02-01", EndDate: "2024-12-31", Type: "all"}, want: []string{"02", "03"}},
				{name: "expense only", filter: finance.TransactionFilter{StartDate: "2000-01-01", EndDate: "2099-12-31", Type: "expense"}, want: []string{"01", "03", "04"}},
				{name: "nothing", filter: finance.TransactionFilter{StartDate: "2030-01-01", EndDate: "2030-12-31", Type: "all"}, want: []string{}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					got, err := s.GetFilteredTransactions(ctx, tt.filter)
					require.NoError(t, err)
					ids := []string{}
					for _, txn := range got {
						ids = append(ids, txn.ID)
					}
					assert.Equal(t, tt.want, ids)
				})
			}
		})
	}
}

func TestUpsertBudgetByCategory(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			stored, created, err := s.UpsertBudgetByCategory(ctx, finance.Budget{ID: "b1", Category: "Food", Limit: dec("500"), Period: "Monthly"})
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, "b1", stored.ID)

			stored, created, err = s.UpsertBudgetByCategory(ctx, finance.Budget{ID: "b2", Category: "Food", Limit: dec("750"), Period: "Weekly"})
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, "b1", stored.ID)
			assert.True(t, dec("750").Equal(stored.Limit))
			assert.Equal(t, "Weekly", stored.Period)

			budgets, err := s.GetBudgets(ctx)
			require.NoError(t, err)
			require.Len(t, budgets, 1)

			byCategory, err := s.GetBudgetByCategory(ctx, "Food")
			require.NoError(t, err)
			assert.Equal(t, "b1", byCategory.ID)

			_, err = s.GetBudgetByCategory(ctx, "Rent")
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(err))

			require.NoError(t, s.DeleteBudget(ctx, "b1"))
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(s.DeleteBudget(ctx, "b1")))
		})
	}
}

func TestInvestments(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			inv := finance.Investment{
				ID: "i1", Name: "Bitcoin", Ticker: "BTC-USD", Category: "Crypto",
				Quantity: dec("0.25"), BuyPrice: dec("30000"), CurrentPrice: dec("30000"),
				Date: "2024-03-03", Currency: "USD", Exchange: "CCC",
			}
			require.NoError(t, s.SaveInvestment(ctx, inv))

			require.NoError(t, s.UpdateInvestmentPrice(ctx, "i1", dec("64000.5")))
			got, err := s.GetInvestmentById(ctx, "i1")
			require.NoError(t, err)
			assert.True(t, dec("64000.5").Equal(got.CurrentPrice))
			assert.True(t, dec("0.25").Equal(got.Quantity))
			assert.Equal(t, "CCC", got.Exchange)

			got.Name = "BTC"
			require.NoError(t, s.UpdateInvestment(ctx, got))
			all, err := s.GetInvestments(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, "BTC", all[0].Name)

			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(s.UpdateInvestmentPrice(ctx, "missing", dec("1"))))
			require.NoError(t, s.DeleteInvestment(ctx, "i1"))
			_, err = s.GetInvestmentById(ctx, "i1")
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(err))
		})
	}
}

func TestGoals(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			g := finance.Goal{ID: "g1", Name: "House", TargetAmount: dec("100000"), SavedAmount: dec("0"), Deadline: "2030-01-01", Color: "#6366f1"}
			require.NoError(t, s.SaveGoal(ctx, g))

			g.SavedAmount = dec("500")
			require.NoError(t, s.UpdateGoal(ctx, g))

			got, err := s.GetGoalById(ctx, "g1")
			require.NoError(t, err)
			assert.True(t, dec("500").Equal(got.SavedAmount))
			assert.Equal(t, "House", got.Name)

			goals, err := s.GetGoals(ctx)
			require.NoError(t, err)
			assert.Len(t, goals, 1)

			require.NoError(t, s.DeleteGoal(ctx, "g1"))
			assert.Equal(t, appErrors.ErrNotFound, appErrors.CodeOf(s.DeleteGoal(ctx, "g1")))
		})
	}
}

// SQLite keeps DECIMAL columns as REAL, the largest accepted values must still come back exactly
func TestSQLiteRoundTripsLimits(t *testing.T) {
	s := NewSQLStorage(openSQLite(t), DialectSQLite)
	ctx := context.Background()

	txn := finance.Transaction{ID: "t1", Amount: finance.MAX_AMOUNT_LIMIT, Category: "Windfall", Type: "income", Date: "2024-01-01", Recurrence: "None"}
	require.NoError(t, s.SaveTransaction(ctx, txn))
	got, err := s.GetTransactionById(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "9999999999999.99", got.Amount.String())

	small := finance.Transaction{ID: "t2", Amount: dec("0.01"), Category: "Fee", Type: "expense", Date: "2024-01-01", Recurrence: "None"}
	require.NoError(t, s.SaveTransaction(ctx, small))
	got, err = s.GetTransactionById(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.Amount.String())

	inv := finance.Investment{
		ID: "i1", Name: "Max", Category: "Stock",
		Quantity: finance.MAX_PRICE_LIMIT, BuyPrice: finance.MAX_PRICE_LIMIT, CurrentPrice: dec("0.00000001"),
		Date: "2024-01-01", Currency: "USD", Exchange: "Unknown",
	}
	require.NoError(t, s.SaveInvestment(ctx, inv))
	gotInv, err := s.GetInvestmentById(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "9999999.99999999", gotInv.Quantity.String())
	assert.Equal(t, "9999999.99999999", gotInv.BuyPrice.String())
	assert.Equal(t, "0.00000001", gotInv.CurrentPrice.String())

	g := finance.Goal{ID: "g1", Name: "Max", TargetAmount: finance.MAX_AMOUNT_LIMIT, SavedAmount: dec("1234567890123.45"), Deadline: "2030-01-01", Color: "#6366f1"}
	require.NoError(t, s.SaveGoal(ctx, g))
	gotGoal, err := s.GetGoalById(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "9999999999999.99", gotGoal.TargetAmount.String())
	assert.Equal(t, "1234567890123.45", gotGoal.SavedAmount.String())
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, db, DialectSQLite))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migration").Scan(&count))
	files, err := getMigrationFiles(migrationFS)
	require.NoError(t, err)
	assert.Equal(t, len(files), count)
}

func TestFilterNewMigrations(t *testing.T) {
	all := []string{"0001_a.sql", "0002_b.sql", "0003_c.sql"}
	assert.Equal(t, all, filterNewMigrations(all, ""))
	assert.Equal(t, []string{"0003_c.sql"}, filterNewMigrations(all, "0002_b.sql"))
	assert.Empty(t, filterNewMigrations(all, "0003_c.sql"))
}

func TestIsUniqueViolation(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO budget (id, category, limit_amount, period) VALUES ('a', 'Food', 1, 'Monthly')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO budget (id, category, limit_amount, period) VALUES ('b', 'Food', 2, 'Monthly')")
	require.Error(t, err)

	assert.True(t, isUniqueViolation(err))
	assert.False(t, isUniqueViolation(sql.ErrNoRows))
}

func TestRebind(t *testing.T) {
	query := "UPDATE goal SET name = ?, color = ? WHERE id = ?"
	assert.Equal(t, query, rebind(DialectMySQL, query))
	assert.Equal(t, query, rebind(DialectSQLite, query))
	assert.Equal(t, "UPDATE goal SET name = $1, color = $2 WHERE id = $3", rebind(DialectPostgres, query))
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		contains []string
		wantErr  bool
	}{
		{
			name:     "mysql from parts",
			cfg:      config.Config{StorageDriver: "mysql", DBUser: "root", DBPass: "secret", DBHost: "db", DBPort: "3306", DBName: "finance"},
			contains: []string{"root:secret@tcp(db:3306)/finance", "parseTime=true", "clientFoundRows=true"},
		},
		{
			name:     "mysql full dsn keeps found rows",
			cfg:      config.Config{StorageDriver: "mysql", FullDSN: "u:p@tcp(h:3306)/x"},
			contains: []string{"u:p@tcp(h:3306)/x", "clientFoundRows=true"},
		},
		{
			name:    "mysql missing parts",
			cfg:     config.Config{StorageDriver: "mysql", DBUser: "root"},
			wantErr: true,
		},
		{
			name:     "postgres from parts",
			cfg:      config.Config{StorageDriver: "postgres", DBUser: "app", DBPass: "p@ss", DBHost: "pg", DBPort: "5432", DBName: "finance"},
			contains: []string{"postgres://app:p%40ss@pg:5432/finance", "sslmode=disable"},
		},
		{
			name:     "sqlite path",
			cfg:      config.Config{StorageDriver: "sqlite", SQLitePath: "finance.db"},
			contains: []string{"finance.db?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildDSN(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, part := range tt.contains {
				assert.True(t, strings.Contains(dsn, part), "%q does not contain %q", dsn, part)
			}
		})
	}
}
