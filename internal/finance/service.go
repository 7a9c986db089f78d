package finance

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/classifier"
	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/internal/oracle"
	"github.com/fatali-fataliyev/finance_tracker/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MAX_CATEGORY_LENGTH    = 50
	MAX_DESCRIPTION_LENGTH = 200
	MAX_PERIOD_LENGTH      = 20
	MAX_NAME_LENGTH        = 100
	MAX_TICKER_LENGTH      = 20
	MAX_EXCHANGE_LENGTH    = 50
)

// Amounts keep 2 decimal places, quantities and prices keep 8. SQLite stores DECIMAL columns as
// REAL, so no limit may exceed the 15 significant digits a float64 holds exactly.
const (
	AMOUNT_PLACES = 2
	PRICE_PLACES  = 8
)

var (
	MAX_AMOUNT_LIMIT = decimal.RequireFromString("9999999999999.99")
	MAX_PRICE_LIMIT  = decimal.RequireFromString("9999999.99999999")
)

var (
	tickerRegex = regexp.MustCompile(`^[A-Z0-9.\-=^]+$`)
	colorRegex  = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

type Storage interface {
	SaveTransaction(ctx context.Context, t Transaction) error
	GetTransactions(ctx context.Context) ([]Transaction, error)
	GetFilteredTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetTransactionById(ctx context.Context, id string) (Transaction, error)
	UpdateTransaction(ctx context.Context, t Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	GetBudgets(ctx context.Context) ([]Budget, error)
	GetBudgetByCategory(ctx context.Context, category string) (Budget, error)
	// UpsertBudgetByCategory inserts b, or updates limit and period of the budget with the same
	// category. It returns the stored budget and whether it was created.
	UpsertBudgetByCategory(ctx context.Context, b Budget) (Budget, bool, error)
	DeleteBudget(ctx context.Context, id string) error

	SaveInvestment(ctx context.Context, inv Investment) error
	GetInvestments(ctx context.Context) ([]Investment, error)
	GetInvestmentById(ctx context.Context, id string) (Investment, error)
	UpdateInvestment(ctx context.Context, inv Investment) error
	UpdateInvestmentPrice(ctx context.Context, id string, price decimal.Decimal) error
	DeleteInvestment(ctx context.Context, id string) error

	SaveGoal(ctx context.Context, g Goal) error
	GetGoals(ctx context.Context) ([]Goal, error)
	GetGoalById(ctx context.Context, id string) (Goal, error)
	UpdateGoal(ctx context.Context, g Goal) error
	DeleteGoal(ctx context.Context, id string) error

	GetStorageType() string
}

// Oracle is the external quote service. Every failure is treated as "no data".
type Oracle interface {
	LatestQuote(ctx context.Context, ticker string) (oracle.Quote, error)
	USDINRRate(ctx context.Context) (decimal.Decimal, error)
	Search(ctx context.Context, query string, limit int) ([]oracle.SearchResult, error)
}

type Tracker struct {
	storage      Storage
	oracle       Oracle
	models       *classifier.Cache
	fallbackRate decimal.Decimal
	now          func() time.Time
	StorageType  string
}

func NewTracker(s Storage, o Oracle, models *classifier.Cache, fallbackRate decimal.Decimal) *Tracker {
	return &Tracker{
		storage:      s,
		oracle:       o,
		models:       models,
		fallbackRate: fallbackRate,
		now:          time.Now,
		StorageType:  s.GetStorageType(),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (t *Tracker) today() string {
	return t.now().UTC().Format(DateLayout)
}

func validateDate(field, value string) error {
	if _, err := time.Parse(DateLayout, value); err != nil {
		return appErrors.InvalidInput("%s must be a date in YYYY-MM-DD format, got: %q", field, value)
	}
	return nil
}

func roundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AMOUNT_PLACES)
}

func roundPrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PRICE_PLACES)
}

func validateAmount(field string, amount decimal.Decimal, limit decimal.Decimal) error {
	if !amount.IsPositive() {
		return appErrors.InvalidInput("%s must be greater than zero", field)
	}
	if amount.GreaterThan(limit) {
		return appErrors.InvalidInput("%s is too large, maximum allowed is: %s", field, limit.String())
	}
	return nil
}

func validateLength(field, value string, max int) error {
	if len(value) > max {
		return appErrors.InvalidInput("%s is too long, maximum allowed length is: %d", field, max)
	}
	return nil
}

// TRANSACTIONS:

func validateTransaction(t Transaction) error {
	if err := validateAmount("amount", t.Amount, MAX_AMOUNT_LIMIT); err != nil {
		return err
	}
	if t.Type != TypeIncome && t.Type != TypeExpense {
		return appErrors.InvalidInput("invalid transaction type: %q, must be %q or %q", t.Type, TypeIncome, TypeExpense)
	}
	if t.Category == "" {
		return appErrors.InvalidInput("category is empty")
	}
	if err := validateLength("category", t.Category, MAX_CATEGORY_LENGTH); err != nil {
		return err
	}
	if err := validateLength("description", t.Description, MAX_DESCRIPTION_LENGTH); err != nil {
		return err
	}
	if err := validateDate("date", t.Date); err != nil {
		return err
	}
	switch t.Recurrence {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
	default:
		return appErrors.InvalidInput("invalid recurrence: %q", t.Recurrence)
	}
	return nil
}

// SaveTransaction stores a new transaction. An empty category is predicted from the description.
func (t *Tracker) SaveTransaction(ctx context.Context, req TransactionRequest) (Transaction, error) {
	txn := Transaction{
		ID:          newID(),
		Amount:      roundAmount(req.Amount),
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Type:        strings.ToLower(strings.TrimSpace(req.Type)),
		Date:        strings.TrimSpace(req.Date),
		Recurrence:  strings.TrimSpace(req.Recurrence),
	}
	if txn.Date == "" {
		txn.Date = t.today()
	}
	if txn.Recurrence == "" {
		txn.Recurrence = RecurrenceNone
	}

	if txn.Category == "" {
		if txn.Description == "" {
			return Transaction{}, appErrors.InvalidInput("category is empty and there is no description to predict it from")
		}
		category, err := t.PredictCategory(ctx, txn.Description)
		if err != nil {
			return Transaction{}, fmt.Errorf("failed to predict category: %w", err)
		}
		txn.Category = category
	}

	if err := validateTransaction(txn); err != nil {
		return Transaction{}, err
	}
	txn.NextDate = NextOccurrence(txn.Date, txn.Recurrence)

	if err := t.storage.SaveTransaction(ctx, txn); err != nil {
		return Transaction{}, fmt.Errorf("failed to save transaction: %w", err)
	}
	return txn, nil
}

// GetTransactions lists every transaction after storing the occurrences of recurring ones that
// fell due.
func (t *Tracker) GetTransactions(ctx context.Context) ([]Transaction, error) {
	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	created, err := t.materializeRecurring(ctx, txns)
	if err != nil {
		return nil, err
	}
	if created == 0 {
		return txns, nil
	}
	logging.Logger.Infof("[TraceID=%s] | created %d recurring transactions", contextutil.TraceIDFromContext(ctx), created)

	txns, err = t.storage.GetTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	return txns, nil
}

func (t *Tracker) GetTransactionById(ctx context.Context, id string) (Transaction, error) {
	txn, err := t.storage.GetTransactionById(ctx, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get transaction by id: %w", err)
	}
	return txn, nil
}

func (t *Tracker) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (Transaction, error) {
	txn, err := t.storage.GetTransactionById(ctx, id)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to get transaction by id: %w", err)
	}

	if patch.Amount != nil {
		txn.Amount = roundAmount(*patch.Amount)
	}
	if patch.Category != nil {
		txn.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Description != nil {
		txn.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Type != nil {
		txn.Type = strings.ToLower(strings.TrimSpace(*patch.Type))
	}
	if patch.Date != nil {
		txn.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.Recurrence != nil {
		txn.Recurrence = strings.TrimSpace(*patch.Recurrence)
	}

	if err := validateTransaction(txn); err != nil {
		return Transaction{}, err
	}
	// a new date or recurrence restarts the schedule
	if patch.Date != nil || patch.Recurrence != nil || txn.Recurrence == RecurrenceNone {
		txn.NextDate = NextOccurrence(txn.Date, txn.Recurrence)
	}
	if err := t.storage.UpdateTransaction(ctx, txn); err != nil {
		return Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}
	return txn, nil
}

func (t *Tracker) DeleteTransaction(ctx context.Context, id string) error {
	if err := t.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// PredictCategory trains on the seed corpus plus every stored description and returns the most
// likely category. A blank description yields "" without training anything.
func (t *Tracker) PredictCategory(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", nil
	}

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load training data: %w", err)
	}

	labelled := make([]classifier.Example, 0, len(txns))
	for _, txn := range txns {
		labelled = append(labelled, classifier.Example{Text: txn.Description, Label: txn.Category})
	}

	model, err := t.models.Model(classifier.TrainCorpus(classifier.Seed, labelled))
	if err != nil {
		if errors.Is(err, classifier.ErrInsufficientTrainingData) {
			return "", appErrors.ErrorResponse{Code: appErrors.ErrInsufficientData, Message: err.Error()}
		}
		logging.Logger.Errorf("[TraceID=%s] | failed to fit classifier in Tracker.PredictCategory() function | Error: %v", contextutil.TraceIDFromContext(ctx), err)
		return "", appErrors.Internal("failed to train category classifier")
	}
	return model.Predict(description), nil
}

// BUDGETS:

func (t *Tracker) GetBudgets(ctx context.Context) ([]Budget, error) {
	budgets, err := t.storage.GetBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get budgets: %w", err)
	}
	return budgets, nil
}

// SetBudget creates the budget for req.Category or updates the existing one in place.
func (t *Tracker) SetBudget(ctx context.Context, req BudgetRequest) (Budget, bool, error) {
	b := Budget{
		ID:       newID(),
		Category: strings.TrimSpace(req.Category),
		Limit:    roundAmount(req.Limit),
		Period:   strings.TrimSpace(req.Period),
	}
	if b.Period == "" {
		b.Period = DefaultBudgetPeriod
	}

	if b.Category == "" {
		return Budget{}, false, appErrors.InvalidInput("category is empty")
	}
	if err := validateLength("category", b.Category, MAX_CATEGORY_LENGTH); err != nil {
		return Budget{}, false, err
	}
	if err := validateLength("period", b.Period, MAX_PERIOD_LENGTH); err != nil {
		return Budget{}, false, err
	}
	if err := validateAmount("limit", b.Limit, MAX_AMOUNT_LIMIT); err != nil {
		return Budget{}, false, err
	}

	stored, created, err := t.storage.UpsertBudgetByCategory(ctx, b)
	if err != nil {
		return Budget{}, false, fmt.Errorf("failed to save budget: %w", err)
	}
	return stored, created, nil
}

func (t *Tracker) DeleteBudget(ctx context.Context, id string) error {
	if err := t.storage.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// GOALS:

func validateGoal(g Goal) error {
	if g.Name == "" {
		return appErrors.InvalidInput("goal name is empty")
	}
	if err := validateLength("name", g.Name, MAX_NAME_LENGTH); err != nil {
		return err
	}
	if err := validateAmount("target_amount", g.TargetAmount, MAX_AMOUNT_LIMIT); err != nil {
		return err
	}
	if g.SavedAmount.IsNegative() {
		return appErrors.InvalidInput("saved_amount cannot be negative")
	}
	if g.SavedAmount.GreaterThan(MAX_AMOUNT_LIMIT) {
		return appErrors.InvalidInput("saved_amount is too large, maximum allowed is: %s", MAX_AMOUNT_LIMIT.String())
	}
	if err := validateDate("deadline", g.Deadline); err != nil {
		return err
	}
	if !colorRegex.MatchString(g.Color) {
		return appErrors.InvalidInput("color must be a hex value like #6366f1, got: %q", g.Color)
	}
	return nil
}

func (t *Tracker) SaveGoal(ctx context.Context, req GoalRequest) (Goal, error) {
	g := Goal{
		ID:           newID(),
		Name:         strings.TrimSpace(req.Name),
		TargetAmount: roundAmount(req.TargetAmount),
		Deadline:     strings.TrimSpace(req.Deadline),
		Color:        strings.TrimSpace(req.Color),
	}
	if req.SavedAmount != nil {
		g.SavedAmount = roundAmount(*req.SavedAmount)
	}
	if g.Color == "" {
		g.Color = DefaultGoalColor
	}

	if err := validateGoal(g); err != nil {
		return Goal{}, err
	}
	if err := t.storage.SaveGoal(ctx, g); err != nil {
		return Goal{}, fmt.Errorf("failed to save goal: %w", err)
	}
	return g, nil
}

func (t *Tracker) GetGoals(ctx context.Context) ([]Goal, error) {
	goals, err := t.storage.GetGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	return goals, nil
}

func (t *Tracker) GetGoalById(ctx context.Context, id string) (Goal, error) {
	g, err := t.storage.GetGoalById(ctx, id)
	if err != nil {
		return Goal{}, fmt.Errorf("failed to get goal by id: %w", err)
	}
	return g, nil
}

func (t *Tracker) UpdateGoal(ctx context.Context, id string, patch GoalPatch) (Goal, error) {
	g, err := t.storage.GetGoalById(ctx, id)
	if err != nil {
		return Goal{}, fmt.Errorf("failed to get goal by id: %w", err)
	}

	if patch.Name != nil {
		g.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.TargetAmount != nil {
		g.TargetAmount = roundAmount(*patch.TargetAmount)
	}
	if patch.SavedAmount != nil {
		g.SavedAmount = roundAmount(*patch.SavedAmount)
	}
	if patch.Deadline != nil {
		g.Deadline = strings.TrimSpace(*patch.Deadline)
	}
	if patch.Color != nil {
		g.Color = strings.TrimSpace(*patch.Color)
	}

	if err := validateGoal(g); err != nil {
		return Goal{}, err
	}
	if err := t.storage.UpdateGoal(ctx, g); err != nil {
		return Goal{}, fmt.Errorf("failed to update goal: %w", err)
	}
	return g, nil
}

func (t *Tracker) DeleteGoal(ctx context.Context, id string) error {
	if err := t.storage.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
