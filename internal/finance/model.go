package finance

import (
	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	RecurrenceNone    = "None"
	RecurrenceDaily   = "Daily"
	RecurrenceWeekly  = "Weekly"
	RecurrenceMonthly = "Monthly"
	RecurrenceYearly  = "Yearly"

	DefaultBudgetPeriod = "Monthly"
	DefaultGoalColor    = "#6366f1"

	CategoryStock  = "Stock"
	CategoryCrypto = "Crypto"
	CategoryGold   = "Gold"

	DefaultCurrency = "USD"
	DefaultExchange = "Unknown"

	DateLayout = "2006-01-02"
)

// REQUESTS START:
type TransactionRequest struct {
	Amount      decimal.Decimal
	Category    string
	Description string
	Type        string
	Date        string
	Recurrence  string
}

// nil fields are left untouched
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Category    *string
	Description *string
	Type        *string
	Date        *string
	Recurrence  *string
}

type BudgetRequest struct {
	Category string
	Limit    decimal.Decimal
	Period   string
}

type InvestmentRequest struct {
	Name         string
	Ticker       string
	Category     string
	Quantity     decimal.Decimal
	BuyPrice     decimal.Decimal
	CurrentPrice *decimal.Decimal
	Date         string
	Currency     string
	Exchange     string
}

type InvestmentPatch struct {
	Name         *string
	Ticker       *string
	Category     *string
	Quantity     *decimal.Decimal
	BuyPrice     *decimal.Decimal
	CurrentPrice *decimal.Decimal
	Date         *string
	Currency     *string
	Exchange     *string
}

type GoalRequest struct {
	Name         string
	TargetAmount decimal.Decimal
	SavedAmount  *decimal.Decimal
	Deadline     string
	Color        string
}

type GoalPatch struct {
	Name         *string
	TargetAmount *decimal.Decimal
	SavedAmount  *decimal.Decimal
	Deadline     *string
	Color        *string
}

// TransactionFilter bounds are inclusive ISO dates; Type is "all", "income" or "expense".
type TransactionFilter struct {
	StartDate string
	EndDate   string
	Type      string
}

// REQUESTS END:

// MODELS:

type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	Category    string
	Description string
	Type        string
	Date        string
	Recurrence  string
	// NextDate is when a recurring transaction repeats next, empty for plain ones.
	NextDate string
}

type Budget struct {
	ID       string
	Category string
	Limit    decimal.Decimal
	Period   string
}

type Investment struct {
	ID           string
	Name         string
	Ticker       string
	Category     string
	Quantity     decimal.Decimal
	BuyPrice     decimal.Decimal
	CurrentPrice decimal.Decimal
	Date         string
	Currency     string
	Exchange     string
}

func (i Investment) Invested() decimal.Decimal {
	return i.Quantity.Mul(i.BuyPrice)
}

func (i Investment) CurrentValue() decimal.Decimal {
	return i.Quantity.Mul(i.CurrentPrice)
}

type Goal struct {
	ID           string
	Name         string
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal
	Deadline     string
	Color        string
}

var hundred = decimal.NewFromInt(100)

// Progress is the saved share of the target in percent, capped at 100.
func (g Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	p := g.SavedAmount.Div(g.TargetAmount).Mul(hundred)
	if p.GreaterThan(hundred) {
		p = hundred
	}
	return p.Round(2)
}

func (g Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.SavedAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

func (g Goal) IsAchieved() bool {
	return g.SavedAmount.GreaterThanOrEqual(g.TargetAmount)
}

type AssetResult struct {
	Symbol   string
	Name     string
	Category string
	Exchange string
}

type CurrencyTotals struct {
	Currency        string
	Invested        decimal.Decimal
	Current         decimal.Decimal
	Gain            decimal.Decimal
	InvestedDisplay string
	CurrentDisplay  string
	GainDisplay     string
}

type PortfolioSummary struct {
	ByCurrency []CurrencyTotals
	// TotalINR covers USD and INR holdings only.
	TotalINR CurrencyTotals
}

type InvestmentList struct {
	Investments    []Investment
	Rate           decimal.Decimal
	RateIsFallback bool
	Summary        PortfolioSummary
}

// REPORTS:
// Reports are estimates derived from stored records, so their figures are float64.

const (
	InsightSuccess = "success"
	InsightWarning = "warning"
	InsightDanger  = "danger"
	InsightInfo    = "info"

	BurnExceeded  = "exceeded"
	BurnDanger    = "danger"
	BurnWarning   = "warning"
	BurnHealthy   = "healthy"
	BurnExcellent = "excellent"

	GoalAchieved = "achieved"
	GoalAhead    = "ahead"
	GoalOnTrack  = "on-track"
	GoalBehind   = "behind"
)

type HealthBreakdown struct {
	Savings     int
	Budget      int
	Goals       int
	Investments int
}

type HealthMetrics struct {
	SavingsRate     float64
	MonthlyIncome   float64
	MonthlyExpenses float64
	MonthlySavings  float64
	DaysElapsed     int
	DaysRemaining   int
}

// InvestmentScore rates the portfolio out of 25: up to 15 for return on investment and up to 10
// for the number of distinct asset types.
type InvestmentScore struct {
	Score                int
	ROIScore             int
	DiversificationScore int
	ROI                  float64
	Types                []string
	TotalInvested        float64
	TotalCurrentValue    float64
}

// HealthScore is a 0-100 rating made of four parts worth up to 25 each.
type HealthScore struct {
	Score      int
	Breakdown  HealthBreakdown
	Metrics    HealthMetrics
	Investment InvestmentScore
}

type Insight struct {
	Type    string
	Message string
}

type InsightList struct {
	Insights []Insight
	// Total counts every insight found, including those left out of Insights.
	Total int
}

type CategoryPattern struct {
	Category      string
	CurrentMonth  float64
	LastMonth     float64
	ThreeMonthAvg float64
	ChangeVsLast  float64
	ChangeVsAvg   float64
}

type SpendingPatterns struct {
	Categories        []CategoryPattern
	CurrentMonth      float64
	LastMonth         float64
	ThreeMonthAverage float64
}

type TimelinePoint struct {
	Date    string
	Label   string
	Balance float64
}

type Cashflow struct {
	Balance             float64
	MonthIncome         float64
	MonthExpenses       float64
	DailyAvgSpending    float64
	PredictedExpenses   float64
	PredictedIncome     float64
	PredictedEndBalance float64
	DaysRemaining       int
	Timeline            []TimelinePoint
	UpcomingExpenses    float64
	UpcomingIncome      float64
	UpcomingCount       int
}

type BudgetBurn struct {
	Category           string
	Limit              float64
	Spent              float64
	Remaining          float64
	Percentage         float64
	DailyBurnRate      float64
	ExpectedSpend      float64
	Performance        float64
	RecommendedDaily   float64
	ProjectedTotal     float64
	DaysUntilExhausted int
	Status             string
	Message            string
}

type BurnRateReport struct {
	Budgets       []BudgetBurn
	DaysElapsed   int
	DaysRemaining int
	TotalBudgets  int
	Exceeded      int
	AtRisk        int
	Healthy       int
}

type GoalOutlook struct {
	ID                  string
	Name                string
	Target              float64
	Saved               float64
	Remaining           float64
	Progress            float64
	Deadline            string
	MonthsRemaining     int
	RequiredMonthly     float64
	CurrentMonthly      float64
	PredictedCompletion string
	Status              string
	Message             string
}

type GoalForecast struct {
	Goals             []GoalOutlook
	TotalGoals        int
	Achieved          int
	Ahead             int
	OnTrack           int
	Behind            int
	AvgMonthlySavings float64
}
