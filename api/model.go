package api

import (
	"net/http"

	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/shopspring/decimal"
)

// REQUESTS:

type CreateTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Recurrence  string          `json:"recurrence"`
}

type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Category    *string          `json:"category"`
	Description *string          `json:"description"`
	Type        *string          `json:"type"`
	Date        *string          `json:"date"`
	Recurrence  *string          `json:"recurrence"`
}

type SetBudgetRequest struct {
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Period   string          `json:"period"`
}

type CreateInvestmentRequest struct {
	Name         string           `json:"name"`
	Ticker       string           `json:"ticker"`
	Category     string           `json:"category"`
	Quantity     decimal.Decimal  `json:"quantity"`
	BuyPrice     decimal.Decimal  `json:"buy_price"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
	Date         string           `json:"date"`
	Currency     string           `json:"currency"`
	Exchange     string           `json:"exchange"`
}

type UpdateInvestmentRequest struct {
	Name         *string          `json:"name"`
	Ticker       *string          `json:"ticker"`
	Category     *string          `json:"category"`
	Quantity     *decimal.Decimal `json:"quantity"`
	BuyPrice     *decimal.Decimal `json:"buy_price"`
	CurrentPrice *decimal.Decimal `json:"current_price"`
	Date         *string          `json:"date"`
	Currency     *string          `json:"currency"`
	Exchange     *string          `json:"exchange"`
}

type CreateGoalRequest struct {
	Name         string           `json:"name"`
	TargetAmount decimal.Decimal  `json:"target_amount"`
	SavedAmount  *decimal.Decimal `json:"saved_amount"`
	Deadline     string           `json:"deadline"`
	Color        string           `json:"color"`
}

type UpdateGoalRequest struct {
	Name         *string          `json:"name"`
	TargetAmount *decimal.Decimal `json:"target_amount"`
	SavedAmount  *decimal.Decimal `json:"saved_amount"`
	Deadline     *string          `json:"deadline"`
	Color        *string          `json:"color"`
}

type PredictRequest struct {
	Description string `json:"description"`
}

type ExportRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Type      string `json:"type"`
}

// RESPONSES:

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type RefreshResponse struct {
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

type PredictResponse struct {
	Category string `json:"category"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

type TransactionItem struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Date        string  `json:"date"`
	Recurrence  string  `json:"recurrence"`
	NextDate    string  `json:"next_date,omitempty"`
}

type BudgetItem struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Period   string  `json:"period"`
}

type InvestmentItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Ticker       string  `json:"ticker"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	Date         string  `json:"date"`
	Currency     string  `json:"currency"`
	Exchange     string  `json:"exchange"`
}

type CurrencyTotalsItem struct {
	Currency        string  `json:"currency"`
	Invested        float64 `json:"invested"`
	Current         float64 `json:"current"`
	Gain            float64 `json:"gain"`
	InvestedDisplay string  `json:"invested_display"`
	CurrentDisplay  string  `json:"current_display"`
	GainDisplay     string  `json:"gain_display"`
}

type PortfolioSummaryItem struct {
	ByCurrency []CurrencyTotalsItem `json:"by_currency"`
	TotalINR   CurrencyTotalsItem   `json:"total_inr"`
}

type ListInvestmentsResponse struct {
	Investments    []InvestmentItem     `json:"investments"`
	Rate           float64              `json:"rate"`
	RateIsFallback bool                 `json:"rate_is_fallback"`
	Summary        PortfolioSummaryItem `json:"summary"`
}

type GoalItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TargetAmount float64 `json:"target_amount"`
	SavedAmount  float64 `json:"saved_amount"`
	Deadline     string  `json:"deadline"`
	Color        string  `json:"color"`
	Progress     float64 `json:"progress"`
	Remaining    float64 `json:"remaining"`
	IsAchieved   bool    `json:"is_achieved"`
}

type AssetItem struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Exchange string `json:"exchange"`
}

func httpStatusFromError(err error) int {
	switch appErrors.CodeOf(err) {
	case appErrors.ErrNotFound:
		return http.StatusNotFound
	case appErrors.ErrInvalidInput:
		return http.StatusBadRequest
	case appErrors.ErrInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func TransactionToHttp(t finance.Transaction) TransactionItem {
	return TransactionItem{
		ID:          t.ID,
		Amount:      t.Amount.InexactFloat64(),
		Category:    t.Category,
		Description: t.Description,
		Type:        t.Type,
		Date:        t.Date,
		Recurrence:  t.Recurrence,
		NextDate:    t.NextDate,
	}
}

func BudgetToHttp(b finance.Budget) BudgetItem {
	return BudgetItem{
		ID:       b.ID,
		Category: b.Category,
		Limit:    b.Limit.InexactFloat64(),
		Period:   b.Period,
	}
}

func InvestmentToHttp(i finance.Investment) InvestmentItem {
	return InvestmentItem{
		ID:           i.ID,
		Name:         i.Name,
		Ticker:       i.Ticker,
		Category:     i.Category,
		Quantity:     i.Quantity.InexactFloat64(),
		BuyPrice:     i.BuyPrice.InexactFloat64(),
		CurrentPrice: i.CurrentPrice.InexactFloat64(),
		Date:         i.Date,
		Currency:     i.Currency,
		Exchange:     i.Exchange,
	}
}

func CurrencyTotalsToHttp(c finance.CurrencyTotals) CurrencyTotalsItem {
	return CurrencyTotalsItem{
		Currency:        c.Currency,
		Invested:        c.Invested.InexactFloat64(),
		Current:         c.Current.InexactFloat64(),
		Gain:            c.Gain.InexactFloat64(),
		InvestedDisplay: c.InvestedDisplay,
		CurrentDisplay:  c.CurrentDisplay,
		GainDisplay:     c.GainDisplay,
	}
}

func InvestmentListToHttp(list finance.InvestmentList) ListInvestmentsResponse {
	resp := ListInvestmentsResponse{
		Investments:    make([]InvestmentItem, 0, len(list.Investments)),
		Rate:           list.Rate.InexactFloat64(),
		RateIsFallback: list.RateIsFallback,
		Summary: PortfolioSummaryItem{
			ByCurrency: make([]CurrencyTotalsItem, 0, len(list.Summary.ByCurrency)),
			TotalINR:   CurrencyTotalsToHttp(list.Summary.TotalINR),
		},
	}
	for _, inv := range list.Investments {
		resp.Investments = append(resp.Investments, InvestmentToHttp(inv))
	}
	for _, ct := range list.Summary.ByCurrency {
		resp.Summary.ByCurrency = append(resp.Summary.ByCurrency, CurrencyTotalsToHttp(ct))
	}
	return resp
}

func GoalToHttp(g finance.Goal) GoalItem {
	return GoalItem{
		ID:           g.ID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount.InexactFloat64(),
		SavedAmount:  g.SavedAmount.InexactFloat64(),
		Deadline:     g.Deadline,
		Color:        g.Color,
		Progress:     g.Progress().InexactFloat64(),
		Remaining:    g.Remaining().InexactFloat64(),
		IsAchieved:   g.IsAchieved(),
	}
}

func AssetToHttp(a finance.AssetResult) AssetItem {
	return AssetItem{
		Symbol:   a.Symbol,
		Name:     a.Name,
		Category: a.Category,
		Exchange: a.Exchange,
	}
}

// --- REPORTS --- //

type HealthScoreResponse struct {
	Score     int `json:"score"`
	Breakdown struct {
		Savings     int `json:"savings"`
		Budget      int `json:"budget"`
		Goals       int `json:"goals"`
		Investments int `json:"investments"`
	} `json:"breakdown"`
	Metrics struct {
		SavingsRate     float64 `json:"savings_rate"`
		MonthlyIncome   float64 `json:"monthly_income"`
		MonthlyExpenses float64 `json:"monthly_expenses"`
		MonthlySavings  float64 `json:"monthly_savings"`
		DaysElapsed     int     `json:"days_elapsed"`
		DaysRemaining   int     `json:"days_remaining"`
	} `json:"metrics"`
	InvestmentMetrics struct {
		ROI                  float64  `json:"roi"`
		ROIScore             int      `json:"roi_score"`
		DiversificationScore int      `json:"diversification_score"`
		Types                []string `json:"types"`
		TotalInvested        float64  `json:"total_invested"`
		TotalCurrentValue    float64  `json:"total_current_value"`
	} `json:"investment_metrics"`
}

type InsightItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type InsightsResponse struct {
	Insights      []InsightItem `json:"insights"`
	TotalInsights int           `json:"total_insights"`
}

type CategoryPatternItem struct {
	Category      string  `json:"category"`
	CurrentMonth  float64 `json:"current_month"`
	LastMonth     float64 `json:"last_month"`
	ThreeMonthAvg float64 `json:"three_month_avg"`
	ChangeVsLast  float64 `json:"change_vs_last"`
	ChangeVsAvg   float64 `json:"change_vs_avg"`
}

type PatternsResponse struct {
	CategoryComparison []CategoryPatternItem `json:"category_comparison"`
	Totals             struct {
		CurrentMonth  float64 `json:"current_month"`
		LastMonth     float64 `json:"last_month"`
		ThreeMonthAvg float64 `json:"three_month_avg"`
	} `json:"totals"`
}

type TimelinePointItem struct {
	Date    string  `json:"date"`
	Label   string  `json:"label"`
	Balance float64 `json:"balance"`
}

type CashflowResponse struct {
	Current struct {
		Balance          float64 `json:"balance"`
		MonthIncome      float64 `json:"month_income"`
		MonthExpenses    float64 `json:"month_expenses"`
		DailyAvgSpending float64 `json:"daily_avg_spending"`
	} `json:"current"`
	Predictions struct {
		Expenses      float64 `json:"expenses"`
		Income        float64 `json:"income"`
		EndBalance    float64 `json:"end_balance"`
		DaysRemaining int     `json:"days_remaining"`
	} `json:"predictions"`
	Timeline          []TimelinePointItem `json:"timeline"`
	UpcomingRecurring struct {
		Expenses float64 `json:"expenses"`
		Income   float64 `json:"income"`
		Count    int     `json:"count"`
	} `json:"upcoming_recurring"`
}

type BudgetBurnItem struct {
	Category           string  `json:"category"`
	Limit              float64 `json:"limit"`
	Spent              float64 `json:"spent"`
	Remaining          float64 `json:"remaining"`
	Percentage         float64 `json:"percentage"`
	DailyBurnRate      float64 `json:"daily_burn_rate"`
	ExpectedSpend      float64 `json:"expected_spend"`
	Performance        float64 `json:"performance"`
	RecommendedDaily   float64 `json:"recommended_daily"`
	ProjectedTotal     float64 `json:"projected_total"`
	DaysUntilExhausted int     `json:"days_until_exhausted"`
	Status             string  `json:"status"`
	Message            string  `json:"message"`
}

type BurnRateResponse struct {
	Budgets []BudgetBurnItem `json:"budgets"`
	Summary struct {
		DaysElapsed   int `json:"days_elapsed"`
		DaysRemaining int `json:"days_remaining"`
		TotalBudgets  int `json:"total_budgets"`
		Exceeded      int `json:"exceeded"`
		AtRisk        int `json:"at_risk"`
		Healthy       int `json:"healthy"`
	} `json:"summary"`
}

type GoalOutlookItem struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Target              float64 `json:"target"`
	Saved               float64 `json:"saved"`
	Remaining           float64 `json:"remaining"`
	Progress            float64 `json:"progress"`
	Deadline            string  `json:"deadline"`
	MonthsRemaining     int     `json:"months_remaining"`
	RequiredMonthly     float64 `json:"required_monthly"`
	CurrentMonthly      float64 `json:"current_monthly"`
	PredictedCompletion string  `json:"predicted_completion"`
	Status              string  `json:"status"`
	Message             string  `json:"message"`
}

type GoalForecastResponse struct {
	Goals   []GoalOutlookItem `json:"goals"`
	Summary struct {
		TotalGoals        int     `json:"total_goals"`
		Achieved          int     `json:"achieved"`
		Ahead             int     `json:"ahead"`
		OnTrack           int     `json:"on_track"`
		Behind            int     `json:"behind"`
		AvgMonthlySavings float64 `json:"avg_monthly_savings"`
	} `json:"summary"`
}

func HealthScoreToHttp(h finance.HealthScore) HealthScoreResponse {
	var resp HealthScoreResponse
	resp.Score = h.Score
	resp.Breakdown.Savings = h.Breakdown.Savings
	resp.Breakdown.Budget = h.Breakdown.Budget
	resp.Breakdown.Goals = h.Breakdown.Goals
	resp.Breakdown.Investments = h.Breakdown.Investments

	resp.Metrics.SavingsRate = h.Metrics.SavingsRate
	resp.Metrics.MonthlyIncome = h.Metrics.MonthlyIncome
	resp.Metrics.MonthlyExpenses = h.Metrics.MonthlyExpenses
	resp.Metrics.MonthlySavings = h.Metrics.MonthlySavings
	resp.Metrics.DaysElapsed = h.Metrics.DaysElapsed
	resp.Metrics.DaysRemaining = h.Metrics.DaysRemaining

	resp.InvestmentMetrics.ROI = h.Investment.ROI
	resp.InvestmentMetrics.ROIScore = h.Investment.ROIScore
	resp.InvestmentMetrics.DiversificationScore = h.Investment.DiversificationScore
	resp.InvestmentMetrics.Types = append([]string{}, h.Investment.Types...)
	resp.InvestmentMetrics.TotalInvested = h.Investment.TotalInvested
	resp.InvestmentMetrics.TotalCurrentValue = h.Investment.TotalCurrentValue
	return resp
}

func InsightsToHttp(list finance.InsightList) InsightsResponse {
	resp := InsightsResponse{
		Insights:      make([]InsightItem, 0, len(list.Insights)),
		TotalInsights: list.Total,
	}
	for _, i := range list.Insights {
		resp.Insights = append(resp.Insights, InsightItem{Type: i.Type, Message: i.Message})
	}
	return resp
}

func PatternsToHttp(p finance.SpendingPatterns) PatternsResponse {
	resp := PatternsResponse{CategoryComparison: make([]CategoryPatternItem, 0, len(p.Categories))}
	for _, c := range p.Categories {
		resp.CategoryComparison = append(resp.CategoryComparison, CategoryPatternItem(c))
	}
	resp.Totals.CurrentMonth = p.CurrentMonth
	resp.Totals.LastMonth = p.LastMonth
	resp.Totals.ThreeMonthAvg = p.ThreeMonthAverage
	return resp
}

func CashflowToHttp(c finance.Cashflow) CashflowResponse {
	var resp CashflowResponse
	resp.Current.Balance = c.Balance
	resp.Current.MonthIncome = c.MonthIncome
	resp.Current.MonthExpenses = c.MonthExpenses
	resp.Current.DailyAvgSpending = c.DailyAvgSpending

	resp.Predictions.Expenses = c.PredictedExpenses
	resp.Predictions.Income = c.PredictedIncome
	resp.Predictions.EndBalance = c.PredictedEndBalance
	resp.Predictions.DaysRemaining = c.DaysRemaining

	resp.Timeline = make([]TimelinePointItem, 0, len(c.Timeline))
	for _, p := range c.Timeline {
		resp.Timeline = append(resp.Timeline, TimelinePointItem(p))
	}

	resp.UpcomingRecurring.Expenses = c.UpcomingExpenses
	resp.UpcomingRecurring.Income = c.UpcomingIncome
	resp.UpcomingRecurring.Count = c.UpcomingCount
	return resp
}

func BurnRateToHttp(r finance.BurnRateReport) BurnRateResponse {
	resp := BurnRateResponse{Budgets: make([]BudgetBurnItem, 0, len(r.Budgets))}
	for _, b := range r.Budgets {
		resp.Budgets = append(resp.Budgets, BudgetBurnItem(b))
	}
	resp.Summary.DaysElapsed = r.DaysElapsed
	resp.Summary.DaysRemaining = r.DaysRemaining
	resp.Summary.TotalBudgets = r.TotalBudgets
	resp.Summary.Exceeded = r.Exceeded
	resp.Summary.AtRisk = r.AtRisk
	resp.Summary.Healthy = r.Healthy
	return resp
}

func GoalForecastToHttp(f finance.GoalForecast) GoalForecastResponse {
	resp := GoalForecastResponse{Goals: make([]GoalOutlookItem, 0, len(f.Goals))}
	for _, g := range f.Goals {
		resp.Goals = append(resp.Goals, GoalOutlookItem(g))
	}
	resp.Summary.TotalGoals = f.TotalGoals
	resp.Summary.Achieved = f.Achieved
	resp.Summary.Ahead = f.Ahead
	resp.Summary.OnTrack = f.OnTrack
	resp.Summary.Behind = f.Behind
	resp.Summary.AvgMonthlySavings = f.AvgMonthlySavings
	return resp
}
