package finance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MAX_INSIGHTS = 6
	// anomalies are expenses above this multiple of the month's average expense
	ANOMALY_FACTOR = 3
)

var diversificationAliases = map[string]string{
	"Stock":          "Stocks",
	"Stocks":         "Stocks",
	"USA Stock":      "USA Stocks",
	"USA Stocks":     "USA Stocks",
	"US Stock":       "USA Stocks",
	"US Stocks":      "USA Stocks",
	"India Stock":    "India Stocks",
	"India Stocks":   "India Stocks",
	"Indian Stock":   "India Stocks",
	"Indian Stocks":  "India Stocks",
	"Crypto":         "Cryptocurrency",
	"Cryptocurrency": "Cryptocurrency",
}

// monthWindow holds the calendar boundaries every report works with, as inclusive ISO dates.
type monthWindow struct {
	midnight       time.Time
	today          string
	monthStart     string
	monthEnd       string
	lastMonthStart string
	lastMonthEnd   string
	threeMonthsAgo string
	daysElapsed    int
	totalDays      int
}

func newMonthWindow(now time.Time) monthWindow {
	now = now.UTC()
	y, m, d := now.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return monthWindow{
		midnight:       time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		today:          now.Format(DateLayout),
		monthStart:     first.Format(DateLayout),
		monthEnd:       last.Format(DateLayout),
		lastMonthStart: first.AddDate(0, -1, 0).Format(DateLayout),
		lastMonthEnd:   first.AddDate(0, 0, -1).Format(DateLayout),
		threeMonthsAgo: first.AddDate(0, -2, 0).Format(DateLayout),
		daysElapsed:    d,
		totalDays:      last.Day(),
	}
}

func (w monthWindow) daysRemaining() int {
	return w.totalDays - w.daysElapsed
}

func (w monthWindow) firstOfMonth() time.Time {
	return w.midnight.AddDate(0, 0, 1-w.daysElapsed)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func inDates(date, start, end string) bool {
	return date >= start && date <= end
}

// sumOf totals the transactions of kind dated between start and end.
func sumOf(txns []Transaction, kind, start, end string) float64 {
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Type == kind && inDates(txn.Date, start, end) {
			total = total.Add(txn.Amount)
		}
	}
	return total.InexactFloat64()
}

// categorySpend totals expenses per category. Categories are listed in order of first appearance.
type categorySpend struct {
	order  []string
	totals map[string]decimal.Decimal
}

func expensesByCategory(txns []Transaction, start, end string) categorySpend {
	spend := categorySpend{totals: make(map[string]decimal.Decimal)}
	for _, txn := range txns {
		if txn.Type != TypeExpense || !inDates(txn.Date, start, end) {
			continue
		}
		category := txn.Category
		if category == "" {
			category = "Others"
		}
		if _, seen := spend.totals[category]; !seen {
			spend.order = append(spend.order, category)
		}
		spend.totals[category] = spend.totals[category].Add(txn.Amount)
	}
	return spend
}

func (c categorySpend) of(category string) float64 {
	return c.totals[category].InexactFloat64()
}

func percentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

func savingsRate(income, expenses float64) float64 {
	if income == 0 {
		return 0
	}
	return (income - expenses) / income * 100
}

// anomalies returns the expenses above ANOMALY_FACTOR times the average expense of the window.
func anomalies(txns []Transaction, start, end string) []Transaction {
	var expenses []Transaction
	total := decimal.Zero
	for _, txn := range txns {
		if txn.Type == TypeExpense && inDates(txn.Date, start, end) {
			expenses = append(expenses, txn)
			total = total.Add(txn.Amount)
		}
	}
	if len(expenses) == 0 {
		return nil
	}

	threshold := total.Div(decimal.NewFromInt(int64(len(expenses)))).Mul(decimal.NewFromInt(ANOMALY_FACTOR))
	var out []Transaction
	for _, txn := range expenses {
		if txn.Amount.GreaterThan(threshold) {
			out = append(out, txn)
		}
	}
	return out
}

// paceScore maps how far ahead of (positive) or behind (negative) schedule something is, in
// percent, to a 10-100 score.
func paceScore(performance float64) int {
	switch {
	case performance >= 50:
		return 100
	case performance >= 30:
		return 95
	case performance >= 10:
		return 85
	case performance >= 0:
		return 75
	case performance >= -10:
		return 65
	case performance >= -20:
		return 50
	case performance >= -40:
		return 30
	default:
		return 10
	}
}

// budgetPace compares spent with the share of limit expected after the elapsed days of the month.
// A positive performance means spending is under pace.
func budgetPace(limit, spent float64, w monthWindow) (expected, performance float64) {
	expected = limit / float64(w.totalDays) * float64(w.daysElapsed)
	if expected <= 0 {
		return expected, 0
	}
	return expected, (expected - spent) / expected * 100
}

func budgetHealth(budgets []Budget, spend categorySpend, w monthWindow) float64 {
	if len(budgets) == 0 {
		return 100
	}
	total := 0
	for _, b := range budgets {
		_, performance := budgetPace(b.Limit.InexactFloat64(), spend.of(b.Category), w)
		total += paceScore(performance)
	}
	return float64(total) / float64(len(budgets))
}

// goalCreatedAt reads the creation time embedded in a UUIDv7 goal id.
func goalCreatedAt(g Goal, fallback time.Time) time.Time {
	id, err := uuid.Parse(g.ID)
	if err != nil || id.Version() != 7 {
		return fallback
	}
	sec, nsec := id.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// goalHealth scores each goal by how its savings compare with a straight line from creation to
// deadline. Goals without a readable creation time are measured from the start of the month.
func goalHealth(goals []Goal, now time.Time, w monthWindow) float64 {
	if len(goals) == 0 {
		return 100
	}
	total := 0
	for _, g := range goals {
		if g.IsAchieved() {
			total += 100
			continue
		}
		created := goalCreatedAt(g, w.firstOfMonth())
		deadline, err := time.Parse(DateLayout, g.Deadline)
		if err != nil {
			deadline = now
		}
		totalDays := max(1, ceilDays(deadline.Sub(created)))
		elapsed := max(1, ceilDays(now.Sub(created)))

		expected := g.TargetAmount.InexactFloat64() / float64(totalDays) * float64(elapsed)
		performance := 0.0
		if expected > 0 {
			performance = (g.SavedAmount.InexactFloat64() - expected) / expected * 100
		}
		total += paceScore(performance)
	}
	return float64(total) / float64(len(goals))
}

func roiScore(roi float64) int {
	switch {
	case roi >= 30:
		return 15
	case roi >= 20:
		return 13
	case roi >= 10:
		return 11
	case roi >= 5:
		return 9
	case roi >= 0:
		return 7
	case roi >= -5:
		return 5
	case roi >= -10:
		return 3
	case roi >= -20:
		return 2
	default:
		return 0
	}
}

func diversificationScore(types int) int {
	switch {
	case types >= 3:
		return 10
	case types == 2:
		return 7
	case types == 1:
		return 3
	default:
		return 0
	}
}

// scoreInvestments converts USD holdings to INR with rate before computing the return, so that
// mixed portfolios compare like with like. Holdings never priced count at their buy price.
func scoreInvestments(invs []Investment, rate decimal.Decimal) InvestmentScore {
	if len(invs) == 0 {
		return InvestmentScore{Types: []string{}}
	}

	invested, current := decimal.Zero, decimal.Zero
	seen := make(map[string]bool)
	types := []string{}
	for _, inv := range invs {
		price := inv.CurrentPrice
		if price.IsZero() {
			price = inv.BuyPrice
		}
		in, now := inv.Invested(), inv.Quantity.Mul(price)
		if inv.Currency == "USD" {
			in, now = in.Mul(rate), now.Mul(rate)
		}
		invested = invested.Add(in)
		current = current.Add(now)

		kind, ok := diversificationAliases[inv.Category]
		if !ok {
			kind = inv.Category
		}
		if !seen[kind] {
			seen[kind] = true
			types = append(types, kind)
		}
	}

	s := InvestmentScore{
		Types:             types,
		TotalInvested:     round2(invested.InexactFloat64()),
		TotalCurrentValue: round2(current.InexactFloat64()),
	}
	if invested.IsPositive() {
		s.ROI = round2(current.Sub(invested).Div(invested).Mul(hundred).InexactFloat64())
		s.ROIScore = roiScore(s.ROI)
	}
	s.DiversificationScore = diversificationScore(len(types))
	s.Score = s.ROIScore + s.DiversificationScore
	return s
}

func inr(amount float64) string {
	return FormatMoney(decimal.NewFromFloat(amount).Round(0), "INR")
}

// HealthScore rates the current month out of 100: savings rate, budget pace, goal pace and
// the investment portfolio each contribute up to 25.
func (t *Tracker) HealthScore(ctx context.Context) (HealthScore, error) {
	w := newMonthWindow(t.now())

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return HealthScore{}, fmt.Errorf("failed to get transactions: %w", err)
	}
	budgets, err := t.storage.GetBudgets(ctx)
	if err != nil {
		return HealthScore{}, fmt.Errorf("failed to get budgets: %w", err)
	}
	goals, err := t.storage.GetGoals(ctx)
	if err != nil {
		return HealthScore{}, fmt.Errorf("failed to get goals: %w", err)
	}
	invs, err := t.storage.GetInvestments(ctx)
	if err != nil {
		return HealthScore{}, fmt.Errorf("failed to get investments: %w", err)
	}

	income := sumOf(txns, TypeIncome, w.monthStart, w.monthEnd)
	expenses := sumOf(txns, TypeExpense, w.monthStart, w.monthEnd)
	rate := savingsRate(income, expenses)

	// a negative savings rate scores nothing rather than eating into the other parts
	savingsPart := math.Max(0, math.Min(25, rate/30*25))
	budgetPart := budgetHealth(budgets, expensesByCategory(txns, w.monthStart, w.monthEnd), w) / 100 * 25
	goalPart := goalHealth(goals, t.now().UTC(), w) / 100 * 25

	usdINR, _ := t.usdINRRate(ctx)
	inv := scoreInvestments(invs, usdINR)

	return HealthScore{
		Score: int(math.Round(savingsPart + budgetPart + goalPart + float64(inv.Score))),
		Breakdown: HealthBreakdown{
			Savings:     int(math.Round(savingsPart)),
			Budget:      int(math.Round(budgetPart)),
			Goals:       int(math.Round(goalPart)),
			Investments: inv.Score,
		},
		Metrics: HealthMetrics{
			SavingsRate:     round1(rate),
			MonthlyIncome:   round2(income),
			MonthlyExpenses: round2(expenses),
			MonthlySavings:  round2(income - expenses),
			DaysElapsed:     w.daysElapsed,
			DaysRemaining:   w.daysRemaining(),
		},
		Investment: inv,
	}, nil
}

// Insights lists observations about this month compared with the last one, at most MAX_INSIGHTS.
func (t *Tracker) Insights(ctx context.Context) (InsightList, error) {
	w := newMonthWindow(t.now())

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return InsightList{}, fmt.Errorf("failed to get transactions: %w", err)
	}
	budgets, err := t.storage.GetBudgets(ctx)
	if err != nil {
		return InsightList{}, fmt.Errorf("failed to get budgets: %w", err)
	}
	invs, err := t.storage.GetInvestments(ctx)
	if err != nil {
		return InsightList{}, fmt.Errorf("failed to get investments: %w", err)
	}

	var out []Insight
	add := func(kind, format string, args ...any) {
		out = append(out, Insight{Type: kind, Message: fmt.Sprintf(format, args...)})
	}

	currentExpenses := sumOf(txns, TypeExpense, w.monthStart, w.monthEnd)
	lastExpenses := sumOf(txns, TypeExpense, w.lastMonthStart, w.lastMonthEnd)
	if change := percentageChange(currentExpenses, lastExpenses); math.Abs(change) > 10 {
		if change > 0 {
			add(InsightWarning, "You've spent %s more than last month (%.0f%% increase)", inr(currentExpenses-lastExpenses), change)
		} else {
			add(InsightSuccess, "You've spent %s less than last month (%.0f%% decrease)", inr(lastExpenses-currentExpenses), -change)
		}
	}

	currentIncome := sumOf(txns, TypeIncome, w.monthStart, w.monthEnd)
	lastIncome := sumOf(txns, TypeIncome, w.lastMonthStart, w.lastMonthEnd)
	if change := percentageChange(currentIncome, lastIncome); math.Abs(change) > 10 {
		if change > 0 {
			add(InsightSuccess, "Income increased by %.0f%% compared to last month", change)
		} else {
			add(InsightWarning, "Income decreased by %.0f%% compared to last month", -change)
		}
	}

	spend := expensesByCategory(txns, w.monthStart, w.monthEnd)
	for _, b := range budgets {
		limit := b.Limit.InexactFloat64()
		spent := spend.of(b.Category)
		used := spent / limit * 100
		_, performance := budgetPace(limit, spent, w)

		switch {
		case used >= 100:
			add(InsightDanger, "%s budget exceeded by %s", b.Category, inr(spent-limit))
		case performance < -20:
			projected := spent / float64(w.daysElapsed) * float64(w.totalDays)
			add(InsightDanger, "%s burning too fast! At current rate, you'll spend %s (%.0f%% of budget)", b.Category, inr(projected), projected/limit*100)
		case performance < -10:
			add(InsightWarning, "%s spending ahead of schedule - currently at %.0f%% with %d days left", b.Category, used, w.daysRemaining())
		case performance > 30 && w.daysElapsed > 10:
			add(InsightSuccess, "Excellent! %s spending well under control (%.0f%% used, %.0f%% under pace)", b.Category, used, performance)
		}
	}

	rate := savingsRate(currentIncome, currentExpenses)
	switch {
	case rate >= 20:
		add(InsightSuccess, "Excellent! You're saving %.0f%% of your income this month", rate)
	case rate > 0 && rate < 10:
		add(InsightWarning, "Savings rate is low (%.0f%%) - aim for at least 20%%", rate)
	case rate <= 0:
		add(InsightDanger, "Alert: You're spending more than you earn this month")
	}

	if len(invs) == 0 {
		add(InsightInfo, "Start investing to build wealth! Consider stocks, crypto, or mutual funds")
	} else {
		usdINR, _ := t.usdINRRate(ctx)
		score := scoreInvestments(invs, usdINR)
		switch {
		case score.ROI >= 20:
			add(InsightSuccess, "Outstanding! Your investments have %.2f%% returns", score.ROI)
		case score.ROI < 0:
			add(InsightWarning, "Your portfolio is down %.2f%%. Consider reviewing your investment strategy", -score.ROI)
		}
		switch len(score.Types) {
		case 1:
			add(InsightWarning, "All investments in %s! Diversify to reduce risk", score.Types[0])
		case 3:
			add(InsightSuccess, "Perfect diversification across %s!", strings.Join(score.Types, ", "))
		}
	}

	if unusual := anomalies(txns, w.monthStart, w.monthEnd); len(unusual) > 0 {
		add(InsightInfo, "Unusual expense detected: %s on %s (%dx your average)", inr(unusual[0].Amount.InexactFloat64()), unusual[0].Category, ANOMALY_FACTOR)
	}

	lastSpend := expensesByCategory(txns, w.lastMonthStart, w.lastMonthEnd)
	for _, category := range spend.order {
		current := spend.of(category)
		if change := percentageChange(current, lastSpend.of(category)); change > 50 && current > 1000 {
			add(InsightWarning, "%s expenses increased by %.0f%% - consider reviewing this category", category, change)
		}
	}

	list := InsightList{Insights: out, Total: len(out)}
	if len(list.Insights) > MAX_INSIGHTS {
		list.Insights = list.Insights[:MAX_INSIGHTS]
	}
	if list.Insights == nil {
		list.Insights = []Insight{}
	}
	return list, nil
}

// Patterns compares this month's spending per category with last month and the three-month
// average, biggest categories first.
func (t *Tracker) Patterns(ctx context.Context) (SpendingPatterns, error) {
	w := newMonthWindow(t.now())

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return SpendingPatterns{}, fmt.Errorf("failed to get transactions: %w", err)
	}

	current := expensesByCategory(txns, w.monthStart, w.monthEnd)
	last := expensesByCategory(txns, w.lastMonthStart, w.lastMonthEnd)
	quarter := expensesByCategory(txns, w.threeMonthsAgo, w.monthEnd)

	patterns := SpendingPatterns{Categories: make([]CategoryPattern, 0, len(current.order))}
	for _, category := range current.order {
		now, prev, avg := current.of(category), last.of(category), quarter.of(category)/3
		patterns.Categories = append(patterns.Categories, CategoryPattern{
			Category:      category,
			CurrentMonth:  round2(now),
			LastMonth:     round2(prev),
			ThreeMonthAvg: round2(avg),
			ChangeVsLast:  round2(percentageChange(now, prev)),
			ChangeVsAvg:   round2(percentageChange(now, avg)),
		})
	}
	sort.SliceStable(patterns.Categories, func(i, j int) bool {
		return patterns.Categories[i].CurrentMonth > patterns.Categories[j].CurrentMonth
	})

	patterns.CurrentMonth = round2(sumOf(txns, TypeExpense, w.monthStart, w.monthEnd))
	patterns.LastMonth = round2(sumOf(txns, TypeExpense, w.lastMonthStart, w.lastMonthEnd))
	patterns.ThreeMonthAverage = round2(sumOf(txns, TypeExpense, w.threeMonthsAgo, w.monthEnd) / 3)
	return patterns, nil
}
