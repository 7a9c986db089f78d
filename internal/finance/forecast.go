package finance

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	// reported when nothing is being spent or saved, so the horizon never arrives
	NEVER = 999

	DAYS_PER_MONTH = 30
)

var timelineSteps = []struct {
	days  int
	label string
}{
	{days: 7, label: "1 Week"},
	{days: 14, label: "2 Weeks"},
}

var burnOrder = map[string]int{
	BurnExceeded:  0,
	BurnDanger:    1,
	BurnWarning:   2,
	BurnHealthy:   3,
	BurnExcellent: 4,
}

// Cashflow projects the balance to the end of the month from this month's daily spending and
// the recurring transactions still due before month end.
func (t *Tracker) Cashflow(ctx context.Context) (Cashflow, error) {
	w := newMonthWindow(t.now())

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return Cashflow{}, fmt.Errorf("failed to get transactions: %w", err)
	}

	balance := sumOf(txns, TypeIncome, "", w.today) - sumOf(txns, TypeExpense, "", w.today)
	monthIncome := sumOf(txns, TypeIncome, w.monthStart, w.today)
	monthExpenses := sumOf(txns, TypeExpense, w.monthStart, w.today)
	dailyAvg := monthExpenses / float64(max(1, w.daysElapsed))
	predicted := dailyAvg * float64(w.daysRemaining())

	cf := Cashflow{DaysRemaining: w.daysRemaining()}
	for _, txn := range txns {
		if !inDates(dueDate(txn), w.today, w.monthEnd) {
			continue
		}
		cf.UpcomingCount++
		switch txn.Type {
		case TypeExpense:
			cf.UpcomingExpenses += txn.Amount.InexactFloat64()
		case TypeIncome:
			cf.UpcomingIncome += txn.Amount.InexactFloat64()
		}
	}

	endBalance := balance - (predicted + cf.UpcomingExpenses) + cf.UpcomingIncome

	cf.Timeline = []TimelinePoint{{Date: w.today, Label: "Today", Balance: round2(balance)}}
	for _, step := range timelineSteps {
		if w.daysRemaining() < step.days {
			break
		}
		cf.Timeline = append(cf.Timeline, TimelinePoint{
			Date:    w.midnight.AddDate(0, 0, step.days).Format(DateLayout),
			Label:   step.label,
			Balance: round2(balance - dailyAvg*float64(step.days)),
		})
	}
	cf.Timeline = append(cf.Timeline, TimelinePoint{Date: w.monthEnd, Label: "Month End", Balance: round2(endBalance)})

	cf.Balance = round2(balance)
	cf.MonthIncome = round2(monthIncome)
	cf.MonthExpenses = round2(monthExpenses)
	cf.DailyAvgSpending = round2(dailyAvg)
	cf.PredictedExpenses = round2(predicted + cf.UpcomingExpenses)
	cf.PredictedIncome = round2(cf.UpcomingIncome)
	cf.PredictedEndBalance = round2(endBalance)
	cf.UpcomingExpenses = round2(cf.UpcomingExpenses)
	cf.UpcomingIncome = round2(cf.UpcomingIncome)
	return cf, nil
}

func burnStatus(b BudgetBurn, w monthWindow) (string, string) {
	switch {
	case b.Percentage >= 100:
		return BurnExceeded, fmt.Sprintf("Budget exceeded by %s", inr(b.Spent-b.Limit))
	case b.Performance < -40:
		return BurnDanger, fmt.Sprintf("Burning %.0f%% faster than expected! Will exceed budget by Day %.0f",
			math.Abs(b.Performance), float64(w.daysElapsed)+b.Remaining/b.DailyBurnRate)
	case b.Performance < -20:
		return BurnDanger, fmt.Sprintf("Spending too fast (%.0f%% over pace). Reduce to %s/day", math.Abs(b.Performance), inr(b.RecommendedDaily))
	case b.Performance < -10:
		return BurnWarning, fmt.Sprintf("Slightly over pace. %.0f%% used with %d days remaining", b.Percentage, w.daysRemaining())
	case b.Performance >= 30:
		return BurnExcellent, fmt.Sprintf("Excellent control! %.0f%% under pace with %s buffer", b.Performance, inr(b.Remaining))
	case b.Performance >= 10:
		return BurnHealthy, fmt.Sprintf("Good pace. On track to finish at %s (%.0f%% of budget)", inr(b.ProjectedTotal), b.ProjectedTotal/b.Limit*100)
	default:
		return BurnHealthy, fmt.Sprintf("On track to finish at %s", inr(b.ProjectedTotal))
	}
}

// BudgetBurnRate measures how fast each budget is being spent this month, most urgent first.
func (t *Tracker) BudgetBurnRate(ctx context.Context) (BurnRateReport, error) {
	w := newMonthWindow(t.now())

	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return BurnRateReport{}, fmt.Errorf("failed to get transactions: %w", err)
	}
	budgets, err := t.storage.GetBudgets(ctx)
	if err != nil {
		return BurnRateReport{}, fmt.Errorf("failed to get budgets: %w", err)
	}

	spend := expensesByCategory(txns, w.monthStart, w.today)
	report := BurnRateReport{
		Budgets:       make([]BudgetBurn, 0, len(budgets)),
		DaysElapsed:   w.daysElapsed,
		DaysRemaining: w.daysRemaining(),
		TotalBudgets:  len(budgets),
	}
	for _, b := range budgets {
		limit := b.Limit.InexactFloat64()
		spent := spend.of(b.Category)
		expected, performance := budgetPace(limit, spent, w)

		burn := BudgetBurn{
			Category:       b.Category,
			Limit:          limit,
			Spent:          spent,
			Remaining:      limit - spent,
			Percentage:     spent / limit * 100,
			DailyBurnRate:  spent / float64(w.daysElapsed),
			ExpectedSpend:  expected,
			Performance:    performance,
			ProjectedTotal: spent / float64(w.daysElapsed) * float64(w.totalDays),
		}
		exhausted := float64(NEVER)
		if burn.DailyBurnRate > 0 {
			exhausted = burn.Remaining / burn.DailyBurnRate
		}
		if w.daysRemaining() > 0 {
			burn.RecommendedDaily = burn.Remaining / float64(w.daysRemaining())
		}
		burn.Status, burn.Message = burnStatus(burn, w)

		burn.Limit = round2(burn.Limit)
		burn.Spent = round2(burn.Spent)
		burn.Remaining = round2(burn.Remaining)
		burn.Percentage = round1(burn.Percentage)
		burn.DailyBurnRate = round2(burn.DailyBurnRate)
		burn.ExpectedSpend = round2(burn.ExpectedSpend)
		burn.Performance = round1(burn.Performance)
		burn.RecommendedDaily = round2(burn.RecommendedDaily)
		burn.ProjectedTotal = round2(burn.ProjectedTotal)
		burn.DaysUntilExhausted = int(math.Round(exhausted))
		report.Budgets = append(report.Budgets, burn)

		switch burn.Status {
		case BurnExceeded:
			report.Exceeded++
		case BurnDanger:
			report.AtRisk++
		case BurnHealthy, BurnExcellent:
			report.Healthy++
		}
	}

	sort.SliceStable(report.Budgets, func(i, j int) bool {
		return burnOrder[report.Budgets[i].Status] < burnOrder[report.Budgets[j].Status]
	})
	return report, nil
}

// GoalForecast predicts when each goal completes at the average monthly savings of the last
// three calendar months, this one included.
func (t *Tracker) GoalForecast(ctx context.Context) (GoalForecast, error) {
	w := newMonthWindow(t.now())

	goals, err := t.storage.GetGoals(ctx)
	if err != nil {
		return GoalForecast{}, fmt.Errorf("failed to get goals: %w", err)
	}
	txns, err := t.storage.GetTransactions(ctx)
	if err != nil {
		return GoalForecast{}, fmt.Errorf("failed to get transactions: %w", err)
	}

	avgSavings := (sumOf(txns, TypeIncome, w.threeMonthsAgo, w.today) - sumOf(txns, TypeExpense, w.threeMonthsAgo, w.today)) / 3
	forecast := GoalForecast{
		Goals:             make([]GoalOutlook, 0, len(goals)),
		TotalGoals:        len(goals),
		AvgMonthlySavings: round2(avgSavings),
	}

	for _, g := range goals {
		remaining := g.Remaining().InexactFloat64()
		monthsLeft := 0
		if deadline, err := time.Parse(DateLayout, g.Deadline); err == nil {
			monthsLeft = max(0, int(math.Ceil(deadline.Sub(w.midnight).Hours()/24/DAYS_PER_MONTH)))
		}

		required := remaining
		if monthsLeft > 0 {
			required = remaining / float64(monthsLeft)
		}
		monthsToComplete := float64(NEVER)
		if avgSavings > 0 {
			monthsToComplete = math.Min(remaining/avgSavings, NEVER)
		}
		completion := w.midnight.Add(time.Duration(monthsToComplete * DAYS_PER_MONTH * 24 * float64(time.Hour)))

		outlook := GoalOutlook{
			ID:                  g.ID,
			Name:                g.Name,
			Target:              round2(g.TargetAmount.InexactFloat64()),
			Saved:               round2(g.SavedAmount.InexactFloat64()),
			Remaining:           round2(remaining),
			Progress:            g.Progress().InexactFloat64(),
			Deadline:            g.Deadline,
			MonthsRemaining:     monthsLeft,
			RequiredMonthly:     round2(required),
			CurrentMonthly:      round2(avgSavings),
			PredictedCompletion: completion.Format(DateLayout),
		}

		switch {
		case g.IsAchieved():
			outlook.Status, outlook.Message = GoalAchieved, "Goal achieved!"
			forecast.Achieved++
		case monthsToComplete > float64(monthsLeft):
			outlook.Status = GoalBehind
			outlook.Message = fmt.Sprintf("Will be %.0f month(s) late at current savings rate", math.Round(monthsToComplete-float64(monthsLeft)))
			forecast.Behind++
		case monthsToComplete < float64(monthsLeft):
			outlook.Status = GoalAhead
			outlook.Message = fmt.Sprintf("Will complete %.0f month(s) early!", math.Round(float64(monthsLeft)-monthsToComplete))
			forecast.Ahead++
		default:
			outlook.Status, outlook.Message = GoalOnTrack, "On track to complete by "+g.Deadline
			forecast.OnTrack++
		}
		forecast.Goals = append(forecast.Goals, outlook)
	}
	return forecast, nil
}
