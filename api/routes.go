package api

import (
	"net/http"

	"github.com/0xcafe-io/iz"
)

// Routes registers every endpoint on a new mux and wraps it with tracing.
func (api *Api) Routes() http.Handler {
	server := http.NewServeMux()

	server.HandleFunc("GET /health", iz.Bind(api.HealthHandler))

	// TRANSACTION ENDPOINTS.
	server.HandleFunc("GET /api/transactions", iz.Bind(api.GetTransactionsHandler))
	server.HandleFunc("GET /api/transactions/{id}", iz.Bind(api.GetTransactionByIdHandler))
	server.HandleFunc("POST /api/transactions", iz.Bind(api.SaveTransactionHandler))
	server.HandleFunc("PUT /api/transactions/{id}", iz.Bind(api.UpdateTransactionHandler))
	server.HandleFunc("DELETE /api/transactions/{id}", iz.Bind(api.DeleteTransactionHandler))
	server.HandleFunc("POST /api/predict", iz.Bind(api.PredictCategoryHandler)) // Suggest a category from a description

	// BUDGET ENDPOINTS.
	server.HandleFunc("GET /api/budgets", iz.Bind(api.GetBudgetsHandler))
	server.HandleFunc("POST /api/budgets", iz.Bind(api.SetBudgetHandler)) // Create or replace by category
	server.HandleFunc("DELETE /api/budgets/{id}", iz.Bind(api.DeleteBudgetHandler))

	// INVESTMENT ENDPOINTS.
	server.HandleFunc("GET /api/investments", iz.Bind(api.GetInvestmentsHandler))
	server.HandleFunc("POST /api/investments/refresh", iz.Bind(api.RefreshInvestmentsHandler))
	server.HandleFunc("GET /api/investments/{id}", iz.Bind(api.GetInvestmentByIdHandler))
	server.HandleFunc("POST /api/investments", iz.Bind(api.SaveInvestmentHandler))
	server.HandleFunc("PUT /api/investments/{id}", iz.Bind(api.UpdateInvestmentHandler))
	server.HandleFunc("DELETE /api/investments/{id}", iz.Bind(api.DeleteInvestmentHandler))
	server.HandleFunc("GET /api/search", iz.Bind(api.SearchAssetsHandler))

	// GOAL ENDPOINTS.
	server.HandleFunc("GET /api/goals", iz.Bind(api.GetGoalsHandler))
	server.HandleFunc("GET /api/goals/{id}", iz.Bind(api.GetGoalByIdHandler))
	server.HandleFunc("POST /api/goals", iz.Bind(api.SaveGoalHandler))
	server.HandleFunc("PUT /api/goals/{id}", iz.Bind(api.UpdateGoalHandler))
	server.HandleFunc("DELETE /api/goals/{id}", iz.Bind(api.DeleteGoalHandler))

	// REPORT ENDPOINTS.
	server.HandleFunc("GET /api/analytics/health-score", iz.Bind(api.HealthScoreHandler))
	server.HandleFunc("GET /api/analytics/insights", iz.Bind(api.InsightsHandler))
	server.HandleFunc("GET /api/analytics/patterns", iz.Bind(api.PatternsHandler))
	server.HandleFunc("GET /api/predictions/cashflow", iz.Bind(api.CashflowHandler))
	server.HandleFunc("GET /api/predictions/budget-burnrate", iz.Bind(api.BudgetBurnRateHandler))
	server.HandleFunc("GET /api/predictions/goals", iz.Bind(api.GoalForecastHandler))

	// EXPORT.
	server.HandleFunc("POST /api/export", api.ExportHandler)

	return WithTracing(server)
}
