package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/0xcafe-io/iz"
	appErrors "github.com/fatali-fataliyev/finance_tracker/customErrors"
	"github.com/fatali-fataliyev/finance_tracker/internal/contextutil"
	"github.com/fatali-fataliyev/finance_tracker/internal/finance"
	"github.com/fatali-fataliyev/finance_tracker/logging"
)

type Api struct {
	Service *finance.Tracker
}

func NewApi(service *finance.Tracker) *Api {
	return &Api{
		Service: service,
	}
}

func errorJSON(status int, msg string) iz.Responder {
	return iz.Respond().Status(status).JSON(ErrorResponse{Error: msg})
}

// failure turns a service error into a JSON error response. Errors without an application code are
// logged and replaced by a generic message.
func failure(r *iz.Request, err error) iz.Responder {
	var appErr appErrors.ErrorResponse
	if !errors.As(err, &appErr) {
		logging.Logger.Errorf("[TraceID=%s] | unexpected error | Error: %v", contextutil.TraceIDFromContext(r.Context()), err)
		return errorJSON(http.StatusInternalServerError, "internal server error")
	}
	return errorJSON(httpStatusFromError(err), appErr.Message)
}

func decodeBody(r *iz.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErrors.InvalidInput("invalid request body: %v", err)
	}
	return nil
}

func (api *Api) HealthHandler(r *iz.Request) iz.Responder {
	return iz.Respond().Status(http.StatusOK).JSON(HealthResponse{
		Status:  "ok",
		Storage: api.Service.StorageType,
	})
}

// --- TRANSACTIONS --- //

func (api *Api) GetTransactionsHandler(r *iz.Request) iz.Responder {
	txns, err := api.Service.GetTransactions(r.Context())
	if err != nil {
		return failure(r, err)
	}

	resp := make([]TransactionItem, 0, len(txns))
	for _, txn := range txns {
		resp = append(resp, TransactionToHttp(txn))
	}
	return iz.Respond().Status(http.StatusOK).JSON(resp)
}

func (api *Api) GetTransactionByIdHandler(r *iz.Request) iz.Responder {
	txn, err := api.Service.GetTransactionById(r.Context(), r.PathValue("id"))
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(TransactionToHttp(txn))
}

func (api *Api) SaveTransactionHandler(r *iz.Request) iz.Responder {
	var req CreateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	txn, err := api.Service.SaveTransaction(r.Context(), finance.TransactionRequest{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Type:        req.Type,
		Date:        req.Date,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusCreated).JSON(TransactionToHttp(txn))
}

func (api *Api) UpdateTransactionHandler(r *iz.Request) iz.Responder {
	var req UpdateTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	txn, err := api.Service.UpdateTransaction(r.Context(), r.PathValue("id"), finance.TransactionPatch{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Type:        req.Type,
		Date:        req.Date,
		Recurrence:  req.Recurrence,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(TransactionToHttp(txn))
}

func (api *Api) DeleteTransactionHandler(r *iz.Request) iz.Responder {
	if err := api.Service.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(MessageResponse{Message: "Transaction deleted"})
}

func (api *Api) PredictCategoryHandler(r *iz.Request) iz.Responder {
	var req PredictRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	category, err := api.Service.PredictCategory(r.Context(), req.Description)
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(PredictResponse{Category: category})
}

// --- BUDGETS --- //

func (api *Api) GetBudgetsHandler(r *iz.Request) iz.Responder {
	budgets, err := api.Service.GetBudgets(r.Context())
	if err != nil {
		return failure(r, err)
	}

	resp := make([]BudgetItem, 0, len(budgets))
	for _, b := range budgets {
		resp = append(resp, BudgetToHttp(b))
	}
	return iz.Respond().Status(http.StatusOK).JSON(resp)
}

func (api *Api) SetBudgetHandler(r *iz.Request) iz.Responder {
	var req SetBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	budget, created, err := api.Service.SetBudget(r.Context(), finance.BudgetRequest{
		Category: req.Category,
		Limit:    req.Limit,
		Period:   req.Period,
	})
	if err != nil {
		return failure(r, err)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return iz.Respond().Status(status).JSON(BudgetToHttp(budget))
}

func (api *Api) DeleteBudgetHandler(r *iz.Request) iz.Responder {
	if err := api.Service.DeleteBudget(r.Context(), r.PathValue("id")); err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(MessageResponse{Message: "Budget deleted"})
}

// --- INVESTMENTS --- //

func (api *Api) GetInvestmentsHandler(r *iz.Request) iz.Responder {
	list, err := api.Service.ListInvestments(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(InvestmentListToHttp(list))
}

func (api *Api) GetInvestmentByIdHandler(r *iz.Request) iz.Responder {
	inv, err := api.Service.GetInvestmentById(r.Context(), r.PathValue("id"))
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(InvestmentToHttp(inv))
}

func (api *Api) SaveInvestmentHandler(r *iz.Request) iz.Responder {
	var req CreateInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	inv, err := api.Service.SaveInvestment(r.Context(), finance.InvestmentRequest{
		Name:         req.Name,
		Ticker:       req.Ticker,
		Category:     req.Category,
		Quantity:     req.Quantity,
		BuyPrice:     req.BuyPrice,
		CurrentPrice: req.CurrentPrice,
		Date:         req.Date,
		Currency:     req.Currency,
		Exchange:     req.Exchange,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusCreated).JSON(InvestmentToHttp(inv))
}

func (api *Api) UpdateInvestmentHandler(r *iz.Request) iz.Responder {
	var req UpdateInvestmentRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	inv, err := api.Service.UpdateInvestment(r.Context(), r.PathValue("id"), finance.InvestmentPatch{
		Name:         req.Name,
		Ticker:       req.Ticker,
		Category:     req.Category,
		Quantity:     req.Quantity,
		BuyPrice:     req.BuyPrice,
		CurrentPrice: req.CurrentPrice,
		Date:         req.Date,
		Currency:     req.Currency,
		Exchange:     req.Exchange,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(InvestmentToHttp(inv))
}

func (api *Api) DeleteInvestmentHandler(r *iz.Request) iz.Responder {
	if err := api.Service.DeleteInvestment(r.Context(), r.PathValue("id")); err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(MessageResponse{Message: "Investment deleted"})
}

func (api *Api) RefreshInvestmentsHandler(r *iz.Request) iz.Responder {
	updated, err := api.Service.RefreshInvestmentPrices(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(RefreshResponse{
		Message: "Prices refreshed",
		Updated: updated,
	})
}

func (api *Api) SearchAssetsHandler(r *iz.Request) iz.Responder {
	query := r.URL.Query()

	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return errorJSON(http.StatusBadRequest, "invalid limit: "+raw)
		}
		limit = parsed
	}

	results := api.Service.SearchAssets(r.Context(), query.Get("q"), limit)
	resp := make([]AssetItem, 0, len(results))
	for _, a := range results {
		resp = append(resp, AssetToHttp(a))
	}
	return iz.Respond().Status(http.StatusOK).JSON(resp)
}

// --- GOALS --- //

func (api *Api) GetGoalsHandler(r *iz.Request) iz.Responder {
	goals, err := api.Service.GetGoals(r.Context())
	if err != nil {
		return failure(r, err)
	}

	resp := make([]GoalItem, 0, len(goals))
	for _, g := range goals {
		resp = append(resp, GoalToHttp(g))
	}
	return iz.Respond().Status(http.StatusOK).JSON(resp)
}

func (api *Api) GetGoalByIdHandler(r *iz.Request) iz.Responder {
	goal, err := api.Service.GetGoalById(r.Context(), r.PathValue("id"))
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(GoalToHttp(goal))
}

func (api *Api) SaveGoalHandler(r *iz.Request) iz.Responder {
	var req CreateGoalRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	goal, err := api.Service.SaveGoal(r.Context(), finance.GoalRequest{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Deadline:     req.Deadline,
		Color:        req.Color,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusCreated).JSON(GoalToHttp(goal))
}

func (api *Api) UpdateGoalHandler(r *iz.Request) iz.Responder {
	var req UpdateGoalRequest
	if err := decodeBody(r, &req); err != nil {
		return failure(r, err)
	}

	goal, err := api.Service.UpdateGoal(r.Context(), r.PathValue("id"), finance.GoalPatch{
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		Deadline:     req.Deadline,
		Color:        req.Color,
	})
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(GoalToHttp(goal))
}

func (api *Api) DeleteGoalHandler(r *iz.Request) iz.Responder {
	if err := api.Service.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(MessageResponse{Message: "Goal deleted"})
}

// --- REPORTS --- //

func (api *Api) HealthScoreHandler(r *iz.Request) iz.Responder {
	score, err := api.Service.HealthScore(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(HealthScoreToHttp(score))
}

func (api *Api) InsightsHandler(r *iz.Request) iz.Responder {
	insights, err := api.Service.Insights(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(InsightsToHttp(insights))
}

func (api *Api) PatternsHandler(r *iz.Request) iz.Responder {
	patterns, err := api.Service.Patterns(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(PatternsToHttp(patterns))
}

func (api *Api) CashflowHandler(r *iz.Request) iz.Responder {
	cashflow, err := api.Service.Cashflow(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(CashflowToHttp(cashflow))
}

func (api *Api) BudgetBurnRateHandler(r *iz.Request) iz.Responder {
	report, err := api.Service.BudgetBurnRate(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(BurnRateToHttp(report))
}

func (api *Api) GoalForecastHandler(r *iz.Request) iz.Responder {
	forecast, err := api.Service.GoalForecast(r.Context())
	if err != nil {
		return failure(r, err)
	}
	return iz.Respond().Status(http.StatusOK).JSON(GoalForecastToHttp(forecast))
}

// --- EXPORT --- //

// ExportHandler streams the filtered transactions as a CSV attachment. It writes the response
// itself since the body is not JSON.
func (api *Api) ExportHandler(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	txns, err := api.Service.ExportTransactions(r.Context(), finance.TransactionFilter{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      req.Type,
	})
	if err != nil {
		var appErr appErrors.ErrorResponse
		if !errors.As(err, &appErr) {
			logging.Logger.Errorf("[TraceID=%s] | failed to export transactions | Error: %v", contextutil.TraceIDFromContext(r.Context()), err)
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		writeJSONError(w, httpStatusFromError(err), appErr.Message)
		return
	}

	var buf strings.Builder
	if err := finance.WriteTransactionsCSV(&buf, txns); err != nil {
		logging.Logger.Errorf("[TraceID=%s] | failed to write csv report | Error: %v", contextutil.TraceIDFromContext(r.Context()), err)
		writeJSONError(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+finance.ExportFileName)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, buf.String()); err != nil {
		logging.Logger.Warnf("[TraceID=%s] | failed to send csv report: %v", contextutil.TraceIDFromContext(r.Context()), err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}
