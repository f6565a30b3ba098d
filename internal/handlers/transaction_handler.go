package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cashflow/internal/errors"
	"cashflow/internal/models"
	"cashflow/internal/ratelimit"
	"cashflow/internal/sanitize"
	"cashflow/internal/services"
	"cashflow/internal/validator"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	limiter            *ratelimit.Limiter
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, limiter *ratelimit.Limiter) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		auditService:       auditService,
		limiter:            limiter,
	}
}

// CreateTransactionRequest represents the request payload for creating a
// transaction. Only presence is checked at bind time; constraints are
// enforced by the sanitize pipeline so length limits apply to cleaned values.
type CreateTransactionRequest struct {
	Type          string  `json:"type" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
	Category      string  `json:"category" binding:"required"`
	Description   string  `json:"description"`
	Date          string  `json:"date" binding:"required"`
	PaymentMethod string  `json:"payment_method"`
	Currency      string  `json:"currency"`
}

// TransactionResponse represents a transaction on the wire. Amount is the
// decimal value in currency units; Date is a YYYY-MM-DD calendar date.
type TransactionResponse struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	PaymentMethod string  `json:"payment_method"`
	Currency      string  `json:"currency"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount(),
		Category:      t.Category,
		Description:   t.Description,
		Date:          t.Date.Format(validator.DateLayout),
		PaymentMethod: t.PaymentMethod,
		Currency:      t.Currency,
		CreatedAt:     t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     t.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new income or expense transaction for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.recordRejection(c, userID)
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := sanitize.NormalizeTransaction(sanitize.TransactionInput{
		Type:          req.Type,
		Amount:        req.Amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          req.Date,
		PaymentMethod: req.PaymentMethod,
		Currency:      req.Currency,
	})
	if err != nil {
		h.recordRejection(c, userID)
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataModification(userID, "create_transaction", transaction.ID, c.ClientIP())

	c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// recordRejection counts a rejected write and escalates to a
// SUSPICIOUS_ACTIVITY audit event once the actor exceeds the budget.
func (h *TransactionHandler) recordRejection(c *gin.Context, userID string) {
	if h.limiter == nil {
		return
	}
	if h.limiter.RecordRejection(userID) {
		h.auditService.SuspiciousActivity(&userID, "repeated rejected mutation attempts", c.ClientIP())
	}
}

// GetTransactions handles the retrieval of the caller's transactions
// @Summary     List transactions
// @Description Get the authenticated user's transactions, newest first, with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       limit      query int    false "Maximum records to return (default 100, max 100)"
// @Param       type       query string false "Filter by type (income or expense)"
// @Param       category   query string false "Filter by category"
// @Param       start_date query string false "Filter by start date (YYYY-MM-DD)"
// @Param       end_date   query string false "Filter by end date (YYYY-MM-DD)"
// @Success     200 {array}  TransactionResponse "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.ListTransactions(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataAccess(userID, "transactions", c.ClientIP())

	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, toTransactionResponse(&transactions[i]))
	}
	c.JSON(http.StatusOK, out)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	var query struct {
		Limit int `form:"limit" binding:"omitempty,min=1"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid limit")
	}
	filter.Limit = query.Limit

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		switch txType {
		case models.TransactionTypeIncome, models.TransactionTypeExpense:
			filter.Type = &txType
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income or expense")
		}
	}

	if v := c.Query("category"); v != "" {
		cleaned := sanitize.String(v)
		filter.Category = &cleaned
	}

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		return filter, err
	}
	filter.StartDate = start

	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		return filter, err
	}
	filter.EndDate = end

	return filter, nil
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction by ID. A foreign or unknown id returns 404 either way.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataModification(userID, "delete_transaction", transactionID, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}

// SummaryResponse represents the aggregate object on the wire. Amounts are
// decimal values in currency units.
type SummaryResponse struct {
	TotalIncome      float64         `json:"total_income"`
	TotalExpenses    float64         `json:"total_expenses"`
	NetBalance       float64         `json:"net_balance"`
	TransactionCount int64           `json:"transaction_count"`
	Income           KindAggregation `json:"income"`
	Expense          KindAggregation `json:"expense"`
}

// KindAggregation is the per-kind sum/count/average block.
type KindAggregation struct {
	Total   float64 `json:"total"`
	Count   int64   `json:"count"`
	Average float64 `json:"average"`
}

func toKindAggregation(k services.KindSummary) KindAggregation {
	return KindAggregation{
		Total:   float64(k.TotalCents) / 100,
		Count:   k.Count,
		Average: float64(k.AverageCents) / 100,
	}
}

// GetSummary handles the financial summary aggregation
// @Summary     Get financial summary
// @Description Aggregate the authenticated user's transactions by kind
// @Tags        summary
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Filter by start date (YYYY-MM-DD)"
// @Param       end_date   query string false "Filter by end date (YYYY-MM-DD)"
// @Success     200 {object} SummaryResponse "Aggregates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /summary [get]
func (h *TransactionHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetSummary(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataAccess(userID, "summary", c.ClientIP())

	c.JSON(http.StatusOK, SummaryResponse{
		TotalIncome:      float64(summary.Income.TotalCents) / 100,
		TotalExpenses:    float64(summary.Expense.TotalCents) / 100,
		NetBalance:       float64(summary.Income.TotalCents-summary.Expense.TotalCents) / 100,
		TransactionCount: summary.TransactionCount,
		Income:           toKindAggregation(summary.Income),
		Expense:          toKindAggregation(summary.Expense),
	})
}

// GetCategories handles the retrieval of distinct category names
// @Summary     List categories
// @Description Get the authenticated user's distinct categories grouped by kind
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.Categories "Categories by kind"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *TransactionHandler) GetCategories(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categories, err := h.transactionService.GetCategories(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataAccess(userID, "categories", c.ClientIP())

	c.JSON(http.StatusOK, categories)
}
