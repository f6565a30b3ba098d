package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "cashflow/internal/errors"
	"cashflow/internal/models"
	"cashflow/internal/sanitize"
	"cashflow/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn func(userID string, input *sanitize.Transaction) (*models.Transaction, error)
	listTransactionsFn  func(userID string, filter services.TransactionFilter) ([]models.Transaction, error)
	deleteTransactionFn func(userID, transactionID string) error
	getSummaryFn        func(userID string, startDate, endDate *time.Time) (*services.Summary, error)
	getCategoriesFn     func(userID string) (*services.Categories, error)
}

func (m *mockTransactionService) CreateTransaction(userID string, input *sanitize.Transaction) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return &models.Transaction{Base: models.Base{ID: "tx-1"}, UserID: userID}, nil
}

func (m *mockTransactionService) ListTransactions(userID string, filter services.TransactionFilter) ([]models.Transaction, error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(userID, filter)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) GetSummary(userID string, startDate, endDate *time.Time) (*services.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID, startDate, endDate)
	}
	return &services.Summary{}, nil
}

func (m *mockTransactionService) GetCategories(userID string) (*services.Categories, error) {
	if m.getCategoriesFn != nil {
		return m.getCategoriesFn(userID)
	}
	return &services.Categories{Income: []string{}, Expense: []string{}}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("user-1"))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetTransactions)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	auth.GET("/summary", handler.GetSummary)
	auth.GET("/categories", handler.GetCategories)
	return r
}

// --- tests ---

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		txSvc := &mockTransactionService{
			createTransactionFn: func(userID string, input *sanitize.Transaction) (*models.Transaction, error) {
				return &models.Transaction{
					Base:          models.Base{ID: "tx-1"},
					UserID:        userID,
					Type:          models.TransactionType(input.Type),
					AmountCents:   input.AmountCents,
					Category:      input.Category,
					Date:          time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
					PaymentMethod: input.PaymentMethod,
					Currency:      input.Currency,
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc, audit, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":42.5,"category":"Food","date":"2026-08-15"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["amount"].(float64) != 42.5 {
			t.Errorf("amount = %v, want 42.5", result["amount"])
		}
		if result["date"] != "2026-08-15" {
			t.Errorf("date = %v, want 2026-08-15", result["date"])
		}
		if result["payment_method"] != "cash" {
			t.Errorf("payment_method = %v, want default cash", result["payment_method"])
		}
		if !audit.has(models.AuditDataModification) {
			t.Error("creating a transaction should record a data modification event")
		}
	})

	t.Run("returns 400 on unknown type", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"transfer","amount":10,"category":"Food","date":"2026-08-15"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing fields", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions", `{"type":"expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 when category sanitizes to empty", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"type":"expense","amount":10,"category":"<script>x()</script>","date":"2026-08-15"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("escalates repeated rejected writes", func(t *testing.T) {
		audit := &mockAuditService{}
		handler := NewTransactionHandler(&mockTransactionService{}, audit, testLimiter())
		r := setupTransactionRouter(handler)

		for i := 0; i < 11; i++ {
			doRequest(r, "POST", "/transactions",
				`{"type":"transfer","amount":10,"category":"Food","date":"2026-08-15"}`)
		}

		if !audit.has(models.AuditSuspiciousActivity) {
			t.Error("repeated rejected writes should record a suspicious activity event")
		}
	})
}

func TestTransactionHandler_GetTransactions(t *testing.T) {
	t.Run("returns the transaction list", func(t *testing.T) {
		audit := &mockAuditService{}
		txSvc := &mockTransactionService{
			listTransactionsFn: func(userID string, _ services.TransactionFilter) ([]models.Transaction, error) {
				return []models.Transaction{
					{Base: models.Base{ID: "tx-1"}, UserID: userID, Type: models.TransactionTypeExpense, AmountCents: 4250, Date: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)},
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc, audit, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !audit.has(models.AuditDataAccess) {
			t.Error("listing transactions should record a data access event")
		}
	})

	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		txSvc := &mockTransactionService{
			listTransactionsFn: func(_ string, filter services.TransactionFilter) ([]models.Transaction, error) {
				gotFilter = filter
				return []models.Transaction{}, nil
			},
		}
		handler := NewTransactionHandler(txSvc, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?type=income&category=Salary&start_date=2026-08-01&end_date=2026-08-31&limit=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeIncome {
			t.Errorf("type filter = %v, want income", gotFilter.Type)
		}
		if gotFilter.Category == nil || *gotFilter.Category != "Salary" {
			t.Errorf("category filter = %v, want Salary", gotFilter.Category)
		}
		if gotFilter.StartDate == nil || gotFilter.StartDate.Format("2006-01-02") != "2026-08-01" {
			t.Errorf("start date filter = %v, want 2026-08-01", gotFilter.StartDate)
		}
		if gotFilter.EndDate == nil || gotFilter.EndDate.Format("2006-01-02") != "2026-08-31" {
			t.Errorf("end date filter = %v, want 2026-08-31", gotFilter.EndDate)
		}
		if gotFilter.Limit != 10 {
			t.Errorf("limit = %d, want 10", gotFilter.Limit)
		}
	})

	t.Run("returns 400 on bad filter values", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		for _, query := range []string{"?type=transfer", "?start_date=08-15-2026", "?limit=-1"} {
			rec := doRequest(r, "GET", "/transactions"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("query %q: expected 400, got %d", query, rec.Code)
			}
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		handler := NewTransactionHandler(&mockTransactionService{}, audit, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/tx-1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !audit.has(models.AuditDataModification) {
			t.Error("deleting a transaction should record a data modification event")
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(_, _ string) error {
				return apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(txSvc, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/unknown", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})
}

func TestTransactionHandler_GetSummary(t *testing.T) {
	t.Run("converts cents to decimal amounts", func(t *testing.T) {
		txSvc := &mockTransactionService{
			getSummaryFn: func(_ string, _, _ *time.Time) (*services.Summary, error) {
				return &services.Summary{
					Income:           services.KindSummary{TotalCents: 150001, Count: 2, AverageCents: 75000},
					Expense:          services.KindSummary{TotalCents: 4250, Count: 1, AverageCents: 4250},
					TransactionCount: 3,
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/summary", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		result := parseJSON(t, rec)
		if result["total_income"].(float64) != 1500.01 {
			t.Errorf("total_income = %v, want 1500.01", result["total_income"])
		}
		if result["total_expenses"].(float64) != 42.5 {
			t.Errorf("total_expenses = %v, want 42.5", result["total_expenses"])
		}
		if result["net_balance"].(float64) != 1457.51 {
			t.Errorf("net_balance = %v, want 1457.51", result["net_balance"])
		}
		if result["transaction_count"].(float64) != 3 {
			t.Errorf("transaction_count = %v, want 3", result["transaction_count"])
		}
	})

	t.Run("returns 400 on bad date range", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}, testLimiter())
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/summary?start_date=bogus", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetCategories(t *testing.T) {
	txSvc := &mockTransactionService{
		getCategoriesFn: func(_ string) (*services.Categories, error) {
			return &services.Categories{Income: []string{"Salary"}, Expense: []string{"Food", "Rent"}}, nil
		},
	}
	handler := NewTransactionHandler(txSvc, &mockAuditService{}, testLimiter())
	r := setupTransactionRouter(handler)

	rec := doRequest(r, "GET", "/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	result := parseJSON(t, rec)
	expense := result["expense"].([]interface{})
	if len(expense) != 2 {
		t.Errorf("expense categories = %v, want two entries", expense)
	}
}
