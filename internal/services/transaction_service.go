package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "cashflow/internal/errors"
	"cashflow/internal/models"
	"cashflow/internal/sanitize"
	"cashflow/internal/validator"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

// transactionService handles transaction business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction persists a sanitized, validated transaction for a user.
// The input has already passed the sanitize pipeline; this layer only
// attaches ownership and writes the row as a single statement.
func (s *transactionService) CreateTransaction(userID string, input *sanitize.Transaction) (*models.Transaction, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	date, err := validator.ParseDate(input.Date)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must be a valid YYYY-MM-DD calendar date")
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Type:          models.TransactionType(input.Type),
		AmountCents:   input.AmountCents,
		Category:      input.Category,
		Description:   input.Description,
		Date:          date,
		PaymentMethod: input.PaymentMethod,
		Currency:      input.Currency,
	}

	err = withRetry(func() error {
		return s.db.Create(transaction).Error
	})
	if err != nil {
		return nil, storageError(err)
	}
	return transaction, nil
}

// ListTransactions returns the user's transactions newest-first by date,
// then creation time, optionally filtered.
func (s *transactionService) ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var transactions []models.Transaction
	err := withRetry(func() error {
		q := s.db.Where("user_id = ?", userID)
		q = applyTransactionFilters(q, filter)
		return q.Order("date DESC, created_at DESC").Limit(limit).Find(&transactions).Error
	})
	if err != nil {
		return nil, storageError(err)
	}
	return transactions, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.StartDate != nil {
		q = q.Where("date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", *f.EndDate)
	}
	return q
}

// DeleteTransaction removes a transaction owned by the user. A missing id
// and a foreign id both return TRANSACTION_NOT_FOUND; a second delete of
// the same id fails the same way without touching the store.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	var transaction models.Transaction
	err := withRetry(func() error {
		return s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTransactionNotFound
		}
		return storageError(err)
	}

	err = withRetry(func() error {
		return s.db.Where("user_id = ?", userID).Delete(&transaction).Error
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

// GetSummary aggregates the user's transactions by kind within the optional
// date range: sum, count, and average per kind, all in cents.
func (s *transactionService) GetSummary(userID string, startDate, endDate *time.Time) (*Summary, error) {
	type kindRow struct {
		Type  models.TransactionType
		Total int64
		Count int64
	}

	var rows []kindRow
	err := withRetry(func() error {
		q := s.db.Model(&models.Transaction{}).
			Select("type, COALESCE(SUM(amount_cents), 0) AS total, COUNT(*) AS count").
			Where("user_id = ?", userID)
		q = applyTransactionFilters(q, TransactionFilter{StartDate: startDate, EndDate: endDate})
		return q.Group("type").Scan(&rows).Error
	})
	if err != nil {
		return nil, storageError(err)
	}

	summary := &Summary{}
	for _, row := range rows {
		ks := KindSummary{TotalCents: row.Total, Count: row.Count}
		if row.Count > 0 {
			ks.AverageCents = row.Total / row.Count
		}
		switch row.Type {
		case models.TransactionTypeIncome:
			summary.Income = ks
		case models.TransactionTypeExpense:
			summary.Expense = ks
		}
		summary.TransactionCount += row.Count
	}
	return summary, nil
}

// GetCategories returns the user's distinct category names grouped by kind.
func (s *transactionService) GetCategories(userID string) (*Categories, error) {
	type categoryRow struct {
		Category string
		Type     models.TransactionType
	}

	var rows []categoryRow
	err := withRetry(func() error {
		return s.db.Model(&models.Transaction{}).
			Distinct("category", "type").
			Where("user_id = ?", userID).
			Order("category ASC").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, storageError(err)
	}

	categories := &Categories{Income: []string{}, Expense: []string{}}
	for _, row := range rows {
		switch row.Type {
		case models.TransactionTypeIncome:
			categories.Income = append(categories.Income, row.Category)
		case models.TransactionTypeExpense:
			categories.Expense = append(categories.Expense, row.Category)
		}
	}
	return categories, nil
}
