package models

import "time"

// TransactionType represents the kind of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents one financial event owned by a single user.
// UserID is an opaque reference to the authenticated owner and is immutable
// after creation; every query against this table is scoped by it.
// AmountCents stores the amount in cents, rounded half-to-even on intake.
type Transaction struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	Type          TransactionType `gorm:"not null" json:"type"`
	AmountCents   int64           `gorm:"type:bigint;not null" json:"amount_cents"`
	Category      string          `gorm:"size:100;not null" json:"category"`
	Description   string          `gorm:"size:500" json:"description"`
	Date          time.Time       `gorm:"not null;index:idx_transactions_user_date,priority:2,sort:desc" json:"date"`
	PaymentMethod string          `gorm:"size:50" json:"payment_method"`
	Currency      string          `gorm:"size:3;default:'USD'" json:"currency"`
}

// Amount returns the amount as a decimal value in currency units.
func (t *Transaction) Amount() float64 {
	return float64(t.AmountCents) / 100
}
