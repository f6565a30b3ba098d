package services

import (
	"time"

	"cashflow/internal/models"
	"cashflow/internal/sanitize"
)

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type      *models.TransactionType
	Category  *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// KindSummary aggregates one transaction kind. All amounts are in cents.
type KindSummary struct {
	TotalCents   int64
	Count        int64
	AverageCents int64
}

// Summary aggregates a user's transactions by kind.
type Summary struct {
	Income           KindSummary
	Expense          KindSummary
	TransactionCount int64
}

// Categories groups a user's distinct category names by transaction kind.
type Categories struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

// TransactionServicer defines the contract for transaction business logic.
// Every operation is scoped to the owning user id; no call can observe or
// mutate another user's rows.
type TransactionServicer interface {
	CreateTransaction(userID string, input *sanitize.Transaction) (*models.Transaction, error)
	ListTransactions(userID string, filter TransactionFilter) ([]models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetSummary(userID string, startDate, endDate *time.Time) (*Summary, error)
	GetCategories(userID string) (*Categories, error)
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, fullName, businessName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateProfile(userID, fullName, businessName string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
}

// AuditServicer records security-relevant events. Implementations must never
// return an error to the caller; a failed audit write cannot fail a request.
type AuditServicer interface {
	Record(eventType string, actorID *string, sourceAddr string, details map[string]interface{})
	AuthSuccess(userID, sourceAddr string)
	AuthFailure(email, sourceAddr, reason string)
	PasswordChange(userID, sourceAddr string)
	DataAccess(userID, resource, sourceAddr string)
	DataModification(userID, action, resourceID, sourceAddr string)
	SuspiciousActivity(actorID *string, activity, sourceAddr string)
}
