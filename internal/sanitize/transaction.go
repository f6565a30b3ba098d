package sanitize

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "cashflow/internal/errors"
	cfvalidator "cashflow/internal/validator"
)

// MaxAmount is the largest accepted transaction amount, in currency units.
const MaxAmount = 1_000_000_000

// TransactionInput is the raw, untrusted transaction payload.
type TransactionInput struct {
	Type          string
	Amount        float64
	Category      string
	Description   string
	Date          string
	PaymentMethod string
	Currency      string
}

// Transaction is the sanitized, validated form of a transaction payload.
// AmountCents is the amount rounded to cents with banker's rounding.
type Transaction struct {
	Type          string `validate:"required,transaction_type"`
	AmountCents   int64
	Category      string `validate:"required,max=100"`
	Description   string `validate:"max=500"`
	Date          string `validate:"required,calendar_date"`
	PaymentMethod string `validate:"max=50"`
	Currency      string `validate:"required,iso4217"`
}

// NormalizeTransaction sanitizes and validates a raw transaction payload.
// Returns an INVALID_INPUT error naming the offending field on failure.
func NormalizeTransaction(in TransactionInput) (*Transaction, error) {
	out := &Transaction{
		Type:          String(in.Type),
		Category:      String(in.Category),
		Description:   String(in.Description),
		Date:          strings.TrimSpace(in.Date),
		PaymentMethod: String(in.PaymentMethod),
		Currency:      strings.ToUpper(strings.TrimSpace(in.Currency)),
	}

	// Defaults match the original dashboard's payload.
	if out.PaymentMethod == "" {
		out.PaymentMethod = "cash"
	}
	if out.Currency == "" {
		out.Currency = "USD"
	}

	if in.Amount <= 0 || in.Amount > MaxAmount {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("amount must be greater than 0 and at most %d", MaxAmount))
	}
	out.AmountCents = ToCents(in.Amount)
	if out.AmountCents <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount rounds to zero cents")
	}

	if err := cfvalidator.Engine().Struct(out); err != nil {
		return nil, invalidField(err)
	}
	return out, nil
}

// ToCents converts a decimal amount to cents using round-half-to-even
// (banker's rounding), the documented rounding rule for this API.
func ToCents(amount float64) int64 {
	return int64(math.RoundToEven(amount * 100))
}

// invalidField translates the first validator error into an INVALID_INPUT
// AppError naming the field and the violated constraint.
func invalidField(err error) error {
	var verrs validator.ValidationErrors
	if ok := asValidationErrors(err, &verrs); ok && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("%s failed %s validation", fieldName(fe.Field()), fe.Tag()))
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// fieldName maps struct field names onto their wire names.
func fieldName(field string) string {
	switch field {
	case "AmountCents":
		return "amount"
	case "PaymentMethod":
		return "payment_method"
	default:
		return strings.ToLower(field)
	}
}
