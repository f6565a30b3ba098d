package sanitize

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "cashflow/internal/errors"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
)

// ValidatePassword enforces the password policy: 12-128 characters with at
// least one uppercase letter, lowercase letter, digit, and special character.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("password must be at most %d characters long", maxPasswordLength))
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*()_+-=[]{}|;:,.<>?", r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			"password must contain uppercase, lowercase, digit, and special character")
	}
	return nil
}
