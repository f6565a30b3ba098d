package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	apperrors "cashflow/internal/errors"
)

// retryable reports whether err looks like a transient connection problem
// (backend down, pool acquire timeout) rather than a statement failure.
func retryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded)
}

// storageError maps a persistence error onto the API taxonomy: transient
// connection failures become STORAGE_UNAVAILABLE (retryable by the client),
// everything else a generic internal error.
func storageError(err error) error {
	if retryable(err) {
		return apperrors.Wrap(apperrors.ErrStorageUnavailable, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// withRetry runs op and retries it once when the failure is a transient
// connection error. Each op is a single atomic statement, so a retry can
// never half-apply anything.
func withRetry(op func() error) error {
	err := op()
	if err != nil && retryable(err) {
		err = op()
	}
	return err
}
