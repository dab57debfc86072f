package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/trinhly333/worksheet/pkg/errors"
)

// Sentinels for discount and checkout failures. Each wraps the matching
// pkg/errors sentinel so generic status mapping keeps working.
var (
	ErrCodeNotFound        = fmt.Errorf("discount code not found: %w", apperrors.ErrNotFound)
	ErrCodeInactive        = fmt.Errorf("discount code inactive: %w", apperrors.ErrUnprocessable)
	ErrCodeNotStarted      = fmt.Errorf("discount code not started: %w", apperrors.ErrUnprocessable)
	ErrCodeExpired         = fmt.Errorf("discount code expired: %w", apperrors.ErrUnprocessable)
	ErrCodeBelowMinimum    = fmt.Errorf("order below discount minimum: %w", apperrors.ErrUnprocessable)
	ErrCodeUsageExhausted  = fmt.Errorf("discount usage exhausted: %w", apperrors.ErrConflict)
	ErrPersistence         = fmt.Errorf("persistence failure: %w", apperrors.ErrServiceUnavail)
	ErrEmailDelivery       = errors.New("email delivery failure")
	ErrUsageAlreadyCounted = errors.New("campaign usage already counted for order")
	ErrVersionConflict     = fmt.Errorf("cart was modified concurrently: %w", apperrors.ErrConflict)
)

// API error codes.
const (
	CodeDiscountNotFound       = "DISCOUNT_NOT_FOUND"
	CodeDiscountInactive       = "DISCOUNT_INACTIVE"
	CodeDiscountNotStarted     = "DISCOUNT_NOT_STARTED"
	CodeDiscountExpired        = "DISCOUNT_EXPIRED"
	CodeDiscountBelowMinimum   = "DISCOUNT_BELOW_MINIMUM"
	CodeDiscountUsageExhausted = "DISCOUNT_USAGE_EXHAUSTED"
	CodePersistenceFailure     = "PERSISTENCE_FAILURE"
	CodeEmailDeliveryFailure   = "EMAIL_DELIVERY_FAILURE"
)

func discountError(code string, status int, sentinel error, message string) *apperrors.AppError {
	return &apperrors.AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

func ErrDiscountNotFound(code string) *apperrors.AppError {
	return discountError(CodeDiscountNotFound, http.StatusNotFound, ErrCodeNotFound,
		fmt.Sprintf("Mã giảm giá %q không tồn tại", code))
}

func ErrDiscountInactive(code string) *apperrors.AppError {
	return discountError(CodeDiscountInactive, http.StatusUnprocessableEntity, ErrCodeInactive,
		fmt.Sprintf("Mã giảm giá %q đã ngừng hoạt động", code))
}

func ErrDiscountNotStarted(code string, start time.Time) *apperrors.AppError {
	return discountError(CodeDiscountNotStarted, http.StatusUnprocessableEntity, ErrCodeNotStarted,
		fmt.Sprintf("Mã giảm giá %q có hiệu lực từ %s", code, FormatDate(start)))
}

func ErrDiscountExpired(code string) *apperrors.AppError {
	return discountError(CodeDiscountExpired, http.StatusUnprocessableEntity, ErrCodeExpired,
		fmt.Sprintf("Mã giảm giá %q đã hết hạn", code))
}

// ErrDiscountBelowMinimum carries the formatted minimum in its message.
func ErrDiscountBelowMinimum(code string, minimum int64) *apperrors.AppError {
	return discountError(CodeDiscountBelowMinimum, http.StatusUnprocessableEntity, ErrCodeBelowMinimum,
		fmt.Sprintf("Đơn hàng tối thiểu %s để sử dụng mã %q", FormatVND(minimum), code))
}

func ErrDiscountUsageExhausted(code string) *apperrors.AppError {
	return discountError(CodeDiscountUsageExhausted, http.StatusConflict, ErrCodeUsageExhausted,
		fmt.Sprintf("Mã giảm giá %q đã hết lượt sử dụng", code))
}

// ErrPersistenceFailure reports a store write that did not happen. The caller
// may retry; no partial state was committed.
func ErrPersistenceFailure(what string, cause error) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    CodePersistenceFailure,
		Message: fmt.Sprintf("could not save %s, please retry", what),
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrPersistence, cause),
	}
}

// IsDiscountError reports whether err is one of the user-facing code validation failures.
func IsDiscountError(err error) bool {
	for _, s := range []error{ErrCodeNotFound, ErrCodeInactive, ErrCodeNotStarted, ErrCodeExpired, ErrCodeBelowMinimum, ErrCodeUsageExhausted} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
