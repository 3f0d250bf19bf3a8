package service

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound                  = errors.New("not found")
	ErrInvalidInput              = errors.New("invalid input")
	ErrMissingFields             = errors.New("Missing required fields")
	ErrBelowMinimum              = errors.New("below minimum withdrawal")
	ErrInsufficientBalance       = errors.New("Insufficient balance")
	ErrSubmissionAlreadyReviewed = errors.New("submission has already been reviewed")
	ErrInvalidPlan               = errors.New("Invalid plan")
	ErrTaskInactive              = errors.New("task is not accepting submissions")
	ErrInvalidSubmission         = errors.New("invalid submission")
	ErrGateway                   = errors.New("payment gateway error")
	ErrPayoutInProgress          = errors.New("Withdrawal is still being processed")
	ErrForbidden                 = errors.New("forbidden")
	ErrInvalidSignature          = errors.New("invalid webhook signature")
)

// BelowMinimumError carries the minimum that was not met. It matches ErrBelowMinimum.
type BelowMinimumError struct {
	Minimum decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return "Minimum withdrawal amount is $" + e.Minimum.String()
}

func (e *BelowMinimumError) Is(target error) bool {
	return target == ErrBelowMinimum
}
