package payment

import (
	"errors"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
)

var (
	ErrPaymentNotFound     = apperr.NotFound("Payment not found")
	ErrActivePaymentExists = apperr.Conflict("Payment already exists for this order")
	ErrUnsupportedMethod   = apperr.BadRequest("Unsupported payment method")
	ErrRefundNotAllowed    = apperr.BadRequest("Can only refund completed payments")
	ErrInvalidDateRange    = apperr.BadRequest("Invalid date range")

	ErrUnsupportedGateway = errors.New("unsupported payment gateway")
	ErrInvalidSignature   = errors.New("invalid callback signature")
	ErrMalformedCallback  = errors.New("malformed callback payload")
	ErrAmountMismatch     = errors.New("callback amount does not match payment")

	// ErrNoTransition means no row was in an allowed source state.
	ErrNoTransition = errors.New("payment not in expected state")

	PgUniqueViolation = "23505"
)
