package order

import "github.com/ndkhanh17/BE-Tacoli/internal/apperr"

var (
	ErrOrderNotFound     = apperr.NotFound("Order not found")
	ErrInsufficientStock = apperr.BadRequest("Insufficient stock")
	ErrInvalidStatus     = apperr.BadRequest("Invalid status")
	ErrInvalidOrder      = apperr.BadRequest("Invalid order")
	ErrFailedCreateOrder = apperr.New(apperr.KindInternal, "Failed to create order")
	ErrFailedUpdateOrder = apperr.New(apperr.KindInternal, "Failed to update order")
)
