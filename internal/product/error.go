package product

import "github.com/ndkhanh17/BE-Tacoli/internal/apperr"

var (
	ErrProductNotFound = apperr.NotFound("Product not found")
)
