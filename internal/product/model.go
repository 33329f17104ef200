package product

import "time"

// Product is the catalog entry order intake validates against. Prices are
// whole VND.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Stock     int       `json:"stock"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasStock reports whether qty units can be taken from the product.
func (p *Product) HasStock(qty int) bool {
	return qty > 0 && p.Stock >= qty
}
