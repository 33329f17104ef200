package order

import "time"

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the order-side mirror of the payment's state.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

// DeliveryDays is the promised transit time for the method.
func (m ShippingMethod) DeliveryDays() int {
	if m == ShippingExpress {
		return 2
	}
	return 5
}

type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	Total     int64  `json:"total"`
}

type CustomerInfo struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

type Order struct {
	ID             string         `json:"id"`
	OrderNumber    string         `json:"orderNumber"`
	UserID         *string        `json:"userId,omitempty"`
	CustomerInfo   CustomerInfo   `json:"customerInfo"`
	Items          []Item         `json:"items"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	PaymentMethod  string         `json:"paymentMethod"`
	Subtotal       int64          `json:"subtotal"`
	ShippingFee    int64          `json:"shippingFee"`
	Total          int64          `json:"total"`
	Status         OrderStatus    `json:"status"`
	PaymentStatus  PaymentStatus  `json:"paymentStatus"`
	Notes          string         `json:"notes,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// CreateOrderInput carries caller-computed amounts. Totals are stored as
// given and never recomputed server side.
type CreateOrderInput struct {
	CustomerInfo   CustomerInfo   `json:"customerInfo"`
	Items          []ItemInput    `json:"items"`
	ShippingMethod ShippingMethod `json:"shippingMethod"`
	PaymentMethod  string         `json:"paymentMethod"`
	Subtotal       int64          `json:"subtotal"`
	ShippingFee    int64          `json:"shippingFee"`
	Total          int64          `json:"total"`
	Notes          string         `json:"notes"`
	UserID         *string        `json:"-"`
}

type Tracking struct {
	OrderNumber       string         `json:"orderNumber"`
	Status            OrderStatus    `json:"status"`
	PaymentStatus     PaymentStatus  `json:"paymentStatus"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	ShippingMethod    ShippingMethod `json:"shippingMethod"`
	EstimatedDelivery time.Time      `json:"estimatedDelivery"`
}

// ListFilter narrows store-level listings. Zero values mean no filter.
type ListFilter struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus
	UserID        string
	DateFrom      *time.Time
	DateTo        *time.Time
	SortBy        string // created_at | total
	SortAsc       bool
	Limit         int
	Page          int
}
