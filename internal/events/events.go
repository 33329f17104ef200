package events

import (
	"context"
	"time"
)

const (
	TypeOrderCreated     = "order.created"
	TypePaymentCompleted = "payment.completed"
	TypePaymentFailed    = "payment.failed"
	TypePaymentRefunded  = "payment.refunded"
)

type OrderCreated struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Total       int64     `json:"total"`
	ItemCount   int       `json:"itemCount"`
	Timestamp   time.Time `json:"timestamp"`
}

type PaymentStatusChanged struct {
	Type          string    `json:"type"`
	PaymentID     string    `json:"paymentId"`
	OrderID       string    `json:"orderId"`
	Method        string    `json:"paymentMethod"`
	Status        string    `json:"paymentStatus"`
	Amount        int64     `json:"amount"`
	TransactionID string    `json:"transactionId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher delivers domain events keyed by aggregate id.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, any) error { return nil }

// Noop is used when no broker is configured.
func Noop() Publisher { return noopPublisher{} }
