package payment

import (
	"context"
	"time"
)

// InitiateRequest is everything a strategy may use to start a payment.
type InitiateRequest struct {
	Payment     *Payment
	OrderNumber string
	ReturnURL   string
	CancelURL   string
	ClientIP    string
	Now         time.Time
}

// Strategy is one supported payment method. Methods without a gateway
// return ErrUnsupportedGateway from ParseCallback.
type Strategy interface {
	Method() Method
	Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error)
	ParseCallback(payload CallbackPayload) (*CallbackOutcome, error)
}

// Registry is the closed set of strategies the service dispatches to.
type Registry struct {
	strategies map[Method]Strategy
}

func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[Method]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Method()] = s
	}
	return r
}

func (r *Registry) Lookup(m Method) (Strategy, bool) {
	s, ok := r.strategies[m]
	return s, ok
}
