package payment

import "context"

type codStrategy struct{}

func NewCOD() Strategy { return codStrategy{} }

func (codStrategy) Method() Method { return MethodCOD }

func (codStrategy) Initiate(_ context.Context, _ InitiateRequest) (*Initiation, error) {
	return &Initiation{
		Status:  StatusPending,
		Message: "Order will be paid upon delivery",
	}, nil
}

func (codStrategy) ParseCallback(CallbackPayload) (*CallbackOutcome, error) {
	return nil, ErrUnsupportedGateway
}
