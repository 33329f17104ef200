package payment

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ndkhanh17/BE-Tacoli/internal/order"
)

// --- Mocks ---

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) FindActiveByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) ApplyInitiation(ctx context.Context, id string, init *Initiation) error {
	args := m.Called(ctx, id, init)
	return args.Error(0)
}

func (m *MockRepository) Transition(ctx context.Context, id string, t Transition) (*Payment, error) {
	args := m.Called(ctx, id, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockRepository) Stats(ctx context.Context, start, end time.Time) ([]StatusStat, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]StatusStat), args.Error(1)
}

func (m *MockRepository) ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Payment), args.Int(1), args.Error(2)
}

func (m *MockRepository) SaveCallback(ctx context.Context, cb *Callback) (int64, error) {
	args := m.Called(ctx, cb)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) MarkCallbackProcessed(ctx context.Context, id int64, outcome, processErr string) error {
	args := m.Called(ctx, id, outcome, processErr)
	return args.Error(0)
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderStore) UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, key string, event any) error {
	args := m.Called(ctx, key, event)
	return args.Error(0)
}

type MockStrategy struct {
	mock.Mock
	method Method
}

func (m *MockStrategy) Method() Method { return m.method }

func (m *MockStrategy) Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Initiation), args.Error(1)
}

func (m *MockStrategy) ParseCallback(payload CallbackPayload) (*CallbackOutcome, error) {
	args := m.Called(payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CallbackOutcome), args.Error(1)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, input CreatePaymentInput) (*InitiateResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*InitiateResult), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id string) (*Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockService) Refund(ctx context.Context, id, reason, adminID string) (*Payment, error) {
	args := m.Called(ctx, id, reason, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *MockService) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Stats), args.Error(1)
}

func (m *MockService) HandleCallback(ctx context.Context, gateway string, payload CallbackPayload) CallbackResult {
	args := m.Called(ctx, gateway, payload)
	return args.Get(0).(CallbackResult)
}
