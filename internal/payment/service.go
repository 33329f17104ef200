package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/config"
	"github.com/ndkhanh17/BE-Tacoli/internal/events"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/metrics"
	"github.com/ndkhanh17/BE-Tacoli/internal/order"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

// OrderStore is the order state the payment flows read and mirror into.
type OrderStore interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status order.PaymentStatus) error
}

type Service interface {
	Create(ctx context.Context, input CreatePaymentInput) (*InitiateResult, error)
	Get(ctx context.Context, id string) (*Payment, error)
	Refund(ctx context.Context, id, reason, adminID string) (*Payment, error)
	Stats(ctx context.Context, start, end *time.Time) (*Stats, error)
	HandleCallback(ctx context.Context, gateway string, payload CallbackPayload) CallbackResult
}

type service struct {
	repo      Repository
	orders    OrderStore
	registry  *Registry
	publisher events.Publisher
	bank      config.BankConfig
	now       func() time.Time
}

func NewService(
	repo Repository,
	orders OrderStore,
	registry *Registry,
	publisher events.Publisher,
	bank config.BankConfig,
) Service {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &service{
		repo:      repo,
		orders:    orders,
		registry:  registry,
		publisher: publisher,
		bank:      bank,
		now:       time.Now,
	}
}

// NewDefaultRegistry wires every supported method from configuration.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	returnURL := cfg.ClientURL + "/payment/success"
	return NewRegistry(
		NewCOD(),
		NewBankTransfer(cfg.Bank),
		NewVNPay(cfg.VNPay, returnURL),
		NewZaloPay(cfg.ZaloPay, cfg.APIURL+"/api/payments/callback/zalopay", returnURL),
	)
}

func (s *service) Create(ctx context.Context, input CreatePaymentInput) (*InitiateResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.String("order_id", input.OrderID),
		zap.String("payment_method", string(input.PaymentMethod)),
	)

	// 1. Unknown methods are rejected before anything is written
	strategy, ok := s.registry.Lookup(input.PaymentMethod)
	if !ok {
		log.Info("unsupported payment method")
		return nil, ErrUnsupportedMethod
	}

	// 2. Order must exist and have no active payment
	o, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, err
		}
		log.Error("failed to load order", zap.Error(err))
		return nil, fmt.Errorf("load order: %w", err)
	}

	existing, err := s.repo.FindActiveByOrderID(ctx, o.ID)
	switch {
	case err == nil:
		log.Info("active payment already exists",
			zap.String("payment_id", existing.ID),
			zap.String("status", string(existing.PaymentStatus)),
		)
		return nil, ErrActivePaymentExists
	case !errors.Is(err, ErrPaymentNotFound):
		log.Error("failed to check existing payment", zap.Error(err))
		return nil, err
	}

	// 3. Record the attempt
	p := &Payment{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		UserID:        input.UserID,
		Amount:        o.Total,
		Currency:      DefaultCurrency,
		PaymentMethod: strategy.Method(),
		PaymentStatus: StatusPending,
		Description:   "Payment for order " + o.OrderNumber,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrActivePaymentExists) {
			log.Info("lost race creating payment")
			return nil, err
		}
		log.Error("failed to create payment", zap.Error(err))
		return nil, err
	}

	// 4. Hand over to the method
	init, err := strategy.Initiate(ctx, InitiateRequest{
		Payment:     p,
		OrderNumber: o.OrderNumber,
		ReturnURL:   input.ReturnURL,
		CancelURL:   input.CancelURL,
		ClientIP:    input.ClientIP,
		Now:         s.now(),
	})
	if err != nil {
		log.Error("payment initiation failed", zap.String("payment_id", p.ID), zap.Error(err))
		s.markFailed(ctx, p.ID)
		metrics.PaymentsInitiated.WithLabelValues(string(p.PaymentMethod), string(StatusFailed)).Inc()
		if apperr.KindOf(err) == apperr.KindGateway {
			return nil, err
		}
		return nil, apperr.Gateway("Payment gateway error", err)
	}

	if err := s.repo.ApplyInitiation(ctx, p.ID, init); err != nil {
		log.Error("failed to store initiation", zap.String("payment_id", p.ID), zap.Error(err))
		s.markFailed(ctx, p.ID)
		return nil, err
	}

	metrics.PaymentsInitiated.WithLabelValues(string(p.PaymentMethod), string(init.Status)).Inc()
	log.Info("payment initiated",
		zap.String("payment_id", p.ID),
		zap.String("status", string(init.Status)),
		zap.String("transaction_id", init.TransactionID),
	)

	return &InitiateResult{
		PaymentID:     p.ID,
		PaymentMethod: p.PaymentMethod,
		Status:        init.Status,
		Amount:        p.Amount,
		TransactionID: init.TransactionID,
		PayURL:        init.PayURL,
		QRCode:        init.QRCode,
		BankInfo:      init.BankInfo,
		Instructions:  s.instructions(p, init),
		Message:       init.Message,
	}, nil
}

func (s *service) markFailed(ctx context.Context, id string) {
	_, err := s.repo.Transition(ctx, id, Transition{
		From: openStatuses,
		To:   StatusFailed,
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to mark payment failed",
			zap.String("payment_id", id),
			zap.Error(err),
		)
	}
}

func (s *service) instructions(p *Payment, init *Initiation) []string {
	steps := GetInstructions(p.PaymentMethod)
	if len(steps) == 0 {
		return nil
	}

	vars := InstructionVars{
		"amount":         utils.FormatVND(p.Amount),
		"bank_name":      s.bank.BankName,
		"account_number": s.bank.AccountNumber,
		"reference":      "TACOLI " + p.ID,
	}
	if init.BankInfo != nil {
		vars["reference"] = init.BankInfo.TransferContent
	}
	return InjectVariables(steps, vars)
}

func (s *service) Get(ctx context.Context, id string) (*Payment, error) {
	return s.repo.FindByID(ctx, id)
}

// Refund moves a completed payment to refunded and mirrors it on the order.
func (s *service) Refund(ctx context.Context, id, reason, adminID string) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Refund"),
		zap.String("payment_id", id),
		zap.String("admin_id", adminID),
	)

	now := s.now()
	meta, err := json.Marshal(map[string]any{
		"refundReason": reason,
		"refundDate":   now.UTC(),
		"refundBy":     adminID,
	})
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Transition(ctx, id, Transition{
		From:     []Status{StatusCompleted},
		To:       StatusRefunded,
		Metadata: meta,
	})
	if errors.Is(err, ErrNoTransition) {
		if _, findErr := s.repo.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrRefundNotAllowed
	}
	if err != nil {
		log.Error("failed to refund payment", zap.Error(err))
		return nil, err
	}

	log.Info("payment refunded")
	s.propagate(ctx, p, order.PaymentRefunded)
	s.publish(ctx, p, events.TypePaymentRefunded, now)

	return p, nil
}

func (s *service) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	to := s.now()
	if end != nil {
		to = *end
	}
	from := to.AddDate(0, 0, -30)
	if start != nil {
		from = *start
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}

	stats, err := s.repo.Stats(ctx, from, to)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load payment stats", zap.Error(err))
		return nil, err
	}

	return &Stats{
		Stats:  stats,
		Period: Period{StartDate: from, EndDate: to},
	}, nil
}

// propagate mirrors a payment outcome on its order. Failures are logged and
// left for reconciliation; the payment row stays authoritative.
func (s *service) propagate(ctx context.Context, p *Payment, status order.PaymentStatus) {
	if err := s.orders.UpdatePaymentStatus(ctx, p.OrderID, status); err != nil {
		logger.FromCtx(ctx).Error("failed to update order payment status",
			zap.String("order_id", p.OrderID),
			zap.String("payment_id", p.ID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func (s *service) publish(ctx context.Context, p *Payment, eventType string, at time.Time) {
	evt := events.PaymentStatusChanged{
		Type:          eventType,
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Method:        string(p.PaymentMethod),
		Status:        string(p.PaymentStatus),
		Amount:        p.Amount,
		TransactionID: p.TransactionID,
		Timestamp:     at,
	}
	if err := s.publisher.Publish(ctx, p.OrderID, evt); err != nil {
		logger.FromCtx(ctx).Warn("failed to publish payment event",
			zap.String("payment_id", p.ID),
			zap.String("type", eventType),
			zap.Error(err),
		)
	}
}
