package payment

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/events"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/metrics"
	"github.com/ndkhanh17/BE-Tacoli/internal/order"
)

const (
	outcomeCompleted   = "completed"
	outcomeFailed      = "failed"
	outcomeDuplicate   = "duplicate"
	outcomeNotFound    = "not_found"
	outcomeRejected    = "rejected"
	outcomeUnsupported = "unsupported"
	outcomeError       = "error"
)

// HandleCallback applies a gateway notification. It never returns an error:
// every problem is reported in the result so the gateway always gets a 200.
func (s *service) HandleCallback(ctx context.Context, gateway string, payload CallbackPayload) CallbackResult {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandleCallback"),
		zap.String("gateway", gateway),
	)

	audit := &Callback{Gateway: gateway, Payload: callbackAuditPayload(payload)}

	strategy, ok := s.registry.Lookup(Method(gateway))
	var (
		outcome *CallbackOutcome
		err     error
	)
	if ok {
		outcome, err = strategy.ParseCallback(payload)
	} else {
		err = ErrUnsupportedGateway
	}

	if err != nil {
		s.record(ctx, audit, resultOutcome(err), err)

		switch {
		case errors.Is(err, ErrUnsupportedGateway):
			log.Warn("callback for unsupported gateway")
			return CallbackResult{Success: false, Message: "Unsupported payment gateway"}
		case errors.Is(err, ErrInvalidSignature):
			log.Warn("callback signature mismatch")
			return CallbackResult{Success: false, Message: "Invalid signature"}
		default:
			log.Warn("malformed callback", zap.Error(err))
			return CallbackResult{Success: false, Message: "Invalid callback payload"}
		}
	}

	audit.Reference = outcome.Reference
	audit.SignatureValid = true
	log = log.With(zap.String("reference", outcome.Reference), zap.Bool("success", outcome.Success))

	p, err := s.repo.FindByTransactionID(ctx, outcome.Reference)
	if err != nil {
		s.record(ctx, audit, resultOutcome(err), err)
		if errors.Is(err, ErrPaymentNotFound) {
			log.Warn("callback for unknown payment")
			return CallbackResult{Success: false, Message: "Payment not found"}
		}
		log.Error("failed to look up payment", zap.Error(err))
		return CallbackResult{Success: false, Message: "Failed to process callback"}
	}

	if outcome.Amount != 0 && outcome.Amount != p.Amount {
		log.Warn("callback amount mismatch",
			zap.String("payment_id", p.ID),
			zap.Int64("expected", p.Amount),
			zap.Int64("reported", outcome.Amount),
		)
		s.record(ctx, audit, outcomeRejected, ErrAmountMismatch)
		return CallbackResult{Success: false, Message: "Amount mismatch"}
	}

	to := StatusFailed
	if outcome.Success {
		to = StatusCompleted
	}

	updated, err := s.repo.Transition(ctx, p.ID, Transition{
		From:            openStatuses,
		To:              to,
		CallbackPayload: outcome.Raw,
	})
	if errors.Is(err, ErrNoTransition) {
		log.Info("callback already processed",
			zap.String("payment_id", p.ID),
			zap.String("status", string(p.PaymentStatus)),
		)
		s.record(ctx, audit, outcomeDuplicate, nil)
		return CallbackResult{Success: true, Message: "Callback already processed"}
	}
	if err != nil {
		log.Error("failed to transition payment", zap.String("payment_id", p.ID), zap.Error(err))
		s.record(ctx, audit, outcomeError, err)
		return CallbackResult{Success: false, Message: "Failed to process callback"}
	}

	now := s.now()
	if outcome.Success {
		s.propagate(ctx, updated, order.PaymentPaid)
		s.publish(ctx, updated, events.TypePaymentCompleted, now)
		s.record(ctx, audit, outcomeCompleted, nil)
	} else {
		s.publish(ctx, updated, events.TypePaymentFailed, now)
		s.record(ctx, audit, outcomeFailed, nil)
	}

	log.Info("callback processed",
		zap.String("payment_id", updated.ID),
		zap.String("status", string(updated.PaymentStatus)),
	)
	return CallbackResult{Success: true, Message: "Callback processed"}
}

// record writes the delivery to the audit log. Audit failures never affect
// the reply to the gateway.
func (s *service) record(ctx context.Context, cb *Callback, outcome string, procErr error) {
	metrics.PaymentCallbacks.WithLabelValues(cb.Gateway, outcome).Inc()

	log := logger.FromCtx(ctx)

	id, err := s.repo.SaveCallback(ctx, cb)
	if err != nil {
		log.Error("failed to save callback", zap.String("gateway", cb.Gateway), zap.Error(err))
		return
	}

	var msg string
	if procErr != nil {
		msg = procErr.Error()
	}
	if err := s.repo.MarkCallbackProcessed(ctx, id, outcome, msg); err != nil {
		log.Error("failed to mark callback processed", zap.Int64("callback_id", id), zap.Error(err))
	}
}

func resultOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedGateway):
		return outcomeUnsupported
	case errors.Is(err, ErrInvalidSignature), errors.Is(err, ErrMalformedCallback), errors.Is(err, ErrAmountMismatch):
		return outcomeRejected
	case errors.Is(err, ErrPaymentNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}

func callbackAuditPayload(p CallbackPayload) json.RawMessage {
	if len(p.Body) > 0 {
		return p.Body
	}
	b, _ := json.Marshal(p.Params)
	return b
}
