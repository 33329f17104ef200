package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/events"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/metrics"
	"github.com/ndkhanh17/BE-Tacoli/internal/product"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

// ProductReader is the slice of the catalog order intake needs.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*Order, error)
	Track(ctx context.Context, orderNumber string) (*Tracking, error)
	Get(ctx context.Context, id string) (*Order, error)
	GetForUser(ctx context.Context, id, userID string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
}

type service struct {
	repo      Repository
	products  ProductReader
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, products ProductReader, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.Noop()
	}
	return &service{
		repo:      repo,
		products:  products,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
		zap.Int("item_count", len(input.Items)),
	)

	if err := validateInput(&input); err != nil {
		log.Warn("invalid order input", zap.Error(err))
		metrics.OrdersRejected.WithLabelValues("invalid").Inc()
		return nil, err
	}

	// 1. Every product must exist with enough stock before anything is written
	products, err := s.loadProducts(ctx, input.Items)
	if err != nil {
		log.Warn("product lookup failed", zap.Error(err))
		metrics.OrdersRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	items := make([]Item, 0, len(input.Items))
	for i, in := range input.Items {
		p := products[i]
		if !p.HasStock(in.Quantity) {
			log.Info("insufficient stock",
				zap.String("product_id", p.ID),
				zap.Int("stock", p.Stock),
				zap.Int("requested", in.Quantity),
			)
			metrics.OrdersRejected.WithLabelValues("insufficient_stock").Inc()
			return nil, insufficientStock(p.Name, p.ID)
		}

		name := in.Name
		if name == "" {
			name = p.Name
		}
		price := in.Price
		if price <= 0 {
			price = p.Price
		}

		items = append(items, Item{
			ProductID: p.ID,
			Name:      name,
			Quantity:  in.Quantity,
			Price:     price,
			Total:     price * int64(in.Quantity),
		})
	}

	// 2. Persist, amounts exactly as submitted
	now := s.now()
	o := &Order{
		ID:             uuid.NewString(),
		OrderNumber:    utils.GenerateOrderNumber(now),
		UserID:         input.UserID,
		CustomerInfo:   input.CustomerInfo,
		Items:          items,
		ShippingMethod: input.ShippingMethod,
		PaymentMethod:  input.PaymentMethod,
		Subtotal:       input.Subtotal,
		ShippingFee:    input.ShippingFee,
		Total:          input.Total,
		Status:         StatusPending,
		PaymentStatus:  PaymentPending,
		Notes:          input.Notes,
	}

	if err := s.repo.CreateOrderTx(ctx, o); err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			metrics.OrdersRejected.WithLabelValues("insufficient_stock").Inc()
			return nil, err
		}
		log.Error("failed to persist order", zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, ErrFailedCreateOrder.Message, err)
	}

	metrics.OrdersCreated.Inc()
	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.Total),
	)

	// 3. Notify downstream consumers
	evt := events.OrderCreated{
		Type:        events.TypeOrderCreated,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		Total:       o.Total,
		ItemCount:   len(o.Items),
		Timestamp:   now,
	}
	if err := s.publisher.Publish(ctx, o.ID, evt); err != nil {
		log.Warn("failed to publish order event", zap.Error(err))
	}

	return o, nil
}

// loadProducts fetches every referenced product concurrently. Results keep
// the order of items.
func (s *service) loadProducts(ctx context.Context, items []ItemInput) ([]*product.Product, error) {
	products := make([]*product.Product, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for i, item := range items {
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrProductNotFound) {
					return apperr.Wrap(apperr.KindNotFound,
						fmt.Sprintf("Product with ID %s not found", item.ProductID),
						product.ErrProductNotFound)
				}
				return fmt.Errorf("load product %s: %w", item.ProductID, err)
			}
			products[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) Track(ctx context.Context, orderNumber string) (*Tracking, error) {
	o, err := s.repo.GetByOrderNumber(ctx, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, err
	}

	return &Tracking{
		OrderNumber:       o.OrderNumber,
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		ShippingMethod:    o.ShippingMethod,
		EstimatedDelivery: EstimatedDelivery(o.CreatedAt, o.ShippingMethod),
	}, nil
}

// EstimatedDelivery is createdAt plus the transit days of the method.
func EstimatedDelivery(createdAt time.Time, method ShippingMethod) time.Time {
	return createdAt.AddDate(0, 0, method.DeliveryDays())
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUser hides orders owned by someone else behind NotFound.
func (s *service) GetForUser(ctx context.Context, id, userID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID == nil || *o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, status OrderStatus) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id),
		zap.String("status", string(status)),
	)

	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			log.Error("failed to update order status", zap.Error(err))
			return apperr.Wrap(apperr.KindInternal, ErrFailedUpdateOrder.Message, err)
		}
		return err
	}

	log.Info("order status updated")
	return nil
}

func validateInput(in *CreateOrderInput) error {
	if len(in.Items) == 0 {
		return apperr.Wrap(apperr.KindBadRequest, "Order items are required", ErrInvalidOrder)
	}
	for _, item := range in.Items {
		if item.ProductID == "" {
			return apperr.Wrap(apperr.KindBadRequest, "Product ID is required for each item", ErrInvalidOrder)
		}
		if item.Quantity < 1 {
			return apperr.Wrap(apperr.KindBadRequest, "Quantity must be at least 1", ErrInvalidOrder)
		}
	}

	if in.ShippingMethod == "" {
		in.ShippingMethod = ShippingStandard
	}
	if in.ShippingMethod != ShippingStandard && in.ShippingMethod != ShippingExpress {
		return apperr.Wrap(apperr.KindBadRequest, "Shipping method must be either standard or express", ErrInvalidOrder)
	}
	if in.Subtotal < 0 || in.ShippingFee < 0 || in.Total < 0 {
		return apperr.Wrap(apperr.KindBadRequest, "Amounts must not be negative", ErrInvalidOrder)
	}
	return nil
}

func rejectReason(err error) string {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return "not_found"
	}
	return "lookup_error"
}
