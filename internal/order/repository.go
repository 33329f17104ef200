package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

type Repository interface {
	CreateOrderTx(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error
	ListOrders(ctx context.Context, filter ListFilter) ([]*Order, int, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `
	id, order_number, user_id, customer_info, items,
	shipping_method, payment_method, subtotal, shipping_fee, total,
	status, payment_status, notes, created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o        Order
		userID   sql.NullString
		customer []byte
		items    []byte
	)

	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&userID,
		&customer,
		&items,
		&o.ShippingMethod,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.ShippingFee,
		&o.Total,
		&o.Status,
		&o.PaymentStatus,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if userID.Valid {
		o.UserID = &userID.String
	}
	if err := json.Unmarshal(customer, &o.CustomerInfo); err != nil {
		return nil, fmt.Errorf("decode customer_info: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	return &o, nil
}

// CreateOrderTx inserts the order and takes stock for every line in one
// transaction. A line whose product no longer has enough stock aborts the
// whole order.
func (r *repository) CreateOrderTx(ctx context.Context, order *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "CreateOrderTx"),
		zap.String("order_number", order.OrderNumber),
	)

	if order.ID == "" {
		order.ID = uuid.NewString()
	}

	customer, err := json.Marshal(order.CustomerInfo)
	if err != nil {
		return fmt.Errorf("encode customer_info: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Insert order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, customer_info, items,
			shipping_method, payment_method, subtotal, shipping_fee, total,
			status, payment_status, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at
	`,
		order.ID,
		order.OrderNumber,
		order.UserID,
		customer,
		items,
		order.ShippingMethod,
		order.PaymentMethod,
		order.Subtotal,
		order.ShippingFee,
		order.Total,
		order.Status,
		order.PaymentStatus,
		order.Notes,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return err
	}

	// 2. Deduct stock, guarded so concurrent orders cannot oversell
	for _, item := range order.Items {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`, item.Quantity, item.ProductID)
		if err != nil {
			log.Error("failed to deduct stock", zap.String("product_id", item.ProductID), zap.Error(err))
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			log.Warn("stock exhausted during commit", zap.String("product_id", item.ProductID))
			return insufficientStock(item.Name, item.ProductID)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return o, nil
}

func (r *repository) GetByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order by number %s: %w", orderNumber, err)
	}
	return o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, status OrderStatus) error {
	return r.updateColumn(ctx, id, "status", string(status))
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id string, status PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	return r.updateColumn(ctx, id, "payment_status", string(status))
}

func (r *repository) updateColumn(ctx context.Context, id, column, value string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrOrderNotFound
	}

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE orders SET %s = $1, updated_at = NOW() WHERE id = $2`, column),
		value, id,
	)
	if err != nil {
		return fmt.Errorf("update order %s: %w", column, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOrders returns one page of orders and the total number of matches.
func (r *repository) ListOrders(ctx context.Context, filter ListFilter) ([]*Order, int, error) {
	// ---------- PAGINATION ----------
	limit := 20
	page := 1
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if filter.Page > 0 {
		page = filter.Page
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	log := logger.FromCtx(ctx).With(
		zap.String("method", "ListOrders"),
		zap.Int("limit", limit),
		zap.Int("page", page),
	)

	// ---------- FILTERING ----------
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.PaymentStatus != "" {
		where += fmt.Sprintf(" AND payment_status = $%d", argIndex)
		args = append(args, filter.PaymentStatus)
		argIndex++
	}
	if filter.UserID != "" {
		where += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.DateFrom != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", argIndex)
		args = append(args, *filter.DateFrom)
		argIndex++
	}
	if filter.DateTo != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", argIndex)
		args = append(args, *filter.DateTo)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	// ---------- SORTING ----------
	dir := "DESC"
	if filter.SortAsc {
		dir = "ASC"
	}
	orderBy := "created_at " + dir
	if strings.EqualFold(filter.SortBy, "total") {
		orderBy = "total " + dir
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		" ORDER BY " + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func insufficientStock(name, productID string) error {
	label := name
	if label == "" {
		label = productID
	}
	return apperr.Wrap(apperr.KindBadRequest, "Not enough stock for product: "+label, ErrInsufficientStock)
}
