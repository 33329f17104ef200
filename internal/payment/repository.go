package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	FindByID(ctx context.Context, id string) (*Payment, error)
	FindActiveByOrderID(ctx context.Context, orderID string) (*Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)
	ApplyInitiation(ctx context.Context, id string, init *Initiation) error
	Transition(ctx context.Context, id string, t Transition) (*Payment, error)
	Stats(ctx context.Context, start, end time.Time) ([]StatusStat, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, int, error)

	SaveCallback(ctx context.Context, cb *Callback) (int64, error)
	MarkCallbackProcessed(ctx context.Context, id int64, outcome, processErr string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const paymentColumns = `
	id, order_id, user_id, amount, currency, payment_method, payment_status,
	transaction_id, gateway_response, payment_date, description, metadata,
	created_at, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	var (
		p           Payment
		userID      sql.NullString
		txID        sql.NullString
		gateway     []byte
		metadata    []byte
		paymentDate sql.NullTime
	)

	if err := row.Scan(
		&p.ID,
		&p.OrderID,
		&userID,
		&p.Amount,
		&p.Currency,
		&p.PaymentMethod,
		&p.PaymentStatus,
		&txID,
		&gateway,
		&paymentDate,
		&p.Description,
		&metadata,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if userID.Valid {
		p.UserID = &userID.String
	}
	p.TransactionID = txID.String
	if paymentDate.Valid {
		p.PaymentDate = &paymentDate.Time
	}
	if len(gateway) > 0 {
		p.GatewayResponse = json.RawMessage(gateway)
	}
	if len(metadata) > 0 {
		p.Metadata = json.RawMessage(metadata)
	}

	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Payment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payments (
			id, order_id, user_id, amount, currency,
			payment_method, payment_status, description
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`,
		p.ID,
		p.OrderID,
		p.UserID,
		p.Amount,
		p.Currency,
		p.PaymentMethod,
		p.PaymentStatus,
		p.Description,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			return ErrActivePaymentExists
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPaymentNotFound
	}
	return r.findOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// FindActiveByOrderID returns the order's payment that is not failed.
func (r *repository) FindActiveByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	return r.findOne(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1 AND payment_status <> 'failed'
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error) {
	if transactionID == "" {
		return nil, ErrPaymentNotFound
	}
	return r.findOne(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE transaction_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, transactionID)
}

func (r *repository) findOne(ctx context.Context, query string, args ...any) (*Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

// ApplyInitiation records what the method strategy produced.
func (r *repository) ApplyInitiation(ctx context.Context, id string, init *Initiation) error {
	var gateway any
	if init.GatewayResponse != nil {
		b, err := json.Marshal(init.GatewayResponse)
		if err != nil {
			return fmt.Errorf("encode gateway response: %w", err)
		}
		gateway = string(b)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE payments
		SET payment_status = $2,
			transaction_id = $3,
			gateway_response = $4::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`, id, init.Status, nullString(init.TransactionID), gateway)
	if err != nil {
		return fmt.Errorf("apply initiation: %w", err)
	}
	return nil
}

// Transition moves a payment to t.To in a single conditional statement.
// It returns ErrNoTransition when the payment is missing or not in any of
// t.From, so concurrent or repeated callers change the row at most once.
func (r *repository) Transition(ctx context.Context, id string, t Transition) (*Payment, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", "Transition"),
		zap.String("payment_id", id),
		zap.String("to", string(t.To)),
	)

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNoTransition
	}

	from := make([]string, len(t.From))
	for i, s := range t.From {
		from[i] = string(s)
	}

	p, err := scanPayment(r.db.QueryRowContext(ctx, `
		UPDATE payments
		SET payment_status = $2,
			payment_date = CASE WHEN $3 THEN NOW() ELSE payment_date END,
			gateway_response = CASE
				WHEN $4::jsonb IS NULL THEN gateway_response
				ELSE COALESCE(gateway_response, '{}'::jsonb) || jsonb_build_object('callback', $4::jsonb)
			END,
			metadata = COALESCE(metadata, '{}'::jsonb) || COALESCE($5::jsonb, '{}'::jsonb),
			updated_at = NOW()
		WHERE id = $1 AND payment_status = ANY($6)
		RETURNING `+paymentColumns,
		id,
		t.To,
		t.To == StatusCompleted,
		nullJSON(t.CallbackPayload),
		nullJSON(t.Metadata),
		pq.Array(from),
	))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no payment in source state")
		return nil, ErrNoTransition
	}
	if err != nil {
		log.Error("failed to transition payment", zap.Error(err))
		return nil, fmt.Errorf("transition payment: %w", err)
	}

	return p, nil
}

func (r *repository) Stats(ctx context.Context, start, end time.Time) ([]StatusStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payment_status, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY payment_status
		ORDER BY payment_status
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("payment stats: %w", err)
	}
	defer rows.Close()

	stats := []StatusStat{}
	for rows.Next() {
		var s StatusStat
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalAmount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ListPayments returns one page of payments and the total number of matches.
func (r *repository) ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, int, error) {
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

	// ---------- FILTERING ----------
	where := " WHERE 1=1"
	args := []any{}
	argIndex := 1

	if filter.Status != "" {
		where += fmt.Sprintf(" AND payment_status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}
	if filter.Method != "" {
		where += fmt.Sprintf(" AND payment_method = $%d", argIndex)
		args = append(args, filter.Method)
		argIndex++
	}
	if filter.UserID != "" {
		where += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.OrderID != "" {
		where += fmt.Sprintf(" AND order_id = $%d", argIndex)
		args = append(args, filter.OrderID)
		argIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}

	// ---------- SORTING ----------
	dir := "DESC"
	if filter.SortAsc {
		dir = "ASC"
	}
	orderBy := "created_at " + dir
	if strings.EqualFold(filter.SortBy, "amount") {
		orderBy = "amount " + dir
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + where +
		" ORDER BY " + orderBy +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *repository) SaveCallback(ctx context.Context, cb *Callback) (int64, error) {
	payload := cb.Payload
	if !json.Valid(payload) {
		wrapped, err := json.Marshal(map[string]string{"raw": string(payload)})
		if err != nil {
			return 0, err
		}
		payload = wrapped
	}

	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO payment_callbacks (
			gateway, reference, payload, signature_valid
		) VALUES ($1, $2, $3::jsonb, $4)
		RETURNING id, received_at
	`,
		cb.Gateway,
		cb.Reference,
		string(payload),
		cb.SignatureValid,
	).Scan(&id, &cb.ReceivedAt)
	if err != nil {
		return 0, fmt.Errorf("save callback: %w", err)
	}

	cb.ID = id
	return id, nil
}

func (r *repository) MarkCallbackProcessed(ctx context.Context, id int64, outcome, processErr string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_callbacks
		SET outcome = $2,
			process_error = $3,
			processed_at = NOW()
		WHERE id = $1
	`, id, outcome, nullString(processErr))
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
