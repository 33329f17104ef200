package payment

import (
	"encoding/json"
	"time"
)

type Method string

const (
	MethodCOD          Method = "cod"
	MethodBankTransfer Method = "bank_transfer"
	MethodVNPay        Method = "vnpay"
	MethodZaloPay      Method = "zalopay"
	MethodMomo         Method = "momo"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// openStatuses are the states a gateway callback may still move.
var openStatuses = []Status{StatusPending, StatusProcessing}

const DefaultCurrency = "VND"

type Payment struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	UserID          *string         `json:"userId,omitempty"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	PaymentMethod   Method          `json:"paymentMethod"`
	PaymentStatus   Status          `json:"paymentStatus"`
	TransactionID   string          `json:"transactionId,omitempty"`
	GatewayResponse json.RawMessage `json:"gatewayResponse,omitempty"`
	PaymentDate     *time.Time      `json:"paymentDate,omitempty"`
	Description     string          `json:"description"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

type CreatePaymentInput struct {
	OrderID       string  `json:"orderId"`
	PaymentMethod Method  `json:"paymentMethod"`
	ReturnURL     string  `json:"returnUrl"`
	CancelURL     string  `json:"cancelUrl"`
	UserID        *string `json:"-"`
	ClientIP      string  `json:"-"`
}

type BankInfo struct {
	BankName        string `json:"bankName"`
	AccountNumber   string `json:"accountNumber"`
	AccountName     string `json:"accountName"`
	TransferContent string `json:"transferContent"`
}

// Initiation is what a method strategy decided for a fresh payment.
type Initiation struct {
	Status          Status
	TransactionID   string
	GatewayResponse any
	PayURL          string
	QRCode          string
	BankInfo        *BankInfo
	Message         string
}

// InitiateResult is the method specific payload returned to the client.
type InitiateResult struct {
	PaymentID     string    `json:"paymentId"`
	PaymentMethod Method    `json:"paymentMethod"`
	Status        Status    `json:"status"`
	Amount        int64     `json:"amount"`
	TransactionID string    `json:"transactionId,omitempty"`
	PayURL        string    `json:"payUrl,omitempty"`
	QRCode        string    `json:"qrCode,omitempty"`
	BankInfo      *BankInfo `json:"bankInfo,omitempty"`
	Instructions  []string  `json:"instructions,omitempty"`
	Message       string    `json:"message"`
}

// CallbackPayload is a gateway delivery as received over HTTP.
type CallbackPayload struct {
	Params map[string]string
	Body   []byte
}

// CallbackOutcome is a gateway delivery after verification.
type CallbackOutcome struct {
	Reference string
	Success   bool
	// Amount is the VND amount the gateway reports, 0 when it sends none.
	Amount int64
	Raw    json.RawMessage
}

type CallbackResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Transition is a conditional status change. It only applies while the
// payment is in one of From.
type Transition struct {
	From            []Status
	To              Status
	CallbackPayload json.RawMessage
	Metadata        json.RawMessage
}

type StatusStat struct {
	Status      Status `json:"status"`
	Count       int64  `json:"count"`
	TotalAmount int64  `json:"totalAmount"`
}

type Period struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type Stats struct {
	Stats  []StatusStat `json:"stats"`
	Period Period       `json:"period"`
}

type ListFilter struct {
	Status  Status
	Method  Method
	UserID  string
	OrderID string
	SortBy  string // created_at | amount
	SortAsc bool
	Limit   int
	Page    int
}

// Callback is one row of the gateway delivery audit log.
type Callback struct {
	ID             int64
	Gateway        string
	Reference      string
	Payload        json.RawMessage
	SignatureValid bool
	Outcome        string
	ProcessError   string
	ReceivedAt     time.Time
	ProcessedAt    *time.Time
}
