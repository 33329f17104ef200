package payment

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/config"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

const (
	vnpVersion      = "2.1.0"
	vnpSuccessCode  = "00"
	vnpSecureHash   = "vnp_SecureHash"
	vnpHashType     = "vnp_SecureHashType"
	vnpDateLayout   = "20060102150405"
	defaultClientIP = "127.0.0.1"
)

type vnpayStrategy struct {
	cfg       config.VNPayConfig
	returnURL string
	signer    Signer
	loc       *time.Location
}

// NewVNPay builds the VNPay redirect strategy. defaultReturnURL is used when
// the client does not send one.
func NewVNPay(cfg config.VNPayConfig, defaultReturnURL string) Strategy {
	return &vnpayStrategy{
		cfg:       cfg,
		returnURL: defaultReturnURL,
		signer:    NewSHA512Signer(cfg.HashSecret),
		loc:       vietnamLocation(),
	}
}

func (v *vnpayStrategy) Method() Method { return MethodVNPay }

func (v *vnpayStrategy) Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error) {
	if v.cfg.HashSecret == "" || v.cfg.TmnCode == "" {
		return nil, apperr.Gateway("VNPay is not configured", nil)
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = v.returnURL
	}
	ip := req.ClientIP
	if ip == "" {
		ip = defaultClientIP
	}

	params := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    v.cfg.TmnCode,
		"vnp_Locale":     "vn",
		"vnp_CurrCode":   DefaultCurrency,
		"vnp_TxnRef":     req.Payment.ID,
		"vnp_OrderInfo":  req.Payment.Description,
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(req.Payment.Amount*100, 10),
		"vnp_ReturnUrl":  returnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": req.Now.In(v.loc).Format(vnpDateLayout),
	}
	params[vnpSecureHash] = v.signer.Sign(params)

	payURL := v.cfg.URL + "?" + CanonicalQuery(params)

	logger.FromCtx(ctx).Info("vnpay payment url built",
		zap.String("payment_id", req.Payment.ID),
		zap.Int64("amount", req.Payment.Amount),
	)

	return &Initiation{
		Status:          StatusProcessing,
		TransactionID:   req.Payment.ID,
		GatewayResponse: map[string]any{"vnp_Params": params},
		PayURL:          payURL,
		Message:         "Redirect to VNPay for payment",
	}, nil
}

// ParseCallback verifies a VNPay return/IPN query. The hash covers every
// vnp_ parameter except the hash fields themselves.
func (v *vnpayStrategy) ParseCallback(payload CallbackPayload) (*CallbackOutcome, error) {
	sig := payload.Params[vnpSecureHash]
	ref := payload.Params["vnp_TxnRef"]
	if sig == "" || ref == "" {
		return nil, ErrMalformedCallback
	}

	signed := make(map[string]string, len(payload.Params))
	for k, val := range payload.Params {
		if !strings.HasPrefix(k, "vnp_") || k == vnpSecureHash || k == vnpHashType {
			continue
		}
		signed[k] = val
	}

	if !v.signer.Verify(signed, sig) {
		return nil, ErrInvalidSignature
	}

	var amount int64
	if v := payload.Params["vnp_Amount"]; v != "" {
		minor, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, ErrMalformedCallback
		}
		amount = minor / 100
	}

	raw, err := json.Marshal(payload.Params)
	if err != nil {
		return nil, err
	}

	return &CallbackOutcome{
		Reference: ref,
		Success:   payload.Params["vnp_ResponseCode"] == vnpSuccessCode,
		Amount:    amount,
		Raw:       raw,
	}, nil
}

func vietnamLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		logger.L().Warn("failed to load Asia/Ho_Chi_Minh location, using fixed UTC+7", zap.Error(err))
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}
