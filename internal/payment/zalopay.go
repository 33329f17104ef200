package payment

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/config"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
)

const zaloPaySuccessCode = 1

type zaloPayStrategy struct {
	cfg         config.ZaloPayConfig
	callbackURL string
	returnURL   string
	httpClient  *http.Client
	signer      Signer
	loc         *time.Location
}

type zaloPayCreateResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZPTransToken     string `json:"zp_trans_token"`
	OrderToken       string `json:"order_token"`
	QRCode           string `json:"qr_code"`
}

// NewZaloPay builds the ZaloPay order strategy. callbackURL is where the
// gateway posts results.
func NewZaloPay(cfg config.ZaloPayConfig, callbackURL, defaultReturnURL string) Strategy {
	return &zaloPayStrategy{
		cfg:         cfg,
		callbackURL: callbackURL,
		returnURL:   defaultReturnURL,
		httpClient: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		signer: NewSHA256Signer(cfg.Key1),
		loc:    vietnamLocation(),
	}
}

func (z *zaloPayStrategy) Method() Method { return MethodZaloPay }

func (z *zaloPayStrategy) Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error) {
	p := req.Payment
	log := logger.FromCtx(ctx).With(
		zap.String("payment_id", p.ID),
		zap.Int64("amount", p.Amount),
	)

	if z.cfg.AppID == "" || z.cfg.Key1 == "" {
		return nil, apperr.Gateway("ZaloPay is not configured", nil)
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = z.returnURL
	}

	embed, err := json.Marshal(map[string]string{"redirecturl": returnURL})
	if err != nil {
		return nil, err
	}
	items, err := json.Marshal([]map[string]any{{
		"itemid":       p.OrderID,
		"itemname":     p.Description,
		"itemprice":    p.Amount,
		"itemquantity": 1,
	}})
	if err != nil {
		return nil, err
	}

	appUser := "guest"
	if p.UserID != nil && *p.UserID != "" {
		appUser = *p.UserID
	}

	transID, err := z.newAppTransID(req.Now)
	if err != nil {
		return nil, apperr.Gateway("Failed to create ZaloPay transaction id", err)
	}

	params := map[string]string{
		"app_id":       z.cfg.AppID,
		"app_trans_id": transID,
		"app_user":     appUser,
		"app_time":     strconv.FormatInt(req.Now.UnixMilli(), 10),
		"item":         string(items),
		"embed_data":   string(embed),
		"amount":       strconv.FormatInt(p.Amount, 10),
		"description":  p.Description,
		"bank_code":    "",
		"callback_url": z.callbackURL,
	}
	params["mac"] = z.signer.Sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, z.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed creating zalopay request", zap.Error(err))
		return nil, apperr.Gateway("Failed to reach ZaloPay", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	log.Info("sending order to zalopay", zap.String("app_trans_id", transID))

	resp, err := z.httpClient.Do(httpReq)
	if err != nil {
		log.Error("zalopay request failed", zap.Error(err))
		return nil, apperr.Gateway("Failed to reach ZaloPay", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read zalopay response", zap.Error(err))
		return nil, apperr.Gateway("Failed to read ZaloPay response", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error("zalopay returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, apperr.Gateway("ZaloPay rejected the order", fmt.Errorf("http status %d", resp.StatusCode))
	}

	var res zaloPayCreateResponse
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error("failed decoding zalopay response", zap.Error(err))
		return nil, apperr.Gateway("Invalid ZaloPay response", err)
	}

	if res.ReturnCode != zaloPaySuccessCode {
		log.Warn("zalopay declined order",
			zap.Int("return_code", res.ReturnCode),
			zap.String("return_message", res.ReturnMessage),
			zap.Int("sub_return_code", res.SubReturnCode),
		)
		return nil, apperr.Gateway("ZaloPay rejected the order",
			fmt.Errorf("return_code %d: %s", res.ReturnCode, res.ReturnMessage))
	}

	log.Info("zalopay order created", zap.String("app_trans_id", transID))

	return &Initiation{
		Status:        StatusProcessing,
		TransactionID: transID,
		GatewayResponse: map[string]any{
			"request":  params,
			"response": json.RawMessage(body),
		},
		PayURL:  res.OrderURL,
		QRCode:  res.QRCode,
		Message: "Redirect to ZaloPay for payment",
	}, nil
}

// ParseCallback reads the JSON result ZaloPay posts back. With a callback key
// configured, a missing or mismatched mac is rejected.
func (z *zaloPayStrategy) ParseCallback(payload CallbackPayload) (*CallbackOutcome, error) {
	var fields map[string]any
	if err := json.Unmarshal(payload.Body, &fields); err != nil {
		return nil, ErrMalformedCallback
	}

	ref, _ := fields["app_trans_id"].(string)
	if ref == "" {
		return nil, ErrMalformedCallback
	}

	if z.cfg.Key2 != "" {
		mac, _ := fields["mac"].(string)
		if mac == "" {
			return nil, ErrInvalidSignature
		}
		signed := make(map[string]string, len(fields))
		for k, v := range fields {
			if k == "mac" {
				continue
			}
			signed[k] = stringifyField(v)
		}
		if !NewSHA256Signer(z.cfg.Key2).Verify(signed, mac) {
			return nil, ErrInvalidSignature
		}
	}

	var amount int64
	if v, ok := fields["amount"]; ok {
		n, err := strconv.ParseInt(stringifyField(v), 10, 64)
		if err != nil {
			return nil, ErrMalformedCallback
		}
		amount = n
	}

	status, _ := fields["status"].(float64)

	return &CallbackOutcome{
		Reference: ref,
		Success:   status == zaloPaySuccessCode,
		Amount:    amount,
		Raw:       json.RawMessage(payload.Body),
	}, nil
}

// newAppTransID returns yymmdd_<6 digits> in Vietnam time.
func (z *zaloPayStrategy) newAppTransID(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%06d", now.In(z.loc).Format("060102"), n.Int64()), nil
}

func stringifyField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
