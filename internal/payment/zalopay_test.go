package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/config"
)

// MockRoundTripper stubs the gateway HTTP response.
type MockRoundTripper func(req *http.Request) *http.Response

func (f MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req), nil
}

type MockRoundTripperWithError func(req *http.Request) (*http.Response, error)

func (f MockRoundTripperWithError) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var testZaloPayConfig = config.ZaloPayConfig{
	AppID:    "2553",
	Key1:     "zalopay-key1",
	Key2:     "zalopay-key2",
	Endpoint: "https://sb-openapi.zalopay.vn/v2/create",
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func zaloPayRequest() InitiateRequest {
	user := "user-7"
	return InitiateRequest{
		Payment: &Payment{
			ID:          "p-1",
			OrderID:     "order-1",
			UserID:      &user,
			Amount:      230000,
			Description: "Payment for order ORD1",
		},
		OrderNumber: "ORD1",
		Now:         time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
	}
}

func TestZaloPay_Initiate(t *testing.T) {
	newGateway := func() *zaloPayStrategy {
		return NewZaloPay(testZaloPayConfig, "http://api/api/payments/callback/zalopay", "http://client/return").(*zaloPayStrategy)
	}

	t.Run("Success", func(t *testing.T) {
		gw := newGateway()
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

			require.NoError(t, req.ParseForm())
			params := map[string]string{}
			for k := range req.PostForm {
				if k != "mac" {
					params[k] = req.PostForm.Get(k)
				}
			}
			assert.True(t, NewSHA256Signer(testZaloPayConfig.Key1).Verify(params, req.PostForm.Get("mac")))
			assert.Equal(t, "230000", params["amount"])
			assert.Equal(t, "user-7", params["app_user"])
			assert.Equal(t, "http://api/api/payments/callback/zalopay", params["callback_url"])

			return jsonResponse(http.StatusOK, `{
				"return_code": 1,
				"return_message": "Giao dịch thành công",
				"order_url": "https://qcgateway.zalopay.vn/openinapp?order=abc",
				"qr_code": "00020101021226520010vn.zalopay"
			}`)
		})

		init, err := gw.Initiate(context.Background(), zaloPayRequest())
		require.NoError(t, err)

		assert.Equal(t, StatusProcessing, init.Status)
		// 20:00 UTC on the 15th is the 16th in Vietnam.
		assert.Regexp(t, regexp.MustCompile(`^240316_\d{6}$`), init.TransactionID)
		assert.Equal(t, "https://qcgateway.zalopay.vn/openinapp?order=abc", init.PayURL)
		assert.Equal(t, "00020101021226520010vn.zalopay", init.QRCode)
		assert.Equal(t, "Redirect to ZaloPay for payment", init.Message)
	})

	t.Run("Declined", func(t *testing.T) {
		gw := newGateway()
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{"return_code": 2, "return_message": "Giao dịch thất bại"}`)
		})

		_, err := gw.Initiate(context.Background(), zaloPayRequest())
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})

	t.Run("HTTPError", func(t *testing.T) {
		gw := newGateway()
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusBadGateway, `bad gateway`)
		})

		_, err := gw.Initiate(context.Background(), zaloPayRequest())
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		gw := newGateway()
		gw.httpClient.Transport = MockRoundTripper(func(req *http.Request) *http.Response {
			return jsonResponse(http.StatusOK, `{invalid`)
		})

		_, err := gw.Initiate(context.Background(), zaloPayRequest())
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})

	t.Run("NetworkError", func(t *testing.T) {
		gw := newGateway()
		gw.httpClient.Transport = MockRoundTripperWithError(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})

		_, err := gw.Initiate(context.Background(), zaloPayRequest())
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})

	t.Run("NotConfigured", func(t *testing.T) {
		gw := NewZaloPay(config.ZaloPayConfig{Endpoint: "x"}, "", "")

		_, err := gw.Initiate(context.Background(), zaloPayRequest())
		assert.Equal(t, apperr.KindGateway, apperr.KindOf(err))
	})
}

// zaloPayCallback builds a callback body; an empty key leaves it unsigned.
func zaloPayCallback(t *testing.T, key string, status int) CallbackPayload {
	t.Helper()

	fields := map[string]string{
		"app_id":       "2553",
		"app_trans_id": "240316_000042",
		"amount":       "230000",
		"status":       strconv.Itoa(status),
	}
	body := map[string]any{
		"app_id":       "2553",
		"app_trans_id": "240316_000042",
		"amount":       "230000",
		"status":       status,
	}
	if key != "" {
		body["mac"] = NewSHA256Signer(key).Sign(fields)
	}

	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return CallbackPayload{Body: raw}
}

func TestZaloPay_ParseCallback(t *testing.T) {
	gw := NewZaloPay(testZaloPayConfig, "", "")

	t.Run("SignedSuccess", func(t *testing.T) {
		out, err := gw.ParseCallback(zaloPayCallback(t, testZaloPayConfig.Key2, 1))
		require.NoError(t, err)
		assert.Equal(t, "240316_000042", out.Reference)
		assert.True(t, out.Success)
		assert.Equal(t, int64(230000), out.Amount)
	})

	t.Run("WrongKey", func(t *testing.T) {
		_, err := gw.ParseCallback(zaloPayCallback(t, "attacker", 1))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("SignedFailure", func(t *testing.T) {
		out, err := gw.ParseCallback(zaloPayCallback(t, testZaloPayConfig.Key2, 2))
		require.NoError(t, err)
		assert.False(t, out.Success)
	})

	t.Run("UnsignedRejected", func(t *testing.T) {
		for _, status := range []int{1, 2} {
			out, err := gw.ParseCallback(zaloPayCallback(t, "", status))
			assert.ErrorIs(t, err, ErrInvalidSignature)
			assert.Nil(t, out)
		}
	})

	t.Run("EmptyMacRejected", func(t *testing.T) {
		_, err := gw.ParseCallback(CallbackPayload{Body: []byte(`{"app_trans_id":"251017_123456","status":1,"mac":""}`)})
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("NoCallbackKeyConfigured", func(t *testing.T) {
		cfg := testZaloPayConfig
		cfg.Key2 = ""
		lenient := NewZaloPay(cfg, "", "")

		out, err := lenient.ParseCallback(zaloPayCallback(t, "anything", 1))
		require.NoError(t, err)
		assert.True(t, out.Success)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := gw.ParseCallback(CallbackPayload{Body: []byte(`not json`)})
		assert.ErrorIs(t, err, ErrMalformedCallback)

		_, err = gw.ParseCallback(CallbackPayload{Body: []byte(`{"status":1}`)})
		assert.ErrorIs(t, err, ErrMalformedCallback)
	})
}

func TestStringifyField(t *testing.T) {
	assert.Equal(t, "230000", stringifyField(float64(230000)))
	assert.Equal(t, "1.5", stringifyField(1.5))
	assert.Equal(t, "true", stringifyField(true))
	assert.Equal(t, "", stringifyField(nil))
	assert.Equal(t, `{"a":1}`, stringifyField(map[string]int{"a": 1}))
}

func TestManualMethods(t *testing.T) {
	req := InitiateRequest{
		Payment: &Payment{ID: "p-1", Amount: 100000},
		Now:     time.UnixMilli(1710496800000),
	}

	cod, err := NewCOD().Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, cod.Status)
	assert.Empty(t, cod.TransactionID)

	bt, err := NewBankTransfer(testBank).Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, bt.Status)
	assert.Equal(t, "BT1710496800000", bt.TransactionID)
	assert.Equal(t, "TACOLI p-1", bt.BankInfo.TransferContent)

	_, err = NewCOD().ParseCallback(CallbackPayload{})
	assert.ErrorIs(t, err, ErrUnsupportedGateway)
	_, err = NewBankTransfer(testBank).ParseCallback(CallbackPayload{})
	assert.ErrorIs(t, err, ErrUnsupportedGateway)
}
