package payment

import (
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

const maxCallbackBody = 64 << 10

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreatePaymentInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.OrderID == "" || input.PaymentMethod == "" {
		utils.WriteJSONError(w, "orderId and paymentMethod are required", http.StatusBadRequest)
		return
	}

	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		input.UserID = &userID
	}
	input.ClientIP = clientIP(r)

	res, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "Payment created successfully", res)
}

// Callback always answers 200; the body tells the gateway what happened.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")

	payload, err := readCallback(r)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("failed to read callback",
			zap.String("gateway", gateway),
			zap.Error(err),
		)
		utils.WriteJSON(w, http.StatusOK, CallbackResult{Success: false, Message: "Invalid callback payload"})
		return
	}

	res := h.svc.HandleCallback(r.Context(), gateway, payload)
	utils.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !utils.IsAdmin(r.Context()) {
		userID, _ := utils.GetUserIDFromContext(r.Context())
		if p.UserID == nil || *p.UserID != userID {
			utils.WriteError(w, ErrPaymentNotFound)
			return
		}
	}

	utils.WriteSuccess(w, http.StatusOK, "", p)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if r.ContentLength != 0 {
		if err := utils.DecodeJSON(r, &req); err != nil {
			utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	adminID, _ := utils.GetUserIDFromContext(r.Context())

	p, err := h.svc.Refund(r.Context(), chi.URLParam(r, "id"), req.Reason, adminID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "Payment refunded successfully", p)
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start, err := parseDateParam(r, "startDate")
	if err != nil {
		utils.WriteJSONError(w, "Invalid startDate", http.StatusBadRequest)
		return
	}
	end, err := parseDateParam(r, "endDate")
	if err != nil {
		utils.WriteJSONError(w, "Invalid endDate", http.StatusBadRequest)
		return
	}

	stats, err := h.svc.Stats(r.Context(), start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, "", stats)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("payment request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.WriteError(w, err)
}

// readCallback collects query parameters, form fields and, for non-form
// bodies, the raw body.
func readCallback(r *http.Request) (CallbackPayload, error) {
	payload := CallbackPayload{Params: map[string]string{}}

	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			payload.Params[k] = v[0]
		}
	}

	if r.Body == nil || r.Method == http.MethodGet {
		return payload, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
	if err != nil {
		return payload, err
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return payload, err
		}
		for k, v := range form {
			if len(v) > 0 {
				payload.Params[k] = v[0]
			}
		}
		return payload, nil
	}

	payload.Body = body
	return payload, nil
}

func parseDateParam(r *http.Request, key string) (*time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.BadRequest("invalid date " + key)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
