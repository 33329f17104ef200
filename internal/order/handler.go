package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/apperr"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/utils"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateOrderInput
	if err := utils.DecodeJSON(r, &input); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		input.UserID = &userID
	}

	o, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, "Order created successfully", o)
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Track(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", t)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

func (h *Handler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	o, err := h.svc.GetForUser(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

type updateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Order status updated successfully", nil)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.HTTPStatus(err) >= http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("order request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	utils.WriteError(w, err)
}
