package handler

import (
	"encoding/json"
	"net/http"

	"bikerental/internal/payments/service"
	httputil "bikerental/pkg/http"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

type createOrderRequest struct {
	BookingID string `json:"booking_id"`
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "CreateOrder", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.CreateOrder(r.Context(), req.BookingID)
	if err != nil {
		h.writeErr(w, "CreateOrder", err)
		return
	}

	if err := httputil.WriteCreated(w, resp); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOrder", "error", err)
	}
}

func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Reconcile", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Reconcile(r.Context(), &req)
	if err != nil {
		h.writeErr(w, "Reconcile", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "Reconcile", "error", err)
	}
}

func (h *PaymentHandler) GetByOrderID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "GetByOrderID", err)
		return
	}

	intent, err := h.service.GetByOrderID(r.Context(), ps.ByName("orderId"))
	if err != nil {
		h.writeErr(w, "GetByOrderID", err)
		return
	}

	if err := httputil.WriteSuccess(w, intent); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByOrderID", "error", err)
	}
}

func (h *PaymentHandler) writeErr(w http.ResponseWriter, handlerFunc string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerFunc, "error", writeErr)
	}
}

func (h *PaymentHandler) writeJSON(w http.ResponseWriter, handlerFunc string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerFunc, "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments/orders", h.CreateOrder)
	router.POST("/api/v1/payments/reconcile", h.Reconcile)
	router.GET("/api/v1/payments/orders/id/:orderId", h.GetByOrderID)
}
