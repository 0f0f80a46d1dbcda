package handler

import (
	"encoding/json"
	"net/http"

	"bikerental/internal/bookings/service"
	apperrors "bikerental/pkg/errors"
	httputil "bikerental/pkg/http"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	callerID, err := httputil.CallerID(r)
	if err != nil {
		h.writeErr(w, "Create", err)
		return
	}

	var req model.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "Create", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	booking, err := h.service.Create(r.Context(), callerID, &req)
	if err != nil {
		h.writeErr(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "GetByID", err)
		return
	}

	if err := h.requireOwnerOrAdmin(r, booking); err != nil {
		h.writeErr(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *BookingHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	callerID, err := httputil.CallerID(r)
	if err != nil {
		h.writeErr(w, "GetMine", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "GetMine", err)
		return
	}

	bookings, total, err := h.service.GetByUser(r.Context(), callerID, limit, offset)
	if err != nil {
		h.writeErr(w, "GetMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetMine", "error", err)
	}
}

func (h *BookingHandler) StartRide(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "StartRide", err)
		return
	}

	booking, err := h.service.StartRide(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "StartRide", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "StartRide", "error", err)
	}
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "Complete", err)
		return
	}

	booking, err := h.service.Complete(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	existing, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "Cancel", err)
		return
	}
	if err := h.requireOwnerOrAdmin(r, existing); err != nil {
		h.writeErr(w, "Cancel", err)
		return
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

// requireOwnerOrAdmin allows the booking's owner and admins through.
func (h *BookingHandler) requireOwnerOrAdmin(r *http.Request, booking *model.Booking) error {
	if httputil.RequireRole(r, string(model.RoleAdmin)) == nil {
		return nil
	}
	callerID, err := httputil.CallerID(r)
	if err != nil {
		return err
	}
	if callerID != booking.UserID {
		return apperrors.Forbidden("caller does not own this booking")
	}
	return nil
}

func (h *BookingHandler) writeErr(w http.ResponseWriter, handlerFunc string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerFunc, "error", writeErr)
	}
}

func (h *BookingHandler) writeJSON(w http.ResponseWriter, handlerFunc string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerFunc, "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/me", h.GetMine)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/start", h.StartRide)
	router.POST("/api/v1/bookings/id/:id/complete", h.Complete)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
}
