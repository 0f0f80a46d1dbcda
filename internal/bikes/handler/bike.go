package handler

import (
	"encoding/json"
	"net/http"

	"bikerental/internal/bikes/service"
	httputil "bikerental/pkg/http"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BikeHandler struct {
	service service.BikeService
	log     *logger.Logger
}

func NewBikeHandler(service service.BikeService, log *logger.Logger) *BikeHandler {
	return &BikeHandler{
		service: service,
		log:     log,
	}
}

func (h *BikeHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "Create", err)
		return
	}

	var bike model.Bike
	if err := json.NewDecoder(r.Body).Decode(&bike); err != nil {
		h.writeJSON(w, "Create", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.Create(r.Context(), &bike); err != nil {
		h.writeErr(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, bike); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BikeHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bike, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, bike); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BikeHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	bikes, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bikes, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *BikeHandler) GetAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "GetAvailable", err)
		return
	}

	bikes, total, err := h.service.GetAvailable(r.Context(), limit, offset)
	if err != nil {
		h.writeErr(w, "GetAvailable", err)
		return
	}

	if err := httputil.WritePaginated(w, bikes, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAvailable", "error", err)
	}
}

func (h *BikeHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "Search", err)
		return
	}

	query := r.URL.Query()
	if term := query.Get("q"); term != "" {
		bikes, err := h.service.Search(r.Context(), term, limit, offset)
		if err != nil {
			h.writeErr(w, "Search", err)
			return
		}
		if err := httputil.WriteSuccess(w, bikes); err != nil {
			h.log.Error("failed to write success response", "handler", "Search", "error", err)
		}
		return
	}

	brand := query.Get("brand")
	if brand == "" {
		h.writeJSON(w, "Search", http.StatusBadRequest, httputil.ErrorResponse{
			Error: "One of 'q' or 'brand' query parameters is required",
		})
		return
	}

	bikes, err := h.service.FilterByBrand(r.Context(), brand, limit, offset)
	if err != nil {
		h.writeErr(w, "Search", err)
		return
	}
	if err := httputil.WriteSuccess(w, bikes); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "error", err)
	}
}

func (h *BikeHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "Update", err)
		return
	}

	var updates model.BikeUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeJSON(w, "Update", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	bike, err := h.service.Update(r.Context(), ps.ByName("id"), &updates)
	if err != nil {
		h.writeErr(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, bike); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BikeHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "Delete", err)
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeErr(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BikeHandler) SetUnavailable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "SetUnavailable", err)
		return
	}

	if err := h.service.SetUnavailable(r.Context(), ps.ByName("id")); err != nil {
		h.writeErr(w, "SetUnavailable", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BikeHandler) SetReady(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "SetReady", err)
		return
	}

	if err := h.service.SetReady(r.Context(), ps.ByName("id")); err != nil {
		h.writeErr(w, "SetReady", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BikeHandler) writeErr(w http.ResponseWriter, handlerFunc string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerFunc, "error", writeErr)
	}
}

func (h *BikeHandler) writeJSON(w http.ResponseWriter, handlerFunc string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerFunc, "error", err)
	}
}

func (h *BikeHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bikes", h.Create)
	router.GET("/api/v1/bikes", h.GetAll)
	router.GET("/api/v1/bikes/available", h.GetAvailable)
	router.GET("/api/v1/bikes/search", h.Search)
	router.GET("/api/v1/bikes/id/:id", h.GetByID)
	router.PATCH("/api/v1/bikes/id/:id", h.Update)
	router.DELETE("/api/v1/bikes/id/:id", h.Delete)
	router.POST("/api/v1/bikes/id/:id/unavailable", h.SetUnavailable)
	router.POST("/api/v1/bikes/id/:id/ready", h.SetReady)
}
