package handler

import (
	"encoding/json"
	"net/http"

	"bikerental/internal/users/service"
	httputil "bikerental/pkg/http"
	"bikerental/pkg/logger"
	"bikerental/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var user model.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		h.writeJSON(w, "Register", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	// Role escalation is an admin action, not a registration field.
	if user.Role != "" && user.Role != model.RoleUser {
		if err := httputil.RequireRole(r, string(model.RoleAdmin)); err != nil {
			h.writeErr(w, "Register", err)
			return
		}
	}

	if err := h.service.Register(r.Context(), &user); err != nil {
		h.writeErr(w, "Register", err)
		return
	}

	if err := httputil.WriteCreated(w, user); err != nil {
		h.log.Error("failed to write created response", "handler", "Register", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeErr(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *UserHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleAdmin), string(model.RoleVerifier)); err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	users, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeErr(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, users, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

type verificationRequest struct {
	Status model.VerificationStatus `json:"status"`
}

func (h *UserHandler) SetVerificationStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleVerifier), string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "SetVerificationStatus", err)
		return
	}

	var req verificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, "SetVerificationStatus", http.StatusBadRequest, httputil.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.SetVerificationStatus(r.Context(), ps.ByName("id"), req.Status); err != nil {
		h.writeErr(w, "SetVerificationStatus", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) GrantOneTimePhysical(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := httputil.RequireRole(r, string(model.RoleVerifier), string(model.RoleAdmin)); err != nil {
		h.writeErr(w, "GrantOneTimePhysical", err)
		return
	}

	if err := h.service.GrantOneTimePhysical(r.Context(), ps.ByName("id")); err != nil {
		h.writeErr(w, "GrantOneTimePhysical", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UserHandler) writeErr(w http.ResponseWriter, handlerFunc string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerFunc, "error", writeErr)
	}
}

func (h *UserHandler) writeJSON(w http.ResponseWriter, handlerFunc string, status int, body any) {
	if err := httputil.WriteJSON(w, status, body); err != nil {
		h.log.Error("failed to write JSON response", "handler", handlerFunc, "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/users", h.Register)
	router.GET("/api/v1/users", h.GetAll)
	router.GET("/api/v1/users/id/:id", h.GetByID)
	router.POST("/api/v1/users/id/:id/verification", h.SetVerificationStatus)
	router.POST("/api/v1/users/id/:id/one-time-physical", h.GrantOneTimePhysical)
}
