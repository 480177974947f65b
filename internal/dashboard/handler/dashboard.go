package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"medbook/internal/dashboard/service"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

func (h *DashboardHandler) Appointments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	scope, err := httputil.ExtractScope(r)
	if err != nil {
		h.writeError(w, "Appointments", err)
		return
	}

	schedule, err := h.service.Appointments(r.Context(), ps.ByName("id"), scope)
	if err != nil {
		h.writeError(w, "Appointments", err)
		return
	}

	if err := httputil.WriteSuccess(w, schedule); err != nil {
		h.log.Error("failed to write success response", "handler", "Appointments", "error", err)
	}
}

func (h *DashboardHandler) Revenue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	scope, err := httputil.ExtractScope(r)
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}

	revenue, err := h.service.Revenue(r.Context(), ps.ByName("id"), scope)
	if err != nil {
		h.writeError(w, "Revenue", err)
		return
	}

	if err := httputil.WriteSuccess(w, revenue); err != nil {
		h.log.Error("failed to write success response", "handler", "Revenue", "error", err)
	}
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	overview, err := h.service.AdminOverview(r.Context())
	if err != nil {
		h.writeError(w, "Overview", err)
		return
	}

	if err := httputil.WriteSuccess(w, overview); err != nil {
		h.log.Error("failed to write success response", "handler", "Overview", "error", err)
	}
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors/:id/appointments", h.Appointments)
	router.GET("/api/v1/doctors/:id/revenue", h.Revenue)
	router.GET("/api/v1/admin/overview", h.Overview)
}
