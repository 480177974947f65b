package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"medbook/internal/availability/service"
	apperrors "medbook/pkg/errors"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Replace(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctorID := ps.ByName("id")

	var spec model.Availability
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.writeError(w, "Replace", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.ReplaceSpec(r.Context(), doctorID, &spec); err != nil {
		h.writeError(w, "Replace", err)
		return
	}

	if err := httputil.WriteSuccess(w, spec); err != nil {
		h.log.Error("failed to write success response", "handler", "Replace", "error", err)
	}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	spec, err := h.service.GetByDoctor(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, spec); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "error", err)
	}
}

func (h *AvailabilityHandler) Slots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))

	if from == "" || to == "" {
		h.writeError(w, "Slots", apperrors.InvalidInput("'from' and 'to' query parameters are required"))
		return
	}

	slots, err := h.service.GenerateSlots(r.Context(), ps.ByName("id"), from, to)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	if slots == nil {
		slots = []*model.Slot{}
	}
	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "Slots", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.PUT("/api/v1/doctors/:id/availability", h.Replace)
	router.GET("/api/v1/doctors/:id/availability", h.Get)
	router.GET("/api/v1/doctors/:id/slots", h.Slots)
}
