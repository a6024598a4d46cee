package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ledger/internal/catalog"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
	"ms-ledger/internal/utils"
)

type Handler struct {
	CatalogService *catalog.CatalogService
	Logger         *logger.Logger
}

func NewHandler(service *catalog.CatalogService, log *logger.Logger) *Handler {
	return &Handler{CatalogService: service, Logger: log}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in catalog.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.CatalogService.CreateEvent(r.Context(), in)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Failed to create event", err.Error()))
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Event created", event))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.CatalogService.ListEvents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to list events", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Events", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	event, err := h.CatalogService.GetEvent(r.Context(), eventID)
	if err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Failed to get event", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Event", event))
}

func (h *Handler) GetTierAvailability(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	tier := chi.URLParam(r, "tier")

	capacity, err := h.CatalogService.GetTierCapacity(r.Context(), eventID, tier)
	if err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Failed to get tier", err.Error()))
		return
	}
	available, err := h.CatalogService.GetAvailableSeats(r.Context(), eventID, tier)
	if err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Failed to get availability", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Tier availability", map[string]interface{}{
		"event_id":  eventID,
		"tier":      tier,
		"capacity":  capacity,
		"available": available,
	}))
}

func (h *Handler) UpdateTierPrice(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	tier := chi.URLParam(r, "tier")

	var body struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.CatalogService.UpdateTierPrice(r.Context(), eventID, tier, body.Price); err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Failed to update price", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Price updated", nil))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	if err := h.CatalogService.DeleteEvent(r.Context(), eventID); err != nil {
		status := statusFor(err)
		if errors.Is(err, models.ErrEventHasTickets) {
			status = http.StatusConflict
		}
		writeJSON(w, status, utils.ErrorResponse("Failed to delete event", err.Error()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownEvent), errors.Is(err, models.ErrUnknownTier):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
