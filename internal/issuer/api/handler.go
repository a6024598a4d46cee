package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ledger/internal/issuer"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
	"ms-ledger/internal/utils"
)

type Handler struct {
	IssuerService *issuer.IssuerService
	Logger        *logger.Logger
}

func NewHandler(service *issuer.IssuerService, log *logger.Logger) *Handler {
	return &Handler{IssuerService: service, Logger: log}
}

type issueRequest struct {
	EventID string            `json:"event_id"`
	Tier    string            `json:"tier"`
	Holder  models.HolderInfo `json:"holder"`
}

// IssueTicket is the booking UI entry point. A full tier comes back as 409 so
// the UI can offer alternate tiers.
func (h *Handler) IssueTicket(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.EventID == "" || req.Tier == "" {
		http.Error(w, "event_id and tier are required", http.StatusBadRequest)
		return
	}

	ticket, err := h.IssuerService.IssueTicket(r.Context(), req.EventID, req.Tier, req.Holder)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCapacityExceeded):
			writeJSON(w, http.StatusConflict, utils.OutcomeResponse(false, "capacity_exceeded", "Tier is sold out", nil))
		case errors.Is(err, models.ErrUnknownEvent), errors.Is(err, models.ErrUnknownTier):
			writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Failed to issue ticket", err.Error()))
		default:
			writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to issue ticket", err.Error()))
		}
		return
	}

	payload, err := h.IssuerService.GenerateQRPayload(*ticket)
	if err != nil {
		h.Logger.Warn("TICKET", "QR payload generation failed: "+err.Error())
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Ticket issued", map[string]interface{}{
		"ticket":     ticket,
		"qr_payload": payload,
	}))
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	ticket, err := h.IssuerService.GetTicket(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Ticket not found", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Ticket", ticket))
}

// TicketQR serves the ticket's QR code as a PNG.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	png, err := h.IssuerService.TicketQRImage(r.Context(), ticketID)
	if err != nil {
		writeJSON(w, statusFor(err), utils.ErrorResponse("Failed to render QR", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) ListTicketsByEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	tickets, err := h.IssuerService.ListTicketsByEvent(r.Context(), eventID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch tickets", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Tickets", tickets))
}

func (h *Handler) ListTicketsByHolder(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email query parameter is required", http.StatusBadRequest)
		return
	}
	tickets, err := h.IssuerService.ListTicketsByHolder(r.Context(), email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to fetch tickets", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Tickets", tickets))
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrTicketNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
