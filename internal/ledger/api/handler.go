package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ledger/internal/auth"
	"ms-ledger/internal/issuer/qr"
	"ms-ledger/internal/ledger"
	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
	"ms-ledger/internal/utils"
)

type Handler struct {
	LedgerService *ledger.LedgerService
	QRGenerator   *qr.QRGenerator
	Logger        *logger.Logger
}

func NewHandler(service *ledger.LedgerService, qrGen *qr.QRGenerator, log *logger.Logger) *Handler {
	return &Handler{LedgerService: service, QRGenerator: qrGen, Logger: log}
}

type checkInRequest struct {
	TicketID    string `json:"ticket_id"`
	EncryptedQR string `json:"encrypted_qr"`
}

// CheckIn handles a scanner submission: either a raw ticket id (manual entry)
// or an encrypted QR payload. A duplicate scan is a distinct 409 outcome, not
// an overwrite and not a server error.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ticketID, err := h.resolveTicketID(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	operatorID := auth.OperatorIDFromContext(r.Context())
	if operatorID == "" {
		http.Error(w, "operator identity required", http.StatusUnauthorized)
		return
	}

	record, err := h.LedgerService.CheckIn(r.Context(), ticketID, operatorID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyCheckedIn):
			writeJSON(w, http.StatusConflict, utils.OutcomeResponse(false, "already_checked_in",
				"Ticket was already checked in", map[string]string{"ticket_id": ticketID}))
		case errors.Is(err, models.ErrTicketNotFound):
			writeJSON(w, http.StatusNotFound, utils.OutcomeResponse(false, "ticket_not_found",
				"No such ticket", map[string]string{"ticket_id": ticketID}))
		case errors.Is(err, models.ErrBusy):
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusServiceUnavailable, utils.OutcomeResponse(false, "busy",
				"Ticket is being processed, retry", map[string]string{"ticket_id": ticketID}))
		default:
			writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Check-in failed", err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, utils.OutcomeResponse(true, "checked_in", "Check-in successful", record))
}

func (h *Handler) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	ticketID, err := h.resolveTicketID(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	operatorID := auth.OperatorIDFromContext(r.Context())
	if operatorID == "" {
		http.Error(w, "operator identity required", http.StatusUnauthorized)
		return
	}

	if err := h.LedgerService.UndoCheckIn(r.Context(), ticketID, operatorID); err != nil {
		switch {
		case errors.Is(err, models.ErrTicketNotFound):
			writeJSON(w, http.StatusNotFound, utils.OutcomeResponse(false, "ticket_not_found",
				"No such ticket", map[string]string{"ticket_id": ticketID}))
		case errors.Is(err, models.ErrNotCheckedIn):
			writeJSON(w, http.StatusConflict, utils.OutcomeResponse(false, "not_checked_in",
				"Ticket is not checked in", map[string]string{"ticket_id": ticketID}))
		default:
			writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Undo failed", err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, utils.OutcomeResponse(true, "undone", "Check-in reversed", map[string]string{"ticket_id": ticketID}))
}

func (h *Handler) GetEventProgress(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	progress, err := h.LedgerService.GetEventProgress(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownEvent) {
			writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Unknown event", err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get progress", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Event progress", progress))
}

func (h *Handler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	trail, err := h.LedgerService.ListAuditTrail(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Ticket not found", err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to get audit trail", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Audit trail", trail))
}

// resolveTicketID handles the scanner's two submission modes.
func (h *Handler) resolveTicketID(req checkInRequest) (string, error) {
	if req.TicketID != "" {
		return req.TicketID, nil
	}
	if req.EncryptedQR == "" {
		return "", errors.New("ticket_id or encrypted_qr is required")
	}
	payload, err := h.QRGenerator.DecodePayload(req.EncryptedQR)
	if err != nil {
		return "", errors.New("invalid QR code: " + err.Error())
	}
	return payload.TicketID, nil
}

func writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
