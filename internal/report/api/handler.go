package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ms-ledger/internal/logger"
	"ms-ledger/internal/models"
	"ms-ledger/internal/report"
	"ms-ledger/internal/utils"
)

// Handler serves the read-only reporting endpoints.
type Handler struct {
	Service *report.Service
	Live    *report.LiveTracker
	Logger  *logger.Logger
}

func NewHandler(service *report.Service, live *report.LiveTracker, log *logger.Logger) *Handler {
	return &Handler{Service: service, Live: live, Logger: log}
}

// RegisterRoutes registers the reporting routes on a gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	reports := r.Group("/reports")
	{
		reports.GET("/events", h.ListEventReports)
		reports.GET("/events/:eventId", h.GetEventReport)
		reports.GET("/events/:eventId/daily", h.GetDailyIssuance)
		reports.GET("/live/:eventId", h.GetLiveCounters)
	}
}

func (h *Handler) ListEventReports(c *gin.Context) {
	reports, err := h.Service.ListEventReports(c.Request.Context())
	if err != nil {
		h.Logger.Error("REPORT", "Failed to list event reports: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list reports", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Event reports", reports))
}

func (h *Handler) GetEventReport(c *gin.Context) {
	eventID := c.Param("eventId")
	rep, err := h.Service.GetEventReport(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, models.ErrUnknownEvent) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Unknown event", err.Error()))
			return
		}
		h.Logger.Error("REPORT", "Failed to build event report: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to build report", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Event report", rep))
}

func (h *Handler) GetDailyIssuance(c *gin.Context) {
	eventID := c.Param("eventId")
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	daily, err := h.Service.GetDailyIssuance(c.Request.Context(), eventID, days)
	if err != nil {
		h.Logger.Error("REPORT", "Failed to get daily issuance: "+err.Error())
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to get daily issuance", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Daily issuance", daily))
}

// GetLiveCounters serves the kafka-fed advisory counters for fast polling.
func (h *Handler) GetLiveCounters(c *gin.Context) {
	eventID := c.Param("eventId")
	c.JSON(http.StatusOK, utils.SuccessResponse("Live counters", h.Live.Snapshot(eventID)))
}
