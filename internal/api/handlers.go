package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"imoveisdf/server/internal/agent"
	"imoveisdf/server/internal/database"
	"imoveisdf/server/internal/geocoding"
	"imoveisdf/server/internal/whatsapp"
)

type Handler struct {
	logger   *logrus.Logger
	agent    *agent.Service
	geocoder agent.PostalResolver
	db       *database.Database
}

func NewHandler(logger *logrus.Logger, agentService *agent.Service, geocoder agent.PostalResolver, db *database.Database) *Handler {
	return &Handler{
		logger:   logger,
		agent:    agentService,
		geocoder: geocoder,
		db:       db,
	}
}

type matchLeadsRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
}

// MatchLeads triggers the property-to-leads matching and notification run.
func (h *Handler) MatchLeads(c *gin.Context) {
	var req matchLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
		return
	}

	report, err := h.agent.MatchPropertyToLeads(c.Request.Context(), req.PropertyID)
	if err != nil {
		h.respondError(c, err, report)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

type updatePriceRequest struct {
	NewPrice int `json:"new_price" binding:"required"`
}

// UpdatePrice changes a listing's price and, on a reduction, notifies the
// watchers who opted in.
func (h *Handler) UpdatePrice(c *gin.Context) {
	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_price is required"})
		return
	}

	report, err := h.agent.UpdatePrice(c.Request.Context(), c.Param("id"), req.NewPrice)
	if err != nil {
		if errors.Is(err, agent.ErrInvalidPrice) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.respondError(c, err, report)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// SuggestLeadProperties sends a lost lead a digest of compatible listings.
func (h *Handler) SuggestLeadProperties(c *gin.Context) {
	report, err := h.agent.MatchLeadToProperties(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, report)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// ResolvePostalCode geocodes one postal code through the cached chain.
func (h *Handler) ResolvePostalCode(c *gin.Context) {
	result, err := h.geocoder.Resolve(c.Request.Context(), c.Param("cep"))
	if err != nil {
		switch {
		case errors.Is(err, geocoding.ErrInvalidPostalCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, geocoding.ErrAddressNotFound), errors.Is(err, geocoding.ErrNoCoordinates):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Postal code resolution failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// RecentMessages feeds the admin monitoring view of the outbound log.
func (h *Handler) RecentMessages(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	messages, err := h.db.RecentMessages(limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load message log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// BackfillCoordinates geocodes every listing still missing a position.
func (h *Handler) BackfillCoordinates(c *gin.Context) {
	report, err := h.agent.BackfillCoordinates(c.Request.Context())
	if err != nil {
		h.respondError(c, err, report)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "report": report})
}

// respondError maps the core error taxonomy onto HTTP statuses. A partial
// report, when present, rides along so the caller sees what did happen.
func (h *Handler) respondError(c *gin.Context, err error, report interface{}) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, whatsapp.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "report": report})
	default:
		h.logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "report": report})
	}
}
