package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wanderplan/database"
	"wanderplan/services"
)

// PlanPDF renders a saved plan as a PDF attachment.
func (h *Handler) PlanPDF(c *gin.Context) {
	if h.Plans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plan storage is not configured"})
		return
	}
	plan, err := h.Plans.GetPlan(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if err != nil {
		h.Logger.Error("failed to load plan", zap.String("op", "handlers.PlanPDF"), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load plan"})
		return
	}

	var doc SavedDocument
	if err := json.Unmarshal(plan.Document, &doc); err != nil || doc.Itinerary == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Saved plan is unreadable"})
		return
	}

	pdfBytes, err := services.ItineraryPDF(services.ItineraryPDFData{
		TravellerName: doc.TravellerName,
		Itinerary:     doc.Itinerary,
		Narrative:     doc.Narrative,
	})
	if err != nil {
		h.Logger.Error("PDF generation failed", zap.String("op", "handlers.PlanPDF"), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=wanderplan-itinerary.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status":   "ok",
		"service":  "wanderplan",
		"sessions": h.sessions.Len(),
	}
	for name, p := range h.Checks {
		if p == nil {
			status[name] = "not initialized"
			status["status"] = "degraded"
			continue
		}
		if err := p.Ping(ctx); err != nil {
			status[name] = "error: " + err.Error()
			status["status"] = "degraded"
			continue
		}
		status[name] = "ok"
	}
	c.JSON(http.StatusOK, status)
}
