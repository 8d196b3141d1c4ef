package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wanderplan/planner"
	"wanderplan/services"
)

type ItineraryResponse struct {
	SessionID string                      `json:"session_id"`
	Itinerary *planner.GeneratedItinerary `json:"itinerary"`
	Narrative string                      `json:"narrative,omitempty"`
	LastFit   *planner.BudgetFitResult    `json:"last_fit,omitempty"`
}

type BudgetRequest struct {
	Budget float64 `json:"budget"`
}

type BudgetResponse struct {
	SessionID string `json:"session_id"`
	*planner.BudgetFitResult
}

type SaveRequest struct {
	TravellerName string `json:"traveller_name"`
}

type SaveResponse struct {
	PlanID string `json:"plan_id"`
	PDFURL string `json:"pdf_url"`
}

// SavedDocument is the body persisted for a saved plan.
type SavedDocument struct {
	TravellerName string                      `json:"traveller_name,omitempty"`
	Itinerary     *planner.GeneratedItinerary `json:"itinerary"`
	Narrative     string                      `json:"narrative,omitempty"`
	BudgetFit     *planner.BudgetFitResult    `json:"budget_fit,omitempty"`
}

func (h *Handler) CreateItinerary(c *gin.Context) {
	var req planner.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sess := planner.NewSession(h.Builder)
	it, err := sess.Generate(c.Request.Context(), req, h.Catalog)
	if err != nil {
		h.abort(c, "handlers.CreateItinerary", err)
		return
	}

	var narrative string
	if h.Narrator != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.NarrativeTimeout)
		narrative = h.Narrator.Narrate(ctx, it)
		cancel()
	}
	id := h.sessions.Add(sess, narrative)
	h.Metrics.itineraries.WithLabelValues(string(it.BudgetStatus), boolLabel(it.Degraded)).Inc()

	h.Logger.Info("itinerary generated",
		zap.String("op", "handlers.CreateItinerary"),
		zap.String("session_id", id),
		zap.Int("total_days", it.TotalDays),
		zap.Float64("grand_total", it.Totals.GrandTotal),
		zap.Bool("degraded", it.Degraded),
	)
	c.JSON(http.StatusCreated, ItineraryResponse{SessionID: id, Itinerary: it, Narrative: narrative})
}

func (h *Handler) GetItinerary(c *gin.Context) {
	id := c.Param("id")
	var resp ItineraryResponse
	err := h.sessions.With(id, func(e *sessionEntry) error {
		resp = ItineraryResponse{
			SessionID: id,
			Itinerary: e.session.Current(),
			Narrative: e.narrative,
			LastFit:   e.session.LastFit(),
		}
		return nil
	})
	if err != nil {
		h.abort(c, "handlers.GetItinerary", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ApplyBudget(c *gin.Context) {
	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id := c.Param("id")
	var res *planner.BudgetFitResult
	err := h.sessions.With(id, func(e *sessionEntry) error {
		var err error
		res, err = e.session.ApplyBudget(req.Budget)
		return err
	})
	if err != nil {
		h.abort(c, "handlers.ApplyBudget", err)
		return
	}

	outcome := "fits"
	switch {
	case res.Scaled && res.Fits:
		outcome = "scaled"
	case !res.Fits:
		outcome = "residual_overage"
	}
	h.Metrics.budgetFits.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, BudgetResponse{SessionID: id, BudgetFitResult: res})
}

func (h *Handler) ResetItinerary(c *gin.Context) {
	id := c.Param("id")
	var resp ItineraryResponse
	err := h.sessions.With(id, func(e *sessionEntry) error {
		it, err := e.session.Reset()
		if err != nil {
			return err
		}
		resp = ItineraryResponse{SessionID: id, Itinerary: it, Narrative: e.narrative}
		return nil
	})
	if err != nil {
		h.abort(c, "handlers.ResetItinerary", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveItinerary persists the working plan for the authenticated user. The
// session keeps the plan when storage fails so the caller can retry.
func (h *Handler) SaveItinerary(c *gin.Context) {
	user, err := h.Identity.CurrentUser(c.Request.Context(), services.BearerToken(c.GetHeader("Authorization")))
	if err != nil {
		h.abort(c, "handlers.SaveItinerary", err)
		return
	}

	var req SaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
			return
		}
	}

	var doc SavedDocument
	err = h.sessions.With(c.Param("id"), func(e *sessionEntry) error {
		doc = SavedDocument{
			TravellerName: req.TravellerName,
			Itinerary:     e.session.Current(),
			Narrative:     e.narrative,
			BudgetFit:     e.session.LastFit(),
		}
		if doc.Itinerary == nil {
			return planner.ErrNoPlan
		}
		return nil
	})
	if err != nil {
		h.abort(c, "handlers.SaveItinerary", err)
		return
	}
	// the fit result repeats the plan; keep the document to one copy
	if doc.BudgetFit != nil {
		fit := *doc.BudgetFit
		fit.Plan = nil
		doc.BudgetFit = &fit
	}

	if h.Plans == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "plan storage is not configured"})
		return
	}
	planID, err := h.Plans.SavePlan(c.Request.Context(), user.ID, doc.Itinerary.Title, doc, doc.Itinerary.Totals.GrandTotal)
	if err != nil {
		h.Logger.Error("failed to save plan",
			zap.String("op", "handlers.SaveItinerary"),
			zap.String("owner_id", user.ID),
			zap.Error(err),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to save plan"})
		return
	}

	pdfURL := "/api/plans/" + planID + "/pdf"
	h.notify(services.Notification{
		Type:       services.EventPlanSaved,
		OwnerID:    user.ID,
		Title:      "Plan saved",
		Message:    fmt.Sprintf("%s was saved with an estimated total of %.0f", doc.Itinerary.Title, doc.Itinerary.Totals.GrandTotal),
		PlanID:     planID,
		TotalPrice: doc.Itinerary.Totals.GrandTotal,
		Data:       map[string]any{"pdf_url": pdfURL, "budget_status": doc.Itinerary.BudgetStatus},
		At:         time.Now().UTC(),
	})

	c.JSON(http.StatusCreated, SaveResponse{PlanID: planID, PDFURL: pdfURL})
}

// notify delivers n in the background; failures are logged only.
func (h *Handler) notify(n services.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Notifier.Notify(ctx, n); err != nil {
			h.Metrics.notifyFailures.Inc()
			h.Logger.Warn("notification failed",
				zap.String("op", "handlers.notify"),
				zap.String("plan_id", n.PlanID),
				zap.Error(err),
			)
		}
	}()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
