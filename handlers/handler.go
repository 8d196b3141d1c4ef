// Package handlers exposes the planner over HTTP.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wanderplan/config"
	"wanderplan/database"
	"wanderplan/planner"
	"wanderplan/services"
)

// PlanStore persists saved plans.
type PlanStore interface {
	SavePlan(ctx context.Context, ownerID, title string, doc any, total float64) (string, error)
	GetPlan(ctx context.Context, id string) (*database.SavedPlan, error)
}

type Notifier interface {
	Notify(ctx context.Context, n services.Notification) error
}

type Identity interface {
	CurrentUser(ctx context.Context, token string) (*services.User, error)
}

type Narrator interface {
	Narrate(ctx context.Context, it *planner.GeneratedItinerary) string
}

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires a Handler. Catalog, Plans, Narrator and Checks may be nil.
type Deps struct {
	Builder    *planner.Builder
	Packages   *planner.PackageGenerator
	Catalog    planner.Catalog
	Plans      PlanStore
	Notifier   Notifier
	Identity   Identity
	Narrator   Narrator
	Metrics    *Metrics
	Logger     *zap.Logger
	SessionTTL time.Duration
	Checks     map[string]Pinger

	// NarrativeTimeout bounds the narrator call on generation; the narrator
	// falls back to its fixed text when it expires.
	NarrativeTimeout time.Duration
}

const defaultNarrativeTimeout = 5 * time.Second

type Handler struct {
	Deps
	sessions *SessionStore
}

func New(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = services.NewLogNotifier(d.Logger)
	}
	if d.Identity == nil {
		d.Identity = services.NewIdentityClient(config.IdentityConfig{}, d.Logger)
	}
	if d.NarrativeTimeout <= 0 {
		d.NarrativeTimeout = defaultNarrativeTimeout
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	return &Handler{Deps: d, sessions: NewSessionStore(d.SessionTTL)}
}

// Sessions exposes the session store so the caller can run its sweeper.
func (h *Handler) Sessions() *SessionStore {
	return h.sessions
}

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.Use(h.Metrics.Middleware())
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)

		api.POST("/itineraries", h.CreateItinerary)
		api.GET("/itineraries/:id", h.GetItinerary)
		api.POST("/itineraries/:id/budget", h.ApplyBudget)
		api.POST("/itineraries/:id/reset", h.ResetItinerary)
		api.POST("/itineraries/:id/save", h.SaveItinerary)

		api.POST("/packages", h.BuildPackage)
		api.POST("/packages/pdf", h.PackagePDF)

		api.GET("/plans/:id/pdf", h.PlanPDF)
	}
}

// abort maps an error to a status code and the {"error": ...} body.
func (h *Handler) abort(c *gin.Context, op string, err error) {
	var verr *planner.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, planner.ErrNoPlan):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("op", op), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
