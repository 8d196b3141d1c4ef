package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"wanderplan/config"
)

// EventPlanSaved is published after a plan has been persisted.
const EventPlanSaved = "plan.saved"

// Notification is addressed to OwnerID; Data carries event-specific fields.
type Notification struct {
	Type       string         `json:"type"`
	OwnerID    string         `json:"owner_id"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	PlanID     string         `json:"plan_id,omitempty"`
	TotalPrice float64        `json:"total_price,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	At         time.Time      `json:"at"`
}

// ─── NATS ─────────────────────────────────────────────────────────────────────

// NATSNotifier publishes notifications as JSON on a single subject.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNATSNotifier(cfg config.NATSConfig, logger *zap.Logger) (*NATSNotifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("wanderplan"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.String("op", "services.NATSNotifier"), zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("op", "services.NATSNotifier"), zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	logger.Info("nats connected", zap.String("op", "services.NewNATSNotifier"), zap.String("subject", cfg.Subject))
	return &NATSNotifier{nc: nc, subject: cfg.Subject, logger: logger}, nil
}

// Notify publishes note. Publish itself is not cancellable, so the context is
// only checked before sending.
func (n *NATSNotifier) Notify(ctx context.Context, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.nc.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

func (n *NATSNotifier) Close() {
	_ = n.nc.Drain()
	n.nc.Close()
}

// ─── Log only ─────────────────────────────────────────────────────────────────

// LogNotifier records notifications in the log when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, note Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.logger.Info("notification",
		zap.String("op", "services.LogNotifier"),
		zap.String("type", note.Type),
		zap.String("plan_id", note.PlanID),
		zap.String("owner_id", note.OwnerID),
		zap.Float64("total_price", note.TotalPrice),
	)
	return nil
}
