// Package database holds the relational catalog (destinations and their
// sample packages) and the stores that persist saved plans.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"wanderplan/config"
	"wanderplan/planner"
)

// ErrNotFound is returned when a saved plan does not exist.
var ErrNotFound = errors.New("not found")

// PackagesPerDestination caps how many sample packages are attached to each
// catalog entry.
const PackagesPerDestination = 10

// SavedPlan is a persisted plan document. Document is opaque JSON.
type SavedPlan struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Title      string          `json:"title"`
	Document   json.RawMessage `json:"document"`
	TotalPrice float64         `json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Postgres serves the destination catalog and stores saved plans.
type Postgres struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgres wraps an existing connection pool.
func NewPostgres(db *sql.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, logger: logger}
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// OpenPostgres connects, waits for the server to accept connections and
// applies migrations.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	p := NewPostgres(db, logger)

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		p.logger.Info("waiting for database",
			zap.String("op", "database.OpenPostgres"),
			zap.Int("attempt", i+1),
			zap.Int("of", attempts),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database after %d attempts: %w", attempts, err)
	}

	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	p.logger.Info("database connected and migrated", zap.String("op", "database.OpenPostgres"))
	return p, nil
}

// BuildDSN prefers a full connection URL and falls back to discrete fields.
func BuildDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS destinations (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		nightly_base_price NUMERIC(12,2),
		highlights         TEXT[] NOT NULL DEFAULT '{}',
		created_at         TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS packages (
		id             TEXT PRIMARY KEY,
		destination_id TEXT NOT NULL REFERENCES destinations(id),
		name           TEXT NOT NULL,
		duration_days  INTEGER NOT NULL,
		total_price    NUMERIC(12,2) NOT NULL,
		activities     TEXT[] NOT NULL DEFAULT '{}',
		created_at     TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS plans (
		id          TEXT PRIMARY KEY,
		owner_id    TEXT NOT NULL,
		title       TEXT NOT NULL,
		document    JSONB NOT NULL,
		total_price NUMERIC(12,2) NOT NULL,
		created_at  TIMESTAMPTZ DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_destinations_lower_name
		ON destinations(lower(name))`,

	`CREATE INDEX IF NOT EXISTS idx_packages_destination_id
		ON packages(destination_id)`,

	`CREATE INDEX IF NOT EXISTS idx_plans_owner_id
		ON plans(owner_id, created_at DESC)`,
}

func (p *Postgres) Migrate(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := p.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

// LookupDestinations returns catalog rows whose name matches any of names
// ignoring case; the planner decides whether casing has to agree. Each entry
// carries up to PackagesPerDestination related packages.
func (p *Postgres) LookupDestinations(ctx context.Context, names []string) ([]planner.CatalogEntry, error) {
	if len(names) == 0 {
		return nil, nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = strings.ToLower(strings.TrimSpace(n))
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, nightly_base_price, highlights
		FROM destinations WHERE lower(name) = ANY($1)
		ORDER BY created_at, id`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer rows.Close()

	var entries []planner.CatalogEntry
	for rows.Next() {
		var (
			e       planner.CatalogEntry
			nightly sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.Name, &nightly, pq.Array(&e.Highlights)); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		if nightly.Valid {
			v := nightly.Float64
			e.NightlyBasePrice = &v
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}

	for i := range entries {
		pkgs, err := p.LookupPackagesForDestination(ctx, entries[i].ID, PackagesPerDestination)
		if err != nil {
			return nil, err
		}
		entries[i].RelatedPackages = pkgs
	}
	return entries, nil
}

func (p *Postgres) LookupPackagesForDestination(ctx context.Context, destinationID string, limit int) ([]planner.CatalogPackage, error) {
	if limit <= 0 {
		limit = PackagesPerDestination
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, duration_days, total_price, activities
		FROM packages WHERE destination_id = $1
		ORDER BY created_at, id LIMIT $2`, destinationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query packages for %s: %w", destinationID, err)
	}
	defer rows.Close()

	var pkgs []planner.CatalogPackage
	for rows.Next() {
		var pk planner.CatalogPackage
		if err := rows.Scan(&pk.ID, &pk.Name, &pk.DurationDays, &pk.TotalPrice, pq.Array(&pk.Activities)); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		pkgs = append(pkgs, pk)
	}
	return pkgs, rows.Err()
}

// ─── Plans ────────────────────────────────────────────────────────────────────

func (p *Postgres) SavePlan(ctx context.Context, ownerID, title string, doc any, total float64) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode plan document: %w", err)
	}
	id := uuid.New().String()
	if _, err := p.db.ExecContext(ctx, `
		INSERT INTO plans (id, owner_id, title, document, total_price)
		VALUES ($1, $2, $3, $4, $5)`,
		id, ownerID, title, body, total); err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}
	return id, nil
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (*SavedPlan, error) {
	sp := &SavedPlan{}
	var doc []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, document, total_price, created_at
		FROM plans WHERE id = $1`, id).
		Scan(&sp.ID, &sp.OwnerID, &sp.Title, &doc, &sp.TotalPrice, &sp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	sp.Document = doc
	return sp, nil
}
