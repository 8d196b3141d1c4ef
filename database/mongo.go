package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"wanderplan/config"
)

// MongoPlans stores saved plans as documents in a MongoDB collection.
type MongoPlans struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type planDocument struct {
	ID         string    `bson:"_id"`
	OwnerID    string    `bson:"owner_id"`
	Title      string    `bson:"title"`
	Document   string    `bson:"document"`
	TotalPrice float64   `bson:"total_price"`
	CreatedAt  time.Time `bson:"created_at"`
}

// OpenMongoPlans connects to MongoDB and returns the plan collection.
func OpenMongoPlans(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*MongoPlans, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	if logger != nil {
		logger.Info("mongo connected",
			zap.String("op", "database.OpenMongoPlans"),
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection),
		)
	}
	return &MongoPlans{
		client: client,
		coll:   client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
	}, nil
}

// NewMongoPlans wraps an existing collection.
func NewMongoPlans(coll *mongo.Collection) *MongoPlans {
	return &MongoPlans{coll: coll}
}

func (m *MongoPlans) SavePlan(ctx context.Context, ownerID, title string, doc any, total float64) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode plan document: %w", err)
	}
	rec := planDocument{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Title:      title,
		Document:   string(body),
		TotalPrice: total,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := m.coll.InsertOne(ctx, rec); err != nil {
		return "", fmt.Errorf("insert plan: %w", err)
	}
	return rec.ID, nil
}

func (m *MongoPlans) GetPlan(ctx context.Context, id string) (*SavedPlan, error) {
	var rec planDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", id, err)
	}
	return &SavedPlan{
		ID:         rec.ID,
		OwnerID:    rec.OwnerID,
		Title:      rec.Title,
		Document:   json.RawMessage(rec.Document),
		TotalPrice: rec.TotalPrice,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

func (m *MongoPlans) Ping(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Ping(ctx, nil)
}

func (m *MongoPlans) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(context.Background())
}
