package mongo

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client wraps the MongoDB connection holding cart documents.
type Client struct {
	raw *mongo.Client
	db  *mongo.Database
	cfg config.MongoConfig
}

// New connects to MongoDB with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.MongoConfig, logg *logger.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	raw, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := raw.Ping(ctx, readpref.Primary()); err != nil {
		_ = raw.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "mongo_db", cfg.Database), "mongo connection established")
	}

	return &Client{raw: raw, db: raw.Database(cfg.Database), cfg: cfg}, nil
}

// CartCollection returns the collection configured for cart documents.
func (c *Client) CartCollection() *mongo.Collection {
	return c.db.Collection(c.cfg.CartCollection)
}

// Ping verifies the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.raw.Ping(ctx, readpref.Primary())
}

// Close disconnects the pooled client.
func (c *Client) Close(ctx context.Context) error {
	return c.raw.Disconnect(ctx)
}
