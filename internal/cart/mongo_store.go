package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDocuments stores one cart document per user in a MongoDB collection.
type MongoDocuments struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoDocuments builds a document store over the given collection.
func NewMongoDocuments(collection *mongo.Collection) *MongoDocuments {
	return &MongoDocuments{collection: collection, now: time.Now}
}

func (m *MongoDocuments) Read(ctx context.Context, userID string) (*Document, error) {
	var doc Document
	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if doc.Items == nil {
		doc.Items = []LineItem{}
	}
	return &doc, nil
}

// Create inserts the document only if none exists yet, so a concurrent creator
// never has its items replaced.
func (m *MongoDocuments) Create(ctx context.Context, userID string, doc *Document) error {
	now := m.now()
	items := doc.Items
	if items == nil {
		items = []LineItem{}
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"items":      items,
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// Overwrite replaces the stored items wholesale, creating the document if needed.
func (m *MongoDocuments) Overwrite(ctx context.Context, userID string, doc *Document) error {
	now := m.now()
	items := doc.Items
	if items == nil {
		items = []LineItem{}
	}
	update := bson.M{
		"$set": bson.M{
			"items":      items,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := m.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return fmt.Errorf("failed to overwrite cart: %w", err)
	}
	return nil
}

// CreateIndexes ensures one document per user.
func (m *MongoDocuments) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_id_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
