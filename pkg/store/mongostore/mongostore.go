// Package mongostore keeps one ledger document per user in MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yurifrl/vizbuck/pkg/models"
	"github.com/yurifrl/vizbuck/pkg/store"
)

type document struct {
	UserID       string               `bson:"_id"`
	Transactions []models.Transaction `bson:"transactions"`
	Assets       []models.Asset       `bson:"assets"`
}

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	userID     string
}

var _ store.Store = (*Store)(nil)

// New connects and pings the server before returning.
func New(ctx context.Context, uri, dbName, collName, userID string) (*Store, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Store{
		client:     client,
		collection: client.Database(dbName).Collection(collName),
		userID:     userID,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Load(ctx context.Context) (models.Ledger, error) {
	var doc document
	err := s.collection.FindOne(ctx, bson.M{"_id": s.userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Ledger{}, nil
	}
	if err != nil {
		return models.Ledger{}, fmt.Errorf("failed to load ledger: %w", err)
	}
	return models.Ledger{Transactions: doc.Transactions, Assets: doc.Assets}, nil
}

// Save replaces both lists in one update so the document never holds a
// half-written import.
func (s *Store) Save(ctx context.Context, ledger models.Ledger) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": s.userID},
		bson.M{"$set": setFields(ledger)},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

func setFields(ledger models.Ledger) bson.M {
	txns := ledger.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}
	assets := ledger.Assets
	if assets == nil {
		assets = []models.Asset{}
	}
	return bson.M{"transactions": txns, "assets": assets}
}
