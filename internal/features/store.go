// Package features implements the domain-scoped feature store on MongoDB.
package features

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection holds one feature document per domain.
const Collection = "features"

// MongoStore reads and writes domain feature sets.
type MongoStore struct {
	col *mongo.Collection
}

// NewMongoStore creates a MongoStore on db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection(Collection)}
}

// EnsureIndexes creates the unique domain_id index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "domain_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.col.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create index on %s: %w", Collection, err)
	}
	return nil
}

// FindFeaturesForDomain returns the feature set of domainID.
// A domain without a document yields (nil, nil).
func (s *MongoStore) FindFeaturesForDomain(ctx context.Context, domainID uuid.UUID) (*Features, error) {
	var f Features
	err := s.col.FindOne(ctx, bson.D{{Key: "domain_id", Value: domainID.String()}}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find features for domain %s: %w", domainID, err)
	}
	return &f, nil
}

// Save replaces the feature set of f.DomainID, creating it when absent.
func (s *MongoStore) Save(ctx context.Context, f *Features) error {
	if f.DomainID == "" {
		return errors.New("save features: domain id is required")
	}
	f.UpdatedAt = time.Now().UTC()
	_, err := s.col.ReplaceOne(ctx,
		bson.D{{Key: "domain_id", Value: f.DomainID}},
		f,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save features: %w", err)
	}
	return nil
}
