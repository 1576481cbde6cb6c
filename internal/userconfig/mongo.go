package userconfig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection holds the configuration documents.
const Collection = "configurations"

type document struct {
	DomainID  string    `bson:"domain_id,omitempty"`
	UserID    string    `bson:"user_id,omitempty"`
	Modules   []Module  `bson:"modules"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend stores configuration documents in MongoDB.
type MongoBackend struct {
	col *mongo.Collection
}

// NewMongoBackend creates a MongoBackend on db.
func NewMongoBackend(db *mongo.Database) *MongoBackend {
	return &MongoBackend{col: db.Collection(Collection)}
}

// EnsureIndexes creates the lookup indexes for both scopes.
func (b *MongoBackend) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "domain_id", Value: 1}}},
	}
	if _, err := b.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", Collection, err)
	}
	return nil
}

// Lookup implements Backend.
func (b *MongoBackend) Lookup(ctx context.Context, module, name string, scope Scope) (json.RawMessage, error) {
	for _, filter := range lookupFilters(scope) {
		doc, err := b.findOne(ctx, filter)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		if v, ok := find(doc.Modules, module, name); ok {
			return v, nil
		}
	}
	return nil, ErrNotConfigured
}

// Modules implements Backend.
func (b *MongoBackend) Modules(ctx context.Context, scope Scope) ([]Module, error) {
	var merged []Module
	filters := lookupFilters(scope)
	// Apply the broadest scope first so narrower documents override it.
	for i := len(filters) - 1; i >= 0; i-- {
		doc, err := b.findOne(ctx, filters[i])
		if err != nil {
			return nil, err
		}
		if doc != nil {
			merged = merge(merged, doc.Modules)
		}
	}
	return merged, nil
}

// Set implements Backend.
func (b *MongoBackend) Set(ctx context.Context, module, name string, scope Scope, value json.RawMessage) error {
	filter, base := writeTarget(scope)
	doc, err := b.findOne(ctx, filter)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &base
	}
	doc.Modules = put(doc.Modules, module, name, value)
	doc.UpdatedAt = time.Now().UTC()

	if _, err := b.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("set %s.%s: %w", module, name, err)
	}
	return nil
}

func (b *MongoBackend) findOne(ctx context.Context, filter bson.D) (*document, error) {
	var doc document
	if err := b.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find configuration: %w", err)
	}
	return &doc, nil
}

// lookupFilters returns the filters to try, narrowest first.
func lookupFilters(scope Scope) []bson.D {
	var filters []bson.D
	if scope.UserID != uuid.Nil {
		filters = append(filters, userFilter(scope.UserID))
	}
	if scope.DomainID != uuid.Nil {
		filters = append(filters, domainFilter(scope.DomainID))
	}
	return filters
}

func writeTarget(scope Scope) (bson.D, document) {
	if scope.UserID != uuid.Nil {
		return userFilter(scope.UserID), document{UserID: scope.UserID.String()}
	}
	return domainFilter(scope.DomainID), document{DomainID: scope.DomainID.String()}
}

func userFilter(id uuid.UUID) bson.D {
	return bson.D{{Key: "user_id", Value: id.String()}}
}

func domainFilter(id uuid.UUID) bson.D {
	return bson.D{
		{Key: "domain_id", Value: id.String()},
		{Key: "user_id", Value: bson.D{{Key: "$exists", Value: false}}},
	}
}
