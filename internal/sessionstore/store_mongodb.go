package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoSessionDocument struct {
	ID         string `bson:"_id"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
	TokenCount int    `bson:"token_count"`
	Data       []byte `bson:"data"`
}

// MongoDBStore stores session snapshots in MongoDB.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore creates collection indexes if needed.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}

	coll := database.Collection("sessions")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("create sessions indexes: %w", err)
	}

	return &MongoDBStore{collection: coll}, nil
}

// Create inserts a new snapshot.
func (s *MongoDBStore) Create(ctx context.Context, snap *Snapshot) error {
	payload, err := serializeSnapshot(snap)
	if err != nil {
		return err
	}

	doc := mongoSessionDocument{
		ID:         snap.ID,
		CreatedAt:  snap.CreatedAt,
		UpdatedAt:  time.Now().Unix(),
		TokenCount: snap.State.Len(),
		Data:       payload,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get returns a snapshot by id.
func (s *MongoDBStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var doc mongoSessionDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	snap, err := deserializeSnapshot(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return snap, nil
}

// List returns snapshots ordered by created_at desc, id desc.
func (s *MongoDBStore) List(ctx context.Context, limit int, after string) ([]*Snapshot, error) {
	limit = normalizeLimit(limit)
	filter := bson.M{}

	if after != "" {
		var cursorDoc mongoSessionDocument
		err := s.collection.FindOne(ctx, bson.M{"_id": after}).Decode(&cursorDoc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("query after cursor: %w", err)
		}
		filter = bson.M{
			"$or": bson.A{
				bson.M{"created_at": bson.M{"$lt": cursorDoc.CreatedAt}},
				bson.M{
					"created_at": cursorDoc.CreatedAt,
					"_id":        bson.M{"$lt": cursorDoc.ID},
				},
			},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]*Snapshot, 0, limit)
	for cursor.Next(ctx) {
		var doc mongoSessionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode session document: %w", err)
		}
		snap, err := deserializeSnapshot(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode session payload: %w", err)
		}
		items = append(items, snap)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions cursor: %w", err)
	}

	return items, nil
}

// Update replaces a stored snapshot.
func (s *MongoDBStore) Update(ctx context.Context, snap *Snapshot) error {
	payload, err := serializeSnapshot(snap)
	if err != nil {
		return err
	}

	result, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": snap.ID},
		bson.M{"$set": bson.M{
			"updated_at":  time.Now().Unix(),
			"token_count": snap.State.Len(),
			"data":        payload,
		}},
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a snapshot.
func (s *MongoDBStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Close is a no-op; Mongo client lifecycle is managed by storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
