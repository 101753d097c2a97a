package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
)

// MongoMessageStore keeps messages as documents keyed by message id.
type MongoMessageStore struct {
	coll *mongo.Collection
}

var _ MessageStore = (*MongoMessageStore)(nil)

func NewMongoMessageStore(coll *mongo.Collection) *MongoMessageStore {
	return &MongoMessageStore{coll: coll}
}

func (s *MongoMessageStore) Create(ctx context.Context, m *db.Message) error {
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (s *MongoMessageStore) Get(ctx context.Context, id string) (*db.Message, error) {
	var m db.Message
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, svcErr.NotFound("unknown message id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return &m, nil
}

func (s *MongoMessageStore) Update(ctx context.Context, m *db.Message) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if res.MatchedCount == 0 {
		return svcErr.NotFound("unknown message id %s", m.ID)
	}
	return nil
}

func (s *MongoMessageStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return svcErr.NotFound("unknown message id %s", id)
	}
	return nil
}
