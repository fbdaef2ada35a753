package persona

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DefaultDatabase   = "aiai"
	collectionAgents  = "agents"
	fieldUsername     = "username"
	fieldName         = "name"
	fieldDocumentId   = "_id"
	projectionExclude = 0
	projectionInclude = 1

	serverSelectionTimeout = 5 * time.Second
)

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	retry      RetryPolicy
}

type MongoStoreOptions struct {
	Uri      string
	Database string
	Retry    RetryPolicy
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(ctx context.Context, opts MongoStoreOptions) (*MongoStore, error) {
	if opts.Uri == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if opts.Database == "" {
		opts.Database = DefaultDatabase
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.Uri).
		SetServerSelectionTimeout(serverSelectionTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(opts.Database).Collection(collectionAgents),
		retry:      opts.Retry,
	}, nil
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (*Persona, error) {
	var persona Persona

	err := s.retry.Do(ctx, "find persona", func(ctx context.Context) error {
		err := s.collection.FindOne(ctx, bson.M{fieldUsername: username}).Decode(&persona)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return &persona, nil
}

func (s *MongoStore) ListByUsernames(ctx context.Context, usernames []string) ([]Summary, error) {
	summaries := []Summary{}
	if len(usernames) == 0 {
		return summaries, nil
	}

	filter := bson.M{fieldUsername: bson.M{"$in": usernames}}
	projection := bson.M{fieldDocumentId: projectionExclude, fieldUsername: projectionInclude, fieldName: projectionInclude}

	err := s.retry.Do(ctx, "list personas", func(ctx context.Context) error {
		cursor, err := s.collection.Find(ctx, filter, options.Find().SetProjection(projection))
		if err != nil {
			return err
		}

		var found []Summary
		if err := cursor.All(ctx, &found); err != nil {
			return err
		}
		summaries = append(summaries[:0], found...)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
