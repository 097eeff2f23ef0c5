package takkencrawler

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "companies"

type mongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func newMongoSink(ctx context.Context, cfg SinkConfig) (*mongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	databaseURL := fmt.Sprintf("mongodb://%s:%s@%s:%s",
		cfg.MongoUsername,
		cfg.MongoPassword,
		cfg.MongoHost,
		cfg.MongoPort,
	)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(databaseURL))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(cfg.MongoDatabase).Collection(mongoCollection)
	if err := ensureUniqueIndex(ctx, collection); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &mongoSink{client: client, collection: collection}, nil
}

// ensureUniqueIndex makes the identity key unique in the collection.
func ensureUniqueIndex(ctx context.Context, collection *mongo.Collection) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "company_name", Value: 1}, {Key: "phone_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("could not create index: %w", err)
	}
	return nil
}

func (s *mongoSink) Name() string {
	return "mongo"
}

// Write upserts the record by its identity key.
func (s *mongoSink) Write(ctx context.Context, record MirroredRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.D{
		{Key: "company_name", Value: record.CompanyName},
		{Key: "phone_number", Value: record.PhoneNumber},
	}
	_, err := s.collection.ReplaceOne(ctx, filter, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("could not save %s: %w", record.Key(), err)
	}
	return nil
}

func (s *mongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
