package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRecord struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps one document per key, with the encoded record as a string.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(cfg config.MongoConfig) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.URI).
		SetConnectTimeout(10 * time.Second).
		SetMaxPoolSize(10)

	start := time.Now()
	client, err := mongo.Connect(ctx, clientOptions)
	observe("mongo", "connect", start, err)
	if err != nil {
		logger.Default().Errorf("Failed to connect to MongoDB: %v", err)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	start = time.Now()
	err = client.Ping(ctx, nil)
	observe("mongo", "ping", start, err)
	if err != nil {
		client.Disconnect(ctx)
		logger.Default().Errorf("Failed to ping MongoDB: %v", err)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Default().Println("MongoDB storage connected successfully")
	return &MongoStore{
		client:     client,
		collection: client.Database(cfg.DBName).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, key string, dest any) (err error) {
	start := time.Now()
	defer func() { observe("mongo", "get", start, err) }()

	var rec mongoRecord
	err = s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return NewStoreError("mongo", "get", key, err)
	}
	if err := decode([]byte(rec.Value), dest); err != nil {
		return NewStoreError("mongo", "get", key, err)
	}
	return nil
}

func (s *MongoStore) Set(ctx context.Context, key string, value any) (err error) {
	start := time.Now()
	defer func() { observe("mongo", "set", start, err) }()

	data, err := encode(value)
	if err != nil {
		return NewStoreError("mongo", "set", key, err)
	}
	rec := mongoRecord{Key: key, Value: string(data), UpdatedAt: time.Now().UTC()}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": key}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return NewStoreError("mongo", "set", key, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { observe("mongo", "delete", start, err) }()

	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return NewStoreError("mongo", "delete", key, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	err := s.client.Disconnect(ctx)
	observe("mongo", "disconnect", start, err)
	if err != nil {
		logger.Default().Errorf("Error closing MongoDB: %v", err)
		return err
	}
	logger.Default().Println("MongoDB connection closed")
	return nil
}
