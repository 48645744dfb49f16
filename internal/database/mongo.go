package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"askaway/internal/config"
	"askaway/internal/middleware"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by the document store and its indexes.
const (
	CollectionUsers         = "users"
	CollectionQuestions     = "questions"
	CollectionAnswers       = "answers"
	CollectionStars         = "stars"
	CollectionQuestionViews = "question_views"
)

// ConnectMongo dials MongoDB and verifies the connection with a primary ping.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(25).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetAppName("askaway")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	middleware.Logger.Info("MongoDB connected successfully", slog.String("database", cfg.MongoDatabase))
	return client, client.Database(cfg.MongoDatabase), nil
}

// mongoIndexes mirrors the unique and lookup indexes of the SQL schema.
func mongoIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
			{Keys: bson.D{{Key: "google_id", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("uniq_google_id")},
			{Keys: bson.D{{Key: "updated_at", Value: 1}}, Options: options.Index().SetName("updated_at")},
		},
		CollectionQuestions: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("created_at_desc")},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user_id")},
		},
		CollectionAnswers: {
			{Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("question_created")},
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user_id")},
		},
		CollectionStars: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "answer_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_user_answer")},
			{Keys: bson.D{{Key: "answer_id", Value: 1}}, Options: options.Index().SetName("answer_id")},
		},
		CollectionQuestionViews: {
			{Keys: bson.D{{Key: "question_id", Value: 1}}, Options: options.Index().SetName("question_id")},
			{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetName("created_at")},
		},
	}
}

// EnsureMongoIndexes creates the collection indexes. It is idempotent.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range mongoIndexes() {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
		middleware.Logger.Info("Mongo indexes ensured", slog.String("collection", collection), slog.Any("indexes", names))
	}
	return nil
}
