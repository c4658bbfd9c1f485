package database

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	_ "github.com/joho/godotenv/autoload"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Name = "markdownmate"

var (
	host = os.Getenv("MONGO_HOST")
	port = os.Getenv("MONGO_PORT")
)

type Service interface {
	Health() map[string]string
	Client() *mongo.Client
	Database() *mongo.Database
	Close() error
}

type service struct {
	db *mongo.Client
}

func New() Service {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		if host == "" || port == "" {
			log.Fatal().Msg("MONGO_URI environment variable not set")
		}
		mongoURI = "mongodb://" + host + ":" + port
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}

	s := &service{db: client}
	if err := s.ensureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
	}
	return s
}

// ensureIndexes creates the unique and TTL indexes the auth flows rely on.
// Uniqueness must be enforced by the store, not by check-then-insert, so
// concurrent signups racing past the existence check still resolve to exactly
// one created account. TTL indexes reap expired OTPs, reset tokens and
// unverified accounts; reads additionally filter on expires_at because the
// reaper only runs periodically.
func (s *service) ensureIndexes(ctx context.Context) error {
	db := s.Database()
	ttl := options.Index().SetExpireAfterSeconds(0)

	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("otps").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("resetTokens").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: ttl},
	})
	if err != nil {
		return err
	}

	_, err = db.Collection("markdowns").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "file_name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	err := s.db.Ping(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("Database health check failed")
		return map[string]string{
			"message": "db down",
			"error":   err.Error(),
		}
	}

	return map[string]string{
		"message": "It's healthy",
	}
}

func (s *service) Client() *mongo.Client {
	return s.db
}

func (s *service) Database() *mongo.Database {
	return s.db.Database(Name)
}

func (s *service) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Disconnect(ctx)
}
