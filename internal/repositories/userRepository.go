package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

// ErrDuplicate surfaces a unique index violation on insert or update.
var ErrDuplicate = fmt.Errorf("duplicate key")

// UserRepository is the credential store over the single users collection.
// Find methods return (nil, nil) when no document matches.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindConflicts(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	MarkVerified(ctx context.Context, userID primitive.ObjectID) error
	Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) error
}

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db database.Service) UserRepository {
	return &userRepository{collection: db.Database().Collection("users")}
}

func observe(queryType, repository string, status *string) func() {
	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		utils.DBQueryDurationSeconds.WithLabelValues(queryType, repository, *status).Observe(v)
	}))
	return func() { timer.ObserveDuration() }
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	queryType, repository, status := "create", "user", "success"
	defer observe(queryType, repository, &status)()

	now := time.Now()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		log.Error().Err(err).Str("email", user.Email).Msg("Failed to insert user into database")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (r *userRepository) findOne(ctx context.Context, queryType string, filter bson.M) (*models.User, error) {
	repository, status := "user", "success"
	defer observe(queryType, repository, &status)()

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "findByUsername", bson.M{"username": username})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "findByEmail", bson.M{"email": email})
}

func (r *userRepository) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, "findById", bson.M{"_id": userID})
}

// FindConflicts reports which of username and email are already claimed, so
// signup can return both violations in one response. The unique indexes
// remain the authority under concurrency; this scan only builds the field
// map for the common case.
func (r *userRepository) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	queryType, repository, status := "findConflicts", "user", "success"
	defer observe(queryType, repository, &status)()

	cursor, err := r.collection.Find(ctx,
		bson.M{"$or": bson.A{bson.M{"username": username}, bson.M{"email": email}}})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		return false, false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	defer cursor.Close(ctx)

	var usernameTaken, emailTaken bool
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return false, false, fmt.Errorf("failed to decode user: %w", err)
		}
		if user.Username == username {
			usernameTaken = true
		}
		if user.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, cursor.Err()
}

// MarkVerified flips is_verified and removes the TTL field in one update, so
// a verified account can never be reaped and the flag never reverts.
func (r *userRepository) MarkVerified(ctx context.Context, userID primitive.ObjectID) error {
	queryType, repository, status := "markVerified", "user", "success"
	defer observe(queryType, repository, &status)()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":   bson.M{"is_verified": true, "updated_at": time.Now()},
			"$unset": bson.M{"expires_at": ""},
		})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error marking user as verified")
		return fmt.Errorf("failed to mark user as verified: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, userID primitive.ObjectID, updateFields bson.M) error {
	queryType, repository, status := "update", "user", "success"
	defer observe(queryType, repository, &status)()

	updateFields["updated_at"] = time.Now()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": updateFields})
	if err != nil {
		status = "error"
		utils.DBQueryErrorsTotal.WithLabelValues(queryType, repository).Inc()
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		log.Error().Err(err).Str("user_id", userID.Hex()).Msg("Error updating user credentials")
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
