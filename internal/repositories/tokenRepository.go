package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

// TokenRepository holds the live password reset tokens, at most one per
// account. Semantics mirror OTPRepository: find-or-create reuses a live
// token, consumption is atomic and exactly-once.
type TokenRepository interface {
	FindOrCreate(ctx context.Context, userID primitive.ObjectID, email string) (*models.ResetToken, bool, error)
	// FindByToken returns the live token record, or (nil, nil). Expired and
	// never-issued tokens are indistinguishable to the caller.
	FindByToken(ctx context.Context, token string) (*models.ResetToken, error)
	// Consume atomically removes the live token if it belongs to userID and
	// reports whether a document was deleted.
	Consume(ctx context.Context, token string, userID primitive.ObjectID) (bool, error)
	DeleteExpired(ctx context.Context) error
}

type tokenRepository struct {
	collection *mongo.Collection
}

func NewTokenRepository(db database.Service) TokenRepository {
	return &tokenRepository{collection: db.Database().Collection("resetTokens")}
}

func (r *tokenRepository) FindOrCreate(ctx context.Context, userID primitive.ObjectID, email string) (*models.ResetToken, bool, error) {
	token, err := utils.GenerateResetToken()
	if err != nil {
		return nil, false, err
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now()
		doc := bson.M{
			"user_id":    userID,
			"email":      email,
			"token":      token,
			"created_at": now,
			"expires_at": now.Add(models.ResetTokenTTL),
		}

		var rt models.ResetToken
		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"user_id": userID},
			bson.M{"$setOnInsert": doc},
			opts,
		).Decode(&rt)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return nil, false, err
		}

		if rt.Expired(time.Now()) {
			_, err := r.collection.DeleteOne(ctx,
				bson.M{"user_id": userID, "expires_at": bson.M{"$lte": time.Now()}})
			if err != nil {
				return nil, false, err
			}
			continue
		}

		return &rt, rt.Token == token, nil
	}

	return nil, false, mongo.ErrNoDocuments
}

func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*models.ResetToken, error) {
	var rt models.ResetToken
	filter := bson.M{"token": token, "expires_at": bson.M{"$gt": time.Now()}}
	err := r.collection.FindOne(ctx, filter).Decode(&rt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (r *tokenRepository) Consume(ctx context.Context, token string, userID primitive.ObjectID) (bool, error) {
	filter := bson.M{"token": token, "user_id": userID, "expires_at": bson.M{"$gt": time.Now()}}
	err := r.collection.FindOneAndDelete(ctx, filter).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *tokenRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	return err
}
