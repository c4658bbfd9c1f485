package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/models"
	"github.com/DanzelOng/MarkDownMate/internal/utils"
)

// OTPRepository holds the live verification codes, at most one per email.
type OTPRepository interface {
	// FindOrCreate returns the live OTP for email, creating one atomically if
	// none exists. The second result reports whether a new code was minted.
	FindOrCreate(ctx context.Context, email string) (*models.OTP, bool, error)
	// ConsumeByCode atomically removes the live OTP matching code and returns
	// it, or (nil, nil) if no unexpired artifact matches. A consumed code can
	// never be replayed.
	ConsumeByCode(ctx context.Context, code string) (*models.OTP, error)
	DeleteExpired(ctx context.Context) error
}

type otpRepository struct {
	collection *mongo.Collection
}

func NewOTPRepository(db database.Service) OTPRepository {
	return &otpRepository{collection: db.Database().Collection("otps")}
}

func (r *otpRepository) FindOrCreate(ctx context.Context, email string) (*models.OTP, bool, error) {
	code, err := utils.GenerateSecureOTP(6)
	if err != nil {
		return nil, false, err
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	// Two passes at most: the second run only happens when the first returned
	// a stale document the TTL reaper had not removed yet.
	for attempt := 0; attempt < 2; attempt++ {
		now := time.Now()
		doc := bson.M{
			"email":      email,
			"code":       code,
			"created_at": now,
			"expires_at": now.Add(models.OTPTTL),
		}

		var otp models.OTP
		err := r.collection.FindOneAndUpdate(ctx,
			bson.M{"email": email},
			bson.M{"$setOnInsert": doc},
			opts,
		).Decode(&otp)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// lost an upsert race; next pass returns the winner's document
				continue
			}
			return nil, false, err
		}

		if otp.Expired(time.Now()) {
			_, err := r.collection.DeleteOne(ctx,
				bson.M{"email": email, "expires_at": bson.M{"$lte": time.Now()}})
			if err != nil {
				return nil, false, err
			}
			continue
		}

		return &otp, otp.Code == code, nil
	}

	return nil, false, mongo.ErrNoDocuments
}

func (r *otpRepository) ConsumeByCode(ctx context.Context, code string) (*models.OTP, error) {
	var otp models.OTP
	filter := bson.M{"code": code, "expires_at": bson.M{"$gt": time.Now()}}
	err := r.collection.FindOneAndDelete(ctx, filter).Decode(&otp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &otp, nil
}

func (r *otpRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": time.Now()}})
	return err
}
