package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/DanzelOng/MarkDownMate/internal/database"
	"github.com/DanzelOng/MarkDownMate/internal/models"
)

func TestUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := database.New()
	defer db.Close()

	userRepo := NewUserRepository(db)
	ctx := context.Background()
	suffix := primitive.NewObjectID().Hex()

	newUser := func(username, email string, verified bool) *models.User {
		user := &models.User{
			Username:   username + suffix,
			Email:      email + suffix + "@example.com",
			Password:   "hashed",
			IsVerified: verified,
		}
		if !verified {
			expiresAt := time.Now().Add(models.UnverifiedTTL)
			user.ExpiresAt = &expiresAt
		}
		return user
	}

	t.Run("Create and Find", func(t *testing.T) {
		created, err := userRepo.Create(ctx, newUser("alice", "alice", true))
		require.NoError(t, err)
		require.NotNil(t, created)

		found, err := userRepo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)

		found, err = userRepo.FindByUsername(ctx, created.Username)
		require.NoError(t, err)
		require.NotNil(t, found)

		found, err = userRepo.FindByEmail(ctx, created.Email)
		require.NoError(t, err)
		require.NotNil(t, found)

		missing, err := userRepo.FindByID(ctx, primitive.NewObjectID())
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Duplicate insert is rejected by the unique index", func(t *testing.T) {
		first, err := userRepo.Create(ctx, newUser("bob", "bob", true))
		require.NoError(t, err)

		dup := newUser("bob", "bob", true)
		dup.ID = primitive.NewObjectID()
		_, err = userRepo.Create(ctx, dup)
		assert.Equal(t, ErrDuplicate, err)

		_ = first
	})

	t.Run("FindConflicts reports both fields", func(t *testing.T) {
		created, err := userRepo.Create(ctx, newUser("carol", "carol", true))
		require.NoError(t, err)

		usernameTaken, emailTaken, err := userRepo.FindConflicts(ctx, created.Username, created.Email)
		require.NoError(t, err)
		assert.True(t, usernameTaken)
		assert.True(t, emailTaken)

		usernameTaken, emailTaken, err = userRepo.FindConflicts(ctx, "nobody"+suffix, created.Email)
		require.NoError(t, err)
		assert.False(t, usernameTaken)
		assert.True(t, emailTaken)
	})

	t.Run("MarkVerified unsets the expiry", func(t *testing.T) {
		created, err := userRepo.Create(ctx, newUser("dave", "dave", false))
		require.NoError(t, err)

		require.NoError(t, userRepo.MarkVerified(ctx, created.ID))

		found, err := userRepo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, found.IsVerified)
		assert.Nil(t, found.ExpiresAt)
	})

	t.Run("Update replaces the password hash", func(t *testing.T) {
		created, err := userRepo.Create(ctx, newUser("erin", "erin", true))
		require.NoError(t, err)

		require.NoError(t, userRepo.Update(ctx, created.ID, bson.M{"password": "rehashed"}))

		found, err := userRepo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "rehashed", found.Password)
	})
}
