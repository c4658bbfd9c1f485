package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanzelOng/MarkDownMate/internal/apperrors"
)

func newTokenFixture() (*authFixture, TokenService) {
	f := newAuthFixture()
	return f, NewTokenService(f.userRepo, f.tokenRepo, f.mailer)
}

func TestTokenIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("mails a reset link carrying the token and account id", func(t *testing.T) {
		f, tokens := newTokenFixture()
		user := f.seedUser(t, "alice", "alice@example.com", "secret123", true)

		require.NoError(t, tokens.Issue(ctx, "alice@example.com"))

		mail, ok := f.mailer.lastReset()
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", mail.to)
		assert.Equal(t, user.ID.Hex(), mail.userID)
		assert.Len(t, mail.token, 64)
	})

	t.Run("repeated requests within the lifetime re-send the same token", func(t *testing.T) {
		f, tokens := newTokenFixture()
		f.seedUser(t, "alice", "alice@example.com", "secret123", true)

		require.NoError(t, tokens.Issue(ctx, "alice@example.com"))
		first, _ := f.mailer.lastReset()

		require.NoError(t, tokens.Issue(ctx, "alice@example.com"))
		second, _ := f.mailer.lastReset()

		assert.Equal(t, first.token, second.token)
	})

	t.Run("unknown address is not found", func(t *testing.T) {
		_, tokens := newTokenFixture()

		err := tokens.Issue(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})

	t.Run("unverified account cannot request a reset", func(t *testing.T) {
		f, tokens := newTokenFixture()
		f.seedUser(t, "alice", "alice@example.com", "secret123", false)

		err := tokens.Issue(ctx, "alice@example.com")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestTokenStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("live token passes", func(t *testing.T) {
		f, tokens := newTokenFixture()
		user := f.seedUser(t, "alice", "alice@example.com", "secret123", true)
		rt, _, err := f.tokenRepo.FindOrCreate(ctx, user.ID, user.Email)
		require.NoError(t, err)

		assert.NoError(t, tokens.Status(ctx, rt.Token))
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, tokens := newTokenFixture()

		err := tokens.Status(ctx, "deadbeef")
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}
