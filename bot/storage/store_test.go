package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meetbot/bot/models"
)

func TestDegradedStoreFailsFast(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	assert.False(t, s.Available())

	_, err := s.Profile(ctx, 1)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.Upsert(ctx, &models.Profile{ChatID: 1, Name: "n", Bio: "b", Category: models.CategoryFriendship})
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.CommitMatch(ctx, 1, 2)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.RedeemGrant(ctx, 1, "tok")
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, s.Close())
}

func TestWrapOpMapsDeadlineToUnavailable(t *testing.T) {
	err := wrapOp("profile", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUnavailable)

	cause := errors.New("syntax error")
	err = wrapOp("profile", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUnavailable)

	assert.NoError(t, wrapOp("profile", nil))
}
