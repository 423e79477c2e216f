package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meetbot/bot/models"
)

func TestRegisterGrantsInitialCredit(t *testing.T) {
	store := newFakeStore()
	svc := NewProfileService(store)

	p := friendshipProfile(7, 0)
	require.NoError(t, svc.Register(context.Background(), &p))

	got, err := svc.ProfileByChatID(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Credits)
}

func TestRegisterReplacesEverything(t *testing.T) {
	store := newFakeStore().
		add(models.Profile{ChatID: 7, Name: "Old", Bio: "old", Category: models.CategoryCollab, Credits: 4, Creativity: strptr("oil painting")})
	svc := NewProfileService(store)

	p := friendshipProfile(7, 0)
	p.Name = "New"
	require.NoError(t, svc.Register(context.Background(), &p))

	got, err := svc.ProfileByChatID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, models.CategoryFriendship, got.Category)
	assert.Nil(t, got.Creativity)
	assert.Equal(t, 1, got.Credits, "re-registration resets the balance to the starter credit")
}

func TestResetAllWipesProfilePairsAndGrants(t *testing.T) {
	store := newFakeStore().
		add(friendshipProfile(1, 3)).
		add(friendshipProfile(2, 1))
	require.NoError(t, store.RecordPair(context.Background(), 1, 2))
	_, err := store.RedeemGrant(context.Background(), 1, "tok")
	require.NoError(t, err)

	svc := NewProfileService(store)
	require.NoError(t, svc.ResetAll(context.Background(), 1))

	got, err := svc.ProfileByChatID(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	met, err := store.HasMet(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.False(t, met, "pair history must not leak into the next registration")

	// After re-registering, the old token is redeemable again.
	p := friendshipProfile(1, 0)
	require.NoError(t, svc.Register(context.Background(), &p))
	already, err := svc.Redeem(context.Background(), 1, "tok")
	require.NoError(t, err)
	assert.False(t, already)
}

func TestGrantValidatesAmount(t *testing.T) {
	store := newFakeStore().add(friendshipProfile(1, 1))
	svc := NewProfileService(store)

	_, err := svc.Grant(context.Background(), 1, 0)
	assert.Error(t, err)
	_, err = svc.Grant(context.Background(), 1, -3)
	assert.Error(t, err)

	total, err := svc.Grant(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestRedeemIsIdempotentPerToken(t *testing.T) {
	store := newFakeStore().add(friendshipProfile(1, 0))
	svc := NewProfileService(store)

	already, err := svc.Redeem(context.Background(), 1, "meet-42")
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.Redeem(context.Background(), 1, "meet-42")
	require.NoError(t, err)
	assert.True(t, already)

	got, err := svc.ProfileByChatID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Credits, "double redemption must not double-credit")

	// A different token credits independently.
	already, err = svc.Redeem(context.Background(), 1, "meet-43")
	require.NoError(t, err)
	assert.False(t, already)
	got, err = svc.ProfileByChatID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Credits)
}

func TestRedeemSameTokenDifferentUsers(t *testing.T) {
	store := newFakeStore().
		add(friendshipProfile(1, 0)).
		add(friendshipProfile(2, 0))
	svc := NewProfileService(store)

	for _, id := range []int64{1, 2} {
		already, err := svc.Redeem(context.Background(), id, "shared")
		require.NoError(t, err)
		assert.False(t, already, "user %d", id)
	}
}
