package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/storage"
)

func strptr(s string) *string          { return &s }
func genderptr(g models.Gender) *models.Gender { return &g }

func friendshipProfile(id int64, credits int) models.Profile {
	return models.Profile{
		ChatID:   id,
		Name:     "User",
		Bio:      "bio",
		Category: models.CategoryFriendship,
		Credits:  credits,
	}
}

func TestRequestMatchCommitsPairAndDebitsCredit(t *testing.T) {
	store := newFakeStore().
		add(friendshipProfile(1, 2)).
		add(friendshipProfile(2, 1))

	engine := NewMatchEngine(store, WithPick(func(n int) int { return 0 }))

	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
	require.NoError(t, err)
	require.Equal(t, OutcomeMatched, res.Outcome)
	require.NotNil(t, res.Partner)
	assert.Equal(t, int64(2), res.Partner.ChatID)
	assert.Equal(t, 1, res.Initiator.Credits)

	met, err := store.HasMet(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, met)
	met, err = store.HasMet(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.True(t, met, "pair record must be symmetric")

	// Partner keeps their own credit: only the initiator pays.
	p, err := store.Profile(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Credits)
}

func TestRequestMatchNeverRepeatsPartner(t *testing.T) {
	store := newFakeStore().
		add(friendshipProfile(1, 5)).
		add(friendshipProfile(2, 1)).
		add(friendshipProfile(3, 1))

	engine := NewMatchEngine(store, WithPick(func(n int) int { return 0 }))

	seen := make(map[int64]bool)
	for i := 0; i < 2; i++ {
		res, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
		require.NoError(t, err)
		require.Equal(t, OutcomeMatched, res.Outcome)
		assert.False(t, seen[res.Partner.ChatID], "partner %d repeated", res.Partner.ChatID)
		seen[res.Partner.ChatID] = true
	}

	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyMetAll, res.Outcome)
	assert.Nil(t, res.Partner)
}

func TestRequestMatchDistinguishesEmptyPoolFromExhaustedPool(t *testing.T) {
	store := newFakeStore().add(friendshipProfile(1, 3))

	engine := NewMatchEngine(store)

	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCandidates, res.Outcome)

	// A no-match outcome must not burn a credit.
	p, err := store.Profile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Credits)
}

func TestRequestMatchLoveFiltersOppositeGender(t *testing.T) {
	store := newFakeStore().
		add(models.Profile{ChatID: 1, Name: "A", Bio: "b", Category: models.CategoryLove, Credits: 1, Gender: genderptr(models.GenderMale)}).
		add(models.Profile{ChatID: 2, Name: "B", Bio: "b", Category: models.CategoryLove, Credits: 1, Gender: genderptr(models.GenderMale)}).
		add(models.Profile{ChatID: 3, Name: "C", Bio: "b", Category: models.CategoryLove, Credits: 1, Gender: genderptr(models.GenderFemale)})

	engine := NewMatchEngine(store, WithPick(func(n int) int { return 0 }))

	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryLove)
	require.NoError(t, err)
	require.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, int64(3), res.Partner.ChatID)
}

func TestRequestMatchRequiresCategoryAttribute(t *testing.T) {
	store := newFakeStore().
		add(models.Profile{ChatID: 1, Name: "A", Bio: "b", Category: models.CategoryCollab, Credits: 1}).
		add(models.Profile{ChatID: 2, Name: "B", Bio: "b", Category: models.CategoryCollab, Credits: 1, Creativity: strptr("pottery")})

	engine := NewMatchEngine(store)

	_, err := engine.RequestMatch(context.Background(), 1, models.CategoryCollab)
	var missing *MissingAttributeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, models.CategoryCollab, missing.Category)
	assert.Equal(t, "creativity", missing.Attribute())

	require.NoError(t, store.SetCreativity(context.Background(), 1, "sketching"))
	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryCollab)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMatched, res.Outcome)
}

func TestRequestMatchErrors(t *testing.T) {
	t.Run("unregistered", func(t *testing.T) {
		engine := NewMatchEngine(newFakeStore())
		_, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})

	t.Run("no credits", func(t *testing.T) {
		store := newFakeStore().
			add(friendshipProfile(1, 0)).
			add(friendshipProfile(2, 1))
		engine := NewMatchEngine(store)
		_, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
		assert.ErrorIs(t, err, ErrInsufficientCredits)
	})

	t.Run("commit failure leaves no partial state", func(t *testing.T) {
		store := newFakeStore().
			add(friendshipProfile(1, 1)).
			add(friendshipProfile(2, 1))
		store.failCommit = errors.New("connection reset")
		engine := NewMatchEngine(store, WithPick(func(n int) int { return 0 }))

		_, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
		require.Error(t, err)

		p, perr := store.Profile(context.Background(), 1)
		require.NoError(t, perr)
		assert.Equal(t, 1, p.Credits)
		met, merr := store.HasMet(context.Background(), 1, 2)
		require.NoError(t, merr)
		assert.False(t, met)
	})

	t.Run("concurrent debit lost race", func(t *testing.T) {
		store := newFakeStore().
			add(friendshipProfile(1, 1)).
			add(friendshipProfile(2, 1))
		store.failCommit = storage.ErrNoCredits
		engine := NewMatchEngine(store, WithPick(func(n int) int { return 0 }))

		_, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
		assert.ErrorIs(t, err, storage.ErrNoCredits)
	})
}

func TestRequestMatchPickStaysInBounds(t *testing.T) {
	store := newFakeStore().
		add(friendshipProfile(1, 1)).
		add(friendshipProfile(2, 1)).
		add(friendshipProfile(3, 1)).
		add(friendshipProfile(4, 1))

	var sawN int
	engine := NewMatchEngine(store, WithPick(func(n int) int {
		sawN = n
		return n - 1
	}))

	res, err := engine.RequestMatch(context.Background(), 1, models.CategoryFriendship)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMatched, res.Outcome)
	assert.Equal(t, 3, sawN)
}
