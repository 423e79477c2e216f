package fsm

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/services"
	"github.com/m3rciful/meetbot/core/logger"
	"github.com/m3rciful/meetbot/core/telegram/state"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// flowCtx is a minimal tele.Context for driving dialogue turns. Only the
// methods the flows touch are implemented; everything else panics through the
// embedded nil interface.
type flowCtx struct {
	tele.Context
	user *tele.User
	text string
	cb   *tele.Callback
	kv   map[string]any
	sent []string
}

func newFlowCtx(userID int64) *flowCtx {
	return &flowCtx{
		user: &tele.User{ID: userID},
		kv:   make(map[string]any),
	}
}

func (c *flowCtx) Sender() *tele.User      { return c.user }
func (c *flowCtx) Chat() *tele.Chat        { return &tele.Chat{ID: c.user.ID} }
func (c *flowCtx) Update() tele.Update     { return tele.Update{ID: 1} }
func (c *flowCtx) Text() string            { return c.text }
func (c *flowCtx) Callback() *tele.Callback { return c.cb }
func (c *flowCtx) Get(key string) any      { return c.kv[key] }
func (c *flowCtx) Set(key string, v any)   { c.kv[key] = v }

func (c *flowCtx) Send(what any, _ ...any) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func categoryCallback(cat models.Category) *tele.Callback {
	return &tele.Callback{Data: "\\fmeet_cat|" + string(cat)}
}

// flowStore is an in-memory services.Store covering the dialogue paths.
type flowStore struct {
	profiles map[int64]*models.Profile
}

func newFlowStore(ps ...models.Profile) *flowStore {
	s := &flowStore{profiles: make(map[int64]*models.Profile)}
	for _, p := range ps {
		cp := p
		s.profiles[p.ChatID] = &cp
	}
	return s
}

func (s *flowStore) Profile(_ context.Context, id int64) (*models.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *flowStore) Upsert(_ context.Context, p *models.Profile) error {
	cp := *p
	s.profiles[p.ChatID] = &cp
	return nil
}

func (s *flowStore) DeleteAll(_ context.Context, id int64) error {
	delete(s.profiles, id)
	return nil
}

func (s *flowStore) AdjustCredits(_ context.Context, id int64, delta int) (int, error) {
	p := s.profiles[id]
	p.Credits += delta
	return p.Credits, nil
}

func (s *flowStore) SetCreativity(_ context.Context, id int64, text string) error {
	s.profiles[id].Creativity = &text
	return nil
}

func (s *flowStore) SetGender(_ context.Context, id int64, g models.Gender) error {
	s.profiles[id].Gender = &g
	return nil
}

func (s *flowStore) RecordPair(context.Context, int64, int64) error { return nil }

func (s *flowStore) HasMet(context.Context, int64, int64) (bool, error) { return false, nil }

func (s *flowStore) MetPartnerIDs(context.Context, int64) (map[int64]struct{}, error) {
	return map[int64]struct{}{}, nil
}

func (s *flowStore) CandidatesByCategory(context.Context, models.Category, int64, *models.Gender) ([]models.Profile, error) {
	return nil, nil
}

func (s *flowStore) CommitMatch(context.Context, int64, int64) error { return nil }

func (s *flowStore) RedeemGrant(context.Context, int64, string) (bool, error) {
	return false, nil
}

type matchRecorder struct {
	calls []models.Category
}

func (r *matchRecorder) run(_ tele.Context, cat models.Category) error {
	r.calls = append(r.calls, cat)
	return nil
}

func newTestFlows(store *flowStore) (*Flows, state.Manager, *matchRecorder) {
	mgr := state.NewMemoryManager()
	rec := &matchRecorder{}
	f := New(mgr, services.NewProfileService(store), rec.run)
	f.RegisterHandlers()
	return f, mgr, rec
}

func TestMeetCollabWithoutCreativityDefersMatchUntilCollected(t *testing.T) {
	store := newFlowStore(models.Profile{
		ChatID:   7,
		Name:     "Ann",
		Bio:      "painter",
		Category: models.CategoryFriendship,
		Credits:  1,
	})
	flows, mgr, rec := newTestFlows(store)
	mgr.SetState(7, StateChoosingMeetCategory)

	cbTurn := newFlowCtx(7)
	cbTurn.cb = categoryCallback(models.CategoryCollab)
	require.NoError(t, flows.MeetCategoryChosen(cbTurn))

	assert.Empty(t, rec.calls, "engine must not run before the attribute is collected")
	assert.Equal(t, StateCollectingMeetCreativity, mgr.GetState(7))

	textTurn := newFlowCtx(7)
	textTurn.text = "ceramics"
	require.NoError(t, mgr.ManagerHandler(textTurn))

	require.NotNil(t, store.profiles[7].Creativity)
	assert.Equal(t, "ceramics", *store.profiles[7].Creativity)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, models.CategoryCollab, rec.calls[0])
	assert.Equal(t, state.StateIdle, mgr.GetState(7))
}

func TestMeetCollabWithStoredCreativityRunsImmediately(t *testing.T) {
	creativity := "music"
	store := newFlowStore(models.Profile{
		ChatID:     7,
		Name:       "Ann",
		Bio:        "musician",
		Category:   models.CategoryCollab,
		Credits:    1,
		Creativity: &creativity,
	})
	flows, mgr, rec := newTestFlows(store)
	mgr.SetState(7, StateChoosingMeetCategory)

	cbTurn := newFlowCtx(7)
	cbTurn.cb = categoryCallback(models.CategoryCollab)
	require.NoError(t, flows.MeetCategoryChosen(cbTurn))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, models.CategoryCollab, rec.calls[0])
	assert.Equal(t, state.StateIdle, mgr.GetState(7))
}

func TestMeetWithoutCreditsClearsStateAndSkipsEngine(t *testing.T) {
	store := newFlowStore(models.Profile{
		ChatID:   7,
		Name:     "Ann",
		Bio:      "bio",
		Category: models.CategoryFriendship,
		Credits:  0,
	})
	flows, mgr, rec := newTestFlows(store)
	mgr.SetState(7, StateChoosingMeetCategory)

	cbTurn := newFlowCtx(7)
	cbTurn.cb = categoryCallback(models.CategoryFriendship)
	require.NoError(t, flows.MeetCategoryChosen(cbTurn))

	assert.Empty(t, rec.calls)
	assert.Equal(t, state.StateIdle, mgr.GetState(7))
}

func TestMeetLoveWithoutGenderEntersGenderCollection(t *testing.T) {
	store := newFlowStore(models.Profile{
		ChatID:   7,
		Name:     "Ann",
		Bio:      "bio",
		Category: models.CategoryFriendship,
		Credits:  1,
	})
	flows, mgr, rec := newTestFlows(store)
	mgr.SetState(7, StateChoosingMeetCategory)

	cbTurn := newFlowCtx(7)
	cbTurn.cb = categoryCallback(models.CategoryLove)
	require.NoError(t, flows.MeetCategoryChosen(cbTurn))

	assert.Empty(t, rec.calls)
	assert.Equal(t, StateCollectingMeetGender, mgr.GetState(7))

	genderTurn := newFlowCtx(7)
	genderTurn.cb = &tele.Callback{Data: "\\fmeet_gender|female"}
	require.NoError(t, flows.MeetGenderChosen(genderTurn))

	require.NotNil(t, store.profiles[7].Gender)
	assert.Equal(t, models.GenderFemale, *store.profiles[7].Gender)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, models.CategoryLove, rec.calls[0])
}

func TestRegistrationFlowCollectsDraftAndPersists(t *testing.T) {
	store := newFlowStore()
	flows, mgr, rec := newTestFlows(store)

	start := newFlowCtx(7)
	start.user.Username = "ann"
	require.NoError(t, flows.BeginRegistration(start))
	assert.Equal(t, StateCollectingName, mgr.GetState(7))

	nameTurn := newFlowCtx(7)
	nameTurn.text = "Ann"
	require.NoError(t, mgr.ManagerHandler(nameTurn))
	assert.Equal(t, StateCollectingBio, mgr.GetState(7))

	bioTurn := newFlowCtx(7)
	bioTurn.text = "painter from Lisbon"
	require.NoError(t, mgr.ManagerHandler(bioTurn))
	assert.Equal(t, StateChoosingCategory, mgr.GetState(7))

	catTurn := newFlowCtx(7)
	catTurn.user.Username = "ann"
	catTurn.cb = &tele.Callback{Data: "\\freg_cat|friendship"}
	require.NoError(t, flows.RegistrationCategoryChosen(catTurn))

	p := store.profiles[7]
	require.NotNil(t, p)
	assert.Equal(t, "Ann", p.Name)
	assert.Equal(t, "painter from Lisbon", p.Bio)
	assert.Equal(t, models.CategoryFriendship, p.Category)
	assert.Equal(t, 1, p.Credits)
	require.NotNil(t, p.Contact)
	assert.Equal(t, "@ann", *p.Contact)
	assert.Equal(t, state.StateIdle, mgr.GetState(7))
	assert.Empty(t, rec.calls)
}
