package services

import (
	"context"
	"os"
	"testing"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/bot/storage"
	"github.com/m3rciful/meetbot/core/logger"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

// fakeStore is an in-memory Store with the same semantics as the Postgres
// implementation: symmetric pair records, guarded credit debit, idempotent
// grant redemption.
type fakeStore struct {
	profiles map[int64]*models.Profile
	pairs    map[[2]int64]struct{}
	grants   map[int64]map[string]struct{}

	failCommit error
	failErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[int64]*models.Profile),
		pairs:    make(map[[2]int64]struct{}),
		grants:   make(map[int64]map[string]struct{}),
	}
}

func (f *fakeStore) add(p models.Profile) *fakeStore {
	cp := p
	f.profiles[p.ChatID] = &cp
	return f
}

func (f *fakeStore) Profile(_ context.Context, id int64) (*models.Profile, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) Upsert(_ context.Context, p *models.Profile) error {
	if f.failErr != nil {
		return f.failErr
	}
	cp := *p
	f.profiles[p.ChatID] = &cp
	return nil
}

func (f *fakeStore) DeleteAll(_ context.Context, id int64) error {
	if f.failErr != nil {
		return f.failErr
	}
	delete(f.profiles, id)
	for k := range f.pairs {
		if k[0] == id || k[1] == id {
			delete(f.pairs, k)
		}
	}
	delete(f.grants, id)
	return nil
}

func (f *fakeStore) AdjustCredits(_ context.Context, id int64, delta int) (int, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return 0, ErrProfileNotFound
	}
	p.Credits += delta
	return p.Credits, nil
}

func (f *fakeStore) SetCreativity(_ context.Context, id int64, text string) error {
	if p, ok := f.profiles[id]; ok {
		p.Creativity = &text
	}
	return nil
}

func (f *fakeStore) SetGender(_ context.Context, id int64, g models.Gender) error {
	if p, ok := f.profiles[id]; ok {
		p.Gender = &g
	}
	return nil
}

func (f *fakeStore) RecordPair(_ context.Context, a, b int64) error {
	f.pairs[[2]int64{a, b}] = struct{}{}
	f.pairs[[2]int64{b, a}] = struct{}{}
	return nil
}

func (f *fakeStore) HasMet(_ context.Context, a, b int64) (bool, error) {
	_, ok := f.pairs[[2]int64{a, b}]
	return ok, nil
}

func (f *fakeStore) MetPartnerIDs(_ context.Context, id int64) (map[int64]struct{}, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make(map[int64]struct{})
	for k := range f.pairs {
		if k[0] == id {
			out[k[1]] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeStore) CandidatesByCategory(_ context.Context, cat models.Category, exclude int64, gender *models.Gender) ([]models.Profile, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	var out []models.Profile
	for _, p := range f.profiles {
		if p.ChatID == exclude || p.Category != cat {
			continue
		}
		if gender != nil && (p.Gender == nil || *p.Gender != *gender) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) CommitMatch(_ context.Context, initiatorID, partnerID int64) error {
	if f.failCommit != nil {
		return f.failCommit
	}
	p, ok := f.profiles[initiatorID]
	if !ok || p.Credits < 1 {
		return storage.ErrNoCredits
	}
	p.Credits--
	f.pairs[[2]int64{initiatorID, partnerID}] = struct{}{}
	f.pairs[[2]int64{partnerID, initiatorID}] = struct{}{}
	return nil
}

func (f *fakeStore) RedeemGrant(_ context.Context, id int64, token string) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	set, ok := f.grants[id]
	if !ok {
		set = make(map[string]struct{})
		f.grants[id] = set
	}
	if _, seen := set[token]; seen {
		return true, nil
	}
	set[token] = struct{}{}
	if p, ok := f.profiles[id]; ok {
		p.Credits++
	}
	return false, nil
}

var _ Store = (*fakeStore)(nil)
