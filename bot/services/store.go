package services

import (
	"context"

	"github.com/m3rciful/meetbot/bot/models"
)

// Store is the durable state needed by the services. *storage.Store is the
// production implementation; tests use an in-memory fake.
type Store interface {
	Profile(ctx context.Context, id int64) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	DeleteAll(ctx context.Context, id int64) error
	AdjustCredits(ctx context.Context, id int64, delta int) (int, error)
	SetCreativity(ctx context.Context, id int64, text string) error
	SetGender(ctx context.Context, id int64, g models.Gender) error
	RecordPair(ctx context.Context, a, b int64) error
	HasMet(ctx context.Context, a, b int64) (bool, error)
	MetPartnerIDs(ctx context.Context, id int64) (map[int64]struct{}, error)
	CandidatesByCategory(ctx context.Context, cat models.Category, exclude int64, gender *models.Gender) ([]models.Profile, error)
	CommitMatch(ctx context.Context, initiatorID, partnerID int64) error
	RedeemGrant(ctx context.Context, id int64, token string) (bool, error)
}
