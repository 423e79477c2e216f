package services

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/core/logger"
)

// ProfileService owns profile lifecycle, credit accounting, and grant
// redemption.
type ProfileService struct {
	store Store
}

// NewProfileService wires the service to its store.
func NewProfileService(store Store) *ProfileService {
	return &ProfileService{store: store}
}

// ProfileByChatID returns the profile or nil when the user is not registered.
func (s *ProfileService) ProfileByChatID(ctx context.Context, id int64) (*models.Profile, error) {
	return s.store.Profile(ctx, id)
}

// initialCredits is granted once on registration completion.
const initialCredits = 1

// Register stores a freshly completed profile with the registration credit.
// The destructive wipe happened when the registration dialogue started, so
// this is a plain full-replace write.
func (s *ProfileService) Register(ctx context.Context, p *models.Profile) error {
	p.Credits = initialCredits
	if err := s.store.Upsert(ctx, p); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	logger.SVCProfiles.Info("profile registered",
		slog.String("event", "profile.register"),
		slog.Int64("user_id", p.ChatID),
		slog.String("category", string(p.Category)),
	)
	return nil
}

// ResetAll wipes the profile, pair history, and redeemed grants for the user.
// Used both by the explicit reset command and when registration restarts.
func (s *ProfileService) ResetAll(ctx context.Context, id int64) error {
	start := time.Now()
	if err := s.store.DeleteAll(ctx, id); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	logger.SVCProfiles.Info("profile reset",
		slog.String("event", "profile.reset"),
		slog.Int64("user_id", id),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// SaveCreativity persists the collab attribute collected mid-dialogue.
func (s *ProfileService) SaveCreativity(ctx context.Context, id int64, text string) error {
	return s.store.SetCreativity(ctx, id, text)
}

// SaveGender persists the love attribute collected mid-dialogue.
func (s *ProfileService) SaveGender(ctx context.Context, id int64, g models.Gender) error {
	return s.store.SetGender(ctx, id, g)
}

// Grant adds n credits to the user and returns the new balance.
func (s *ProfileService) Grant(ctx context.Context, id int64, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("grant: amount must be positive, got %d", n)
	}
	credits, err := s.store.AdjustCredits(ctx, id, n)
	if err != nil {
		return 0, fmt.Errorf("grant: %w", err)
	}
	logger.SVCGrants.Info("credits granted",
		slog.String("event", "grant.manual"),
		slog.Int64("user_id", id),
		slog.Int("count", n),
		slog.Int("credits", credits),
	)
	return credits, nil
}

// Redeem credits one meeting for the (id, token) pair; redeeming the same
// token twice reports alreadyRedeemed and changes nothing. Safe under
// at-least-once delivery of the same start payload.
func (s *ProfileService) Redeem(ctx context.Context, id int64, token string) (alreadyRedeemed bool, err error) {
	already, err := s.store.RedeemGrant(ctx, id, token)
	if err != nil {
		return false, fmt.Errorf("redeem: %w", err)
	}
	logger.SVCGrants.Info("grant redeemed",
		slog.String("event", "grant.redeem"),
		slog.Int64("user_id", id),
		slog.String("token", logger.SanitizeLimit(token, 64)),
		slog.Bool("collapsed", already),
	)
	return already, nil
}
