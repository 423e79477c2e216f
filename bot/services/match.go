package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/core/logger"
)

// Outcome classifies the result of a match request.
type Outcome string

const (
	// OutcomeMatched means the pairing was committed.
	OutcomeMatched Outcome = "matched"
	// OutcomeNoCandidates means the category pool was empty before history
	// exclusion.
	OutcomeNoCandidates Outcome = "no_candidates"
	// OutcomeAlreadyMetAll means candidates existed but the initiator has met
	// them all.
	OutcomeAlreadyMetAll Outcome = "already_met_all"
)

// MatchResult reports a committed pairing or the reason none happened.
// PartnerNotified tracks the best-effort notification side effect only; the
// match itself is authoritative once committed.
type MatchResult struct {
	Outcome         Outcome
	Initiator       *models.Profile
	Partner         *models.Profile
	PartnerNotified bool
}

// MatchEngine selects a partner for an initiator and commits the pairing
// atomically with the credit debit.
type MatchEngine struct {
	store Store
	pick  func(n int) int
}

// MatchOption customises engine construction.
type MatchOption func(*MatchEngine)

// WithPick replaces the random candidate selector; tests use it for
// deterministic picks.
func WithPick(pick func(n int) int) MatchOption {
	return func(e *MatchEngine) {
		if pick != nil {
			e.pick = pick
		}
	}
}

// NewMatchEngine builds the engine with a uniform random tie-break.
func NewMatchEngine(store Store, opts ...MatchOption) *MatchEngine {
	e := &MatchEngine{store: store, pick: rand.IntN}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequestMatch finds a partner for the initiator in the given category.
//
// The dialogue layer is expected to have funneled the user through credit and
// attribute checks already; the engine re-checks every precondition and fails
// with typed errors rather than panicking on inconsistent state. No state is
// mutated unless a candidate is chosen, and the debit plus both pair records
// are applied as one transaction.
func (e *MatchEngine) RequestMatch(ctx context.Context, initiatorID int64, cat models.Category) (*MatchResult, error) {
	start := time.Now()

	initiator, err := e.store.Profile(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	if initiator == nil {
		return nil, ErrProfileNotFound
	}
	if initiator.Credits < 1 {
		return nil, ErrInsufficientCredits
	}
	if !initiator.HasAttributeFor(cat) {
		return nil, &MissingAttributeError{Category: cat}
	}

	var genderFilter *models.Gender
	if cat == models.CategoryLove {
		opposite := initiator.Gender.Opposite()
		genderFilter = &opposite
	}

	pool, err := e.store.CandidatesByCategory(ctx, cat, initiatorID, genderFilter)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	if len(pool) == 0 {
		e.logOutcome(initiatorID, cat, OutcomeNoCandidates, 0, 0, start)
		return &MatchResult{Outcome: OutcomeNoCandidates, Initiator: initiator}, nil
	}

	met, err := e.store.MetPartnerIDs(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	fresh := pool[:0:0]
	for _, c := range pool {
		if _, seen := met[c.ChatID]; !seen {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		e.logOutcome(initiatorID, cat, OutcomeAlreadyMetAll, len(pool), len(pool), start)
		return &MatchResult{Outcome: OutcomeAlreadyMetAll, Initiator: initiator}, nil
	}

	partner := fresh[e.pick(len(fresh))]

	if err := e.store.CommitMatch(ctx, initiatorID, partner.ChatID); err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	initiator.Credits--

	e.logOutcome(initiatorID, cat, OutcomeMatched, len(pool), len(pool)-len(fresh), start)
	return &MatchResult{
		Outcome:   OutcomeMatched,
		Initiator: initiator,
		Partner:   &partner,
	}, nil
}

func (e *MatchEngine) logOutcome(initiatorID int64, cat models.Category, outcome Outcome, candidates, excluded int, start time.Time) {
	logger.SVCMatch.Info("match request",
		slog.String("event", "match.request"),
		slog.Int64("user_id", initiatorID),
		slog.String("category", string(cat)),
		slog.String("status", outcomeStatus(outcome)),
		slog.Int("candidates", candidates),
		slog.Int("excluded", excluded),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
}

func outcomeStatus(o Outcome) string {
	if o == OutcomeMatched {
		return "ok"
	}
	return "skip"
}
