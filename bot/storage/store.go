// Package storage implements the durable profile store on Postgres.
// All mutations of profiles, pair history, and grant redemptions go through
// this package; the match commit is a single transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"log/slog"

	"github.com/m3rciful/meetbot/bot/models"
	"github.com/m3rciful/meetbot/core/logger"
)

var (
	// ErrUnavailable indicates the backing store cannot be reached.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrNoCredits indicates the match debit found no spendable credit.
	ErrNoCredits = errors.New("no meeting credits left")
)

const defaultOpTimeout = 3 * time.Second

// Store wraps the database handle and bounds every operation with a timeout,
// so callers are told the store is unavailable instead of hanging.
type Store struct {
	db        *sqlx.DB
	opTimeout time.Duration
}

// New creates a Store. A nil db yields a degraded store whose operations all
// fail with ErrUnavailable.
func New(db *sqlx.DB) *Store {
	return &Store{db: db, opTimeout: defaultOpTimeout}
}

// Available reports whether the store has a usable database handle.
func (s *Store) Available() bool {
	return s != nil && s.db != nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if !s.Available() {
		return nil
	}
	return s.db.Close()
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) guard() error {
	if !s.Available() {
		return ErrUnavailable
	}
	return nil
}

func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Profile returns the stored profile or nil when no row exists.
func (s *Store) Profile(ctx context.Context, id int64) (*models.Profile, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var p models.Profile
	err := s.db.GetContext(ctx, &p,
		`SELECT chat_id, name, bio, contact, category, credits, creativity, gender
		   FROM profiles WHERE chat_id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapOp("profile get", err)
	}
	return &p, nil
}

// Upsert stores the profile wholesale, replacing any previous row for the key.
func (s *Store) Upsert(ctx context.Context, p *models.Profile) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (chat_id, name, bio, contact, category, credits, creativity, gender)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (chat_id) DO UPDATE SET
		   name = EXCLUDED.name, bio = EXCLUDED.bio, contact = EXCLUDED.contact,
		   category = EXCLUDED.category, credits = EXCLUDED.credits,
		   creativity = EXCLUDED.creativity, gender = EXCLUDED.gender`,
		p.ChatID, p.Name, p.Bio, p.Contact, p.Category, p.Credits, p.Creativity, p.Gender)
	return wrapOp("profile upsert", err)
}

// InsertIfAbsent stores the profile only when no row exists for the key.
// Used by seeding so repeated boots do not reset decoy profiles.
func (s *Store) InsertIfAbsent(ctx context.Context, p *models.Profile) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (chat_id, name, bio, contact, category, credits, creativity, gender)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (chat_id) DO NOTHING`,
		p.ChatID, p.Name, p.Bio, p.Contact, p.Category, p.Credits, p.Creativity, p.Gender)
	if err != nil {
		return false, wrapOp("profile insert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapOp("profile insert", err)
	}
	return n > 0, nil
}

// DeleteAll removes the profile together with all pair history and grant
// redemptions that reference the id. A fresh registration discards history.
func (s *Store) DeleteAll(ctx context.Context, id int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapOp("delete all", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM profiles WHERE chat_id = $1`,
		`DELETE FROM pairs WHERE user_id = $1 OR partner_id = $1`,
		`DELETE FROM grants WHERE chat_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return wrapOp("delete all", err)
		}
	}
	return wrapOp("delete all", tx.Commit())
}

// AdjustCredits changes the credit balance by delta and returns the new value.
func (s *Store) AdjustCredits(ctx context.Context, id int64, delta int) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var credits int
	err := s.db.GetContext(ctx, &credits,
		`UPDATE profiles SET credits = credits + $2 WHERE chat_id = $1 RETURNING credits`,
		id, delta)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, wrapOp("adjust credits", sql.ErrNoRows)
	}
	return credits, wrapOp("adjust credits", err)
}

// SetCreativity updates the collab attribute for an existing profile.
func (s *Store) SetCreativity(ctx context.Context, id int64, text string) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET creativity = $2 WHERE chat_id = $1`, id, text)
	return wrapOp("set creativity", err)
}

// SetGender updates the love attribute for an existing profile.
func (s *Store) SetGender(ctx context.Context, id int64, g models.Gender) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET gender = $2 WHERE chat_id = $1`, id, string(g))
	return wrapOp("set gender", err)
}

// RecordPair inserts both directions of a pairing. Duplicates are ignored, so
// the operation is idempotent.
func (s *Store) RecordPair(ctx context.Context, a, b int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapOp("record pair", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertPair(ctx, tx, a, b); err != nil {
		return wrapOp("record pair", err)
	}
	if err := insertPair(ctx, tx, b, a); err != nil {
		return wrapOp("record pair", err)
	}
	return wrapOp("record pair", tx.Commit())
}

func insertPair(ctx context.Context, tx *sqlx.Tx, from, to int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO pairs (user_id, partner_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, partner_id) DO NOTHING`, from, to)
	return err
}

// HasMet reports whether a has already been paired with b.
func (s *Store) HasMet(ctx context.Context, a, b int64) (bool, error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var met bool
	err := s.db.GetContext(ctx, &met,
		`SELECT EXISTS (SELECT 1 FROM pairs WHERE user_id = $1 AND partner_id = $2)`, a, b)
	return met, wrapOp("has met", err)
}

// MetPartnerIDs returns the set of partners already paired with id.
func (s *Store) MetPartnerIDs(ctx context.Context, id int64) (map[int64]struct{}, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT partner_id FROM pairs WHERE user_id = $1`, id); err != nil {
		return nil, wrapOp("met partners", err)
	}
	met := make(map[int64]struct{}, len(ids))
	for _, pid := range ids {
		met[pid] = struct{}{}
	}
	return met, nil
}

// CandidatesByCategory returns profiles in the category other than exclude.
// When gender is non-nil the pool is restricted to that gender. Pair history
// is not consulted here; exclusion of met partners happens in the engine.
func (s *Store) CandidatesByCategory(ctx context.Context, cat models.Category, exclude int64, gender *models.Gender) ([]models.Profile, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var (
		rows []models.Profile
		err  error
	)
	if gender != nil {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT chat_id, name, bio, contact, category, credits, creativity, gender
			   FROM profiles WHERE category = $1 AND chat_id <> $2 AND gender = $3`,
			cat, exclude, string(*gender))
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT chat_id, name, bio, contact, category, credits, creativity, gender
			   FROM profiles WHERE category = $1 AND chat_id <> $2`,
			cat, exclude)
	}
	return rows, wrapOp("candidates", err)
}

// CommitMatch applies the match transaction: debit one credit from the
// initiator and record both pair directions. The three writes are
// all-or-nothing; a partial application would let a user be re-matched with
// the same partner while a credit is lost.
func (s *Store) CommitMatch(ctx context.Context, initiatorID, partnerID int64) error {
	if err := s.guard(); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return wrapOp("commit match", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET credits = credits - 1 WHERE chat_id = $1 AND credits >= 1`,
		initiatorID)
	if err != nil {
		return wrapOp("commit match", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapOp("commit match", err)
	}
	if n == 0 {
		return ErrNoCredits
	}

	if err := insertPair(ctx, tx, initiatorID, partnerID); err != nil {
		return wrapOp("commit match", err)
	}
	if err := insertPair(ctx, tx, partnerID, initiatorID); err != nil {
		return wrapOp("commit match", err)
	}
	if err := tx.Commit(); err != nil {
		return wrapOp("commit match", err)
	}

	logger.DB.Debug("match committed",
		slog.String("event", "db.match_commit"),
		slog.Int64("user_id", initiatorID),
		slog.Int64("partner_id", partnerID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// RedeemGrant credits one meeting for the (id, token) pair. Redeeming the
// same pair again is a no-op and reports alreadyRedeemed.
func (s *Store) RedeemGrant(ctx context.Context, id int64, token string) (alreadyRedeemed bool, err error) {
	if err := s.guard(); err != nil {
		return false, err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, wrapOp("redeem grant", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO grants (chat_id, token) VALUES ($1, $2)
		 ON CONFLICT (chat_id, token) DO NOTHING`, id, token)
	if err != nil {
		return false, wrapOp("redeem grant", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapOp("redeem grant", err)
	}
	if n == 0 {
		return true, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET credits = credits + 1 WHERE chat_id = $1`, id); err != nil {
		return false, wrapOp("redeem grant", err)
	}
	return false, wrapOp("redeem grant", tx.Commit())
}
