package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// Default balances for auto-created accounts.
const (
	defaultHypeRating    = 100.0
	defaultMaxHypeRating = 100.0
)

// UserRepo owns the user currency record: the regenerating hype-rating
// balance, the clout ledger, and tier placement.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Find returns a user row. Auto-creates unknown users with defaults, the
// same way the ledger is created lazily on first engagement.
func (r *UserRepo) Find(ctx context.Context, userID string) (*model.User, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return nil, err
	}

	var u model.User
	var tierName string
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, tier, hype_rating, max_hype_rating, raw_clout,
		       first_seen, last_active, last_posted_at
		FROM users
		WHERE user_id = $1`,
		userID).Scan(
		&u.UserID, &tierName, &u.HypeRating, &u.MaxHypeRating, &u.RawClout,
		&u.FirstSeen, &u.LastActive, &u.LastPostedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Tier, err = model.ParseTier(tierName)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ensure(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, tier, hype_rating, max_hype_rating)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, model.TierRookie.String(), defaultHypeRating, defaultMaxHypeRating)
	return err
}

// CanAfford reports whether the user's hype rating covers the cost, after
// applying the time-based regeneration.
func (r *UserRepo) CanAfford(ctx context.Context, userID string, cost float64) (bool, error) {
	if err := r.ensure(ctx, userID); err != nil {
		return false, err
	}
	if err := r.regenerate(ctx, userID); err != nil {
		return false, err
	}

	var balance float64
	err := r.pool.QueryRow(ctx, `SELECT hype_rating FROM users WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		return false, err
	}
	return balance >= cost, nil
}

// regenerate tops the balance up by 1 point per minute since the last
// spend, capped at the user's maximum.
func (r *UserRepo) regenerate(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET hype_rating = LEAST(
			hype_rating + EXTRACT(EPOCH FROM (NOW() - last_spend_at)) / 60.0,
			max_hype_rating),
		    last_spend_at = NOW()
		WHERE user_id = $1 AND hype_rating < max_hype_rating`,
		userID)
	return err
}

// Deduct spends hype rating. The balance guard in the WHERE clause makes
// the spend race-safe: a concurrent spend that would overdraw affects
// zero rows and fails here instead of going negative.
func (r *UserRepo) Deduct(ctx context.Context, userID string, cost float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET hype_rating = hype_rating - $2, last_spend_at = NOW()
		WHERE user_id = $1 AND hype_rating >= $2`,
		userID, cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hype rating balance below %.2f for user %s", cost, userID)
	}
	return nil
}

// Restore refunds a spend (server-side rejection compensation), capped at
// the user's maximum.
func (r *UserRepo) Restore(ctx context.Context, userID string, cost float64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET hype_rating = LEAST(hype_rating + $2, max_hype_rating)
		WHERE user_id = $1`,
		userID, cost)
	return err
}

// CreditClout applies a signed clout delta to a creator's ledger.
func (r *UserRepo) CreditClout(ctx context.Context, creatorID string, delta int, _ model.EngagementSide) error {
	if err := r.ensure(ctx, creatorID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET raw_clout = raw_clout + $2 WHERE user_id = $1`,
		creatorID, delta)
	return err
}

// TouchActivity bumps the user's last-active timestamp.
func (r *UserRepo) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET last_active = $2 WHERE user_id = $1`,
		userID, at)
	return err
}

// Stats returns aggregate platform statistics.
func (r *UserRepo) Stats(ctx context.Context) (*model.StatsResponse, error) {
	var stats model.StatsResponse
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM videos WHERE deleted = FALSE) AS total_videos,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM engagement_events) AS total_engagements,
			(SELECT COALESCE(SUM(hype_count), 0) FROM videos) AS total_hypes,
			(SELECT COALESCE(SUM(cool_count), 0) FROM videos) AS total_cools,
			(SELECT COALESCE(SUM(total_clout), 0) FROM videos) AS total_clout,
			(SELECT COUNT(*) FROM users WHERE last_active > NOW() - INTERVAL '24 hours') AS active_users_24h`).
		Scan(&stats.TotalVideos, &stats.TotalUsers, &stats.TotalEngagements,
			&stats.TotalHypes, &stats.TotalCools, &stats.TotalClout, &stats.ActiveUsers24h)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
