package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// ReputationRepo is both the read-only input aggregator the reputation
// engine scores from and the store its snapshots persist to. The rolling
// windows are computed by query, never incrementally maintained.
type ReputationRepo struct {
	pool *pgxpool.Pool
}

func NewReputationRepo(pool *pgxpool.Pool) *ReputationRepo {
	return &ReputationRepo{pool: pool}
}

// RecordEngagement appends one outbound engagement to the event log.
func (r *ReputationRepo) RecordEngagement(ctx context.Context, actorID, creatorID, videoID string, side model.EngagementSide, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO engagement_events (actor_id, creator_id, video_id, side, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		actorID, creatorID, videoID, string(side), at)
	return err
}

// ListScoreableUsers returns users with any activity in the last 90 days.
// Dormant accounts keep their last snapshot; rescoring them daily would
// only walk their activity score down a band they are already in.
func (r *ReputationRepo) ListScoreableUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM users
		WHERE last_active > NOW() - INTERVAL '90 days'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// Input assembles one user's scoring input across the external aggregates.
// A query against a signal with no rows yields the zero count, which the
// engine's insufficient-signal guards turn into a 1.0 sub-score.
func (r *ReputationRepo) Input(ctx context.Context, userID string) (*model.ReputationInput, error) {
	in := &model.ReputationInput{UserID: userID}

	// Lifetime received engagement from the creator's own videos.
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(hype_count), 0), COALESCE(SUM(cool_count), 0)
		FROM videos WHERE creator_id = $1`,
		userID).Scan(&in.TotalHypesReceived, &in.TotalCoolsReceived)
	if err != nil {
		return nil, err
	}

	// Follower count and 30-day movement.
	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(follower_count, 0) FROM users WHERE user_id = $1`,
		userID).Scan(&in.FollowerCount)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0)
		FROM follower_events
		WHERE user_id = $1 AND created_at > NOW() - INTERVAL '30 days'`,
		userID).Scan(&in.FollowersGained30d, &in.FollowersLost30d)
	if err != nil {
		return nil, err
	}

	// Moderation signals.
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'block' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'report' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = 'removal' THEN 1 ELSE 0 END), 0)
		FROM moderation_events
		WHERE user_id = $1`,
		userID).Scan(&in.BlockCount, &in.UnverifiedReportCount, &in.ModerationRemovalCount)
	if err != nil {
		return nil, err
	}

	// Last post-or-engagement activity.
	var lastPosted, lastActive *time.Time
	err = r.pool.QueryRow(ctx, `
		SELECT last_posted_at, last_active FROM users WHERE user_id = $1`,
		userID).Scan(&lastPosted, &lastActive)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	in.LastPostOrEngagementAt = laterOf(lastPosted, lastActive)

	// 30-day posting and self-deletion behavior.
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN deleted = FALSE THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = TRUE THEN 1 ELSE 0 END), 0)
		FROM videos
		WHERE creator_id = $1 AND created_at > NOW() - INTERVAL '30 days'`,
		userID).Scan(&in.VideosPosted30d, &in.VideosDeleted30d)
	if err != nil {
		return nil, err
	}

	// 30-day outbound conduct.
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN side = 'hype' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN side = 'cool' THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT creator_id)
		FROM engagement_events
		WHERE actor_id = $1 AND created_at > NOW() - INTERVAL '30 days'`,
		userID).Scan(&in.HypesGiven30d, &in.CoolsGiven30d, &in.UniqueCreatorsEngaged30d)
	if err != nil {
		return nil, err
	}

	return in, nil
}

// Snapshot returns the stored snapshot for a user, or (nil, nil) if the
// user has never been scored.
func (r *ReputationRepo) Snapshot(ctx context.Context, userID string) (*model.ReputationSnapshot, error) {
	var snap model.ReputationSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, overall, cool_ratio_health, retention_health, activity_health,
		       community_health, integrity_health, engagement_behavior_health,
		       tier, scored_at
		FROM reputation_snapshots
		WHERE user_id = $1`,
		userID).Scan(
		&snap.UserID, &snap.Score.Overall,
		&snap.Score.CoolRatioHealth, &snap.Score.RetentionHealth, &snap.Score.ActivityHealth,
		&snap.Score.CommunityHealth, &snap.Score.IntegrityHealth, &snap.Score.EngagementBehaviorHealth,
		&snap.Tier, &snap.ScoredAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveSnapshot upserts the latest snapshot. The previous snapshot remains
// readable until this write lands, so readers never see a missing value.
func (r *ReputationRepo) SaveSnapshot(ctx context.Context, snap *model.ReputationSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reputation_snapshots
			(user_id, overall, cool_ratio_health, retention_health, activity_health,
			 community_health, integrity_health, engagement_behavior_health, tier, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE
		SET overall = EXCLUDED.overall,
		    cool_ratio_health = EXCLUDED.cool_ratio_health,
		    retention_health = EXCLUDED.retention_health,
		    activity_health = EXCLUDED.activity_health,
		    community_health = EXCLUDED.community_health,
		    integrity_health = EXCLUDED.integrity_health,
		    engagement_behavior_health = EXCLUDED.engagement_behavior_health,
		    tier = EXCLUDED.tier,
		    scored_at = EXCLUDED.scored_at`,
		snap.UserID, snap.Score.Overall,
		snap.Score.CoolRatioHealth, snap.Score.RetentionHealth, snap.Score.ActivityHealth,
		snap.Score.CommunityHealth, snap.Score.IntegrityHealth, snap.Score.EngagementBehaviorHealth,
		snap.Tier, snap.ScoredAt)
	return err
}

// UserStanding returns the user's current tier and raw clout.
func (r *ReputationRepo) UserStanding(ctx context.Context, userID string) (model.Tier, int64, error) {
	var tierName string
	var rawClout int64
	err := r.pool.QueryRow(ctx, `
		SELECT tier, raw_clout FROM users WHERE user_id = $1`,
		userID).Scan(&tierName, &rawClout)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TierRookie, 0, nil
	}
	if err != nil {
		return model.TierRookie, 0, err
	}
	tier, err := model.ParseTier(tierName)
	if err != nil {
		return model.TierRookie, 0, err
	}
	return tier, rawClout, nil
}

// SetTier applies a tier change from a demotion evaluation.
func (r *ReputationRepo) SetTier(ctx context.Context, userID string, tier model.Tier) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET tier = $2 WHERE user_id = $1`,
		userID, tier.String())
	return err
}

func laterOf(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.After(*b):
		return a
	}
	return b
}
