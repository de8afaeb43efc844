package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// LedgerRepo persists engagement ledgers with optimistic concurrency: the
// version column guards every write, and a lost race surfaces as
// model.ErrLedgerConflict for the orchestrator to retry.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Get loads the ledger for a (video,user) key. Returns (nil, nil) when no
// ledger exists yet.
func (r *LedgerRepo) Get(ctx context.Context, videoID, userID string) (*model.EngagementLedger, error) {
	var l model.EngagementLedger
	err := r.pool.QueryRow(ctx, `
		SELECT video_id, user_id, total_engagements, hype_engagements, cool_engagements,
		       total_clout_given, visual_given, hype_rating_spent,
		       first_engagement_at, last_engagement_at, version
		FROM engagement_ledgers
		WHERE video_id = $1 AND user_id = $2`,
		videoID, userID).Scan(
		&l.VideoID, &l.UserID, &l.TotalEngagements, &l.HypeEngagements, &l.CoolEngagements,
		&l.TotalCloutGiven, &l.VisualGiven, &l.HypeRatingSpent,
		&l.FirstEngagementAt, &l.LastEngagementAt, &l.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Put writes the ledger. A ledger with version 0 has never been persisted
// and is inserted; anything else is a version-checked update. Zero rows
// affected means another writer got there first.
func (r *LedgerRepo) Put(ctx context.Context, l *model.EngagementLedger) error {
	if l.Version == 0 {
		tag, err := r.pool.Exec(ctx, `
			INSERT INTO engagement_ledgers
				(video_id, user_id, total_engagements, hype_engagements, cool_engagements,
				 total_clout_given, visual_given, hype_rating_spent,
				 first_engagement_at, last_engagement_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
			ON CONFLICT (video_id, user_id) DO NOTHING`,
			l.VideoID, l.UserID, l.TotalEngagements, l.HypeEngagements, l.CoolEngagements,
			l.TotalCloutGiven, l.VisualGiven, l.HypeRatingSpent,
			l.FirstEngagementAt, l.LastEngagementAt)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return model.ErrLedgerConflict
		}
		l.Version = 1
		return nil
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE engagement_ledgers
		SET total_engagements = $3, hype_engagements = $4, cool_engagements = $5,
		    total_clout_given = $6, visual_given = $7, hype_rating_spent = $8,
		    first_engagement_at = $9, last_engagement_at = $10, version = version + 1
		WHERE video_id = $1 AND user_id = $2 AND version = $11`,
		l.VideoID, l.UserID, l.TotalEngagements, l.HypeEngagements, l.CoolEngagements,
		l.TotalCloutGiven, l.VisualGiven, l.HypeRatingSpent,
		l.FirstEngagementAt, l.LastEngagementAt, l.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLedgerConflict
	}
	l.Version++
	return nil
}
