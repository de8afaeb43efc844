package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// VideoRepo owns the external video counter record: visible hype/cool
// counts and the aggregate clout a video has collected.
type VideoRepo struct {
	pool *pgxpool.Pool
}

func NewVideoRepo(pool *pgxpool.Pool) *VideoRepo {
	return &VideoRepo{pool: pool}
}

// Get loads the counter record. Returns (nil, nil) for an unknown video.
func (r *VideoRepo) Get(ctx context.Context, videoID string) (*model.Video, error) {
	var v model.Video
	err := r.pool.QueryRow(ctx, `
		SELECT video_id, creator_id, hype_count, cool_count, total_clout,
		       deleted, created_at, last_updated
		FROM videos
		WHERE video_id = $1`,
		videoID).Scan(
		&v.VideoID, &v.CreatorID, &v.HypeCount, &v.CoolCount, &v.TotalClout,
		&v.Deleted, &v.CreatedAt, &v.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ApplyDeltas moves all three counters in a single atomic statement. The
// counters never go below zero even when a reversal races a concurrent
// read; GREATEST clamps rather than failing.
func (r *VideoRepo) ApplyDeltas(ctx context.Context, videoID string, d model.VideoDeltas) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE videos
		SET hype_count  = GREATEST(hype_count + $2, 0),
		    cool_count  = GREATEST(cool_count + $3, 0),
		    total_clout = total_clout + $4,
		    last_updated = NOW()
		WHERE video_id = $1`,
		videoID, d.Hype, d.Cool, d.Clout)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Create registers a video for its creator. Idempotent.
func (r *VideoRepo) Create(ctx context.Context, videoID, creatorID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO videos (video_id, creator_id) VALUES ($1, $2)
		ON CONFLICT (video_id) DO NOTHING`,
		videoID, creatorID)
	return err
}

// MarkDeleted flags a self-deleted video and returns how much engagement
// it had accumulated, which scales the integrity penalty.
func (r *VideoRepo) MarkDeleted(ctx context.Context, videoID string) (int, error) {
	var engagement int
	err := r.pool.QueryRow(ctx, `
		UPDATE videos
		SET deleted = TRUE, last_updated = NOW()
		WHERE video_id = $1 AND deleted = FALSE
		RETURNING hype_count + cool_count`,
		videoID).Scan(&engagement)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return engagement, err
}
