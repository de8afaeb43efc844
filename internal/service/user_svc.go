package service

import (
	"context"
	"math"
	"time"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// UserDirectory is the read side of the user record.
type UserDirectory interface {
	Find(ctx context.Context, userID string) (*model.User, error)
	Stats(ctx context.Context) (*model.StatsResponse, error)
}

// UserService assembles user standing responses: tier, balances, and the
// reputation-discounted effective clout used for tier placement.
type UserService struct {
	dir        UserDirectory
	reputation *ReputationWorker
}

func NewUserService(dir UserDirectory, reputation *ReputationWorker) *UserService {
	return &UserService{dir: dir, reputation: reputation}
}

// Lookup returns the standing response for a user.
func (s *UserService) Lookup(ctx context.Context, userID string) (*model.UserResponse, error) {
	u, err := s.dir.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	multiplier := 1.0
	if s.reputation != nil {
		if snap, err := s.reputation.LatestSnapshot(ctx, userID); err == nil && snap != nil {
			multiplier = snap.Score.Multiplier()
		}
	}

	accountAge := int(math.Floor(time.Since(u.FirstSeen).Hours() / 24))

	return &model.UserResponse{
		UserID:               u.UserID,
		Tier:                 u.Tier.String(),
		HypeRating:           u.HypeRating,
		RawClout:             u.RawClout,
		EffectiveClout:       int64(float64(u.RawClout) * multiplier),
		ReputationMultiplier: multiplier,
		AccountAge:           accountAge,
	}, nil
}

// GetStats returns aggregate platform statistics.
func (s *UserService) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	return s.dir.Stats(ctx)
}
