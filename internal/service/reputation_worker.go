package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// ReputationSource assembles the read-only scoring input for one user from
// the external aggregates. The engine never maintains these counters.
type ReputationSource interface {
	ListScoreableUsers(ctx context.Context) ([]string, error)
	Input(ctx context.Context, userID string) (*model.ReputationInput, error)
}

// ReputationStore persists snapshots and tier placements.
type ReputationStore interface {
	Snapshot(ctx context.Context, userID string) (*model.ReputationSnapshot, error)
	SaveSnapshot(ctx context.Context, snap *model.ReputationSnapshot) error
	UserStanding(ctx context.Context, userID string) (model.Tier, int64, error)
	SetTier(ctx context.Context, userID string, tier model.Tier) error
}

// ReputationWorker runs the scoring cycle: once per configured interval it
// recomputes every scoreable user's reputation with bounded parallelism,
// persists the snapshot, and applies at most one tier demotion per user.
// Per-user computations never overlap; users are independent.
type ReputationWorker struct {
	source ReputationSource
	store  ReputationStore
	svc    *ReputationService
	cache  *CacheService

	interval    time.Duration
	parallelism int
	stopCh      chan struct{}

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewReputationWorker(source ReputationSource, store ReputationStore, svc *ReputationService, cache *CacheService, cfg *config.Config) *ReputationWorker {
	p := cfg.ReputationParallelism
	if p < 1 {
		p = 1
	}
	return &ReputationWorker{
		source:      source,
		store:       store,
		svc:         svc,
		cache:       cache,
		interval:    cfg.ReputationInterval,
		parallelism: p,
		stopCh:      make(chan struct{}),
		inFlight:    make(map[string]struct{}),
	}
}

// Start begins the periodic scoring loop. Runs one cycle immediately,
// then every interval.
func (w *ReputationWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("reputation-worker: starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			log.Info().Msg("reputation-worker: stopping (context cancelled)")
			return
		case <-w.stopCh:
			log.Info().Msg("reputation-worker: stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop.
func (w *ReputationWorker) Stop() {
	close(w.stopCh)
}

// tick runs one full scoring cycle.
func (w *ReputationWorker) tick(ctx context.Context) {
	start := time.Now()

	userIDs, err := w.source.ListScoreableUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reputation-worker: list users failed")
		return
	}

	sem := make(chan struct{}, w.parallelism)
	var wg sync.WaitGroup
	var scored, failed int
	var countMu sync.Mutex

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			err := w.ScoreUser(ctx, id)
			countMu.Lock()
			if err != nil {
				failed++
				log.Warn().Err(err).Str("user_id", id).Msg("reputation-worker: scoring failed")
			} else {
				scored++
			}
			countMu.Unlock()
		}(userID)
	}
	wg.Wait()

	log.Info().
		Int("scored", scored).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("reputation-worker: cycle complete")
}

// ScoreUser recomputes one user's reputation and applies any warranted
// demotion. Safe to call concurrently; a second call for the same user
// while one is in flight is a no-op.
func (w *ReputationWorker) ScoreUser(ctx context.Context, userID string) error {
	w.mu.Lock()
	if _, busy := w.inFlight[userID]; busy {
		w.mu.Unlock()
		return nil
	}
	w.inFlight[userID] = struct{}{}
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		delete(w.inFlight, userID)
		w.mu.Unlock()
	}()

	in, err := w.source.Input(ctx, userID)
	if err != nil {
		return fmt.Errorf("assemble input: %w", err)
	}

	score := w.svc.Score(in)

	// Healing is rate-limited: a score above the previous snapshot only
	// rises as fast as the daily recovery allows. Decay applies in full.
	prev, err := w.store.Snapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if prev != nil && score.Overall > prev.Score.Overall {
		healed := w.svc.DailyRecovery(in, prev.Score.Overall)
		if score.Overall > healed {
			score.Overall = healed
		}
	}

	tier, rawClout, err := w.store.UserStanding(ctx, userID)
	if err != nil {
		return fmt.Errorf("load standing: %w", err)
	}

	newTier := w.svc.EvaluateTierDemotion(tier, rawClout, score)
	if newTier != tier {
		if err := w.store.SetTier(ctx, userID, newTier); err != nil {
			return fmt.Errorf("apply demotion: %w", err)
		}
		log.Info().Str("user_id", userID).
			Str("from", tier.String()).Str("to", newTier.String()).
			Float64("overall", score.Overall).
			Msg("reputation-worker: tier demoted")
	}

	snap := &model.ReputationSnapshot{
		UserID:   userID,
		Score:    score,
		Tier:     newTier.String(),
		ScoredAt: time.Now(),
	}
	if err := w.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	if w.cache != nil {
		if err := w.cache.SetReputation(ctx, userID, snap); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("reputation cache set failed")
		}
	}
	return nil
}

// ApplyEvent applies an immediate event penalty to the user's current
// reputation, outside the daily batch. The adjusted value persists as an
// updated snapshot so readers see it right away.
func (w *ReputationWorker) ApplyEvent(ctx context.Context, req *model.ReputationEventRequest) (*model.ReputationSnapshot, error) {
	penalty := w.svc.EventPenalty(req)
	if penalty == 0 {
		return w.LatestSnapshot(ctx, req.UserID)
	}

	snap, err := w.store.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		// No cycle has scored this user yet; start from a clean slate.
		tier, _, err := w.store.UserStanding(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("load standing: %w", err)
		}
		snap = &model.ReputationSnapshot{
			UserID: req.UserID,
			Score:  model.ReputationScore{Overall: 1.0, CoolRatioHealth: 1, RetentionHealth: 1, ActivityHealth: 1, CommunityHealth: 1, IntegrityHealth: 1, EngagementBehaviorHealth: 1},
			Tier:   tier.String(),
		}
	}

	snap.Score.Overall = clamp01(snap.Score.Overall - penalty)
	snap.ScoredAt = time.Now()

	if err := w.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	if w.cache != nil {
		if err := w.cache.InvalidateReputation(ctx, req.UserID); err != nil {
			log.Warn().Err(err).Str("user_id", req.UserID).Msg("reputation cache invalidate failed")
		}
	}
	return snap, nil
}

// LatestSnapshot returns the most recent snapshot for a user, preferring
// the cache. A user who has never been scored gets the benefit of the
// doubt: a full-health snapshot.
func (w *ReputationWorker) LatestSnapshot(ctx context.Context, userID string) (*model.ReputationSnapshot, error) {
	if w.cache != nil {
		if data, err := w.cache.GetReputation(ctx, userID); err == nil && data != nil {
			var snap model.ReputationSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := w.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		tier, _, err := w.store.UserStanding(ctx, userID)
		if err != nil {
			return nil, err
		}
		snap = &model.ReputationSnapshot{
			UserID: userID,
			Score:  model.ReputationScore{Overall: 1.0, CoolRatioHealth: 1, RetentionHealth: 1, ActivityHealth: 1, CommunityHealth: 1, IntegrityHealth: 1, EngagementBehaviorHealth: 1},
			Tier:   tier.String(),
		}
		return snap, nil
	}

	if w.cache != nil {
		if err := w.cache.SetReputation(ctx, userID, snap); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("reputation cache set failed")
		}
	}
	return snap, nil
}
