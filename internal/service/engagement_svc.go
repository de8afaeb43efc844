package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// LedgerStore is the persistence contract for engagement ledgers. Get
// returns (nil, nil) when no ledger exists for the key. Put performs a
// version-checked write and returns model.ErrLedgerConflict when it loses
// a race; the orchestrator re-reads and retries.
type LedgerStore interface {
	Get(ctx context.Context, videoID, userID string) (*model.EngagementLedger, error)
	Put(ctx context.Context, ledger *model.EngagementLedger) error
}

// VideoRecord is the external video counter aggregate. ApplyDeltas must be
// atomic: all three counters move or none do.
type VideoRecord interface {
	Get(ctx context.Context, videoID string) (*model.Video, error)
	ApplyDeltas(ctx context.Context, videoID string, d model.VideoDeltas) error
}

// UserRecord is the external currency record: the regenerating hype-rating
// balance on the engaging side and the creator's clout ledger on the
// receiving side.
type UserRecord interface {
	CanAfford(ctx context.Context, userID string, cost float64) (bool, error)
	Deduct(ctx context.Context, userID string, cost float64) error
	Restore(ctx context.Context, userID string, cost float64) error
	CreditClout(ctx context.Context, creatorID string, delta int, side model.EngagementSide) error
	TouchActivity(ctx context.Context, userID string, at time.Time) error
}

// EngagementEventLog records outbound engagement events for the reputation
// engine's 30-day aggregates. Append is best effort: a failed append is
// logged, never rolled into the engagement result.
type EngagementEventLog interface {
	RecordEngagement(ctx context.Context, actorID, creatorID, videoID string, side model.EngagementSide, at time.Time) error
}

// Notification is a fire-and-forget push payload for the creator.
type Notification struct {
	CreatorID string
	ActorID   string
	VideoID   string
	Side      model.EngagementSide
	Clout     int
	IsBurst   bool
}

// NotificationSink delivers notifications best-effort. Failure never rolls
// back a committed engagement.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// SubmitInput is one validated engagement request.
type SubmitInput struct {
	VideoID   string
	UserID    string
	CreatorID string
	Tier      model.Tier
	Side      model.EngagementSide
	IsBurst   bool
}

const lockShards = 256

// EngagementService is the orchestrator: it validates one engagement at a
// time against the ledger, the reward calculator, and the global caps,
// then applies the mutation to the external records and the ledger.
//
// Concurrency: a striped mutex keyed by (video,user) serializes in-process
// submissions per ledger; the store's version check protects against a
// second process. External-record writes commit before the ledger write,
// so a failure can at worst waste a compensated counter update — the
// ledger never silently diverges from the visible counts.
type EngagementService struct {
	ledgers LedgerStore
	videos  VideoRecord
	users   UserRecord
	events  EngagementEventLog
	notify  NotificationSink

	reward *RewardService
	tiers  *TierService
	troll  *TrollService
	cache  *CacheService

	gracePeriod     time.Duration
	cooldown        time.Duration
	maxEngagements  int
	cloutCeiling    int
	conflictRetries int

	locks [lockShards]sync.Mutex
}

func NewEngagementService(
	ledgers LedgerStore,
	videos VideoRecord,
	users UserRecord,
	events EngagementEventLog,
	notify NotificationSink,
	reward *RewardService,
	tiers *TierService,
	troll *TrollService,
	cache *CacheService,
	cfg *config.Config,
) *EngagementService {
	return &EngagementService{
		ledgers:         ledgers,
		videos:          videos,
		users:           users,
		events:          events,
		notify:          notify,
		reward:          reward,
		tiers:           tiers,
		troll:           troll,
		cache:           cache,
		gracePeriod:     cfg.GracePeriod,
		cooldown:        cfg.Cooldown,
		maxEngagements:  cfg.MaxEngagementsPerVideo,
		cloutCeiling:    cfg.VideoCloutCeiling,
		conflictRetries: cfg.LedgerConflictRetries,
	}
}

func (s *EngagementService) lockKey(videoID, userID string) func() {
	h := fnv.New32a()
	h.Write([]byte(videoID))
	h.Write([]byte{0})
	h.Write([]byte(userID))
	mu := &s.locks[h.Sum32()%lockShards]
	mu.Lock()
	return mu.Unlock
}

// Submit processes one engagement request. Every rejection leaves the
// ledger unchanged; store conflicts are retried a bounded number of times
// before surfacing as a generic failure.
func (s *EngagementService) Submit(ctx context.Context, in SubmitInput) (*model.EngagementOutcome, error) {
	unlock := s.lockKey(in.VideoID, in.UserID)
	defer unlock()

	// Self-engagement: founders may hype their own videos, nobody else.
	if in.UserID == in.CreatorID && !in.Tier.IsFounderClass() {
		return nil, model.Reject(model.RejectSelfEngagement, "You cannot engage with your own video.")
	}

	if in.Side == model.SideCool && s.troll != nil && s.troll.IsBlocked(ctx, in.UserID, time.Now()) {
		return nil, model.Reject(model.RejectTempBlocked, "Cool actions are temporarily blocked for this account.")
	}

	var lastErr error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		out, err := s.trySubmit(ctx, in, time.Now())
		if errors.Is(err, model.ErrLedgerConflict) {
			lastErr = err
			continue
		}
		return out, err
	}
	return nil, fmt.Errorf("engagement not applied after %d conflicting writes: %w", s.conflictRetries+1, lastErr)
}

func (s *EngagementService) trySubmit(ctx context.Context, in SubmitInput, now time.Time) (*model.EngagementOutcome, error) {
	ledger, err := s.ledgers.Get(ctx, in.VideoID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if ledger == nil {
		ledger = model.NewLedger(in.VideoID, in.UserID)
	}

	// Double-submit guard, wall-clock from the ledger's own timestamp.
	if !ledger.LastEngagementAt.IsZero() && now.Sub(ledger.LastEngagementAt) < s.cooldown {
		return nil, model.Reject(model.RejectCooldownActive, "Too fast. Try again in a moment.")
	}

	// Side switch: only inside the grace period. The prior side's deltas
	// are fully reversed, but not until the fresh engagement has cleared
	// every check below; a rejected switch must leave the committed
	// history untouched.
	switching := false
	if side := ledger.Side(); side != model.SideNone && side != in.Side {
		if !ledger.IsWithinGracePeriod(now, s.gracePeriod) {
			return nil, model.Reject(model.RejectSwitchAfterGrace, "Engagement direction is locked after the grace period.")
		}
		switching = true
	}

	// Validate against the state the ledger will hold once any pending
	// reversal has run: a switch starts the count over and refunds the
	// prior side's spend.
	effEngagements := ledger.TotalEngagements
	effCloutGiven := ledger.TotalCloutGiven
	var refund float64
	if switching {
		effEngagements = 0
		effCloutGiven = 0
		refund = ledger.HypeRatingSpent
	}

	if effEngagements >= s.maxEngagements {
		return nil, model.Reject(model.RejectEngagementCap,
			fmt.Sprintf("Engagement limit of %d reached for this video.", s.maxEngagements))
	}

	params := s.tiers.Parameters(in.Tier)

	if in.Side == model.SideHype {
		if effCloutGiven >= params.MaxCloutPerVideo {
			return nil, model.Reject(model.RejectCloutCap, "You've given this video all the clout your tier allows.")
		}
		video, err := s.videos.Get(ctx, in.VideoID)
		if err != nil {
			return nil, fmt.Errorf("load video record: %w", err)
		}
		if video != nil {
			videoClout := video.TotalClout
			if switching {
				videoClout -= ledger.TotalCloutGiven
			}
			if videoClout >= s.cloutCeiling {
				return nil, model.Reject(model.RejectVideoCloutCeiling, "This video has reached its clout ceiling.")
			}
		}
	}

	var cost float64
	if in.Side == model.SideHype {
		cost = s.reward.HypeCost(in.Tier, in.IsBurst)
		need := cost - refund
		if need < 0 {
			need = 0
		}
		ok, err := s.users.CanAfford(ctx, in.UserID, need)
		if err != nil {
			return nil, fmt.Errorf("check hype rating: %w", err)
		}
		if !ok {
			return nil, model.Reject(model.RejectInsufficientHype, "Not enough hype rating. It recharges over time.")
		}
	}

	if switching {
		if err := s.reverse(ctx, ledger); err != nil {
			return nil, err
		}
	}

	// Compute the mutation.
	var (
		clout      int
		visual     int
		firstBonus bool
	)
	isFirst := ledger.FirstEngagementAt == nil
	if in.Side == model.SideHype {
		tapNumber := ledger.HypeEngagements + 1
		clout = s.reward.CloutReward(in.Tier, tapNumber, isFirst, ledger.TotalCloutGiven, in.IsBurst)
		visual = s.reward.VisualIncrement(in.Tier, in.IsBurst)
		firstBonus = isFirst && in.IsBurst && params.FirstTapBonus
	} else {
		clout = s.reward.CoolPenalty()
		visual = 1
	}

	deltas := model.VideoDeltas{Clout: clout}
	if in.Side == model.SideHype {
		deltas.Hype = visual
	} else {
		deltas.Cool = visual
	}

	// External records first, ledger last (§ apply-ordering). Any failure
	// after a partial external apply is compensated before returning.
	if err := s.applyExternal(ctx, in, cost, deltas); err != nil {
		return nil, err
	}

	if isFirst {
		ledger.FirstEngagementAt = &now
	}
	ledger.TotalEngagements++
	if in.Side == model.SideHype {
		ledger.HypeEngagements++
	} else {
		ledger.CoolEngagements++
	}
	ledger.TotalCloutGiven += clout
	ledger.VisualGiven += visual
	ledger.HypeRatingSpent += cost
	ledger.LastEngagementAt = now

	if err := s.ledgers.Put(ctx, ledger); err != nil {
		s.compensateExternal(ctx, in, cost, deltas)
		if errors.Is(err, model.ErrLedgerConflict) {
			return nil, model.ErrLedgerConflict
		}
		return nil, fmt.Errorf("commit ledger: %w", err)
	}

	s.afterApply(ctx, in, clout)

	out := &model.EngagementOutcome{
		Success:         true,
		CloutAwarded:    clout,
		VisualIncrement: visual,
		NewHypeCount:    ledger.HypeEngagements,
		NewCoolCount:    ledger.CoolEngagements,
		IsFirstTapBonus: firstBonus,
	}
	if in.Side == model.SideCool && s.troll != nil {
		out.Message = s.troll.ObserveCool(ctx, in.UserID, in.VideoID, now)
	}
	return out, nil
}

// applyExternal commits the user deduction, the video counter deltas, and
// the creator clout credit, unwinding earlier steps if a later one fails.
func (s *EngagementService) applyExternal(ctx context.Context, in SubmitInput, cost float64, deltas model.VideoDeltas) error {
	if cost > 0 {
		if err := s.users.Deduct(ctx, in.UserID, cost); err != nil {
			return fmt.Errorf("deduct hype rating: %w", err)
		}
	}

	if err := s.videos.ApplyDeltas(ctx, in.VideoID, deltas); err != nil {
		if cost > 0 {
			s.mustRestore(ctx, in.UserID, cost)
		}
		return fmt.Errorf("apply video deltas: %w", err)
	}

	if deltas.Clout != 0 {
		if err := s.users.CreditClout(ctx, in.CreatorID, deltas.Clout, in.Side); err != nil {
			s.mustApplyDeltas(ctx, in.VideoID, deltas.Inverse())
			if cost > 0 {
				s.mustRestore(ctx, in.UserID, cost)
			}
			return fmt.Errorf("credit creator clout: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateVideo(ctx, in.VideoID); err != nil {
			log.Warn().Err(err).Str("video_id", in.VideoID).Msg("cache: invalidate video failed")
		}
	}
	return nil
}

// compensateExternal reverses applyExternal after a failed ledger commit.
func (s *EngagementService) compensateExternal(ctx context.Context, in SubmitInput, cost float64, deltas model.VideoDeltas) {
	if deltas.Clout != 0 {
		if err := s.users.CreditClout(ctx, in.CreatorID, -deltas.Clout, in.Side); err != nil {
			log.Error().Err(err).Str("creator_id", in.CreatorID).Msg("compensation: clout reversal failed")
		}
	}
	s.mustApplyDeltas(ctx, in.VideoID, deltas.Inverse())
	if cost > 0 {
		s.mustRestore(ctx, in.UserID, cost)
	}
}

func (s *EngagementService) mustRestore(ctx context.Context, userID string, cost float64) {
	if err := s.users.Restore(ctx, userID, cost); err != nil {
		log.Error().Err(err).Str("user_id", userID).Float64("cost", cost).
			Msg("compensation: hype rating restore failed")
	}
}

func (s *EngagementService) mustApplyDeltas(ctx context.Context, videoID string, d model.VideoDeltas) {
	if err := s.videos.ApplyDeltas(ctx, videoID, d); err != nil {
		log.Error().Err(err).Str("video_id", videoID).Msg("compensation: video delta reversal failed")
	}
}

// afterApply runs the post-commit best-effort side work: activity touch,
// event log append, creator notification. None of it can fail the
// engagement.
func (s *EngagementService) afterApply(ctx context.Context, in SubmitInput, clout int) {
	if err := s.users.TouchActivity(ctx, in.UserID, time.Now()); err != nil {
		log.Warn().Err(err).Str("user_id", in.UserID).Msg("activity touch failed")
	}
	if s.events != nil {
		if err := s.events.RecordEngagement(ctx, in.UserID, in.CreatorID, in.VideoID, in.Side, time.Now()); err != nil {
			log.Warn().Err(err).Msg("engagement event append failed")
		}
	}
	if s.notify != nil {
		s.notify.Notify(ctx, Notification{
			CreatorID: in.CreatorID,
			ActorID:   in.UserID,
			VideoID:   in.VideoID,
			Side:      in.Side,
			Clout:     clout,
			IsBurst:   in.IsBurst,
		})
	}
}

// reverse undoes everything a ledger has applied to the external records
// and persists the reset ledger. Used for a grace-window side switch and
// for RemoveAll; the only paths allowed to fully undo history.
func (s *EngagementService) reverse(ctx context.Context, ledger *model.EngagementLedger) error {
	video, err := s.videos.Get(ctx, ledger.VideoID)
	if err != nil {
		return fmt.Errorf("load video record: %w", err)
	}

	deltas := model.VideoDeltas{Clout: -ledger.TotalCloutGiven}
	switch ledger.Side() {
	case model.SideHype:
		deltas.Hype = -ledger.VisualGiven
	case model.SideCool:
		deltas.Cool = -ledger.VisualGiven
	}

	if !deltas.IsZero() {
		if err := s.videos.ApplyDeltas(ctx, ledger.VideoID, deltas); err != nil {
			return fmt.Errorf("reverse video deltas: %w", err)
		}
	}
	if deltas.Clout != 0 && video != nil {
		if err := s.users.CreditClout(ctx, video.CreatorID, deltas.Clout, ledger.Side()); err != nil {
			s.mustApplyDeltas(ctx, ledger.VideoID, deltas.Inverse())
			return fmt.Errorf("reverse creator clout: %w", err)
		}
	}
	if ledger.HypeRatingSpent > 0 {
		if err := s.users.Restore(ctx, ledger.UserID, ledger.HypeRatingSpent); err != nil {
			log.Error().Err(err).Str("user_id", ledger.UserID).Msg("reverse: hype rating refund failed")
		}
	}

	spent := ledger.HypeRatingSpent
	side := ledger.Side()
	ledger.Reset()
	if err := s.ledgers.Put(ctx, ledger); err != nil {
		// Unwind so a conflict retry sees the pre-reversal state.
		if deltas.Clout != 0 && video != nil {
			if cerr := s.users.CreditClout(ctx, video.CreatorID, -deltas.Clout, side); cerr != nil {
				log.Error().Err(cerr).Str("creator_id", video.CreatorID).Msg("reverse compensation: clout failed")
			}
		}
		if !deltas.IsZero() {
			s.mustApplyDeltas(ctx, ledger.VideoID, deltas.Inverse())
		}
		if spent > 0 {
			if derr := s.users.Deduct(ctx, ledger.UserID, spent); derr != nil {
				log.Error().Err(derr).Str("user_id", ledger.UserID).Msg("reverse compensation: re-deduct failed")
			}
		}
		return fmt.Errorf("persist reversed ledger: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateVideo(ctx, ledger.VideoID); err != nil {
			log.Warn().Err(err).Str("video_id", ledger.VideoID).Msg("cache: invalidate video failed")
		}
	}
	return nil
}

// RemoveAll erases all engagement a user has applied to a video. Permitted
// only while the grace period is open; afterwards the history is final.
func (s *EngagementService) RemoveAll(ctx context.Context, videoID, userID string) (*model.EngagementOutcome, error) {
	unlock := s.lockKey(videoID, userID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		out, err := s.tryRemoveAll(ctx, videoID, userID, time.Now())
		if errors.Is(err, model.ErrLedgerConflict) {
			lastErr = err
			continue
		}
		return out, err
	}
	return nil, fmt.Errorf("removal not applied after %d conflicting writes: %w", s.conflictRetries+1, lastErr)
}

func (s *EngagementService) tryRemoveAll(ctx context.Context, videoID, userID string, now time.Time) (*model.EngagementOutcome, error) {
	ledger, err := s.ledgers.Get(ctx, videoID, userID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if ledger == nil || ledger.IsZero() {
		return nil, model.Reject(model.RejectNothingToRemove, "No engagement to remove.")
	}
	if !ledger.IsWithinGracePeriod(now, s.gracePeriod) {
		return nil, model.Reject(model.RejectRemovalAfterGrace, "Engagement can only be removed during the grace period.")
	}

	if err := s.reverse(ctx, ledger); err != nil {
		return nil, err
	}

	return &model.EngagementOutcome{
		Success:      true,
		NewHypeCount: 0,
		NewCoolCount: 0,
		Message:      "Engagement removed.",
	}, nil
}

// Ledger returns the current ledger for a key, or the zero ledger if none
// exists.
func (s *EngagementService) Ledger(ctx context.Context, videoID, userID string) (*model.EngagementLedger, error) {
	ledger, err := s.ledgers.Get(ctx, videoID, userID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = model.NewLedger(videoID, userID)
	}
	return ledger, nil
}

// GracePeriod exposes the configured window for read-side projections.
func (s *EngagementService) GracePeriod() time.Duration {
	return s.gracePeriod
}
