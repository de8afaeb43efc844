package service

import (
	"math"
	"time"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// Sub-score weights. Must sum to 1.0; checked by the package tests.
const (
	weightCoolRatio          = 0.25
	weightRetention          = 0.15
	weightActivity           = 0.15
	weightCommunity          = 0.20
	weightIntegrity          = 0.10
	weightEngagementBehavior = 0.15
)

// Insufficient-signal guards: below these totals a sub-score defaults to
// 1.0 — missing data can only help a user, never hurt.
const (
	minReceivedForRatio   = 10
	minFollowersForChurn  = 5
	minOutboundForConduct = 5
)

// dailyRecoveryCap bounds how much reputation can heal in one cycle.
// Healing is strictly slower than acute decay.
const dailyRecoveryCap = 0.03

// ReputationService is the stateless scoring engine. Score and the
// per-field functions are pure; persistence and batching live in
// ReputationWorker.
type ReputationService struct {
	tiers *TierService
}

func NewReputationService(tiers *TierService) *ReputationService {
	return &ReputationService{tiers: tiers}
}

// Score computes the six health sub-scores and their weighted overall for
// one user. Run once per scoring cycle, not on every read.
func (s *ReputationService) Score(in *model.ReputationInput) model.ReputationScore {
	sc := model.ReputationScore{
		CoolRatioHealth:          s.CoolRatioHealth(in.TotalHypesReceived, in.TotalCoolsReceived),
		RetentionHealth:          s.RetentionHealth(in.FollowerCount, in.FollowersLost30d),
		ActivityHealth:           s.ActivityHealth(in.LastPostOrEngagementAt, time.Now()),
		CommunityHealth:          s.CommunityHealth(in.BlockCount, in.UnverifiedReportCount, in.ModerationRemovalCount),
		IntegrityHealth:          s.IntegrityHealth(in.VideosPosted30d, in.VideosDeleted30d),
		EngagementBehaviorHealth: s.EngagementBehaviorHealth(in.HypesGiven30d, in.CoolsGiven30d, in.UniqueCreatorsEngaged30d),
	}
	sc.Overall = clamp01(sc.CoolRatioHealth*weightCoolRatio +
		sc.RetentionHealth*weightRetention +
		sc.ActivityHealth*weightActivity +
		sc.CommunityHealth*weightCommunity +
		sc.IntegrityHealth*weightIntegrity +
		sc.EngagementBehaviorHealth*weightEngagementBehavior)
	return sc
}

// CoolRatioHealth scores the lifetime hype:cool ratio of received
// engagement. 1.0 at 80%+ hype, 0.1 below 40%, linear in between.
func (s *ReputationService) CoolRatioHealth(hypesReceived, coolsReceived int64) float64 {
	total := hypesReceived + coolsReceived
	if total <= minReceivedForRatio {
		return 1.0
	}
	ratio := float64(hypesReceived) / float64(total)
	switch {
	case ratio >= 0.80:
		return 1.0
	case ratio <= 0.40:
		return 0.1
	}
	return 0.1 + (ratio-0.40)/(0.80-0.40)*0.9
}

// RetentionHealth scores 30-day follower churn (lost/current). 1.0 under
// 5% churn; above 30% the score is proportional to what remains.
func (s *ReputationService) RetentionHealth(followerCount, followersLost30d int) float64 {
	if followerCount <= minFollowersForChurn {
		return 1.0
	}
	churn := float64(followersLost30d) / float64(followerCount)
	switch {
	case churn < 0.05:
		return 1.0
	case churn >= 0.30:
		return clamp01((1 - churn) * 0.5)
	}
	// Linear from 1.0 at 5% down to the 30% band's entry value (0.35).
	return 1.0 - (churn-0.05)/(0.30-0.05)*(1.0-0.35)
}

// ActivityHealth scores days since the last post or engagement, stepping
// down through 3/7/14/30/90-day bands. 0.3 when no activity is on record.
func (s *ReputationService) ActivityHealth(lastActivity *time.Time, now time.Time) float64 {
	if lastActivity == nil {
		return 0.3
	}
	days := now.Sub(*lastActivity).Hours() / 24
	switch {
	case days <= 3:
		return 1.0
	case days <= 7:
		return 0.85
	case days <= 14:
		return 0.7
	case days <= 30:
		return 0.5
	case days <= 90:
		return 0.3
	}
	return 0.15
}

// CommunityHealth starts at 1.0 and subtracts tiered penalties for blocks,
// a capped penalty for unverified reports, and a heavier capped penalty
// for moderation-confirmed removals. Floored at 0.
func (s *ReputationService) CommunityHealth(blocks, reports, removals int) float64 {
	score := 1.0

	switch {
	case blocks >= 10:
		score -= 0.5
	case blocks >= 6:
		score -= 0.35
	case blocks >= 3:
		score -= 0.2
	case blocks >= 1:
		score -= 0.1
	}

	score -= math.Min(0.05*float64(reports), 0.3)
	score -= math.Min(0.15*float64(removals), 0.5)

	return clamp01(score)
}

// IntegrityHealth scores the 30-day self-deletion ratio, modeling
// farm-engagement-then-delete abuse. 1.0 with no posts in the window.
func (s *ReputationService) IntegrityHealth(posted30d, deleted30d int) float64 {
	total := posted30d + deleted30d
	if total == 0 {
		return 1.0
	}
	ratio := float64(deleted30d) / float64(total)
	switch {
	case ratio < 0.10:
		return 1.0
	case ratio < 0.25:
		return 0.8
	case ratio < 0.50:
		return 0.5
	}
	return 0.2
}

// EngagementBehaviorHealth scores outbound conduct in the last 30 days:
// an escalating penalty for a cool-heavy ratio, plus an extra penalty when
// substantial engagement concentrates on fewer than 3 creators (targeted
// harassment signal).
func (s *ReputationService) EngagementBehaviorHealth(hypesGiven, coolsGiven, uniqueCreators int) float64 {
	total := hypesGiven + coolsGiven
	if total <= minOutboundForConduct {
		return 1.0
	}

	coolRatio := float64(coolsGiven) / float64(total)
	score := 1.0
	switch {
	case coolRatio >= 0.90:
		score = 0.2
	case coolRatio >= 0.70:
		score = 0.4
	case coolRatio >= 0.50:
		score = 0.7
	}

	if total > 20 && uniqueCreators < 3 {
		score -= 0.2
	}

	return clamp01(score)
}

// EvaluateTierDemotion maps a user's effective clout (raw × reputation
// multiplier) to a tier and demotes by at most one level per cycle —
// never a multi-level jump from a single bad day. Returns currentTier
// unchanged when the score doesn't warrant evaluation or the mapped tier
// isn't lower.
func (s *ReputationService) EvaluateTierDemotion(currentTier model.Tier, rawClout int64, score model.ReputationScore) model.Tier {
	if !score.ShouldEvaluateDemotion() {
		return currentTier
	}

	effective := int64(float64(rawClout) * score.Multiplier())
	mapped := s.tiers.TierForClout(effective)
	if s.tiers.Compare(mapped, currentTier) >= 0 {
		return currentTier
	}
	if currentTier == model.TierRookie {
		return currentTier
	}
	return currentTier - 1
}

// DailyRecovery returns the healed reputation value for one cycle: small
// fixed increments for posting activity, a high recent hype ratio,
// positive follower growth, and a healthy outbound ratio, capped at
// dailyRecoveryCap total.
func (s *ReputationService) DailyRecovery(in *model.ReputationInput, currentReputation float64) float64 {
	var inc float64

	if in.LastPostOrEngagementAt != nil && time.Since(*in.LastPostOrEngagementAt) <= 24*time.Hour {
		inc += 0.01
	}
	if total := in.TotalHypesReceived + in.TotalCoolsReceived; total > minReceivedForRatio {
		if float64(in.TotalHypesReceived)/float64(total) >= 0.80 {
			inc += 0.0075
		}
	}
	if in.FollowersGained30d > in.FollowersLost30d {
		inc += 0.0075
	}
	if outbound := in.HypesGiven30d + in.CoolsGiven30d; outbound > minOutboundForConduct {
		if float64(in.HypesGiven30d)/float64(outbound) >= 0.80 {
			inc += 0.0075
		}
	}

	if inc > dailyRecoveryCap {
		inc = dailyRecoveryCap
	}
	return clamp01(currentReputation + inc)
}

// EventPenalty returns the immediate reputation deduction for a single
// triggering event, applied outside the daily batch.
func (s *ReputationService) EventPenalty(req *model.ReputationEventRequest) float64 {
	switch model.ReputationEventType(req.Event) {
	case model.EventUnfollow:
		// Micro-penalty inversely scaled by audience size.
		followers := req.FollowerCount
		if followers < 1 {
			followers = 1
		}
		return math.Min(0.01, 0.5/float64(followers))
	case model.EventBlock:
		switch {
		case req.CumulativeCount >= 10:
			return 0.10
		case req.CumulativeCount >= 6:
			return 0.06
		case req.CumulativeCount >= 3:
			return 0.04
		}
		return 0.02
	case model.EventModerationRemoval:
		switch {
		case req.CumulativeCount >= 6:
			return 0.15
		case req.CumulativeCount >= 3:
			return 0.10
		}
		return 0.05
	case model.EventSelfDeletion:
		// No penalty for deleting content nobody engaged with.
		if req.DeletedEngagement < 5 {
			return 0
		}
		return math.Min(0.05, 0.005+0.0005*float64(req.DeletedEngagement))
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
