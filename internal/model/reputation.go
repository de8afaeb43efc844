package model

import "time"

// ReputationInput is the read-only aggregate a user is scored on. It is
// assembled once per scoring cycle from the external collaborators; the
// engine never maintains these counters itself. Pointer-free by design:
// "signal absent" is expressed by the guard counts (TotalReceived,
// FollowerCount, PostsPlusDeleted30d, OutboundTotal30d) being at or below
// their insufficient-signal thresholds.
type ReputationInput struct {
	UserID string

	// Lifetime received engagement.
	TotalHypesReceived int64
	TotalCoolsReceived int64

	// Rolling 30-day follower movement.
	FollowerCount     int
	FollowersLost30d  int
	FollowersGained30d int

	// Moderation signals (lifetime).
	BlockCount             int
	UnverifiedReportCount  int
	ModerationRemovalCount int

	// Activity.
	LastPostOrEngagementAt *time.Time

	// Rolling 30-day self-deletion behavior.
	VideosPosted30d  int
	VideosDeleted30d int

	// Rolling 30-day outbound engagement behavior.
	HypesGiven30d             int
	CoolsGiven30d             int
	UniqueCreatorsEngaged30d  int
}

// ReputationScore is one scoring cycle's output: six sub-scores in [0,1]
// and their fixed weighted sum.
type ReputationScore struct {
	Overall float64 `json:"overall"`

	CoolRatioHealth          float64 `json:"coolRatioHealth"`
	RetentionHealth          float64 `json:"retentionHealth"`
	ActivityHealth           float64 `json:"activityHealth"`
	CommunityHealth          float64 `json:"communityHealth"`
	IntegrityHealth          float64 `json:"integrityHealth"`
	EngagementBehaviorHealth float64 `json:"engagementBehaviorHealth"`
}

// Multiplier converts the overall score to the effective-clout multiplier.
// The 0.3 floor prevents total currency collapse in one cycle.
func (s ReputationScore) Multiplier() float64 {
	if s.Overall < 0.3 {
		return 0.3
	}
	return s.Overall
}

// ShouldEvaluateDemotion reports whether this score is low enough to run
// the tier-demotion evaluation: either the weighted overall has sunk
// below 0.4 or a single sub-score has collapsed to a severe level.
func (s ReputationScore) ShouldEvaluateDemotion() bool {
	if s.Overall < 0.4 {
		return true
	}
	for _, sub := range []float64{
		s.CoolRatioHealth, s.RetentionHealth, s.ActivityHealth,
		s.CommunityHealth, s.IntegrityHealth, s.EngagementBehaviorHealth,
	} {
		if sub <= 0.2 {
			return true
		}
	}
	return false
}

// ReputationSnapshot is the persisted result of one scoring cycle. The
// previous snapshot stays valid until replaced, so readers never see a
// missing value.
type ReputationSnapshot struct {
	UserID   string          `json:"userId"`
	Score    ReputationScore `json:"score"`
	Tier     string          `json:"tier"`
	ScoredAt time.Time       `json:"scoredAt"`
}

// ReputationEventType identifies an immediate-penalty trigger applied
// outside the daily batch.
type ReputationEventType string

const (
	EventUnfollow          ReputationEventType = "unfollow"
	EventBlock             ReputationEventType = "block"
	EventModerationRemoval ReputationEventType = "moderation_removal"
	EventSelfDeletion      ReputationEventType = "self_deletion"
)

// ReputationEventRequest is the API request body for an immediate
// reputation event.
type ReputationEventRequest struct {
	UserID string `json:"userId"`
	Event  string `json:"event"`

	// Event context. FollowerCount scales unfollow penalties; the
	// cumulative counts scale block/removal escalation; DeletedEngagement
	// is the engagement total of a self-deleted video.
	FollowerCount     int `json:"followerCount,omitempty"`
	CumulativeCount   int `json:"cumulativeCount,omitempty"`
	DeletedEngagement int `json:"deletedEngagement,omitempty"`
}
