package service

import (
	"testing"
	"time"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

func newTestReputationService() *ReputationService {
	return NewReputationService(NewTierService())
}

func TestWeightsSumToOne(t *testing.T) {
	sum := weightCoolRatio + weightRetention + weightActivity +
		weightCommunity + weightIntegrity + weightEngagementBehavior
	if !almostEqual(sum, 1.0, 0.0001) {
		t.Errorf("sub-score weights sum to %.4f, want 1.0", sum)
	}
}

func TestCoolRatioHealth(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name   string
		hypes  int64
		cools  int64
		want   float64
	}{
		{"insufficient signal defaults to full health", 3, 2, 1.0},
		{"exactly at guard threshold", 6, 4, 1.0},
		{"healthy creator", 500, 30, 1.0},
		{"exactly 80 percent", 80, 20, 1.0},
		{"exactly 40 percent", 40, 60, 0.1},
		{"below 40 percent", 10, 90, 0.1},
		{"midpoint 60 percent", 60, 40, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.CoolRatioHealth(tt.hypes, tt.cools)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("CoolRatioHealth(%d, %d) = %.3f, want %.3f", tt.hypes, tt.cools, got, tt.want)
			}
		})
	}
}

func TestRetentionHealth(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name      string
		followers int
		lost      int
		wantMin   float64
		wantMax   float64
	}{
		{"tiny audience defaults to full", 4, 4, 1.0, 1.0},
		{"low churn", 1000, 20, 1.0, 1.0},
		{"mid churn", 1000, 175, 0.65, 0.68},
		{"heavy churn", 1000, 400, 0.29, 0.31},
		{"catastrophic churn", 1000, 900, 0.04, 0.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.RetentionHealth(tt.followers, tt.lost)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("RetentionHealth(%d, %d) = %.3f, want [%.2f, %.2f]",
					tt.followers, tt.lost, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestActivityHealth(t *testing.T) {
	svc := newTestReputationService()
	now := time.Now()

	tests := []struct {
		name    string
		daysAgo float64
		want    float64
	}{
		{"yesterday", 1, 1.0},
		{"five days", 5, 0.85},
		{"ten days", 10, 0.7},
		{"three weeks", 21, 0.5},
		{"two months", 60, 0.3},
		{"half a year", 180, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			last := now.Add(-time.Duration(tt.daysAgo*24) * time.Hour)
			got := svc.ActivityHealth(&last, now)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("ActivityHealth(%v days ago) = %.2f, want %.2f", tt.daysAgo, got, tt.want)
			}
		})
	}

	if got := svc.ActivityHealth(nil, now); got != 0.3 {
		t.Errorf("ActivityHealth(nil) = %.2f, want 0.3", got)
	}
}

func TestCommunityHealth(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name     string
		blocks   int
		reports  int
		removals int
		want     float64
	}{
		{"clean record", 0, 0, 0, 1.0},
		{"one block", 1, 0, 0, 0.9},
		{"three blocks", 3, 0, 0, 0.8},
		{"ten blocks", 10, 0, 0, 0.5},
		{"report penalty caps", 0, 20, 0, 0.7},
		{"removal penalty caps", 0, 0, 10, 0.5},
		{"everything floors at zero", 10, 20, 10, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.CommunityHealth(tt.blocks, tt.reports, tt.removals)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("CommunityHealth(%d, %d, %d) = %.3f, want %.3f",
					tt.blocks, tt.reports, tt.removals, got, tt.want)
			}
		})
	}
}

func TestIntegrityHealth(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name    string
		posted  int
		deleted int
		want    float64
	}{
		{"no posts", 0, 0, 1.0},
		{"no deletions", 20, 0, 1.0},
		{"occasional cleanup", 19, 1, 1.0},
		{"moderate deletion", 8, 2, 0.8},
		{"heavy deletion", 6, 4, 0.5},
		{"farm and delete", 2, 8, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.IntegrityHealth(tt.posted, tt.deleted)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("IntegrityHealth(%d, %d) = %.2f, want %.2f", tt.posted, tt.deleted, got, tt.want)
			}
		})
	}
}

func TestEngagementBehaviorHealth(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name     string
		hypes    int
		cools    int
		creators int
		want     float64
	}{
		{"insufficient outbound defaults to full", 2, 3, 1, 1.0},
		{"healthy mix", 80, 10, 30, 1.0},
		{"half cools", 50, 50, 30, 0.7},
		{"mostly cools", 25, 75, 30, 0.4},
		{"overwhelming cools", 5, 95, 30, 0.2},
		{"targeted harassment", 3, 80, 2, 0.0},
		{"concentrated but light usage", 6, 8, 2, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.EngagementBehaviorHealth(tt.hypes, tt.cools, tt.creators)
			if !almostEqual(got, tt.want, 0.001) {
				t.Errorf("EngagementBehaviorHealth(%d, %d, %d) = %.3f, want %.3f",
					tt.hypes, tt.cools, tt.creators, got, tt.want)
			}
		})
	}
}

func TestScoreOverallStaysInRange(t *testing.T) {
	svc := newTestReputationService()
	now := time.Now()

	inputs := []*model.ReputationInput{
		{}, // brand new user, all signal guards active
		{
			TotalHypesReceived: 10000, TotalCoolsReceived: 100,
			FollowerCount: 5000, FollowersLost30d: 10,
			LastPostOrEngagementAt: &now,
			VideosPosted30d:        12,
			HypesGiven30d:          200, CoolsGiven30d: 10, UniqueCreatorsEngaged30d: 80,
		},
		{
			TotalHypesReceived: 5, TotalCoolsReceived: 500,
			FollowerCount: 1000, FollowersLost30d: 950,
			BlockCount: 15, UnverifiedReportCount: 40, ModerationRemovalCount: 10,
			VideosPosted30d: 1, VideosDeleted30d: 9,
			HypesGiven30d:   2, CoolsGiven30d: 98, UniqueCreatorsEngaged30d: 1,
		},
	}

	for i, in := range inputs {
		sc := svc.Score(in)
		if sc.Overall < 0 || sc.Overall > 1 {
			t.Errorf("input %d: Overall = %.4f, out of [0,1]", i, sc.Overall)
		}
		if m := sc.Multiplier(); m < 0.3 || m > 1 {
			t.Errorf("input %d: Multiplier = %.4f, out of [0.3, 1]", i, m)
		}
	}
}

func TestBrandNewUserScoresFullHealth(t *testing.T) {
	svc := newTestReputationService()
	now := time.Now()

	sc := svc.Score(&model.ReputationInput{LastPostOrEngagementAt: &now})
	if !almostEqual(sc.Overall, 1.0, 0.001) {
		t.Errorf("new active user Overall = %.4f, want 1.0", sc.Overall)
	}
	if sc.ShouldEvaluateDemotion() {
		t.Error("new active user flagged for demotion evaluation")
	}
}

func TestAbusiveOutboundTriggersDemotionEvaluation(t *testing.T) {
	svc := newTestReputationService()
	now := time.Now()

	// A user serially cooling two creators: conduct collapses even though
	// everything else is healthy.
	sc := svc.Score(&model.ReputationInput{
		TotalHypesReceived: 500, TotalCoolsReceived: 30,
		FollowerCount:          1000,
		LastPostOrEngagementAt: &now,
		HypesGiven30d:          3, CoolsGiven30d: 80, UniqueCreatorsEngaged30d: 2,
	})

	if sc.EngagementBehaviorHealth > 0.3 {
		t.Errorf("EngagementBehaviorHealth = %.3f, want <= 0.3", sc.EngagementBehaviorHealth)
	}
	if !sc.ShouldEvaluateDemotion() {
		t.Error("collapsed conduct sub-score did not trigger demotion evaluation")
	}
}

func TestEvaluateTierDemotion(t *testing.T) {
	svc := newTestReputationService()

	lowScore := model.ReputationScore{Overall: 0.2}
	healthyScore := model.ReputationScore{
		Overall:         0.9,
		CoolRatioHealth: 0.9, RetentionHealth: 0.9, ActivityHealth: 0.9,
		CommunityHealth: 0.9, IntegrityHealth: 0.9, EngagementBehaviorHealth: 0.9,
	}

	tests := []struct {
		name     string
		current  model.Tier
		rawClout int64
		score    model.ReputationScore
		want     model.Tier
	}{
		{"healthy score never demotes", model.TierIcon, 60000, healthyScore, model.TierIcon},
		{"low score demotes one level", model.TierIcon, 60000, lowScore, model.TierInfluencer},
		{"never skips levels even when effective clout maps lower", model.TierFounder, 600000, lowScore, model.TierCoFounder},
		{"rookie has no lower tier", model.TierRookie, 100, lowScore, model.TierRookie},
		{"low score but clout still covers tier", model.TierRiser, 5000, lowScore, model.TierRiser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.EvaluateTierDemotion(tt.current, tt.rawClout, tt.score)
			if got != tt.want {
				t.Errorf("EvaluateTierDemotion(%s, %d) = %s, want %s", tt.current, tt.rawClout, got, tt.want)
			}
		})
	}
}

func TestDailyRecoveryCap(t *testing.T) {
	svc := newTestReputationService()
	now := time.Now()

	// All four recovery signals present: raw sum 0.0325 exceeds the cap.
	in := &model.ReputationInput{
		TotalHypesReceived: 900, TotalCoolsReceived: 100,
		FollowersGained30d: 50, FollowersLost30d: 5,
		LastPostOrEngagementAt: &now,
		HypesGiven30d:          90, CoolsGiven30d: 10,
	}

	got := svc.DailyRecovery(in, 0.5)
	if !almostEqual(got, 0.53, 0.0001) {
		t.Errorf("DailyRecovery(all signals, 0.5) = %.4f, want 0.53", got)
	}

	// Recovery never pushes past 1.0.
	if got := svc.DailyRecovery(in, 0.99); got > 1.0 {
		t.Errorf("DailyRecovery(0.99) = %.4f, exceeds 1.0", got)
	}

	// No signals: unchanged.
	if got := svc.DailyRecovery(&model.ReputationInput{}, 0.5); !almostEqual(got, 0.5, 0.0001) {
		t.Errorf("DailyRecovery(no signals, 0.5) = %.4f, want 0.5", got)
	}
}

func TestEventPenalty(t *testing.T) {
	svc := newTestReputationService()

	tests := []struct {
		name string
		req  model.ReputationEventRequest
		want float64
	}{
		{"unfollow large audience", model.ReputationEventRequest{Event: "unfollow", FollowerCount: 10000}, 0.00005},
		{"unfollow tiny audience capped", model.ReputationEventRequest{Event: "unfollow", FollowerCount: 3}, 0.01},
		{"first block", model.ReputationEventRequest{Event: "block", CumulativeCount: 1}, 0.02},
		{"serial blocks", model.ReputationEventRequest{Event: "block", CumulativeCount: 12}, 0.10},
		{"first removal", model.ReputationEventRequest{Event: "moderation_removal", CumulativeCount: 1}, 0.05},
		{"repeat removals", model.ReputationEventRequest{Event: "moderation_removal", CumulativeCount: 7}, 0.15},
		{"deleting an unengaged video is free", model.ReputationEventRequest{Event: "self_deletion", DeletedEngagement: 2}, 0},
		{"deleting an engaged video", model.ReputationEventRequest{Event: "self_deletion", DeletedEngagement: 40}, 0.025},
		{"deletion penalty caps", model.ReputationEventRequest{Event: "self_deletion", DeletedEngagement: 1000}, 0.05},
		{"unknown event", model.ReputationEventRequest{Event: "something_else"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.EventPenalty(&tt.req)
			if !almostEqual(got, tt.want, 0.00001) {
				t.Errorf("EventPenalty(%s) = %.5f, want %.5f", tt.req.Event, got, tt.want)
			}
		})
	}
}
