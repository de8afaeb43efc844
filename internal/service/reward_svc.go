package service

import (
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// RewardService computes the cost and reward of a single engagement. All
// methods are pure and deterministic; state lives in the ledger, not here.
type RewardService struct {
	tiers *TierService

	burstCostFactor     float64
	firstTapBonusFactor int
	coolPenalty         int
	diminishFullTaps    int
	diminishStep        float64
	diminishFloor       float64
}

func NewRewardService(tiers *TierService, cfg *config.Config) *RewardService {
	return &RewardService{
		tiers:               tiers,
		burstCostFactor:     cfg.BurstCostFactor,
		firstTapBonusFactor: cfg.FirstTapBonusFactor,
		coolPenalty:         cfg.CoolPenalty,
		diminishFullTaps:    cfg.DiminishFullTaps,
		diminishStep:        cfg.DiminishStep,
		diminishFloor:       cfg.DiminishFloor,
	}
}

// HypeCost returns the hype-rating cost of one tap for the tier. A burst
// tap costs the fixed burst factor times the base cost.
func (s *RewardService) HypeCost(tier model.Tier, isBurst bool) float64 {
	cost := s.tiers.Parameters(tier).HypeCostPercent
	if isBurst {
		cost *= s.burstCostFactor
	}
	return cost
}

// VisualIncrement returns the visible-counter bump for one tap. Every tier
// gets 1 for a regular tap. Burst only multiplies for burst-eligible
// tiers; the rest fall back to 1 — burst grants no extra visual benefit
// below the premium tiers.
func (s *RewardService) VisualIncrement(tier model.Tier, isBurst bool) int {
	p := s.tiers.Parameters(tier)
	if isBurst && p.BurstEligible {
		return p.BurstMultiplier
	}
	return p.VisualMultiplier
}

// CloutReward returns the clout awarded to the creator for a hype tap.
// tapNumber is 1-based. The diminishing-returns schedule blunts repeated
// taps, and the result is clamped so the per-user-per-video cap is never
// exceeded: the award truncates rather than the operation failing.
// Never negative.
func (s *RewardService) CloutReward(tier model.Tier, tapNumber int, isFirstEngagement bool, cloutAlreadyGiven int, isBurst bool) int {
	p := s.tiers.Parameters(tier)

	base := p.BaseClout
	if isBurst {
		base = p.BurstClout
	}
	if isFirstEngagement && isBurst && p.FirstTapBonus {
		base *= s.firstTapBonusFactor
	}

	clout := int(float64(base) * s.DiminishFactor(tapNumber))

	if remaining := p.MaxCloutPerVideo - cloutAlreadyGiven; clout > remaining {
		clout = remaining
	}
	if clout < 0 {
		clout = 0
	}
	return clout
}

// DiminishFactor returns the diminishing-returns multiplier for a 1-based
// tap number: the first band at 100%, then stepping down per tap to the
// configured floor.
func (s *RewardService) DiminishFactor(tapNumber int) float64 {
	if tapNumber <= s.diminishFullTaps {
		return 1.0
	}
	factor := 1.0 - float64(tapNumber-s.diminishFullTaps)*s.diminishStep
	if factor < s.diminishFloor {
		return s.diminishFloor
	}
	return factor
}

// CoolPenalty returns the signed clout delta a cool applies to the
// creator. The engager's balance is untouched; only the creator is
// debited.
func (s *RewardService) CoolPenalty() int {
	return -s.coolPenalty
}
