package model

import "fmt"

// Tier is a user's rank in the creator ladder. The ordering is strict:
// Rookie < Riser < Creator < Influencer < Icon < CoFounder < Founder.
type Tier int

const (
	TierRookie Tier = iota
	TierRiser
	TierCreator
	TierInfluencer
	TierIcon
	TierCoFounder
	TierFounder
)

var tierNames = map[Tier]string{
	TierRookie:     "rookie",
	TierRiser:      "riser",
	TierCreator:    "creator",
	TierInfluencer: "influencer",
	TierIcon:       "icon",
	TierCoFounder:  "cofounder",
	TierFounder:    "founder",
}

// AllTiers lists every tier in ascending order. Used by the tier table
// startup validation to guarantee full coverage.
var AllTiers = []Tier{
	TierRookie, TierRiser, TierCreator, TierInfluencer,
	TierIcon, TierCoFounder, TierFounder,
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier converts a wire-format tier name to a Tier.
func ParseTier(s string) (Tier, error) {
	for t, name := range tierNames {
		if name == s {
			return t, nil
		}
	}
	return TierRookie, fmt.Errorf("unknown tier: %q", s)
}

// IsFounderClass reports whether the tier is exempt from the
// self-engagement rule (creators hyping their own videos).
func (t Tier) IsFounderClass() bool {
	return t == TierCoFounder || t == TierFounder
}

// TierParameters holds the per-tier reward math inputs.
type TierParameters struct {
	HypeCostPercent  float64 `json:"hypeCostPercent"`
	BaseClout        int     `json:"baseClout"`
	BurstClout       int     `json:"burstClout"`
	VisualMultiplier int     `json:"visualMultiplier"`
	BurstMultiplier  int     `json:"burstMultiplier"`
	MaxCloutPerVideo int     `json:"maxCloutPerVideo"`
	BurstEligible    bool    `json:"burstEligible"`
	FirstTapBonus    bool    `json:"firstTapBonus"`
}
