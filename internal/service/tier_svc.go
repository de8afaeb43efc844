package service

import (
	"fmt"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/model"
)

// tierTable is the versioned tier parameter set. Every tier must have an
// entry; validateTierTable enforces that at package init so a missing tier
// is a startup failure, not a runtime fallback.
const tierTableVersion = 3

var tierTable = map[model.Tier]model.TierParameters{
	model.TierRookie: {
		HypeCostPercent: 1.0, BaseClout: 1, BurstClout: 3,
		VisualMultiplier: 1, BurstMultiplier: 1, MaxCloutPerVideo: 50,
	},
	model.TierRiser: {
		HypeCostPercent: 1.2, BaseClout: 2, BurstClout: 6,
		VisualMultiplier: 1, BurstMultiplier: 1, MaxCloutPerVideo: 100,
	},
	model.TierCreator: {
		HypeCostPercent: 1.5, BaseClout: 3, BurstClout: 9,
		VisualMultiplier: 1, BurstMultiplier: 2, MaxCloutPerVideo: 200,
	},
	model.TierInfluencer: {
		HypeCostPercent: 2.0, BaseClout: 5, BurstClout: 15,
		VisualMultiplier: 1, BurstMultiplier: 3, MaxCloutPerVideo: 350,
		BurstEligible: true,
	},
	model.TierIcon: {
		HypeCostPercent: 2.5, BaseClout: 8, BurstClout: 24,
		VisualMultiplier: 1, BurstMultiplier: 5, MaxCloutPerVideo: 500,
		BurstEligible: true,
	},
	model.TierCoFounder: {
		HypeCostPercent: 3.0, BaseClout: 12, BurstClout: 36,
		VisualMultiplier: 1, BurstMultiplier: 8, MaxCloutPerVideo: 800,
		BurstEligible: true, FirstTapBonus: true,
	},
	model.TierFounder: {
		HypeCostPercent: 3.0, BaseClout: 15, BurstClout: 45,
		VisualMultiplier: 1, BurstMultiplier: 10, MaxCloutPerVideo: 1000,
		BurstEligible: true, FirstTapBonus: true,
	},
}

// cloutFloors maps each tier to the minimum effective clout that places a
// user in it. Ascending with tier order; used for demotion mapping.
var cloutFloors = map[model.Tier]int64{
	model.TierRookie:     0,
	model.TierRiser:      500,
	model.TierCreator:    2500,
	model.TierInfluencer: 10000,
	model.TierIcon:       50000,
	model.TierCoFounder:  200000,
	model.TierFounder:    500000,
}

func init() {
	if err := validateTierTable(); err != nil {
		panic(err)
	}
}

func validateTierTable() error {
	for _, t := range model.AllTiers {
		p, ok := tierTable[t]
		if !ok {
			return fmt.Errorf("tier table v%d: missing entry for %s", tierTableVersion, t)
		}
		if p.BaseClout <= 0 || p.BurstClout <= 0 || p.MaxCloutPerVideo <= 0 {
			return fmt.Errorf("tier table v%d: non-positive parameters for %s", tierTableVersion, t)
		}
		if _, ok := cloutFloors[t]; !ok {
			return fmt.Errorf("tier table v%d: missing clout floor for %s", tierTableVersion, t)
		}
	}
	return nil
}

// TierService answers tier parameter and ordering questions. Pure lookup,
// no state.
type TierService struct{}

func NewTierService() *TierService {
	return &TierService{}
}

// Parameters returns the reward math inputs for a tier. Total over all
// tiers; an unknown value (corrupt wire data) gets the rookie parameters,
// the most conservative entry, never zeroes.
func (s *TierService) Parameters(tier model.Tier) model.TierParameters {
	if p, ok := tierTable[tier]; ok {
		return p
	}
	return tierTable[model.TierRookie]
}

// Compare returns -1, 0, or 1 as a is lower than, equal to, or higher
// than b in the tier order.
func (s *TierService) Compare(a, b model.Tier) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// TierForClout maps an effective clout value to the tier whose range
// contains it.
func (s *TierService) TierForClout(clout int64) model.Tier {
	placed := model.TierRookie
	for _, t := range model.AllTiers {
		if clout >= cloutFloors[t] {
			placed = t
		}
	}
	return placed
}
