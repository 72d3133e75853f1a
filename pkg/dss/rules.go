package dss

import (
	"github.com/fraatlas/backend/pkg/models"
	"github.com/fraatlas/backend/pkg/schemes"
)

// input is the part of a claim and its locality the rules look at
type input struct {
	claimType models.ClaimType
	area      float64
	assets    map[models.AssetType]bool
}

func newInput(claim models.Claim, assets []models.AssetRecord) input {
	present := make(map[models.AssetType]bool, len(assets))
	for _, a := range assets {
		present[a.AssetType] = true
	}
	return input{
		claimType: claim.ClaimType,
		area:      claim.AreaHectares,
		assets:    present,
	}
}

func (in input) has(t models.AssetType) bool {
	return in.assets[t]
}

// evaluation accumulates score and reasoning in rule firing order
type evaluation struct {
	score    float64
	eligible bool
	reasons  []string
}

func (ev *evaluation) add(delta float64, reason string) {
	ev.score += delta
	ev.reasons = append(ev.reasons, reason)
}

func (ev *evaluation) qualify(delta float64, reason string) {
	ev.eligible = true
	ev.add(delta, reason)
}

type rule func(in input, ev *evaluation)

var defaultRules = map[string]rule{
	schemes.PMKisan: func(in input, ev *evaluation) {
		if in.area <= 2.0 {
			ev.qualify(0.8, "Land area is within 2 hectares limit")
		}
		if in.has(models.AssetTypeAgriculture) {
			ev.add(0.3, "Agricultural land detected in asset mapping")
		}
		if in.claimType == models.ClaimTypeIFR {
			ev.add(0.2, "Individual Forest Rights holders often engage in agriculture")
		}
	},

	schemes.JalJeevanMission: func(in input, ev *evaluation) {
		if !in.has(models.AssetTypeWaterBody) {
			ev.qualify(0.6, "No significant water bodies detected - may need water infrastructure")
		}
		if in.area > 0.5 {
			ev.add(0.2, "Sufficient land area to benefit from water infrastructure")
		}
		if in.claimType == models.ClaimTypeCFR {
			ev.add(0.3, "Community forest rights holders can benefit from village-level water projects")
		}
	},

	schemes.MGNREGA: func(in input, ev *evaluation) {
		ev.qualify(0.7, "Universal rural employment scheme")
		if in.area < 1.0 {
			ev.add(0.2, "Small landholders often need additional income sources")
		}
	},

	schemes.PMAYGramin: func(in input, ev *evaluation) {
		if in.has(models.AssetTypeHomestead) {
			ev.add(0.1, "Existing homestead may indicate housing needs")
		} else {
			ev.qualify(0.5, "No homestead detected - may need housing support")
		}
	},

	schemes.ForestRightsAct: func(in input, ev *evaluation) {
		if in.claimType == models.ClaimTypeCFR {
			ev.qualify(0.9, "Community Forest Rights claim - highly relevant")
		}
		if in.claimType == models.ClaimTypeIFR {
			ev.qualify(0.7, "Individual Forest Rights claim - relevant for implementation support")
		}
		if in.has(models.AssetTypeForest) {
			ev.add(0.3, "Forest assets detected")
		}
	},

	schemes.KrishakBandhu: func(in input, ev *evaluation) {
		if in.area <= 2.0 {
			ev.qualify(0.6, "Small/marginal farmer eligible for financial assistance")
		}
		if in.has(models.AssetTypeAgriculture) {
			ev.add(0.4, "Agricultural activities detected")
		}
	},

	schemes.SoilHealthCard: func(in input, ev *evaluation) {
		if in.has(models.AssetTypeAgriculture) {
			ev.qualify(0.8, "Agricultural land can benefit from soil health assessment")
		}
	},

	schemes.PMFBY: func(in input, ev *evaluation) {
		if in.has(models.AssetTypeAgriculture) && in.area > 0.25 {
			ev.qualify(0.7, "Agricultural land with sufficient area for crop insurance")
		}
	},
}
