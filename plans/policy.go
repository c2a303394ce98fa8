package plans

import (
	"log"
	"slices"
)

// PlanUnprovisioned is the explicit fail-closed state: any user whose plan id
// is unknown or whose profile/subscription is missing resolves here. Its
// limits mirror the free tier.
const PlanUnprovisioned = "unprovisioned"

// catalog is the static plan table. Stripe ids live in the database, not here.
var catalog = map[string]Plan{
	PlanUnprovisioned: {
		ID:       PlanUnprovisioned,
		Name:     "Unprovisioned",
		Currency: "USD",
		Price:    0,
		Limits:   Limits{Guides: 1, Blocks: 10},
		Features: []string{},
	},
	"free": {
		ID:       "free",
		Name:     "Free",
		Currency: "USD",
		Price:    0,
		Limits:   Limits{Guides: 1, Blocks: 10},
		Features: []string{},
	},
	"plus": {
		ID:       "plus",
		Name:     "Plus",
		Currency: "USD",
		Price:    9,
		Limits:   Limits{Guides: 5, Blocks: 40, MediaUploads: true, AITips: true},
		Features: []string{FeatureMediaUploads, FeatureAITips},
	},
	"pro": {
		ID:       "pro",
		Name:     "Pro",
		Currency: "USD",
		Price:    29,
		Limits:   Limits{Guides: 25, Blocks: 100, MediaUploads: true, AITips: true},
		Features: []string{FeatureMediaUploads, FeatureAITips, FeatureThemes},
	},
}

// Catalog returns the purchasable plans (unprovisioned excluded), free first.
func Catalog() []Plan {
	out := []Plan{catalog["free"], catalog["plus"], catalog["pro"]}
	return out
}

// PlanByID resolves a plan id, falling back to the unprovisioned plan for
// unknown or empty ids.
func PlanByID(id string) Plan {
	if p, ok := catalog[id]; ok && id != "" {
		return p
	}
	if id != "" {
		log.Printf("[plans][unprovisioned] unknown plan id %q, using fail-closed defaults", id)
	}
	return catalog[PlanUnprovisioned]
}

func planFor(sub *Subscription) Plan {
	if sub == nil {
		return catalog[PlanUnprovisioned]
	}
	return PlanByID(sub.PlanID)
}

// CheckLimit reports whether one more unit of resource may be created given
// currentCount existing units. The comparison is strict: a limit of 1 permits
// exactly one item. The extra_guides add-on raises the guides limit only.
func CheckLimit(sub *Subscription, resource string, currentCount int) bool {
	plan := planFor(sub)
	var limit int
	switch resource {
	case ResourceGuides:
		limit = plan.Limits.Guides
		if sub != nil {
			limit += sub.Addons.ExtraGuides
		}
	case ResourceBlocks:
		limit = plan.Limits.Blocks
	default:
		log.Printf("[plans][deny] unknown resource %q", resource)
		return false
	}
	return currentCount < limit
}

// CanUseFeature reports whether the plan grants a feature, either via its flag
// or a matching add-on.
func CanUseFeature(sub *Subscription, feature string) bool {
	plan := planFor(sub)
	switch feature {
	case FeatureMediaUploads:
		if plan.Limits.MediaUploads {
			return true
		}
	case FeatureAITips:
		if plan.Limits.AITips {
			return true
		}
	case FeatureThemes:
		if sub != nil && sub.Addons.Themes {
			return true
		}
	}
	return slices.Contains(plan.Features, feature)
}
