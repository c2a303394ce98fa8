package plans

import "time"

type Limits struct {
	Guides       int  `json:"guides"`
	Blocks       int  `json:"blocks"`
	MediaUploads bool `json:"media_uploads"`
	AITips       bool `json:"ai_tips"`
}

type Plan struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Currency        string   `json:"currency"`
	Price           float64  `json:"price"`
	Limits          Limits   `json:"limits"`
	Features        []string `json:"features"`
	StripeProductID string   `json:"stripe_product_id,omitempty"`
	StripePriceID   string   `json:"stripe_price_id,omitempty"`
}

type Addons struct {
	Themes      bool `json:"themes,omitempty"`
	ExtraGuides int  `json:"extra_guides,omitempty"`
}

type Subscription struct {
	ID               int        `json:"id"`
	UserID           int        `json:"user_id"`
	PlanID           string     `json:"plan_id"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	Addons           Addons     `json:"addons,omitempty"`
	Plan             *Plan      `json:"subscription_plan,omitempty"`
}

// Resource names accepted by CheckLimit.
const (
	ResourceGuides = "guides"
	ResourceBlocks = "blocks"
)

// Feature names accepted by CanUseFeature.
const (
	FeatureMediaUploads = "media_uploads"
	FeatureAITips       = "ai_tips"
	FeatureThemes       = "themes"
)
