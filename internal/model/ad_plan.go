package model

import "time"

// Ad plan enum values, kept as string literals on the wire but
// validated against these sets before any write.
const (
	TargetApp      = "app"
	TargetWeb      = "web"
	TargetQuickApp = "quick_app"
	TargetMiniApp  = "mini_app"
	TargetDownload = "download"

	PriceStableCost    = "stable_cost"
	PriceMaxConversion = "max_conversion"
	PriceOptimalCost   = "optimal_cost"

	PlacementFeed         = "feed"
	PlacementBanner       = "banner"
	PlacementInterstitial = "interstitial"
	PlacementSplash       = "splash"
	PlacementVideo        = "video"
)

// Ad plan status values.
const (
	PlanStatusDraft  = 0
	PlanStatusActive = 1
	PlanStatusPaused = 2
	PlanStatusEnded  = 3
)

// ValidTargets, ValidPriceStrategies and ValidPlacements are the enum
// membership sets used by request validation.
var (
	ValidTargets         = map[string]bool{TargetApp: true, TargetWeb: true, TargetQuickApp: true, TargetMiniApp: true, TargetDownload: true}
	ValidPriceStrategies = map[string]bool{PriceStableCost: true, PriceMaxConversion: true, PriceOptimalCost: true}
	ValidPlacements      = map[string]bool{PlacementFeed: true, PlacementBanner: true, PlacementInterstitial: true, PlacementSplash: true, PlacementVideo: true}
)

// AdPlan mirrors the `ad_plan` table. AccountID is zero only for legacy
// rows created before multi-tenancy; new writes always scope a plan to
// an account. The statistics block (Cost through DownloadRate) is the
// privileged half of the field policy.
type AdPlan struct {
	ID               uint64     `json:"id"`
	Name             string     `json:"name"`
	PlanType         string     `json:"plan_type"`
	Target           string     `json:"target"`
	PriceStratagy    string     `json:"price_stratagy"`
	PlacementType    string     `json:"placement_type"`
	Status           int        `json:"status"`
	ChuangYiYouXuan  int        `json:"chuang_yi_you_xuan"`
	Budget           float64    `json:"budget"`
	Cost             float64    `json:"cost"`
	DisplayCount     int64      `json:"display_count"`
	ClickCount       int64      `json:"click_count"`
	DownloadCount    int64      `json:"download_count"`
	ClickPerPrice    float64    `json:"click_per_price"`
	ClickRate        float64    `json:"click_rate"`
	Ecpm             float64    `json:"ecpm"`
	DownloadPerCount float64    `json:"download_per_count"`
	DownloadRate     float64    `json:"download_rate"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	AccountID        uint64     `json:"account_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
