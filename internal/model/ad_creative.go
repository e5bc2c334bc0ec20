package model

import "time"

// Ad creative status values.
const (
	CreativeStatusInactive = 0
	CreativeStatusActive   = 1
)

// AdCreative mirrors the `ad_creatives` table. Costs through Ecpm are
// the privileged statistics fields.
type AdCreative struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	DisplayID    string    `json:"display_id"`
	Status       int       `json:"status"`
	Budget       float64   `json:"budget"`
	ClickCost    float64   `json:"click_cost"`
	DownloadCost float64   `json:"download_cost"`
	Costs        float64   `json:"costs"`
	DisplayCount int64     `json:"display_count"`
	ClickCount   int64     `json:"click_count"`
	ClickRate    float64   `json:"click_rate"`
	DownloadCnt  int64     `json:"download_count"`
	DownloadRate float64   `json:"download_rate"`
	Ecpm         float64   `json:"ecpm"`
	AccountID    uint64    `json:"account_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
