package model

import "time"

// AdGroup mirrors the `ad_group` table. Groups relate to plans through
// the ad_plan_ad_group join table; a group cannot be deleted while any
// binding references it.
type AdGroup struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	AccountID uint64    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
