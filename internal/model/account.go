package model

import "time"

// Account mirrors the `account` table: the billing and ownership
// boundary every ad entity hangs off. DisplayID is the external-facing
// identifier (e.g. "ACC_001") and must stay unique across creates and
// updates.
type Account struct {
	ID          uint64    // account.id
	Name        string    // account.name
	DisplayID   string    // account.display_id (unique)
	Balance     float64   // account.balance
	TodayCost   float64   // account.today_cost
	DailyBudget float64   // account.account_daily_budget
	CreatedAt   time.Time // account.created_at
	UpdatedAt   time.Time // account.updated_at
}
