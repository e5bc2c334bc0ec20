package model

import (
	"time"

	"github.com/adplatform/admin-api/internal/auth"
)

// Membership mirrors the `user_account` join table, the sole source of
// per-account authorization for non-super-admin users. The
// (UserID, AccountID) pair is unique; IsActive=false is a soft revoke
// and is excluded from every permission read.
type Membership struct {
	ID        uint64           `json:"id"`
	UserID    uint64           `json:"user_id"`
	AccountID uint64           `json:"account_id"`
	Role      auth.AccountRole `json:"role"`
	IsActive  bool             `json:"is_active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
