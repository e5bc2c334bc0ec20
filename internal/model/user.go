// Package model holds the table-mirroring structs shared by the
// repository layer. Handlers define their own response types with JSON
// tags where the wire shape differs from storage.
package model

import (
	"time"

	"github.com/adplatform/admin-api/internal/auth"
)

// User mirrors the `user` table. Users are never hard-deleted; Ban is
// the soft-disable flag and must fail authentication even against a
// still-valid token.
type User struct {
	ID           uint64          // user.id
	Username     string          // user.username (unique)
	PasswordHash string          // user.password
	Name         string          // user.name (display name)
	Role         auth.GlobalRole // user.role
	Ban          bool            // user.ban
	CreatedAt    time.Time       // user.created_at
	UpdatedAt    time.Time       // user.updated_at
}
