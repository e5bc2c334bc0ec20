package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccountPermission is one entry of the token's permission snapshot: the
// caller's role within a single account. The JSON keys match the payload
// shape consumed by the web frontend.
type AccountPermission struct {
	AccountID   uint64      `json:"accountId"`
	AccountRole AccountRole `json:"accountRole"`
}

// Claims is the signed session token payload. AccountPermissions is a
// point-in-time snapshot of the caller's active memberships taken at
// issuance; it goes stale until the token is reissued near expiry.
// Super-admin tokens carry no snapshot at all and are short-circuited by
// the decision functions instead.
type Claims struct {
	UserID             uint64              `json:"userId"`
	Username           string              `json:"username"`
	GlobalRole         GlobalRole          `json:"role"`
	AccountPermissions []AccountPermission `json:"accountPermissions,omitempty"`
	jwt.RegisteredClaims
}

// complete reports whether every required field survived decoding.
// Tokens minted by older builds or tampered payloads fail closed here.
func (c *Claims) complete() bool {
	return c.UserID != 0 && c.Username != "" && c.GlobalRole.Valid()
}
