// Package auth implements the authorization core: the role hierarchies,
// the session token lifecycle and the field-level write policy used by
// every mutating endpoint. Decisions are made from the token's embedded
// permission snapshot only; the database is consulted solely when a
// token is reissued.
package auth

// GlobalRole is the system-wide role stored on the user record.
type GlobalRole string

const (
	RoleSuperAdmin GlobalRole = "super-admin"
	RoleAdmin      GlobalRole = "admin"
	RoleUser       GlobalRole = "user"
)

// globalRank orders global roles. Unknown roles rank zero and therefore
// never satisfy any requirement.
var globalRank = map[GlobalRole]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Valid reports whether r is one of the known global roles.
func (r GlobalRole) Valid() bool { return globalRank[r] > 0 }

// AtLeast reports whether r ranks at or above required.
func (r GlobalRole) AtLeast(required GlobalRole) bool {
	return globalRank[r] > 0 && globalRank[r] >= globalRank[required]
}

// AccountRole is the per-account role stored on a user_account row.
// It is an independent dimension from GlobalRole: a plain 'user' may be
// site_admin of one account and ad_operator of another, while
// endpoint-level requirements decide which dimension they consult.
type AccountRole string

const (
	AccountSiteAdmin  AccountRole = "site_admin"
	AccountAdOperator AccountRole = "ad_operator"
)

var accountRank = map[AccountRole]int{
	AccountAdOperator: 1,
	AccountSiteAdmin:  2,
}

// Valid reports whether r is one of the known account roles.
func (r AccountRole) Valid() bool { return accountRank[r] > 0 }

// AtLeast reports whether r ranks at or above required.
func (r AccountRole) AtLeast(required AccountRole) bool {
	return accountRank[r] > 0 && accountRank[r] >= accountRank[required]
}
