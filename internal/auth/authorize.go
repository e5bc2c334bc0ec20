package auth

// AuthorizeAccountAccess decides whether the caller may act on the given
// account at the required level. It is a pure function of the token's
// permission snapshot: super-admins pass unconditionally, everyone else
// needs a snapshot entry for the account whose role ranks at or above
// required. No database read happens here; staleness is paid for at
// token renewal instead.
func AuthorizeAccountAccess(claims *Claims, accountID uint64, required AccountRole) bool {
	if claims == nil {
		return false
	}
	if claims.GlobalRole == RoleSuperAdmin {
		return true
	}
	for _, p := range claims.AccountPermissions {
		if p.AccountID == accountID {
			return p.AccountRole.AtLeast(required)
		}
	}
	return false
}

// EffectiveAccountRole resolves the caller's role within an account for
// field-permission purposes. Super-admins count as site_admin. The
// second return is false when the caller has no relationship with the
// account at all, which callers must treat as a hard stop rather than a
// low-privilege role.
func EffectiveAccountRole(claims *Claims, accountID uint64) (AccountRole, bool) {
	if claims == nil {
		return "", false
	}
	if claims.GlobalRole == RoleSuperAdmin {
		return AccountSiteAdmin, true
	}
	for _, p := range claims.AccountPermissions {
		if p.AccountID == accountID && p.AccountRole.Valid() {
			return p.AccountRole, true
		}
	}
	return "", false
}
