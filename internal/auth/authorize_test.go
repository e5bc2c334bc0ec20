package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func claimsWith(role GlobalRole, perms ...AccountPermission) *Claims {
	return &Claims{
		UserID:             7,
		Username:           "tester",
		GlobalRole:         role,
		AccountPermissions: perms,
	}
}

func TestAuthorizeAccountAccess(t *testing.T) {
	tests := []struct {
		name      string
		claims    *Claims
		accountID uint64
		required  AccountRole
		want      bool
	}{
		{
			name:      "super-admin passes without any membership",
			claims:    claimsWith(RoleSuperAdmin),
			accountID: 42,
			required:  AccountSiteAdmin,
			want:      true,
		},
		{
			name:      "super-admin passes for operator requirement too",
			claims:    claimsWith(RoleSuperAdmin),
			accountID: 1,
			required:  AccountAdOperator,
			want:      true,
		},
		{
			name:      "site_admin satisfies ad_operator requirement",
			claims:    claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: AccountSiteAdmin}),
			accountID: 1,
			required:  AccountAdOperator,
			want:      true,
		},
		{
			name:      "ad_operator never satisfies site_admin requirement",
			claims:    claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: AccountAdOperator}),
			accountID: 1,
			required:  AccountSiteAdmin,
			want:      false,
		},
		{
			name:      "no membership on target account denies",
			claims:    claimsWith(RoleUser, AccountPermission{AccountID: 2, AccountRole: AccountSiteAdmin}),
			accountID: 1,
			required:  AccountAdOperator,
			want:      false,
		},
		{
			name:      "global admin without membership is not enough",
			claims:    claimsWith(RoleAdmin),
			accountID: 1,
			required:  AccountAdOperator,
			want:      false,
		},
		{
			name:      "unknown role in snapshot ranks below everything",
			claims:    claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: "viewer"}),
			accountID: 1,
			required:  AccountAdOperator,
			want:      false,
		},
		{
			name:     "nil claims denies",
			claims:   nil,
			required: AccountAdOperator,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AuthorizeAccountAccess(tt.claims, tt.accountID, tt.required)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectiveAccountRole(t *testing.T) {
	t.Run("super-admin counts as site_admin", func(t *testing.T) {
		role, ok := EffectiveAccountRole(claimsWith(RoleSuperAdmin), 99)
		assert.True(t, ok)
		assert.Equal(t, AccountSiteAdmin, role)
	})

	t.Run("membership role is surfaced", func(t *testing.T) {
		c := claimsWith(RoleUser, AccountPermission{AccountID: 3, AccountRole: AccountAdOperator})
		role, ok := EffectiveAccountRole(c, 3)
		assert.True(t, ok)
		assert.Equal(t, AccountAdOperator, role)
	})

	t.Run("no relationship is distinct from low privilege", func(t *testing.T) {
		c := claimsWith(RoleUser, AccountPermission{AccountID: 3, AccountRole: AccountSiteAdmin})
		_, ok := EffectiveAccountRole(c, 4)
		assert.False(t, ok)
	})
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, AccountSiteAdmin.AtLeast(AccountAdOperator))
	assert.True(t, AccountSiteAdmin.AtLeast(AccountSiteAdmin))
	assert.False(t, AccountAdOperator.AtLeast(AccountSiteAdmin))
	assert.False(t, AccountRole("bogus").AtLeast(AccountAdOperator))

	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleSuperAdmin))
	assert.False(t, GlobalRole("bogus").AtLeast(RoleUser))
}
