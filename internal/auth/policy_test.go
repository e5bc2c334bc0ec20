package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterWritableFields(t *testing.T) {
	operator := claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: AccountAdOperator})
	siteAdmin := claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: AccountSiteAdmin})

	tests := []struct {
		name          string
		claims        *Claims
		accountID     uint64
		requested     []string
		wantPermitted []string
		wantDenied    []string
	}{
		{
			name:          "operator keeps base fields, loses statistics",
			claims:        operator,
			accountID:     1,
			requested:     []string{"name", "cost", "budget", "ecpm"},
			wantPermitted: []string{"name", "budget"},
			wantDenied:    []string{"cost", "ecpm"},
		},
		{
			name:          "site_admin writes everything",
			claims:        siteAdmin,
			accountID:     1,
			requested:     []string{"name", "cost", "display_count", "click_rate"},
			wantPermitted: []string{"name", "cost", "display_count", "click_rate"},
		},
		{
			name:          "super-admin writes everything without membership",
			claims:        claimsWith(RoleSuperAdmin),
			accountID:     5,
			requested:     []string{"name", "cost"},
			wantPermitted: []string{"name", "cost"},
		},
		{
			name:       "no membership denies base fields too",
			claims:     operator,
			accountID:  2,
			requested:  []string{"name", "budget"},
			wantDenied: []string{"name", "budget"},
		},
		{
			name:          "unclassified field is denied, never allowed",
			claims:        siteAdmin,
			accountID:     1,
			requested:     []string{"name", "secret_flag"},
			wantPermitted: []string{"name"},
			wantDenied:    []string{"secret_flag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := FilterWritableFields(tt.claims, tt.accountID, tt.requested, AdPlanFields)
			assert.Equal(t, tt.wantPermitted, d.Permitted)
			assert.Equal(t, tt.wantDenied, d.Denied)
			assert.Equal(t, len(tt.wantDenied) == 0, d.Allowed())
		})
	}
}

func TestFilterWritableFieldsCreative(t *testing.T) {
	operator := claimsWith(RoleUser, AccountPermission{AccountID: 1, AccountRole: AccountAdOperator})

	d := FilterWritableFields(operator, 1, []string{"name", "display_id", "costs", "download_rate"}, AdCreativeFields)
	assert.Equal(t, []string{"name", "display_id"}, d.Permitted)
	assert.Equal(t, []string{"costs", "download_rate"}, d.Denied)
}

// Every mutable field must be classified by exactly one half of the
// partition; a gap would silently become a deny for site_admin writes,
// an overlap panics at init.
func TestFieldPolicyPartition(t *testing.T) {
	planMutable := []string{
		"name", "plan_type", "target", "price_stratagy", "placement_type",
		"status", "chuang_yi_you_xuan", "budget", "start_date", "end_date",
		"account_id", "cost", "display_count", "click_count", "download_count",
		"click_per_price", "click_rate", "ecpm", "download_per_count", "download_rate",
	}
	for _, f := range planMutable {
		assert.Truef(t, AdPlanFields.Known(f), "ad_plan field %q unclassified", f)
	}
	assert.Empty(t, AdPlanFields.Unknown(planMutable))

	creativeMutable := []string{
		"name", "display_id", "status", "budget", "click_cost", "download_cost",
		"account_id", "costs", "display_count", "click_count", "click_rate",
		"download_count", "download_rate", "ecpm",
	}
	for _, f := range creativeMutable {
		assert.Truef(t, AdCreativeFields.Known(f), "ad_creatives field %q unclassified", f)
	}
	assert.Empty(t, AdCreativeFields.Unknown(creativeMutable))

	assert.Equal(t, []string{"id", "created_at"}, AdPlanFields.Unknown([]string{"id", "name", "created_at"}))
}

func TestNewFieldPolicyOverlapPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewFieldPolicy([]string{"name"}, []string{"name"})
	})
}
