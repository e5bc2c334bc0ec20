package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/auth"
)

func ctxWithClaims(claims *auth.Claims) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("identity", claims)
	return c, rec
}

func operatorOn(accountID uint64) *auth.Claims {
	return &auth.Claims{
		UserID:     5,
		Username:   "op",
		GlobalRole: auth.RoleUser,
		AccountPermissions: []auth.AccountPermission{
			{AccountID: accountID, AccountRole: auth.AccountAdOperator},
		},
	}
}

func siteAdminOn(accountID uint64) *auth.Claims {
	return &auth.Claims{
		UserID:     6,
		Username:   "sa",
		GlobalRole: auth.RoleUser,
		AccountPermissions: []auth.AccountPermission{
			{AccountID: accountID, AccountRole: auth.AccountSiteAdmin},
		},
	}
}

func TestResolveFieldsRequiresAccountID(t *testing.T) {
	c, rec := ctxWithClaims(operatorOn(1))

	_, _, ok := resolveFields(c, map[string]any{"name": "x"}, auth.AdPlanFields)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "account_id is required")
}

func TestResolveFieldsRejectsNonNumericAccountID(t *testing.T) {
	c, rec := ctxWithClaims(operatorOn(1))

	_, _, ok := resolveFields(c, map[string]any{"account_id": "1", "name": "x"}, auth.AdPlanFields)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "account_id must be numeric")
}

func TestResolveFieldsRejectsUnknownField(t *testing.T) {
	c, rec := ctxWithClaims(siteAdminOn(1))

	_, _, ok := resolveFields(c,
		map[string]any{"account_id": float64(1), "no_such_column": true}, auth.AdPlanFields)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field: no_such_column")
}

// An ad_operator writing statistics fields is refused outright, and
// the refusal names every denied field.
func TestResolveFieldsOperatorDeniedPrivileged(t *testing.T) {
	c, rec := ctxWithClaims(operatorOn(1))

	_, _, ok := resolveFields(c, map[string]any{
		"account_id": float64(1),
		"name":       "summer push",
		"cost":       float64(12.5),
		"ecpm":       float64(3.1),
	}, auth.AdPlanFields)
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "cost")
	assert.Contains(t, rec.Body.String(), "ecpm")
}

func TestResolveFieldsSiteAdminAllowsEverything(t *testing.T) {
	c, rec := ctxWithClaims(siteAdminOn(1))

	accountID, names, ok := resolveFields(c, map[string]any{
		"account_id": float64(1),
		"name":       "summer push",
		"cost":       float64(12.5),
	}, auth.AdPlanFields)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code) // nothing written
	assert.Equal(t, uint64(1), accountID)
	assert.Equal(t, []string{"account_id", "cost", "name"}, names)
}

// No membership on the target account denies even base fields; a
// caller bound to account 1 gets nothing on account 2.
func TestResolveFieldsNoMembershipDeniesAll(t *testing.T) {
	c, rec := ctxWithClaims(operatorOn(1))

	_, _, ok := resolveFields(c, map[string]any{
		"account_id": float64(2),
		"name":       "summer push",
	}, auth.AdPlanFields)
	assert.False(t, ok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "name")
}

func TestResolveFieldsSuperAdminBypassesMembership(t *testing.T) {
	c, rec := ctxWithClaims(&auth.Claims{UserID: 1, Username: "root", GlobalRole: auth.RoleSuperAdmin})

	_, names, ok := resolveFields(c, map[string]any{
		"account_id": float64(9),
		"cost":       float64(1),
	}, auth.AdPlanFields)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"account_id", "cost"}, names)
}

func TestCoerceAdPlanField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		want    any
		wantErr bool
	}{
		{"valid target", "target", "app", "app", false},
		{"invalid target", "target", "tv", nil, true},
		{"valid price strategy", "price_stratagy", "stable_cost", "stable_cost", false},
		{"invalid price strategy", "price_stratagy", "cheapest", nil, true},
		{"valid placement", "placement_type", "splash", "splash", false},
		{"invalid placement", "placement_type", "sidebar", nil, true},
		{"status in range", "status", float64(2), 2, false},
		{"status out of range", "status", float64(4), nil, true},
		{"status fractional", "status", 1.5, nil, true},
		{"toggle on", "chuang_yi_you_xuan", float64(1), 1, false},
		{"toggle invalid", "chuang_yi_you_xuan", float64(2), nil, true},
		{"budget negative", "budget", float64(-1), nil, true},
		{"budget ok", "budget", 250.5, 250.5, false},
		{"name blank", "name", "  ", nil, true},
		{"name trimmed", "name", " spring ", "spring", false},
		{"count negative", "click_count", float64(-3), nil, true},
		{"account id zero", "account_id", float64(0), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceAdPlanField(tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceAdPlanDates(t *testing.T) {
	got, err := coerceAdPlanField("start_date", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = coerceAdPlanField("end_date", "not-a-date")
	assert.Error(t, err)

	_, err = coerceAdPlanField("end_date", float64(20260301))
	assert.Error(t, err)
}

func TestCoerceAdCreativeField(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		want    any
		wantErr bool
	}{
		{"display id blank", "display_id", "   ", nil, true},
		{"display id ok", "display_id", "CR_001", "CR_001", false},
		{"status binary", "status", float64(1), 1, false},
		{"status out of range", "status", float64(2), nil, true},
		{"click cost ok", "click_cost", 0.35, 0.35, false},
		{"costs negative", "costs", float64(-2), nil, true},
		{"download count ok", "download_count", float64(40), 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceAdCreativeField(tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
