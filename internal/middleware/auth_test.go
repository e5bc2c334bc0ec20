package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
)

type stubMemberships struct {
	perms []auth.AccountPermission
}

func (s stubMemberships) ListActiveForUser(context.Context, uint64) ([]auth.AccountPermission, error) {
	return s.perms, nil
}

type stubUsers struct {
	users map[uint64]model.User
}

func (s stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func newAuthFixture(t *testing.T, users stubUsers) (*auth.TokenService, echo.HandlerFunc, *echo.Echo) {
	t.Helper()
	svc := auth.NewTokenService("test-secret", time.Hour, 0, stubMemberships{})
	e := echo.New()
	ok := func(c echo.Context) error {
		claims := Identity(c)
		require.NotNil(t, claims)
		return c.NoContent(http.StatusOK)
	}
	return svc, BearerAuth(svc, users)(ok), e
}

func doRequest(e *echo.Echo, h echo.HandlerFunc, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	_ = h(e.NewContext(req, rec))
	return rec
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	users := stubUsers{users: map[uint64]model.User{7: {ID: 7, Username: "ops", Role: auth.RoleUser}}}
	svc, h, e := newAuthFixture(t, users)

	token, err := svc.Issue(7, "ops", auth.RoleUser, nil)
	require.NoError(t, err)

	rec := doRequest(e, h, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	_, h, e := newAuthFixture(t, stubUsers{})

	rec := doRequest(e, h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not provided")
}

func TestBearerAuthRejectsGarbageToken(t *testing.T) {
	_, h, e := newAuthFixture(t, stubUsers{})

	rec := doRequest(e, h, "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthRejectsWrongSignature(t *testing.T) {
	users := stubUsers{users: map[uint64]model.User{7: {ID: 7, Username: "ops"}}}
	_, h, e := newAuthFixture(t, users)

	other := auth.NewTokenService("other-secret", time.Hour, 0, stubMemberships{})
	token, err := other.Issue(7, "ops", auth.RoleUser, nil)
	require.NoError(t, err)

	rec := doRequest(e, h, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature")
}

// A ban must cut off access immediately, even though the token itself
// is still cryptographically valid and unexpired.
func TestBearerAuthRejectsBannedUser(t *testing.T) {
	users := stubUsers{users: map[uint64]model.User{7: {ID: 7, Username: "ops", Ban: true}}}
	svc, h, e := newAuthFixture(t, users)

	token, err := svc.Issue(7, "ops", auth.RoleUser, nil)
	require.NoError(t, err)

	rec := doRequest(e, h, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "banned")
}

func TestBearerAuthRejectsDeletedUser(t *testing.T) {
	svc, h, e := newAuthFixture(t, stubUsers{users: map[uint64]model.User{}})

	token, err := svc.Issue(99, "ghost", auth.RoleUser, nil)
	require.NoError(t, err)

	rec := doRequest(e, h, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuthSetsRenewedTokenHeader(t *testing.T) {
	users := stubUsers{users: map[uint64]model.User{7: {ID: 7, Username: "ops"}}}
	// Renewal window covers the whole lifetime, so any verification
	// inside the TTL reissues.
	svc := auth.NewTokenService("test-secret", time.Hour, time.Hour, stubMemberships{
		perms: []auth.AccountPermission{{AccountID: 3, AccountRole: auth.AccountSiteAdmin}},
	})
	e := echo.New()
	h := BearerAuth(svc, users)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	token, err := svc.Issue(7, "ops", auth.RoleUser, nil)
	require.NoError(t, err)

	rec := doRequest(e, h, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RenewedTokenHeader))
}

func TestRequireSuperAdmin(t *testing.T) {
	e := echo.New()
	h := RequireSuperAdmin()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"super-admin passes", &auth.Claims{UserID: 1, GlobalRole: auth.RoleSuperAdmin}, http.StatusOK},
		{"admin denied", &auth.Claims{UserID: 2, GlobalRole: auth.RoleAdmin}, http.StatusForbidden},
		{"user denied", &auth.Claims{UserID: 3, GlobalRole: auth.RoleUser}, http.StatusForbidden},
		{"anonymous denied", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			if tt.claims != nil {
				c.Set(identityKey, tt.claims)
			}
			_ = h(c)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAccountRole(t *testing.T) {
	e := echo.New()
	h := RequireAccountRole("id", auth.AccountSiteAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	operator := &auth.Claims{
		UserID:     5,
		GlobalRole: auth.RoleUser,
		AccountPermissions: []auth.AccountPermission{
			{AccountID: 10, AccountRole: auth.AccountAdOperator},
			{AccountID: 11, AccountRole: auth.AccountSiteAdmin},
		},
	}

	tests := []struct {
		name      string
		accountID string
		claims    *auth.Claims
		want      int
	}{
		{"site admin on account passes", "11", operator, http.StatusOK},
		{"operator below required role", "10", operator, http.StatusForbidden},
		{"no membership at all", "12", operator, http.StatusForbidden},
		{"super-admin bypasses membership", "12", &auth.Claims{UserID: 1, GlobalRole: auth.RoleSuperAdmin}, http.StatusOK},
		{"non-numeric account id", "abc", operator, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.accountID)
			c.Set(identityKey, tt.claims)
			_ = h(c)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
