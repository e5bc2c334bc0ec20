package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
)

// stubPlanStore serves a fixed set of plans and records what Update
// was called with.
type stubPlanStore struct {
	plans   map[uint64]model.AdPlan
	updated map[uint64]map[string]any
}

func (s *stubPlanStore) Create(context.Context, map[string]any) (model.AdPlan, error) {
	return model.AdPlan{}, nil
}

func (s *stubPlanStore) Update(_ context.Context, id uint64, fields map[string]any) (model.AdPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return model.AdPlan{}, repository.ErrNotFound
	}
	if s.updated == nil {
		s.updated = map[uint64]map[string]any{}
	}
	s.updated[id] = fields
	return p, nil
}

func (s *stubPlanStore) GetByID(_ context.Context, id uint64) (model.AdPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return model.AdPlan{}, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubPlanStore) ListByAccount(context.Context, uint64, int, int) ([]model.AdPlan, int, error) {
	return nil, 0, nil
}

func (s *stubPlanStore) Delete(context.Context, uint64) error { return nil }

func (s *stubPlanStore) BindGroups(context.Context, uint64, []uint64) ([]model.AdGroup, error) {
	return nil, nil
}

func (s *stubPlanStore) UnbindGroup(context.Context, uint64, uint64) error { return nil }

func (s *stubPlanStore) GroupsForPlan(context.Context, uint64) ([]model.AdGroup, error) {
	return nil, nil
}

// jsonRequest builds an echo context carrying a JSON body, an :id path
// parameter and the caller's decoded claims.
func jsonRequest(method string, claims *auth.Claims, id, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	c.Set("identity", claims)
	return c, rec
}

// Membership on the body's account alone is not enough: the plan being
// updated belongs to another account, so the request must be refused
// before anything is written.
func TestAdPlanUpdateRefusesPlanOnForeignAccount(t *testing.T) {
	store := &stubPlanStore{plans: map[uint64]model.AdPlan{
		10: {ID: 10, Name: "q4 push", AccountID: 2},
	}}
	h := NewAdPlanHandler(store)

	c, rec := jsonRequest(http.MethodPut, operatorOn(1), "10",
		`{"account_id": 1, "name": "hijacked"}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no permission on this account")
	assert.Empty(t, store.updated)
}

func TestAdPlanUpdateMoveNeedsMembershipOnBothAccounts(t *testing.T) {
	store := &stubPlanStore{plans: map[uint64]model.AdPlan{
		10: {ID: 10, Name: "q4 push", AccountID: 2},
	}}
	h := NewAdPlanHandler(store)

	// Operator on the stored account only: the move target is out of
	// reach, so the field check refuses the write.
	c, rec := jsonRequest(http.MethodPut, operatorOn(2), "10",
		`{"account_id": 1, "name": "moved"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.updated)

	// Operator on both accounts may move the plan.
	both := &auth.Claims{
		UserID:     5,
		Username:   "op",
		GlobalRole: auth.RoleUser,
		AccountPermissions: []auth.AccountPermission{
			{AccountID: 1, AccountRole: auth.AccountAdOperator},
			{AccountID: 2, AccountRole: auth.AccountAdOperator},
		},
	}
	c, rec = jsonRequest(http.MethodPut, both, "10",
		`{"account_id": 1, "name": "moved"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, store.updated, uint64(10))
	assert.Equal(t, uint64(1), store.updated[10]["account_id"])
}

func TestAdPlanUpdateMissingPlan(t *testing.T) {
	h := NewAdPlanHandler(&stubPlanStore{plans: map[uint64]model.AdPlan{}})

	c, rec := jsonRequest(http.MethodPut, operatorOn(1), "10",
		`{"account_id": 1, "name": "x"}`)
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
