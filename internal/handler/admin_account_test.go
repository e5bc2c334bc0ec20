package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
)

// stubAccountStore keeps accounts in memory with the same display_id
// exclusion rule as the SQL layer: a display id is taken only when a
// different account holds it.
type stubAccountStore struct {
	accounts map[uint64]model.Account
	nextID   uint64
}

func (s *stubAccountStore) displayIDTaken(displayID string, excludeID uint64) bool {
	for id, a := range s.accounts {
		if a.DisplayID == displayID && id != excludeID {
			return true
		}
	}
	return false
}

func (s *stubAccountStore) Create(_ context.Context, a *model.Account) error {
	if s.displayIDTaken(a.DisplayID, 0) {
		return repository.ErrDisplayIDTaken
	}
	s.nextID++
	a.ID = s.nextID
	s.accounts[a.ID] = *a
	return nil
}

func (s *stubAccountStore) Update(_ context.Context, id uint64, fields map[string]any) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	if v, ok := fields["display_id"].(string); ok {
		if s.displayIDTaken(v, id) {
			return model.Account{}, repository.ErrDisplayIDTaken
		}
		a.DisplayID = v
	}
	if v, ok := fields["name"].(string); ok {
		a.Name = v
	}
	s.accounts[id] = a
	return a, nil
}

func (s *stubAccountStore) GetByID(_ context.Context, id uint64) (model.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *stubAccountStore) List(context.Context) ([]model.Account, error) { return nil, nil }

func (s *stubAccountStore) ListByIDs(context.Context, []uint64) ([]model.Account, error) {
	return nil, nil
}

func (s *stubAccountStore) Charge(_ context.Context, id uint64, _ float64) (model.Account, error) {
	return s.accounts[id], nil
}

func (s *stubAccountStore) ResetTodayCost(context.Context) error { return nil }

func newAccountFixture() (*AccountHandler, *stubAccountStore) {
	store := &stubAccountStore{
		accounts: map[uint64]model.Account{
			1: {ID: 1, Name: "alpha", DisplayID: "ACC_001"},
			2: {ID: 2, Name: "beta", DisplayID: "ACC_002"},
		},
		nextID: 2,
	}
	return NewAccountHandler(store), store
}

func superAdmin() *auth.Claims {
	return &auth.Claims{UserID: 1, Username: "root", GlobalRole: auth.RoleSuperAdmin}
}

func TestAccountCreateRejectsDuplicateDisplayID(t *testing.T) {
	h, store := newAccountFixture()

	c, rec := jsonRequest(http.MethodPost, superAdmin(), "",
		`{"name": "gamma", "display_id": "ACC_001"}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "display_id already exists")
	assert.Len(t, store.accounts, 2)
}

// Saving an account without changing its display_id must not trip the
// uniqueness check: the row being updated is excluded from it.
func TestAccountUpdateKeepsOwnDisplayID(t *testing.T) {
	h, store := newAccountFixture()

	c, rec := jsonRequest(http.MethodPut, siteAdminOn(1), "1",
		`{"name": "alpha renamed", "display_id": "ACC_001"}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alpha renamed", store.accounts[1].Name)
	assert.Equal(t, "ACC_001", store.accounts[1].DisplayID)
}

func TestAccountUpdateRejectsTakenDisplayID(t *testing.T) {
	h, store := newAccountFixture()

	c, rec := jsonRequest(http.MethodPut, siteAdminOn(1), "1",
		`{"display_id": "ACC_002"}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "display_id already exists")
	assert.Equal(t, "ACC_001", store.accounts[1].DisplayID)
}
