package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
)

type stubCreativeStore struct {
	creatives map[uint64]model.AdCreative
	updated   map[uint64]map[string]any
}

func (s *stubCreativeStore) Create(context.Context, map[string]any) (model.AdCreative, error) {
	return model.AdCreative{}, nil
}

func (s *stubCreativeStore) Update(_ context.Context, id uint64, fields map[string]any) (model.AdCreative, error) {
	cr, ok := s.creatives[id]
	if !ok {
		return model.AdCreative{}, repository.ErrNotFound
	}
	if s.updated == nil {
		s.updated = map[uint64]map[string]any{}
	}
	s.updated[id] = fields
	return cr, nil
}

func (s *stubCreativeStore) GetByID(_ context.Context, id uint64) (model.AdCreative, error) {
	cr, ok := s.creatives[id]
	if !ok {
		return model.AdCreative{}, repository.ErrNotFound
	}
	return cr, nil
}

func (s *stubCreativeStore) ListByAccount(context.Context, uint64, int, int) ([]model.AdCreative, int, error) {
	return nil, 0, nil
}

func (s *stubCreativeStore) Delete(context.Context, uint64) error { return nil }

// Same rule as ad plans: naming an account the caller belongs to in
// the body does not grant access to a creative stored under another
// account.
func TestAdCreativeUpdateRefusesCreativeOnForeignAccount(t *testing.T) {
	store := &stubCreativeStore{creatives: map[uint64]model.AdCreative{
		7: {ID: 7, Name: "spring banner", AccountID: 2},
	}}
	h := NewAdCreativeHandler(store)

	c, rec := jsonRequest(http.MethodPut, operatorOn(1), "7",
		`{"account_id": 1, "name": "hijacked"}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "no permission on this account")
	assert.Empty(t, store.updated)
}

func TestAdCreativeUpdateOnOwnAccount(t *testing.T) {
	store := &stubCreativeStore{creatives: map[uint64]model.AdCreative{
		7: {ID: 7, Name: "spring banner", AccountID: 2},
	}}
	h := NewAdCreativeHandler(store)

	c, rec := jsonRequest(http.MethodPut, operatorOn(2), "7",
		`{"account_id": 2, "name": "summer banner"}`)
	require.NoError(t, h.Update(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, store.updated, uint64(7))
	assert.Equal(t, "summer banner", store.updated[7]["name"])
}
