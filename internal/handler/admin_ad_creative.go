package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// CreativeStore is the persistence surface the ad creative handler
// needs. *repository.AdCreativeRepo satisfies it.
type CreativeStore interface {
	Create(ctx context.Context, fields map[string]any) (model.AdCreative, error)
	Update(ctx context.Context, id uint64, fields map[string]any) (model.AdCreative, error)
	GetByID(ctx context.Context, id uint64) (model.AdCreative, error)
	ListByAccount(ctx context.Context, accountID uint64, offset, limit int) ([]model.AdCreative, int, error)
	Delete(ctx context.Context, id uint64) error
}

// AdCreativeHandler serves /api/admin/ad-creatives with the same
// field-scoped mutation engine as ad plans, under the creative field
// policy.
type AdCreativeHandler struct {
	Creatives CreativeStore
}

func NewAdCreativeHandler(creatives CreativeStore) *AdCreativeHandler {
	if creatives == nil {
		panic("handler: NewAdCreativeHandler requires a non-nil store")
	}
	return &AdCreativeHandler{Creatives: creatives}
}

func coerceAdCreativeField(name string, v any) (any, error) {
	switch name {
	case "account_id":
		id, ok := asID(v)
		if !ok {
			return nil, fmt.Errorf("account_id must be numeric")
		}
		return id, nil
	case "name":
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("name must be a non-empty string")
		}
		return strings.TrimSpace(s), nil
	case "display_id":
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("display_id must be a non-empty string")
		}
		return strings.TrimSpace(s), nil
	case "status":
		n, ok := asIntValue(v)
		if !ok || (n != 0 && n != 1) {
			return nil, fmt.Errorf("status must be 0 or 1")
		}
		return n, nil
	case "display_count", "click_count", "download_count":
		n, ok := asIntValue(v)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return n, nil
	default:
		// budget, click_cost, download_cost, costs, click_rate,
		// download_rate, ecpm
		f, ok := asNumber(v)
		if !ok || f < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number", name)
		}
		return f, nil
	}
}

func buildAdCreativeFields(c echo.Context, body map[string]any, names []string) (map[string]any, bool) {
	fields := make(map[string]any, len(names))
	for _, name := range names {
		val, err := coerceAdCreativeField(name, body[name])
		if err != nil {
			_ = response.BadRequest(c, err.Error())
			return nil, false
		}
		fields[name] = val
	}
	return fields, true
}

// Create handles POST /api/admin/ad-creatives.
func (h *AdCreativeHandler) Create(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil || body == nil {
		return response.BadRequest(c, "invalid request body")
	}

	_, names, ok := resolveFields(c, body, auth.AdCreativeFields)
	if !ok {
		return nil
	}
	if _, present := body["name"]; !present {
		return response.BadRequest(c, "name is required")
	}
	fields, ok := buildAdCreativeFields(c, body, names)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	creative, err := h.Creatives.Create(ctx, fields)
	if err != nil {
		c.Logger().Errorf("create ad creative: %v", err)
		return response.ServerError(c, "")
	}
	return response.Created(c, "ad creative created", creative)
}

// Update handles PUT /api/admin/ad-creatives/:id. Permission is
// checked against the account the creative is stored under, not just
// the body's account_id; moving a creative between accounts requires
// membership on both ends.
func (h *AdCreativeHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid creative id")
	}
	var body map[string]any
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil || body == nil {
		return response.BadRequest(c, "invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Creatives.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad creative not found")
		}
		c.Logger().Errorf("update ad creative: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), current.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	_, names, ok := resolveFields(c, body, auth.AdCreativeFields)
	if !ok {
		return nil
	}
	fields, ok := buildAdCreativeFields(c, body, names)
	if !ok {
		return nil
	}

	creative, err := h.Creatives.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad creative not found")
		}
		c.Logger().Errorf("update ad creative: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad creative updated", creative)
}

// Get handles GET /api/admin/ad-creatives/:id.
func (h *AdCreativeHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid creative id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	creative, err := h.Creatives.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad creative not found")
		}
		c.Logger().Errorf("get ad creative: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), creative.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}
	return response.OK(c, "ad creative", creative)
}

// List handles GET /api/admin/ad-creatives?account_id=N&page=&page_size=.
func (h *AdCreativeHandler) List(c echo.Context) error {
	accountID, ok := queryAccountID(c)
	if !ok {
		return response.BadRequest(c, "account_id is required and must be numeric")
	}
	if !auth.AuthorizeAccountAccess(identity(c), accountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}
	page, size, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	creatives, total, err := h.Creatives.ListByAccount(ctx, accountID, offset, size)
	if err != nil {
		c.Logger().Errorf("list ad creatives: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad creatives", map[string]any{
		"list": creatives, "total": total, "page": page, "page_size": size,
	})
}

// Delete handles DELETE /api/admin/ad-creatives/:id (site_admin and
// above).
func (h *AdCreativeHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid creative id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	creative, err := h.Creatives.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad creative not found")
		}
		c.Logger().Errorf("delete ad creative: load: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), creative.AccountID, auth.AccountSiteAdmin) {
		return response.Forbidden(c, "no permission on this account")
	}

	if err := h.Creatives.Delete(ctx, id); err != nil {
		c.Logger().Errorf("delete ad creative: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad creative deleted", nil)
}
