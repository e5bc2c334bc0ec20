package handler

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// AdGroupHandler serves /api/admin/ad-groups. Groups relate to plans
// many-to-many; a group that any plan still references cannot be
// deleted.
type AdGroupHandler struct {
	Groups *repository.AdGroupRepo
}

func NewAdGroupHandler(groups *repository.AdGroupRepo) *AdGroupHandler {
	if groups == nil {
		panic("handler: NewAdGroupHandler requires a non-nil repository")
	}
	return &AdGroupHandler{Groups: groups}
}

// Create handles POST /api/admin/ad-groups. A group may be scoped to
// an account or, for super-admin, left global (no account).
func (h *AdGroupHandler) Create(c echo.Context) error {
	var body struct {
		Name      string `json:"name"`
		AccountID uint64 `json:"account_id"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return response.BadRequest(c, "name is required")
	}
	claims := identity(c)
	if body.AccountID > 0 {
		if !auth.AuthorizeAccountAccess(claims, body.AccountID, auth.AccountAdOperator) {
			return response.Forbidden(c, "no permission on this account")
		}
	} else if claims.GlobalRole != auth.RoleSuperAdmin {
		return response.BadRequest(c, "account_id is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Groups.Create(ctx, name, body.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return response.BadRequest(c, "group name already exists")
		}
		c.Logger().Errorf("create ad group: %v", err)
		return response.ServerError(c, "")
	}
	return response.Created(c, "ad group created", g)
}

// Update handles PUT /api/admin/ad-groups/:id (rename only).
func (h *AdGroupHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid group id")
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return response.BadRequest(c, "name is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad group not found")
		}
		c.Logger().Errorf("update ad group: load: %v", err)
		return response.ServerError(c, "")
	}
	if g.AccountID > 0 && !auth.AuthorizeAccountAccess(identity(c), g.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}
	if g.AccountID == 0 && identity(c).GlobalRole != auth.RoleSuperAdmin {
		return response.Forbidden(c, "super-admin access required")
	}

	updated, err := h.Groups.UpdateName(ctx, id, name)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "ad group not found")
		case errors.Is(err, repository.ErrNameExists):
			return response.BadRequest(c, "group name already exists")
		default:
			c.Logger().Errorf("update ad group: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.OK(c, "ad group updated", updated)
}

// List handles GET /api/admin/ad-groups.
func (h *AdGroupHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	groups, err := h.Groups.List(ctx)
	if err != nil {
		c.Logger().Errorf("list ad groups: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad groups", map[string]any{"list": groups})
}

// Delete handles DELETE /api/admin/ad-groups/:id. The referential
// guard lives in the repository: a group still bound to any plan is
// refused regardless of the caller's role.
func (h *AdGroupHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid group id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad group not found")
		}
		c.Logger().Errorf("delete ad group: load: %v", err)
		return response.ServerError(c, "")
	}
	if g.AccountID > 0 && !auth.AuthorizeAccountAccess(identity(c), g.AccountID, auth.AccountSiteAdmin) {
		return response.Forbidden(c, "no permission on this account")
	}
	if g.AccountID == 0 && identity(c).GlobalRole != auth.RoleSuperAdmin {
		return response.Forbidden(c, "super-admin access required")
	}

	if err := h.Groups.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "ad group not found")
		case errors.Is(err, repository.ErrGroupInUse):
			return response.Forbidden(c, "ad group is still bound to one or more plans")
		default:
			c.Logger().Errorf("delete ad group: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.OK(c, "ad group deleted", nil)
}
