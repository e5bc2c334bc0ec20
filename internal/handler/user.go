package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// UserHandler serves the user-facing reads under /api. Unlike the
// admin surface, these never mutate and are available to any
// authenticated user.
type UserHandler struct {
	Accounts *repository.AccountRepo
}

func NewUserHandler(accounts *repository.AccountRepo) *UserHandler {
	if accounts == nil {
		panic("handler: NewUserHandler requires a non-nil repository")
	}
	return &UserHandler{Accounts: accounts}
}

// ListMyAccounts handles GET /api/users/accounts: the accounts the
// caller can act on, straight from the token snapshot. Super-admin
// gets every account; an empty snapshot yields an empty list, not an
// error.
func (h *UserHandler) ListMyAccounts(c echo.Context) error {
	claims := identity(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	var (
		accounts []model.Account
		err      error
	)
	if claims.GlobalRole == auth.RoleSuperAdmin {
		accounts, err = h.Accounts.List(ctx)
	} else {
		ids := make([]uint64, 0, len(claims.AccountPermissions))
		for _, p := range claims.AccountPermissions {
			ids = append(ids, p.AccountID)
		}
		accounts, err = h.Accounts.ListByIDs(ctx, ids)
	}
	if err != nil {
		c.Logger().Errorf("list my accounts: %v", err)
		return response.ServerError(c, "")
	}

	type entry struct {
		accountView
		AccountRole auth.AccountRole `json:"account_role,omitempty"`
	}
	views := make([]entry, 0, len(accounts))
	for _, a := range accounts {
		e := entry{accountView: accountViewOf(a)}
		if role, ok := auth.EffectiveAccountRole(claims, a.ID); ok {
			e.AccountRole = role
		}
		views = append(views, e)
	}
	return response.OK(c, "accounts", map[string]any{"list": views})
}
