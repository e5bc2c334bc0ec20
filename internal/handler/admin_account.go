package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// AccountStore is the persistence surface the account handler needs.
// *repository.AccountRepo satisfies it.
type AccountStore interface {
	Create(ctx context.Context, a *model.Account) error
	Update(ctx context.Context, id uint64, fields map[string]any) (model.Account, error)
	GetByID(ctx context.Context, id uint64) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	ListByIDs(ctx context.Context, ids []uint64) ([]model.Account, error)
	Charge(ctx context.Context, id uint64, amount float64) (model.Account, error)
	ResetTodayCost(ctx context.Context) error
}

// AccountHandler serves /api/admin/accounts. Creation and the global
// today-cost reset are super-admin routes; the rest honor per-account
// roles from the caller's token snapshot.
type AccountHandler struct {
	Accounts AccountStore
}

func NewAccountHandler(accounts AccountStore) *AccountHandler {
	if accounts == nil {
		panic("handler: NewAccountHandler requires a non-nil store")
	}
	return &AccountHandler{Accounts: accounts}
}

type accountView struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	DisplayID   string  `json:"display_id"`
	Balance     float64 `json:"balance"`
	TodayCost   float64 `json:"today_cost"`
	DailyBudget float64 `json:"account_daily_budget"`
}

func accountViewOf(a model.Account) accountView {
	return accountView{
		ID: a.ID, Name: a.Name, DisplayID: a.DisplayID,
		Balance: a.Balance, TodayCost: a.TodayCost, DailyBudget: a.DailyBudget,
	}
}

// Create handles POST /api/admin/accounts.
func (h *AccountHandler) Create(c echo.Context) error {
	var body struct {
		Name        string  `json:"name"`
		DisplayID   string  `json:"display_id"`
		Balance     float64 `json:"balance"`
		DailyBudget float64 `json:"account_daily_budget"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return response.BadRequest(c, "name is required")
	}
	displayID := strings.TrimSpace(body.DisplayID)
	if displayID == "" {
		return response.BadRequest(c, "display_id is required")
	}
	if body.Balance < 0 {
		return response.BadRequest(c, "balance must not be negative")
	}
	if body.DailyBudget < 0 {
		return response.BadRequest(c, "account_daily_budget must not be negative")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a := &model.Account{Name: name, DisplayID: displayID, Balance: body.Balance, DailyBudget: body.DailyBudget}
	if err := h.Accounts.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDisplayIDTaken) {
			return response.BadRequest(c, "display_id already exists")
		}
		c.Logger().Errorf("create account: %v", err)
		return response.ServerError(c, "")
	}
	return response.Created(c, "account created", accountViewOf(*a))
}

// Update handles PUT /api/admin/accounts/:id. Requires site_admin on
// the account; super-admin passes implicitly. display_id uniqueness is
// re-checked excluding the row being updated, so saving a record
// without changing its display_id never trips the check.
func (h *AccountHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid account id")
	}
	if !auth.AuthorizeAccountAccess(identity(c), id, auth.AccountSiteAdmin) {
		return response.Forbidden(c, "no permission on this account")
	}

	var body struct {
		Name        *string  `json:"name"`
		DisplayID   *string  `json:"display_id"`
		Balance     *float64 `json:"balance"`
		TodayCost   *float64 `json:"today_cost"`
		DailyBudget *float64 `json:"account_daily_budget"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	fields := map[string]any{}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			return response.BadRequest(c, "name must not be empty")
		}
		fields["name"] = name
	}
	if body.DisplayID != nil {
		displayID := strings.TrimSpace(*body.DisplayID)
		if displayID == "" {
			return response.BadRequest(c, "display_id must not be empty")
		}
		fields["display_id"] = displayID
	}
	if body.Balance != nil {
		if *body.Balance < 0 {
			return response.BadRequest(c, "balance must not be negative")
		}
		fields["balance"] = *body.Balance
	}
	if body.TodayCost != nil {
		if *body.TodayCost < 0 {
			return response.BadRequest(c, "today_cost must not be negative")
		}
		fields["today_cost"] = *body.TodayCost
	}
	if body.DailyBudget != nil {
		if *body.DailyBudget < 0 {
			return response.BadRequest(c, "account_daily_budget must not be negative")
		}
		fields["account_daily_budget"] = *body.DailyBudget
	}
	if len(fields) == 0 {
		return response.BadRequest(c, "no fields to update")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Accounts.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "account not found")
		case errors.Is(err, repository.ErrDisplayIDTaken):
			return response.BadRequest(c, "display_id already exists")
		default:
			c.Logger().Errorf("update account: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.OK(c, "account updated", accountViewOf(a))
}

// Get handles GET /api/admin/accounts/:id. Any active member of the
// account may read it.
func (h *AccountHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid account id")
	}
	if !auth.AuthorizeAccountAccess(identity(c), id, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "account not found")
		}
		c.Logger().Errorf("get account: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "account", accountViewOf(a))
}

// List handles GET /api/admin/accounts. Super-admin sees every
// account; everyone else sees only the accounts in their snapshot.
func (h *AccountHandler) List(c echo.Context) error {
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
		c.Logger().Errorf("list accounts: %v", err)
		return response.ServerError(c, "")
	}

	views := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, accountViewOf(a))
	}
	return response.OK(c, "accounts", map[string]any{"list": views})
}

// Charge handles POST /api/admin/accounts/:id/cost: spend is added to
// today_cost and deducted from balance in one transaction.
func (h *AccountHandler) Charge(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid account id")
	}
	if !auth.AuthorizeAccountAccess(identity(c), id, auth.AccountSiteAdmin) {
		return response.Forbidden(c, "no permission on this account")
	}

	var body struct {
		Amount float64 `json:"amount"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if body.Amount <= 0 {
		return response.BadRequest(c, "amount must be positive")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	a, err := h.Accounts.Charge(ctx, id, body.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "account not found")
		case errors.Is(err, repository.ErrInsufficientBalance):
			return response.BadRequest(c, "insufficient balance")
		default:
			c.Logger().Errorf("charge account: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.OK(c, "cost recorded", accountViewOf(a))
}

// ResetTodayCost handles POST /api/admin/accounts/reset-today-cost,
// zeroing today_cost across all accounts at the day boundary.
func (h *AccountHandler) ResetTodayCost(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Accounts.ResetTodayCost(ctx); err != nil {
		c.Logger().Errorf("reset today cost: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "today cost reset", nil)
}
