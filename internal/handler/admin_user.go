package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/queue"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
	queue_publisher "github.com/adplatform/admin-api/internal/service"
)

// AdminUserHandler serves /api/admin/users: user administration and
// user-account membership management. Every route is super-admin only;
// the router enforces that before these handlers run.
type AdminUserHandler struct {
	Users       *repository.UserRepo
	Memberships *repository.MembershipRepo
	Accounts    *repository.AccountRepo
	BcryptCost  int
}

func NewAdminUserHandler(users *repository.UserRepo, memberships *repository.MembershipRepo, accounts *repository.AccountRepo, bcryptCost int) *AdminUserHandler {
	if users == nil || memberships == nil || accounts == nil {
		panic("handler: NewAdminUserHandler requires non-nil dependencies")
	}
	return &AdminUserHandler{Users: users, Memberships: memberships, Accounts: accounts, BcryptCost: bcryptCost}
}

// CreateUser handles POST /api/admin/users. Unlike self-registration,
// a super-admin may set any global role and the ban flag up front.
func (h *AdminUserHandler) CreateUser(c echo.Context) error {
	var body struct {
		Username string          `json:"username"`
		Password string          `json:"password"`
		Name     string          `json:"name"`
		Role     auth.GlobalRole `json:"role"`
		Ban      bool            `json:"ban"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		return response.BadRequest(c, "username is required")
	}
	if len(body.Password) < 6 {
		return response.BadRequest(c, "password must be at least 6 characters")
	}
	role := body.Role
	if role == "" {
		role = auth.RoleUser
	}
	if !role.Valid() {
		return response.BadRequest(c, "invalid role")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = username
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, username, body.Password, name, role, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return response.BadRequest(c, "username already exists")
		}
		c.Logger().Errorf("admin create user: %v", err)
		return response.ServerError(c, "")
	}
	if body.Ban {
		if err := h.Users.AdminUpdate(ctx, id, name, role, true); err != nil {
			c.Logger().Errorf("admin create user: set ban: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.Created(c, "user created", map[string]any{"id": id, "username": username, "role": role})
}

// UpdateUser handles PUT /api/admin/users/:id. Omitted fields keep
// their stored values; a non-empty password resets the credential.
func (h *AdminUserHandler) UpdateUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user id")
	}
	var body struct {
		Name     *string          `json:"name"`
		Role     *auth.GlobalRole `json:"role"`
		Ban      *bool            `json:"ban"`
		Password string           `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		c.Logger().Errorf("admin update user: load: %v", err)
		return response.ServerError(c, "")
	}

	name, role, ban := u.Name, u.Role, u.Ban
	if body.Name != nil {
		name = strings.TrimSpace(*body.Name)
		if name == "" {
			return response.BadRequest(c, "name must not be empty")
		}
		if len(name) > 50 {
			return response.BadRequest(c, "name must be at most 50 characters")
		}
	}
	if body.Role != nil {
		if !body.Role.Valid() {
			return response.BadRequest(c, "invalid role")
		}
		role = *body.Role
	}
	if body.Ban != nil {
		ban = *body.Ban
	}
	if body.Password != "" && len(body.Password) < 6 {
		return response.BadRequest(c, "password must be at least 6 characters")
	}

	if err := h.Users.AdminUpdate(ctx, id, name, role, ban); err != nil {
		c.Logger().Errorf("admin update user: %v", err)
		return response.ServerError(c, "")
	}
	if body.Password != "" {
		if err := h.Users.UpdatePassword(ctx, id, body.Password, h.BcryptCost); err != nil {
			c.Logger().Errorf("admin update user: reset password: %v", err)
			return response.ServerError(c, "")
		}
	}

	return response.OK(c, "user updated", userView{ID: id, Username: u.Username, Name: name, Role: role, Ban: ban})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminUserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		c.Logger().Errorf("admin list users: %v", err)
		return response.ServerError(c, "")
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, viewOf(u))
	}
	return response.OK(c, "users", map[string]any{"list": views})
}

// ListUserAccounts handles GET /api/admin/users/:id/accounts. It returns
// the full membership list including soft-revoked rows, for administration.
func (h *AdminUserHandler) ListUserAccounts(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		c.Logger().Errorf("admin list memberships: load user: %v", err)
		return response.ServerError(c, "")
	}

	memberships, err := h.Memberships.ListForUser(ctx, id)
	if err != nil {
		c.Logger().Errorf("admin list memberships: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "memberships", map[string]any{"list": memberships})
}

type membershipBody struct {
	AccountID uint64           `json:"account_id"`
	Role      auth.AccountRole `json:"role"`
}

// BindAccount handles POST /api/admin/users/:id/accounts. Rebinding a
// soft-revoked pair reactivates it under the new role; an already
// active pair is a validation error.
func (h *AdminUserHandler) BindAccount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user id")
	}
	var body membershipBody
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if body.AccountID == 0 {
		return response.BadRequest(c, "account_id is required")
	}
	role := body.Role
	if role == "" {
		role = auth.AccountAdOperator
	}
	if !role.Valid() {
		return response.BadRequest(c, "invalid account role")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		c.Logger().Errorf("bind membership: load user: %v", err)
		return response.ServerError(c, "")
	}

	if _, err := h.Accounts.GetByID(ctx, body.AccountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "account not found")
		}
		c.Logger().Errorf("bind membership: load account: %v", err)
		return response.ServerError(c, "")
	}

	if err := h.Memberships.Bind(ctx, id, body.AccountID, role); err != nil {
		if errors.Is(err, repository.ErrMembershipExists) {
			return response.BadRequest(c, "user is already bound to this account")
		}
		c.Logger().Errorf("bind membership: %v", err)
		return response.ServerError(c, "")
	}

	h.audit(c, queue.ActionBind, u.ID, u.Username, body.AccountID, string(role))
	return response.Created(c, "account bound", map[string]any{
		"user_id": id, "account_id": body.AccountID, "role": role,
	})
}

// UnbindAccount handles DELETE /api/admin/users/:id/accounts. The row
// is soft-revoked, preserving the audit trail; permission reads treat
// it as absent.
func (h *AdminUserHandler) UnbindAccount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user id")
	}
	var body struct {
		AccountID uint64 `json:"account_id"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if body.AccountID == 0 {
		return response.BadRequest(c, "account_id is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		c.Logger().Errorf("unbind membership: load user: %v", err)
		return response.ServerError(c, "")
	}

	if err := h.Memberships.Unbind(ctx, id, body.AccountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "membership not found")
		}
		c.Logger().Errorf("unbind membership: %v", err)
		return response.ServerError(c, "")
	}

	h.audit(c, queue.ActionUnbind, u.ID, u.Username, body.AccountID, "")
	return response.OK(c, "account unbound", nil)
}

// UpdateAccountRole handles PUT /api/admin/users/:id/accounts/role.
func (h *AdminUserHandler) UpdateAccountRole(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid user id")
	}
	var body membershipBody
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if body.AccountID == 0 {
		return response.BadRequest(c, "account_id is required")
	}
	if !body.Role.Valid() {
		return response.BadRequest(c, "invalid account role")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "user not found")
		}
		c.Logger().Errorf("update membership role: load user: %v", err)
		return response.ServerError(c, "")
	}

	if err := h.Memberships.UpdateRole(ctx, id, body.AccountID, body.Role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "membership not found")
		}
		c.Logger().Errorf("update membership role: %v", err)
		return response.ServerError(c, "")
	}

	h.audit(c, queue.ActionRoleChange, u.ID, u.Username, body.AccountID, string(body.Role))
	return response.OK(c, "membership role updated", map[string]any{
		"user_id": id, "account_id": body.AccountID, "role": body.Role,
	})
}

// audit publishes a permission.changed event. Publishing is best
// effort; the membership change has already committed and must not be
// rolled back because the broker is down.
func (h *AdminUserHandler) audit(c echo.Context, action string, userID uint64, username string, accountID uint64, role string) {
	actor := identity(c)
	_ = queue_publisher.PublishPermissionChanged(c.Request().Context(), queue.PermissionChangedEvent{
		Action:     action,
		UserID:     userID,
		Username:   username,
		AccountID:  accountID,
		Role:       role,
		ActorID:    actor.UserID,
		ActorName:  actor.Username,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
