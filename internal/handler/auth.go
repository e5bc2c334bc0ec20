package handler

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
	"github.com/adplatform/admin-api/internal/utils"
)

// AuthHandler serves the /api/auth endpoints: login, self-service
// registration, token introspection, and account self-management.
type AuthHandler struct {
	Users       *repository.UserRepo
	Memberships *repository.MembershipRepo
	Tokens      *auth.TokenService
	BcryptCost  int
}

func NewAuthHandler(users *repository.UserRepo, memberships *repository.MembershipRepo, tokens *auth.TokenService, bcryptCost int) *AuthHandler {
	if users == nil || memberships == nil || tokens == nil {
		panic("handler: NewAuthHandler requires non-nil dependencies")
	}
	return &AuthHandler{Users: users, Memberships: memberships, Tokens: tokens, BcryptCost: bcryptCost}
}

// userView is the wire shape of a user record. The password hash never
// leaves the repository layer in the first place, but the explicit view
// type keeps the contract visible.
type userView struct {
	ID       uint64          `json:"id"`
	Username string          `json:"username"`
	Name     string          `json:"name"`
	Role     auth.GlobalRole `json:"role"`
	Ban      bool            `json:"ban"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, Ban: u.Ban}
}

// Login handles POST /api/auth/login. The issued token embeds the
// user's active membership snapshot so per-account authorization needs
// no database reads; super-admin tokens carry no snapshot at all.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if strings.TrimSpace(body.Username) == "" || body.Password == "" {
		return response.BadRequest(c, "username and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, body.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.Unauthorized(c, "invalid username or password")
		}
		c.Logger().Errorf("login: load user: %v", err)
		return response.ServerError(c, "")
	}
	if !utils.VerifyPassword(u.PasswordHash, body.Password) {
		return response.Unauthorized(c, "invalid username or password")
	}
	if u.Ban {
		return response.Unauthorized(c, "account is banned")
	}

	var perms []auth.AccountPermission
	if u.Role != auth.RoleSuperAdmin {
		perms, err = h.Memberships.ListActiveForUser(ctx, u.ID)
		if err != nil {
			c.Logger().Errorf("login: load memberships: %v", err)
			return response.ServerError(c, "")
		}
	}

	token, err := h.Tokens.Issue(u.ID, u.Username, u.Role, perms)
	if err != nil {
		c.Logger().Errorf("login: issue token: %v", err)
		return response.ServerError(c, "")
	}

	return response.OK(c, "login successful", map[string]any{
		"token": token,
		"user":  viewOf(u),
	})
}

// Register handles POST /api/auth/register. Self-registration always
// produces a plain user; elevated roles are granted by a super-admin
// through the admin endpoints.
func (h *AuthHandler) Register(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Name     string `json:"name"`
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
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = username
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id, err := h.Users.Create(ctx, username, body.Password, name, auth.RoleUser, h.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return response.BadRequest(c, "username already exists")
		}
		c.Logger().Errorf("register: create user: %v", err)
		return response.ServerError(c, "")
	}

	return response.Created(c, "user registered", map[string]any{"id": id, "username": username})
}

// ValidateToken handles POST /api/auth/validate-token. BearerAuth has
// already verified the token, so this only echoes the decoded identity
// back to the caller.
func (h *AuthHandler) ValidateToken(c echo.Context) error {
	claims := identity(c)
	return response.OK(c, "token is valid", map[string]any{
		"userId":             claims.UserID,
		"username":           claims.Username,
		"role":               claims.GlobalRole,
		"accountPermissions": claims.AccountPermissions,
	})
}

// UpdateName handles POST /api/auth/update-name for the caller's own
// display name.
func (h *AuthHandler) UpdateName(c echo.Context) error {
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
	if len(name) > 50 {
		return response.BadRequest(c, "name must be at most 50 characters")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateName(ctx, identity(c).UserID, name); err != nil {
		c.Logger().Errorf("update-name: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "name updated", map[string]any{"name": name})
}

// UpdatePassword handles POST /api/auth/update-password. The old
// password must verify before any change is made.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var body struct {
		OldPassword     string `json:"old_password"`
		NewPassword     string `json:"new_password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if body.OldPassword == "" {
		return response.BadRequest(c, "old password is required")
	}
	if len(body.NewPassword) < 6 {
		return response.BadRequest(c, "new password must be at least 6 characters")
	}
	if body.NewPassword == body.OldPassword {
		return response.BadRequest(c, "new password must differ from the old one")
	}
	if body.NewPassword != body.ConfirmPassword {
		return response.BadRequest(c, "password confirmation does not match")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, identity(c).UserID)
	if err != nil {
		c.Logger().Errorf("update-password: load user: %v", err)
		return response.ServerError(c, "")
	}
	if !utils.VerifyPassword(u.PasswordHash, body.OldPassword) {
		return response.BadRequest(c, "old password is incorrect")
	}

	if err := h.Users.UpdatePassword(ctx, u.ID, body.NewPassword, h.BcryptCost); err != nil {
		c.Logger().Errorf("update-password: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "password updated", nil)
}
