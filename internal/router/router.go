// Package router wires URL paths to handlers and attaches the
// middleware chains. Three surfaces exist: public (health, login,
// register), authenticated (/api), and super-admin (/api/admin/users
// plus a few account-level operations).
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/handler"
	"github.com/adplatform/admin-api/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth       *handler.AuthHandler
	AdminUsers *handler.AdminUserHandler
	Accounts   *handler.AccountHandler
	AdPlans    *handler.AdPlanHandler
	AdGroups   *handler.AdGroupHandler
	AdCreative *handler.AdCreativeHandler
	Users      *handler.UserHandler
}

// Register mounts all routes. authn is the bearer-token middleware;
// every /api route except login and register sits behind it. cache is
// the response cache, attached per route on read endpoints so it runs
// after authn and keys entries by the verified caller.
func Register(e *echo.Echo, h Handlers, authn, cache echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)

	// Public auth surface.
	pub := e.Group("/api/auth")
	pub.POST("/login", h.Auth.Login)
	pub.POST("/register", h.Auth.Register)

	// Self-service, authenticated.
	self := e.Group("/api/auth", authn)
	self.POST("/validate-token", h.Auth.ValidateToken)
	self.POST("/update-name", h.Auth.UpdateName)
	self.POST("/update-password", h.Auth.UpdatePassword)

	// User-facing reads.
	api := e.Group("/api", authn)
	api.GET("/users/accounts", h.Users.ListMyAccounts, cache)
	api.GET("/ad-plans", h.AdPlans.List, cache)
	api.GET("/ad-plans/:id", h.AdPlans.Get, cache)

	// Admin surface. Account-level authorization is resolved inside the
	// handlers against the token snapshot; only the user/membership
	// routes and a few account-wide operations need the global
	// super-admin gate here.
	admin := e.Group("/api/admin", authn)

	su := admin.Group("/users", middleware.RequireSuperAdmin())
	su.POST("", h.AdminUsers.CreateUser)
	su.GET("", h.AdminUsers.ListUsers)
	su.PUT("/:id", h.AdminUsers.UpdateUser)
	su.GET("/:id/accounts", h.AdminUsers.ListUserAccounts)
	su.POST("/:id/accounts", h.AdminUsers.BindAccount)
	su.DELETE("/:id/accounts", h.AdminUsers.UnbindAccount)
	su.PUT("/:id/accounts/role", h.AdminUsers.UpdateAccountRole)

	accounts := admin.Group("/accounts")
	accounts.POST("", h.Accounts.Create, middleware.RequireSuperAdmin())
	accounts.POST("/reset-today-cost", h.Accounts.ResetTodayCost, middleware.RequireSuperAdmin())
	accounts.GET("", h.Accounts.List, cache)
	accounts.GET("/:id", h.Accounts.Get, cache)
	accounts.PUT("/:id", h.Accounts.Update)
	accounts.POST("/:id/cost", h.Accounts.Charge)

	plans := admin.Group("/ad-plans")
	plans.POST("", h.AdPlans.Create)
	plans.GET("", h.AdPlans.List, cache)
	plans.GET("/:id", h.AdPlans.Get, cache)
	plans.PUT("/:id", h.AdPlans.Update)
	plans.DELETE("/:id", h.AdPlans.Delete)
	plans.POST("/:id/ad-groups", h.AdPlans.BindGroups)
	plans.DELETE("/:id/ad-groups/:groupId", h.AdPlans.UnbindGroup)

	groups := admin.Group("/ad-groups")
	groups.POST("", h.AdGroups.Create)
	groups.GET("", h.AdGroups.List, cache)
	groups.PUT("/:id", h.AdGroups.Update)
	groups.DELETE("/:id", h.AdGroups.Delete)

	creatives := admin.Group("/ad-creatives")
	creatives.POST("", h.AdCreative.Create)
	creatives.GET("", h.AdCreative.List, cache)
	creatives.GET("/:id", h.AdCreative.Get, cache)
	creatives.PUT("/:id", h.AdCreative.Update)
	creatives.DELETE("/:id", h.AdCreative.Delete)
}
