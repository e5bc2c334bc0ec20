// Package handler contains the HTTP handlers. Handlers bind and
// validate input, resolve authorization against the caller's token
// snapshot, and delegate persistence to the repository layer. All
// database work runs under a bounded context.
package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/middleware"
)

// dbTimeout bounds every repository call made from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// identity returns the authenticated caller's claims. Routes reaching a
// handler always sit behind BearerAuth, so a nil result means a wiring
// mistake rather than an anonymous caller.
func identity(c echo.Context) *auth.Claims {
	return middleware.Identity(c)
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// queryAccountID reads the account_id query parameter used by the
// account-scoped list endpoints.
func queryAccountID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam("account_id"), 10, 64)
	return id, err == nil && id > 0
}

// pageParams reads page/page_size query parameters and converts them to
// an offset/limit pair. Page numbering starts at 1; size is clamped to
// keep a single response bounded.
func pageParams(c echo.Context) (page, size, offset int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("page_size"))
	if size < 1 {
		size = 10
	}
	if size > 100 {
		size = 100
	}
	return page, size, (page - 1) * size
}
