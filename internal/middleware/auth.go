package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// identityKey is the echo context key under which BearerAuth stores the
// verified *auth.Claims for downstream middleware and handlers.
const identityKey = "identity"

// RenewedTokenHeader carries a freshly issued token when the presented
// one entered its renewal window. Clients should replace their stored
// token whenever the header is present.
const RenewedTokenHeader = "X-Renewed-Token"

// UserSource is the slice of the user repository the auth middleware
// needs to re-check account status on every request.
type UserSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BearerAuth validates the Authorization bearer token and loads the
// caller's identity into the request context. Token validity alone is
// not enough: the user row is re-read on every request so a ban takes
// effect immediately, even against a token issued before the ban.
func BearerAuth(tokens *auth.TokenService, users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return response.Unauthorized(c, "authentication token not provided")
			}
			if !strings.HasPrefix(header, "Bearer ") {
				return response.Unauthorized(c, "malformed authorization header")
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, renewed, err := tokens.Verify(ctx, raw)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					return response.Unauthorized(c, "token expired")
				case errors.Is(err, auth.ErrTokenSignature):
					return response.Unauthorized(c, "invalid token signature")
				default:
					return response.Unauthorized(c, "invalid token")
				}
			}

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return response.Unauthorized(c, "user no longer exists")
				}
				c.Logger().Errorf("auth: load user %d: %v", claims.UserID, err)
				return response.ServerError(c, "")
			}
			if u.Ban {
				return response.Unauthorized(c, "account is banned")
			}

			if renewed != "" {
				c.Response().Header().Set(RenewedTokenHeader, renewed)
			}
			c.Set(identityKey, claims)
			return next(c)
		}
	}
}

// Identity returns the claims stored by BearerAuth, or nil when the
// route is not behind it.
func Identity(c echo.Context) *auth.Claims {
	claims, _ := c.Get(identityKey).(*auth.Claims)
	return claims
}
