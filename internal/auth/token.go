package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MembershipSource supplies the current active memberships of a user.
// The repository layer implements it; tests plug in a stub.
type MembershipSource interface {
	ListActiveForUser(ctx context.Context, userID uint64) ([]AccountPermission, error)
}

// TokenService mints and verifies HS256 session tokens and performs the
// sliding renewal that bounds the staleness of the embedded permission
// snapshot.
type TokenService struct {
	secret      []byte
	ttl         time.Duration
	renewWithin time.Duration
	memberships MembershipSource
}

// NewTokenService panics on an empty secret; everything else is wired
// from config with its own defaults.
func NewTokenService(secret string, ttl, renewWithin time.Duration, m MembershipSource) *TokenService {
	if secret == "" {
		panic("empty JWT secret passed to NewTokenService")
	}
	return &TokenService{
		secret:      []byte(secret),
		ttl:         ttl,
		renewWithin: renewWithin,
		memberships: m,
	}
}

// Issue signs a token for the given user. perms must already be the
// user's current active memberships; pass nil for super-admins, whose
// tokens never carry a snapshot (the decision engine short-circuits
// them, so embedding one would only invite stale reads).
func (s *TokenService) Issue(userID uint64, username string, role GlobalRole, perms []AccountPermission) (string, error) {
	now := time.Now().UTC()
	if role == RoleSuperAdmin {
		perms = nil
	}
	claims := Claims{
		UserID:             userID,
		Username:           username,
		GlobalRole:         role,
		AccountPermissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Verify parses and validates raw. On success it returns the decoded
// claims plus, when the token is inside the renewal window, a freshly
// issued replacement whose permission snapshot is re-derived from the
// membership store. Recomputing from the store (rather than copying the
// old snapshot) is what lets revocations reach long-lived sessions.
func (s *TokenService) Verify(ctx context.Context, raw string) (*Claims, string, error) {
	if raw == "" {
		return nil, "", ErrTokenMissing
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignature
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, "", ErrTokenSignature
		default:
			return nil, "", ErrTokenMalformed
		}
	}
	if !tok.Valid || !claims.complete() {
		return nil, "", ErrTokenMalformed
	}

	renewed := s.maybeRenew(ctx, &claims)
	return &claims, renewed, nil
}

// maybeRenew reissues the token when it is close to expiry but still
// valid. Renewal is best effort: a membership store failure keeps the
// old token in play until the next request rather than failing the one
// in flight.
func (s *TokenService) maybeRenew(ctx context.Context, claims *Claims) string {
	if claims.ExpiresAt == nil {
		return ""
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 || remaining >= s.renewWithin {
		return ""
	}

	var perms []AccountPermission
	if claims.GlobalRole != RoleSuperAdmin {
		if s.memberships == nil {
			return ""
		}
		fresh, err := s.memberships.ListActiveForUser(ctx, claims.UserID)
		if err != nil {
			log.Printf("auth: membership refresh for user %d failed: %v", claims.UserID, err)
			return ""
		}
		perms = fresh
	}

	renewed, err := s.Issue(claims.UserID, claims.Username, claims.GlobalRole, perms)
	if err != nil {
		log.Printf("auth: token renewal for user %d failed: %v", claims.UserID, err)
		return ""
	}
	return renewed
}
