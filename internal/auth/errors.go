package auth

import "errors"

// Token verification failures. Middleware maps all of these to 401; the
// distinction matters for logs and for clients deciding whether to
// re-login (expired) or treat the session as compromised (signature).
var (
	ErrTokenMissing   = errors.New("auth: token missing")
	ErrTokenMalformed = errors.New("auth: token malformed")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenSignature = errors.New("auth: invalid token signature")
)
