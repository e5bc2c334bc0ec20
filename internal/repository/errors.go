// Package repository implements data access over the MySQL store. Each
// repository wraps *sql.DB, takes a context on every call and reports
// failure classes through the sentinel errors below so handlers can map
// them to HTTP statuses without string matching.
package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced row does not exist.
	// Handlers translate it to 404.
	ErrNotFound = errors.New("not found")

	// ErrUsernameExists is returned when a user create or update would
	// violate username uniqueness.
	ErrUsernameExists = errors.New("username already exists")

	// ErrDisplayIDTaken is returned when an account create or update
	// would reuse another account's display_id. The check excludes the
	// row being updated; the unique index is the concurrency backstop.
	ErrDisplayIDTaken = errors.New("display_id already taken")

	// ErrNameExists is returned when an ad plan or ad group name is
	// already in use.
	ErrNameExists = errors.New("name already exists")

	// ErrMembershipExists is returned when binding a user to an account
	// they already have an active binding with.
	ErrMembershipExists = errors.New("membership already exists")

	// ErrGroupInUse is returned when deleting an ad group that still has
	// plan bindings. The guard lives at this layer, not only in the
	// schema.
	ErrGroupInUse = errors.New("ad group still bound to plans")

	// ErrInsufficientBalance is returned when a cost charge would drive
	// the account balance negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// isDuplicateKey detects the MySQL duplicate-entry error (1062) that the
// unique indexes raise when two concurrent requests pass the
// application-level check together.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
