package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
)

// MembershipRepo persists the user_account join table. It also
// implements auth.MembershipSource so the token service can re-derive
// permission snapshots at renewal time.
type MembershipRepo struct{ DB *sql.DB }

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{DB: db} }

// ListActiveForUser returns the user's active bindings as snapshot
// entries. Inactive rows are excluded here, which is what makes a soft
// revoke indistinguishable from an absent membership everywhere above.
func (r *MembershipRepo) ListActiveForUser(ctx context.Context, userID uint64) ([]auth.AccountPermission, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT account_id, role FROM user_account WHERE user_id=? AND is_active=1 ORDER BY account_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.AccountPermission
	for rows.Next() {
		var p auth.AccountPermission
		if err := rows.Scan(&p.AccountID, &p.AccountRole); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListForUser returns every binding of a user, active or not, with
// timestamps, for the admin view.
func (r *MembershipRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Membership, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, account_id, role, is_active, created_at, updated_at FROM user_account WHERE user_id=? ORDER BY account_id",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.AccountID, &m.Role, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Bind creates the user↔account binding. A previously unbound (soft
// revoked) pair is reactivated with the new role; an already-active
// pair is an error.
func (r *MembershipRepo) Bind(ctx context.Context, userID, accountID uint64, role auth.AccountRole) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var id uint64
	var active bool
	err = tx.QueryRowContext(ctx,
		"SELECT id, is_active FROM user_account WHERE user_id=? AND account_id=? LIMIT 1",
		userID, accountID).Scan(&id, &active)
	switch {
	case err == nil && active:
		return ErrMembershipExists
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			"UPDATE user_account SET role=?, is_active=1, updated_at=NOW() WHERE id=?",
			string(role), id); err != nil {
			return err
		}
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_account (user_id, account_id, role, is_active) VALUES (?,?,?,1)",
			userID, accountID, string(role)); err != nil {
			if isDuplicateKey(err) {
				return ErrMembershipExists
			}
			return err
		}
	default:
		return err
	}
	return tx.Commit()
}

// Unbind soft-revokes the binding. Missing or already-inactive rows are
// reported as not found.
func (r *MembershipRepo) Unbind(ctx context.Context, userID, accountID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_account SET is_active=0, updated_at=NOW() WHERE user_id=? AND account_id=? AND is_active=1",
		userID, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRole changes the role of an active binding.
func (r *MembershipRepo) UpdateRole(ctx context.Context, userID, accountID uint64, role auth.AccountRole) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_account SET role=?, updated_at=NOW() WHERE user_id=? AND account_id=? AND is_active=1",
		string(role), userID, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either no binding, or the role is unchanged; distinguish so
		// an idempotent update does not read as a missing membership.
		var id uint64
		err := r.DB.QueryRowContext(ctx,
			"SELECT id FROM user_account WHERE user_id=? AND account_id=? AND is_active=1 LIMIT 1",
			userID, accountID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
