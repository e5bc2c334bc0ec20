package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adplatform/admin-api/internal/model"
)

type AdGroupRepo struct{ DB *sql.DB }

func NewAdGroupRepo(db *sql.DB) *AdGroupRepo { return &AdGroupRepo{DB: db} }

// Create inserts an ad group with a unique name.
func (r *AdGroupRepo) Create(ctx context.Context, name string, accountID uint64) (model.AdGroup, error) {
	var g model.AdGroup
	var exists uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM ad_group WHERE name=? LIMIT 1", name).Scan(&exists)
	if err == nil {
		return g, ErrNameExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return g, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO ad_group (name, account_id) VALUES (?,?)", name, nullableID(accountID))
	if err != nil {
		if isDuplicateKey(err) {
			return g, ErrNameExists
		}
		return g, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return g, err
	}
	return r.GetByID(ctx, uint64(id))
}

// UpdateName renames a group, excluding itself from the uniqueness
// check.
func (r *AdGroupRepo) UpdateName(ctx context.Context, id uint64, name string) (model.AdGroup, error) {
	var g model.AdGroup
	var other uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM ad_group WHERE name=? AND id<>? LIMIT 1", name, id).Scan(&other)
	if err == nil {
		return g, ErrNameExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return g, err
	}

	if _, err := r.DB.ExecContext(ctx,
		"UPDATE ad_group SET name=?, updated_at=NOW() WHERE id=?", name, id); err != nil {
		return g, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches one group.
func (r *AdGroupRepo) GetByID(ctx context.Context, id uint64) (model.AdGroup, error) {
	var g model.AdGroup
	var accountID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, account_id, created_at, updated_at FROM ad_group WHERE id=? LIMIT 1", id).
		Scan(&g.ID, &g.Name, &accountID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if err != nil {
		return g, err
	}
	if accountID.Valid {
		g.AccountID = uint64(accountID.Int64)
	}
	return g, nil
}

// List returns all groups.
func (r *AdGroupRepo) List(ctx context.Context) ([]model.AdGroup, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, IFNULL(account_id, 0), created_at, updated_at FROM ad_group ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AdGroup
	for rows.Next() {
		var g model.AdGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.AccountID, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Delete removes a group. The delete is refused while any plan binding
// references the group, inside the same transaction that performs it.
func (r *AdGroupRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var bound int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ad_plan_ad_group WHERE ad_group_id=?", id).Scan(&bound); err != nil {
		return err
	}
	if bound > 0 {
		return ErrGroupInUse
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM ad_group WHERE id=?", id)
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
	return tx.Commit()
}

// nullableID maps the zero id to NULL for legacy unscoped rows.
func nullableID(id uint64) any {
	if id == 0 {
		return nil
	}
	return id
}
