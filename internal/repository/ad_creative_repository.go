package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adplatform/admin-api/internal/model"
)

type AdCreativeRepo struct{ DB *sql.DB }

func NewAdCreativeRepo(db *sql.DB) *AdCreativeRepo { return &AdCreativeRepo{DB: db} }

const adCreativeColumns = "id, name, display_id, status, budget, click_cost, download_cost, " +
	"costs, display_count, click_count, click_rate, download_count, download_rate, ecpm, " +
	"account_id, created_at, updated_at"

var adCreativeWritable = map[string]bool{
	"name": true, "display_id": true, "status": true, "budget": true,
	"click_cost": true, "download_cost": true, "account_id": true,
	"costs": true, "display_count": true, "click_count": true, "click_rate": true,
	"download_count": true, "download_rate": true, "ecpm": true,
}

func scanAdCreative(row rowScanner) (model.AdCreative, error) {
	var c model.AdCreative
	var displayID sql.NullString
	var accountID sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &displayID, &c.Status, &c.Budget, &c.ClickCost,
		&c.DownloadCost, &c.Costs, &c.DisplayCount, &c.ClickCount, &c.ClickRate,
		&c.DownloadCnt, &c.DownloadRate, &c.Ecpm, &accountID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	c.DisplayID = displayID.String
	if accountID.Valid {
		c.AccountID = uint64(accountID.Int64)
	}
	return c, nil
}

// Create inserts a creative from the permission-filtered column/value
// map and returns the stored row.
func (r *AdCreativeRepo) Create(ctx context.Context, fields map[string]any) (model.AdCreative, error) {
	var out model.AdCreative
	cols, marks, args := buildInsert(fields, adCreativeWritable)
	if cols == "" {
		return out, fmt.Errorf("no insertable fields")
	}
	res, err := r.DB.ExecContext(ctx, "INSERT INTO ad_creatives ("+cols+") VALUES ("+marks+")", args...)
	if err != nil {
		return out, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return out, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update applies the permission-filtered column/value map to an
// existing creative and returns the stored row.
func (r *AdCreativeRepo) Update(ctx context.Context, id uint64, fields map[string]any) (model.AdCreative, error) {
	var out model.AdCreative
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = scanAdCreative(tx.QueryRowContext(ctx,
		"SELECT "+adCreativeColumns+" FROM ad_creatives WHERE id=? LIMIT 1", id)); err != nil {
		return out, err
	}

	set, args := buildSet(fields, adCreativeWritable)
	if set == "" {
		return out, fmt.Errorf("no updatable fields")
	}
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE ad_creatives SET "+set+", updated_at=NOW() WHERE id=?", args...); err != nil {
		return out, err
	}

	out, err = scanAdCreative(tx.QueryRowContext(ctx,
		"SELECT "+adCreativeColumns+" FROM ad_creatives WHERE id=? LIMIT 1", id))
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// GetByID fetches one creative.
func (r *AdCreativeRepo) GetByID(ctx context.Context, id uint64) (model.AdCreative, error) {
	return scanAdCreative(r.DB.QueryRowContext(ctx,
		"SELECT "+adCreativeColumns+" FROM ad_creatives WHERE id=? LIMIT 1", id))
}

// ListByAccount returns one page of creatives for an account, newest
// first, plus the total count.
func (r *AdCreativeRepo) ListByAccount(ctx context.Context, accountID uint64, offset, limit int) ([]model.AdCreative, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ad_creatives WHERE account_id=?", accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+adCreativeColumns+" FROM ad_creatives WHERE account_id=? ORDER BY id DESC LIMIT ? OFFSET ?",
		accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.AdCreative
	for rows.Next() {
		c, err := scanAdCreative(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Delete removes a creative.
func (r *AdCreativeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ad_creatives WHERE id=?", id)
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
