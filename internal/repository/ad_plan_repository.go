package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adplatform/admin-api/internal/model"
)

type AdPlanRepo struct{ DB *sql.DB }

func NewAdPlanRepo(db *sql.DB) *AdPlanRepo { return &AdPlanRepo{DB: db} }

const adPlanColumns = "id, name, plan_type, target, price_stratagy, placement_type, status, " +
	"chuang_yi_you_xuan, budget, cost, display_count, click_count, download_count, " +
	"click_per_price, click_rate, ecpm, download_per_count, download_rate, " +
	"start_date, end_date, account_id, created_at, updated_at"

// adPlanWritable whitelists the columns dynamic create/update may set.
// It matches the field policy tables exactly; the json key and the
// column name coincide for this schema.
var adPlanWritable = map[string]bool{
	"name": true, "plan_type": true, "target": true, "price_stratagy": true,
	"placement_type": true, "status": true, "chuang_yi_you_xuan": true,
	"budget": true, "start_date": true, "end_date": true, "account_id": true,
	"cost": true, "display_count": true, "click_count": true, "download_count": true,
	"click_per_price": true, "click_rate": true, "ecpm": true,
	"download_per_count": true, "download_rate": true,
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdPlan(row rowScanner) (model.AdPlan, error) {
	var p model.AdPlan
	var start, end sql.NullTime
	var accountID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.PlanType, &p.Target, &p.PriceStratagy, &p.PlacementType,
		&p.Status, &p.ChuangYiYouXuan, &p.Budget, &p.Cost, &p.DisplayCount, &p.ClickCount,
		&p.DownloadCount, &p.ClickPerPrice, &p.ClickRate, &p.Ecpm, &p.DownloadPerCount,
		&p.DownloadRate, &start, &end, &accountID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if start.Valid {
		p.StartDate = &start.Time
	}
	if end.Valid {
		p.EndDate = &end.Time
	}
	if accountID.Valid {
		p.AccountID = uint64(accountID.Int64)
	}
	return p, nil
}

// Create inserts a plan from the permission-filtered column/value map
// and returns the stored row.
func (r *AdPlanRepo) Create(ctx context.Context, fields map[string]any) (model.AdPlan, error) {
	var out model.AdPlan
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	if name, ok := fields["name"].(string); ok {
		var id uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM ad_plan WHERE name=? LIMIT 1", name).Scan(&id)
		if err == nil {
			return out, ErrNameExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return out, err
		}
	}

	cols, marks, args := buildInsert(fields, adPlanWritable)
	if cols == "" {
		return out, fmt.Errorf("no insertable fields")
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO ad_plan ("+cols+") VALUES ("+marks+")", args...)
	if err != nil {
		return out, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return out, err
	}

	out, err = scanAdPlan(tx.QueryRowContext(ctx, "SELECT "+adPlanColumns+" FROM ad_plan WHERE id=? LIMIT 1", id))
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// Update applies the permission-filtered column/value map to an
// existing plan, re-checking name uniqueness excluding the row itself.
func (r *AdPlanRepo) Update(ctx context.Context, id uint64, fields map[string]any) (model.AdPlan, error) {
	var out model.AdPlan
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = scanAdPlan(tx.QueryRowContext(ctx, "SELECT "+adPlanColumns+" FROM ad_plan WHERE id=? LIMIT 1", id)); err != nil {
		return out, err
	}

	if name, ok := fields["name"].(string); ok {
		var other uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM ad_plan WHERE name=? AND id<>? LIMIT 1", name, id).Scan(&other)
		if err == nil {
			return out, ErrNameExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return out, err
		}
	}

	set, args := buildSet(fields, adPlanWritable)
	if set == "" {
		return out, fmt.Errorf("no updatable fields")
	}
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE ad_plan SET "+set+", updated_at=NOW() WHERE id=?", args...); err != nil {
		return out, err
	}

	out, err = scanAdPlan(tx.QueryRowContext(ctx, "SELECT "+adPlanColumns+" FROM ad_plan WHERE id=? LIMIT 1", id))
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// GetByID fetches one plan.
func (r *AdPlanRepo) GetByID(ctx context.Context, id uint64) (model.AdPlan, error) {
	return scanAdPlan(r.DB.QueryRowContext(ctx,
		"SELECT "+adPlanColumns+" FROM ad_plan WHERE id=? LIMIT 1", id))
}

// ListByAccount returns one page of plans scoped to an account, newest
// first, plus the total row count for the pager.
func (r *AdPlanRepo) ListByAccount(ctx context.Context, accountID uint64, offset, limit int) ([]model.AdPlan, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ad_plan WHERE account_id=?", accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+adPlanColumns+" FROM ad_plan WHERE account_id=? ORDER BY id DESC LIMIT ? OFFSET ?",
		accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.AdPlan
	for rows.Next() {
		p, err := scanAdPlan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// Delete removes a plan and its group bindings in one transaction.
func (r *AdPlanRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ad_plan_ad_group WHERE ad_plan_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM ad_plan WHERE id=?", id)
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

// BindGroups attaches the given ad groups to a plan. Groups that do not
// exist fail the whole call; pairs already bound are skipped. Returns
// the full post-bind group list.
func (r *AdPlanRepo) BindGroups(ctx context.Context, planID uint64, groupIDs []uint64) ([]model.AdGroup, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM ad_plan WHERE id=? LIMIT 1", planID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	for _, gid := range groupIDs {
		var g uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM ad_group WHERE id=? LIMIT 1", gid).Scan(&g)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ad group %d", ErrNotFound, gid)
		}
		if err != nil {
			return nil, err
		}
		// INSERT IGNORE keeps already-bound pairs idempotent.
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO ad_plan_ad_group (ad_plan_id, ad_group_id) VALUES (?,?)",
			planID, gid); err != nil {
			return nil, err
		}
	}

	groups, err := listBoundGroups(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	return groups, tx.Commit()
}

// UnbindGroup detaches one group from a plan.
func (r *AdPlanRepo) UnbindGroup(ctx context.Context, planID, groupID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM ad_plan_ad_group WHERE ad_plan_id=? AND ad_group_id=?", planID, groupID)
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

// GroupsForPlan lists the groups currently bound to a plan.
func (r *AdPlanRepo) GroupsForPlan(ctx context.Context, planID uint64) ([]model.AdGroup, error) {
	return listBoundGroups(ctx, r.DB, planID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listBoundGroups(ctx context.Context, q querier, planID uint64) ([]model.AdGroup, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT g.id, g.name, IFNULL(g.account_id, 0), g.created_at, g.updated_at
		 FROM ad_plan_ad_group b
		 JOIN ad_group g ON g.id = b.ad_group_id
		 WHERE b.ad_plan_id=? ORDER BY g.id`, planID)
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

// buildInsert renders the column list, placeholder list and args for an
// INSERT from the whitelisted keys of fields, in deterministic order.
func buildInsert(fields map[string]any, allowed map[string]bool) (cols, marks string, args []any) {
	for _, col := range sortedKeys(fields) {
		if !allowed[col] {
			continue
		}
		if cols != "" {
			cols += ", "
			marks += ", "
		}
		cols += col
		marks += "?"
		args = append(args, fields[col])
	}
	return cols, marks, args
}
