package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/adplatform/admin-api/internal/model"
)

type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

const accountColumns = "id, name, display_id, balance, today_cost, account_daily_budget, created_at, updated_at"

func scanAccount(row *sql.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Name, &a.DisplayID, &a.Balance, &a.TodayCost, &a.DailyBudget, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// IsDisplayIDTaken reports whether another account already uses the
// display id. excludeID skips the row being updated so an account can
// keep its own display id; pass 0 on create.
func (r *AccountRepo) IsDisplayIDTaken(ctx context.Context, displayID string, excludeID uint64) (bool, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM account WHERE display_id=? AND id<>? LIMIT 1",
		displayID, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts an account. The display_id uniqueness check here is
// the fast path; the unique index catches the race.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	taken, err := r.IsDisplayIDTaken(ctx, a.DisplayID, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrDisplayIDTaken
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO account (name, display_id, balance, today_cost, account_daily_budget) VALUES (?,?,?,?,?)",
		a.Name, a.DisplayID, a.Balance, a.TodayCost, a.DailyBudget)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDisplayIDTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// Update applies the provided column/value pairs inside a transaction,
// re-checking display_id uniqueness (excluding the row itself) when it
// is part of the change.
func (r *AccountRepo) Update(ctx context.Context, id uint64, fields map[string]any) (model.Account, error) {
	var out model.Account
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists uint64
	err = tx.QueryRowContext(ctx, "SELECT id FROM account WHERE id=? LIMIT 1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}

	if v, ok := fields["display_id"]; ok {
		var other uint64
		err = tx.QueryRowContext(ctx,
			"SELECT id FROM account WHERE display_id=? AND id<>? LIMIT 1", v, id).Scan(&other)
		if err == nil {
			return out, ErrDisplayIDTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return out, err
		}
	}

	set, args := buildSet(fields, accountUpdateColumns)
	if set == "" {
		return out, fmt.Errorf("no updatable fields")
	}
	args = append(args, id)
	if _, err := tx.ExecContext(ctx, "UPDATE account SET "+set+", updated_at=NOW() WHERE id=?", args...); err != nil {
		if isDuplicateKey(err) {
			return out, ErrDisplayIDTaken
		}
		return out, err
	}

	out, err = scanAccount(tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id=? LIMIT 1", id))
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// GetByID fetches one account.
func (r *AccountRepo) GetByID(ctx context.Context, id uint64) (model.Account, error) {
	return scanAccount(r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM account WHERE id=? LIMIT 1", id))
}

// List returns all accounts.
func (r *AccountRepo) List(ctx context.Context) ([]model.Account, error) {
	return r.listWhere(ctx, "", nil)
}

// ListByIDs returns the accounts matching ids, preserving store order.
func (r *AccountRepo) ListByIDs(ctx context.Context, ids []uint64) ([]model.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args = append(args, id)
	}
	return r.listWhere(ctx, "WHERE id IN ("+placeholders+")", args)
}

func (r *AccountRepo) listWhere(ctx context.Context, where string, args []any) ([]model.Account, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+accountColumns+" FROM account "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.DisplayID, &a.Balance, &a.TodayCost, &a.DailyBudget, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Charge records ad spend: adds to today_cost and deducts from balance
// in one transaction. A balance that cannot cover the amount rejects
// the whole charge.
func (r *AccountRepo) Charge(ctx context.Context, id uint64, amount float64) (model.Account, error) {
	var out model.Account
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return out, err
	}
	defer func() { _ = tx.Rollback() }()

	var balance float64
	err = tx.QueryRowContext(ctx, "SELECT balance FROM account WHERE id=? FOR UPDATE", id).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if balance < amount {
		return out, ErrInsufficientBalance
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE account SET balance=balance-?, today_cost=today_cost+?, updated_at=NOW() WHERE id=?",
		amount, amount, id); err != nil {
		return out, err
	}

	out, err = scanAccount(tx.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id=? LIMIT 1", id))
	if err != nil {
		return out, err
	}
	return out, tx.Commit()
}

// ResetTodayCost zeroes today_cost for every account (daily rollover).
func (r *AccountRepo) ResetTodayCost(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE account SET today_cost=0, updated_at=NOW()")
	return err
}

// accountUpdateColumns whitelists the columns Update may touch.
var accountUpdateColumns = map[string]bool{
	"name":                 true,
	"display_id":           true,
	"balance":              true,
	"today_cost":           true,
	"account_daily_budget": true,
}

// buildSet renders "col1=?, col2=?" for the whitelisted keys of fields,
// in deterministic order, and returns the matching args. Unknown keys
// are skipped; callers validate before reaching here.
func buildSet(fields map[string]any, allowed map[string]bool) (string, []any) {
	set := ""
	var args []any
	for _, col := range sortedKeys(fields) {
		if !allowed[col] {
			continue
		}
		if set != "" {
			set += ", "
		}
		set += col + "=?"
		args = append(args, fields[col])
	}
	return set, args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
