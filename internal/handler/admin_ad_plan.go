package handler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adplatform/admin-api/internal/auth"
	"github.com/adplatform/admin-api/internal/model"
	"github.com/adplatform/admin-api/internal/repository"
	"github.com/adplatform/admin-api/internal/response"
)

// PlanStore is the persistence surface the ad plan handler needs.
// *repository.AdPlanRepo satisfies it.
type PlanStore interface {
	Create(ctx context.Context, fields map[string]any) (model.AdPlan, error)
	Update(ctx context.Context, id uint64, fields map[string]any) (model.AdPlan, error)
	GetByID(ctx context.Context, id uint64) (model.AdPlan, error)
	ListByAccount(ctx context.Context, accountID uint64, offset, limit int) ([]model.AdPlan, int, error)
	Delete(ctx context.Context, id uint64) error
	BindGroups(ctx context.Context, planID uint64, groupIDs []uint64) ([]model.AdGroup, error)
	UnbindGroup(ctx context.Context, planID, groupID uint64) error
	GroupsForPlan(ctx context.Context, planID uint64) ([]model.AdGroup, error)
}

// AdPlanHandler serves /api/admin/ad-plans. Create and update are
// field-scoped mutations: the caller's account role decides, per field,
// whether the write is allowed, and a single denied field rejects the
// whole request.
type AdPlanHandler struct {
	Plans PlanStore
}

func NewAdPlanHandler(plans PlanStore) *AdPlanHandler {
	if plans == nil {
		panic("handler: NewAdPlanHandler requires a non-nil store")
	}
	return &AdPlanHandler{Plans: plans}
}

// resolveFields runs the shared front half of every field-scoped
// mutation: account_id must be present and numeric before anything else
// is looked at, unknown fields fail validation, and the field policy is
// applied strictly. On failure the rejection has already been written
// and ok is false; on success it returns the target account and the
// field names in deterministic order.
func resolveFields(c echo.Context, body map[string]any, policy auth.FieldPolicy) (accountID uint64, names []string, ok bool) {
	raw, present := body["account_id"]
	if !present {
		_ = response.BadRequest(c, "account_id is required")
		return 0, nil, false
	}
	accountID, present = asID(raw)
	if !present {
		_ = response.BadRequest(c, "account_id must be numeric")
		return 0, nil, false
	}

	names = make([]string, 0, len(body))
	for k := range body {
		names = append(names, k)
	}
	sort.Strings(names)

	if unknown := policy.Unknown(names); len(unknown) > 0 {
		_ = response.BadRequest(c, "unknown field: "+unknown[0])
		return 0, nil, false
	}

	decision := auth.FilterWritableFields(identity(c), accountID, names, policy)
	if !decision.Allowed() {
		_ = response.Forbidden(c,
			"no permission to write fields: "+strings.Join(decision.Denied, ", "))
		return 0, nil, false
	}
	return accountID, names, true
}

// asID coerces a decoded JSON value into a positive integer id.
func asID(v any) (uint64, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(uint64(f)) || f < 1 {
		return 0, false
	}
	return uint64(f), true
}

func asNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asIntValue(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// parseDate accepts a bare date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// coerceAdPlanField validates one ad plan field value and converts it
// to its storage type. The field name has already passed the policy.
func coerceAdPlanField(name string, v any) (any, error) {
	switch name {
	case "account_id":
		id, ok := asID(v)
		if !ok {
			return nil, fmt.Errorf("account_id must be numeric")
		}
		return id, nil
	case "name":
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("name must be a non-empty string")
		}
		return strings.TrimSpace(s), nil
	case "plan_type":
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("plan_type must be a non-empty string")
		}
		return s, nil
	case "target":
		s, _ := v.(string)
		if !model.ValidTargets[s] {
			return nil, fmt.Errorf("invalid target")
		}
		return s, nil
	case "price_stratagy":
		s, _ := v.(string)
		if !model.ValidPriceStrategies[s] {
			return nil, fmt.Errorf("invalid price_stratagy")
		}
		return s, nil
	case "placement_type":
		s, _ := v.(string)
		if !model.ValidPlacements[s] {
			return nil, fmt.Errorf("invalid placement_type")
		}
		return s, nil
	case "status":
		n, ok := asIntValue(v)
		if !ok || n < 0 || n > 3 {
			return nil, fmt.Errorf("status must be between 0 and 3")
		}
		return n, nil
	case "chuang_yi_you_xuan":
		n, ok := asIntValue(v)
		if !ok || (n != 0 && n != 1) {
			return nil, fmt.Errorf("chuang_yi_you_xuan must be 0 or 1")
		}
		return n, nil
	case "start_date", "end_date":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be a date string", name)
		}
		t, err := parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%s is not a valid date", name)
		}
		return t, nil
	case "display_count", "click_count", "download_count":
		n, ok := asIntValue(v)
		if !ok || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", name)
		}
		return n, nil
	default:
		// budget, cost, click_per_price, click_rate, ecpm,
		// download_per_count, download_rate
		f, ok := asNumber(v)
		if !ok || f < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number", name)
		}
		return f, nil
	}
}

// buildAdPlanFields coerces every permitted field, reporting the first
// failure only.
func buildAdPlanFields(c echo.Context, body map[string]any, names []string) (map[string]any, bool) {
	fields := make(map[string]any, len(names))
	for _, name := range names {
		val, err := coerceAdPlanField(name, body[name])
		if err != nil {
			_ = response.BadRequest(c, err.Error())
			return nil, false
		}
		fields[name] = val
	}
	return fields, true
}

// Create handles POST /api/admin/ad-plans.
func (h *AdPlanHandler) Create(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil || body == nil {
		return response.BadRequest(c, "invalid request body")
	}

	_, names, ok := resolveFields(c, body, auth.AdPlanFields)
	if !ok {
		return nil
	}
	if _, present := body["name"]; !present {
		return response.BadRequest(c, "name is required")
	}
	fields, ok := buildAdPlanFields(c, body, names)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, err := h.Plans.Create(ctx, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNameExists) {
			return response.BadRequest(c, "plan name already exists")
		}
		c.Logger().Errorf("create ad plan: %v", err)
		return response.ServerError(c, "")
	}
	return response.Created(c, "ad plan created", plan)
}

// Update handles PUT /api/admin/ad-plans/:id. Permission is checked
// against the account the plan is stored under, not just the body's
// account_id: moving a plan between accounts requires membership on
// both ends. Name uniqueness excludes the plan itself.
func (h *AdPlanHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid plan id")
	}
	var body map[string]any
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil || body == nil {
		return response.BadRequest(c, "invalid request body")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	current, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad plan not found")
		}
		c.Logger().Errorf("update ad plan: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), current.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	_, names, ok := resolveFields(c, body, auth.AdPlanFields)
	if !ok {
		return nil
	}
	fields, ok := buildAdPlanFields(c, body, names)
	if !ok {
		return nil
	}

	plan, err := h.Plans.Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return response.NotFound(c, "ad plan not found")
		case errors.Is(err, repository.ErrNameExists):
			return response.BadRequest(c, "plan name already exists")
		default:
			c.Logger().Errorf("update ad plan: %v", err)
			return response.ServerError(c, "")
		}
	}
	return response.OK(c, "ad plan updated", plan)
}

// Get handles GET /api/admin/ad-plans/:id. Reading requires membership
// on the plan's account.
func (h *AdPlanHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid plan id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad plan not found")
		}
		c.Logger().Errorf("get ad plan: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), plan.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	groups, err := h.Plans.GroupsForPlan(ctx, id)
	if err != nil {
		c.Logger().Errorf("get ad plan: load groups: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad plan", map[string]any{"plan": plan, "ad_groups": groups})
}

// List handles GET /api/admin/ad-plans?account_id=N&page=&page_size=.
func (h *AdPlanHandler) List(c echo.Context) error {
	accountID, ok := queryAccountID(c)
	if !ok {
		return response.BadRequest(c, "account_id is required and must be numeric")
	}
	if !auth.AuthorizeAccountAccess(identity(c), accountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}
	page, size, offset := pageParams(c)

	ctx, cancel := reqCtx(c)
	defer cancel()

	plans, total, err := h.Plans.ListByAccount(ctx, accountID, offset, size)
	if err != nil {
		c.Logger().Errorf("list ad plans: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad plans", map[string]any{
		"list": plans, "total": total, "page": page, "page_size": size,
	})
}

// Delete handles DELETE /api/admin/ad-plans/:id. Deletion is a
// site_admin operation; group bindings are removed with the plan.
func (h *AdPlanHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid plan id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad plan not found")
		}
		c.Logger().Errorf("delete ad plan: load: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), plan.AccountID, auth.AccountSiteAdmin) {
		return response.Forbidden(c, "no permission on this account")
	}

	if err := h.Plans.Delete(ctx, id); err != nil {
		c.Logger().Errorf("delete ad plan: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad plan deleted", nil)
}

// BindGroups handles POST /api/admin/ad-plans/:id/ad-groups. Binding
// is idempotent: already-bound groups are skipped.
func (h *AdPlanHandler) BindGroups(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid plan id")
	}
	var body struct {
		GroupIDs []uint64 `json:"group_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if len(body.GroupIDs) == 0 {
		return response.BadRequest(c, "group_ids is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad plan not found")
		}
		c.Logger().Errorf("bind ad groups: load plan: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), plan.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	groups, err := h.Plans.BindGroups(ctx, id, body.GroupIDs)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.BadRequest(c, "one or more ad groups do not exist")
		}
		c.Logger().Errorf("bind ad groups: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad groups bound", map[string]any{"ad_groups": groups})
}

// UnbindGroup handles DELETE /api/admin/ad-plans/:id/ad-groups/:groupId.
func (h *AdPlanHandler) UnbindGroup(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return response.BadRequest(c, "invalid plan id")
	}
	groupID, ok := pathID(c, "groupId")
	if !ok {
		return response.BadRequest(c, "invalid group id")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	plan, err := h.Plans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "ad plan not found")
		}
		c.Logger().Errorf("unbind ad group: load plan: %v", err)
		return response.ServerError(c, "")
	}
	if !auth.AuthorizeAccountAccess(identity(c), plan.AccountID, auth.AccountAdOperator) {
		return response.Forbidden(c, "no permission on this account")
	}

	if err := h.Plans.UnbindGroup(ctx, id, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "binding not found")
		}
		c.Logger().Errorf("unbind ad group: %v", err)
		return response.ServerError(c, "")
	}
	return response.OK(c, "ad group unbound", nil)
}
