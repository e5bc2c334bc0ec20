package auth

// FieldPolicy partitions the mutable fields of one resource type into a
// base set, writable by ad_operator and above, and a privileged set,
// writable by site_admin only. Every mutable field must appear in
// exactly one set; a field in neither is unknown and is denied outright.
type FieldPolicy struct {
	base       map[string]bool
	privileged map[string]bool
}

// NewFieldPolicy builds a policy from the two field lists. A field named
// in both lists panics at init time; the partition must be disjoint.
func NewFieldPolicy(base, privileged []string) FieldPolicy {
	p := FieldPolicy{
		base:       make(map[string]bool, len(base)),
		privileged: make(map[string]bool, len(privileged)),
	}
	for _, f := range base {
		p.base[f] = true
	}
	for _, f := range privileged {
		if p.base[f] {
			panic("field classified both base and privileged: " + f)
		}
		p.privileged[f] = true
	}
	return p
}

// Known reports whether field is classified at all.
func (p FieldPolicy) Known(field string) bool {
	return p.base[field] || p.privileged[field]
}

// Unknown returns the requested fields the policy does not classify, in
// request order.
func (p FieldPolicy) Unknown(requested []string) []string {
	var out []string
	for _, f := range requested {
		if !p.Known(f) {
			out = append(out, f)
		}
	}
	return out
}

// AdPlanFields is the write policy for the ad_plan resource. The
// privileged half is the delivery statistics an operator must not
// fabricate.
var AdPlanFields = NewFieldPolicy(
	[]string{
		"name",
		"plan_type",
		"target",
		"price_stratagy",
		"placement_type",
		"status",
		"chuang_yi_you_xuan",
		"budget",
		"start_date",
		"end_date",
		"account_id",
	},
	[]string{
		"cost",
		"display_count",
		"click_count",
		"download_count",
		"click_per_price",
		"click_rate",
		"ecpm",
		"download_per_count",
		"download_rate",
	},
)

// AdCreativeFields is the write policy for the ad_creatives resource.
var AdCreativeFields = NewFieldPolicy(
	[]string{
		"name",
		"display_id",
		"status",
		"budget",
		"click_cost",
		"download_cost",
		"account_id",
	},
	[]string{
		"costs",
		"display_count",
		"click_count",
		"click_rate",
		"download_count",
		"download_rate",
		"ecpm",
	},
)

// FieldDecision is the outcome of a field-permission resolution. Both
// slices preserve request order so error messages stay stable.
type FieldDecision struct {
	Permitted []string
	Denied    []string
}

// Allowed reports whether nothing was denied.
func (d FieldDecision) Allowed() bool { return len(d.Denied) == 0 }

// FilterWritableFields resolves which of the requested fields the caller
// may write on the given account. No relationship with the account
// denies every requested field, including base ones; site_admin (and
// super-admin) passes everything; ad_operator passes the base set only.
func FilterWritableFields(claims *Claims, accountID uint64, requested []string, policy FieldPolicy) FieldDecision {
	var d FieldDecision
	role, ok := EffectiveAccountRole(claims, accountID)
	if !ok {
		d.Denied = append(d.Denied, requested...)
		return d
	}
	for _, f := range requested {
		switch {
		case !policy.Known(f):
			d.Denied = append(d.Denied, f)
		case policy.privileged[f] && !role.AtLeast(AccountSiteAdmin):
			d.Denied = append(d.Denied, f)
		default:
			d.Permitted = append(d.Permitted, f)
		}
	}
	return d
}
