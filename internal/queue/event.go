// Package queue defines message payloads exchanged over the message broker.
package queue

// Membership audit actions.
const (
	ActionBind       = "bind"
	ActionUnbind     = "unbind"
	ActionRoleChange = "role_change"
)

// PermissionChangedEvent is published whenever a super-admin mutates a
// user's account memberships (bind, unbind, role change). Downstream
// consumers get a full audit record without querying the primary
// database. Tokens issued before the change keep their old snapshot
// until renewal, so the event also marks the start of the staleness
// window auditors care about.
type PermissionChangedEvent struct {
	Action     string `json:"action"` // bind | unbind | role_change
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	AccountID  uint64 `json:"account_id"`
	Role       string `json:"role,omitempty"` // new account role, empty on unbind
	ActorID    uint64 `json:"actor_id"`       // super-admin who made the change
	ActorName  string `json:"actor_name"`
	OccurredAt string `json:"occurred_at"` // RFC3339 UTC
}
