package domain

import "strings"

type Identity string

type ConversationID string

// Unassigned is the sentinel operator used when no real operator could be
// resolved at finalization time. The transaction is still recorded.
const Unassigned Identity = "unassigned"

type Role string

const (
	RoleUnprivileged  Role = "unprivileged"
	RoleOperator      Role = "operator"
	RoleAdministrator Role = "administrator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUnprivileged, RoleOperator, RoleAdministrator:
		return true
	default:
		return false
	}
}

// NormalizeIdentity strips whitespace and a leading @ so that "@name" and
// "name" refer to the same identity.
func NormalizeIdentity(raw string) Identity {
	return Identity(strings.TrimPrefix(strings.TrimSpace(raw), "@"))
}
