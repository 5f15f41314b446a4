package auth

import "github.com/spec-kit/callcenter-service/internal/domain"

// Operation enumerates the actions the policy decides on.
type Operation string

const (
	OpReadRecord        Operation = "record:read"
	OpCreateRecord      Operation = "record:create"
	OpUpdateRecord      Operation = "record:update"
	OpUpdateRecordPhone Operation = "record:update_phone"
	OpDeleteRecord      Operation = "record:delete"
	OpManageUsers       Operation = "users:manage"
	OpReadOwnProfile    Operation = "profile:read"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
	// AllowRedacted permits the operation but with the phone fields
	// write-locked and rendered masked for the caller.
	AllowRedacted
)

// Decide is the single authorization decision point. Admins may do anything.
// Agents operate only on records they own, and even on their own records the
// phone fields remain redacted once a sale is attributed to them.
//
// List-level filtering for agents is not expressed here: rows failing the
// ownership predicate are excluded at query time, never surfaced as a denial.
func Decide(role domain.Role, isOwner bool, op Operation) Decision {
	if role == domain.RoleAdmin {
		return Allow
	}
	if role != domain.RoleAgent {
		return Deny
	}

	switch op {
	case OpCreateRecord, OpReadOwnProfile:
		return Allow
	case OpReadRecord, OpUpdateRecord, OpDeleteRecord:
		if isOwner {
			return Allow
		}
		return Deny
	case OpUpdateRecordPhone:
		if isOwner {
			return AllowRedacted
		}
		return Deny
	case OpManageUsers:
		return Deny
	default:
		return Deny
	}
}
