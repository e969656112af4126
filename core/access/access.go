// Package access decides whether an authenticated account may reach a
// protected view. Authorize is a pure function over already-fetched data;
// callers own redirects and flag fetching.
package access

import (
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
)

// Requirement is the static access declaration attached to a protected view.
// A zero Role with AnyAuthenticated set admits every signed-in account.
type Requirement struct {
	Role             user.Role
	AnyAuthenticated bool
	Feature          center.Feature // optional; gates center-scoped views
}

// DenyReason states why access was refused.
type DenyReason int

const (
	DenyNone DenyReason = iota
	DenyWrongRole
	DenyFeatureDisabled
	DenyResolverError
)

func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyWrongRole:
		return "wrong role"
	case DenyFeatureDisabled:
		return "feature disabled"
	case DenyResolverError:
		return "resolver error"
	}
	return "unknown"
}

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

var Allow = Decision{Allowed: true}

func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize decides whether usr satisfies req given the center's flag set.
//
// Role check first: admins are granted cross-role access by convention; any
// other mismatch is DenyWrongRole. Then, if req names a feature and usr is
// center-scoped, the flag set is consulted — a stored disabled row denies,
// anything else (no row, unknown feature name) allows. Admins carry no
// center, so feature gates never apply to them.
func Authorize(usr user.User, req Requirement, flags center.FlagSet) Decision {
	if !req.AnyAuthenticated && req.Role != usr.Role && !usr.IsAdmin() {
		return Deny(DenyWrongRole)
	}

	if req.Feature != "" && usr.CenterID.Valid {
		if !flags.Enabled(req.Feature) {
			return Deny(DenyFeatureDisabled)
		}
	}
	return Allow
}
