package authz

import (
	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
)

// Action is the operation a principal attempts against a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Principal is the authenticated caller.
type Principal struct {
	ID       uuid.UUID
	FamilyID *uuid.UUID
	Role     string
	Scopes   []enums.PermissionScope
}

// HasScope reports whether the principal carries the wanted grant.
func (p Principal) HasScope(wanted enums.PermissionScope) bool {
	return enums.HasScope(p.Scopes, wanted)
}

// Reason explains a policy decision.
type Reason string

const (
	ReasonCreator    Reason = "creator"
	ReasonMember     Reason = "member"
	ReasonSelf       Reason = "self"
	ReasonSameFamily Reason = "same_family"

	ReasonNotMember       Reason = "not_member"
	ReasonNotSelfOrOwner  Reason = "not_self_or_owner"
	ReasonDifferentFamily Reason = "different_family"
)

// Decision is the outcome of a policy evaluation. Pure data, no side effects.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow(reason Reason) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason Reason) Decision  { return Decision{Allowed: false, Reason: reason} }

// Authorize decides whether the principal may perform the action on a
// resource carrying the given ownership descriptor. Dispatch is per variant;
// the action does not change membership semantics, only how callers translate
// a denial (reads mask existence, writes report it).
func Authorize(p Principal, d Descriptor, action Action) Decision {
	switch d.Variant() {
	case VariantSingleOwner:
		if p.ID == d.Owner() {
			return allow(ReasonCreator)
		}
		return deny(ReasonNotMember)
	case VariantFamilyShared:
		if p.ID == d.Owner() {
			return allow(ReasonCreator)
		}
		if p.FamilyID != nil && d.Family() != nil && *p.FamilyID == *d.Family() {
			return allow(ReasonSameFamily)
		}
		return deny(ReasonDifferentFamily)
	default:
		if p.ID == d.Owner() {
			return allow(ReasonCreator)
		}
		if containsID(d.Members(), p.ID) {
			return allow(ReasonMember)
		}
		if p.FamilyID != nil && d.Family() != nil && *p.FamilyID == *d.Family() {
			return allow(ReasonSameFamily)
		}
		return deny(ReasonNotMember)
	}
}

// UserResource is the slice of a user row the policy needs.
type UserResource struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	FamilyID *uuid.UUID
}

// AuthorizeUser applies the user-entity policy: self, inviter, or same family.
func AuthorizeUser(p Principal, resource UserResource, action Action) Decision {
	if p.ID == resource.ID {
		return allow(ReasonSelf)
	}
	if p.ID == resource.OwnerID {
		return allow(ReasonCreator)
	}
	if p.FamilyID != nil && resource.FamilyID != nil && *p.FamilyID == *resource.FamilyID {
		return allow(ReasonSameFamily)
	}
	return deny(ReasonNotSelfOrOwner)
}

// Denied translates a denial into the client-facing error. Denied reads mask
// the resource's existence; denied writes on visible rows are explicit.
func Denied(action Action, decision Decision) error {
	if decision.Allowed {
		return nil
	}
	if action == ActionRead {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not permitted for this resource").
		WithDetails(map[string]any{"reason": string(decision.Reason)})
}

// FilterOwned keeps the items the principal may read, applying the same
// predicate listing endpoints use.
func FilterOwned[T any](p Principal, items []T, descriptor func(T) Descriptor) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Authorize(p, descriptor(item), ActionRead).Allowed {
			out = append(out, item)
		}
	}
	return out
}
