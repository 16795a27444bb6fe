package authz

import "github.com/google/uuid"

// Variant names the ownership shape a resource row carries. Rows written by
// older revisions surface as SingleOwner or FamilyShared; Normalize folds
// everything into the canonical OwnerSet form.
type Variant string

const (
	VariantSingleOwner  Variant = "single_owner"
	VariantOwnerSet     Variant = "owner_set"
	VariantFamilyShared Variant = "family_shared"
)

// Descriptor is the tagged ownership descriptor attached to a resource.
type Descriptor struct {
	variant Variant
	owner   uuid.UUID
	members []uuid.UUID
	family  *uuid.UUID
}

// SingleOwner describes a resource owned by exactly one principal.
func SingleOwner(ownerID uuid.UUID) Descriptor {
	return Descriptor{variant: VariantSingleOwner, owner: ownerID}
}

// OwnerSet describes a resource shared with an explicit member set. The
// creator is a member regardless of whether the set lists it.
func OwnerSet(ownerID uuid.UUID, members ...uuid.UUID) Descriptor {
	return Descriptor{variant: VariantOwnerSet, owner: ownerID, members: members}
}

// FamilyShared describes a resource visible to everyone in the owner's family
// group.
func FamilyShared(ownerID uuid.UUID, familyID uuid.UUID) Descriptor {
	fam := familyID
	return Descriptor{variant: VariantFamilyShared, owner: ownerID, family: &fam}
}

// WithFamily attaches a family group to an existing descriptor.
func (d Descriptor) WithFamily(familyID uuid.UUID) Descriptor {
	fam := familyID
	d.family = &fam
	return d
}

func (d Descriptor) Variant() Variant { return d.variant }

// Owner returns the creating principal.
func (d Descriptor) Owner() uuid.UUID { return d.owner }

// Family returns the family group, if any.
func (d Descriptor) Family() *uuid.UUID { return d.family }

// Members returns the explicit member set, creator included exactly once.
func (d Descriptor) Members() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(d.members)+1)
	if d.owner != uuid.Nil {
		out = append(out, d.owner)
	}
	for _, id := range d.members {
		if id == uuid.Nil || containsID(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Normalize rewrites any legacy descriptor into the canonical OwnerSet form.
// The creator is always folded into the member set; a family group attached to
// the source descriptor is preserved so group checks keep working.
func Normalize(d Descriptor) Descriptor {
	normalized := Descriptor{
		variant: VariantOwnerSet,
		owner:   d.owner,
		members: d.Members(),
		family:  d.family,
	}
	return normalized
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
