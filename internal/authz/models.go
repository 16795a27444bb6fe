package authz

import (
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// ForCategory derives the ownership descriptor from a category row. Rows from
// older revisions may carry an empty owner set; those resolve to the legacy
// variants so the evaluator can still dispatch on them.
func ForCategory(c *models.Category) Descriptor {
	return descriptorFromRow(c.OwnerID, c.OwnerIDs, c.FamilyID)
}

// ForProduct derives the ownership descriptor from a product row.
func ForProduct(p *models.Product) Descriptor {
	return descriptorFromRow(p.OwnerID, p.OwnerIDs, p.FamilyID)
}

// ForUser derives the user-entity resource view.
func ForUser(u *models.User) UserResource {
	return UserResource{ID: u.ID, OwnerID: u.OwnerID, FamilyID: u.FamilyID}
}

func descriptorFromRow(ownerID uuid.UUID, ownerIDs []uuid.UUID, familyID *uuid.UUID) Descriptor {
	if len(ownerIDs) == 0 {
		if familyID != nil {
			return FamilyShared(ownerID, *familyID)
		}
		return SingleOwner(ownerID)
	}
	d := OwnerSet(ownerID, ownerIDs...)
	if familyID != nil {
		d = d.WithFamily(*familyID)
	}
	return d
}
