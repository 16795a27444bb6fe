package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
)

// Category groups products. ProductCount is denormalized and maintained by
// the counter maintainer; it never drops below zero.
type Category struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryName string            `gorm:"column:category_name;not null"`
	OwnerName    string            `gorm:"column:owner_name;not null"`
	OwnerID      uuid.UUID         `gorm:"column:owner_id;type:uuid;not null"`
	FamilyID     *uuid.UUID        `gorm:"column:family_id;type:uuid"`
	OwnerIDs     dbtypes.UUIDArray `gorm:"column:owner_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	ProductCount int               `gorm:"column:product_count;not null;default:0"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
