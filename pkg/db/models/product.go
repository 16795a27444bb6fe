package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
)

// Product is a sellable listing. CategoryName is a cached copy of the owning
// category's name, kept in sync by the rename cascade.
type Product struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string            `gorm:"column:name;not null"`
	Description     string            `gorm:"column:description"`
	Price           decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL        string            `gorm:"column:image_url"`
	StripeProductID string            `gorm:"column:stripe_product_id;not null"`
	StripePriceID   string            `gorm:"column:stripe_price_id;not null"`
	CategoryID      uuid.UUID         `gorm:"column:category_id;type:uuid;not null"`
	CategoryName    string            `gorm:"column:category_name;not null"`
	OwnerID         uuid.UUID         `gorm:"column:owner_id;type:uuid;not null"`
	FamilyID        *uuid.UUID        `gorm:"column:family_id;type:uuid"`
	OwnerIDs        dbtypes.UUIDArray `gorm:"column:owner_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	Active          bool              `gorm:"column:active;not null;default:true"`
	Stock           int               `gorm:"column:stock;not null;default:0"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
