package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// Order tracks a purchase. StatusHistory is append-only; ChargeID links the
// Stripe charge used by the refund path.
type Order struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CurrentStatus enums.OrderStatus      `gorm:"column:current_status;not null;default:'placed'"`
	StatusHistory dbtypes.StatusHistory  `gorm:"column:status_history;type:jsonb;not null;default:'[]'"`
	ChargeID      string                 `gorm:"column:charge_id"`
	CustomerID    *uuid.UUID             `gorm:"column:customer_id;type:uuid"`
	Total         decimal.Decimal        `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
