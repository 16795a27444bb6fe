package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// Customer is a storefront buyer tied 1:1 to an identity account and a
// Stripe customer.
type Customer struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripeCustomerID string               `gorm:"column:stripe_customer_id;not null"`
	Email            string               `gorm:"column:email;type:text;not null"`
	Username         string               `gorm:"column:username;type:text;not null"`
	Status           enums.CustomerStatus `gorm:"column:status;not null;default:'active'"`
	ImageURL         *string              `gorm:"column:image_url"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
