package customers

import (
	"time"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// CustomerDTO is the wire shape of a customer.
type CustomerDTO struct {
	ID               uuid.UUID            `json:"id"`
	StripeCustomerID string               `json:"stripe_customer_id"`
	Email            string               `json:"email"`
	Username         string               `json:"username"`
	Status           enums.CustomerStatus `json:"status"`
	ImageURL         *string              `json:"image_url,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func FromModel(m *models.Customer) *CustomerDTO {
	if m == nil {
		return nil
	}
	return &CustomerDTO{
		ID:               m.ID,
		StripeCustomerID: m.StripeCustomerID,
		Email:            m.Email,
		Username:         m.Username,
		Status:           m.Status,
		ImageURL:         m.ImageURL,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func FromModels(ms []models.Customer) []CustomerDTO {
	out := make([]CustomerDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *FromModel(&ms[i]))
	}
	return out
}
