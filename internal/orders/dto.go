package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// OrderDTO is the wire shape of an order.
type OrderDTO struct {
	ID            uuid.UUID             `json:"id"`
	CurrentStatus enums.OrderStatus     `json:"current_status"`
	StatusHistory dbtypes.StatusHistory `json:"status_history"`
	ChargeID      string                `json:"charge_id,omitempty"`
	CustomerID    *uuid.UUID            `json:"customer_id,omitempty"`
	Total         decimal.Decimal       `json:"total"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	return &OrderDTO{
		ID:            m.ID,
		CurrentStatus: m.CurrentStatus,
		StatusHistory: m.StatusHistory,
		ChargeID:      m.ChargeID,
		CustomerID:    m.CustomerID,
		Total:         m.Total,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func FromModels(ms []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(ms))
	for i := range ms {
		out = append(out, *FromModel(&ms[i]))
	}
	return out
}
