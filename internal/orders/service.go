package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

type orderStore interface {
	List(ctx context.Context) ([]models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, history dbtypes.StatusHistory) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefundResult reports the refund and the resulting order state.
type RefundResult struct {
	Order    *models.Order
	RefundID string
}

// Service exposes order management.
type Service interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	RefundOrder(ctx context.Context, id uuid.UUID) (*RefundResult, error)
}

type service struct {
	store    orderStore
	payments StripeRefundClient
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the order service.
func NewService(store orderStore, payments StripeRefundClient, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("order store is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{store: store, payments: payments, logg: logg, now: time.Now}, nil
}

func (s *service) ListOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, id)
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CurrentStatus == status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already in requested status").
			WithDetails(map[string]any{"current_status": order.CurrentStatus.String()})
	}

	return s.transition(ctx, order, status)
}

func (s *service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if _, err := s.loadOrder(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting order")
	}
	return nil
}

// RefundOrder refunds the order's charge and records the transition. The
// Stripe call is not retried; a duplicate refund attempt fails upstream.
func (s *service) RefundOrder(ctx context.Context, id uuid.UUID) (*RefundResult, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.ChargeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no charge to refund")
	}
	if order.CurrentStatus == enums.OrderStatusReturned {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already refunded")
	}

	refund, err := s.payments.CreateRefund(ctx, order.ChargeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating refund")
	}

	updated, err := s.transition(ctx, order, enums.OrderStatusReturned)
	if err != nil {
		// Money moved but the row didn't; log loudly, the refund id is the
		// reconciliation handle.
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"order_id":  id.String(),
			"refund_id": refund.ID,
		}), "refund succeeded but status update failed", err)
		return nil, err
	}
	return &RefundResult{Order: updated, RefundID: refund.ID}, nil
}

func (s *service) transition(ctx context.Context, order *models.Order, status enums.OrderStatus) (*models.Order, error) {
	history := order.StatusHistory.Append(status.String(), s.now())
	applied, err := s.store.SetStatus(ctx, order.ID, status, history)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	order.CurrentStatus = status
	order.StatusHistory = history
	return order, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
