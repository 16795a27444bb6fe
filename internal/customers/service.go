package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

type customerStore interface {
	List(ctx context.Context) ([]models.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CustomerStatus) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type accountDirectory interface {
	DisableAccount(ctx context.Context, username string) error
	EnableAccount(ctx context.Context, username string) error
	DeleteAccount(ctx context.Context, username string) error
}

// CustomerDetails is a customer row joined with its payment history.
type CustomerDetails struct {
	Customer *models.Customer
	Charges  []*stripe.Charge
}

// Service exposes storefront customer management.
type Service interface {
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetails, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CustomerStatus) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
}

type service struct {
	store    customerStore
	identity accountDirectory
	payments StripeCustomerClient
	logg     *logger.Logger
}

// NewService constructs the customer service.
func NewService(store customerStore, directory accountDirectory, payments StripeCustomerClient, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("customer store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if payments == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{store: store, identity: directory, payments: payments, logg: logg}, nil
}

func (s *service) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customers")
	}
	return rows, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerDetails, error) {
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	charges, err := s.payments.ListCharges(ctx, customer.StripeCustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing customer charges")
	}
	return &CustomerDetails{Customer: customer, Charges: charges}, nil
}

// UpdateStatus flips the identity account first, then the row, so a customer
// is never marked active while the account is still disabled.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CustomerStatus) (*models.Customer, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer status")
	}
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.Status == status {
		return customer, nil
	}

	toggle := s.identity.EnableAccount
	if status == enums.CustomerStatusInactive {
		toggle = s.identity.DisableAccount
	}
	if err := toggle(ctx, customer.Username); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggling identity account")
	}

	applied, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating customer status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	customer.Status = status
	return customer, nil
}

func (s *service) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.loadCustomer(ctx, id)
	if err != nil {
		return err
	}

	if err := s.payments.DeleteCustomer(ctx, customer.StripeCustomerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting payment customer")
	}
	if err := s.identity.DeleteAccount(ctx, customer.Username); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"customer_id": id.String()}),
			"identity account removal failed", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting customer")
	}
	return nil
}

func (s *service) loadCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	return customer, nil
}
