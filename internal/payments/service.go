package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// CustomerTransactions joins a customer's charges with the balance
// transactions behind them.
type CustomerTransactions struct {
	Charges      []*stripe.Charge             `json:"charges"`
	Transactions []*stripe.BalanceTransaction `json:"transactions"`
}

// Service exposes read-only payment introspection.
type Service interface {
	GetBalance(ctx context.Context) (*stripe.Balance, error)
	ListTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error)
	ListRefunds(ctx context.Context) ([]*stripe.Refund, error)
	CustomerTransactions(ctx context.Context, stripeCustomerID string) (*CustomerTransactions, error)
}

type service struct {
	payments StripePaymentsClient
	logg     *logger.Logger
}

// NewService constructs the payments introspection service.
func NewService(payments StripePaymentsClient, logg *logger.Logger) (Service, error) {
	if payments == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{payments: payments, logg: logg}, nil
}

func (s *service) GetBalance(ctx context.Context) (*stripe.Balance, error) {
	balance, err := s.payments.GetBalance(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieving balance")
	}
	return balance, nil
}

func (s *service) ListTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error) {
	transactions, err := s.payments.ListBalanceTransactions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing balance transactions")
	}
	return transactions, nil
}

func (s *service) ListRefunds(ctx context.Context) ([]*stripe.Refund, error) {
	refunds, err := s.payments.ListRefunds(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing refunds")
	}
	return refunds, nil
}

// CustomerTransactions lists a customer's charges and keeps only the balance
// transactions those charges produced.
func (s *service) CustomerTransactions(ctx context.Context, stripeCustomerID string) (*CustomerTransactions, error) {
	id := strings.TrimSpace(stripeCustomerID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe customer id is required")
	}

	charges, err := s.payments.ListCharges(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing customer charges")
	}

	wanted := make(map[string]struct{}, len(charges))
	for _, ch := range charges {
		if ch.BalanceTransaction != nil {
			wanted[ch.BalanceTransaction.ID] = struct{}{}
		}
	}

	all, err := s.payments.ListBalanceTransactions(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing balance transactions")
	}
	matched := make([]*stripe.BalanceTransaction, 0, len(wanted))
	for _, txn := range all {
		if _, ok := wanted[txn.ID]; ok {
			matched = append(matched, txn)
		}
	}

	return &CustomerTransactions{Charges: charges, Transactions: matched}, nil
}
