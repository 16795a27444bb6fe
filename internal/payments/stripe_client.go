package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/balance"
	"github.com/stripe/stripe-go/v84/balancetransaction"
	"github.com/stripe/stripe-go/v84/charge"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/craftshoplabs/craftshop-backend/pkg/stripe"
)

// StripePaymentsClient exposes the read-side Stripe operations required by
// the payments service.
type StripePaymentsClient interface {
	GetBalance(ctx context.Context) (*stripe.Balance, error)
	ListBalanceTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error)
	ListRefunds(ctx context.Context) ([]*stripe.Refund, error)
	ListCharges(ctx context.Context, stripeCustomerID string) ([]*stripe.Charge, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the Stripe introspection APIs so the payments
// service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripePaymentsClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) GetBalance(ctx context.Context) (*stripe.Balance, error) {
	params := &stripe.BalanceParams{}
	params.Context = ctx
	return balance.Get(params)
}

func (w *stripeClientWrapper) ListBalanceTransactions(ctx context.Context) ([]*stripe.BalanceTransaction, error) {
	params := &stripe.BalanceTransactionListParams{}
	params.Context = ctx

	var transactions []*stripe.BalanceTransaction
	iter := balancetransaction.List(params)
	for iter.Next() {
		transactions = append(transactions, iter.BalanceTransaction())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (w *stripeClientWrapper) ListRefunds(ctx context.Context) ([]*stripe.Refund, error) {
	params := &stripe.RefundListParams{}
	params.Context = ctx

	var refunds []*stripe.Refund
	iter := refund.List(params)
	for iter.Next() {
		refunds = append(refunds, iter.Refund())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return refunds, nil
}

func (w *stripeClientWrapper) ListCharges(ctx context.Context, stripeCustomerID string) ([]*stripe.Charge, error) {
	params := &stripe.ChargeListParams{Customer: stripe.String(stripeCustomerID)}
	params.Context = ctx

	var charges []*stripe.Charge
	iter := charge.List(params)
	for iter.Next() {
		charges = append(charges, iter.Charge())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return charges, nil
}
