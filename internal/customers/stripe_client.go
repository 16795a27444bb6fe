package customers

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/charge"
	"github.com/stripe/stripe-go/v84/customer"

	pkgstripe "github.com/craftshoplabs/craftshop-backend/pkg/stripe"
)

// StripeCustomerClient exposes the subset of Stripe operations required by
// the customer service.
type StripeCustomerClient interface {
	ListCharges(ctx context.Context, stripeCustomerID string) ([]*stripe.Charge, error)
	DeleteCustomer(ctx context.Context, stripeCustomerID string) error
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the Stripe charge/customer APIs so the customer
// service can be tested.
func NewStripeClient(api *pkgstripe.Client) StripeCustomerClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
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

func (w *stripeClientWrapper) DeleteCustomer(ctx context.Context, stripeCustomerID string) error {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	_, err := customer.Del(stripeCustomerID, params)
	return err
}
