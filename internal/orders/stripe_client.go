package orders

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"

	pkgstripe "github.com/craftshoplabs/craftshop-backend/pkg/stripe"
)

// StripeRefundClient exposes the subset of Stripe operations required by the
// order service.
type StripeRefundClient interface {
	CreateRefund(ctx context.Context, chargeID string) (*stripe.Refund, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the Stripe refund API so the order service can be
// tested.
func NewStripeClient(api *pkgstripe.Client) StripeRefundClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreateRefund(ctx context.Context, chargeID string) (*stripe.Refund, error) {
	params := &stripe.RefundParams{Charge: stripe.String(chargeID)}
	params.Context = ctx
	return refund.New(params)
}
