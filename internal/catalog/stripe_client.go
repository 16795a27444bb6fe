package catalog

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/price"
	"github.com/stripe/stripe-go/v84/product"

	pkgstripe "github.com/craftshoplabs/craftshop-backend/pkg/stripe"
)

type stripeCatalogWrapper struct {
	currency string
}

// NewStripeCatalog wraps the Stripe product/price APIs so the product service
// can be tested.
func NewStripeCatalog(api *pkgstripe.Client) paymentCatalog {
	if api == nil {
		return nil
	}
	return &stripeCatalogWrapper{currency: api.Currency()}
}

func (w *stripeCatalogWrapper) CreateProduct(ctx context.Context, name, description string) (string, error) {
	params := &stripe.ProductParams{Name: stripe.String(name)}
	params.Context = ctx
	if description != "" {
		params.Description = stripe.String(description)
	}
	created, err := product.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (w *stripeCatalogWrapper) UpdateProduct(ctx context.Context, stripeProductID, name, description string) error {
	params := &stripe.ProductParams{Name: stripe.String(name)}
	params.Context = ctx
	if description != "" {
		params.Description = stripe.String(description)
	}
	_, err := product.Update(stripeProductID, params)
	return err
}

func (w *stripeCatalogWrapper) DeleteProduct(ctx context.Context, stripeProductID string) error {
	params := &stripe.ProductParams{}
	params.Context = ctx
	_, err := product.Del(stripeProductID, params)
	return err
}

func (w *stripeCatalogWrapper) CreatePrice(ctx context.Context, stripeProductID string, unitAmount int64) (string, error) {
	params := &stripe.PriceParams{
		Product:    stripe.String(stripeProductID),
		UnitAmount: stripe.Int64(unitAmount),
		Currency:   stripe.String(w.currency),
	}
	params.Context = ctx
	created, err := price.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
