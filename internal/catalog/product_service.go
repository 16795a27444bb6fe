package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

type productStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListVisibleTo(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Product, error)
	UpdateGuarded(ctx context.Context, product *models.Product, actorID uuid.UUID) (bool, error)
	DeleteGuarded(ctx context.Context, id, actorID uuid.UUID) (bool, error)
}

type counterStore interface {
	IncrementProductCount(ctx context.Context, categoryID uuid.UUID) error
	DecrementProductCount(ctx context.Context, categoryID uuid.UUID) (CounterResult, error)
}

type paymentCatalog interface {
	CreateProduct(ctx context.Context, name, description string) (string, error)
	UpdateProduct(ctx context.Context, stripeProductID, name, description string) error
	DeleteProduct(ctx context.Context, stripeProductID string) error
	CreatePrice(ctx context.Context, stripeProductID string, unitAmount int64) (string, error)
}

type mediaStore interface {
	Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	DeleteByURL(ctx context.Context, rawURL string) error
}

// ImageUpload carries raw image bytes destined for the object store.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateProductInput holds the fields needed to create a product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  uuid.UUID
	Stock       int
	Image       *ImageUpload
}

// PatchProductInput carries partial updates; nil fields stay untouched.
type PatchProductInput struct {
	Name             *string
	Description      *string
	Price            *decimal.Decimal
	Stock            *int
	Active           *bool
	AdditionalOwners []uuid.UUID
	Image            *ImageUpload
}

// ProductService exposes the product side of the catalog.
type ProductService interface {
	ListProducts(ctx context.Context, principal authz.Principal) ([]models.Product, error)
	GetProduct(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, principal authz.Principal, input CreateProductInput) (*models.Product, error)
	PatchProduct(ctx context.Context, principal authz.Principal, id uuid.UUID, input PatchProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, principal authz.Principal, id uuid.UUID) error
}

type productService struct {
	products   productStore
	categories categoryStore
	counter    counterStore
	payments   paymentCatalog
	media      mediaStore
	users      userLoader
	logg       *logger.Logger
}

// NewProductService wires product CRUD with the payment processor, object
// store, and the counter maintainer.
func NewProductService(products productStore, categories categoryStore, counter counterStore, payments paymentCatalog, media mediaStore, users userLoader, logg *logger.Logger) (ProductService, error) {
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category store required")
	}
	if counter == nil {
		return nil, fmt.Errorf("counter maintainer required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment catalog required")
	}
	if media == nil {
		return nil, fmt.Errorf("media store required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &productService{
		products:   products,
		categories: categories,
		counter:    counter,
		payments:   payments,
		media:      media,
		users:      users,
		logg:       logg,
	}, nil
}

// MinorUnits converts a decimal price into the payment processor's integer
// minor-unit representation.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (s *productService) ListProducts(ctx context.Context, principal authz.Principal) ([]models.Product, error) {
	rows, err := s.products.ListVisibleTo(ctx, principal.ID, principal.FamilyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	visible := authz.FilterOwned(principal, rows, func(p models.Product) authz.Descriptor {
		return authz.ForProduct(&p)
	})
	return visible, nil
}

func (s *productService) GetProduct(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(principal, authz.ForProduct(product), authz.ActionRead); !decision.Allowed {
		return nil, authz.Denied(authz.ActionRead, decision)
	}
	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, principal authz.Principal, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}

	category, err := s.categories.FindByID(ctx, input.CategoryID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	if decision := authz.Authorize(principal, authz.ForCategory(category), authz.ActionRead); !decision.Allowed {
		return nil, authz.Denied(authz.ActionRead, decision)
	}

	creator, err := s.users.FindByID(ctx, principal.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "acting user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading acting user")
	}

	stripeProductID, err := s.payments.CreateProduct(ctx, name, input.Description)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment product")
	}
	stripePriceID, err := s.payments.CreatePrice(ctx, stripeProductID, MinorUnits(input.Price))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating payment price")
	}

	var imageURL string
	if input.Image != nil {
		imageURL, err = s.uploadImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		Name:            name,
		Description:     input.Description,
		Price:           input.Price,
		ImageURL:        imageURL,
		StripeProductID: stripeProductID,
		StripePriceID:   stripePriceID,
		CategoryID:      category.ID,
		CategoryName:    category.CategoryName,
		OwnerID:         principal.ID,
		FamilyID:        creator.FamilyID,
		OwnerIDs:        dbtypes.UUIDArray{principal.ID}.With(creator.OwnerID),
		Active:          true,
		Stock:           input.Stock,
	}
	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}

	if err := s.counter.IncrementProductCount(ctx, category.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "incrementing product count")
	}

	return created, nil
}

func (s *productService) PatchProduct(ctx context.Context, principal authz.Principal, id uuid.UUID, input PatchProductInput) (*models.Product, error) {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if decision := authz.Authorize(principal, authz.ForProduct(product), authz.ActionUpdate); !decision.Allowed {
		return nil, authz.Denied(authz.ActionUpdate, decision)
	}

	catalogChanged := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
		catalogChanged = true
	}
	if input.Description != nil {
		product.Description = *input.Description
		catalogChanged = true
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.Active != nil {
		product.Active = *input.Active
	}

	if catalogChanged {
		if err := s.payments.UpdateProduct(ctx, product.StripeProductID, product.Name, product.Description); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating payment product")
		}
	}

	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
		}
		// Prices are immutable upstream; a change mints a new one.
		priceID, priceErr := s.payments.CreatePrice(ctx, product.StripeProductID, MinorUnits(*input.Price))
		if priceErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, priceErr, "creating payment price")
		}
		product.Price = *input.Price
		product.StripePriceID = priceID
	}

	if input.Image != nil {
		oldURL := product.ImageURL
		newURL, upErr := s.uploadImage(ctx, input.Image)
		if upErr != nil {
			return nil, upErr
		}
		product.ImageURL = newURL
		if oldURL != "" {
			if delErr := s.media.DeleteByURL(ctx, oldURL); delErr != nil {
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": product.ID.String(),
					"image_url":  oldURL,
				}), "replaced product image could not be removed")
			}
		}
	}

	for _, ownerID := range input.AdditionalOwners {
		if ownerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "additional owner id cannot be empty")
		}
		product.OwnerIDs = product.OwnerIDs.With(ownerID)
	}

	applied, err := s.products.UpdateGuarded(ctx, product, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	if !applied {
		// Membership was revoked between the read and the guarded write.
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not permitted for this resource")
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, principal authz.Principal, id uuid.UUID) error {
	product, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if decision := authz.Authorize(principal, authz.ForProduct(product), authz.ActionDelete); !decision.Allowed {
		return authz.Denied(authz.ActionDelete, decision)
	}

	if err := s.payments.DeleteProduct(ctx, product.StripeProductID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting payment product")
	}

	if product.ImageURL != "" {
		if err := s.media.DeleteByURL(ctx, product.ImageURL); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"product_id": product.ID.String(),
				"image_url":  product.ImageURL,
			}), "product image could not be removed")
		}
	}

	deleted, err := s.products.DeleteGuarded(ctx, id, principal.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not permitted for this resource")
	}

	if _, err := s.counter.DecrementProductCount(ctx, product.CategoryID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrementing product count")
	}

	return nil
}

func (s *productService) uploadImage(ctx context.Context, image *ImageUpload) (string, error) {
	if len(image.Data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image data is required")
	}
	filename := path.Base(strings.TrimSpace(image.Filename))
	if filename == "" || filename == "." || filename == "/" {
		filename = "image"
	}
	objectName := fmt.Sprintf("products/%s/%s", uuid.NewString(), filename)
	url, err := s.media.Upload(ctx, objectName, image.ContentType, image.Data)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "uploading product image")
	}
	return url, nil
}

func (s *productService) loadProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return product, nil
}
