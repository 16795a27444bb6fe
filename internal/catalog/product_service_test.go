package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
)

type fakeProductStore struct {
	createFn        func(ctx context.Context, product *models.Product) (*models.Product, error)
	findByIDFn      func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	listVisibleToFn func(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Product, error)
	updateGuardedFn func(ctx context.Context, product *models.Product, actorID uuid.UUID) (bool, error)
	deleteGuardedFn func(ctx context.Context, id, actorID uuid.UUID) (bool, error)
}

func (f *fakeProductStore) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	return f.createFn(ctx, product)
}

func (f *fakeProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeProductStore) ListVisibleTo(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Product, error) {
	return f.listVisibleToFn(ctx, principalID, familyID)
}

func (f *fakeProductStore) UpdateGuarded(ctx context.Context, product *models.Product, actorID uuid.UUID) (bool, error) {
	return f.updateGuardedFn(ctx, product, actorID)
}

func (f *fakeProductStore) DeleteGuarded(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
	return f.deleteGuardedFn(ctx, id, actorID)
}

type fakeCounter struct {
	incrementFn func(ctx context.Context, categoryID uuid.UUID) error
	decrementFn func(ctx context.Context, categoryID uuid.UUID) (CounterResult, error)
}

func (f *fakeCounter) IncrementProductCount(ctx context.Context, categoryID uuid.UUID) error {
	if f.incrementFn == nil {
		return nil
	}
	return f.incrementFn(ctx, categoryID)
}

func (f *fakeCounter) DecrementProductCount(ctx context.Context, categoryID uuid.UUID) (CounterResult, error) {
	if f.decrementFn == nil {
		return CounterApplied, nil
	}
	return f.decrementFn(ctx, categoryID)
}

type fakePaymentCatalog struct {
	createProductFn func(ctx context.Context, name, description string) (string, error)
	updateProductFn func(ctx context.Context, stripeProductID, name, description string) error
	deleteProductFn func(ctx context.Context, stripeProductID string) error
	createPriceFn   func(ctx context.Context, stripeProductID string, unitAmount int64) (string, error)
}

func (f *fakePaymentCatalog) CreateProduct(ctx context.Context, name, description string) (string, error) {
	if f.createProductFn == nil {
		return "prod_test", nil
	}
	return f.createProductFn(ctx, name, description)
}

func (f *fakePaymentCatalog) UpdateProduct(ctx context.Context, stripeProductID, name, description string) error {
	if f.updateProductFn == nil {
		return nil
	}
	return f.updateProductFn(ctx, stripeProductID, name, description)
}

func (f *fakePaymentCatalog) DeleteProduct(ctx context.Context, stripeProductID string) error {
	if f.deleteProductFn == nil {
		return nil
	}
	return f.deleteProductFn(ctx, stripeProductID)
}

func (f *fakePaymentCatalog) CreatePrice(ctx context.Context, stripeProductID string, unitAmount int64) (string, error) {
	if f.createPriceFn == nil {
		return "price_test", nil
	}
	return f.createPriceFn(ctx, stripeProductID, unitAmount)
}

type fakeMediaStore struct {
	uploadFn      func(ctx context.Context, objectName, contentType string, data []byte) (string, error)
	deleteByURLFn func(ctx context.Context, rawURL string) error
}

func (f *fakeMediaStore) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if f.uploadFn == nil {
		return "https://storage.googleapis.com/bucket/" + objectName, nil
	}
	return f.uploadFn(ctx, objectName, contentType, data)
}

func (f *fakeMediaStore) DeleteByURL(ctx context.Context, rawURL string) error {
	if f.deleteByURLFn == nil {
		return nil
	}
	return f.deleteByURLFn(ctx, rawURL)
}

type productServiceDeps struct {
	products   *fakeProductStore
	categories *fakeCategoryStore
	counter    *fakeCounter
	payments   *fakePaymentCatalog
	media      *fakeMediaStore
	users      userLoader
}

func newProductService(t *testing.T, deps productServiceDeps) ProductService {
	t.Helper()
	if deps.products == nil {
		deps.products = &fakeProductStore{}
	}
	if deps.categories == nil {
		deps.categories = &fakeCategoryStore{}
	}
	if deps.counter == nil {
		deps.counter = &fakeCounter{}
	}
	if deps.payments == nil {
		deps.payments = &fakePaymentCatalog{}
	}
	if deps.media == nil {
		deps.media = &fakeMediaStore{}
	}
	if deps.users == nil {
		deps.users = userLoaderFor(nil)
	}
	svc, err := NewProductService(deps.products, deps.categories, deps.counter, deps.payments, deps.media, deps.users, testLogger())
	if err != nil {
		t.Fatalf("NewProductService: %v", err)
	}
	return svc
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		price string
		want  int64
	}{
		{"12.50", 1250},
		{"0.01", 1},
		{"99.999", 10000},
		{"3", 300},
	}
	for _, tc := range cases {
		got := MinorUnits(decimal.RequireFromString(tc.price))
		if got != tc.want {
			t.Errorf("MinorUnits(%s) = %d, want %d", tc.price, got, tc.want)
		}
	}
}

func TestCreateProductWiresCatalogAndCounter(t *testing.T) {
	creator := &models.User{ID: uuid.New(), OwnerID: uuid.New(), Name: "Maya"}
	principal := authz.Principal{ID: creator.ID}
	category := &models.Category{
		ID:           uuid.New(),
		CategoryName: "Ceramics",
		OwnerID:      creator.ID,
		OwnerIDs:     dbtypes.UUIDArray{creator.ID},
	}

	var (
		priceAmount int64
		incremented uuid.UUID
		inserted    *models.Product
	)
	deps := productServiceDeps{
		products: &fakeProductStore{
			createFn: func(ctx context.Context, product *models.Product) (*models.Product, error) {
				inserted = product
				product.ID = uuid.New()
				return product, nil
			},
		},
		categories: &fakeCategoryStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Category, error) {
				return category, nil
			},
		},
		counter: &fakeCounter{
			incrementFn: func(ctx context.Context, categoryID uuid.UUID) error {
				incremented = categoryID
				return nil
			},
		},
		payments: &fakePaymentCatalog{
			createProductFn: func(ctx context.Context, name, description string) (string, error) {
				return "prod_123", nil
			},
			createPriceFn: func(ctx context.Context, stripeProductID string, unitAmount int64) (string, error) {
				priceAmount = unitAmount
				return "price_123", nil
			},
		},
		users: userLoaderFor(creator),
	}
	svc := newProductService(t, deps)

	created, err := svc.CreateProduct(context.Background(), principal, CreateProductInput{
		Name:       "Glazed Mug",
		Price:      decimal.RequireFromString("24.99"),
		CategoryID: category.ID,
		Stock:      5,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if priceAmount != 2499 {
		t.Fatalf("expected minor units 2499, got %d", priceAmount)
	}
	if created.StripeProductID != "prod_123" || created.StripePriceID != "price_123" {
		t.Fatalf("payment ids not stored: %q %q", created.StripeProductID, created.StripePriceID)
	}
	if created.CategoryName != "Ceramics" {
		t.Fatalf("expected cached category name, got %q", created.CategoryName)
	}
	if incremented != category.ID {
		t.Fatalf("counter incremented for %s, want %s", incremented, category.ID)
	}
	if !inserted.OwnerIDs.Contains(creator.ID) || !inserted.OwnerIDs.Contains(creator.OwnerID) {
		t.Fatalf("owner set missing creator or inviter: %v", inserted.OwnerIDs)
	}
	if !inserted.Active {
		t.Fatal("new products start active")
	}
}

func TestCreateProductHidesInvisibleCategory(t *testing.T) {
	stranger := uuid.New()
	category := &models.Category{ID: uuid.New(), OwnerID: stranger, OwnerIDs: dbtypes.UUIDArray{stranger}}
	deps := productServiceDeps{
		categories: &fakeCategoryStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Category, error) {
				return category, nil
			},
		},
	}
	svc := newProductService(t, deps)

	_, err := svc.CreateProduct(context.Background(), authz.Principal{ID: uuid.New()}, CreateProductInput{
		Name:       "Mug",
		Price:      decimal.RequireFromString("5.00"),
		CategoryID: category.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("invisible category must read as not found, got %v", err)
	}
}

func TestCreateProductValidatesInput(t *testing.T) {
	svc := newProductService(t, productServiceDeps{})

	cases := []CreateProductInput{
		{Name: "  ", Price: decimal.RequireFromString("5.00"), CategoryID: uuid.New()},
		{Name: "Mug", Price: decimal.Zero, CategoryID: uuid.New()},
		{Name: "Mug", Price: decimal.RequireFromString("-1"), CategoryID: uuid.New()},
		{Name: "Mug", Price: decimal.RequireFromString("5.00")},
	}
	for i, input := range cases {
		_, err := svc.CreateProduct(context.Background(), authz.Principal{ID: uuid.New()}, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestCreateProductSurfacesPaymentOutage(t *testing.T) {
	creator := &models.User{ID: uuid.New(), OwnerID: uuid.New()}
	category := &models.Category{ID: uuid.New(), OwnerID: creator.ID, OwnerIDs: dbtypes.UUIDArray{creator.ID}}
	deps := productServiceDeps{
		categories: &fakeCategoryStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Category, error) {
				return category, nil
			},
		},
		payments: &fakePaymentCatalog{
			createProductFn: func(ctx context.Context, name, description string) (string, error) {
				return "", context.DeadlineExceeded
			},
		},
		users: userLoaderFor(creator),
	}
	svc := newProductService(t, deps)

	_, err := svc.CreateProduct(context.Background(), authz.Principal{ID: creator.ID}, CreateProductInput{
		Name:       "Mug",
		Price:      decimal.RequireFromString("5.00"),
		CategoryID: category.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestPatchProductMintsNewPriceOnPriceChange(t *testing.T) {
	owner := uuid.New()
	product := &models.Product{
		ID:              uuid.New(),
		Name:            "Mug",
		Price:           decimal.RequireFromString("10.00"),
		StripeProductID: "prod_123",
		StripePriceID:   "price_old",
		OwnerID:         owner,
		OwnerIDs:        dbtypes.UUIDArray{owner},
	}

	var mintedAmount int64
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				copied := *product
				return &copied, nil
			},
			updateGuardedFn: func(ctx context.Context, p *models.Product, actorID uuid.UUID) (bool, error) {
				return true, nil
			},
		},
		payments: &fakePaymentCatalog{
			createPriceFn: func(ctx context.Context, stripeProductID string, unitAmount int64) (string, error) {
				mintedAmount = unitAmount
				return "price_new", nil
			},
		},
	}
	svc := newProductService(t, deps)

	newPrice := decimal.RequireFromString("15.00")
	updated, err := svc.PatchProduct(context.Background(), authz.Principal{ID: owner}, product.ID, PatchProductInput{
		Price: &newPrice,
	})
	if err != nil {
		t.Fatalf("PatchProduct: %v", err)
	}
	if mintedAmount != 1500 {
		t.Fatalf("expected new price at 1500 minor units, got %d", mintedAmount)
	}
	if updated.StripePriceID != "price_new" {
		t.Fatalf("expected new price id, got %q", updated.StripePriceID)
	}
}

func TestPatchProductReplacesImageAndRemovesOldObject(t *testing.T) {
	owner := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Mug",
		Price:    decimal.RequireFromString("10.00"),
		ImageURL: "https://storage.googleapis.com/bucket/products/old/image.png",
		OwnerID:  owner,
		OwnerIDs: dbtypes.UUIDArray{owner},
	}

	var deletedURL string
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				copied := *product
				return &copied, nil
			},
			updateGuardedFn: func(ctx context.Context, p *models.Product, actorID uuid.UUID) (bool, error) {
				return true, nil
			},
		},
		media: &fakeMediaStore{
			deleteByURLFn: func(ctx context.Context, rawURL string) error {
				deletedURL = rawURL
				return nil
			},
		},
	}
	svc := newProductService(t, deps)

	updated, err := svc.PatchProduct(context.Background(), authz.Principal{ID: owner}, product.ID, PatchProductInput{
		Image: &ImageUpload{Filename: "new.png", ContentType: "image/png", Data: []byte("png")},
	})
	if err != nil {
		t.Fatalf("PatchProduct: %v", err)
	}
	if deletedURL != product.ImageURL {
		t.Fatalf("expected old image removed, deleted %q", deletedURL)
	}
	if updated.ImageURL == product.ImageURL || updated.ImageURL == "" {
		t.Fatalf("expected a fresh image url, got %q", updated.ImageURL)
	}
	if !strings.HasSuffix(updated.ImageURL, "/new.png") {
		t.Fatalf("expected object named after upload, got %q", updated.ImageURL)
	}
}

func TestPatchProductAppendsAdditionalOwners(t *testing.T) {
	owner := uuid.New()
	extra := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Mug",
		Price:    decimal.RequireFromString("10.00"),
		OwnerID:  owner,
		OwnerIDs: dbtypes.UUIDArray{owner},
	}

	var written *models.Product
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				copied := *product
				return &copied, nil
			},
			updateGuardedFn: func(ctx context.Context, p *models.Product, actorID uuid.UUID) (bool, error) {
				written = p
				return true, nil
			},
		},
	}
	svc := newProductService(t, deps)

	_, err := svc.PatchProduct(context.Background(), authz.Principal{ID: owner}, product.ID, PatchProductInput{
		AdditionalOwners: []uuid.UUID{extra, extra},
	})
	if err != nil {
		t.Fatalf("PatchProduct: %v", err)
	}
	if !written.OwnerIDs.Contains(extra) {
		t.Fatalf("expected extra owner appended, got %v", written.OwnerIDs)
	}
	if len(written.OwnerIDs) != 2 {
		t.Fatalf("duplicate appends must fold, got %v", written.OwnerIDs)
	}
}

func TestPatchProductGuardFailureIsForbidden(t *testing.T) {
	owner := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Mug",
		Price:    decimal.RequireFromString("10.00"),
		OwnerID:  owner,
		OwnerIDs: dbtypes.UUIDArray{owner},
	}
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				copied := *product
				return &copied, nil
			},
			updateGuardedFn: func(ctx context.Context, p *models.Product, actorID uuid.UUID) (bool, error) {
				return false, nil
			},
		},
	}
	svc := newProductService(t, deps)

	name := "Renamed"
	_, err := svc.PatchProduct(context.Background(), authz.Principal{ID: owner}, product.ID, PatchProductInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("revoked membership mid-flight must surface as forbidden, got %v", err)
	}
}

func TestDeleteProductDecrementsCounter(t *testing.T) {
	owner := uuid.New()
	product := &models.Product{
		ID:              uuid.New(),
		StripeProductID: "prod_123",
		CategoryID:      uuid.New(),
		OwnerID:         owner,
		OwnerIDs:        dbtypes.UUIDArray{owner},
	}

	var (
		deletedStripe string
		decremented   uuid.UUID
	)
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				return product, nil
			},
			deleteGuardedFn: func(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
				return true, nil
			},
		},
		counter: &fakeCounter{
			decrementFn: func(ctx context.Context, categoryID uuid.UUID) (CounterResult, error) {
				decremented = categoryID
				return CounterApplied, nil
			},
		},
		payments: &fakePaymentCatalog{
			deleteProductFn: func(ctx context.Context, stripeProductID string) error {
				deletedStripe = stripeProductID
				return nil
			},
		},
	}
	svc := newProductService(t, deps)

	if err := svc.DeleteProduct(context.Background(), authz.Principal{ID: owner}, product.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if deletedStripe != "prod_123" {
		t.Fatalf("expected payment product deleted, got %q", deletedStripe)
	}
	if decremented != product.CategoryID {
		t.Fatalf("counter decremented for %s, want %s", decremented, product.CategoryID)
	}
}

func TestDeleteProductToleratesMediaFailure(t *testing.T) {
	owner := uuid.New()
	product := &models.Product{
		ID:       uuid.New(),
		ImageURL: "https://storage.googleapis.com/bucket/products/x/image.png",
		OwnerID:  owner,
		OwnerIDs: dbtypes.UUIDArray{owner},
	}
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				return product, nil
			},
			deleteGuardedFn: func(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
				return true, nil
			},
		},
		media: &fakeMediaStore{
			deleteByURLFn: func(ctx context.Context, rawURL string) error {
				return context.DeadlineExceeded
			},
		},
	}
	svc := newProductService(t, deps)

	if err := svc.DeleteProduct(context.Background(), authz.Principal{ID: owner}, product.ID); err != nil {
		t.Fatalf("media cleanup is best effort, got %v", err)
	}
}

func TestGetProductMissingRowIsNotFound(t *testing.T) {
	deps := productServiceDeps{
		products: &fakeProductStore{
			findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Product, error) {
				return nil, gorm.ErrRecordNotFound
			},
		},
	}
	svc := newProductService(t, deps)

	_, err := svc.GetProduct(context.Background(), authz.Principal{ID: uuid.New()}, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
