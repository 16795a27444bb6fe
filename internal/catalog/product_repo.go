package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
)

// ProductRepository persists product rows. Mutations are guarded on owner-set
// membership so a revoked collaborator cannot race a write through.
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository constructs a product repository tied to the provided GORM DB.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *ProductRepository) WithTx(tx *gorm.DB) *ProductRepository {
	return &ProductRepository{db: tx}
}

// Create inserts a new product row.
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads one product; gorm.ErrRecordNotFound when missing.
func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListVisibleTo returns candidate rows the principal might read.
func (r *ProductRepository) ListVisibleTo(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("? = ANY(owner_ids) OR owner_id = ?", principalID, principalID)
	if familyID != nil {
		query = query.Or("family_id = ?", *familyID)
	}

	var rows []models.Product
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateGuarded saves the mutated columns only while the acting principal is
// still in the row's owner set. False means the guard failed (membership
// revoked between read and write).
func (r *ProductRepository) UpdateGuarded(ctx context.Context, product *models.Product, actorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND ? = ANY(owner_ids)", product.ID, actorID).
		Updates(map[string]any{
			"name":            product.Name,
			"description":     product.Description,
			"price":           product.Price,
			"image_url":       product.ImageURL,
			"stripe_price_id": product.StripePriceID,
			"owner_ids":       product.OwnerIDs,
			"active":          product.Active,
			"stock":           product.Stock,
		})
	if res.Error != nil {
		return false, fmt.Errorf("updating product %s: %w", product.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteGuarded removes the row only while the acting principal is a member.
func (r *ProductRepository) DeleteGuarded(ctx context.Context, id, actorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM products WHERE id = ? AND ? = ANY(owner_ids)`, id, actorID)
	if res.Error != nil {
		return false, fmt.Errorf("deleting product %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CountByCategory counts live references, used by invariants tests and the
// readiness surface rather than the hot path (product_count is the cached copy).
func (r *ProductRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
