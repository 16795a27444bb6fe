package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
)

// CategoryRepository persists category rows and the guarded updates the
// coordinator relies on.
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository constructs a category repository tied to the provided GORM DB.
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *CategoryRepository) WithTx(tx *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: tx}
}

// Create inserts a new category row.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindByID loads one category; gorm.ErrRecordNotFound when missing.
func (r *CategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListVisibleTo returns candidate rows the principal might read: owner-set
// membership, creator, or same family. The evaluator makes the final call.
func (r *CategoryRepository) ListVisibleTo(ctx context.Context, principalID uuid.UUID, familyID *uuid.UUID) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("? = ANY(owner_ids) OR owner_id = ?", principalID, principalID)
	if familyID != nil {
		query = query.Or("family_id = ?", *familyID)
	}

	var rows []models.Category
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Rename updates the canonical name and cascades the cached copy to every
// referencing product in one transaction, category row first. Returns the
// number of product rows rewritten.
func (r *CategoryRepository) Rename(ctx context.Context, id uuid.UUID, newName string) (int64, error) {
	var cascaded int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE categories SET category_name = ?, updated_at = now() WHERE id = ?`, newName, id)
		if res.Error != nil {
			return fmt.Errorf("renaming category %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		cascade := tx.Exec(
			`UPDATE products SET category_name = ?, updated_at = now() WHERE category_id = ?`, newName, id)
		if cascade.Error != nil {
			return fmt.Errorf("cascading category name to products: %w", cascade.Error)
		}
		cascaded = cascade.RowsAffected
		return nil
	})
	return cascaded, err
}

// DeleteIfEmpty removes the category only while no products reference it,
// optionally scrubbing the deleting owner from referencing products' owner
// sets first (legacy behavior). A false result means the category vanished or
// regained products between the caller's check and the guarded delete.
func (r *CategoryRepository) DeleteIfEmpty(ctx context.Context, id uuid.UUID, scrubOwner *uuid.UUID) (bool, int64, error) {
	var (
		deleted  bool
		scrubbed int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if scrubOwner != nil {
			scrub := tx.Exec(
				`UPDATE products SET owner_ids = array_remove(owner_ids, ?), updated_at = now() WHERE category_id = ?`,
				*scrubOwner, id)
			if scrub.Error != nil {
				return fmt.Errorf("scrubbing owner from products: %w", scrub.Error)
			}
			scrubbed = scrub.RowsAffected
		}

		res := tx.Exec(`DELETE FROM categories WHERE id = ? AND product_count = 0`, id)
		if res.Error != nil {
			return fmt.Errorf("deleting category %s: %w", id, res.Error)
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, scrubbed, err
}

// IsNotFound reports whether err is the repository's missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
