package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/pkg/metrics"
)

// CounterResult reports the outcome of a guarded counter adjustment.
type CounterResult string

const (
	CounterApplied CounterResult = "applied"
	CounterNoOp    CounterResult = "noop"
)

// CounterMaintainer keeps categories.product_count consistent under
// concurrent product create/delete. Both operations are single guarded
// UPDATE statements, never read-then-write.
type CounterMaintainer struct {
	db      *gorm.DB
	metrics *metrics.CatalogMetrics
}

// NewCounterMaintainer builds the maintainer. Metrics may be nil.
func NewCounterMaintainer(db *gorm.DB, m *metrics.CatalogMetrics) *CounterMaintainer {
	return &CounterMaintainer{db: db, metrics: m}
}

// WithTx returns a maintainer bound to the given transaction.
func (c *CounterMaintainer) WithTx(tx *gorm.DB) *CounterMaintainer {
	return &CounterMaintainer{db: tx, metrics: c.metrics}
}

// IncrementProductCount bumps the cached count for the category.
func (c *CounterMaintainer) IncrementProductCount(ctx context.Context, categoryID uuid.UUID) error {
	res := c.db.WithContext(ctx).Exec(
		`UPDATE categories SET product_count = product_count + 1, updated_at = now() WHERE id = ?`,
		categoryID)
	if res.Error != nil {
		return fmt.Errorf("incrementing product count for %s: %w", categoryID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	c.metrics.IncCounterAdjustment()
	return nil
}

// DecrementProductCount lowers the cached count, flooring at zero. The
// product_count > 0 guard makes a decrement of an already-zero counter a
// NoOp instead of driving the count negative.
func (c *CounterMaintainer) DecrementProductCount(ctx context.Context, categoryID uuid.UUID) (CounterResult, error) {
	res := c.db.WithContext(ctx).Exec(
		`UPDATE categories SET product_count = product_count - 1, updated_at = now() WHERE id = ? AND product_count > 0`,
		categoryID)
	if res.Error != nil {
		return CounterNoOp, fmt.Errorf("decrementing product count for %s: %w", categoryID, res.Error)
	}
	if res.RowsAffected == 0 {
		c.metrics.IncCounterNoop()
		return CounterNoOp, nil
	}
	c.metrics.IncCounterAdjustment()
	return CounterApplied, nil
}
