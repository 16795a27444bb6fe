package ownership

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository performs owner-set reads and guarded array updates. All writes
// are single-row conditional statements, never read-modify-write.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an ownership repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListOwnedBy returns the ids of rows whose owner set contains the pivot
// principal. Backed by the GIN index on owner_ids.
func (r *Repository) ListOwnedBy(ctx context.Context, entity Entity, pivotID uuid.UUID) ([]uuid.UUID, error) {
	table, err := tableFor(entity)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("? = ANY(owner_ids)", pivotID).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("scanning %s owner sets: %w", entity, err)
	}
	return ids, nil
}

// AddOwner appends the member to the row's owner set. The membership guard in
// the WHERE clause makes re-adding a present member a no-op.
func (r *Repository) AddOwner(ctx context.Context, entity Entity, rowID, memberID uuid.UUID) error {
	table, err := tableFor(entity)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE %s SET owner_ids = array_append(owner_ids, ?), updated_at = now() WHERE id = ? AND NOT (? = ANY(owner_ids))`, table),
		memberID, rowID, memberID,
	)
	if res.Error != nil {
		return fmt.Errorf("adding owner to %s row %s: %w", entity, rowID, res.Error)
	}
	return nil
}

// RemoveOwner strips the member from the row's owner set. Removing an absent
// member is a no-op; the row itself is never deleted.
func (r *Repository) RemoveOwner(ctx context.Context, entity Entity, rowID, memberID uuid.UUID) error {
	table, err := tableFor(entity)
	if err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Exec(
		fmt.Sprintf(`UPDATE %s SET owner_ids = array_remove(owner_ids, ?), updated_at = now() WHERE id = ?`, table),
		memberID, rowID,
	)
	if res.Error != nil {
		return fmt.Errorf("removing owner from %s row %s: %w", entity, rowID, res.Error)
	}
	return nil
}

func tableFor(entity Entity) (string, error) {
	table, ok := tableNames[entity]
	if !ok {
		return "", fmt.Errorf("unknown owner-set entity %q", entity)
	}
	return table, nil
}
